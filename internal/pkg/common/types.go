package common

import (
	"bytes"
	"encoding/json"
	"slices"
	"strings"
	"time"
)

// Difficulty 料理難度
type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

// IngredientStatus 食材是否已在食材櫃中
type IngredientStatus string

const (
	StatusHave    IngredientStatus = "have"
	StatusMissing IngredientStatus = "missing"
)

// FlexString AI 可能回傳數字或字串的欄位，統一轉為字串
type FlexString string

// UnmarshalJSON 接受字串、數字或 null
func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FlexString(n.String())
	return nil
}

// String 實現 fmt.Stringer
func (f FlexString) String() string {
	return string(f)
}

// DishSuggestion 推薦菜色
// Matched / Missing / MatchScore 由食材比對後填入
type DishSuggestion struct {
	ID                  FlexString    `json:"id" validate:"required"`
	Name                string        `json:"name" validate:"required"`
	Description         string        `json:"description"`
	RequiredIngredients []string      `json:"allIngredients" validate:"required,dive,required"`
	Difficulty          Difficulty    `json:"difficulty" validate:"omitempty,oneof=Easy Medium Hard"`
	PrepTime            string        `json:"prepTime"`
	Calories            FlexString    `json:"calories"`
	EstimatedCost       FlexString    `json:"estimatedCost"`
	Image               string        `json:"image,omitempty"`
	Matched             []string      `json:"matches"`
	Missing             []string      `json:"missing"`
	MatchScore          int           `json:"matchCount"`
	FullDetails         *RecipeDetail `json:"fullDetails,omitempty"`
}

// HasImageURL 是否已附帶可直接使用的圖片網址
func (d *DishSuggestion) HasImageURL() bool {
	return IsHTTPURL(d.Image)
}

// Nutrition 營養估算
type Nutrition struct {
	Calories FlexString `json:"calories"`
	Protein  FlexString `json:"protein"`
	Carbs    FlexString `json:"carbs"`
	Fat      FlexString `json:"fat"`
}

// DetailIngredient 食譜中的一項食材
type DetailIngredient struct {
	Item   string           `json:"item" validate:"required"`
	Amount FlexString       `json:"amount"`
	Price  FlexString       `json:"price"`
	Status IngredientStatus `json:"status" validate:"required,oneof=have missing"`
}

// InstructionStep 料理步驟
type InstructionStep struct {
	StepNumber int    `json:"step"`
	Text       string `json:"text" validate:"required"`
}

// RecipeDetail 完整食譜
type RecipeDetail struct {
	ChefNote     string             `json:"chefNote"`
	TotalCost    FlexString         `json:"totalCost"`
	Nutrition    Nutrition          `json:"nutrition"`
	Ingredients  []DetailIngredient `json:"ingredients" validate:"required,min=1,dive"`
	Instructions []InstructionStep  `json:"instructions" validate:"required,min=1,dive"`
}

// CacheEntry 本機結果快取的一筆資料
type CacheEntry struct {
	Key           string        `json:"key"`
	Detail        *RecipeDetail `json:"fullDetails,omitempty"`
	ImageURL      string        `json:"image,omitempty"`
	LastWrittenAt time.Time     `json:"timestamp"`
}

// SavedRecipe 使用者收藏的食譜
type SavedRecipe struct {
	DishSuggestion
	SavedID string    `json:"savedId"`
	OwnerID string    `json:"ownerId"`
	SavedAt time.Time `json:"savedAt"`
}

// Settings 使用者的料理設定
type Settings struct {
	PartySize  int     `json:"party_size" binding:"omitempty,min=1,max=50"`
	Budget     float64 `json:"budget,omitempty" binding:"omitempty,gte=0"`
	HealthMode bool    `json:"health_mode"`
	Locale     string  `json:"locale" binding:"omitempty,oneof=en ph"`
}

// WithDefaults 補齊預設值
func (s Settings) WithDefaults() Settings {
	if s.PartySize < 1 {
		s.PartySize = 2
	}
	if s.Locale == "" {
		s.Locale = "en"
	}
	return s
}

// Clone 深拷貝食譜，避免快取內容被呼叫端修改
func (d *RecipeDetail) Clone() *RecipeDetail {
	if d == nil {
		return nil
	}
	out := *d
	out.Ingredients = slices.Clone(d.Ingredients)
	out.Instructions = slices.Clone(d.Instructions)
	return &out
}

// Clone 深拷貝推薦菜色
func (d DishSuggestion) Clone() DishSuggestion {
	out := d
	out.RequiredIngredients = slices.Clone(d.RequiredIngredients)
	out.Matched = slices.Clone(d.Matched)
	out.Missing = slices.Clone(d.Missing)
	out.FullDetails = d.FullDetails.Clone()
	return out
}
