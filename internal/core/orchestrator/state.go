package orchestrator

import (
	"ulam-ai/internal/pkg/common"
)

// Phase 畫面狀態名稱
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseSuggesting Phase = "suggesting"
	PhaseSuggested  Phase = "suggested"
	PhaseDetailing  Phase = "detailing"
	PhaseReady      Phase = "ready"
	PhaseError      Phase = "error"
)

// ImageStatus 圖片欄位的狀態
type ImageStatus string

const (
	ImagePending  ImageStatus = "pending"
	ImageResolved ImageStatus = "resolved"
	ImageAbsent   ImageStatus = "absent"
)

// ImageSlot 圖片解析結果
type ImageSlot struct {
	Status ImageStatus `json:"status"`
	URL    string      `json:"url,omitempty"`
}

func resolvedImage(url string) ImageSlot {
	if url == "" {
		return ImageSlot{Status: ImageAbsent}
	}
	return ImageSlot{Status: ImageResolved, URL: url}
}

// State 會話畫面狀態，只有本套件定義的型別可以實作
type State interface {
	Phase() Phase
	clone() State
}

// Idle 尚未推薦
type Idle struct{}

// Suggesting 推薦中
type Suggesting struct{}

// Suggested 推薦完成
type Suggested struct {
	Suggestions []common.DishSuggestion
}

// Detailing 已選菜色，食譜生成中
type Detailing struct {
	Dish  common.DishSuggestion
	Image ImageSlot
}

// Ready 食譜可顯示；Detail 為 nil 時表示無法載入
type Ready struct {
	Dish   common.DishSuggestion
	Detail *common.RecipeDetail
	Image  ImageSlot
}

// Unavailable 食譜生成失敗
func (r Ready) Unavailable() bool {
	return r.Detail == nil
}

// Failed 錯誤狀態，畫面以短暫提示呈現
type Failed struct {
	Code    string
	Message string
}

func (Idle) Phase() Phase       { return PhaseIdle }
func (Suggesting) Phase() Phase { return PhaseSuggesting }
func (Suggested) Phase() Phase  { return PhaseSuggested }
func (Detailing) Phase() Phase  { return PhaseDetailing }
func (Ready) Phase() Phase      { return PhaseReady }
func (Failed) Phase() Phase     { return PhaseError }

func (s Idle) clone() State       { return s }
func (s Suggesting) clone() State { return s }
func (s Failed) clone() State     { return s }

func (s Suggested) clone() State {
	out := Suggested{Suggestions: make([]common.DishSuggestion, len(s.Suggestions))}
	for i, d := range s.Suggestions {
		out.Suggestions[i] = d.Clone()
	}
	return out
}

func (s Detailing) clone() State {
	s.Dish = s.Dish.Clone()
	return s
}

func (s Ready) clone() State {
	s.Dish = s.Dish.Clone()
	s.Detail = s.Detail.Clone()
	return s
}

// failedFrom 由錯誤產生錯誤狀態
func failedFrom(err error) Failed {
	ce := common.AsCustomError(err)
	return Failed{Code: ce.Code, Message: ce.Message}
}

// View 狀態的 JSON 表示
type View struct {
	Phase       Phase                   `json:"phase"`
	Selection   uint64                  `json:"selection"`
	Suggestions []common.DishSuggestion `json:"suggestions,omitempty"`
	Dish        *common.DishSuggestion  `json:"dish,omitempty"`
	Detail      *common.RecipeDetail    `json:"detail,omitempty"`
	Unavailable bool                    `json:"detail_unavailable,omitempty"`
	Image       *ImageSlot              `json:"image,omitempty"`
	Error       *common.ErrorResponse   `json:"error,omitempty"`
}

// Render 轉為 JSON 用的 View
func Render(state State, selection uint64) View {
	v := View{Phase: state.Phase(), Selection: selection}
	switch s := state.clone().(type) {
	case Suggested:
		v.Suggestions = s.Suggestions
	case Detailing:
		v.Dish = &s.Dish
		v.Image = &s.Image
	case Ready:
		v.Dish = &s.Dish
		v.Detail = s.Detail
		v.Unavailable = s.Unavailable()
		v.Image = &s.Image
		if s.Unavailable() {
			v.Error = &common.ErrorResponse{
				Code:         common.ErrCodeDetailGenerationFailed,
				Message:      common.ErrDetailGenerationFailed.Message,
				DismissAfter: common.BannerDuration.Milliseconds(),
			}
		}
	case Failed:
		v.Error = &common.ErrorResponse{
			Code:         s.Code,
			Message:      s.Message,
			DismissAfter: common.BannerDuration.Milliseconds(),
		}
	}
	return v
}
