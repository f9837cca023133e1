package recipe

import (
	"context"
	"fmt"
	"strings"

	"ulam-ai/internal/core/ai/service"
	"ulam-ai/internal/pkg/common"

	"github.com/sourcegraph/conc"
	"go.uber.org/zap"
)

// SuggestionService 菜色推薦服務
type SuggestionService struct {
	*Service
	images ImageResolver
}

// NewSuggestionService 創建新的菜色推薦服務
func NewSuggestionService(base *Service, images ImageResolver) *SuggestionService {
	return &SuggestionService{
		Service: base,
		images:  images,
	}
}

// SuggestDishes 根據食材櫃與設定推薦菜色
// 回傳前會等所有菜色的圖片解析結束，並依符合食材數排序
func (s *SuggestionService) SuggestDishes(ctx context.Context, req SuggestRequest) ([]common.DishSuggestion, error) {
	prompt := buildSuggestionPrompt(s.config, req)
	common.LogDebug("SuggestDishes 組裝的 prompt", zap.String("prompt", prompt))

	content, err := s.generate(ctx, service.KindSuggest, prompt, s.config.SuggestTimeout)
	if err != nil {
		common.LogError("推薦菜色失敗", zap.Error(err))
		return nil, common.ErrOracleUnavailable.Wrap(err)
	}

	dishes, err := s.parseSuggestions(content)
	if err != nil {
		common.LogError("AI 回應解析失敗", zap.Error(err), zap.Int("ai_response_length", len(content)))
		return nil, common.ErrOracleUnavailable.Wrap(err)
	}

	s.attachImages(ctx, dishes)

	ranked := Rank(dishes, req.Pantry)
	common.LogInfo("推薦菜色完成", zap.Int("count", len(ranked)))
	return ranked, nil
}

// parseSuggestions 解析並驗證 AI 回傳的菜色陣列
func (s *SuggestionService) parseSuggestions(content string) ([]common.DishSuggestion, error) {
	var dishes []common.DishSuggestion
	if err := common.ParseJSON(common.ExtractJSON(content, '[', ']'), &dishes); err != nil {
		return nil, fmt.Errorf("failed to parse AI response: %w", err)
	}
	if len(dishes) == 0 {
		return nil, fmt.Errorf("AI response contains no dishes")
	}

	seen := make(map[string]int, len(dishes))
	for i := range dishes {
		d := &dishes[i]
		d.Name = strings.TrimSpace(d.Name)
		d.Difficulty = normalizeDifficulty(d.Difficulty)
		d.Image = ""
		d.FullDetails = nil

		if err := s.validate.Struct(d); err != nil {
			return nil, fmt.Errorf("dish %d failed validation: %w", i, err)
		}

		// 同一批次內 id 必須唯一
		id := string(d.ID)
		if n := seen[id]; n > 0 {
			d.ID = common.FlexString(fmt.Sprintf("%s-%d", id, n+1))
		}
		seen[id]++
	}
	return dishes, nil
}

// attachImages 同時為每道菜解析圖片，單一失敗不影響其他菜色
func (s *SuggestionService) attachImages(ctx context.Context, dishes []common.DishSuggestion) {
	if s.images == nil {
		return
	}

	var wg conc.WaitGroup
	for i := range dishes {
		i := i
		wg.Go(func() {
			dishes[i].Image = s.resolveWithVariations(ctx, dishes[i].Name)
		})
	}
	if recovered := wg.WaitAndRecover(); recovered != nil {
		common.LogError("圖片解析工作 panic", zap.String("panic", recovered.String()))
	}
}

// resolveWithVariations 原名找不到時改用別名再試
func (s *SuggestionService) resolveWithVariations(ctx context.Context, name string) string {
	if url := s.images.Resolve(ctx, name); url != "" {
		return url
	}
	for _, variation := range s.nameVariations(name) {
		if ctx.Err() != nil {
			return ""
		}
		if url := s.images.Resolve(ctx, variation); url != "" {
			return url
		}
	}
	return ""
}

// nameVariations 產生菜名的替代寫法，不含原名本身
func (s *SuggestionService) nameVariations(name string) []string {
	candidates := []string{
		name + " " + strings.ToLower(s.config.Cuisine),
		name + " recipe",
	}
	for _, alias := range s.config.NameAliases {
		prefix, replacement, ok := strings.Cut(alias, "=")
		if !ok || prefix == "" {
			continue
		}
		if len(name) >= len(prefix) && strings.EqualFold(name[:len(prefix)], prefix) {
			candidates = append(candidates, replacement+name[len(prefix):])
		}
	}

	out := make([]string, 0, len(candidates))
	seen := map[string]bool{common.Normalize(name): true}
	for _, c := range candidates {
		key := common.Normalize(c)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, c)
	}
	return out
}

func normalizeDifficulty(d common.Difficulty) common.Difficulty {
	switch strings.ToLower(strings.TrimSpace(string(d))) {
	case "easy":
		return common.DifficultyEasy
	case "medium":
		return common.DifficultyMedium
	case "hard":
		return common.DifficultyHard
	}
	return d
}
