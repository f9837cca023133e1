package recipe

import (
	"context"
	"fmt"
	"strings"

	"ulam-ai/internal/core/ai/service"
	"ulam-ai/internal/pkg/common"

	"go.uber.org/zap"
)

// DetailService 完整食譜生成服務
type DetailService struct {
	*Service
}

// NewDetailService 創建新的完整食譜生成服務
func NewDetailService(base *Service) *DetailService {
	return &DetailService{Service: base}
}

// FetchDetail 依菜色生成完整食譜，結果不在此快取
func (s *DetailService) FetchDetail(ctx context.Context, req DetailRequest) (*common.RecipeDetail, error) {
	prompt := buildDetailPrompt(s.config, req)

	content, err := s.generate(ctx, service.KindDetail, prompt, s.config.DetailTimeout)
	if err != nil {
		common.LogError("生成食譜失敗", zap.String("dish", req.Dish.Name), zap.Error(err))
		return nil, common.ErrDetailGenerationFailed.Wrap(err)
	}

	detail, err := s.parseDetail(content)
	if err != nil {
		common.LogError("AI 回應解析失敗",
			zap.String("dish", req.Dish.Name),
			zap.Error(err),
			zap.Int("ai_response_length", len(content)),
		)
		return nil, common.ErrDetailGenerationFailed.Wrap(err)
	}
	return detail, nil
}

// parseDetail 解析並驗證食譜，步驟重新編號為 1..n
func (s *DetailService) parseDetail(content string) (*common.RecipeDetail, error) {
	var detail common.RecipeDetail
	if err := common.ParseJSON(common.ExtractJSON(content, '{', '}'), &detail); err != nil {
		return nil, fmt.Errorf("failed to parse AI response: %w", err)
	}

	for i := range detail.Ingredients {
		ing := &detail.Ingredients[i]
		ing.Item = strings.TrimSpace(ing.Item)
		ing.Status = common.IngredientStatus(strings.ToLower(strings.TrimSpace(string(ing.Status))))
	}
	for i := range detail.Instructions {
		detail.Instructions[i].Text = strings.TrimSpace(detail.Instructions[i].Text)
	}

	if err := s.validate.Struct(&detail); err != nil {
		return nil, fmt.Errorf("recipe failed validation: %w", err)
	}

	for i := range detail.Instructions {
		detail.Instructions[i].StepNumber = i + 1
	}
	return &detail, nil
}
