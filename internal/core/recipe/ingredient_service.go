package recipe

import (
	"context"
	"fmt"
	"strings"

	"ulam-ai/internal/core/ai/image"
	"ulam-ai/internal/core/ai/service"
	"ulam-ai/internal/pkg/common"

	"go.uber.org/zap"
)

// IngredientService 食材照片辨識服務
type IngredientService struct {
	*Service
	imageService *image.Processor
}

// NewIngredientService 創建新的食材辨識服務
func NewIngredientService(base *Service, imageService *image.Processor) *IngredientService {
	return &IngredientService{
		Service:      base,
		imageService: imageService,
	}
}

// ScanIngredients 辨識照片中的食材，回傳去重後的名稱
func (s *IngredientService) ScanIngredients(ctx context.Context, imageData string) ([]string, error) {
	processed, err := s.imageService.FormatImageData(imageData)
	if err != nil {
		return nil, common.ErrInvalidRequest.Wrap(fmt.Errorf("failed to process image: %w", err))
	}

	content, err := s.ai.ProcessRequest(ctx, service.Call{
		Kind:      service.KindScan,
		Prompt:    scanPrompt,
		ImageData: processed,
		Timeout:   s.config.ScanTimeout,
		Cacheable: true,
	})
	if err != nil {
		common.LogError("食材辨識失敗", zap.Error(err))
		return nil, common.ErrOracleUnavailable.Wrap(err)
	}

	var names []string
	if err := common.ParseJSON(common.ExtractJSON(content, '[', ']'), &names); err != nil {
		common.LogError("AI 回應解析失敗", zap.Error(err), zap.Int("ai_response_length", len(content)))
		return nil, common.ErrOracleUnavailable.Wrap(fmt.Errorf("failed to parse AI response: %w", err))
	}

	out := make([]string, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		key := common.Normalize(name)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, name)
	}

	common.LogInfo("食材辨識完成", zap.Int("count", len(out)))
	return out, nil
}
