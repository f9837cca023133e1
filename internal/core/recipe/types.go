package recipe

import (
	"context"

	"ulam-ai/internal/core/ai/service"
	"ulam-ai/internal/pkg/common"
)

// Generator 產生 AI 文字回應
type Generator interface {
	ProcessRequest(ctx context.Context, call service.Call) (string, error)
}

// ImageResolver 依菜名找圖片，找不到回傳空字串
type ImageResolver interface {
	Resolve(ctx context.Context, dishName string) string
}

// SuggestRequest 推薦菜色的請求
type SuggestRequest struct {
	Pantry []string
	common.Settings
}

// DetailRequest 完整食譜的請求
type DetailRequest struct {
	Dish   common.DishSuggestion
	Pantry []string
	common.Settings
}
