package recipe

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ulam-ai/internal/core/ai/service"
	"ulam-ai/internal/infrastructure/config"

	"github.com/go-playground/validator/v10"
)

// Service 食譜服務基礎結構
type Service struct {
	ai       Generator
	config   *config.OracleConfig
	validate *validator.Validate
}

// NewService 創建新的食譜服務
func NewService(ai Generator, cfg *config.OracleConfig) *Service {
	return &Service{
		ai:       ai,
		config:   cfg,
		validate: validator.New(),
	}
}

// generate 呼叫 AI 並回傳去除空白的內容
func (s *Service) generate(ctx context.Context, kind, prompt string, timeout time.Duration) (string, error) {
	content, err := s.ai.ProcessRequest(ctx, service.Call{
		Kind:    kind,
		Prompt:  prompt,
		Timeout: timeout,
	})
	if err != nil {
		return "", fmt.Errorf("AI service error: %w", err)
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return "", fmt.Errorf("empty AI response")
	}
	return content, nil
}
