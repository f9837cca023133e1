package service

import (
	"context"
	"strings"
	"time"

	"ulam-ai/internal/core/ai/cache"
	"ulam-ai/internal/core/ai/provider"
	"ulam-ai/internal/core/ai/queue"
	"ulam-ai/internal/pkg/common"
	"ulam-ai/internal/pkg/metrics"

	"go.uber.org/zap"
)

// 呼叫種類，用於日誌與指標
const (
	KindSuggest = "suggest"
	KindDetail  = "detail"
	KindScan    = "scan"
)

// Call 一次 AI 呼叫
type Call struct {
	Kind      string
	Prompt    string
	ImageData string
	Timeout   time.Duration
	// Cacheable 為 true 時相同 prompt 與圖片直接回傳快取
	Cacheable bool
}

// Service AI 服務
type Service struct {
	provider     provider.Provider
	cacheManager *cache.CacheManager
	queue        *queue.Manager
}

// NewService 創建 AI 服務，cacheManager 與 queueManager 可為 nil
func NewService(p provider.Provider, cacheManager *cache.CacheManager, queueManager *queue.Manager) *Service {
	return &Service{
		provider:     p,
		cacheManager: cacheManager,
		queue:        queueManager,
	}
}

// ProcessRequest 統一對外方法，回傳模型原始文字
func (s *Service) ProcessRequest(ctx context.Context, call Call) (string, error) {
	prompt := strings.TrimSpace(call.Prompt)
	// 快取 key 忽略多餘空白
	cacheKey := strings.Join(strings.Fields(prompt), " ")

	if call.Cacheable {
		if val, ok := s.cacheManager.Get(ctx, cacheKey, call.ImageData); ok && val != "" {
			metrics.OracleCalls.WithLabelValues(call.Kind, metrics.OutcomeHit).Inc()
			return val, nil
		}
	}

	if call.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, call.Timeout)
		defer cancel()
	}

	// 排隊時間也計入逾時
	release, err := s.queue.Acquire(ctx)
	if err != nil {
		metrics.OracleCalls.WithLabelValues(call.Kind, metrics.OutcomeFailure).Inc()
		common.LogWarn("AI 呼叫未能排入隊列", zap.String("kind", call.Kind), zap.Error(err))
		return "", err
	}
	defer release()

	req := provider.UserPrompt(prompt)
	req.ImageData = call.ImageData

	start := time.Now()
	resp, err := s.provider.Generate(ctx, req)
	duration := time.Since(start)

	metrics.OracleDuration.WithLabelValues(call.Kind).Observe(duration.Seconds())
	common.LogAICall(call.Kind, duration, err)
	if err != nil {
		metrics.OracleCalls.WithLabelValues(call.Kind, metrics.OutcomeFailure).Inc()
		return "", err
	}
	metrics.OracleCalls.WithLabelValues(call.Kind, metrics.OutcomeSuccess).Inc()

	common.LogDebug("AI 回應",
		zap.String("kind", call.Kind),
		zap.String("model", resp.Model),
		zap.Int("total_tokens", resp.Usage.TotalTokens),
	)

	if call.Cacheable {
		s.cacheManager.Set(ctx, cacheKey, call.ImageData, resp.Content)
	}
	return resp.Content, nil
}

// CacheStats AI 快取統計
func (s *Service) CacheStats() map[string]interface{} {
	return s.cacheManager.GetStats()
}

// QueueStatus AI 呼叫隊列狀態，未限制時為 nil
func (s *Service) QueueStatus() *queue.Status {
	return s.queue.GetQueueStatus()
}

// Close 釋放資源
func (s *Service) Close() error {
	s.queue.Close()
	_ = s.cacheManager.Close()
	return s.provider.Close()
}
