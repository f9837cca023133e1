package health

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"ulam-ai/internal/core/ai/queue"
	"ulam-ai/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Checker 就緒檢查項目
type Checker func(ctx context.Context) error

// StatsSource 提供執行狀態
type StatsSource interface {
	CacheStats() map[string]interface{}
	QueueStatus() *queue.Status
}

// HealthResponse 健康檢查響應
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime"`
	Queue     *queue.Status          `json:"queue,omitempty"`
	AICache   map[string]interface{} `json:"ai_cache,omitempty"`
	Sessions  int                    `json:"sessions"`
}

// Handler 健康檢查處理器
type Handler struct {
	version  string
	stats    StatsSource
	sessions func() int
	checks   map[string]Checker
}

// NewHandler 創建健康檢查處理器，stats 與 sessions 可為 nil
func NewHandler(version string, stats StatsSource, sessions func() int, checks map[string]Checker) *Handler {
	return &Handler{
		version:  version,
		stats:    stats,
		sessions: sessions,
		checks:   checks,
	}
}

// HealthCheck 健康檢查
func (h *Handler) HealthCheck(c *gin.Context) {
	// 獲取運行時信息
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	response := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   h.version,
		Runtime: map[string]interface{}{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]interface{}{
				"alloc":       m.Alloc,
				"total_alloc": m.TotalAlloc,
				"sys":         m.Sys,
				"num_gc":      m.NumGC,
			},
		},
	}
	if h.stats != nil {
		response.Queue = h.stats.QueueStatus()
		response.AICache = h.stats.CacheStats()
	}
	if h.sessions != nil {
		response.Sessions = h.sessions()
	}

	common.LogDebug("Health check request",
		zap.String("client_ip", c.ClientIP()),
		zap.String("path", c.Request.URL.Path),
	)

	c.JSON(http.StatusOK, response)
}

// ReadinessCheck 就緒檢查，任何依賴失敗時回傳 503
func (h *Handler) ReadinessCheck(c *gin.Context) {
	results := make(map[string]string, len(h.checks))
	ready := true
	for name, check := range h.checks {
		if err := check(c.Request.Context()); err != nil {
			common.LogWarn("Readiness check failed", zap.String("check", name), zap.Error(err))
			results[name] = err.Error()
			ready = false
			continue
		}
		results[name] = "ok"
	}

	if !ready {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not_ready",
			"checks": results,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"checks": results,
	})
}

// LivenessCheck 存活檢查
func (h *Handler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
	})
}
