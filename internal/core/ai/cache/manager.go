package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync/atomic"

	"ulam-ai/internal/infrastructure/config"
	"ulam-ai/internal/pkg/common"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"
)

// CacheManager AI 回應快取管理器
// 以 prompt 與圖片的雜湊為鍵，容量與存活時間由設定決定
type CacheManager struct {
	config *config.AICacheConfig
	store  *expirable.LRU[string, string]
	stats  cacheStats
}

// cacheStats 緩存統計
type cacheStats struct {
	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
}

// NewManager 創建新的緩存管理器，停用時回傳 nil
func NewManager(cfg *config.AICacheConfig) *CacheManager {
	if !cfg.Enabled {
		common.LogInfo("AI cache disabled")
		return nil
	}

	m := &CacheManager{config: cfg}
	m.store = expirable.NewLRU[string, string](cfg.MaxSize, func(key string, _ string) {
		m.stats.evictions.Add(1)
	}, cfg.TTL)

	common.LogInfo("快取管理員已初始化",
		zap.Int("最大容量", cfg.MaxSize),
		zap.Duration("存活時間", cfg.TTL),
	)

	return m
}

// Get 獲取緩存值
func (m *CacheManager) Get(ctx context.Context, prompt, imageData string) (string, bool) {
	if m == nil {
		return "", false
	}

	key := m.generateKey(prompt, imageData)
	if value, ok := m.store.Get(key); ok {
		m.stats.hits.Add(1)
		common.LogCacheHit("ai", key)
		return value, true
	}

	m.stats.misses.Add(1)
	common.LogCacheMiss("ai", key)
	return "", false
}

// Set 設置緩存值
func (m *CacheManager) Set(ctx context.Context, prompt, imageData, value string) {
	if m == nil {
		return
	}
	key := m.generateKey(prompt, imageData)
	m.store.Add(key, value)
	common.LogDebug("快取已儲存", zap.String("鍵", key))
}

// generateKey 生成緩存鍵
func (m *CacheManager) generateKey(prompt, imageData string) string {
	if imageData == "" {
		return fmt.Sprintf("text:%s", hashString(prompt))
	}
	return fmt.Sprintf("multimodal:%s:%s", hashString(prompt), hashString(imageData))
}

// hashString 計算字符串的 SHA-256 哈希值
func hashString(s string) string {
	hash := sha256.Sum256([]byte(s))
	return hex.EncodeToString(hash[:])
}

// GetStats 獲取緩存統計信息
func (m *CacheManager) GetStats() map[string]interface{} {
	if m == nil {
		return map[string]interface{}{"enabled": false}
	}

	hits, misses := m.stats.hits.Load(), m.stats.misses.Load()
	ratio := 0.0
	if hits+misses > 0 {
		ratio = float64(hits) / float64(hits+misses)
	}
	return map[string]interface{}{
		"enabled":   true,
		"size":      m.store.Len(),
		"max_size":  m.config.MaxSize,
		"hits":      hits,
		"misses":    misses,
		"evictions": m.stats.evictions.Load(),
		"hit_ratio": ratio,
	}
}

// Close 關閉緩存管理器
func (m *CacheManager) Close() error {
	if m == nil {
		return nil
	}
	m.store.Purge()
	common.LogInfo("快取管理員已關閉",
		zap.Int64("命中次數", m.stats.hits.Load()),
		zap.Int64("未命中次數", m.stats.misses.Load()),
	)
	return nil
}
