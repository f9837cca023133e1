// Package resultcache 實作以標準化菜名為鍵的本機食譜／圖片快取
package resultcache

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"sort"
	"sync"
	"time"

	"ulam-ai/internal/core/store"
	"ulam-ai/internal/pkg/common"
	"ulam-ai/internal/pkg/metrics"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

// Partial 一次寫入只帶自己擁有的欄位，其餘欄位保留
type Partial struct {
	Detail   *common.RecipeDetail
	ImageURL string
}

// Cache 本機結果快取
// 整份快取以單一 JSON 文件保存在 docKey 之下
type Cache struct {
	docs   store.DocumentStore
	docKey string

	mu       sync.Mutex
	entries  *lru.Cache[string, common.CacheEntry]
	loaded   bool
	degraded bool
	now      func() time.Time
}

// Option 設定選項
type Option func(*Cache)

// WithClock 替換時間來源
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// New 創建結果快取，maxEntries 為 0 時不限筆數
func New(docs store.DocumentStore, docKey string, maxEntries int, opts ...Option) (*Cache, error) {
	size := maxEntries
	if size <= 0 {
		size = math.MaxInt32
	}
	entries, err := lru.New[string, common.CacheEntry](size)
	if err != nil {
		return nil, err
	}
	c := &Cache{
		docs:    docs,
		docKey:  docKey,
		entries: entries,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Get 以標準化菜名查詢，儲存層有問題時一律視為未命中
func (c *Cache) Get(ctx context.Context, dishName string) (*common.CacheEntry, bool) {
	key := common.Normalize(dishName)

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.ensureLoaded(ctx) {
		metrics.ResultCacheOps.WithLabelValues("get", metrics.OutcomeError).Inc()
		return nil, false
	}

	entry, ok := c.entries.Get(key)
	if !ok {
		metrics.ResultCacheOps.WithLabelValues("get", metrics.OutcomeMiss).Inc()
		common.LogCacheMiss("result", key)
		return nil, false
	}

	metrics.ResultCacheOps.WithLabelValues("get", metrics.OutcomeHit).Inc()
	common.LogCacheHit("result", key)
	out := entry
	out.Detail = entry.Detail.Clone()
	return &out, true
}

// Put 合併寫入並同步保存；失敗只記錄日誌
func (c *Cache) Put(ctx context.Context, dishName string, partial Partial) {
	key := common.Normalize(dishName)
	if key == "" || (partial.Detail == nil && partial.ImageURL == "") {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.ensureLoaded(ctx) {
		metrics.ResultCacheOps.WithLabelValues("put", metrics.OutcomeError).Inc()
		return
	}

	entry, _ := c.entries.Peek(key)
	entry.Key = key
	if partial.Detail != nil {
		entry.Detail = partial.Detail.Clone()
	}
	if partial.ImageURL != "" {
		entry.ImageURL = partial.ImageURL
	}
	entry.LastWrittenAt = c.now()

	if evicted := c.entries.Add(key, entry); evicted {
		common.LogInfo("快取已淘汰(LRU)", zap.Int("剩餘數量", c.entries.Len()))
	}

	if err := c.persist(ctx); err != nil {
		metrics.ResultCacheOps.WithLabelValues("put", metrics.OutcomeError).Inc()
		common.LogError("Cache write error",
			zap.String("key", key),
			zap.Error(common.ErrStorageFailure.Wrap(err)),
		)
		return
	}
	metrics.ResultCacheOps.WithLabelValues("put", metrics.OutcomeSuccess).Inc()
}

// Len 目前快取筆數
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries.Len()
}

// Degraded 文件損毀而停用時為 true
func (c *Cache) Degraded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.degraded
}

// ensureLoaded 第一次使用時載入文件；呼叫端需持有鎖
func (c *Cache) ensureLoaded(ctx context.Context) bool {
	if c.degraded {
		return false
	}
	if c.loaded {
		return true
	}

	data, err := c.docs.Load(ctx, c.docKey)
	if errors.Is(err, store.ErrNotFound) {
		c.loaded = true
		return true
	}
	if err != nil {
		// 暫時性錯誤，下次再試
		common.LogError("Cache read error", zap.Error(common.ErrStorageFailure.Wrap(err)))
		return false
	}

	doc := map[string]common.CacheEntry{}
	if err := common.ParseJSONBytes(data, &doc); err != nil {
		// 文件損毀：停用快取，不覆寫原文件
		common.LogError("Cache read error", zap.Error(common.ErrStorageFailure.Wrap(err)))
		c.degraded = true
		return false
	}

	ordered := make([]common.CacheEntry, 0, len(doc))
	for key, entry := range doc {
		entry.Key = common.Normalize(key)
		ordered = append(ordered, entry)
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].LastWrittenAt.Before(ordered[j].LastWrittenAt)
	})
	for _, entry := range ordered {
		c.entries.Add(entry.Key, entry)
	}

	c.loaded = true
	common.LogInfo("結果快取已載入", zap.Int("筆數", c.entries.Len()))
	return true
}

// persist 保存整份文件；呼叫端需持有鎖
func (c *Cache) persist(ctx context.Context) error {
	doc := make(map[string]common.CacheEntry, c.entries.Len())
	for _, key := range c.entries.Keys() {
		if entry, ok := c.entries.Peek(key); ok {
			doc[key] = entry
		}
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return c.docs.Save(ctx, c.docKey, data)
}
