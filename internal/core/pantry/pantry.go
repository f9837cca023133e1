// Package pantry 保存每個會話的食材櫃與最近瀏覽紀錄
package pantry

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"strings"
	"sync"

	"ulam-ai/internal/core/store"
	"ulam-ai/internal/pkg/common"

	"go.uber.org/zap"
)

// 儲存鍵前綴
const (
	PantryKeyPrefix = "ulam_cart:"
	RecentKeyPrefix = "ulam_recently_viewed:"
)

// Pantry 食材櫃，依標準化名稱去重並保留加入順序
type Pantry struct {
	docs store.DocumentStore
	key  string

	mu     sync.Mutex
	items  []string
	loaded bool
}

// New 創建會話的食材櫃
func New(docs store.DocumentStore, sessionID string) *Pantry {
	return &Pantry{
		docs: docs,
		key:  PantryKeyPrefix + sessionID,
	}
}

// List 目前的食材
func (p *Pantry) List(ctx context.Context) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ensureLoaded(ctx)
	return slices.Clone(p.items)
}

// Len 食材數量
func (p *Pantry) Len(ctx context.Context) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ensureLoaded(ctx)
	return len(p.items)
}

// Add 加入食材，忽略空白與重複項目，回傳實際加入的項目
func (p *Pantry) Add(ctx context.Context, items ...string) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.ensureLoaded(ctx) {
		common.LogWarn("Pantry not loaded, add skipped", zap.String("key", p.key))
		return nil
	}

	added := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" || p.contains(item) {
			continue
		}
		p.items = append(p.items, item)
		added = append(added, item)
	}

	if len(added) > 0 {
		p.persist(ctx)
	}
	return added
}

// Remove 依位置移除食材
func (p *Pantry) Remove(ctx context.Context, index int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.ensureLoaded(ctx) {
		common.LogWarn("Pantry not loaded, remove skipped", zap.String("key", p.key))
		return nil
	}

	if index < 0 || index >= len(p.items) {
		return common.ErrNotFound.Wrap(errors.New("pantry index out of range"))
	}
	p.items = slices.Delete(p.items, index, index+1)
	p.persist(ctx)
	return nil
}

// Clear 清空食材櫃
func (p *Pantry) Clear(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.items = nil
	p.loaded = true
	if err := p.docs.Delete(ctx, p.key); err != nil {
		common.LogError("Pantry clear error", zap.String("key", p.key), zap.Error(common.ErrStorageFailure.Wrap(err)))
	}
}

func (p *Pantry) contains(item string) bool {
	for _, existing := range p.items {
		if common.SameName(existing, item) {
			return true
		}
	}
	return false
}

// ensureLoaded 呼叫端需持有鎖；回傳 false 時不得修改或寫回
func (p *Pantry) ensureLoaded(ctx context.Context) bool {
	if p.loaded {
		return true
	}
	var items []string
	if loadList(ctx, p.docs, p.key, &items) {
		p.items = items
		p.loaded = true
	}
	return p.loaded
}

// persist 呼叫端需持有鎖
func (p *Pantry) persist(ctx context.Context) {
	saveList(ctx, p.docs, p.key, p.items)
}

// loadList 讀取 JSON 陣列；回傳 false 表示暫時讀不到，下次再試
func loadList(ctx context.Context, docs store.DocumentStore, key string, v interface{}) bool {
	data, err := docs.Load(ctx, key)
	if errors.Is(err, store.ErrNotFound) {
		return true
	}
	if err != nil {
		common.LogError("Local state read error", zap.String("key", key), zap.Error(common.ErrStorageFailure.Wrap(err)))
		return false
	}
	if err := common.ParseJSONBytes(data, v); err != nil {
		// 損毀的內容視為空清單
		common.LogError("Local state corrupt", zap.String("key", key), zap.Error(common.ErrStorageFailure.Wrap(err)))
	}
	return true
}

func saveList(ctx context.Context, docs store.DocumentStore, key string, v interface{}) {
	data, err := json.Marshal(v)
	if err == nil {
		err = docs.Save(ctx, key, data)
	}
	if err != nil {
		common.LogError("Local state write error", zap.String("key", key), zap.Error(common.ErrStorageFailure.Wrap(err)))
	}
}
