package pantry

import (
	"context"
	"sync"

	"ulam-ai/internal/core/store"
	"ulam-ai/internal/pkg/common"

	"go.uber.org/zap"
)

// MaxRecent 最近瀏覽保留筆數
const MaxRecent = 6

// Recent 最近瀏覽的菜色，最新的在前，依 id 去重
type Recent struct {
	docs store.DocumentStore
	key  string

	mu     sync.Mutex
	dishes []common.DishSuggestion
	loaded bool
}

// NewRecent 創建會話的最近瀏覽紀錄
func NewRecent(docs store.DocumentStore, sessionID string) *Recent {
	return &Recent{
		docs: docs,
		key:  RecentKeyPrefix + sessionID,
	}
}

// Push 記錄瀏覽
func (r *Recent) Push(ctx context.Context, dish common.DishSuggestion) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.ensureLoaded(ctx) {
		common.LogWarn("Recently viewed not loaded, push skipped", zap.String("key", r.key))
		return
	}

	next := make([]common.DishSuggestion, 0, MaxRecent)
	next = append(next, dish.Clone())
	for _, d := range r.dishes {
		if len(next) == MaxRecent {
			break
		}
		if d.ID == dish.ID {
			continue
		}
		next = append(next, d)
	}
	r.dishes = next
	saveList(ctx, r.docs, r.key, r.dishes)
}

// List 回傳副本
func (r *Recent) List(ctx context.Context) []common.DishSuggestion {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ensureLoaded(ctx)

	out := make([]common.DishSuggestion, len(r.dishes))
	for i, d := range r.dishes {
		out[i] = d.Clone()
	}
	return out
}

func (r *Recent) ensureLoaded(ctx context.Context) bool {
	if r.loaded {
		return true
	}
	var dishes []common.DishSuggestion
	if loadList(ctx, r.docs, r.key, &dishes) {
		if len(dishes) > MaxRecent {
			dishes = dishes[:MaxRecent]
		}
		r.dishes = dishes
		r.loaded = true
	}
	return r.loaded
}
