// Package store 提供以鍵值保存整份序列化文件的儲存層
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"ulam-ai/internal/infrastructure/config"
)

// ErrNotFound 文件不存在
var ErrNotFound = errors.New("document not found")

// DocumentStore 以固定鍵讀寫整份文件
type DocumentStore interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// New 依設定建立文件儲存
func New(cfg *config.StoreConfig) (DocumentStore, error) {
	switch cfg.Driver {
	case "file":
		return NewFileStore(cfg.Dir)
	case "redis":
		return NewRedisStore(cfg)
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported store driver: %s", cfg.Driver)
	}
}

// MemoryStore 記憶體文件儲存，用於測試與無狀態部署
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

// NewMemoryStore 創建記憶體文件儲存
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string][]byte)}
}

// Load 讀取文件
func (s *MemoryStore) Load(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.docs[key]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// Save 寫入文件
func (s *MemoryStore) Save(ctx context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	buf := make([]byte, len(data))
	copy(buf, data)
	s.docs[key] = buf
	return nil
}

// Delete 刪除文件
func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.docs, key)
	return nil
}

// Close 關閉儲存
func (s *MemoryStore) Close() error {
	return nil
}
