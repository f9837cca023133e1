package queue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"ulam-ai/internal/infrastructure/config"
	"ulam-ai/internal/pkg/common"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

var (
	// ErrQueueFull 等待中的呼叫已達上限
	ErrQueueFull = errors.New("queue is full")
	// ErrClosed 隊列已關閉
	ErrClosed = errors.New("queue manager is closed")
)

// Status 隊列狀態
type Status struct {
	QueueLength    int   `json:"queue_length"`
	InFlight       int   `json:"in_flight"`
	ProcessedCount int64 `json:"processed_count"`
	MaxQueueSize   int   `json:"max_queue_size"`
	Workers        int   `json:"workers"`
}

// Manager 限制同時進行的 AI 呼叫數量
type Manager struct {
	sem        *semaphore.Weighted
	workers    int64
	maxWaiting int64
	waiting    int64
	inFlight   int64
	processed  int64

	closed context.Context
	close  context.CancelFunc
}

// NewManager 創建隊列管理器，Workers 為 0 時回傳 nil（不限制）
func NewManager(cfg *config.QueueConfig) *Manager {
	if cfg == nil || cfg.Workers <= 0 {
		return nil
	}
	closed, cancel := context.WithCancel(context.Background())
	return &Manager{
		sem:        semaphore.NewWeighted(int64(cfg.Workers)),
		workers:    int64(cfg.Workers),
		maxWaiting: int64(cfg.MaxSize),
		closed:     closed,
		close:      cancel,
	}
}

// Acquire 取得執行名額，回傳的 release 必須呼叫一次
func (m *Manager) Acquire(ctx context.Context) (release func(), err error) {
	if m == nil {
		return func() {}, nil
	}
	if m.closed.Err() != nil {
		return nil, ErrClosed
	}

	waiting := atomic.AddInt64(&m.waiting, 1)
	defer atomic.AddInt64(&m.waiting, -1)
	free := m.workers - atomic.LoadInt64(&m.inFlight)
	if m.maxWaiting > 0 && waiting > m.maxWaiting+free {
		common.LogWarn("AI 呼叫隊列已滿",
			zap.Int64("waiting", waiting),
			zap.Int64("max_queue_size", m.maxWaiting),
		)
		return nil, ErrQueueFull
	}

	// 關閉隊列時一併喚醒等待者
	acquireCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(m.closed, cancel)
	defer stop()

	if err := m.sem.Acquire(acquireCtx, 1); err != nil {
		if ctx.Err() == nil && m.closed.Err() != nil {
			return nil, ErrClosed
		}
		return nil, ctx.Err()
	}
	atomic.AddInt64(&m.inFlight, 1)

	var once sync.Once
	return func() {
		once.Do(func() {
			atomic.AddInt64(&m.inFlight, -1)
			atomic.AddInt64(&m.processed, 1)
			m.sem.Release(1)
		})
	}, nil
}

// GetQueueStatus 獲取隊列狀態
func (m *Manager) GetQueueStatus() *Status {
	if m == nil {
		return nil
	}
	return &Status{
		QueueLength:    int(atomic.LoadInt64(&m.waiting)),
		InFlight:       int(atomic.LoadInt64(&m.inFlight)),
		ProcessedCount: atomic.LoadInt64(&m.processed),
		MaxQueueSize:   int(m.maxWaiting),
		Workers:        int(m.workers),
	}
}

// Close 關閉隊列，等待中的呼叫會收到 ErrClosed
func (m *Manager) Close() {
	if m == nil {
		return
	}
	m.close()
}
