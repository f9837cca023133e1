package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"ulam-ai/internal/core/ai/cache"
	"ulam-ai/internal/core/ai/provider"
	"ulam-ai/internal/core/ai/queue"
	"ulam-ai/internal/infrastructure/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	mu       sync.Mutex
	calls    int
	requests []*provider.Request
	content  string
	err      error
	delay    time.Duration
}

func (f *fakeProvider) Generate(ctx context.Context, req *provider.Request) (*provider.Response, error) {
	f.mu.Lock()
	f.calls++
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return &provider.Response{Content: f.content, Model: "fake"}, nil
}

func (f *fakeProvider) GetModel() string { return "fake" }
func (f *fakeProvider) Close() error     { return nil }

func (f *fakeProvider) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newCache() *cache.CacheManager {
	return cache.NewManager(&config.AICacheConfig{Enabled: true, MaxSize: 10, TTL: time.Minute})
}

func TestProcessRequestCachesOnlyCacheableCalls(t *testing.T) {
	p := &fakeProvider{content: `["tomato"]`}
	svc := NewService(p, newCache(), nil)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		out, err := svc.ProcessRequest(ctx, Call{Kind: KindScan, Prompt: "list  ingredients", ImageData: "abc", Cacheable: true})
		require.NoError(t, err)
		assert.Equal(t, `["tomato"]`, out)
	}
	assert.Equal(t, 1, p.callCount())

	// 空白不同仍命中
	_, err := svc.ProcessRequest(ctx, Call{Kind: KindScan, Prompt: "list ingredients", ImageData: "abc", Cacheable: true})
	require.NoError(t, err)
	assert.Equal(t, 1, p.callCount())

	for i := 0; i < 2; i++ {
		_, err := svc.ProcessRequest(ctx, Call{Kind: KindSuggest, Prompt: "suggest"})
		require.NoError(t, err)
	}
	assert.Equal(t, 3, p.callCount())
	assert.Equal(t, "abc", p.requests[0].ImageData)
}

func TestProcessRequestPropagatesErrorsWithoutCaching(t *testing.T) {
	p := &fakeProvider{err: errors.New("upstream down")}
	svc := NewService(p, newCache(), nil)

	_, err := svc.ProcessRequest(context.Background(), Call{Kind: KindScan, Prompt: "scan", Cacheable: true})
	require.Error(t, err)

	p.err = nil
	p.content = "ok"
	out, err := svc.ProcessRequest(context.Background(), Call{Kind: KindScan, Prompt: "scan", Cacheable: true})
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, 2, p.callCount())
}

func TestProcessRequestHonoursTimeout(t *testing.T) {
	p := &fakeProvider{content: "late", delay: time.Second}
	svc := NewService(p, nil, nil)

	start := time.Now()
	_, err := svc.ProcessRequest(context.Background(), Call{Kind: KindDetail, Prompt: "detail", Timeout: 20 * time.Millisecond})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestProcessRequestRejectsWhenQueueIsFull(t *testing.T) {
	q := queue.NewManager(&config.QueueConfig{Workers: 1, MaxSize: 1})
	svc := NewService(&fakeProvider{content: "ok"}, nil, q)
	defer svc.Close()

	hold, err := q.Acquire(context.Background())
	require.NoError(t, err)

	go func() {
		_, _ = svc.ProcessRequest(context.Background(), Call{Kind: KindSuggest, Prompt: "waiting", Timeout: time.Second})
	}()
	assert.Eventually(t, func() bool { return svc.QueueStatus().QueueLength == 1 }, time.Second, 5*time.Millisecond)

	_, err = svc.ProcessRequest(context.Background(), Call{Kind: KindSuggest, Prompt: "rejected"})
	assert.ErrorIs(t, err, queue.ErrQueueFull)

	hold()
	assert.Eventually(t, func() bool { return svc.QueueStatus().ProcessedCount == 2 }, time.Second, 5*time.Millisecond)
}

func TestCacheStatsWhenDisabled(t *testing.T) {
	svc := NewService(&fakeProvider{}, nil, nil)
	assert.Equal(t, false, svc.CacheStats()["enabled"])
	assert.Nil(t, svc.QueueStatus())
}
