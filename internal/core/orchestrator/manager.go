package orchestrator

import (
	"sync"
	"time"

	"ulam-ai/internal/core/pantry"
	"ulam-ai/internal/core/store"
	"ulam-ai/internal/pkg/common"
	"ulam-ai/internal/pkg/metrics"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Manager 會話管理器，閒置過久的會話會被回收
// 食材櫃與最近瀏覽保存在文件儲存中，回收後以相同 id 回來仍可還原
type Manager struct {
	deps *Deps
	docs store.DocumentStore
	ttl  time.Duration

	mu       sync.RWMutex
	sessions map[string]*Session

	done     chan struct{}
	stopOnce sync.Once
}

// NewManager 創建會話管理器
func NewManager(deps *Deps, docs store.DocumentStore, ttl time.Duration) *Manager {
	return &Manager{
		deps:     deps,
		docs:     docs,
		ttl:      ttl,
		sessions: make(map[string]*Session),
		done:     make(chan struct{}),
	}
}

// Create 建立新會話
func (m *Manager) Create() *Session {
	return m.open(common.GenerateUUID())
}

// Get 取得會話；合法但不在記憶體中的 id 會從儲存還原
func (m *Manager) Get(id string) (*Session, error) {
	// 持有讀鎖時更新使用時間，Cleanup 不會在兩者之間回收
	m.mu.RLock()
	session, ok := m.sessions[id]
	if ok {
		session.Touch()
	}
	m.mu.RUnlock()
	if ok {
		return session, nil
	}

	if _, err := uuid.Parse(id); err != nil {
		return nil, common.ErrNotFound.Wrap(err)
	}
	return m.open(id), nil
}

func (m *Manager) open(id string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if session, ok := m.sessions[id]; ok {
		return session
	}
	session := NewSession(id, m.deps, pantry.New(m.docs, id), pantry.NewRecent(m.docs, id))
	m.sessions[id] = session
	metrics.ActiveSessions.Set(float64(len(m.sessions)))
	common.LogInfo("會話已建立", zap.String("session", id))
	return session
}

// Len 目前會話數
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Cleanup 回收閒置超過 ttl 的會話，回傳回收數量
func (m *Manager) Cleanup(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, session := range m.sessions {
		if now.Sub(session.idleSince()) > m.ttl {
			session.Close()
			delete(m.sessions, id)
			removed++
		}
	}
	metrics.ActiveSessions.Set(float64(len(m.sessions)))
	if removed > 0 {
		common.LogInfo("已回收閒置會話", zap.Int("removed", removed), zap.Int("remaining", len(m.sessions)))
	}
	return removed
}

// StartCleanup 定期回收閒置會話
func (m *Manager) StartCleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case now := <-ticker.C:
				m.Cleanup(now)
			case <-m.done:
				return
			}
		}
	}()
}

// Close 停止回收並取消所有背景工作
func (m *Manager) Close() {
	m.stopOnce.Do(func() {
		close(m.done)
	})

	m.mu.Lock()
	defer m.mu.Unlock()
	for id, session := range m.sessions {
		session.Close()
		delete(m.sessions, id)
	}
	metrics.ActiveSessions.Set(0)
}
