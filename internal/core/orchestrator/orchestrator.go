// Package orchestrator 協調推薦、食譜生成與圖片解析，維護每個會話的畫面狀態
package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ulam-ai/internal/core/pantry"
	"ulam-ai/internal/core/recipe"
	"ulam-ai/internal/core/resultcache"
	"ulam-ai/internal/pkg/common"

	"go.uber.org/zap"
)

// Suggester 推薦菜色
type Suggester interface {
	SuggestDishes(ctx context.Context, req recipe.SuggestRequest) ([]common.DishSuggestion, error)
}

// DetailFetcher 生成完整食譜
type DetailFetcher interface {
	FetchDetail(ctx context.Context, req recipe.DetailRequest) (*common.RecipeDetail, error)
}

// ResultCache 以菜名為鍵的本機結果快取
type ResultCache interface {
	Get(ctx context.Context, dishName string) (*common.CacheEntry, bool)
	Put(ctx context.Context, dishName string, partial resultcache.Partial)
}

// Deps 會話共用的外部依賴
type Deps struct {
	Suggester Suggester
	Details   DetailFetcher
	Images    recipe.ImageResolver
	Cache     ResultCache

	// 背景工作的整體時間上限
	DetailTimeout time.Duration
	ImageTimeout  time.Duration
}

// Session 單一使用者會話的協調器
type Session struct {
	ID     string
	deps   *Deps
	pantry *pantry.Pantry
	recent *pantry.Recent

	// 背景工作使用會話自己的 context，不隨 HTTP 請求結束
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu          sync.Mutex
	state       State
	suggestions []common.DishSuggestion
	settings    common.Settings
	token       uint64
	lastSeen    time.Time
}

// NewSession 創建會話
func NewSession(id string, deps *Deps, p *pantry.Pantry, recent *pantry.Recent) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		ID:       id,
		deps:     deps,
		pantry:   p,
		recent:   recent,
		ctx:      ctx,
		cancel:   cancel,
		state:    Idle{},
		settings: common.Settings{}.WithDefaults(),
		lastSeen: time.Now(),
	}
}

// Pantry 會話的食材櫃
func (s *Session) Pantry() *pantry.Pantry { return s.pantry }

// Recent 會話的最近瀏覽
func (s *Session) Recent() *pantry.Recent { return s.recent }

// Snapshot 目前狀態的副本與選取序號
func (s *Session) Snapshot() (State, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone(), s.token
}

// View 目前狀態的 JSON 表示
func (s *Session) View() View {
	state, token := s.Snapshot()
	return Render(state, token)
}

// Settings 最近一次推薦使用的設定
func (s *Session) Settings() common.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// Suggest 依食材櫃推薦菜色；食材櫃為空時直接回傳錯誤，狀態不變
func (s *Session) Suggest(ctx context.Context, settings common.Settings) (State, error) {
	items := s.pantry.List(ctx)
	if len(items) == 0 {
		return nil, common.ErrEmptyPantry
	}
	settings = settings.WithDefaults()

	s.mu.Lock()
	s.token++
	token := s.token
	s.state = Suggesting{}
	s.settings = settings
	s.mu.Unlock()

	dishes, err := s.deps.Suggester.SuggestDishes(ctx, recipe.SuggestRequest{
		Pantry:   items,
		Settings: settings,
	})

	s.mu.Lock()
	defer s.mu.Unlock()

	if token != s.token {
		common.LogInfo("推薦結果已過期，略過", zap.String("session", s.ID))
		return s.state.clone(), err
	}

	if err != nil {
		s.state = failedFrom(err)
		return s.state.clone(), err
	}

	s.suggestions = dishes
	s.state = Suggested{Suggestions: dishes}
	return s.state.clone(), nil
}

// Reset 回到初始狀態並丟棄推薦結果，食材櫃保留
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token++
	s.suggestions = nil
	s.state = Idle{}
}

// FindDish 依 id 在推薦結果、最近瀏覽與精選中尋找菜色
func (s *Session) FindDish(ctx context.Context, id string) (common.DishSuggestion, bool) {
	s.mu.Lock()
	for _, d := range s.suggestions {
		if string(d.ID) == id {
			s.mu.Unlock()
			return d.Clone(), true
		}
	}
	s.mu.Unlock()

	for _, d := range s.recent.List(ctx) {
		if string(d.ID) == id {
			return d, true
		}
	}
	return recipe.FindFeatured(id)
}

// Select 選取菜色
// 已帶完整食譜或快取命中時直接進入 Ready；否則圖片與食譜同時在背景取得
func (s *Session) Select(ctx context.Context, dish common.DishSuggestion) State {
	dish = dish.Clone()
	s.recent.Push(ctx, dish)

	// 快取與食材櫃可能讀取儲存層，需在取得會話鎖之前完成
	var (
		entry  *common.CacheEntry
		hit    bool
		items  []string
	)
	if dish.FullDetails == nil {
		entry, hit = s.deps.Cache.Get(ctx, dish.Name)
		if !hit || entry.Detail == nil {
			items = s.pantry.List(ctx)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.token++
	token := s.token

	if dish.FullDetails != nil {
		detail := dish.FullDetails
		dish.FullDetails = nil
		s.state = Ready{Dish: dish, Detail: detail.Clone(), Image: resolvedImage(directImage(dish))}
		return s.state.clone()
	}

	if hit && entry.Detail != nil {
		url := entry.ImageURL
		if url == "" {
			url = directImage(dish)
		}
		s.state = Ready{Dish: dish, Detail: entry.Detail, Image: resolvedImage(url)}
		return s.state.clone()
	}

	detailing := Detailing{Dish: dish, Image: ImageSlot{Status: ImagePending}}
	switch {
	case dish.HasImageURL():
		detailing.Image = resolvedImage(dish.Image)
	case hit && entry.ImageURL != "":
		detailing.Image = resolvedImage(entry.ImageURL)
	default:
		s.spawn(token, "image", func(ctx context.Context) { s.resolveImage(ctx, token, dish) }, s.deps.ImageTimeout)
	}
	s.state = detailing

	req := recipe.DetailRequest{
		Dish:     dish,
		Pantry:   items,
		Settings: s.settings,
	}
	s.spawn(token, "detail", func(ctx context.Context) { s.fetchDetail(ctx, token, req) }, s.deps.DetailTimeout)

	return s.state.clone()
}

// spawn 在會話 context 下執行背景工作；呼叫端需持有鎖
func (s *Session) spawn(token uint64, name string, fn func(ctx context.Context), timeout time.Duration) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				common.LogError("背景工作 panic",
					zap.String("session", s.ID),
					zap.String("task", name),
					zap.Any("panic", r),
				)
				s.complete(token, func() {
					s.state = failedFrom(common.ErrInternalError.Wrap(fmt.Errorf("%s task panicked: %v", name, r)))
				})
			}
		}()

		ctx := s.ctx
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		fn(ctx)
	}()
}

// resolveImage 解析圖片並獨立寫回快取
func (s *Session) resolveImage(ctx context.Context, token uint64, dish common.DishSuggestion) {
	url := s.deps.Images.Resolve(ctx, dish.Name)
	if url != "" {
		s.deps.Cache.Put(s.ctx, dish.Name, resultcache.Partial{ImageURL: url})
	}

	s.complete(token, func() {
		slot := resolvedImage(url)
		switch st := s.state.(type) {
		case Detailing:
			st.Image = slot
			s.state = st
		case Ready:
			st.Image = slot
			s.state = st
		}
	})
}

// fetchDetail 生成食譜，成功才寫入快取
func (s *Session) fetchDetail(ctx context.Context, token uint64, req recipe.DetailRequest) {
	detail, err := s.deps.Details.FetchDetail(ctx, req)
	if err == nil {
		s.deps.Cache.Put(s.ctx, req.Dish.Name, resultcache.Partial{Detail: detail})
	} else {
		common.LogWarn("食譜無法載入", zap.String("dish", req.Dish.Name), zap.Error(err))
	}

	s.complete(token, func() {
		st, ok := s.state.(Detailing)
		if !ok {
			return
		}
		if err != nil {
			detail = nil
		}
		s.state = Ready{Dish: st.Dish, Detail: detail.Clone(), Image: st.Image}
	})
}

// complete 只有仍是目前選取時才更新狀態
func (s *Session) complete(token uint64, apply func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if token != s.token {
		common.LogDebug("背景結果已過期，不更新畫面", zap.String("session", s.ID), zap.Uint64("token", token))
		return
	}
	apply()
}

// Touch 更新最後使用時間
func (s *Session) Touch() {
	s.mu.Lock()
	s.lastSeen = time.Now()
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Wait 等待背景工作結束
func (s *Session) Wait() {
	s.wg.Wait()
}

// Close 取消背景工作
func (s *Session) Close() {
	s.cancel()
}

func directImage(dish common.DishSuggestion) string {
	if dish.HasImageURL() {
		return dish.Image
	}
	return ""
}
