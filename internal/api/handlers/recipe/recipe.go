// Package recipe 提供會話、食材櫃、推薦與收藏的 HTTP 處理器
package recipe

import (
	"context"
	"net/http"
	"strings"

	"ulam-ai/internal/core/account"
	"ulam-ai/internal/core/orchestrator"
	recipeService "ulam-ai/internal/core/recipe"
	"ulam-ai/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Scanner 由照片辨識食材
type Scanner interface {
	ScanIngredients(ctx context.Context, imageData string) ([]string, error)
}

// Handler 食譜相關處理器
type Handler struct {
	sessions *orchestrator.Manager
	scanner  Scanner
	accounts *account.Service
	debug    bool
}

// NewHandler 創建處理器
func NewHandler(sessions *orchestrator.Manager, scanner Scanner, accounts *account.Service, debug bool) *Handler {
	return &Handler{
		sessions: sessions,
		scanner:  scanner,
		accounts: accounts,
		debug:    debug,
	}
}

// SessionResponse 會話建立響應
type SessionResponse struct {
	SessionID string            `json:"session_id"`
	View      orchestrator.View `json:"view"`
}

// SelectRequest 選取菜色，三者擇一
type SelectRequest struct {
	DishID        string                 `json:"dish_id"`
	SavedRecipeID string                 `json:"saved_recipe_id"`
	Dish          *common.DishSuggestion `json:"dish"`
}

// CreateSession 建立會話
func (h *Handler) CreateSession(c *gin.Context) {
	s := h.sessions.Create()
	c.JSON(http.StatusCreated, SessionResponse{SessionID: s.ID, View: s.View()})
}

// GetSession 取得目前畫面狀態
func (h *Handler) GetSession(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.View())
}

// Suggest 依食材櫃推薦菜色
func (h *Handler) Suggest(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	var settings common.Settings
	if err := bindJSON(c, &settings); err != nil {
		h.fail(c, err)
		return
	}

	if _, err := s.Suggest(c.Request.Context(), settings); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, s.View())
}

// Select 選取菜色，食譜與圖片在背景取得
func (h *Handler) Select(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	var req SelectRequest
	if err := bindJSON(c, &req); err != nil {
		h.fail(c, err)
		return
	}

	dish, ok := h.resolveDish(c, s, req)
	if !ok {
		return
	}

	s.Select(c.Request.Context(), dish)
	h.accounts.RecordView(c.Request.Context(), dish)

	common.LogInfo("已選取菜色", zap.String("session", s.ID), zap.String("dish", dish.Name))
	c.JSON(http.StatusOK, s.View())
}

func (h *Handler) resolveDish(c *gin.Context, s *orchestrator.Session, req SelectRequest) (common.DishSuggestion, bool) {
	switch {
	case req.SavedRecipeID != "":
		identity, ok := h.identity(c)
		if !ok {
			return common.DishSuggestion{}, false
		}
		dish, err := h.accounts.OpenSaved(c.Request.Context(), identity, req.SavedRecipeID)
		if err != nil {
			h.fail(c, err)
			return common.DishSuggestion{}, false
		}
		return dish, true

	case req.DishID != "":
		dish, found := s.FindDish(c.Request.Context(), req.DishID)
		if !found {
			h.fail(c, common.ErrNotFound)
			return common.DishSuggestion{}, false
		}
		return dish, true

	case req.Dish != nil && strings.TrimSpace(req.Dish.Name) != "":
		return req.Dish.Clone(), true
	}

	h.fail(c, common.ErrInvalidRequest)
	return common.DishSuggestion{}, false
}

// Reset 回到初始畫面
func (h *Handler) Reset(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	s.Reset()
	c.JSON(http.StatusOK, s.View())
}

// Recent 最近瀏覽的菜色
func (h *Handler) Recent(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"recipes": s.Recent().List(c.Request.Context())})
}

// Featured 精選菜色
func (h *Handler) Featured(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"recipes": recipeService.Featured()})
}
