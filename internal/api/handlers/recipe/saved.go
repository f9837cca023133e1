package recipe

import (
	"net/http"

	"ulam-ai/internal/core/orchestrator"
	"ulam-ai/internal/pkg/common"

	"github.com/gin-gonic/gin"
)

// ToggleSave 收藏或取消收藏目前顯示的食譜
func (h *Handler) ToggleSave(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	identity, ok := h.identity(c)
	if !ok {
		return
	}
	if !identity.CanSave() {
		h.fail(c, common.ErrSaveRejectedNoIdentity)
		return
	}

	state, _ := s.Snapshot()
	ready, isReady := state.(orchestrator.Ready)
	if !isReady || ready.Unavailable() {
		h.fail(c, common.ErrNoRecipeSelected)
		return
	}

	result, err := h.accounts.ToggleSave(c.Request.Context(), identity, ready.Dish, ready.Detail, ready.Image.URL)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ListSaved 列出收藏
func (h *Handler) ListSaved(c *gin.Context) {
	identity, ok := h.identity(c)
	if !ok {
		return
	}
	saved, err := h.accounts.List(c.Request.Context(), identity)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recipes": saved})
}

// DeleteSaved 刪除收藏
func (h *Handler) DeleteSaved(c *gin.Context) {
	identity, ok := h.identity(c)
	if !ok {
		return
	}
	if err := h.accounts.Delete(c.Request.Context(), identity, c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
