package recipe

import (
	"net/http"
	"strconv"

	"ulam-ai/internal/pkg/common"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AddIngredientsRequest 加入食材
type AddIngredientsRequest struct {
	Items []string `json:"items" binding:"required,min=1"`
}

// ScanRequest 食材照片
type ScanRequest struct {
	Image string `json:"image" binding:"required"`
}

// PantryResponse 食材櫃內容
type PantryResponse struct {
	Items    []string `json:"items"`
	Added    []string `json:"added,omitempty"`
	Detected []string `json:"detected,omitempty"`
}

// ListPantry 列出食材
func (h *Handler) ListPantry(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, PantryResponse{Items: s.Pantry().List(c.Request.Context())})
}

// AddIngredients 加入食材
func (h *Handler) AddIngredients(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	var req AddIngredientsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, common.ErrInvalidRequest.Wrap(err))
		return
	}

	ctx := c.Request.Context()
	added := s.Pantry().Add(ctx, req.Items...)
	c.JSON(http.StatusOK, PantryResponse{Items: s.Pantry().List(ctx), Added: added})
}

// RemoveIngredient 依位置移除食材
func (h *Handler) RemoveIngredient(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		h.fail(c, common.ErrInvalidRequest.Wrap(err))
		return
	}

	ctx := c.Request.Context()
	if err := s.Pantry().Remove(ctx, index); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, PantryResponse{Items: s.Pantry().List(ctx)})
}

// ClearPantry 清空食材櫃
func (h *Handler) ClearPantry(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	s.Pantry().Clear(c.Request.Context())
	c.JSON(http.StatusOK, PantryResponse{Items: []string{}})
}

// ScanIngredients 辨識照片中的食材並加入食材櫃
func (h *Handler) ScanIngredients(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	var req ScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, common.ErrInvalidRequest.Wrap(err))
		return
	}

	common.LogInfo("開始辨識食材照片",
		zap.String("request_id", requestid.Get(c)),
		zap.String("image_type", getImageType(req.Image)),
		zap.Int("image_length", len(req.Image)),
	)

	ctx := c.Request.Context()
	detected, err := h.scanner.ScanIngredients(ctx, req.Image)
	if err != nil {
		h.fail(c, err)
		return
	}

	added := s.Pantry().Add(ctx, detected...)
	c.JSON(http.StatusOK, PantryResponse{
		Items:    s.Pantry().List(ctx),
		Added:    added,
		Detected: detected,
	})
}
