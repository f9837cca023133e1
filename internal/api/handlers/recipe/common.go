package recipe

import (
	"encoding/base64"
	"errors"
	"io"
	"strings"

	"ulam-ai/internal/core/account"
	"ulam-ai/internal/core/orchestrator"
	"ulam-ai/internal/pkg/common"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// fail 以統一格式回傳錯誤
func (h *Handler) fail(c *gin.Context, err error) {
	status, resp := common.NewErrorResponse(err, h.debug)
	fields := []zap.Field{
		zap.Error(err),
		zap.String("code", resp.Code),
		zap.String("request_id", requestid.Get(c)),
		zap.String("path", c.FullPath()),
	}
	if status >= 500 {
		common.LogError("請求處理失敗", fields...)
	} else {
		common.LogWarn("請求被拒絕", fields...)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": resp})
}

// bindJSON 解析 JSON 請求體，允許空請求體
func bindJSON(c *gin.Context, v interface{}) error {
	if err := c.ShouldBindJSON(v); err != nil && !errors.Is(err, io.EOF) {
		return common.ErrInvalidRequest.Wrap(err)
	}
	return nil
}

// session 依路徑參數取得會話
func (h *Handler) session(c *gin.Context) (*orchestrator.Session, bool) {
	s, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return nil, false
	}
	return s, true
}

// identity 解析 Authorization 標頭；未帶權杖時回傳 nil
func (h *Handler) identity(c *gin.Context) (*account.Identity, bool) {
	identity, err := h.accounts.Authenticate(c.GetHeader("Authorization"))
	if err != nil {
		h.fail(c, err)
		return nil, false
	}
	return identity, true
}

// getImageType 獲取圖片類型（用於日誌記錄）
func getImageType(image string) string {
	if image == "" {
		return "empty"
	}
	if strings.HasPrefix(image, "http://") || strings.HasPrefix(image, "https://") {
		return "url"
	}
	if strings.HasPrefix(image, "data:image/") {
		parts := strings.Split(image, ";base64,")
		if len(parts) == 2 {
			return "base64_data_uri_" + strings.TrimPrefix(parts[0], "data:image/")
		}
		return "invalid_data_uri"
	}
	if _, err := base64.StdEncoding.DecodeString(image); err == nil {
		return "base64"
	}
	return "unknown_format"
}
