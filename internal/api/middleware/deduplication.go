package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"

	"ulam-ai/internal/pkg/common"
)

// dedupCapacity 同時追蹤的請求指紋上限
const dedupCapacity = 4096

// Deduplication 請求去重中間件，window 內相同路徑與內容的 POST 會被拒絕
// 用於會觸發 AI 呼叫的路由，避免重複送出
func Deduplication(window time.Duration) gin.HandlerFunc {
	if window <= 0 {
		window = time.Second
	}
	// 指紋在 window 後自動過期
	seen := expirable.NewLRU[string, struct{}](dedupCapacity, nil, window)

	return func(c *gin.Context) {
		// 只處理 POST 請求
		if c.Request.Method != http.MethodPost {
			c.Next()
			return
		}

		// 計算請求體哈希
		bodyHash := ""
		if c.Request.Body != nil {
			body, err := io.ReadAll(c.Request.Body)
			if err != nil {
				common.LogError("Failed to read request body", zap.Error(err))
				c.Next()
				return
			}

			hash := sha256.Sum256(body)
			bodyHash = hex.EncodeToString(hash[:])

			// 恢復請求體
			c.Request.Body = io.NopCloser(bytes.NewBuffer(body))
		}

		// 生成請求指紋
		fingerprint := c.ClientIP() + ":" + c.Request.URL.Path
		if bodyHash != "" {
			fingerprint += ":" + bodyHash
		}

		if seen.Contains(fingerprint) {
			common.LogInfo("重複請求已拒絕",
				zap.String("path", c.Request.URL.Path),
				zap.String("ip", c.ClientIP()),
			)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": common.ErrorResponse{
					Code:    common.ErrCodeTooManyRequests,
					Message: common.ErrTooManyRequests.Message,
				},
			})
			return
		}
		seen.Add(fingerprint, struct{}{})

		c.Next()
	}
}
