package middleware

import (
	"strconv"
	"time"

	"ulam-ai/internal/pkg/metrics"

	"github.com/gin-gonic/gin"
)

// Metrics 記錄請求數與延遲，路徑使用路由樣板避免標籤爆量
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}
