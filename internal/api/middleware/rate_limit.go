package middleware

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"ulam-ai/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// limiterCapacity 同時追蹤的客戶端上限
const limiterCapacity = 10000

// newLimiter 每個 window 補滿 requests 個令牌
func newLimiter(requests int, window time.Duration) *rate.Limiter {
	return rate.NewLimiter(rate.Limit(float64(requests)/window.Seconds()), requests)
}

// RateLimit 依客戶端 IP 限流的中間件
func RateLimit(requests int, window time.Duration) gin.HandlerFunc {
	// 閒置超過 window 的客戶端令牌已回滿，可以直接丟棄
	var mu sync.Mutex
	limiters := expirable.NewLRU[string, *rate.Limiter](limiterCapacity, nil, window)

	limiterFor := func(ip string) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()
		if rl, ok := limiters.Get(ip); ok {
			return rl
		}
		rl := newLimiter(requests, window)
		limiters.Add(ip, rl)
		return rl
	}

	return func(c *gin.Context) {
		if !limiterFor(c.ClientIP()).Allow() {
			common.LogInfo("Rate limit exceeded",
				zap.String("ip", c.ClientIP()),
				zap.String("path", c.Request.URL.Path),
			)

			c.Header("Retry-After", fmt.Sprintf("%d", int(window.Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": common.ErrorResponse{
					Code:    common.ErrCodeTooManyRequests,
					Message: common.ErrTooManyRequests.Message,
				},
			})
			return
		}

		c.Next()
	}
}
