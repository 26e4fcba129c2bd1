package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	Enabled        bool
	RequestsPerMin int
	BurstSize      int
}

// RateLimit 全局令牌桶限流（不区分客户端），超限返回 429
func RateLimit(cfg RateLimitConfig, logger *zap.Logger) gin.HandlerFunc {
	if !cfg.Enabled || cfg.RequestsPerMin <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	burst := cfg.BurstSize
	if burst <= 0 {
		burst = 1
	}
	limiter := rate.NewLimiter(rate.Limit(float64(cfg.RequestsPerMin)/60.0), burst)

	return func(c *gin.Context) {
		if !limiter.Allow() {
			logger.Warn("api rate limited",
				zap.String("path", c.Request.URL.Path),
				zap.String("remote_addr", c.ClientIP()),
			)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":   "too_many_requests",
				"message": "请求过于频繁，请稍后重试",
			})
			return
		}
		c.Next()
	}
}
