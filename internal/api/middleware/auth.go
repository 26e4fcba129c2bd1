// Package middleware 提供HTTP中间件
package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AuthConfig API认证配置
// APIKeys 可执行所有操作；ReadOnlyKeys 只能访问 GET 路由（看板、监控）
type AuthConfig struct {
	APIKeys      []string `json:"api_keys"`
	ReadOnlyKeys []string `json:"read_only_keys"`
	Enabled      bool     `json:"enabled"`
}

// 上下文键
const (
	AuthScopeKey = "auth_scope"
	ScopeControl = "control"
	ScopeRead    = "read"
)

// APIKeyAuth API Key认证中间件，支持 X-API-Key 与 Authorization: Bearer 两种写法
func APIKeyAuth(cfg AuthConfig, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !cfg.Enabled {
			c.Set(AuthScopeKey, ScopeControl)
			c.Next()
			return
		}

		key := extractKey(c)
		fields := []zap.Field{
			zap.String("path", c.FullPath()),
			zap.String("method", c.Request.Method),
			zap.String("remote_addr", c.ClientIP()),
			zap.String("request_id", c.GetString(RequestIDKey)),
		}

		if key == "" {
			logger.Warn("api auth: missing api key", fields...)
			abort(c, http.StatusUnauthorized, "unauthorized", "missing X-API-Key or bearer token")
			return
		}
		fields = append(fields, zap.String("api_key", maskAPIKey(key)))

		var scope string
		switch {
		case validKey(cfg.APIKeys, key):
			scope = ScopeControl
		case validKey(cfg.ReadOnlyKeys, key):
			scope = ScopeRead
		default:
			logger.Warn("api auth: invalid api key", fields...)
			abort(c, http.StatusForbidden, "forbidden", "invalid api key")
			return
		}

		if scope == ScopeRead && c.Request.Method != http.MethodGet {
			logger.Warn("api auth: read-only key used for control", fields...)
			abort(c, http.StatusForbidden, "forbidden", "read-only key cannot control boards")
			return
		}

		logger.Debug("api auth: authenticated", append(fields, zap.String("scope", scope))...)
		c.Set(AuthScopeKey, scope)
		c.Next()
	}
}

func extractKey(c *gin.Context) string {
	if k := c.GetHeader("X-API-Key"); k != "" {
		return k
	}
	if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	return ""
}

func abort(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, gin.H{
		"code":       status,
		"error":      code,
		"message":    msg,
		"request_id": c.GetString(RequestIDKey),
	})
}

func validKey(keys []string, key string) bool {
	for _, k := range keys {
		if subtle.ConstantTimeCompare([]byte(k), []byte(key)) == 1 {
			return true
		}
	}
	return false
}

// maskAPIKey 仅保留前4位和后4位
func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "****" + key[len(key)-4:]
}

// CORS 允许任意来源调用控制API
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, X-API-Key, X-Request-ID, Authorization")
		h.Set("Access-Control-Expose-Headers", "X-Request-ID")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
