package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func newRouter(h ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(h...)
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(RequestIDKey)) })
	return r
}

func get(r *gin.Engine, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimit(t *testing.T) {
	r := newRouter(RateLimit(RateLimitConfig{Enabled: true, RequestsPerMin: 1, BurstSize: 2}, zap.NewNop()))

	assert.Equal(t, http.StatusOK, get(r, nil).Code)
	assert.Equal(t, http.StatusOK, get(r, nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, get(r, nil).Code)
}

func TestRateLimit_Disabled(t *testing.T) {
	r := newRouter(RateLimit(RateLimitConfig{}, zap.NewNop()))
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, get(r, nil).Code)
	}
}

func TestRequestTracing(t *testing.T) {
	r := newRouter(RequestTracing())

	w := get(r, map[string]string{"X-Request-ID": "abc"})
	assert.Equal(t, "abc", w.Body.String())

	w = get(r, nil)
	assert.Len(t, w.Header().Get("X-Request-ID"), 36)
	assert.Equal(t, w.Header().Get("X-Request-ID"), w.Body.String())
}

func TestMaskAPIKey(t *testing.T) {
	assert.Equal(t, "****", maskAPIKey("short"))
	assert.Equal(t, "sk_l****5678", maskAPIKey("sk_live_12345678"))
}

func TestCORS(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORS())
	r.OPTIONS("/ping", func(c *gin.Context) {})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/ping", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestAPIKeyAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(APIKeyAuth(AuthConfig{
		Enabled:      true,
		APIKeys:      []string{"sk_control_0001"},
		ReadOnlyKeys: []string{"sk_dashboard_01"},
	}, zap.NewNop()))
	handler := func(c *gin.Context) { c.String(http.StatusOK, c.GetString(AuthScopeKey)) }
	r.GET("/status", handler)
	r.POST("/play", handler)

	do := func(method, path string, headers map[string]string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, nil)
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	tests := []struct {
		name      string
		method    string
		path      string
		headers   map[string]string
		wantCode  int
		wantScope string
	}{
		{"缺少key", http.MethodGet, "/status", nil, http.StatusUnauthorized, ""},
		{"无效key", http.MethodGet, "/status", map[string]string{"X-API-Key": "nope"}, http.StatusForbidden, ""},
		{"控制key", http.MethodPost, "/play", map[string]string{"X-API-Key": "sk_control_0001"}, http.StatusOK, ScopeControl},
		{"Bearer写法", http.MethodPost, "/play", map[string]string{"Authorization": "Bearer sk_control_0001"}, http.StatusOK, ScopeControl},
		{"只读key查询", http.MethodGet, "/status", map[string]string{"X-API-Key": "sk_dashboard_01"}, http.StatusOK, ScopeRead},
		{"只读key控制", http.MethodPost, "/play", map[string]string{"X-API-Key": "sk_dashboard_01"}, http.StatusForbidden, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(tt.method, tt.path, tt.headers)
			assert.Equal(t, tt.wantCode, w.Code)
			if tt.wantScope != "" {
				assert.Equal(t, tt.wantScope, w.Body.String())
			}
		})
	}
}

func TestAPIKeyAuth_Disabled(t *testing.T) {
	r := newRouter(APIKeyAuth(AuthConfig{}, zap.NewNop()))
	assert.Equal(t, http.StatusOK, get(r, nil).Code)
}
