package router

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ginvault/internal/middleware"
	"ginvault/pkg/config"
	"ginvault/pkg/jwt"
	"ginvault/pkg/logger"
	"ginvault/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	l := logrus.New()
	l.SetOutput(io.Discard)
	logger.SetLogger(l)
}

func testConfig() *config.Config {
	return &config.Config{
		CORS: config.CORSConfig{
			AllowOrigins: []string{"*"},
			AllowMethods: []string{"GET", "POST", "PUT", "DELETE"},
			AllowHeaders: []string{"Authorization", "Content-Type", middleware.TenantHeader},
		},
		RateLimit: config.RateLimitConfig{AuthRPS: 1, AuthBurst: 1},
		Metrics:   config.MetricsConfig{Enabled: true},
	}
}

func testRouter() *gin.Engine {
	deps := &Dependencies{
		JWT:         jwt.NewJWTManager("test-secret", "test", time.Minute),
		AuthLimiter: middleware.NewRateLimiter(0.001, 1),
	}
	return SetupRouter(testConfig(), deps)
}

func do(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRoutes_Guards(t *testing.T) {
	r := testRouter()

	tests := []struct {
		name   string
		method string
		path   string
		want   int
	}{
		{"租户路由缺少租户", http.MethodGet, "/api/v1/gins", http.StatusBadRequest},
		{"me需要登录", http.MethodGet, "/api/v1/auth/me", http.StatusUnauthorized},
		{"管理接口需要登录", http.MethodGet, "/admin/api/v1/tenants", http.StatusUnauthorized},
		{"未知路由", http.MethodGet, "/api/v1/nothing", http.StatusNotFound},
		{"未配置Redis时没有事件流", http.MethodGet, "/api/v1/events/ws", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(r, tt.method, tt.path, "")
			assert.Equal(t, tt.want, w.Code)

			var body response.Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.False(t, body.Success)
		})
	}
}

func TestRoutes_AuthRateLimited(t *testing.T) {
	r := testRouter()

	// 请求体为空，第一次在绑定阶段失败
	w := do(r, http.MethodPost, "/api/v1/auth/login", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPost, "/api/v1/auth/login", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}

func TestRoutes_Metrics(t *testing.T) {
	r := testRouter()
	w := do(r, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
}
