package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ankurMishraDev/GenX-AI/pkg/auth"
	pkgerrors "github.com/ankurMishraDev/GenX-AI/pkg/errors"
)

func newRouter(mw gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw)
	r.GET("/ws", func(c *gin.Context) {
		c.String(http.StatusOK, Subject(c))
	})
	return r
}

func TestHandshakeAuth(t *testing.T) {
	// 准备测试数据
	manager := auth.NewJWTManager("secret", "live-relay", time.Hour)
	token, err := manager.GenerateToken("u-1")
	require.NoError(t, err)
	r := newRouter(HandshakeAuth(manager))

	tests := []struct {
		name       string
		target     string
		header     string
		wantStatus int
		wantBody   string
	}{
		{name: "bearer header", target: "/ws", header: "Bearer " + token, wantStatus: http.StatusOK, wantBody: "u-1"},
		{name: "query token", target: "/ws?token=" + token, wantStatus: http.StatusOK, wantBody: "u-1"},
		{name: "missing token", target: "/ws", wantStatus: http.StatusUnauthorized},
		{name: "garbage token", target: "/ws?token=abc", wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// 执行请求
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			// 验证结果
			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, w.Body.String())
			}
		})
	}
}

func TestRateLimiterByIP(t *testing.T) {
	// 准备测试数据
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	r := newRouter(RateLimiterByIP(RateLimiterConfig{RedisClient: client, MaxRequests: 2, Window: time.Minute}))

	// 执行请求
	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ws", nil))
		codes = append(codes, w.Code)
	}

	// 验证结果
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	assert.Equal(t, time.Minute, mr.TTL("rate_limit_ip:192.0.2.1"))
}

func TestRateLimiterByIP_FailOpen(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()
	r := newRouter(RateLimiterByIP(RateLimiterConfig{RedisClient: client, MaxRequests: 1}))
	mr.Close()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ws", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHandshakeAuth_ErrorBody(t *testing.T) {
	manager := auth.NewJWTManager("secret", "live-relay", time.Hour)
	r := newRouter(HandshakeAuth(manager))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ws", nil))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, float64(pkgerrors.CodeUnauthorized), body["code"])
	assert.Equal(t, "token required", body["message"])
}
