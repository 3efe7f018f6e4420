package httpclient

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(url string, retries int) *BaseClient {
	return NewBaseClient(Config{
		ServiceName: "backend",
		BaseURL:     url + "/",
		Timeout:     2 * time.Second,
		MaxRetries:  retries,
		RetryDelay:  time.Millisecond,
	})
}

func TestBaseClient_GetRetriesServerErrors(t *testing.T) {
	// 准备测试数据：前两次返回 503
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/get-user/u1", r.URL.Path)
		if calls.Add(1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"name":"Ana"}`))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, 2)

	// 执行测试
	body, err := client.Get(t.Context(), "/get-user/u1")

	// 验证结果
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Ana"}`, string(body))
	assert.Equal(t, int32(3), calls.Load())
}

func TestBaseClient_GetDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("no such user"))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, 3)
	_, err := client.Get(t.Context(), "/get-user/missing")

	require.Error(t, err)
	assert.True(t, IsClientError(err))
	assert.Equal(t, int32(1), calls.Load())

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusNotFound, se.StatusCode)
	assert.Equal(t, "no such user", se.Body)
}

func TestBaseClient_PostSendsJSONOnce(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var payload map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "u1", payload["uid"])
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, 3)
	_, err := client.Post(t.Context(), "/save-name", map[string]string{"uid": "u1"})

	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestBaseClient_BreakerOpensAfterFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, 0)
	for i := 0; i < 5; i++ {
		_, _ = client.Get(t.Context(), "/x")
	}
	assert.Equal(t, gobreaker.StateOpen, client.State())

	// 熔断打开后请求不再到达服务端
	_, err := client.Get(t.Context(), "/x")
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, int32(5), calls.Load())
}

func TestBaseClient_BaseURLTrimmed(t *testing.T) {
	client := newTestClient("http://example.com", 0)
	assert.Equal(t, "http://example.com", client.BaseURL())
}
