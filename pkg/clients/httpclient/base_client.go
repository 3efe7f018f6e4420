package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/ankurMishraDev/GenX-AI/pkg/resilience"
)

// maxErrorBody 错误信息中保留的响应体长度
const maxErrorBody = 512

// StatusError 非2xx响应
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d: %s", e.Method, e.URL, e.StatusCode, e.Body)
}

// IsClientError 4xx 响应
func IsClientError(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode >= 400 && se.StatusCode < 500
}

// BreakerConfig 熔断器配置
type BreakerConfig struct {
	MaxRequests  uint32        `mapstructure:"max_requests" yaml:"max_requests"`   // 半开状态下最大请求数
	Interval     time.Duration `mapstructure:"interval" yaml:"interval"`           // 统计周期
	Timeout      time.Duration `mapstructure:"timeout" yaml:"timeout"`             // 熔断器开启后等待时间
	MinRequests  uint32        `mapstructure:"min_requests" yaml:"min_requests"`   // 触发熔断的最小请求数
	FailureRatio float64       `mapstructure:"failure_ratio" yaml:"failure_ratio"` // 触发熔断的失败率
}

// Config 基础客户端配置
type Config struct {
	ServiceName string
	BaseURL     string
	Timeout     time.Duration
	MaxRetries  int
	RetryDelay  time.Duration
	Breaker     BreakerConfig
	Transport   http.RoundTripper
}

// BaseClient JSON HTTP 基础客户端（熔断 + 重试 + 链路追踪）
type BaseClient struct {
	serviceName    string
	baseURL        string
	httpClient     *http.Client
	circuitBreaker *gobreaker.CircuitBreaker
	retryPolicy    resilience.RetryPolicy
}

// NewBaseClient 创建基础客户端
func NewBaseClient(cfg Config) *BaseClient {
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = 100 * time.Millisecond
	}
	transport := cfg.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}

	policy := resilience.DefaultRetryPolicy()
	policy.MaxRetries = cfg.MaxRetries
	policy.InitialDelay = cfg.RetryDelay
	policy.RetryableErrors = shouldRetry

	client := &BaseClient{
		serviceName: cfg.ServiceName,
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(transport),
		},
		retryPolicy: policy,
	}
	client.circuitBreaker = newCircuitBreaker(cfg.ServiceName, cfg.Breaker)
	return client
}

// newCircuitBreaker 创建熔断器
func newCircuitBreaker(name string, cfg BreakerConfig) *gobreaker.CircuitBreaker {
	if cfg.MaxRequests == 0 {
		cfg.MaxRequests = 3
	}
	if cfg.Interval == 0 {
		cfg.Interval = 10 * time.Second
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MinRequests == 0 {
		cfg.MinRequests = 5
	}
	if cfg.FailureRatio == 0 {
		cfg.FailureRatio = 0.6
	}

	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= cfg.MinRequests && failureRatio >= cfg.FailureRatio
		},
		// 4xx 属于调用方问题，不计入熔断
		IsSuccessful: func(err error) bool {
			return err == nil || IsClientError(err)
		},
	})
}

// Get 发送GET请求，返回原始响应体
func (c *BaseClient) Get(ctx context.Context, path string) ([]byte, error) {
	return c.callWithRetry(ctx, http.MethodGet, path, nil, c.retryPolicy)
}

// Post 发送POST请求，返回原始响应体
// POST 不重试，避免重复写入
func (c *BaseClient) Post(ctx context.Context, path string, body interface{}) ([]byte, error) {
	var reqBody []byte
	if body != nil {
		var err error
		reqBody, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
	}
	policy := c.retryPolicy
	policy.MaxRetries = 0
	return c.callWithRetry(ctx, http.MethodPost, path, reqBody, policy)
}

// callWithRetry 带重试的HTTP调用
func (c *BaseClient) callWithRetry(ctx context.Context, method, path string, reqBody []byte, policy resilience.RetryPolicy) ([]byte, error) {
	url := c.baseURL + path

	var respBody []byte
	err := resilience.Retry(ctx, policy, func() error {
		// 通过熔断器执行调用
		result, err := c.circuitBreaker.Execute(func() (interface{}, error) {
			return c.doHTTPCall(ctx, method, url, reqBody)
		})
		if err != nil {
			return err
		}
		respBody = result.([]byte)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", c.serviceName, err)
	}
	return respBody, nil
}

// doHTTPCall 执行实际的HTTP调用
func (c *BaseClient) doHTTPCall(ctx context.Context, method, url string, reqBody []byte) ([]byte, error) {
	var bodyReader io.Reader
	if reqBody != nil {
		bodyReader = bytes.NewReader(reqBody)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if reqBody != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body := string(respBody)
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		return nil, &StatusError{Method: method, URL: url, StatusCode: resp.StatusCode, Body: body}
	}
	return respBody, nil
}

// shouldRetry 判断错误是否应该重试
func shouldRetry(err error) bool {
	// 超时错误、取消错误不重试
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return false
	}
	// 熔断器开启时不重试
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return false
	}
	return !IsClientError(err)
}

// BaseURL 获取基础URL
func (c *BaseClient) BaseURL() string {
	return c.baseURL
}

// State 获取熔断器状态
func (c *BaseClient) State() gobreaker.State {
	return c.circuitBreaker.State()
}
