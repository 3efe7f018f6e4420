package health

import (
	"context"
	"sync"
	"time"
)

// Status 健康状态
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
	// StatusDegraded 非关键依赖失败
	StatusDegraded Status = "degraded"
)

// CheckResult 检查结果
type CheckResult struct {
	Status   Status        `json:"status"`
	Duration time.Duration `json:"duration"`
	Error    string        `json:"error,omitempty"`
}

// Checker 健康检查器接口
type Checker interface {
	Name() string
	Check(ctx context.Context) CheckResult
}

// HealthChecker 健康检查管理器
type HealthChecker struct {
	mu       sync.RWMutex
	checkers map[string]Checker
}

// NewHealthChecker 创建健康检查管理器
func NewHealthChecker() *HealthChecker {
	return &HealthChecker{checkers: make(map[string]Checker)}
}

// Register 注册检查器
func (h *HealthChecker) Register(checker Checker) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checkers[checker.Name()] = checker
}

// Check 并发执行所有检查
func (h *HealthChecker) Check(ctx context.Context) map[string]CheckResult {
	h.mu.RLock()
	checkers := make([]Checker, 0, len(h.checkers))
	for _, checker := range h.checkers {
		checkers = append(checkers, checker)
	}
	h.mu.RUnlock()

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results = make(map[string]CheckResult, len(checkers))
	)
	for _, checker := range checkers {
		wg.Add(1)
		go func(c Checker) {
			defer wg.Done()
			result := c.Check(ctx)
			mu.Lock()
			results[c.Name()] = result
			mu.Unlock()
		}(checker)
	}
	wg.Wait()
	return results
}

// Aggregate 汇总整体状态
func Aggregate(results map[string]CheckResult) Status {
	status := StatusHealthy
	for _, result := range results {
		switch result.Status {
		case StatusUnhealthy:
			return StatusUnhealthy
		case StatusDegraded:
			status = StatusDegraded
		}
	}
	return status
}

// PingChecker 通过 ping 函数检查依赖
type PingChecker struct {
	name     string
	critical bool
	pingFn   func(context.Context) error
}

// NewPingChecker 创建检查器，critical 为 false 时失败只算降级
func NewPingChecker(name string, critical bool, pingFn func(context.Context) error) *PingChecker {
	return &PingChecker{name: name, critical: critical, pingFn: pingFn}
}

// Name 返回检查器名称
func (p *PingChecker) Name() string {
	return p.name
}

// Check 执行检查
func (p *PingChecker) Check(ctx context.Context) CheckResult {
	start := time.Now()
	err := p.pingFn(ctx)
	result := CheckResult{Status: StatusHealthy, Duration: time.Since(start)}
	if err != nil {
		result.Error = err.Error()
		result.Status = StatusDegraded
		if p.critical {
			result.Status = StatusUnhealthy
		}
	}
	return result
}
