package resilience

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"
)

var (
	// ErrMaxRetriesExceeded 超过最大重试次数
	ErrMaxRetriesExceeded = errors.New("max retries exceeded")
)

// RetryPolicy 重试策略
type RetryPolicy struct {
	// MaxRetries 最大重试次数（不含首次调用）
	MaxRetries int
	// InitialDelay 初始延迟
	InitialDelay time.Duration
	// MaxDelay 最大延迟
	MaxDelay time.Duration
	// BackoffMultiplier 退避乘数（指数退避）
	BackoffMultiplier float64
	// Jitter 抖动比例 (0.0-1.0)
	Jitter float64
	// RetryableErrors 可重试的错误判断函数
	RetryableErrors func(error) bool
	// OnRetry 重试回调
	OnRetry func(attempt int, err error, delay time.Duration)
}

// DefaultRetryPolicy 默认重试策略
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:        2,
		InitialDelay:      100 * time.Millisecond,
		MaxDelay:          2 * time.Second,
		BackoffMultiplier: 2.0,
		Jitter:            0.1,
		RetryableErrors:   IsRetryable,
	}
}

// Retry 执行带重试的函数
func Retry(ctx context.Context, policy RetryPolicy, fn func() error) error {
	var lastErr error

	for attempt := 0; attempt <= policy.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := policy.calculateDelay(attempt)
			if policy.OnRetry != nil {
				policy.OnRetry(attempt, lastErr, delay)
			}

			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}

		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if policy.RetryableErrors != nil && !policy.RetryableErrors(err) {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}

	if policy.MaxRetries == 0 {
		return lastErr
	}
	return errors.Join(ErrMaxRetriesExceeded, lastErr)
}

// calculateDelay 计算延迟时间（指数退避 + 抖动）
func (p *RetryPolicy) calculateDelay(attempt int) time.Duration {
	multiplier := p.BackoffMultiplier
	if multiplier <= 0 {
		multiplier = 1
	}
	delay := float64(p.InitialDelay) * math.Pow(multiplier, float64(attempt-1))
	if p.MaxDelay > 0 && delay > float64(p.MaxDelay) {
		delay = float64(p.MaxDelay)
	}
	if p.Jitter > 0 {
		delay += delay * p.Jitter * rand.Float64()
	}
	return time.Duration(delay)
}

// IsRetryable 默认判断：context 取消/超时不重试
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}
