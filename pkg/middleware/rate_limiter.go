package middleware

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/redis/go-redis/v9"

	pkgerrors "github.com/ankurMishraDev/GenX-AI/pkg/errors"
)

// RateLimiterConfig 限流配置
type RateLimiterConfig struct {
	RedisClient redis.UniversalClient
	MaxRequests int           // 窗口内最大请求数
	Window      time.Duration // 时间窗口
	KeyPrefix   string        // Redis key前缀
	Logger      log.Logger
}

// RateLimiterByIP IP级别限流，Redis 不可用时放行
func RateLimiterByIP(config RateLimiterConfig) gin.HandlerFunc {
	if config.KeyPrefix == "" {
		config.KeyPrefix = "rate_limit_ip"
	}
	if config.MaxRequests == 0 {
		config.MaxRequests = 30
	}
	if config.Window == 0 {
		config.Window = time.Minute
	}
	if config.Logger == nil {
		config.Logger = log.DefaultLogger
	}
	helper := log.NewHelper(log.With(config.Logger, "module", "middleware/ratelimit"))

	return func(c *gin.Context) {
		ctx := c.Request.Context()
		key := fmt.Sprintf("%s:%s", config.KeyPrefix, c.ClientIP())

		// 增加计数并设置过期
		pipe := config.RedisClient.Pipeline()
		incr := pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, config.Window)
		if _, err := pipe.Exec(ctx); err != nil {
			helper.WithContext(ctx).Warnf("rate limiter unavailable: %v", err)
			c.Next()
			return
		}

		count := incr.Val()
		remaining := int64(config.MaxRequests) - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", config.MaxRequests))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))

		if count > int64(config.MaxRequests) {
			abortWithError(c, pkgerrors.New(pkgerrors.CodeTooManyRequests, "too many requests from this IP"), gin.H{
				"retry_after": config.Window.Seconds(),
			})
			return
		}
		c.Next()
	}
}
