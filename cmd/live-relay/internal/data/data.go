package data

import (
	"context"
	"errors"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"
	"github.com/redis/go-redis/v9"

	"github.com/ankurMishraDev/GenX-AI/cmd/live-relay/internal/biz"
	"github.com/ankurMishraDev/GenX-AI/cmd/live-relay/internal/conf"
	"github.com/ankurMishraDev/GenX-AI/pkg/cache"
	"github.com/ankurMishraDev/GenX-AI/pkg/clients/httpclient"
)

// ProviderSet is data providers.
var ProviderSet = wire.NewSet(
	NewData,
	NewBackendRepo,
	NewContextRepo,
	wire.Bind(new(biz.SummaryRepo), new(*BackendRepo)),
	wire.Bind(new(biz.ExerciseRepo), new(*BackendRepo)),
)

// Data 数据访问依赖
type Data struct {
	backend *httpclient.BaseClient
	redis   *redis.Client // 未配置时为 nil
	cache   cache.Cache   // 未配置时为 nil
}

// NewData 创建后端客户端和可选的 Redis 缓存
func NewData(c *conf.Backend, rc *conf.Redis, logger log.Logger) (*Data, func(), error) {
	helper := log.NewHelper(log.With(logger, "module", "data"))

	d := &Data{
		backend: httpclient.NewBaseClient(httpclient.Config{
			ServiceName: "backend",
			BaseURL:     c.BaseURL,
			Timeout:     c.Timeout,
			MaxRetries:  c.MaxRetries,
			Breaker:     c.Breaker,
		}),
	}

	if rc.Addr != "" {
		d.redis = redis.NewClient(&redis.Options{
			Addr:     rc.Addr,
			Password: rc.Password,
			DB:       rc.DB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := d.redis.Ping(ctx).Err(); err != nil {
			helper.Warnf("redis %s not reachable yet: %v", rc.Addr, err)
		}
		d.cache = cache.NewRedisCacheFromClient(d.redis, cache.Options{
			DefaultTTL: c.CacheTTL,
			KeyPrefix:  rc.KeyPrefix,
		})
	}

	cleanup := func() {
		helper.Info("closing the data resources")
		if d.redis != nil {
			if err := d.redis.Close(); err != nil {
				helper.Errorf("close redis: %v", err)
			}
		}
	}
	return d, cleanup, nil
}

// RedisEnabled 是否配置了 Redis
func (d *Data) RedisEnabled() bool {
	return d.redis != nil
}

// Redis 原始客户端，未配置时为 nil
func (d *Data) Redis() *redis.Client {
	return d.redis
}

// PingRedis 检查 Redis 连通性
func (d *Data) PingRedis(ctx context.Context) error {
	if d.redis == nil {
		return nil
	}
	return d.redis.Ping(ctx).Err()
}

// PingBackend 检查后端可达，收到 5xx 以下的任何响应都视为可达
func (d *Data) PingBackend(ctx context.Context) error {
	_, err := d.backend.Get(ctx, "/")
	if err == nil {
		return nil
	}
	var se *httpclient.StatusError
	if errors.As(err, &se) && se.StatusCode < 500 {
		return nil
	}
	return err
}
