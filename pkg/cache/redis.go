package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

var _ Cache = (*RedisCache)(nil)

// RedisCache 基于 Redis 的缓存实现
type RedisCache struct {
	client  redis.UniversalClient
	options Options
	owned   bool
}

// NewRedisCache 创建 Redis 缓存，Close 时关闭连接
func NewRedisCache(addr, password string, db int, opts Options) *RedisCache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	c := NewRedisCacheFromClient(client, opts)
	c.owned = true
	return c
}

// NewRedisCacheFromClient 复用已有客户端，Close 不关闭底层连接
func NewRedisCacheFromClient(client redis.UniversalClient, opts Options) *RedisCache {
	if opts.DefaultTTL == 0 {
		opts.DefaultTTL = 5 * time.Minute
	}
	return &RedisCache{client: client, options: opts}
}

// makeKey 生成带前缀的键
func (c *RedisCache) makeKey(key string) string {
	if c.options.KeyPrefix != "" {
		return c.options.KeyPrefix + ":" + key
	}
	return key
}

// GetBytes 获取字节数组
func (c *RedisCache) GetBytes(ctx context.Context, key string) ([]byte, error) {
	b, err := c.client.Get(ctx, c.makeKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	return b, err
}

// SetBytes 设置字节数组
func (c *RedisCache) SetBytes(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl == 0 {
		ttl = c.options.DefaultTTL
	}
	return c.client.Set(ctx, c.makeKey(key), value, ttl).Err()
}

// Delete 删除缓存
func (c *RedisCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.makeKey(k)
	}
	return c.client.Del(ctx, full...).Err()
}

// TTL 获取剩余过期时间
func (c *RedisCache) TTL(ctx context.Context, key string) (time.Duration, error) {
	return c.client.TTL(ctx, c.makeKey(key)).Result()
}

// Ping 检查连接
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close 关闭连接
func (c *RedisCache) Close() error {
	if !c.owned {
		return nil
	}
	return c.client.Close()
}
