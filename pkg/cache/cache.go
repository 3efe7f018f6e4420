package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss 缓存未命中
var ErrMiss = errors.New("cache: miss")

// Cache 缓存接口
type Cache interface {
	// GetBytes 获取字节数组，未命中返回 ErrMiss
	GetBytes(ctx context.Context, key string) ([]byte, error)

	// SetBytes 设置字节数组，ttl 为 0 时使用默认过期时间
	SetBytes(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete 删除缓存
	Delete(ctx context.Context, keys ...string) error

	// TTL 获取剩余过期时间
	TTL(ctx context.Context, key string) (time.Duration, error)

	// Close 关闭连接
	Close() error
}

// Options 缓存选项
type Options struct {
	DefaultTTL time.Duration // 默认过期时间
	KeyPrefix  string        // 键前缀
}
