package cache

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisCacheFromClient(client, Options{KeyPrefix: "relay", DefaultTTL: time.Minute}), mr
}

func TestRedisCache_SetGet(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := t.Context()

	require.NoError(t, c.SetBytes(ctx, "ctx:u1", []byte(`{"a":1}`), 0))

	got, err := c.GetBytes(ctx, "ctx:u1")
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(got))

	// 键前缀和默认过期时间
	assert.True(t, mr.Exists("relay:ctx:u1"))
	assert.Equal(t, time.Minute, mr.TTL("relay:ctx:u1"))
}

func TestRedisCache_MissAndExpiry(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := t.Context()

	_, err := c.GetBytes(ctx, "absent")
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, c.SetBytes(ctx, "k", []byte("v"), 10*time.Second))
	mr.FastForward(11 * time.Second)

	_, err = c.GetBytes(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestRedisCache_Delete(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := t.Context()

	require.NoError(t, c.SetBytes(ctx, "a", []byte("1"), 0))
	require.NoError(t, c.SetBytes(ctx, "b", []byte("2"), 0))
	require.NoError(t, c.Delete(ctx, "a", "b"))
	require.NoError(t, c.Delete(ctx))

	_, err := c.GetBytes(ctx, "a")
	assert.ErrorIs(t, err, ErrMiss)

	ttl, err := c.TTL(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, time.Duration(-2), ttl)
}

func TestRedisCache_CloseBorrowedClient(t *testing.T) {
	c, _ := newTestCache(t)
	require.NoError(t, c.Close())
	// 借用的客户端仍可使用
	assert.NoError(t, c.Ping(t.Context()))
}
