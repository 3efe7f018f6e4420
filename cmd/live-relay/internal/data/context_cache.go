package data

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/ankurMishraDev/GenX-AI/cmd/live-relay/internal/biz"
	"github.com/ankurMishraDev/GenX-AI/cmd/live-relay/internal/conf"
	"github.com/ankurMishraDev/GenX-AI/cmd/live-relay/internal/domain"
	"github.com/ankurMishraDev/GenX-AI/pkg/cache"
)

// NewContextRepo 配置了 Redis 时在后端仓储外包一层上下文缓存
func NewContextRepo(d *Data, repo *BackendRepo, c *conf.Backend, logger log.Logger) biz.ContextRepo {
	if d.cache == nil {
		return repo
	}
	return newCachedContextRepo(repo, d.cache, c.CacheTTL, logger)
}

// cachedContextRepo 缓存近期活动、周归档和用户画像
// 用户记录不缓存，未命中或 Redis 出错时回源
type cachedContextRepo struct {
	next  biz.ContextRepo
	cache cache.Cache
	ttl   time.Duration
	log   *log.Helper
}

func newCachedContextRepo(next biz.ContextRepo, c cache.Cache, ttl time.Duration, logger log.Logger) *cachedContextRepo {
	if ttl <= 0 {
		ttl = 60 * time.Second
	}
	return &cachedContextRepo{
		next:  next,
		cache: c,
		ttl:   ttl,
		log:   log.NewHelper(log.With(logger, "module", "data/context-cache")),
	}
}

func (r *cachedContextRepo) GetUser(ctx context.Context, uid string) (*domain.UserRecord, error) {
	return r.next.GetUser(ctx, uid)
}

func (r *cachedContextRepo) GetRecentContext(ctx context.Context, uid string) (json.RawMessage, error) {
	return r.load(ctx, "ctx:recent:"+uid, func(ctx context.Context) (json.RawMessage, error) {
		return r.next.GetRecentContext(ctx, uid)
	})
}

func (r *cachedContextRepo) GetWeeklyArchives(ctx context.Context, uid string, limit int) (json.RawMessage, error) {
	key := fmt.Sprintf("ctx:archives:%s:%d", uid, limit)
	return r.load(ctx, key, func(ctx context.Context) (json.RawMessage, error) {
		return r.next.GetWeeklyArchives(ctx, uid, limit)
	})
}

func (r *cachedContextRepo) GetUserProfile(ctx context.Context, uid string) (json.RawMessage, error) {
	return r.load(ctx, "ctx:profile:"+uid, func(ctx context.Context) (json.RawMessage, error) {
		return r.next.GetUserProfile(ctx, uid)
	})
}

func (r *cachedContextRepo) load(ctx context.Context, key string, fetch func(context.Context) (json.RawMessage, error)) (json.RawMessage, error) {
	b, err := r.cache.GetBytes(ctx, key)
	if err == nil {
		return json.RawMessage(b), nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		r.log.WithContext(ctx).Warnf("context cache get %s: %v", key, err)
	}

	raw, err := fetch(ctx)
	if err != nil {
		return nil, err
	}
	if err := r.cache.SetBytes(ctx, key, raw, r.ttl); err != nil {
		r.log.WithContext(ctx).Warnf("context cache set %s: %v", key, err)
	}
	return raw, nil
}
