package biz

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/ankurMishraDev/GenX-AI/cmd/live-relay/internal/domain"
)

// FetchOptions 上下文拉取超时
type FetchOptions struct {
	UserTimeout     time.Duration
	RecentTimeout   time.Duration
	ArchivesTimeout time.Duration
	ProfileTimeout  time.Duration
	ArchiveLimit    int
}

// DefaultFetchOptions 默认超时
func DefaultFetchOptions() FetchOptions {
	return FetchOptions{
		UserTimeout:     8 * time.Second,
		RecentTimeout:   10 * time.Second,
		ArchivesTimeout: 10 * time.Second,
		ProfileTimeout:  8 * time.Second,
		ArchiveLimit:    4,
	}
}

// ContextFetcher 拉取个性化所需的用户上下文
type ContextFetcher struct {
	repo ContextRepo
	opts FetchOptions
	log  *log.Helper
}

// NewContextFetcher 创建上下文拉取器
func NewContextFetcher(repo ContextRepo, opts FetchOptions, logger log.Logger) *ContextFetcher {
	return &ContextFetcher{
		repo: repo,
		opts: opts,
		log:  log.NewHelper(log.With(logger, "module", "biz/context")),
	}
}

// Fetch 拉取用户记录，再并发拉取近期活动、周归档和用户画像
// 只有用户记录失败时返回错误，其余请求失败时对应字段为 nil
func (f *ContextFetcher) Fetch(ctx context.Context, uid string) (*domain.UserContext, error) {
	userCtx, cancel := context.WithTimeout(ctx, f.opts.UserTimeout)
	user, err := f.repo.GetUser(userCtx, uid)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("fetch user %s: %w", uid, err)
	}

	out := &domain.UserContext{User: user}

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		out.RecentActivity = f.soft(ctx, "recent context", f.opts.RecentTimeout, func(ctx context.Context) (json.RawMessage, error) {
			return f.repo.GetRecentContext(ctx, uid)
		})
	}()
	go func() {
		defer wg.Done()
		out.Archives = f.soft(ctx, "weekly archives", f.opts.ArchivesTimeout, func(ctx context.Context) (json.RawMessage, error) {
			return f.repo.GetWeeklyArchives(ctx, uid, f.opts.ArchiveLimit)
		})
	}()
	go func() {
		defer wg.Done()
		out.Profile = f.soft(ctx, "user profile", f.opts.ProfileTimeout, func(ctx context.Context) (json.RawMessage, error) {
			return f.repo.GetUserProfile(ctx, uid)
		})
	}()
	wg.Wait()

	return out, nil
}

// soft 带超时执行，失败只记录日志
func (f *ContextFetcher) soft(ctx context.Context, what string, timeout time.Duration, fn func(context.Context) (json.RawMessage, error)) json.RawMessage {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	raw, err := fn(ctx)
	if err != nil {
		f.log.WithContext(ctx).Warnf("fetch %s failed after %s: %v", what, time.Since(start).Round(time.Millisecond), err)
		return nil
	}
	return raw
}
