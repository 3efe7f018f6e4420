package infra

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/ankurMishraDev/GenX-AI/cmd/live-relay/internal/domain"
)

// CredentialOptions 凭证配置
type CredentialOptions struct {
	APIKey          string
	CredentialsFile string
	Scopes          []string
	RefreshTimeout  time.Duration
	RefreshBuffer   time.Duration // 距过期不足该时长视为需要刷新
}

// CredentialProvider 单写者凭证提供者，按需刷新并为每个会话返回不可变快照
type CredentialProvider struct {
	opts CredentialOptions
	log  *log.Helper

	mu    sync.Mutex
	creds *google.Credentials
	token *oauth2.Token

	now       func() time.Time
	loadFn    func(ctx context.Context) (*google.Credentials, error)
	refreshFn func(ctx context.Context, creds *google.Credentials) (*oauth2.Token, error)
}

// NewCredentialProvider 创建凭证提供者
func NewCredentialProvider(opts CredentialOptions, logger log.Logger) *CredentialProvider {
	if opts.RefreshTimeout == 0 {
		opts.RefreshTimeout = 15 * time.Second
	}
	if opts.RefreshBuffer == 0 {
		opts.RefreshBuffer = 5 * time.Minute
	}
	if len(opts.Scopes) == 0 {
		opts.Scopes = []string{"https://www.googleapis.com/auth/cloud-platform"}
	}
	p := &CredentialProvider{
		opts: opts,
		log:  log.NewHelper(log.With(logger, "module", "infra/credentials")),
		now:  time.Now,
	}
	p.loadFn = p.loadFromFile
	p.refreshFn = p.refreshToken
	return p
}

// APIKeyMode 是否使用 Gemini API key
func (p *CredentialProvider) APIKeyMode() bool {
	return p.opts.APIKey != ""
}

// Snapshot 返回可用于一次连接的凭证
// 先用现有凭证刷新，失败再从服务账号文件重新加载，都失败返回 ErrCredentialsUnavailable
func (p *CredentialProvider) Snapshot(ctx context.Context) (domain.CredentialSnapshot, error) {
	if p.APIKeyMode() {
		return domain.CredentialSnapshot{APIKey: p.opts.APIKey, Source: "api_key"}, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.fresh() {
		return p.snapshot("cached"), nil
	}

	ctx, cancel := context.WithTimeout(ctx, p.opts.RefreshTimeout)
	defer cancel()

	var refreshErr error
	if p.creds != nil {
		tok, err := p.refreshFn(ctx, p.creds)
		if err == nil {
			p.token = tok
			return p.snapshot("refreshed"), nil
		}
		refreshErr = err
		p.log.WithContext(ctx).Warnf("credential refresh failed, reloading: %v", err)
	}

	creds, err := p.loadFn(ctx)
	if err == nil {
		var tok *oauth2.Token
		tok, err = p.refreshFn(ctx, creds)
		if err == nil {
			p.creds = creds
			p.token = tok
			return p.snapshot("reloaded"), nil
		}
	}
	p.log.WithContext(ctx).Errorf("credential reload failed: %v", err)
	return domain.CredentialSnapshot{}, fmt.Errorf("%w: %w", domain.ErrCredentialsUnavailable, errors.Join(refreshErr, err))
}

// fresh 调用方需持有锁
func (p *CredentialProvider) fresh() bool {
	if p.token == nil || p.token.AccessToken == "" {
		return false
	}
	if p.token.Expiry.IsZero() {
		return true
	}
	return p.token.Expiry.Sub(p.now()) > p.opts.RefreshBuffer
}

func (p *CredentialProvider) snapshot(source string) domain.CredentialSnapshot {
	return domain.CredentialSnapshot{
		AccessToken: p.token.AccessToken,
		Expiry:      p.token.Expiry,
		Source:      source,
	}
}

// loadFromFile 读取服务账号文件，文件不存在时使用默认凭证
func (p *CredentialProvider) loadFromFile(ctx context.Context) (*google.Credentials, error) {
	if p.opts.CredentialsFile != "" {
		data, err := os.ReadFile(p.opts.CredentialsFile)
		if err == nil {
			return google.CredentialsFromJSON(ctx, data, p.opts.Scopes...)
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read credentials file: %w", err)
		}
		p.log.WithContext(ctx).Warnf("credentials file %s not found, using application default credentials", p.opts.CredentialsFile)
	}
	return google.FindDefaultCredentials(ctx, p.opts.Scopes...)
}

// refreshToken 服务账号每次重新签发，其他凭证走自带的 TokenSource
func (p *CredentialProvider) refreshToken(ctx context.Context, creds *google.Credentials) (*oauth2.Token, error) {
	if len(creds.JSON) > 0 {
		if cfg, err := google.JWTConfigFromJSON(creds.JSON, p.opts.Scopes...); err == nil {
			return cfg.TokenSource(ctx).Token()
		}
	}
	if creds.TokenSource == nil {
		return nil, errors.New("credentials carry no token source")
	}
	return creds.TokenSource.Token()
}
