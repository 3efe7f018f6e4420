package infra

import (
	"context"
	"fmt"

	"cloud.google.com/go/auth"
	"google.golang.org/genai"

	"github.com/ankurMishraDev/GenX-AI/cmd/live-relay/internal/domain"
)

// ClientOptions Vertex AI 项目信息
type ClientOptions struct {
	Project  string
	Location string
}

// ClientFactory 按凭证快照创建 genai 客户端
type ClientFactory struct {
	opts ClientOptions
}

// NewClientFactory 创建工厂
func NewClientFactory(opts ClientOptions) *ClientFactory {
	return &ClientFactory{opts: opts}
}

// Client 有 API key 时走 Gemini API，否则用访问令牌走 Vertex AI
func (f *ClientFactory) Client(ctx context.Context, snap domain.CredentialSnapshot) (*genai.Client, error) {
	cfg := &genai.ClientConfig{}
	if snap.APIKey != "" {
		cfg.Backend = genai.BackendGeminiAPI
		cfg.APIKey = snap.APIKey
	} else {
		if snap.AccessToken == "" {
			return nil, domain.ErrCredentialsUnavailable
		}
		cfg.Backend = genai.BackendVertexAI
		cfg.Project = f.opts.Project
		cfg.Location = f.opts.Location
		cfg.Credentials = auth.NewCredentials(&auth.CredentialsOptions{
			TokenProvider: staticToken{token: &auth.Token{
				Value:  snap.AccessToken,
				Type:   "Bearer",
				Expiry: snap.Expiry,
			}},
		})
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return client, nil
}

// staticToken 固定返回快照中的令牌
type staticToken struct {
	token *auth.Token
}

func (s staticToken) Token(context.Context) (*auth.Token, error) {
	return s.token, nil
}
