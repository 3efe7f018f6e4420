package infra

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/sony/gobreaker"
	"google.golang.org/genai"

	"github.com/ankurMishraDev/GenX-AI/cmd/live-relay/internal/biz"
	"github.com/ankurMishraDev/GenX-AI/cmd/live-relay/internal/domain"
)

var _ biz.TextGenerator = (*TextGenerator)(nil)

// credentialSource 凭证快照来源
type credentialSource interface {
	Snapshot(ctx context.Context) (domain.CredentialSnapshot, error)
}

// generateFunc 一次文本生成调用
type generateFunc func(ctx context.Context, snap domain.CredentialSnapshot, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)

// TextGenerator 基于 genai 的文本生成，带熔断
type TextGenerator struct {
	creds        credentialSource
	defaultModel string
	breaker      *gobreaker.CircuitBreaker
	generate     generateFunc
	log          *log.Helper
}

// TextOptions 文本生成配置
type TextOptions struct {
	// DefaultModel 用于未指定模型的请求
	DefaultModel string
}

// NewTextGenerator 创建文本生成器
func NewTextGenerator(creds *CredentialProvider, clients *ClientFactory, opts TextOptions, logger log.Logger) *TextGenerator {
	g := newTextGenerator(creds, opts.DefaultModel, func(ctx context.Context, snap domain.CredentialSnapshot, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
		client, err := clients.Client(ctx, snap)
		if err != nil {
			return nil, err
		}
		return client.Models.GenerateContent(ctx, model, contents, cfg)
	}, logger)
	return g
}

func newTextGenerator(creds credentialSource, defaultModel string, fn generateFunc, logger log.Logger) *TextGenerator {
	return &TextGenerator{
		creds:        creds,
		defaultModel: defaultModel,
		generate:     fn,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "text-model",
			MaxRequests: 1,
			Interval:    time.Minute,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			// 调用方取消不计入熔断
			IsSuccessful: func(err error) bool {
				return err == nil || errors.Is(err, context.Canceled)
			},
		}),
		log: log.NewHelper(log.With(logger, "module", "infra/text")),
	}
}

// Generate 生成文本，拼接所有候选的文本片段
func (g *TextGenerator) Generate(ctx context.Context, req domain.GenerationRequest) (string, error) {
	model := req.Model
	if model == "" {
		model = g.defaultModel
	}

	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(req.Temperature),
	}
	if req.SystemInstruction != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: req.SystemInstruction}}}
	}
	if req.JSONResponse {
		cfg.ResponseMIMEType = "application/json"
	}
	contents := []*genai.Content{{
		Role:  "user",
		Parts: []*genai.Part{{Text: req.Prompt}},
	}}

	result, err := g.breaker.Execute(func() (interface{}, error) {
		snap, err := g.creds.Snapshot(ctx)
		if err != nil {
			return nil, err
		}
		return g.generate(ctx, snap, model, contents, cfg)
	})
	if err != nil {
		return "", fmt.Errorf("generate with %s: %w", model, err)
	}
	return responseText(result.(*genai.GenerateContentResponse)), nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var sb strings.Builder
	for _, c := range resp.Candidates {
		if c == nil || c.Content == nil {
			continue
		}
		for _, p := range c.Content.Parts {
			if p != nil && !p.Thought {
				sb.WriteString(p.Text)
			}
		}
	}
	return sb.String()
}
