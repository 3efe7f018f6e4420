package biz

import (
	"context"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"go.opentelemetry.io/otel/attribute"

	"github.com/ankurMishraDev/GenX-AI/pkg/observability"
)

// TimeoutGreeting 个性化超时时追加到基础提示后
const TimeoutGreeting = "\n\nWelcome back! How's your fitness journey going?"

// PersonalizerOptions 个性化配置
type PersonalizerOptions struct {
	BaseInstruction string
	Timeout         time.Duration
}

// Personalizer 为一个用户生成会话系统提示
type Personalizer struct {
	fetcher   *ContextFetcher
	composer  *InstructionComposer
	questions *QuestionGenerator
	opts      PersonalizerOptions
	log       *log.Helper
}

// NewPersonalizer 创建个性化器
func NewPersonalizer(
	fetcher *ContextFetcher,
	composer *InstructionComposer,
	questions *QuestionGenerator,
	opts PersonalizerOptions,
	logger log.Logger,
) *Personalizer {
	if opts.Timeout == 0 {
		opts.Timeout = 25 * time.Second
	}
	return &Personalizer{
		fetcher:   fetcher,
		composer:  composer,
		questions: questions,
		opts:      opts,
		log:       log.NewHelper(log.With(logger, "module", "biz/personalizer")),
	}
}

// BaseInstruction 静态基础提示
func (p *Personalizer) BaseInstruction() string {
	return p.opts.BaseInstruction
}

// Build 在总超时内生成系统提示，超时返回带欢迎语的基础提示，永不阻塞超过超时
func (p *Personalizer) Build(ctx context.Context, uid string) string {
	ctx, span := observability.StartSpan(ctx, "biz", "Personalizer.Build", attribute.String("uid", uid))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, p.opts.Timeout)
	defer cancel()

	start := time.Now()
	result := make(chan string, 1)
	go func() {
		result <- p.build(ctx, uid)
	}()

	select {
	case instruction := <-result:
		p.log.WithContext(ctx).Infof("instruction for %s built in %s (%d chars)", uid, time.Since(start).Round(time.Millisecond), len(instruction))
		return instruction
	case <-ctx.Done():
		p.log.WithContext(ctx).Errorf("instruction for %s timed out after %s, using fallback", uid, p.opts.Timeout)
		return p.opts.BaseInstruction + TimeoutGreeting
	}
}

func (p *Personalizer) build(ctx context.Context, uid string) string {
	if uid == "" {
		return p.opts.BaseInstruction
	}

	userCtx, err := p.fetcher.Fetch(ctx, uid)
	if err != nil {
		p.log.WithContext(ctx).Errorf("personalization skipped: %v", err)
		return p.opts.BaseInstruction
	}

	var questions string
	if userCtx.User.HasSummary() {
		questions = p.questions.Generate(ctx, userCtx.User.SummaryData)
	}

	return p.composer.Compose(ComposeInput{
		Base:           p.opts.BaseInstruction,
		UserName:       userCtx.User.DisplayName(),
		RecentActivity: userCtx.RecentActivity,
		Archives:       userCtx.Archives,
		Profile:        userCtx.Profile,
		Questions:      questions,
	})
}
