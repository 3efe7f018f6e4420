package biz

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/ankurMishraDev/GenX-AI/cmd/live-relay/internal/domain"
)

// FallbackQuestion 追问生成失败时使用
const FallbackQuestion = "How's your fitness journey going since we last talked?"

// QuestionOptions 追问生成配置
type QuestionOptions struct {
	Model       string
	Temperature float32
	Timeout     time.Duration
}

// QuestionGenerator 根据上一次总结生成开场追问
type QuestionGenerator struct {
	gen  TextGenerator
	opts QuestionOptions
	log  *log.Helper
}

// NewQuestionGenerator 创建追问生成器
func NewQuestionGenerator(gen TextGenerator, opts QuestionOptions, logger log.Logger) *QuestionGenerator {
	if opts.Temperature == 0 {
		opts.Temperature = 0.7
	}
	if opts.Timeout == 0 {
		opts.Timeout = 10 * time.Second
	}
	return &QuestionGenerator{
		gen:  gen,
		opts: opts,
		log:  log.NewHelper(log.With(logger, "module", "biz/questions")),
	}
}

// Generate 返回追问文本，失败时返回固定追问，模型无输出时返回空串
func (q *QuestionGenerator) Generate(ctx context.Context, summaryData json.RawMessage) string {
	ctx, cancel := context.WithTimeout(ctx, q.opts.Timeout)
	defer cancel()

	text, err := q.gen.Generate(ctx, domain.GenerationRequest{
		Model:       q.opts.Model,
		Prompt:      buildQuestionPrompt(summaryData),
		Temperature: q.opts.Temperature,
	})
	if err != nil {
		q.log.WithContext(ctx).Errorf("generate follow-up questions: %v", err)
		return FallbackQuestion
	}
	return strings.TrimSpace(text)
}
