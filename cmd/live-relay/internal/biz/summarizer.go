package biz

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"go.opentelemetry.io/otel/attribute"

	"github.com/ankurMishraDev/GenX-AI/cmd/live-relay/internal/domain"
	"github.com/ankurMishraDev/GenX-AI/pkg/observability"
)

// isoUTC Python isoformat 风格的 UTC 时间
const isoUTC = "2006-01-02T15:04:05.000000-07:00"

const namePhrase = "my name is"

// SummarizerOptions 总结配置
type SummarizerOptions struct {
	Model       string
	Temperature float32
}

// Summarizer 会话结束时生成并保存结构化总结
type Summarizer struct {
	repo SummaryRepo
	gen  TextGenerator
	opts SummarizerOptions
	now  func() time.Time
	log  *log.Helper
}

// NewSummarizer 创建总结器
func NewSummarizer(repo SummaryRepo, gen TextGenerator, opts SummarizerOptions, logger log.Logger) *Summarizer {
	if opts.Temperature == 0 {
		opts.Temperature = 0.3
	}
	if opts.Model == "" {
		opts.Model = defaultTextModel
	}
	return &Summarizer{
		repo: repo,
		gen:  gen,
		opts: opts,
		now:  time.Now,
		log:  log.NewHelper(log.With(logger, "module", "biz/summarizer")),
	}
}

// Summarize 总结对话并保存到后端
func (s *Summarizer) Summarize(ctx context.Context, req domain.SummaryRequest) (domain.StructuredSummary, error) {
	ctx, span := observability.StartSpan(ctx, "biz", "Summarizer.Summarize",
		attribute.String("uid", req.UserID), attribute.Int("turns", len(req.Transcript)))
	defer span.End()

	if len(req.Transcript) == 0 {
		return nil, domain.ErrEmptyTranscript
	}
	logger := s.log.WithContext(ctx)

	if name := ExtractName(req.Transcript); name != "" {
		if err := s.repo.SaveName(ctx, req.UserID, name); err != nil {
			logger.Warnf("save name for %s: %v", req.UserID, err)
		}
	}

	previous, err := s.repo.GetPreviousSummary(ctx, req.UserID)
	if err != nil {
		logger.Warnf("fetch previous summary for %s: %v", req.UserID, err)
		previous = ""
	}

	prompt := buildSummaryPrompt(previous, req.SessionID, s.now().UTC().Format(isoUTC), req.Transcript.Flatten())
	text, err := s.gen.Generate(ctx, domain.GenerationRequest{
		Model:             s.opts.Model,
		Prompt:            prompt,
		SystemInstruction: summarySystemNote,
		Temperature:       s.opts.Temperature,
		JSONResponse:      true,
	})
	if err != nil {
		observability.RecordError(span, err)
		return nil, fmt.Errorf("%w: generate: %w", domain.ErrSummaryFailed, err)
	}

	summary := ValidateSummary(ExtractJSON(text))

	now := s.now()
	meta := domain.SummaryMeta{
		ClientID:        req.ClientID,
		SavedAtUTC:      now.UTC().Format(isoUTC),
		DurationMinutes: durationMinutes(req.StartedAt, now),
	}
	if req.SessionID != "" {
		sid := req.SessionID
		meta.SessionID = &sid
	}

	if err := s.repo.SaveSummary(ctx, req.UserID, domain.SavedSummary{SummaryData: summary, Meta: meta}); err != nil {
		observability.RecordError(span, err)
		return nil, fmt.Errorf("%w: save: %w", domain.ErrSummaryFailed, err)
	}

	logger.Infof("summary saved for %s (%d turns, %.2f min)", req.UserID, len(req.Transcript), meta.DurationMinutes)
	return summary, nil
}

// ExtractName 取第一条包含 "my name is" 的用户消息中最后一次出现之后的文本
func ExtractName(t domain.Transcript) string {
	for _, text := range t.UserTexts() {
		lower := strings.ToLower(text)
		idx := strings.LastIndex(lower, namePhrase)
		if idx == -1 {
			continue
		}
		return strings.TrimSpace(lower[idx+len(namePhrase):])
	}
	return ""
}

// durationMinutes 分钟数，保留两位小数
func durationMinutes(start, end time.Time) float64 {
	if start.IsZero() {
		return 0
	}
	return math.Round(end.Sub(start).Seconds()/60*100) / 100
}
