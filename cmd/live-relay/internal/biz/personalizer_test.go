package biz

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ankurMishraDev/GenX-AI/cmd/live-relay/internal/domain"
)

func newTestPersonalizer(repo ContextRepo, gen TextGenerator, timeout time.Duration) *Personalizer {
	logger := log.DefaultLogger
	fetcher := NewContextFetcher(repo, FetchOptions{
		UserTimeout:     time.Second,
		RecentTimeout:   50 * time.Millisecond,
		ArchivesTimeout: 50 * time.Millisecond,
		ProfileTimeout:  50 * time.Millisecond,
		ArchiveLimit:    4,
	}, logger)
	questions := NewQuestionGenerator(gen, QuestionOptions{Model: "gemini-2.0-flash-exp", Timeout: 100 * time.Millisecond}, logger)
	return NewPersonalizer(fetcher, NewInstructionComposer(), questions, PersonalizerOptions{
		BaseInstruction: "BASE",
		Timeout:         timeout,
	}, logger)
}

func TestContextFetcher_SoftFailures(t *testing.T) {
	// 准备测试数据：周归档失败，画像超时
	var archiveLimit int
	repo := &mockContextRepo{
		GetRecentContextFunc: func(ctx context.Context, uid string) (json.RawMessage, error) {
			return json.RawMessage(`{"summaries":[]}`), nil
		},
		GetWeeklyArchivesFunc: func(ctx context.Context, uid string, limit int) (json.RawMessage, error) {
			archiveLimit = limit
			return nil, errors.New("502")
		},
		GetUserProfileFunc: func(ctx context.Context, uid string) (json.RawMessage, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}
	fetcher := NewContextFetcher(repo, FetchOptions{
		UserTimeout: time.Second, RecentTimeout: time.Second, ArchivesTimeout: time.Second,
		ProfileTimeout: 20 * time.Millisecond, ArchiveLimit: 4,
	}, log.DefaultLogger)

	// 执行拉取
	got, err := fetcher.Fetch(t.Context(), "u1")

	// 验证结果
	require.NoError(t, err)
	assert.Equal(t, "Ana", got.User.Name)
	assert.JSONEq(t, `{"summaries":[]}`, string(got.RecentActivity))
	assert.Nil(t, got.Archives)
	assert.Nil(t, got.Profile)
	assert.Equal(t, 4, archiveLimit)
}

func TestContextFetcher_UserFailure(t *testing.T) {
	var secondary atomic.Int32
	repo := &mockContextRepo{
		GetUserFunc: func(ctx context.Context, uid string) (*domain.UserRecord, error) {
			return nil, errors.New("404")
		},
		GetRecentContextFunc: func(ctx context.Context, uid string) (json.RawMessage, error) {
			secondary.Add(1)
			return nil, nil
		},
	}
	fetcher := NewContextFetcher(repo, DefaultFetchOptions(), log.DefaultLogger)

	_, err := fetcher.Fetch(t.Context(), "u1")
	assert.Error(t, err)
	assert.Equal(t, int32(0), secondary.Load())
}

func TestPersonalizer_ArchiveAndProfileFailStillGreets(t *testing.T) {
	repo := &mockContextRepo{
		GetWeeklyArchivesFunc: func(ctx context.Context, uid string, limit int) (json.RawMessage, error) {
			return nil, errors.New("timeout")
		},
		GetUserProfileFunc: func(ctx context.Context, uid string) (json.RawMessage, error) {
			return nil, errors.New("timeout")
		},
	}
	gen := &mockTextGenerator{}
	p := newTestPersonalizer(repo, gen, time.Second)

	got := p.Build(t.Context(), "u1")

	assert.True(t, strings.HasPrefix(got, "BASE\n\n--- Conversation Context ---\n"))
	assert.Contains(t, got, "Greet them by name: 'Ana'.")
	assert.Contains(t, got, genericQuestion)
	// 没有上一次总结时不调用模型
	assert.Empty(t, gen.requests)
}

func TestPersonalizer_UserFetchFailsReturnsBase(t *testing.T) {
	repo := &mockContextRepo{
		GetUserFunc: func(ctx context.Context, uid string) (*domain.UserRecord, error) {
			return nil, errors.New("down")
		},
	}
	p := newTestPersonalizer(repo, &mockTextGenerator{}, time.Second)

	assert.Equal(t, "BASE", p.Build(t.Context(), "u1"))
	assert.Equal(t, "BASE", p.Build(t.Context(), ""))
}

func TestPersonalizer_TimeoutFallback(t *testing.T) {
	repo := &mockContextRepo{
		GetUserFunc: func(ctx context.Context, uid string) (*domain.UserRecord, error) {
			time.Sleep(200 * time.Millisecond)
			return &domain.UserRecord{Name: "Ana"}, nil
		},
	}
	p := newTestPersonalizer(repo, &mockTextGenerator{}, 30*time.Millisecond)

	start := time.Now()
	got := p.Build(t.Context(), "u1")

	assert.Equal(t, "BASE"+TimeoutGreeting, got)
	assert.Less(t, time.Since(start), 150*time.Millisecond)
}

func TestPersonalizer_QuestionsFromLatestSummary(t *testing.T) {
	repo := &mockContextRepo{
		GetUserFunc: func(ctx context.Context, uid string) (*domain.UserRecord, error) {
			return &domain.UserRecord{Name: "Ana", SummaryData: json.RawMessage(`{"summary":"leg day","energy_level":70}`)}, nil
		},
	}
	gen := &mockTextGenerator{
		GenerateFunc: func(ctx context.Context, req domain.GenerationRequest) (string, error) {
			return "  1. How are your legs?\n2. Sleeping well?  ", nil
		},
	}
	p := newTestPersonalizer(repo, gen, time.Second)

	got := p.Build(t.Context(), "u1")

	require.Len(t, gen.requests, 1)
	req := gen.requests[0]
	assert.Equal(t, float32(0.7), req.Temperature)
	assert.Contains(t, req.Prompt, "PREVIOUS SUMMARY:\n{\n  \"summary\": \"leg day\",\n  \"energy_level\": 70\n}\n\nQUESTIONS:")
	assert.Contains(t, got, questionsLead+"1. How are your legs?\n2. Sleeping well?\n--------------------------")
}

func TestQuestionGenerator_FallbackOnError(t *testing.T) {
	gen := &mockTextGenerator{
		GenerateFunc: func(ctx context.Context, req domain.GenerationRequest) (string, error) {
			return "", errors.New("quota")
		},
	}
	q := NewQuestionGenerator(gen, QuestionOptions{}, log.DefaultLogger)

	assert.Equal(t, FallbackQuestion, q.Generate(t.Context(), json.RawMessage(`{"a":1}`)))
}

func TestQuestionGenerator_TimeoutUsesFallback(t *testing.T) {
	gen := &mockTextGenerator{
		GenerateFunc: func(ctx context.Context, req domain.GenerationRequest) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		},
	}
	q := NewQuestionGenerator(gen, QuestionOptions{Timeout: 10 * time.Millisecond}, log.DefaultLogger)

	assert.Equal(t, FallbackQuestion, q.Generate(t.Context(), json.RawMessage(`{"a":1}`)))
}
