package biz

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ankurMishraDev/GenX-AI/cmd/live-relay/internal/domain"
)

func newTestSummarizer(repo SummaryRepo, gen TextGenerator) *Summarizer {
	s := NewSummarizer(repo, gen, SummarizerOptions{Model: "gemini-2.0-flash-exp"}, log.DefaultLogger)
	s.now = func() time.Time { return time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC) }
	return s
}

func TestSummarizer_Summarize(t *testing.T) {
	// 准备测试数据
	repo := &mockSummaryRepo{
		GetPreviousSummaryFunc: func(ctx context.Context, uid string) (string, error) {
			return "Last time: knee pain.", nil
		},
	}
	gen := &mockTextGenerator{
		GenerateFunc: func(ctx context.Context, req domain.GenerationRequest) (string, error) {
			return "Sure! {\"summary\":\"Great session\",\"energy_level\":120,\"sleep_duration_hours\":-2}", nil
		},
	}
	s := newTestSummarizer(repo, gen)
	req := domain.SummaryRequest{
		UserID:    "u1",
		ClientID:  "c1",
		SessionID: "handle-9",
		StartedAt: time.Date(2026, 1, 10, 11, 30, 0, 0, time.UTC),
		Transcript: domain.Transcript{
			{Role: domain.RoleUser, Text: "Hi, my name is Sam."},
			{Role: domain.RoleAssistant, Text: "Welcome Sam!"},
		},
	}

	// 执行总结
	summary, err := s.Summarize(t.Context(), req)

	// 验证结果
	require.NoError(t, err)
	assert.Equal(t, "Great session", summary["summary"])
	assert.Equal(t, 100, summary["energy_level"])
	assert.Equal(t, 0, summary["sleep_duration_hours"])

	assert.Equal(t, []string{"sam."}, repo.names)
	require.Len(t, repo.saved, 1)
	meta := repo.saved[0].Meta
	assert.Equal(t, "c1", meta.ClientID)
	require.NotNil(t, meta.SessionID)
	assert.Equal(t, "handle-9", *meta.SessionID)
	assert.Equal(t, 30.0, meta.DurationMinutes)
	assert.Equal(t, "2026-01-10T12:00:00.000000+00:00", meta.SavedAtUTC)

	require.Len(t, gen.requests, 1)
	gr := gen.requests[0]
	assert.Equal(t, "gemini-2.0-flash-exp", gr.Model)
	assert.Equal(t, float32(0.3), gr.Temperature)
	assert.True(t, gr.JSONResponse)
	assert.Equal(t, summarySystemNote, gr.SystemInstruction)
	assert.Contains(t, gr.Prompt, "PREVIOUS_SUMMARY:\nLast time: knee pain.\n\n")
	assert.Contains(t, gr.Prompt, `"session_id": "handle-9"`)
	assert.Contains(t, gr.Prompt, "TRANSCRIPT:\nUSER: Hi, my name is Sam.\nASSISTANT: Welcome Sam!")
}

func TestSummarizer_SoftFailuresAndNullSession(t *testing.T) {
	repo := &mockSummaryRepo{
		GetPreviousSummaryFunc: func(ctx context.Context, uid string) (string, error) {
			return "", errors.New("404")
		},
	}
	s := newTestSummarizer(repo, &mockTextGenerator{})

	_, err := s.Summarize(t.Context(), domain.SummaryRequest{
		UserID:     "u1",
		Transcript: domain.Transcript{{Role: domain.RoleUser, Text: "hello"}},
	})

	require.NoError(t, err)
	require.Len(t, repo.saved, 1)
	assert.Nil(t, repo.saved[0].Meta.SessionID)
	assert.Equal(t, 0.0, repo.saved[0].Meta.DurationMinutes)
	assert.Empty(t, repo.names)
}

func TestSummarizer_Errors(t *testing.T) {
	t.Run("空对话", func(t *testing.T) {
		repo := &mockSummaryRepo{}
		_, err := newTestSummarizer(repo, &mockTextGenerator{}).Summarize(t.Context(), domain.SummaryRequest{UserID: "u1"})
		assert.ErrorIs(t, err, domain.ErrEmptyTranscript)
		assert.Empty(t, repo.saved)
	})

	t.Run("模型失败", func(t *testing.T) {
		repo := &mockSummaryRepo{}
		gen := &mockTextGenerator{GenerateFunc: func(ctx context.Context, req domain.GenerationRequest) (string, error) {
			return "", errors.New("quota exceeded")
		}}
		_, err := newTestSummarizer(repo, gen).Summarize(t.Context(), domain.SummaryRequest{
			UserID: "u1", Transcript: domain.Transcript{{Role: domain.RoleUser, Text: "hi"}},
		})
		assert.ErrorIs(t, err, domain.ErrSummaryFailed)
		assert.Empty(t, repo.saved)
	})

	t.Run("保存失败", func(t *testing.T) {
		repo := &mockSummaryRepo{SaveSummaryFunc: func(ctx context.Context, uid string, summary domain.SavedSummary) error {
			return errors.New("500")
		}}
		_, err := newTestSummarizer(repo, &mockTextGenerator{}).Summarize(t.Context(), domain.SummaryRequest{
			UserID: "u1", Transcript: domain.Transcript{{Role: domain.RoleUser, Text: "hi"}},
		})
		assert.ErrorIs(t, err, domain.ErrSummaryFailed)
	})
}

func TestExtractName(t *testing.T) {
	tests := []struct {
		name string
		turn domain.Transcript
		want string
	}{
		{name: "基本", turn: domain.Transcript{{Role: domain.RoleUser, Text: "My name is Priya"}}, want: "priya"},
		{name: "取最后一次出现", turn: domain.Transcript{{Role: domain.RoleUser, Text: "my name is x, no wait my name is Jo"}}, want: "jo"},
		{name: "保留标点", turn: domain.Transcript{{Role: domain.RoleUser, Text: "My name is J.R."}}, want: "j.r."},
		{name: "忽略助手", turn: domain.Transcript{{Role: domain.RoleAssistant, Text: "my name is Coach"}}, want: ""},
		{name: "第一条命中的用户消息", turn: domain.Transcript{
			{Role: domain.RoleUser, Text: "hello"},
			{Role: domain.RoleUser, Text: "my name is Lee"},
			{Role: domain.RoleUser, Text: "my name is Kim"},
		}, want: "lee"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractName(tt.turn))
		})
	}
}
