package biz

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/ankurMishraDev/GenX-AI/cmd/live-relay/internal/domain"
)

// mockContextRepo 模拟后端上下文接口
type mockContextRepo struct {
	GetUserFunc           func(ctx context.Context, uid string) (*domain.UserRecord, error)
	GetRecentContextFunc  func(ctx context.Context, uid string) (json.RawMessage, error)
	GetWeeklyArchivesFunc func(ctx context.Context, uid string, limit int) (json.RawMessage, error)
	GetUserProfileFunc    func(ctx context.Context, uid string) (json.RawMessage, error)
}

func (m *mockContextRepo) GetUser(ctx context.Context, uid string) (*domain.UserRecord, error) {
	if m.GetUserFunc != nil {
		return m.GetUserFunc(ctx, uid)
	}
	return &domain.UserRecord{Name: "Ana"}, nil
}

func (m *mockContextRepo) GetRecentContext(ctx context.Context, uid string) (json.RawMessage, error) {
	if m.GetRecentContextFunc != nil {
		return m.GetRecentContextFunc(ctx, uid)
	}
	return nil, nil
}

func (m *mockContextRepo) GetWeeklyArchives(ctx context.Context, uid string, limit int) (json.RawMessage, error) {
	if m.GetWeeklyArchivesFunc != nil {
		return m.GetWeeklyArchivesFunc(ctx, uid, limit)
	}
	return nil, nil
}

func (m *mockContextRepo) GetUserProfile(ctx context.Context, uid string) (json.RawMessage, error) {
	if m.GetUserProfileFunc != nil {
		return m.GetUserProfileFunc(ctx, uid)
	}
	return nil, nil
}

// mockSummaryRepo 模拟总结存储并记录调用
type mockSummaryRepo struct {
	SaveNameFunc           func(ctx context.Context, uid, name string) error
	GetPreviousSummaryFunc func(ctx context.Context, uid string) (string, error)
	SaveSummaryFunc        func(ctx context.Context, uid string, summary domain.SavedSummary) error

	mu    sync.Mutex
	names []string
	saved []domain.SavedSummary
}

func (m *mockSummaryRepo) SaveName(ctx context.Context, uid, name string) error {
	m.mu.Lock()
	m.names = append(m.names, name)
	m.mu.Unlock()
	if m.SaveNameFunc != nil {
		return m.SaveNameFunc(ctx, uid, name)
	}
	return nil
}

func (m *mockSummaryRepo) GetPreviousSummary(ctx context.Context, uid string) (string, error) {
	if m.GetPreviousSummaryFunc != nil {
		return m.GetPreviousSummaryFunc(ctx, uid)
	}
	return "", nil
}

func (m *mockSummaryRepo) SaveSummary(ctx context.Context, uid string, summary domain.SavedSummary) error {
	m.mu.Lock()
	m.saved = append(m.saved, summary)
	m.mu.Unlock()
	if m.SaveSummaryFunc != nil {
		return m.SaveSummaryFunc(ctx, uid, summary)
	}
	return nil
}

// mockTextGenerator 模拟文本模型
type mockTextGenerator struct {
	GenerateFunc func(ctx context.Context, req domain.GenerationRequest) (string, error)

	mu       sync.Mutex
	requests []domain.GenerationRequest
}

func (m *mockTextGenerator) Generate(ctx context.Context, req domain.GenerationRequest) (string, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, req)
	}
	return `{"summary":"ok"}`, nil
}

// mockExerciseRepo 模拟推荐动作存储
type mockExerciseRepo struct {
	SaveExercisesFunc func(ctx context.Context, uid string, ids json.RawMessage) error
}

func (m *mockExerciseRepo) SaveExercises(ctx context.Context, uid string, ids json.RawMessage) error {
	if m.SaveExercisesFunc != nil {
		return m.SaveExercisesFunc(ctx, uid, ids)
	}
	return nil
}
