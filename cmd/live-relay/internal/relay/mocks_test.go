package relay

import (
	"context"
	"errors"
	"sync"

	"github.com/ankurMishraDev/GenX-AI/cmd/live-relay/internal/domain"
)

// mockPersonalizer 返回固定提示
type mockPersonalizer struct {
	BuildFunc func(ctx context.Context, uid string) string
}

func (m *mockPersonalizer) Build(ctx context.Context, uid string) string {
	if m.BuildFunc != nil {
		return m.BuildFunc(ctx, uid)
	}
	return "You are a helpful AI assistant."
}

// mockCredentials 模拟凭证刷新
type mockCredentials struct {
	Err error
}

func (m *mockCredentials) Snapshot(context.Context) (domain.CredentialSnapshot, error) {
	if m.Err != nil {
		return domain.CredentialSnapshot{}, m.Err
	}
	return domain.CredentialSnapshot{AccessToken: "token", Source: "cached"}, nil
}

// mockUpstream 通过 channel 注入上游事件
type mockUpstream struct {
	events    chan *domain.UpstreamEvent
	fail      chan error
	closed    chan struct{}
	closeOnce sync.Once

	mu    sync.Mutex
	texts []string
	audio [][]byte
}

func newMockUpstream() *mockUpstream {
	return &mockUpstream{
		events: make(chan *domain.UpstreamEvent, 16),
		fail:   make(chan error, 1),
		closed: make(chan struct{}),
	}
}

func (m *mockUpstream) SendText(_ context.Context, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.texts = append(m.texts, text)
	return nil
}

func (m *mockUpstream) SendAudio(_ context.Context, pcm []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.audio = append(m.audio, pcm)
	return nil
}

func (m *mockUpstream) Receive(ctx context.Context) (*domain.UpstreamEvent, error) {
	select {
	case ev := <-m.events:
		return ev, nil
	case err := <-m.fail:
		return nil, err
	case <-m.closed:
		return nil, errors.New("session closed")
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (m *mockUpstream) Close() error {
	m.closeOnce.Do(func() { close(m.closed) })
	return nil
}

func (m *mockUpstream) Texts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.texts...)
}

func (m *mockUpstream) AudioChunks() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.audio)
}

// mockConnector 返回预置的上游会话
type mockConnector struct {
	ConnectFunc func(ctx context.Context, req domain.ConnectRequest) (domain.UpstreamSession, error)

	mu       sync.Mutex
	requests []domain.ConnectRequest
}

func (m *mockConnector) Connect(ctx context.Context, req domain.ConnectRequest) (domain.UpstreamSession, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()
	return m.ConnectFunc(ctx, req)
}

func (m *mockConnector) Requests() []domain.ConnectRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.ConnectRequest(nil), m.requests...)
}

// mockSummarizer 记录总结请求
type mockSummarizer struct {
	SummarizeFunc func(ctx context.Context, req domain.SummaryRequest) (domain.StructuredSummary, error)

	mu       sync.Mutex
	requests []domain.SummaryRequest
}

func (m *mockSummarizer) Summarize(ctx context.Context, req domain.SummaryRequest) (domain.StructuredSummary, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()
	if m.SummarizeFunc != nil {
		return m.SummarizeFunc(ctx, req)
	}
	return domain.StructuredSummary{"summary": "ok"}, nil
}

func (m *mockSummarizer) Requests() []domain.SummaryRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.SummaryRequest(nil), m.requests...)
}

// mockExercises 记录扫描文本
type mockExercises struct {
	enabled bool

	mu    sync.Mutex
	texts []string
}

func (m *mockExercises) Enabled() bool { return m.enabled }

func (m *mockExercises) Scan(_ context.Context, _ string, text string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.texts = append(m.texts, text)
	return true
}

func (m *mockExercises) Texts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.texts...)
}

// mockEvents 记录会话事件
type mockEvents struct {
	mu     sync.Mutex
	events []domain.SessionEvent
}

func (m *mockEvents) Publish(event domain.SessionEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
}

func (m *mockEvents) Types() []domain.SessionEventType {
	m.mu.Lock()
	defer m.mu.Unlock()
	types := make([]domain.SessionEventType, 0, len(m.events))
	for _, e := range m.events {
		types = append(types, e.Type)
	}
	return types
}
