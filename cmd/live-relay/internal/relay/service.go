package relay

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
	"github.com/google/wire"
	"github.com/gorilla/websocket"

	"github.com/ankurMishraDev/GenX-AI/cmd/live-relay/internal/domain"
	"github.com/ankurMishraDev/GenX-AI/cmd/live-relay/internal/metrics"
	"github.com/ankurMishraDev/GenX-AI/cmd/live-relay/internal/registry"
)

// ProviderSet is relay providers.
var ProviderSet = wire.NewSet(registry.New, NewService)

// Personalizer 生成会话系统提示，不会阻塞超过自身超时
type Personalizer interface {
	Build(ctx context.Context, uid string) string
}

// CredentialSource 凭证快照来源
type CredentialSource interface {
	Snapshot(ctx context.Context) (domain.CredentialSnapshot, error)
}

// Connector 建立上游会话
type Connector interface {
	Connect(ctx context.Context, req domain.ConnectRequest) (domain.UpstreamSession, error)
}

// SummaryRunner 总结并保存对话
type SummaryRunner interface {
	Summarize(ctx context.Context, req domain.SummaryRequest) (domain.StructuredSummary, error)
}

// ExerciseScanner 推荐动作旁路
type ExerciseScanner interface {
	Enabled() bool
	Scan(ctx context.Context, uid, text string) bool
}

// EventPublisher 会话事件，非阻塞
type EventPublisher interface {
	Publish(event domain.SessionEvent)
}

type discardEvents struct{}

func (discardEvents) Publish(domain.SessionEvent) {}

// Options 中继配置
type Options struct {
	IdentityTimeout time.Duration
	AudioQueueSize  int
	CleanupTimeout  time.Duration
	Conn            ConnOptions
}

// Service 为每个客户端连接运行中继会话
type Service struct {
	registry     *registry.Registry
	personalizer Personalizer
	creds        CredentialSource
	connector    Connector
	summarizer   SummaryRunner
	exercises    ExerciseScanner
	events       EventPublisher
	opts         Options

	logger log.Logger
	log    *log.Helper
	newID  func() string
	now    func() time.Time
}

// NewService 创建中继服务
func NewService(
	reg *registry.Registry,
	personalizer Personalizer,
	creds CredentialSource,
	connector Connector,
	summarizer SummaryRunner,
	exercises ExerciseScanner,
	events EventPublisher,
	opts Options,
	logger log.Logger,
) *Service {
	if opts.IdentityTimeout == 0 {
		opts.IdentityTimeout = 30 * time.Second
	}
	if opts.CleanupTimeout == 0 {
		opts.CleanupTimeout = 60 * time.Second
	}
	if events == nil {
		events = discardEvents{}
	}
	return &Service{
		registry:     reg,
		personalizer: personalizer,
		creds:        creds,
		connector:    connector,
		summarizer:   summarizer,
		exercises:    exercises,
		events:       events,
		opts:         opts,
		logger:       logger,
		log:          log.NewHelper(log.With(logger, "module", "relay")),
		newID:        func() string { return uuid.New().String() },
		now:          time.Now,
	}
}

// Registry 连接注册表
func (s *Service) Registry() *registry.Registry {
	return s.registry
}

// Serve 运行一个连接直到结束，expectedUID 非空时身份消息必须与之一致
func (s *Service) Serve(ctx context.Context, ws *websocket.Conn, expectedUID string) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	client := NewClientConn(ws, s.opts.Conn, s.logger)
	conn := registry.NewConnection(s.newID(), client, cancel, s.now())
	release := s.registry.Register(conn)
	defer release()

	metrics.SessionsActive.Inc()
	defer metrics.SessionsActive.Dec()

	sess := newSession(s, conn, client)
	outcome := sess.run(ctx, expectedUID)
	metrics.SessionsTotal.WithLabelValues(outcome).Inc()
}

// awaitIdentity 等待第一条消息，返回用户ID或关闭原因
// 客户端断开或 ctx 取消时两者都为空
func (s *Service) awaitIdentity(ctx context.Context, client *ClientConn) (uid string, reason string) {
	type result struct {
		data []byte
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		data, err := client.Read()
		ch <- result{data: data, err: err}
	}()

	timer := time.NewTimer(s.opts.IdentityTimeout)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return "", ""
	case <-timer.C:
		return "", domain.CloseReasonIdentityTimeout
	case r := <-ch:
		if r.err != nil {
			return "", ""
		}
		var env domain.Envelope
		if err := json.Unmarshal(r.data, &env); err != nil {
			return "", domain.CloseReasonIdentityInvalid
		}
		if env.Type != domain.MessageTypeUserID {
			return "", domain.CloseReasonIdentityExpected
		}
		uid := env.StringData()
		if uid == "" || !isJSONString(env.Data) {
			return "", domain.CloseReasonIdentityInvalid
		}
		return uid, ""
	}
}

func isJSONString(raw json.RawMessage) bool {
	var s string
	return json.Unmarshal(raw, &s) == nil
}

// outcomeOf 会话结束原因
func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "completed"
	case errors.Is(err, domain.ErrClientClosed):
		return "client_closed"
	case errors.Is(err, context.Canceled):
		return "cancelled"
	default:
		return "upstream_error"
	}
}
