package relay

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"golang.org/x/sync/errgroup"

	"github.com/ankurMishraDev/GenX-AI/cmd/live-relay/internal/domain"
	"github.com/ankurMishraDev/GenX-AI/cmd/live-relay/internal/metrics"
	"github.com/ankurMishraDev/GenX-AI/cmd/live-relay/internal/registry"
)

const (
	triggerEnd        = "end"
	triggerDisconnect = "disconnect"
)

// session 单个连接的状态机
type session struct {
	svc    *Service
	conn   *registry.Connection
	client *ClientConn
	audio  *AudioQueue
	log    *log.Helper

	// bg 跟踪 end 触发的总结和推荐动作保存
	bg sync.WaitGroup
}

func newSession(svc *Service, conn *registry.Connection, client *ClientConn) *session {
	return &session{
		svc:    svc,
		conn:   conn,
		client: client,
		audio:  NewAudioQueue(svc.opts.AudioQueueSize),
		log:    log.NewHelper(log.With(svc.logger, "module", "relay/session", "client_id", conn.ID)),
	}
}

func (s *session) send(ctx context.Context, t domain.MessageType, data any) {
	if err := s.conn.Send(ctx, domain.NewOutbound(t, data)); err != nil && !errors.Is(err, domain.ErrClientClosed) {
		s.log.Warnf("send %s: %v", t, err)
	}
}

// notifyUpstreamFailure 上游中途失败时通知客户端，其他泵已终止时不发送
func (s *session) notifyUpstreamFailure(ctx context.Context, err error) {
	if ctx.Err() != nil {
		return
	}
	metrics.UpstreamConnectErrors.WithLabelValues("stream").Inc()
	s.send(context.WithoutCancel(ctx), domain.MessageTypeError, domain.NoticeConnectFail+err.Error())
}

// run 依次经过等待身份、个性化、连接三个阶段，返回结束原因
func (s *session) run(ctx context.Context, expectedUID string) string {
	defer s.client.Close()
	defer s.conn.SetState(domain.StateTerminated)

	s.send(ctx, domain.MessageTypeReady, nil)

	uid, reason := s.svc.awaitIdentity(ctx, s.client)
	if uid == "" {
		if reason == "" {
			return "client_closed"
		}
		s.log.Warnf("closing connection: %s", reason)
		s.client.CloseWithReason(domain.ClosePolicyViolation, reason)
		return "identity_rejected"
	}
	if expectedUID != "" && uid != expectedUID {
		s.log.Warnf("user_id %s does not match token subject", uid)
		s.client.CloseWithReason(domain.ClosePolicyViolation, domain.CloseReasonIdentityMismatch)
		return "identity_rejected"
	}
	if err := s.conn.SetUserID(uid); err != nil {
		s.log.Errorf("set user id: %v", err)
		return "identity_rejected"
	}
	s.log.Infof("client identified as %s", uid)

	s.svc.events.Publish(domain.SessionEvent{Type: domain.EventSessionStarted, UserID: uid, ClientID: s.conn.ID})

	outcome := "completed"
	defer func() {
		s.cleanup(ctx, outcome)
	}()

	// 个性化
	s.conn.SetState(domain.StatePersonalizing)
	s.send(ctx, domain.MessageTypeStatus, domain.StatusPreparing)
	start := time.Now()
	instruction := s.svc.personalizer.Build(ctx, uid)
	metrics.PersonalizationDuration.Observe(time.Since(start).Seconds())
	s.send(ctx, domain.MessageTypeStatus, domain.StatusConnecting)

	// 连接前刷新凭证
	snap, err := s.svc.creds.Snapshot(ctx)
	if err != nil {
		s.log.Errorf("credentials: %v", err)
		metrics.UpstreamConnectErrors.WithLabelValues("credentials").Inc()
		s.send(ctx, domain.MessageTypeError, domain.NoticeAuthFailed)
		outcome = "auth_failed"
		return outcome
	}

	upstream, err := s.svc.connector.Connect(ctx, domain.ConnectRequest{
		SystemInstruction: instruction,
		Credentials:       snap,
	})
	if err != nil {
		s.log.Errorf("upstream connect: %v", err)
		metrics.UpstreamConnectErrors.WithLabelValues("connect").Inc()
		s.send(ctx, domain.MessageTypeError, domain.NoticeConnectFail+err.Error())
		outcome = "connect_failed"
		return outcome
	}
	defer upstream.Close()

	s.conn.SetState(domain.StateConnected)
	// 个性化和连接期间没有读取，读超时从此刻重新计算
	s.client.ExtendReadDeadline()
	s.send(ctx, domain.MessageTypeStatus, domain.StatusReady)

	err = s.pump(ctx, upstream)
	outcome = outcomeOf(err)
	switch outcome {
	case "client_closed", "cancelled":
		s.log.Infof("session ended: %s", outcome)
	default:
		s.log.Errorf("session ended: %v", err)
	}
	return outcome
}

// pump 运行三个泵，任一失败即全部终止
func (s *session) pump(ctx context.Context, upstream domain.UpstreamSession) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.inbound(gctx, upstream) })
	g.Go(func() error { return s.forwardAudio(gctx, upstream) })
	g.Go(func() error { return s.receive(gctx, upstream) })
	g.Go(func() error {
		// 解除阻塞中的读取
		<-gctx.Done()
		_ = upstream.Close()
		s.client.Close()
		return nil
	})
	return g.Wait()
}

// inbound 按 type 分发客户端消息
func (s *session) inbound(ctx context.Context, upstream domain.UpstreamSession) error {
	for {
		data, err := s.client.Read()
		if err != nil {
			return err
		}

		var env domain.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			s.log.Warnf("invalid JSON message received: %v", err)
			continue
		}

		switch env.Type {
		case domain.MessageTypeAudio:
			metrics.ClientMessages.WithLabelValues(string(env.Type)).Inc()
			pcm, err := base64.StdEncoding.DecodeString(env.StringData())
			if err != nil {
				s.log.Warnf("invalid audio payload: %v", err)
				continue
			}
			if s.audio.Push(pcm) {
				metrics.AudioDropped.Inc()
			}
		case domain.MessageTypeText:
			metrics.ClientMessages.WithLabelValues(string(env.Type)).Inc()
			text := env.StringData()
			if text == "" {
				continue
			}
			s.conn.AppendTurn(domain.RoleUser, text, s.svc.now().UTC())
			if err := upstream.SendText(ctx, text); err != nil {
				s.notifyUpstreamFailure(ctx, err)
				return fmt.Errorf("send text upstream: %w", err)
			}
		case domain.MessageTypeEnd:
			metrics.ClientMessages.WithLabelValues(string(env.Type)).Inc()
			s.bg.Add(1)
			go func() {
				defer s.bg.Done()
				s.summarizeOnEnd(ctx)
			}()
		case domain.MessageTypeUserID:
			metrics.ClientMessages.WithLabelValues(string(env.Type)).Inc()
			s.log.Warnf("received subsequent user_id message, ignoring")
		default:
			metrics.ClientMessages.WithLabelValues("unknown").Inc()
			s.log.Warnf("unknown message type %q", env.Type)
		}
	}
}

// forwardAudio 按客户端发送顺序转发音频
func (s *session) forwardAudio(ctx context.Context, upstream domain.UpstreamSession) error {
	for {
		chunk, err := s.audio.Pop(ctx)
		if err != nil {
			return err
		}
		if err := upstream.SendAudio(ctx, chunk); err != nil {
			s.notifyUpstreamFailure(ctx, err)
			return fmt.Errorf("send audio upstream: %w", err)
		}
	}
}

// receive 分发上游事件，上游失败时先通知客户端再结束
func (s *session) receive(ctx context.Context, upstream domain.UpstreamSession) error {
	for {
		ev, err := upstream.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.notifyUpstreamFailure(ctx, err)
			return fmt.Errorf("%w: %w", domain.ErrUpstreamClosed, err)
		}
		s.dispatch(ctx, ev)
	}
}

func (s *session) dispatch(ctx context.Context, ev *domain.UpstreamEvent) {
	if ev.Resumable && ev.ResumptionHandle != "" {
		metrics.UpstreamEvents.WithLabelValues("session_resumption").Inc()
		s.conn.SetSessionHandle(ev.ResumptionHandle)
		s.send(ctx, domain.MessageTypeSessionID, ev.ResumptionHandle)
	}
	if ev.GoAway {
		metrics.UpstreamEvents.WithLabelValues("go_away").Inc()
		s.log.Infof("upstream session will terminate in %s", ev.GoAwayTimeLeft)
	}
	if ev.Interrupted {
		metrics.UpstreamEvents.WithLabelValues("interrupted").Inc()
		s.send(ctx, domain.MessageTypeInterrupted, domain.NoticeInterrupted)
	}
	for _, chunk := range ev.Audio {
		metrics.UpstreamEvents.WithLabelValues("audio").Inc()
		s.send(ctx, domain.MessageTypeAudio, base64.StdEncoding.EncodeToString(chunk))
	}
	if ev.TurnComplete {
		metrics.UpstreamEvents.WithLabelValues("turn_complete").Inc()
		s.send(ctx, domain.MessageTypeTurnComplete, nil)
	}
	if ev.OutputText != "" {
		metrics.UpstreamEvents.WithLabelValues("output_transcription").Inc()
		s.send(ctx, domain.MessageTypeText, ev.OutputText)
		s.conn.AppendTurn(domain.RoleAssistant, ev.OutputText, s.svc.now().UTC())
		s.scanExercises(ctx, ev.OutputText)
	}
	if ev.InputText != "" {
		metrics.UpstreamEvents.WithLabelValues("input_transcription").Inc()
		s.conn.AppendTurn(domain.RoleUser, ev.InputText, s.svc.now().UTC())
	}
}

func (s *session) scanExercises(ctx context.Context, text string) {
	if s.svc.exercises == nil || !s.svc.exercises.Enabled() {
		return
	}
	uid := s.conn.UserID()
	s.bg.Add(1)
	go func() {
		defer s.bg.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.svc.opts.CleanupTimeout)
		defer cancel()
		if s.svc.exercises.Scan(ctx, uid, text) {
			s.log.Infof("saved suggested exercises for %s", uid)
		}
	}()
}

// summarizeOnEnd 处理显式 end，结果以 summary_saved 回报
func (s *session) summarizeOnEnd(ctx context.Context) {
	_, err := s.summarize(ctx, triggerEnd)
	result := domain.SummarySavedOK
	if err != nil && !errors.Is(err, domain.ErrEmptyTranscript) {
		result = domain.SummarySavedPrefix + err.Error()
	}
	s.send(ctx, domain.MessageTypeSummarySaved, result)
}

// summarize 取出对话记录后总结，同一连接上串行执行
// 对话记录被取出后再次触发时为空，不会重复写入
func (s *session) summarize(ctx context.Context, trigger string) (domain.StructuredSummary, error) {
	unlock := s.conn.LockSummary()
	defer unlock()

	transcript := s.conn.DrainTranscript()
	if len(transcript) == 0 {
		metrics.Summaries.WithLabelValues(trigger, "empty").Inc()
		return nil, domain.ErrEmptyTranscript
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.svc.opts.CleanupTimeout)
	defer cancel()

	uid := s.conn.UserID()
	summary, err := s.svc.summarizer.Summarize(ctx, domain.SummaryRequest{
		UserID:     uid,
		ClientID:   s.conn.ID,
		SessionID:  s.conn.SessionHandle(),
		Transcript: transcript,
		StartedAt:  s.conn.StartedAt,
	})

	event := domain.SessionEvent{
		UserID:     uid,
		ClientID:   s.conn.ID,
		Attributes: map[string]string{"trigger": trigger, "turns": strconv.Itoa(len(transcript))},
	}
	if err != nil {
		s.log.Errorf("summarization (%s) failed: %v", trigger, err)
		metrics.Summaries.WithLabelValues(trigger, "error").Inc()
		event.Type = domain.EventSummaryFailed
		event.Attributes["error"] = err.Error()
	} else {
		metrics.Summaries.WithLabelValues(trigger, "saved").Inc()
		event.Type = domain.EventSummarySaved
	}
	s.svc.events.Publish(event)
	return summary, err
}

// cleanup 等待后台任务后做一次总结
func (s *session) cleanup(ctx context.Context, outcome string) {
	s.conn.SetState(domain.StateTerminated)
	s.bg.Wait()

	if _, err := s.summarize(ctx, triggerDisconnect); err != nil && !errors.Is(err, domain.ErrEmptyTranscript) {
		s.log.Warnf("cleanup summary: %v", err)
	}

	duration := s.svc.now().Sub(s.conn.StartedAt)
	metrics.SessionDuration.Observe(duration.Seconds())
	s.svc.events.Publish(domain.SessionEvent{
		Type:     domain.EventSessionEnded,
		UserID:   s.conn.UserID(),
		ClientID: s.conn.ID,
		Attributes: map[string]string{
			"outcome":          outcome,
			"duration_seconds": strconv.FormatFloat(duration.Seconds(), 'f', 1, 64),
		},
	})
}
