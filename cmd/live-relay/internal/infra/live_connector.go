package infra

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"google.golang.org/genai"

	"github.com/ankurMishraDev/GenX-AI/cmd/live-relay/internal/domain"
)

// LiveOptions 实时会话配置
type LiveOptions struct {
	Model          string
	Voice          string
	AudioMIMEType  string
	ConnectTimeout time.Duration
}

// LiveConnector 建立实时模型会话
type LiveConnector struct {
	clients *ClientFactory
	opts    LiveOptions
	log     *log.Helper
}

// NewLiveConnector 创建连接器
func NewLiveConnector(clients *ClientFactory, opts LiveOptions, logger log.Logger) *LiveConnector {
	if opts.Voice == "" {
		opts.Voice = "Puck"
	}
	if opts.AudioMIMEType == "" {
		opts.AudioMIMEType = "audio/pcm;rate=16000"
	}
	if opts.ConnectTimeout == 0 {
		opts.ConnectTimeout = 30 * time.Second
	}
	return &LiveConnector{
		clients: clients,
		opts:    opts,
		log:     log.NewHelper(log.With(logger, "module", "infra/live")),
	}
}

// Model 实时模型名
func (c *LiveConnector) Model() string {
	return c.opts.Model
}

// connectConfig 仅音频输出，开启双向转写和会话恢复，不带工具
func (c *LiveConnector) connectConfig(systemInstruction string) *genai.LiveConnectConfig {
	return &genai.LiveConnectConfig{
		ResponseModalities: []genai.Modality{genai.ModalityAudio},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: c.opts.Voice},
			},
		},
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: systemInstruction}},
		},
		SessionResumption:        &genai.SessionResumptionConfig{},
		InputAudioTranscription:  &genai.AudioTranscriptionConfig{},
		OutputAudioTranscription: &genai.AudioTranscriptionConfig{},
	}
}

// Connect 在连接超时内建立会话
func (c *LiveConnector) Connect(ctx context.Context, req domain.ConnectRequest) (domain.UpstreamSession, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.ConnectTimeout)
	defer cancel()

	client, err := c.clients.Client(ctx, req.Credentials)
	if err != nil {
		return nil, err
	}
	session, err := client.Live.Connect(ctx, c.opts.Model, c.connectConfig(req.SystemInstruction))
	if err != nil {
		return nil, fmt.Errorf("live connect %s: %w", c.opts.Model, err)
	}
	c.log.WithContext(ctx).Infof("live session opened (model=%s, credentials=%s)", c.opts.Model, req.Credentials.Source)
	return &liveSession{session: session, mimeType: c.opts.AudioMIMEType}, nil
}

// liveSession 包装 genai.Session，发送需串行
type liveSession struct {
	session  *genai.Session
	mimeType string

	sendMu    sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

func (s *liveSession) SendText(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	return s.session.SendRealtimeInput(genai.LiveRealtimeInput{Text: text})
}

func (s *liveSession) SendAudio(ctx context.Context, pcm []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	return s.session.SendRealtimeInput(genai.LiveRealtimeInput{
		Audio: &genai.Blob{Data: pcm, MIMEType: s.mimeType},
	})
}

// Receive 阻塞读取，取消需关闭会话
func (s *liveSession) Receive(ctx context.Context) (*domain.UpstreamEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	msg, err := s.session.Receive()
	if err != nil {
		return nil, err
	}
	return toUpstreamEvent(msg), nil
}

func (s *liveSession) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.session.Close()
	})
	return s.closeErr
}

// toUpstreamEvent 提取中继关心的字段
func toUpstreamEvent(msg *genai.LiveServerMessage) *domain.UpstreamEvent {
	ev := &domain.UpstreamEvent{}
	if msg == nil {
		return ev
	}

	if u := msg.SessionResumptionUpdate; u != nil {
		ev.ResumptionHandle = u.NewHandle
		ev.Resumable = u.Resumable
	}
	if g := msg.GoAway; g != nil {
		ev.GoAway = true
		ev.GoAwayTimeLeft = fmt.Sprint(g.TimeLeft)
	}

	sc := msg.ServerContent
	if sc == nil {
		return ev
	}
	ev.Interrupted = sc.Interrupted
	ev.TurnComplete = sc.TurnComplete
	if sc.ModelTurn != nil {
		for _, part := range sc.ModelTurn.Parts {
			if part != nil && part.InlineData != nil && len(part.InlineData.Data) > 0 {
				ev.Audio = append(ev.Audio, part.InlineData.Data)
			}
		}
	}
	if sc.OutputTranscription != nil {
		ev.OutputText = sc.OutputTranscription.Text
	}
	if sc.InputTranscription != nil {
		ev.InputText = sc.InputTranscription.Text
	}
	return ev
}
