package domain

import (
	"context"
	"time"
)

// UpstreamEvent 上游一条响应中关心的部分
type UpstreamEvent struct {
	ResumptionHandle string
	Resumable        bool
	GoAway           bool
	GoAwayTimeLeft   string
	Interrupted      bool
	Audio            [][]byte
	TurnComplete     bool
	OutputText       string
	InputText        string
}

// UpstreamSession 与实时模型的流式会话
type UpstreamSession interface {
	SendText(ctx context.Context, text string) error
	SendAudio(ctx context.Context, pcm []byte) error
	// Receive 阻塞直到下一条事件，会话结束时返回错误
	Receive(ctx context.Context) (*UpstreamEvent, error)
	Close() error
}

// CredentialSnapshot 一次连接使用的不可变凭证
type CredentialSnapshot struct {
	AccessToken string
	Expiry      time.Time
	APIKey      string
	Source      string // refreshed | reloaded | cached | api_key
}

// ConnectRequest 建立上游会话的参数
type ConnectRequest struct {
	SystemInstruction string
	Credentials       CredentialSnapshot
}

// SessionState 连接状态
type SessionState int

const (
	StateAwaitingIdentity SessionState = iota
	StatePersonalizing
	StateConnected
	StateTerminated
)

func (s SessionState) String() string {
	switch s {
	case StateAwaitingIdentity:
		return "awaiting_identity"
	case StatePersonalizing:
		return "personalizing"
	case StateConnected:
		return "connected"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}
