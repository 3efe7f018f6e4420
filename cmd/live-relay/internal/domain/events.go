package domain

import "time"

// SessionEventType 会话生命周期事件
type SessionEventType string

const (
	EventSessionStarted SessionEventType = "session.started"
	EventSessionEnded   SessionEventType = "session.ended"
	EventSummarySaved   SessionEventType = "summary.saved"
	EventSummaryFailed  SessionEventType = "summary.failed"
)

// SessionEvent 会话事件
type SessionEvent struct {
	Type       SessionEventType  `json:"type"`
	UserID     string            `json:"uid"`
	ClientID   string            `json:"client_id"`
	OccurredAt time.Time         `json:"occurred_at"`
	Attributes map[string]string `json:"attributes,omitempty"`
}
