package domain

import "encoding/json"

// MessageType 客户端信封类型
type MessageType string

const (
	// 客户端 -> 服务端
	MessageTypeUserID MessageType = "user_id"
	MessageTypeAudio  MessageType = "audio"
	MessageTypeText   MessageType = "text"
	MessageTypeEnd    MessageType = "end"

	// 服务端 -> 客户端
	MessageTypeReady        MessageType = "ready"
	MessageTypeStatus       MessageType = "status"
	MessageTypeSessionID    MessageType = "session_id"
	MessageTypeInterrupted  MessageType = "interrupted"
	MessageTypeTurnComplete MessageType = "turn_complete"
	MessageTypeSummarySaved MessageType = "summary_saved"
	MessageTypeError        MessageType = "error"
)

// Envelope 客户端入站消息
type Envelope struct {
	Type MessageType     `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// StringData 把 data 解析为字符串，非字符串时返回原始 JSON 文本
func (e Envelope) StringData() string {
	if len(e.Data) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(e.Data, &s); err == nil {
		return s
	}
	return string(e.Data)
}

// OutboundMessage 服务端出站消息
type OutboundMessage struct {
	Type MessageType `json:"type"`
	Data any         `json:"data,omitempty"`
}

// NewOutbound 创建出站消息
func NewOutbound(t MessageType, data any) OutboundMessage {
	return OutboundMessage{Type: t, Data: data}
}

// 状态与提示文案
const (
	StatusPreparing  = "Preparing your personalized AI companion..."
	StatusConnecting = "Connecting to AI service..."
	StatusReady      = "AI companion ready! You can start talking now."

	NoticeInterrupted = "Response interrupted by user input"
	NoticeAuthFailed  = "Authentication failed: Unable to connect to AI service. Please try again."
	NoticeConnectFail = "Failed to connect to AI service: "

	SummarySavedOK     = "ok"
	SummarySavedPrefix = "error: "
)

// ClosePolicyViolation websocket 1008
const ClosePolicyViolation = 1008

// 关闭原因
const (
	CloseReasonIdentityTimeout  = "user_id timeout"
	CloseReasonIdentityExpected = "user_id message expected"
	CloseReasonIdentityInvalid  = "invalid user_id message"
	CloseReasonIdentityMismatch = "user_id does not match token"
)
