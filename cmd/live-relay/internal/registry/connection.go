package registry

import (
	"context"
	"sync"
	"time"

	"github.com/ankurMishraDev/GenX-AI/cmd/live-relay/internal/domain"
)

// Socket 客户端连接的发送端
type Socket interface {
	Send(ctx context.Context, msg domain.OutboundMessage) error
}

// Connection 单个客户端连接的状态
type Connection struct {
	ID        string
	StartedAt time.Time

	socket Socket
	cancel context.CancelFunc

	mu            sync.Mutex
	userID        string
	sessionHandle string
	state         domain.SessionState
	transcript    domain.Transcript

	// summaryMu 保证同一时刻只有一次总结
	summaryMu sync.Mutex
}

// NewConnection 创建连接状态
func NewConnection(id string, socket Socket, cancel context.CancelFunc, startedAt time.Time) *Connection {
	if cancel == nil {
		cancel = func() {}
	}
	return &Connection{
		ID:        id,
		StartedAt: startedAt,
		socket:    socket,
		cancel:    cancel,
		state:     domain.StateAwaitingIdentity,
	}
}

// Send 向客户端发送消息
func (c *Connection) Send(ctx context.Context, msg domain.OutboundMessage) error {
	return c.socket.Send(ctx, msg)
}

// Cancel 终止连接上的所有工作
func (c *Connection) Cancel() {
	c.cancel()
}

// SetUserID 设置用户ID，只允许一次
func (c *Connection) SetUserID(uid string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.userID != "" {
		return domain.ErrUserIDAlreadySet
	}
	c.userID = uid
	return nil
}

// UserID 用户ID
func (c *Connection) UserID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.userID
}

// SetSessionHandle 更新会话恢复句柄
func (c *Connection) SetSessionHandle(handle string) {
	c.mu.Lock()
	c.sessionHandle = handle
	c.mu.Unlock()
}

// SessionHandle 当前会话恢复句柄
func (c *Connection) SessionHandle() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionHandle
}

// SetState 切换状态
func (c *Connection) SetState(s domain.SessionState) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// State 当前状态
func (c *Connection) State() domain.SessionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// AppendTurn 追加一轮对话
func (c *Connection) AppendTurn(role domain.Role, text string, at time.Time) {
	c.mu.Lock()
	c.transcript = append(c.transcript, domain.Turn{Role: role, Text: text, Timestamp: at})
	c.mu.Unlock()
}

// Transcript 返回对话记录副本
func (c *Connection) Transcript() domain.Transcript {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append(domain.Transcript(nil), c.transcript...)
}

// DrainTranscript 取出并清空对话记录
func (c *Connection) DrainTranscript() domain.Transcript {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.transcript
	c.transcript = nil
	return t
}

// LockSummary 获取总结锁，返回解锁函数
func (c *Connection) LockSummary() func() {
	c.summaryMu.Lock()
	return c.summaryMu.Unlock
}

// Info 连接概要
type Info struct {
	ID        string    `json:"id"`
	UserID    string    `json:"uid"`
	State     string    `json:"state"`
	StartedAt time.Time `json:"started_at"`
	Turns     int       `json:"turns"`
}

// Info 返回连接概要
func (c *Connection) Info() Info {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Info{
		ID:        c.ID,
		UserID:    c.userID,
		State:     c.state.String(),
		StartedAt: c.StartedAt,
		Turns:     len(c.transcript),
	}
}
