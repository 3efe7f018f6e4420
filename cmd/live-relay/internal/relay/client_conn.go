package relay

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/gorilla/websocket"

	"github.com/ankurMishraDev/GenX-AI/cmd/live-relay/internal/domain"
)

// ConnOptions 客户端连接参数
type ConnOptions struct {
	WriteWait       time.Duration
	PongWait        time.Duration
	PingInterval    time.Duration // 必须小于 PongWait
	MaxMessageBytes int64
	SendBuffer      int
}

func (o *ConnOptions) setDefaults() {
	if o.WriteWait == 0 {
		o.WriteWait = 10 * time.Second
	}
	if o.PongWait == 0 {
		o.PongWait = 60 * time.Second
	}
	if o.PingInterval == 0 || o.PingInterval >= o.PongWait {
		o.PingInterval = o.PongWait * 9 / 10
	}
	if o.MaxMessageBytes == 0 {
		o.MaxMessageBytes = 4 << 20
	}
	if o.SendBuffer == 0 {
		o.SendBuffer = 256
	}
}

type outboundFrame struct {
	payload     []byte
	closeCode   int
	closeReason string
}

// ClientConn 客户端 websocket，所有写操作由写协程完成
type ClientConn struct {
	conn *websocket.Conn
	opts ConnOptions
	log  *log.Helper

	out       chan outboundFrame
	closing   chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// NewClientConn 包装连接并启动写协程
func NewClientConn(conn *websocket.Conn, opts ConnOptions, logger log.Logger) *ClientConn {
	opts.setDefaults()
	c := &ClientConn{
		conn:    conn,
		opts:    opts,
		log:     log.NewHelper(log.With(logger, "module", "relay/client")),
		out:     make(chan outboundFrame, opts.SendBuffer),
		closing: make(chan struct{}),
		done:    make(chan struct{}),
	}

	conn.SetReadLimit(opts.MaxMessageBytes)
	_ = conn.SetReadDeadline(time.Now().Add(opts.PongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(opts.PongWait))
	})

	go c.writePump()
	return c
}

// Send 序列化后交给写协程
func (c *ClientConn) Send(ctx context.Context, msg domain.OutboundMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return c.enqueue(ctx, outboundFrame{payload: payload})
}

func (c *ClientConn) enqueue(ctx context.Context, f outboundFrame) error {
	select {
	case <-c.closing:
		return domain.ErrClientClosed
	case <-c.done:
		return domain.ErrClientClosed
	default:
	}
	select {
	case c.out <- f:
		return nil
	case <-c.closing:
		return domain.ErrClientClosed
	case <-c.done:
		return domain.ErrClientClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Read 读取一条客户端消息，连接关闭时返回 ErrClientClosed
func (c *ClientConn) Read() ([]byte, error) {
	for {
		mt, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
				c.log.Debugf("client read: %v", err)
			}
			return nil, errors.Join(domain.ErrClientClosed, err)
		}
		// 只处理文本帧
		if mt == websocket.TextMessage {
			_ = c.conn.SetReadDeadline(time.Now().Add(c.opts.PongWait))
			return data, nil
		}
	}
}

// ExtendReadDeadline 长时间未读取后重新计算读超时
func (c *ClientConn) ExtendReadDeadline() {
	_ = c.conn.SetReadDeadline(time.Now().Add(c.opts.PongWait))
}

// CloseWithReason 发送已排队的消息后以指定关闭码关闭
func (c *ClientConn) CloseWithReason(code int, reason string) {
	ctx, cancel := context.WithTimeout(context.Background(), c.opts.WriteWait)
	defer cancel()
	if err := c.enqueue(ctx, outboundFrame{closeCode: code, closeReason: reason}); err != nil {
		c.Close()
		return
	}
	c.wait()
}

// Close 正常关闭，写协程会先尽量写出已排队的消息
func (c *ClientConn) Close() {
	c.closeOnce.Do(func() {
		close(c.closing)
	})
	c.wait()
}

// Done 写协程退出后关闭
func (c *ClientConn) Done() <-chan struct{} {
	return c.done
}

func (c *ClientConn) wait() {
	select {
	case <-c.done:
	case <-time.After(2 * c.opts.WriteWait):
		_ = c.conn.Close()
	}
}

func (c *ClientConn) writePump() {
	ticker := time.NewTicker(c.opts.PingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
		close(c.done)
	}()

	for {
		select {
		case f := <-c.out:
			if !c.write(f) {
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.opts.WriteWait)); err != nil {
				return
			}
		case <-c.closing:
			c.flush()
			c.writeClose(websocket.CloseNormalClosure, "")
			return
		}
	}
}

// write 返回 false 表示连接已不可用或已关闭
func (c *ClientConn) write(f outboundFrame) bool {
	if f.closeCode != 0 {
		c.writeClose(f.closeCode, f.closeReason)
		return false
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(c.opts.WriteWait))
	if err := c.conn.WriteMessage(websocket.TextMessage, f.payload); err != nil {
		c.log.Debugf("client write: %v", err)
		return false
	}
	return true
}

func (c *ClientConn) flush() {
	for {
		select {
		case f := <-c.out:
			if !c.write(f) {
				return
			}
		default:
			return
		}
	}
}

func (c *ClientConn) writeClose(code int, reason string) {
	msg := websocket.FormatCloseMessage(code, reason)
	_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(c.opts.WriteWait))
}
