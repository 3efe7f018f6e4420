package events

import (
	"context"
	"sync"
	"time"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/ankurMishraDev/GenX-AI/cmd/live-relay/internal/domain"
)

// Publisher 异步投递会话事件，队列满时丢弃
type Publisher struct {
	sink    Sink
	queue   chan domain.SessionEvent
	timeout time.Duration
	log     *log.Helper

	onDrop func(domain.SessionEvent)

	closeOnce sync.Once
	done      chan struct{}
	stopped   chan struct{}
}

// NewPublisher 创建并启动投递协程
func NewPublisher(sink Sink, bufferSize int, logger log.Logger) *Publisher {
	if bufferSize <= 0 {
		bufferSize = 256
	}
	p := &Publisher{
		sink:    sink,
		queue:   make(chan domain.SessionEvent, bufferSize),
		timeout: 5 * time.Second,
		log:     log.NewHelper(log.With(logger, "module", "infra/events")),
		onDrop:  func(domain.SessionEvent) {},
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go p.run()
	return p
}

// OnDrop 注册丢弃回调，需在 Publish 之前调用
func (p *Publisher) OnDrop(fn func(domain.SessionEvent)) {
	p.onDrop = fn
}

// Publish 非阻塞入队
func (p *Publisher) Publish(event domain.SessionEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	select {
	case <-p.done:
		return
	default:
	}
	select {
	case p.queue <- event:
	default:
		p.log.Warnf("event queue full, dropping %s for %s", event.Type, event.UserID)
		p.onDrop(event)
	}
}

func (p *Publisher) run() {
	defer close(p.stopped)
	for {
		select {
		case event := <-p.queue:
			p.deliver(event)
		case <-p.done:
			p.drain()
			return
		}
	}
}

func (p *Publisher) drain() {
	for {
		select {
		case event := <-p.queue:
			p.deliver(event)
		default:
			return
		}
	}
}

func (p *Publisher) deliver(event domain.SessionEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	if err := p.sink.Publish(ctx, event); err != nil {
		p.log.Warnf("publish %s for %s: %v", event.Type, event.UserID, err)
	}
}

// Close 停止接收，投递剩余事件后关闭下游
func (p *Publisher) Close(ctx context.Context) error {
	p.closeOnce.Do(func() {
		close(p.done)
	})
	select {
	case <-p.stopped:
	case <-ctx.Done():
		p.log.Warnf("event publisher closed with %d pending events", len(p.queue))
	}
	return p.sink.Close()
}
