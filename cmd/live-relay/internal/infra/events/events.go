package events

import (
	"context"
	"errors"

	"github.com/ankurMishraDev/GenX-AI/cmd/live-relay/internal/domain"
)

// Sink 会话事件投递目标
type Sink interface {
	Publish(ctx context.Context, event domain.SessionEvent) error
	Close() error
}

// NoopSink 未配置任何投递目标时使用
type NoopSink struct{}

func (NoopSink) Publish(context.Context, domain.SessionEvent) error { return nil }
func (NoopSink) Close() error                                        { return nil }

// Fanout 依次投递到多个目标
type Fanout []Sink

// Publish 投递到全部目标，合并错误
func (f Fanout) Publish(ctx context.Context, event domain.SessionEvent) error {
	var errs []error
	for _, s := range f {
		if err := s.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close 关闭全部目标
func (f Fanout) Close() error {
	var errs []error
	for _, s := range f {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
