package events

import (
	"context"
	"fmt"

	"github.com/posthog/posthog-go"

	"github.com/ankurMishraDev/GenX-AI/cmd/live-relay/internal/domain"
)

// posthogClient posthog.Client 中用到的部分
type posthogClient interface {
	Enqueue(posthog.Message) error
	Close() error
}

// PostHogSink 将会话事件作为产品分析事件上报
type PostHogSink struct {
	client posthogClient
}

// NewPostHogSink 创建 PostHog 客户端
func NewPostHogSink(apiKey, endpoint string) (*PostHogSink, error) {
	if endpoint == "" {
		endpoint = "https://app.posthog.com"
	}
	client, err := posthog.NewWithConfig(apiKey, posthog.Config{Endpoint: endpoint})
	if err != nil {
		return nil, fmt.Errorf("failed to create PostHog client: %w", err)
	}
	return &PostHogSink{client: client}, nil
}

// Publish 入队，由 PostHog 客户端批量发送
func (s *PostHogSink) Publish(_ context.Context, event domain.SessionEvent) error {
	props := posthog.NewProperties().Set("client_id", event.ClientID)
	for k, v := range event.Attributes {
		props.Set(k, v)
	}
	return s.client.Enqueue(posthog.Capture{
		DistinctId: event.UserID,
		Event:      string(event.Type),
		Properties: props,
		Timestamp:  event.OccurredAt,
	})
}

// Close 刷新并关闭
func (s *PostHogSink) Close() error {
	return s.client.Close()
}
