package infra

import (
	"context"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"

	"github.com/ankurMishraDev/GenX-AI/cmd/live-relay/internal/biz"
	"github.com/ankurMishraDev/GenX-AI/cmd/live-relay/internal/domain"
	"github.com/ankurMishraDev/GenX-AI/cmd/live-relay/internal/infra/events"
	"github.com/ankurMishraDev/GenX-AI/cmd/live-relay/internal/metrics"
)

// ProviderSet is infra providers.
var ProviderSet = wire.NewSet(
	NewCredentialProvider,
	NewClientFactory,
	NewLiveConnector,
	NewTextGenerator,
	NewEventPublisher,
	wire.Bind(new(biz.TextGenerator), new(*TextGenerator)),
)

// EventOptions 会话事件投递配置，Kafka 和 PostHog 都未配置时事件被丢弃
type EventOptions struct {
	Kafka           events.KafkaConfig
	PostHogAPIKey   string
	PostHogEndpoint string
	BufferSize      int
}

// NewEventPublisher 按配置组合事件出口
func NewEventPublisher(opts EventOptions, logger log.Logger) (*events.Publisher, func(), error) {
	helper := log.NewHelper(log.With(logger, "module", "infra/events"))

	var sinks events.Fanout
	if len(opts.Kafka.Brokers) > 0 {
		sink, err := events.NewKafkaSink(opts.Kafka)
		if err != nil {
			return nil, nil, err
		}
		sinks = append(sinks, sink)
		helper.Infof("session events -> kafka topic %s", opts.Kafka.Topic)
	}
	if opts.PostHogAPIKey != "" {
		sink, err := events.NewPostHogSink(opts.PostHogAPIKey, opts.PostHogEndpoint)
		if err != nil {
			_ = sinks.Close()
			return nil, nil, err
		}
		sinks = append(sinks, sink)
		helper.Info("session events -> posthog")
	}

	var sink events.Sink = events.NoopSink{}
	if len(sinks) > 0 {
		sink = sinks
	}

	publisher := events.NewPublisher(sink, opts.BufferSize, logger)
	publisher.OnDrop(func(domain.SessionEvent) {
		metrics.EventsDropped.Inc()
	})

	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := publisher.Close(ctx); err != nil {
			helper.Errorf("close event publisher: %v", err)
		}
	}
	return publisher, cleanup, nil
}
