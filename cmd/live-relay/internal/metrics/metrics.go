package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SessionsTotal 会话总数，按结束原因
	SessionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "live_relay_sessions_total",
		Help: "Total number of relay sessions by outcome",
	}, []string{"outcome"})

	// SessionsActive 当前活跃会话数
	SessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "live_relay_sessions_active",
		Help: "Number of live relay sessions",
	})

	// SessionDuration 会话时长
	SessionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "live_relay_session_duration_seconds",
		Help:    "Relay session duration in seconds",
		Buckets: []float64{5, 30, 60, 120, 300, 600, 1200, 1800, 3600},
	})

	// ClientMessages 客户端消息数
	ClientMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "live_relay_client_messages_total",
		Help: "Total number of client messages by type",
	}, []string{"type"})

	// UpstreamEvents 上游事件数
	UpstreamEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "live_relay_upstream_events_total",
		Help: "Total number of upstream events by kind",
	}, []string{"kind"})

	// AudioDropped 音频队列溢出丢弃的块数
	AudioDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "live_relay_audio_chunks_dropped_total",
		Help: "Total number of audio chunks dropped on queue overflow",
	})

	// PersonalizationDuration 个性化耗时
	PersonalizationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "live_relay_personalization_duration_seconds",
		Help:    "Time spent building the personalized instruction",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 15, 25},
	})

	// UpstreamConnectErrors 上游连接失败数
	UpstreamConnectErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "live_relay_upstream_connect_errors_total",
		Help: "Total number of failed upstream connects by stage",
	}, []string{"stage"})

	// Summaries 总结结果
	Summaries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "live_relay_summaries_total",
		Help: "Total number of summarization attempts by trigger and result",
	}, []string{"trigger", "result"})

	// EventsDropped 事件队列满时丢弃的会话事件
	EventsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "live_relay_events_dropped_total",
		Help: "Total number of session events dropped",
	})
)
