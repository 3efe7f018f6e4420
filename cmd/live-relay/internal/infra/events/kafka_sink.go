package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"

	"github.com/ankurMishraDev/GenX-AI/cmd/live-relay/internal/domain"
)

// KafkaConfig Kafka 投递配置
type KafkaConfig struct {
	Brokers  []string
	Topic    string
	ClientID string
}

// KafkaSink 以 uid 为 key 写入 Kafka
type KafkaSink struct {
	producer sarama.SyncProducer
	topic    string
}

// NewKafkaSink 创建同步生产者
func NewKafkaSink(cfg KafkaConfig) (*KafkaSink, error) {
	kafkaConfig := sarama.NewConfig()
	kafkaConfig.ClientID = cfg.ClientID
	kafkaConfig.Producer.Return.Successes = true
	kafkaConfig.Producer.Return.Errors = true
	kafkaConfig.Producer.RequiredAcks = sarama.WaitForLocal
	kafkaConfig.Producer.Retry.Max = 3
	kafkaConfig.Producer.Timeout = 5 * time.Second

	producer, err := sarama.NewSyncProducer(cfg.Brokers, kafkaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}
	return NewKafkaSinkWithProducer(producer, cfg.Topic), nil
}

// NewKafkaSinkWithProducer 使用已有生产者
func NewKafkaSinkWithProducer(producer sarama.SyncProducer, topic string) *KafkaSink {
	return &KafkaSink{producer: producer, topic: topic}
}

// Publish 发送一条事件
func (s *KafkaSink) Publish(ctx context.Context, event domain.SessionEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: s.topic,
		Key:   sarama.StringEncoder(event.UserID),
		Value: sarama.ByteEncoder(value),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event_type"), Value: []byte(event.Type)},
		},
		Timestamp: event.OccurredAt,
	}
	if _, _, err := s.producer.SendMessage(msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// Close 关闭生产者
func (s *KafkaSink) Close() error {
	return s.producer.Close()
}
