package alert

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"holder-sentinel/internal/domain"
)

// KafkaConfig holds the kafka channel configuration.
type KafkaConfig struct {
	Brokers      []string
	Topic        string
	RequiredAcks int // -1 = all
	MaxAttempts  int
	WriteTimeout time.Duration
}

// KafkaChannel publishes alerts as JSON messages keyed by alert id, so
// downstream consumers can deduplicate at-least-once deliveries.
type KafkaChannel struct {
	writer *kafka.Writer
	topic  string
}

// NewKafkaChannel creates a kafka alert channel.
func NewKafkaChannel(cfg KafkaConfig) (*KafkaChannel, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("brokers are required")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("topic is required")
	}
	if cfg.RequiredAcks == 0 {
		cfg.RequiredAcks = -1
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequiredAcks(cfg.RequiredAcks),
		MaxAttempts:  cfg.MaxAttempts,
		WriteTimeout: cfg.WriteTimeout,
	}
	return &KafkaChannel{writer: writer, topic: cfg.Topic}, nil
}

// Name implements Channel.
func (k *KafkaChannel) Name() string {
	return "kafka"
}

// Send implements Channel.
func (k *KafkaChannel) Send(ctx context.Context, a *domain.SellAlert) error {
	value, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal alert: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(a.AlertID),
		Value: value,
		Time:  time.Now(),
	}
	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying writer.
func (k *KafkaChannel) Close() error {
	return k.writer.Close()
}
