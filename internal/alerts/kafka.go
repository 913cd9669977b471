package alerts

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/wonny/leapscope/internal/contracts"
	pkgconfig "github.com/wonny/leapscope/pkg/config"
)

// KafkaNotifier publishes alerts to a Kafka topic, keyed by symbol so
// per-symbol ordering is preserved
type KafkaNotifier struct {
	writer *kafka.Writer
}

// NewKafkaNotifier creates a new Kafka alert publisher
func NewKafkaNotifier(cfg pkgconfig.KafkaConfig) *KafkaNotifier {
	return &KafkaNotifier{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.Topic,
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: 10 * time.Millisecond,
		},
	}
}

var _ Notifier = (*KafkaNotifier)(nil)

// Notify publishes one alert
func (k *KafkaNotifier) Notify(ctx context.Context, alert contracts.Alert) error {
	value, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("failed to marshal alert: %w", err)
	}

	key := alert.Symbol
	if key == "" {
		key = string(alert.Type)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: value,
	}
	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write alert to kafka: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying writer
func (k *KafkaNotifier) Close() error {
	return k.writer.Close()
}
