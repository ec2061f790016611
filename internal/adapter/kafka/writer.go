// Package kafka publishes hazard alerts to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/cosmic-watch-service/internal/config"
	"github.com/couchcryptid/cosmic-watch-service/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer produces hazard alerts to the alert topic.
// It implements pipeline.AlertPublisher.
type Writer struct {
	writer messageWriter
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured alert topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaAlertTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Writer{writer: w, logger: logger}
}

// PublishAlerts serializes and publishes alerts in a single WriteMessages
// call. Messages are keyed by asteroid id so one object's alerts stay ordered.
func (w *Writer) PublishAlerts(ctx context.Context, alerts []domain.HazardAlert) error {
	if len(alerts) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(alerts))
	for i := range alerts {
		msg, err := serializeToMessage(alerts[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write %d alerts: %w", len(msgs), err)
	}
	w.logger.Debug("alerts published", "count", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a HazardAlert into a Kafka message.
func serializeToMessage(alert domain.HazardAlert) (kafkago.Message, error) {
	data, err := json.Marshal(alert)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize hazard alert: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(alert.AsteroidID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "risk_level", Value: []byte(alert.RiskLevel)},
			{Key: "detected_at", Value: []byte(alert.DetectedAt.Format(time.RFC3339))},
		},
	}, nil
}
