// Package kafka publishes triggered heat findings to an alerts topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/cinderbloom/heatrisk/internal/domain"
)

// Writer produces heat alerts to a Kafka topic. It implements
// pipeline.AlertSink.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the alerts topic.
func NewWriter(brokers []string, topic string, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// alertMessage is the wire format of one heat alert.
type alertMessage struct {
	Region      string          `json:"region"`
	Priority    domain.Priority `json:"priority"`
	Reason      string          `json:"reason"`
	Source      domain.Source   `json:"source"`
	GeneratedAt time.Time       `json:"generated_at"`
}

// PublishAlerts serializes the triggered findings and publishes them in a
// single WriteMessages call. Untriggered findings are ignored so callers may
// pass a full evaluation result. Publishing nothing is not an error.
func (w *Writer) PublishAlerts(ctx context.Context, generatedAt time.Time, findings []domain.Finding) error {
	msgs := make([]kafkago.Message, 0, len(findings))
	for _, f := range findings {
		if !f.Triggered {
			continue
		}
		msg, err := serializeAlert(generatedAt, f)
		if err != nil {
			return err
		}
		msgs = append(msgs, msg)
	}
	if len(msgs) == 0 {
		return nil
	}

	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write alerts: %w", err)
	}
	w.logger.Info("published heat alerts", "count", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeAlert marshals one finding into a Kafka message keyed by region,
// so alerts for the same planning area land in one partition in order.
func serializeAlert(generatedAt time.Time, f domain.Finding) (kafkago.Message, error) {
	data, err := json.Marshal(alertMessage{
		Region:      f.Region,
		Priority:    f.Priority,
		Reason:      f.Reason,
		Source:      f.Source,
		GeneratedAt: generatedAt,
	})
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize alert: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(f.Region),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte("heat-alert")},
			{Key: "generated_at", Value: []byte(generatedAt.UTC().Format(time.RFC3339))},
		},
	}, nil
}
