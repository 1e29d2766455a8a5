// Package kafka publishes artifact events to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/state-visit-map/internal/domain"
)

// Writer produces artifact events to a Kafka topic.
// It implements pipeline.Notifier.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the artifact topic.
func NewWriter(brokers []string, topic string, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
		WriteTimeout:           10 * time.Second,
	}
	return &Writer{writer: w, logger: logger}
}

// Notify publishes all events of one run in a single WriteMessages call.
// Events are keyed by run ID so a run stays on one partition.
func (w *Writer) Notify(ctx context.Context, events []domain.ArtifactEvent) error {
	if len(events) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(events))
	for i := range events {
		msg, err := serializeToMessage(events[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish artifact events: %w", err)
	}
	w.logger.Debug("artifact events published", "run_id", events[0].RunID, "count", len(events))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals an ArtifactEvent into a Kafka message.
func serializeToMessage(event domain.ArtifactEvent) (kafkago.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize artifact event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(event.RunID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "artifact_kind", Value: []byte(event.Kind)},
			{Key: "created_at", Value: []byte(event.CreatedAt.Format(time.RFC3339))},
		},
	}, nil
}
