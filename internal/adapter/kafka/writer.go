// Package kafka implements the magnitude engine's Kafka-backed egress
// (the Sink collaborator, A2) and ingress (the messaging adapter, A3),
// using the same segmentio/kafka-go writer/reader pattern the reference
// ETL service uses for its sink topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/seismag-engine/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer implements the engine.Sink collaborator, publishing updated
// origins to a Kafka topic.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(brokers []string, topic string, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// DumpOrigin implements engine.Sink: serializes the origin (with its
// current station/network magnitudes) and publishes it in a single
// WriteMessages call.
func (w *Writer) DumpOrigin(origin *domain.Origin) error {
	msg, err := serializeOrigin(origin)
	if err != nil {
		return fmt.Errorf("serialize origin: %w", err)
	}
	return w.writer.WriteMessages(context.Background(), msg)
}

// LogObject implements engine.Sink: emits a structured log line recording
// an object kind and timestamp, standing in for the reference system's
// logObject calls used throughout origin processing to mark
// creation/update points for external monitoring.
func (w *Writer) LogObject(kind string, at time.Time) {
	w.logger.Info("object dumped", "kind", kind, "at", at.Format(time.RFC3339))
}

// Close releases the underlying Kafka connection.
func (w *Writer) Close() error {
	return w.writer.Close()
}

func serializeOrigin(origin *domain.Origin) (kafkago.Message, error) {
	data, err := json.Marshal(origin)
	if err != nil {
		return kafkago.Message{}, err
	}
	return kafkago.Message{
		Key:   []byte(origin.PublicID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "object_type", Value: []byte("origin")},
		},
	}, nil
}
