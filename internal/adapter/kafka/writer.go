package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/station-telemetry-etl/internal/config"
	"github.com/couchcryptid/station-telemetry-etl/internal/domain"
)

// Writer produces canonical modules to a Kafka topic.
// It implements pipeline.BatchLoader and domain.Sink.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// LoadBatch serializes and publishes multiple modules in a single
// WriteMessages call. Messages are keyed by station so that one station's
// modules stay ordered on one partition.
func (w *Writer) LoadBatch(ctx context.Context, modules []domain.Module) error {
	if len(modules) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(modules))
	for i := range modules {
		msg, err := serializeToMessage(modules[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	return w.writer.WriteMessages(ctx, msgs...)
}

// WriteModule publishes one module.
func (w *Writer) WriteModule(ctx context.Context, m domain.Module) error {
	return w.LoadBatch(ctx, []domain.Module{m})
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a module into a Kafka message.
func serializeToMessage(m domain.Module) (kafkago.Message, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize module: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(m.StationID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "module_id", Value: []byte(m.ModuleID)},
			{Key: "module_type", Value: []byte(m.Type)},
			{Key: "observed_at", Value: []byte(m.Dashboard.Time.Format(time.RFC3339))},
		},
	}, nil
}
