package kafka

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/station-telemetry-etl/internal/config"
	"github.com/couchcryptid/station-telemetry-etl/internal/domain"
)

// Header keys of a raw payload message. The key "<provider>:<guid>" carries
// the same information for producers that do not set headers.
const (
	HeaderProvider   = "provider"
	HeaderGUID       = "guid"
	HeaderReceivedAt = "received_at"
)

// Reader consumes raw provider payloads from a Kafka topic.
// It implements pipeline.BatchExtractor.
type Reader struct {
	reader        *kafkago.Reader
	flushInterval time.Duration
	logger        *slog.Logger
}

// NewReader creates a consumer-group reader for the configured source topic.
func NewReader(cfg *config.Config, logger *slog.Logger) *Reader {
	r := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:        cfg.KafkaBrokers,
		GroupID:        cfg.KafkaGroupID,
		Topic:          cfg.KafkaSourceTopic,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: 0,
	})
	return &Reader{reader: r, flushInterval: cfg.BatchFlushInterval, logger: logger}
}

// ExtractBatch blocks for the first message, then collects more until
// batchSize messages are read or the flush interval elapses.
func (r *Reader) ExtractBatch(ctx context.Context, batchSize int) ([]domain.Message, error) {
	first, err := r.reader.FetchMessage(ctx)
	if err != nil {
		return nil, err
	}
	batch := []domain.Message{r.toMessage(first)}

	fillCtx, cancel := context.WithTimeout(ctx, r.flushInterval)
	defer cancel()
	for len(batch) < batchSize {
		msg, err := r.reader.FetchMessage(fillCtx)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
				break
			}
			if ctx.Err() != nil {
				return batch, nil
			}
			return batch, err
		}
		batch = append(batch, r.toMessage(msg))
	}
	return batch, nil
}

func (r *Reader) toMessage(msg kafkago.Message) domain.Message {
	m := mapMessage(msg)
	m.Commit = func(ctx context.Context) error {
		return r.reader.CommitMessages(ctx, msg)
	}
	return m
}

func (r *Reader) Close() error {
	return r.reader.Close()
}

// mapMessage converts a Kafka message into a pipeline message. Headers win
// over the key.
func mapMessage(msg kafkago.Message) domain.Message {
	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}

	provider, guid, _ := strings.Cut(string(msg.Key), ":")
	if v, ok := headers[HeaderProvider]; ok {
		provider = v
	}
	if v, ok := headers[HeaderGUID]; ok {
		guid = v
	}
	g, _ := strconv.ParseInt(strings.TrimSpace(guid), 10, 64)

	received := msg.Time.UTC()
	if v, ok := headers[HeaderReceivedAt]; ok {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			received = t.UTC()
		}
	}

	return domain.Message{
		Payload: domain.Payload{
			Provider:   strings.ToLower(strings.TrimSpace(provider)),
			GUID:       g,
			Body:       msg.Value,
			ReceivedAt: received,
		},
		Topic:     msg.Topic,
		Partition: msg.Partition,
		Offset:    msg.Offset,
	}
}
