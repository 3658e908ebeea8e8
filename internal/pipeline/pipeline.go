package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/station-telemetry-etl/internal/domain"
	"github.com/couchcryptid/station-telemetry-etl/internal/observability"
)

// BatchExtractor reads up to batchSize raw payload messages from the source.
type BatchExtractor interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]domain.Message, error)
}

// Transformer turns one provider payload into canonical modules.
type Transformer interface {
	Transform(ctx context.Context, p domain.Payload) ([]domain.Module, error)
}

// BatchLoader writes canonical modules to the destination.
type BatchLoader interface {
	LoadBatch(ctx context.Context, modules []domain.Module) error
}

// Pipeline orchestrates the extract-transform-load loop.
type Pipeline struct {
	extractor   BatchExtractor
	transformer Transformer
	loader      BatchLoader
	logger      *slog.Logger
	metrics     *observability.Metrics
	ready       atomic.Bool
	batchSize   int
}

// New creates a Pipeline with the given stages and observability.
func New(e BatchExtractor, t Transformer, l BatchLoader, logger *slog.Logger, metrics *observability.Metrics, batchSize int) *Pipeline {
	return &Pipeline{
		extractor:   e,
		transformer: t,
		loader:      l,
		logger:      logger,
		metrics:     metrics,
		batchSize:   batchSize,
	}
}

// CheckReadiness returns nil if the pipeline has processed at least one batch,
// or an error describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not processed any payloads yet")
	}
	return nil
}

// Run executes the batch ETL loop until the context is cancelled.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started", "batch_size", p.batchSize)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	// Exponential backoff: start at 200ms, double each retry, cap at 5s.
	backoff := 200 * time.Millisecond
	maxBackoff := 5 * time.Second

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		default:
		}

		if !p.processBatch(ctx, &backoff, maxBackoff) {
			return nil
		}
	}
}

// processBatch runs one extract-transform-load cycle. Returns false if the pipeline should stop.
func (p *Pipeline) processBatch(ctx context.Context, backoff *time.Duration, maxBackoff time.Duration) bool {
	start := time.Now()

	rawBatch, err := p.extractor.ExtractBatch(ctx, p.batchSize)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		p.logger.Error("extract batch failed", "error", err)
		return p.backoffOrStop(ctx, backoff, maxBackoff)
	}

	if len(rawBatch) == 0 {
		return ctx.Err() == nil
	}

	p.metrics.PayloadsConsumed.Add(float64(len(rawBatch)))
	p.metrics.BatchSize.Observe(float64(len(rawBatch)))
	*backoff = 200 * time.Millisecond

	loaded, ok := p.transformAndLoad(ctx, rawBatch, backoff, maxBackoff)
	if !ok {
		return false
	}

	if loaded {
		p.metrics.BatchProcessingDuration.Observe(time.Since(start).Seconds())
		p.ready.Store(true)
	}
	return true
}

// transformAndLoad normalizes each message in the batch, loads the resulting
// modules and commits offsets. Messages that fail to normalize are committed
// immediately. Returns whether the batch was loaded and false as second value
// if the pipeline should stop.
func (p *Pipeline) transformAndLoad(ctx context.Context, batch []domain.Message, backoff *time.Duration, maxBackoff time.Duration) (bool, bool) {
	var modules []domain.Module
	done := make([]domain.Message, 0, len(batch))

	for _, msg := range batch {
		out, err := p.transformer.Transform(ctx, msg.Payload)
		if err != nil {
			p.reportTransformError(ctx, msg.Payload, err,
				"topic", msg.Topic,
				"partition", msg.Partition,
				"offset", msg.Offset,
			)
			p.commitOffset(ctx, msg)
			continue
		}
		modules = append(modules, out...)
		done = append(done, msg)
	}

	if len(modules) > 0 {
		if err := p.loader.LoadBatch(ctx, modules); err != nil {
			p.logger.Error("load batch failed", "error", err, "batch_size", len(modules))
			return false, p.backoffOrStop(ctx, backoff, maxBackoff)
		}
		p.metrics.ModulesProduced.Add(float64(len(modules)))
	}

	for _, msg := range done {
		p.commitOffset(ctx, msg)
	}
	return true, true
}

// Ingest normalizes and loads one payload outside the batch loop. It returns
// the number of modules written.
func (p *Pipeline) Ingest(ctx context.Context, payload domain.Payload) (int, error) {
	p.metrics.PayloadsConsumed.Inc()

	modules, err := p.transformer.Transform(ctx, payload)
	if err != nil {
		p.reportTransformError(ctx, payload, err, "source", "push")
		return 0, err
	}
	if len(modules) == 0 {
		return 0, nil
	}
	if err := p.loader.LoadBatch(ctx, modules); err != nil {
		p.logger.Error("load failed", "error", err, "provider", payload.Provider, "modules", len(modules))
		return 0, fmt.Errorf("load: %w", err)
	}
	p.metrics.ModulesProduced.Add(float64(len(modules)))
	return len(modules), nil
}

// reportTransformError counts a payload that produced no records and logs it.
// Authentication failures are critical; everything else is a warning.
func (p *Pipeline) reportTransformError(ctx context.Context, payload domain.Payload, err error, attrs ...any) {
	class := Classify(err)
	p.metrics.NormalizeErrors.WithLabelValues(payload.Provider, class).Inc()

	args := append([]any{"error", err, "provider", payload.Provider, "guid", payload.GUID, "class", class}, attrs...)
	if class == ClassAuth {
		observability.Critical(ctx, p.logger, "provider rejected credentials, payload skipped", args...)
		return
	}
	p.logger.Warn("normalize failed, skipping payload", args...)
}

// backoffOrStop checks for context cancellation, sleeps with the current backoff,
// and advances the backoff. Returns false if the pipeline should stop.
func (p *Pipeline) backoffOrStop(ctx context.Context, backoff *time.Duration, maxBackoff time.Duration) bool {
	if ctx.Err() != nil {
		return false
	}
	if !sleepWithContext(ctx, *backoff) {
		return false
	}
	*backoff = nextBackoff(*backoff, maxBackoff)
	return true
}

// commitOffset commits the message offset if a commit function is available.
func (p *Pipeline) commitOffset(ctx context.Context, msg domain.Message) {
	if msg.Commit == nil {
		return
	}
	if err := msg.Commit(ctx); err != nil {
		p.logger.Warn("commit offset failed", "error", err,
			"topic", msg.Topic, "partition", msg.Partition, "offset", msg.Offset)
	}
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
