package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/aquawatch/groundwater-etl/internal/domain"
	"github.com/aquawatch/groundwater-etl/internal/observability"
	sharedretry "github.com/couchcryptid/storm-data-shared/retry"
)

// BatchExtractor reads up to batchSize raw events from the source.
type BatchExtractor interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawEvent, error)
}

// Transformer converts a raw envelope into an analysis result event.
type Transformer interface {
	Transform(ctx context.Context, raw domain.RawEvent) (domain.OutputEvent, error)
}

// BatchLoader writes multiple output events to the destination.
type BatchLoader interface {
	LoadBatch(ctx context.Context, events []domain.OutputEvent) error
}

// Retry delays between failed extract or load attempts.
const (
	retryInitial = 200 * time.Millisecond
	retryMax     = 5 * time.Second
)

// Pipeline orchestrates the extract-transform-load loop from the raw
// telemetry topic to the metrics topic.
type Pipeline struct {
	extractor   BatchExtractor
	transformer Transformer
	loader      BatchLoader
	logger      *slog.Logger
	metrics     *observability.Metrics
	ready       atomic.Bool
	batchSize   int
	backoff     time.Duration
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

// CheckReadiness returns nil once a batch has reached the sink topic.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not loaded any results yet")
	}
	return nil
}

// Run executes the batch ETL loop until the context is cancelled.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started", "batch_size", p.batchSize)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	for ctx.Err() == nil {
		if !p.processBatch(ctx) {
			break
		}
	}
	p.logger.Info("pipeline stopping", "reason", ctx.Err())
	return nil
}

// processBatch runs one extract-transform-load cycle. Returns false if the pipeline should stop.
//
// Offsets are committed in batch order only after the batch has been loaded.
// Kafka commits the highest offset per partition, so committing a poison
// message ahead of an unloaded one would skip the unloaded one on restart.
func (p *Pipeline) processBatch(ctx context.Context) bool {
	start := time.Now()

	rawBatch, err := p.extractor.ExtractBatch(ctx, p.batchSize)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		p.logger.Error("extract batch failed", "error", err)
		return p.waitRetry(ctx)
	}
	if len(rawBatch) == 0 {
		return true
	}

	p.metrics.MessagesConsumed.Add(float64(len(rawBatch)))
	p.metrics.BatchSize.Observe(float64(len(rawBatch)))

	outBatch := p.transformAll(ctx, rawBatch)
	if len(outBatch) > 0 {
		if !p.loadWithRetry(ctx, outBatch) {
			return false
		}
		p.metrics.MessagesProduced.Add(float64(len(outBatch)))
		p.ready.Store(true)
	}
	p.backoff = 0

	for _, raw := range rawBatch {
		p.commitOffset(ctx, raw)
	}

	p.metrics.BatchProcessingDuration.Observe(time.Since(start).Seconds())
	return true
}

// transformAll runs the transformer over a batch. Poison messages are logged
// and counted by reason; they are committed with the rest of the batch.
func (p *Pipeline) transformAll(ctx context.Context, rawBatch []domain.RawEvent) []domain.OutputEvent {
	outBatch := make([]domain.OutputEvent, 0, len(rawBatch))

	for _, raw := range rawBatch {
		out, err := p.transformer.Transform(ctx, raw)
		if err != nil {
			reason := errorReason(err)
			p.logger.Warn("transform failed, skipping message",
				"error", err,
				"reason", reason,
				"topic", raw.Topic,
				"partition", raw.Partition,
				"offset", raw.Offset,
			)
			p.metrics.TransformErrors.WithLabelValues(reason).Inc()
			continue
		}
		outBatch = append(outBatch, out)
	}
	return outBatch
}

// loadWithRetry writes the batch, retrying the same events until they land.
// Returns false if ctx ends first; nothing from the batch is committed then.
func (p *Pipeline) loadWithRetry(ctx context.Context, events []domain.OutputEvent) bool {
	for {
		err := p.loader.LoadBatch(ctx, events)
		if err == nil {
			return true
		}
		if ctx.Err() != nil {
			return false
		}
		p.logger.Error("load batch failed, retrying", "error", err, "batch_size", len(events))
		if !p.waitRetry(ctx) {
			return false
		}
	}
}

// nextDelay doubles from retryInitial up to retryMax. processBatch resets it
// after a batch completes.
func (p *Pipeline) nextDelay() time.Duration {
	if p.backoff == 0 {
		p.backoff = retryInitial
	} else {
		p.backoff = sharedretry.NextBackoff(p.backoff, retryMax)
	}
	return p.backoff
}

// waitRetry sleeps for the next retry delay. Returns false if ctx ends first.
func (p *Pipeline) waitRetry(ctx context.Context) bool {
	return sharedretry.SleepWithContext(ctx, p.nextDelay())
}

// commitOffset commits the message offset if a commit function is available.
func (p *Pipeline) commitOffset(ctx context.Context, raw domain.RawEvent) {
	if raw.Commit == nil {
		return
	}
	if err := raw.Commit(ctx); err != nil {
		p.logger.Warn("commit offset failed", "error", err,
			"topic", raw.Topic, "partition", raw.Partition, "offset", raw.Offset)
	}
}

// errorReason buckets a transform failure for the transform_errors_total metric.
func errorReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return "validation"
	case errors.Is(err, domain.ErrUnknownKind):
		return "unknown_kind"
	case errors.Is(err, ErrSerialize):
		return "serialize"
	default:
		return "decode"
	}
}
