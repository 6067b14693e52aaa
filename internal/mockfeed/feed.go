package mockfeed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/aquawatch/groundwater-etl/internal/domain"
	"github.com/aquawatch/groundwater-etl/internal/observability"
	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

const (
	seriesDays     = 30
	samplesPerTick = 3
	maxRetries     = 3
)

// Publisher writes envelopes to the source topic. The Kafka writer satisfies it.
type Publisher interface {
	LoadBatch(ctx context.Context, events []domain.OutputEvent) error
}

// Feed publishes one district series and a few quality samples per tick,
// cycling through Districts.
type Feed struct {
	gen       *Generator
	publisher Publisher
	clock     clockwork.Clock
	interval  time.Duration
	logger    *slog.Logger
	metrics   *observability.Metrics
	runID     string

	samples      []domain.WaterSample
	nextDistrict int
	retryBase    time.Duration
}

// NewFeed creates a feed. Every message it publishes carries the same
// feed_run_id header so a run can be traced end to end.
func NewFeed(gen *Generator, publisher Publisher, clock clockwork.Clock, interval time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Feed {
	return &Feed{
		gen:       gen,
		publisher: publisher,
		clock:     clock,
		interval:  interval,
		logger:    logger,
		metrics:   metrics,
		runID:     uuid.NewString(),
		retryBase: 200 * time.Millisecond,
	}
}

// RunID identifies this feed instance.
func (f *Feed) RunID() string { return f.runID }

// Run publishes immediately and then on every tick until ctx is cancelled.
// Publish failures are logged and the next tick tries again.
func (f *Feed) Run(ctx context.Context) error {
	f.logger.Info("mock feed started", "interval", f.interval, "run_id", f.runID)
	ticker := f.clock.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		if err := f.Tick(ctx); err != nil && ctx.Err() == nil {
			f.logger.Error("mock feed publish failed", "error", err)
		}
		select {
		case <-ctx.Done():
			f.logger.Info("mock feed stopping", "reason", ctx.Err())
			return nil
		case <-ticker.Chan():
		}
	}
}

// Tick builds and publishes one batch, retrying transient failures.
func (f *Feed) Tick(ctx context.Context) error {
	batch, err := f.nextBatch()
	if err != nil {
		return err
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = f.retryBase
	b.MaxInterval = 5 * time.Second
	op := func() error { return f.publisher.LoadBatch(ctx, batch) }
	if err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(b, maxRetries), ctx)); err != nil {
		return fmt.Errorf("publish batch: %w", err)
	}

	for _, ev := range batch {
		f.metrics.FeedPublished.WithLabelValues(ev.Headers["kind"]).Inc()
	}
	f.logger.Debug("mock feed published", "messages", len(batch))
	return nil
}

func (f *Feed) nextBatch() ([]domain.OutputEvent, error) {
	district := Districts[f.nextDistrict%len(Districts)]
	f.nextDistrict++
	series := f.gen.DistrictSeries(district, seriesDays)

	batch := make([]domain.OutputEvent, 0, 1+samplesPerTick)
	ev, err := f.envelope(series.StationID, domain.Envelope{Kind: domain.KindSeries, Series: &series})
	if err != nil {
		return nil, err
	}
	batch = append(batch, ev)

	for range samplesPerTick {
		if len(f.samples) == 0 {
			f.samples = f.gen.Samples()
		}
		s := f.samples[len(f.samples)-1]
		f.samples = f.samples[:len(f.samples)-1]
		ev, err := f.envelope(s.StationCode, domain.Envelope{Kind: domain.KindSample, Sample: &s})
		if err != nil {
			return nil, err
		}
		batch = append(batch, ev)
	}
	return batch, nil
}

func (f *Feed) envelope(key string, env domain.Envelope) (domain.OutputEvent, error) {
	data, err := json.Marshal(env)
	if err != nil {
		return domain.OutputEvent{}, fmt.Errorf("encode %s envelope: %w", env.Kind, err)
	}
	return domain.OutputEvent{
		Key:   []byte(key),
		Value: data,
		Headers: map[string]string{
			"kind":        string(env.Kind),
			"feed_run_id": f.runID,
		},
	}, nil
}
