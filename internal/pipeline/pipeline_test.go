package pipeline_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aquawatch/groundwater-etl/internal/analysis"
	"github.com/aquawatch/groundwater-etl/internal/domain"
	"github.com/aquawatch/groundwater-etl/internal/observability"
	"github.com/aquawatch/groundwater-etl/internal/pipeline"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockExtractor struct {
	batches [][]domain.RawEvent
	index   atomic.Int64
}

func (m *mockExtractor) ExtractBatch(ctx context.Context, _ int) ([]domain.RawEvent, error) {
	i := int(m.index.Add(1) - 1)
	if i >= len(m.batches) {
		// block until context cancelled to simulate waiting for messages
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return m.batches[i], nil
}

type mockTransformer struct {
	err error
}

func (m *mockTransformer) Transform(_ context.Context, raw domain.RawEvent) (domain.OutputEvent, error) {
	if m.err != nil {
		return domain.OutputEvent{}, m.err
	}
	return domain.OutputEvent{Key: raw.Key, Value: raw.Value}, nil
}

// keyRejectingTransformer fails messages whose key matches, passing the rest through.
type keyRejectingTransformer struct {
	key string
}

func (m *keyRejectingTransformer) Transform(_ context.Context, raw domain.RawEvent) (domain.OutputEvent, error) {
	if string(raw.Key) == m.key {
		return domain.OutputEvent{}, errors.New("parse envelope: unexpected end of JSON input")
	}
	return domain.OutputEvent{Key: raw.Key, Value: raw.Value}, nil
}

type mockLoader struct {
	mu       sync.Mutex
	loaded   []domain.OutputEvent
	failures int
}

func (m *mockLoader) LoadBatch(_ context.Context, events []domain.OutputEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failures > 0 {
		m.failures--
		return errors.New("broker unavailable")
	}
	m.loaded = append(m.loaded, events...)
	return nil
}

func (m *mockLoader) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.loaded)
}

func newTestMetrics() *observability.Metrics {
	// Use a fresh registry to avoid "already registered" panics in tests.
	return observability.NewMetricsForTesting()
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func runFor(t *testing.T, p *pipeline.Pipeline, d time.Duration) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	require.NoError(t, p.Run(ctx))
}

// --- pipeline tests ---

func TestPipeline_Run_HappyPath(t *testing.T) {
	raw := makeSampleEvent(t, "WS001")

	ext := &mockExtractor{batches: [][]domain.RawEvent{{raw}}}
	ldr := &mockLoader{}
	metrics := newTestMetrics()
	p := pipeline.New(ext, &mockTransformer{}, ldr, discardLogger(), metrics, 10)

	runFor(t, p, 300*time.Millisecond)

	require.Len(t, ldr.loaded, 1)
	assert.Equal(t, raw.Value, ldr.loaded[0].Value)
	require.NoError(t, p.CheckReadiness(context.Background()))
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.MessagesConsumed), 1e-12)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.MessagesProduced), 1e-12)
	assert.InDelta(t, 0, testutil.ToFloat64(metrics.PipelineRunning), 1e-12)
}

func TestPipeline_Run_ContextCancellation(t *testing.T) {
	ldr := &mockLoader{}
	p := pipeline.New(&mockExtractor{}, &mockTransformer{}, ldr, discardLogger(), newTestMetrics(), 10)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, p.Run(ctx))
	assert.Empty(t, ldr.loaded)
	assert.Error(t, p.CheckReadiness(ctx))
}

func TestPipeline_Run_TransformErrorIsCommitted(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		reason string
	}{
		{"validation", fmt.Errorf("assess sample: %w", domain.ErrValidation), "validation"},
		{"unknown kind", fmt.Errorf("%w: %q", domain.ErrUnknownKind, "tide"), "unknown_kind"},
		{"serialize", fmt.Errorf("%w: boom", pipeline.ErrSerialize), "serialize"},
		{"decode", errors.New("parse envelope: unexpected end of JSON input"), "decode"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			committed := false
			raw := makeSampleEvent(t, "WS002")
			raw.Commit = func(context.Context) error {
				committed = true
				return nil
			}

			ldr := &mockLoader{}
			metrics := newTestMetrics()
			p := pipeline.New(&mockExtractor{batches: [][]domain.RawEvent{{raw}}}, &mockTransformer{err: tc.err}, ldr, discardLogger(), metrics, 10)

			runFor(t, p, 200*time.Millisecond)

			assert.Empty(t, ldr.loaded)
			assert.True(t, committed, "poison message should be committed")
			assert.InDelta(t, 1, testutil.ToFloat64(metrics.TransformErrors.WithLabelValues(tc.reason)), 1e-12)
			assert.Error(t, p.CheckReadiness(context.Background()))
		})
	}
}

func TestPipeline_Run_CommitsAfterLoad(t *testing.T) {
	var commits atomic.Int32
	batch := []domain.RawEvent{makeSampleEvent(t, "WS003"), makeSampleEvent(t, "WS004")}
	for i := range batch {
		batch[i].Topic = "dwlr-raw-telemetry"
		batch[i].Commit = func(context.Context) error {
			commits.Add(1)
			return nil
		}
	}

	ldr := &mockLoader{}
	p := pipeline.New(&mockExtractor{batches: [][]domain.RawEvent{batch}}, &mockTransformer{}, ldr, discardLogger(), newTestMetrics(), 10)

	runFor(t, p, 300*time.Millisecond)

	assert.Len(t, ldr.loaded, 2)
	assert.Equal(t, int32(2), commits.Load())
}

func TestPipeline_Run_LoadFailureRetriesSameBatch(t *testing.T) {
	var commits atomic.Int32
	raw := makeSampleEvent(t, "WS005")
	raw.Commit = func(context.Context) error {
		commits.Add(1)
		return nil
	}

	ldr := &mockLoader{failures: 1}
	p := pipeline.New(&mockExtractor{batches: [][]domain.RawEvent{{raw}}}, &mockTransformer{}, ldr, discardLogger(), newTestMetrics(), 10)

	runFor(t, p, time.Second)

	require.Equal(t, 1, ldr.count())
	assert.Equal(t, []byte("WS005"), ldr.loaded[0].Key)
	assert.Equal(t, int32(1), commits.Load())
	assert.NoError(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_Run_CommitsInBatchOrderAfterLoad(t *testing.T) {
	var (
		mu      sync.Mutex
		offsets []int64
	)
	record := func(offset int64) func(context.Context) error {
		return func(context.Context) error {
			mu.Lock()
			defer mu.Unlock()
			offsets = append(offsets, offset)
			return nil
		}
	}

	batch := []domain.RawEvent{
		makeSampleEvent(t, "WS007"),
		makeSampleEvent(t, "POISON"),
		makeSampleEvent(t, "WS008"),
	}
	for i := range batch {
		batch[i].Offset = int64(i + 1)
		batch[i].Commit = record(batch[i].Offset)
	}

	ldr := &mockLoader{failures: 2}
	metrics := newTestMetrics()
	p := pipeline.New(&mockExtractor{batches: [][]domain.RawEvent{batch}}, &keyRejectingTransformer{key: "POISON"}, ldr, discardLogger(), metrics, 10)

	runFor(t, p, 1500*time.Millisecond)

	require.Equal(t, 2, ldr.count())
	assert.Equal(t, []byte("WS007"), ldr.loaded[0].Key)
	assert.Equal(t, []byte("WS008"), ldr.loaded[1].Key)
	mu.Lock()
	assert.Equal(t, []int64{1, 2, 3}, offsets)
	mu.Unlock()
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.TransformErrors.WithLabelValues("decode")), 1e-12)
	assert.InDelta(t, 2, testutil.ToFloat64(metrics.MessagesProduced), 1e-12)
}

func TestPipeline_Run_ShutdownDuringLoadRetryCommitsNothing(t *testing.T) {
	var commits atomic.Int32
	batch := []domain.RawEvent{makeSampleEvent(t, "POISON"), makeSampleEvent(t, "WS009")}
	for i := range batch {
		batch[i].Commit = func(context.Context) error {
			commits.Add(1)
			return nil
		}
	}

	ldr := &mockLoader{failures: 1000}
	metrics := newTestMetrics()
	p := pipeline.New(&mockExtractor{batches: [][]domain.RawEvent{batch}}, &keyRejectingTransformer{key: "POISON"}, ldr, discardLogger(), metrics, 10)

	runFor(t, p, 300*time.Millisecond)

	assert.Zero(t, ldr.count())
	assert.Zero(t, commits.Load())
	assert.Error(t, p.CheckReadiness(context.Background()))
	assert.InDelta(t, 0, testutil.ToFloat64(metrics.MessagesProduced), 1e-12)
}

// --- transformer tests ---

func newTransformer(t *testing.T) *pipeline.GroundwaterTransformer {
	t.Helper()
	domain.SetClock(clockwork.NewFakeClockAt(time.Date(2024, 7, 10, 12, 0, 0, 0, time.UTC)))
	t.Cleanup(func() { domain.SetClock(nil) })

	stations := []domain.Station{
		{Code: "PUNE01", Location: &domain.GeoPoint{Lat: 18.52, Lng: 73.85}},
	}
	settings := analysis.DefaultSettings()
	settings.HorizonDays = 7
	a := analysis.New(settings, stations, nil, discardLogger(), newTestMetrics())
	return pipeline.NewTransformer(a)
}

func TestGroundwaterTransformer_Sample(t *testing.T) {
	tfm := newTransformer(t)

	out, err := tfm.Transform(context.Background(), makeSampleEvent(t, "WS010"))
	require.NoError(t, err)

	assert.Equal(t, "sample", out.Headers["kind"])
	assert.Equal(t, "2024-07-10T12:00:00Z", out.Headers["processed_at"])

	var got analysis.SampleAssessment
	require.NoError(t, json.Unmarshal(out.Value, &got))
	assert.Equal(t, string(out.Key), got.ID)
	assert.Equal(t, "WS010", got.StationCode)
	assert.Equal(t, 90, got.WQI)
	assert.Equal(t, domain.BandExcellent, got.Band)
}

func TestGroundwaterTransformer_Series(t *testing.T) {
	tfm := newTransformer(t)

	out, err := tfm.Transform(context.Background(), makeSeriesEvent(t))
	require.NoError(t, err)
	assert.Equal(t, "series", out.Headers["kind"])

	var got map[string]any
	require.NoError(t, json.Unmarshal(out.Value, &got))
	assert.Equal(t, string(out.Key), got["id"])
	assert.Equal(t, "DWLR_PUNE_042", got["station_id"])
	assert.Len(t, got["forecast"], 7)
	nearest, ok := got["nearest_station"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "PUNE01", nearest["station"].(map[string]any)["code"])
}

func TestGroundwaterTransformer_Errors(t *testing.T) {
	tfm := newTransformer(t)

	tests := map[string]struct {
		value string
		is    error
	}{
		"unknown kind":    {`{"kind":"tide"}`, domain.ErrUnknownKind},
		"missing payload": {`{"kind":"series"}`, domain.ErrValidation},
		"missing do":      {`{"kind":"sample","sample":{"station_code":"X","ph":7,"bod":1}}`, domain.ErrValidation},
		"empty series":    {`{"kind":"series","series":{"station_id":"X","readings":[]}}`, domain.ErrValidation},
		"bad reading":     {`{"kind":"series","series":{"station_id":"X","readings":[{"timestamp":"soon","water_level":1}]}}`, domain.ErrValidation},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := tfm.Transform(context.Background(), domain.RawEvent{Value: []byte(tc.value)})
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.is), "got %v", err)
		})
	}

	_, err := tfm.Transform(context.Background(), domain.RawEvent{Value: []byte("not json")})
	require.Error(t, err)
	assert.False(t, errors.Is(err, domain.ErrValidation))
}

// --- helpers ---

func makeSampleEvent(t *testing.T, station string) domain.RawEvent {
	t.Helper()
	data, err := json.Marshal(domain.Envelope{
		Kind: domain.KindSample,
		Sample: &domain.WaterSample{
			StationCode:     station,
			State:           "Kerala",
			Year:            2023,
			DissolvedOxygen: domain.Float64(7.2),
			PH:              domain.Float64(7.4),
			BOD:             domain.Float64(1.2),
			FecalColiform:   40,
			TotalColiform:   220,
		},
	})
	require.NoError(t, err)
	return domain.RawEvent{Key: []byte(station), Value: data}
}

func makeSeriesEvent(t *testing.T) domain.RawEvent {
	t.Helper()
	lat, lng := 18.53, 73.86
	series := domain.Series{StationID: "DWLR_PUNE_042", District: "Pune", State: "Maharashtra", Latitude: &lat, Longitude: &lng}
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	for i := range 10 {
		series.Readings = append(series.Readings, domain.WaterLevelReading{
			Timestamp:  start.AddDate(0, 0, i),
			WaterLevel: 3 + 0.1*float64(i),
			Rainfall:   domain.Float64(2),
			StationID:  series.StationID,
		})
	}
	data, err := json.Marshal(domain.Envelope{Kind: domain.KindSeries, Series: &series})
	require.NoError(t, err)
	return domain.RawEvent{Key: []byte(series.StationID), Value: data}
}
