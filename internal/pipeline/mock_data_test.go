package pipeline_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/aquawatch/groundwater-etl/internal/analysis"
	"github.com/aquawatch/groundwater-etl/internal/domain"
	"github.com/aquawatch/groundwater-etl/internal/mockfeed"
	"github.com/aquawatch/groundwater-etl/internal/pipeline"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturePublisher struct {
	events []domain.OutputEvent
}

func (c *capturePublisher) LoadBatch(_ context.Context, events []domain.OutputEvent) error {
	c.events = append(c.events, events...)
	return nil
}

func TestGroundwaterTransformer_WithGeneratedFeed(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2024, time.August, 1, 6, 0, 0, 0, time.UTC))
	a := analysis.New(analysis.DefaultSettings(), mockfeed.StateStations(), nil, discardLogger(), newTestMetrics())
	transformer := pipeline.NewTransformer(a)

	pub := &capturePublisher{}
	feed := mockfeed.NewFeed(mockfeed.NewGenerator(2024, clock), pub, clock, time.Minute, discardLogger(), newTestMetrics())
	for range len(mockfeed.Districts) {
		require.NoError(t, feed.Tick(context.Background()))
	}

	kinds := map[string]int{}
	for _, ev := range pub.events {
		raw := domain.RawEvent{Key: ev.Key, Value: ev.Value, Headers: ev.Headers, Topic: "dwlr-raw-telemetry"}
		out, err := transformer.Transform(context.Background(), raw)
		require.NoError(t, err)

		kind := out.Headers["kind"]
		kinds[kind]++
		assert.Equal(t, ev.Headers["kind"], kind)
		assert.NotEmpty(t, out.Headers["processed_at"])

		switch kind {
		case "sample":
			var got analysis.SampleAssessment
			require.NoError(t, json.Unmarshal(out.Value, &got))
			assert.Equal(t, string(ev.Key), got.StationCode)
			assert.GreaterOrEqual(t, got.WQI, 0)
			assert.LessOrEqual(t, got.WQI, 100)
			assert.Equal(t, domain.ClassifyWQI(got.WQI), got.Band)
		case "series":
			var got analysis.SeriesAnalysis
			require.NoError(t, json.Unmarshal(out.Value, &got))
			assert.Equal(t, string(ev.Key), got.StationID)
			assert.Equal(t, 30, got.Summary.Readings)
			assert.Len(t, got.Recharge, 29)
			assert.Len(t, got.Forecast, 30)
			assert.Equal(t, domain.GeoSourceOriginal, got.GeoSource)
			for _, p := range got.Forecast {
				assert.GreaterOrEqual(t, p.Level, 0.0)
			}
		default:
			t.Fatalf("unexpected kind %q", kind)
		}
	}

	assert.Equal(t, len(mockfeed.Districts), kinds["series"])
	assert.Equal(t, 3*len(mockfeed.Districts), kinds["sample"])
}
