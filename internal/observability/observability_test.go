package observability

import (
	"context"
	"log/slog"
	"testing"

	"github.com/aquawatch/groundwater-etl/internal/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	tests := []struct {
		name      string
		level     string
		format    string
		wantDebug bool
		wantInfo  bool
		wantWarn  bool
	}{
		{name: "warn json", level: "warn", format: "json", wantWarn: true},
		{name: "debug text", level: "debug", format: "TEXT", wantDebug: true, wantInfo: true, wantWarn: true},
		{name: "unknown level", level: "verbose", format: "json", wantInfo: true, wantWarn: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := NewLogger(&config.Config{LogLevel: tt.level, LogFormat: tt.format})
			ctx := context.Background()

			assert.Equal(t, tt.wantDebug, logger.Enabled(ctx, slog.LevelDebug))
			assert.Equal(t, tt.wantInfo, logger.Enabled(ctx, slog.LevelInfo))
			assert.Equal(t, tt.wantWarn, logger.Enabled(ctx, slog.LevelWarn))
			assert.Same(t, logger, slog.Default())
		})
	}
}

func TestMetricsRegisterOnFreshRegistry(t *testing.T) {
	m := NewMetricsForTesting()
	reg := prometheus.NewRegistry()
	for _, c := range m.collectors() {
		require.NoError(t, reg.Register(c))
	}

	m.TransformErrors.WithLabelValues("decode").Inc()
	m.Analyses.WithLabelValues("series").Add(2)
	assert.InDelta(t, 1, testutil.ToFloat64(m.TransformErrors.WithLabelValues("decode")), 1e-12)
	assert.InDelta(t, 2, testutil.ToFloat64(m.Analyses.WithLabelValues("series")), 1e-12)
}
