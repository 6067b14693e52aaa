package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/aquawatch/groundwater-etl/internal/analysis"
	"github.com/aquawatch/groundwater-etl/internal/domain"
)

// ErrSerialize marks a result that could not be encoded for the sink topic.
var ErrSerialize = errors.New("serialize result")

// GroundwaterTransformer implements Transformer by decoding the envelope and
// running the matching analysis.
type GroundwaterTransformer struct {
	analyzer *analysis.Analyzer
}

// NewTransformer creates a GroundwaterTransformer.
func NewTransformer(analyzer *analysis.Analyzer) *GroundwaterTransformer {
	return &GroundwaterTransformer{analyzer: analyzer}
}

func (t *GroundwaterTransformer) Transform(ctx context.Context, raw domain.RawEvent) (domain.OutputEvent, error) {
	env, err := domain.ParseEnvelope(raw)
	if err != nil {
		return domain.OutputEvent{}, err
	}

	var (
		id     string
		result any
		at     = domain.Now()
	)
	switch env.Kind {
	case domain.KindSample:
		res, err := t.analyzer.AssessSample(*env.Sample)
		if err != nil {
			return domain.OutputEvent{}, fmt.Errorf("assess sample %s: %w", env.Sample.StationCode, err)
		}
		id, result, at = res.ID, res, res.ProcessedAt
	case domain.KindSeries:
		res, err := t.analyzer.AnalyzeSeries(ctx, *env.Series)
		if err != nil {
			return domain.OutputEvent{}, fmt.Errorf("analyze series %s: %w", env.Series.StationID, err)
		}
		id, result, at = res.ID, res, res.ProcessedAt
	}

	out, err := domain.SerializeResult(env.Kind, id, at, result)
	if err != nil {
		return domain.OutputEvent{}, fmt.Errorf("%w: %w", ErrSerialize, err)
	}
	return out, nil
}
