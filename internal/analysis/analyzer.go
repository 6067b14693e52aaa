// Package analysis assembles the groundwater metrics for a single input:
// a water-quality sample or a DWLR reading series.
package analysis

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/aquawatch/groundwater-etl/internal/config"
	"github.com/aquawatch/groundwater-etl/internal/domain"
	"github.com/aquawatch/groundwater-etl/internal/observability"
)

// Settings are the tunables applied to every analysis.
type Settings struct {
	SpecificYield float64
	Aggregation   domain.AggregationMode
	HorizonDays   int
	Noise         bool
	RadiusKm      float64
	AlertWindow   int
}

// SettingsFromConfig copies the analysis settings out of the service config.
func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		SpecificYield: cfg.SpecificYield,
		Aggregation:   cfg.RechargeAggregation,
		HorizonDays:   cfg.ForecastHorizonDays,
		Noise:         cfg.ForecastNoise,
		RadiusKm:      cfg.NearestRadiusKm,
		AlertWindow:   cfg.AlertWindowDays,
	}
}

// DefaultSettings mirrors the config defaults.
func DefaultSettings() Settings {
	return Settings{
		SpecificYield: domain.DefaultSpecificYield,
		Aggregation:   domain.AggregateClampPairs,
		HorizonDays:   30,
		RadiusKm:      domain.DefaultSearchRadiusKm,
		AlertWindow:   domain.DefaultAlertWindow,
	}
}

// SampleAssessment is the quality verdict for one sample.
type SampleAssessment struct {
	ID          string              `json:"id"`
	StationCode string              `json:"station_code"`
	State       string              `json:"state,omitempty"`
	Year        int                 `json:"year,omitempty"`
	WQI         int                 `json:"wqi"`
	Band        domain.WQIBand      `json:"band"`
	Safe        bool                `json:"safe"`
	Safety      domain.SafetyReport `json:"safety"`
	ProcessedAt time.Time           `json:"processed_at"`
}

// SeriesAnalysis is the full set of level metrics for one station's series.
type SeriesAnalysis struct {
	ID              string                 `json:"id"`
	StationID       string                 `json:"station_id"`
	District        string                 `json:"district,omitempty"`
	State           string                 `json:"state,omitempty"`
	Summary         domain.LevelSummary    `json:"summary"`
	Recharge        []float64              `json:"recharge"`
	MonthlyRecharge []domain.MonthRecharge `json:"monthly_recharge"`
	TotalRecharge   float64                `json:"total_recharge"`
	Forecast        []domain.ForecastPoint `json:"forecast"`
	Alerts          []domain.Alert         `json:"alerts"`
	NearestStation  *domain.StationMatch   `json:"nearest_station,omitempty"`
	Place           *domain.Place          `json:"place,omitempty"`
	GeoSource       domain.GeoSource       `json:"geo_source"`
	ProcessedAt     time.Time              `json:"processed_at"`
}

// Analyzer computes assessments and series analyses. It is safe for
// concurrent use as long as the geocoder is.
type Analyzer struct {
	settings Settings
	stations []domain.Station
	geocoder domain.ReverseGeocoder
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// New creates an Analyzer. Pass a nil geocoder to skip place enrichment.
func New(settings Settings, stations []domain.Station, geocoder domain.ReverseGeocoder, logger *slog.Logger, metrics *observability.Metrics) *Analyzer {
	return &Analyzer{
		settings: settings,
		stations: stations,
		geocoder: geocoder,
		logger:   logger,
		metrics:  metrics,
	}
}

// Stations returns the catalog used for nearest-station lookups.
func (a *Analyzer) Stations() []domain.Station { return a.stations }

// RadiusKm is the configured nearest-station search radius.
func (a *Analyzer) RadiusKm() float64 { return a.settings.RadiusKm }

// AssessSample scores a sample. Missing or non-finite DO, pH or BOD is a
// validation error.
func (a *Analyzer) AssessSample(s domain.WaterSample) (SampleAssessment, error) {
	wqi, err := domain.ComputeWQI(s)
	if err != nil {
		return SampleAssessment{}, err
	}

	a.metrics.Analyses.WithLabelValues(string(domain.KindSample)).Inc()
	a.metrics.WQIScore.Observe(float64(wqi))

	return SampleAssessment{
		ID:          domain.SampleID(s),
		StationCode: s.StationCode,
		State:       s.State,
		Year:        s.Year,
		WQI:         wqi,
		Band:        domain.ClassifyWQI(wqi),
		Safe:        wqi >= domain.SafeWQI,
		Safety:      domain.ClassifySafety(s),
		ProcessedAt: domain.Now(),
	}, nil
}

// AnalyzeSeries computes level metrics for a series. Readings are used in
// the order given. A series without readings is a validation error.
func (a *Analyzer) AnalyzeSeries(ctx context.Context, series domain.Series) (SeriesAnalysis, error) {
	id := domain.SeriesID(series)

	var opts []domain.ForecastOption
	if a.settings.Noise {
		opts = append(opts, domain.WithNoise(noiseSource(id)))
	}
	forecast, err := domain.Forecast(series.Readings, a.settings.HorizonDays, opts...)
	if err != nil {
		return SeriesAnalysis{}, err
	}

	months := domain.MonthlyRecharge(series.Readings, a.settings.SpecificYield, a.settings.Aggregation)
	out := SeriesAnalysis{
		ID:              id,
		StationID:       series.StationID,
		District:        series.District,
		State:           series.State,
		Summary:         domain.SummarizeLevels(series.Readings),
		Recharge:        domain.EstimateRecharge(series.Readings, a.settings.SpecificYield),
		MonthlyRecharge: months,
		TotalRecharge:   domain.TotalRecharge(months),
		Forecast:        forecast,
		Alerts:          domain.DetectAlerts(series.Readings, a.settings.AlertWindow),
		GeoSource:       domain.GeoSourceOriginal,
		ProcessedAt:     domain.Now(),
	}

	if point, ok := series.Point(); ok {
		if match, found := domain.FindNearest(point, a.stations, a.settings.RadiusKm); found {
			out.NearestStation = &match
		}
		out.Place, out.GeoSource = domain.ResolvePlace(ctx, point, a.geocoder, a.logger)
	}

	a.metrics.Analyses.WithLabelValues(string(domain.KindSeries)).Inc()
	for _, alert := range out.Alerts {
		a.metrics.AlertsRaised.WithLabelValues(string(alert.Kind)).Inc()
	}
	return out, nil
}

// noiseSource seeds forecast noise from the series ID so reprocessing the
// same series yields the same forecast.
func noiseSource(id string) *rand.Rand {
	seed, err := strconv.ParseUint(strings.TrimPrefix(id, string(domain.KindSeries)+"-"), 16, 64)
	if err != nil {
		seed = 1
	}
	return rand.New(rand.NewPCG(seed, seed>>1))
}
