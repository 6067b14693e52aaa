package domain

import (
	"encoding/json"
	"math"
	"math/rand/v2"
	"time"
)

// Noise amplitudes for demo feeds: ±0.1 m for the first month, ±0.15 m after.
const (
	nearNoiseSpan  = 0.2
	farNoiseSpan   = 0.3
	nearNoiseUntil = 30
)

// ForecastPoint is a predicted level for a date after the last reading.
type ForecastPoint struct {
	Date  time.Time
	Level float64
}

type forecastPointJSON struct {
	Date  string  `json:"date"`
	Level float64 `json:"level"`
}

func (p ForecastPoint) MarshalJSON() ([]byte, error) {
	return json.Marshal(forecastPointJSON{Date: p.Date.Format(DayLayout), Level: p.Level})
}

func (p *ForecastPoint) UnmarshalJSON(data []byte) error {
	var in forecastPointJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	date, err := time.Parse(DayLayout, in.Date)
	if err != nil {
		return newValidationError("date", "must be YYYY-MM-DD")
	}
	*p = ForecastPoint{Date: date, Level: in.Level}
	return nil
}

// ForecastOption tunes Forecast.
type ForecastOption func(*forecastConfig)

type forecastConfig struct {
	rng *rand.Rand
}

// WithNoise adds bounded random perturbation drawn from rng. A nil rng leaves
// the forecast noise-free.
func WithNoise(rng *rand.Rand) ForecastOption {
	return func(c *forecastConfig) { c.rng = rng }
}

// Trend is the single-step difference between the last two levels, or zero
// when there are fewer than two readings.
func Trend(history []WaterLevelReading) float64 {
	n := len(history)
	if n < 2 {
		return 0
	}
	return history[n-1].WaterLevel - history[n-2].WaterLevel
}

// Forecast extrapolates the last trend horizonDays ahead, one point per day.
// Predicted levels are floored at zero. An empty history is a validation
// error; a non-positive horizon yields an empty slice.
func Forecast(history []WaterLevelReading, horizonDays int, opts ...ForecastOption) ([]ForecastPoint, error) {
	if len(history) == 0 {
		return nil, newValidationError("history", "at least one reading is required")
	}
	if horizonDays <= 0 {
		return []ForecastPoint{}, nil
	}

	last := history[len(history)-1]
	trend := Trend(history)
	if math.IsNaN(last.WaterLevel) || math.IsInf(last.WaterLevel, 0) || math.IsNaN(trend) || math.IsInf(trend, 0) {
		return nil, newValidationError("water_level", "must be a finite number")
	}

	var cfg forecastConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	points := make([]ForecastPoint, 0, horizonDays)
	for d := 1; d <= horizonDays; d++ {
		level := last.WaterLevel + trend*float64(d)
		if cfg.rng != nil {
			level += (cfg.rng.Float64() - 0.5) * noiseSpan(d)
		}
		points = append(points, ForecastPoint{
			Date:  last.Timestamp.AddDate(0, 0, d),
			Level: math.Max(0, level),
		})
	}
	return points, nil
}

func noiseSpan(day int) float64 {
	if day <= nearNoiseUntil {
		return nearNoiseSpan
	}
	return farNoiseSpan
}
