package domain

import (
	"fmt"
	"math"
)

// LevelStatus grades a station by its average water level.
type LevelStatus string

const (
	StatusGood     LevelStatus = "Good"
	StatusModerate LevelStatus = "Moderate"
	StatusLow      LevelStatus = "Low"
	StatusCritical LevelStatus = "Critical"
)

// AlertKind identifies an alert rule.
type AlertKind string

const (
	AlertLowLevel    AlertKind = "low_level"
	AlertLowRecharge AlertKind = "low_recharge"
)

const (
	// DefaultAlertWindow is the number of trailing readings checked for low recharge.
	DefaultAlertWindow = 7

	lowLevelM         = 2.0
	rainyWindowMinMM  = 5.0
	expectedRechargeM = 0.5
)

// LevelSummary aggregates a series.
type LevelSummary struct {
	Readings      int         `json:"readings"`
	AverageLevel  float64     `json:"average_level"`
	MinLevel      float64     `json:"min_level"`
	MaxLevel      float64     `json:"max_level"`
	TotalRainfall float64     `json:"total_rainfall"`
	Status        LevelStatus `json:"status,omitempty"`
}

// Alert is a rule that fired for a series.
type Alert struct {
	Kind    AlertKind `json:"kind"`
	Message string    `json:"message"`
}

// ClassifyLevel grades an average level in meters.
func ClassifyLevel(avg float64) LevelStatus {
	switch {
	case avg >= 6:
		return StatusGood
	case avg >= 4:
		return StatusModerate
	case avg >= 2:
		return StatusLow
	default:
		return StatusCritical
	}
}

// SummarizeLevels computes the average, range and rainfall of a series. An
// empty series yields a zero summary with no status.
func SummarizeLevels(readings []WaterLevelReading) LevelSummary {
	if len(readings) == 0 {
		return LevelSummary{}
	}
	sum := LevelSummary{
		Readings: len(readings),
		MinLevel: math.Inf(1),
		MaxLevel: math.Inf(-1),
	}
	var total float64
	for _, r := range readings {
		total += r.WaterLevel
		sum.TotalRainfall += r.RainfallMM()
		sum.MinLevel = math.Min(sum.MinLevel, r.WaterLevel)
		sum.MaxLevel = math.Max(sum.MaxLevel, r.WaterLevel)
	}
	sum.AverageLevel = total / float64(len(readings))
	sum.Status = ClassifyLevel(sum.AverageLevel)
	return sum
}

// DetectAlerts flags readings below 2 m across the whole series, and a rainy
// trailing window of windowDays readings in which the level barely rose.
func DetectAlerts(readings []WaterLevelReading, windowDays int) []Alert {
	alerts := []Alert{}

	low := 0
	for _, r := range readings {
		if r.WaterLevel < lowLevelM {
			low++
		}
	}
	if low > 0 {
		alerts = append(alerts, Alert{
			Kind:    AlertLowLevel,
			Message: fmt.Sprintf("low water level detected: %d readings below %g meters", low, lowLevelM),
		})
	}

	if windowDays <= 0 || len(readings) == 0 {
		return alerts
	}
	window := readings[max(0, len(readings)-windowDays):]
	var rain float64
	for _, r := range window {
		rain += r.RainfallMM()
	}
	avgRain := rain / float64(len(window))
	rise := window[len(window)-1].WaterLevel - window[0].WaterLevel
	if avgRain > rainyWindowMinMM && rise < expectedRechargeM {
		alerts = append(alerts, Alert{
			Kind:    AlertLowRecharge,
			Message: fmt.Sprintf("low recharge despite rainfall: %.1fmm average rainfall", avgRain),
		})
	}
	return alerts
}
