package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DayLayout is the wire format for reading and forecast dates.
const DayLayout = "2006-01-02"

// dayLayouts are tried in order by ParseDay. Slash dates are month-first.
var dayLayouts = []string{
	DayLayout,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006/01/02",
	"01/02/2006",
}

// ParseDay parses a date or timestamp and truncates it to midnight UTC.
func ParseDay(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dayLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Day(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// Day truncates t to midnight UTC of its calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// WaterLevelReading is one DWLR observation at day granularity.
type WaterLevelReading struct {
	Timestamp   time.Time
	WaterLevel  float64  // meters
	Rainfall    *float64 // mm
	Temperature *float64 // °C
	StationID   string
	Latitude    *float64
	Longitude   *float64
}

// RainfallMM returns the rainfall, treating an unreported value as zero.
func (r WaterLevelReading) RainfallMM() float64 {
	if r.Rainfall == nil {
		return 0
	}
	return *r.Rainfall
}

// Point returns the reading's coordinates when both are present.
func (r WaterLevelReading) Point() (GeoPoint, bool) {
	return pointOf(r.Latitude, r.Longitude)
}

type readingJSON struct {
	Timestamp   string   `json:"timestamp"`
	WaterLevel  *float64 `json:"water_level"`
	Rainfall    *float64 `json:"rainfall,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
	StationID   string   `json:"station_id,omitempty"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
}

func (r WaterLevelReading) MarshalJSON() ([]byte, error) {
	level := r.WaterLevel
	return json.Marshal(readingJSON{
		Timestamp:   r.Timestamp.Format(DayLayout),
		WaterLevel:  &level,
		Rainfall:    r.Rainfall,
		Temperature: r.Temperature,
		StationID:   r.StationID,
		Latitude:    r.Latitude,
		Longitude:   r.Longitude,
	})
}

func (r *WaterLevelReading) UnmarshalJSON(data []byte) error {
	var in readingJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	ts, err := ParseDay(in.Timestamp)
	if err != nil {
		return newValidationError("timestamp", err.Error())
	}
	if in.WaterLevel == nil {
		return newValidationError("water_level", "required")
	}
	*r = WaterLevelReading{
		Timestamp:   ts,
		WaterLevel:  *in.WaterLevel,
		Rainfall:    in.Rainfall,
		Temperature: in.Temperature,
		StationID:   in.StationID,
		Latitude:    in.Latitude,
		Longitude:   in.Longitude,
	}
	return nil
}

// Series is one station's ordered run of readings.
type Series struct {
	StationID string              `json:"station_id"`
	District  string              `json:"district,omitempty"`
	State     string              `json:"state,omitempty"`
	Latitude  *float64            `json:"latitude,omitempty"`
	Longitude *float64            `json:"longitude,omitempty"`
	Readings  []WaterLevelReading `json:"readings"`
}

// Point returns the series coordinates, falling back to the most recent
// reading that carries them.
func (s Series) Point() (GeoPoint, bool) {
	if p, ok := pointOf(s.Latitude, s.Longitude); ok {
		return p, true
	}
	for i := len(s.Readings) - 1; i >= 0; i-- {
		if p, ok := s.Readings[i].Point(); ok {
			return p, true
		}
	}
	return GeoPoint{}, false
}
