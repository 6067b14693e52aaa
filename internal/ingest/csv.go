// Package ingest turns uploaded DWLR CSV files into water level readings.
//
// Headers are matched case-insensitively against a set of aliases, so files
// exported by different recorder vendors load without a mapping step:
//
//	timestamp    timestamp, date, time
//	water level  waterlevel, water_level, level
//	rainfall     rainfall, rain
//	temperature  temperature, temp
//	station      stationid, station_id, station
//	latitude     latitude, lat
//	longitude    longitude, lng, lon
//
// Rows whose timestamp does not parse or whose level is not numeric are
// skipped. Readings keep the file's row order.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/aquawatch/groundwater-etl/internal/domain"
)

// DefaultStationID labels rows that carry no station column.
const DefaultStationID = "DWLR001"

// ErrNoValidRows is returned when a file has no usable reading.
var ErrNoValidRows = errors.New("no valid rows found")

type column int

const (
	colTimestamp column = iota
	colLevel
	colRainfall
	colTemperature
	colStation
	colLatitude
	colLongitude
	numColumns
)

var aliases = map[string]column{
	"timestamp":   colTimestamp,
	"date":        colTimestamp,
	"time":        colTimestamp,
	"waterlevel":  colLevel,
	"water_level": colLevel,
	"level":       colLevel,
	"rainfall":    colRainfall,
	"rain":        colRainfall,
	"temperature": colTemperature,
	"temp":        colTemperature,
	"stationid":   colStation,
	"station_id":  colStation,
	"station":     colStation,
	"latitude":    colLatitude,
	"lat":         colLatitude,
	"longitude":   colLongitude,
	"lng":         colLongitude,
	"lon":         colLongitude,
}

// ParseReadings reads a CSV with a header row. Rows without a station column
// are attributed to defaultStation, or DefaultStationID when that is empty.
func ParseReadings(r io.Reader, defaultStation string) ([]domain.WaterLevelReading, error) {
	if defaultStation == "" {
		defaultStation = DefaultStationID
	}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoValidRows
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	index := mapHeader(header)
	if index[colTimestamp] < 0 || index[colLevel] < 0 {
		return nil, fmt.Errorf("header must name a timestamp and a water level column: %w", ErrNoValidRows)
	}

	var out []domain.WaterLevelReading
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		if reading, ok := parseRow(rec, index, defaultStation); ok {
			out = append(out, reading)
		}
	}

	if len(out) == 0 {
		return nil, ErrNoValidRows
	}
	return out, nil
}

// GroupByStation splits readings per station, preserving row order within
// each station. Stations are returned in order of first appearance.
func GroupByStation(readings []domain.WaterLevelReading) []domain.Series {
	index := make(map[string]int)
	var out []domain.Series
	for _, r := range readings {
		i, ok := index[r.StationID]
		if !ok {
			i = len(out)
			index[r.StationID] = i
			out = append(out, domain.Series{StationID: r.StationID})
		}
		out[i].Readings = append(out[i].Readings, r)
	}
	return out
}

func mapHeader(header []string) [numColumns]int {
	var index [numColumns]int
	for i := range index {
		index[i] = -1
	}
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\uFEFF")))
		if col, ok := aliases[name]; ok && index[col] < 0 {
			index[col] = i
		}
	}
	return index
}

func parseRow(rec []string, index [numColumns]int, defaultStation string) (domain.WaterLevelReading, bool) {
	ts, err := domain.ParseDay(field(rec, index[colTimestamp]))
	if err != nil {
		return domain.WaterLevelReading{}, false
	}
	level, ok := parseNumber(field(rec, index[colLevel]))
	if !ok {
		return domain.WaterLevelReading{}, false
	}

	station := field(rec, index[colStation])
	if station == "" {
		station = defaultStation
	}
	return domain.WaterLevelReading{
		Timestamp:   ts,
		WaterLevel:  level,
		Rainfall:    optionalNumber(field(rec, index[colRainfall])),
		Temperature: optionalNumber(field(rec, index[colTemperature])),
		StationID:   station,
		Latitude:    optionalNumber(field(rec, index[colLatitude])),
		Longitude:   optionalNumber(field(rec, index[colLongitude])),
	}, true
}

func field(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func parseNumber(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func optionalNumber(s string) *float64 {
	f, ok := parseNumber(s)
	if !ok {
		return nil
	}
	return &f
}
