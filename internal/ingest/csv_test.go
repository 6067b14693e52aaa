package ingest

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReadings_CanonicalHeader(t *testing.T) {
	in := `timestamp,waterLevel,rainfall,temperature,stationId,latitude,longitude
2024-06-01,4.2,12.5,29.1,DWLR_PURI_007,19.81,85.83
2024-06-02,4.4,0,28.7,DWLR_PURI_007,19.81,85.83
`
	got, err := ParseReadings(strings.NewReader(in), "")
	require.NoError(t, err)
	require.Len(t, got, 2)

	r := got[0]
	assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), r.Timestamp)
	assert.InDelta(t, 4.2, r.WaterLevel, 1e-12)
	require.NotNil(t, r.Rainfall)
	assert.InDelta(t, 12.5, *r.Rainfall, 1e-12)
	require.NotNil(t, r.Temperature)
	assert.InDelta(t, 29.1, *r.Temperature, 1e-12)
	assert.Equal(t, "DWLR_PURI_007", r.StationID)
	p, ok := r.Point()
	require.True(t, ok)
	assert.InDelta(t, 19.81, p.Lat, 1e-12)
	assert.InDelta(t, 85.83, p.Lng, 1e-12)
}

func TestParseReadings_Aliases(t *testing.T) {
	in := "\uFEFFDate, Level ,Rain,Temp,Station,Lat,Lon\n" +
		"2024-06-01,3.1,,,,,\n" +
		"06/02/2024,3.3,4,,S2,10.5,76.2\n"

	got, err := ParseReadings(strings.NewReader(in), "KOCHI")
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "KOCHI", got[0].StationID)
	assert.Nil(t, got[0].Rainfall)
	assert.Nil(t, got[0].Temperature)
	_, ok := got[0].Point()
	assert.False(t, ok)

	assert.Equal(t, time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC), got[1].Timestamp)
	assert.Equal(t, "S2", got[1].StationID)
	require.NotNil(t, got[1].Rainfall)
	assert.InDelta(t, 4.0, *got[1].Rainfall, 1e-12)
}

func TestParseReadings_SkipsBadRows(t *testing.T) {
	in := `time,water_level
2024-06-01,5.0
not-a-date,5.1
2024-06-03,
2024-06-04,abc
2024-06-05,NaN
2024-06-06,5.4,extra
2024-06-07
`
	got, err := ParseReadings(strings.NewReader(in), "")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, DefaultStationID, got[0].StationID)
	assert.Equal(t, 1, got[0].Timestamp.Day())
	assert.Equal(t, 6, got[1].Timestamp.Day())
}

func TestParseReadings_NoValidRows(t *testing.T) {
	tests := map[string]string{
		"empty file":       "",
		"header only":      "timestamp,waterLevel\n",
		"all rows invalid": "timestamp,waterLevel\nx,1\n2024-01-01,y\n",
		"missing level":    "timestamp,rainfall\n2024-01-01,3\n",
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseReadings(strings.NewReader(in), "")
			assert.True(t, errors.Is(err, ErrNoValidRows), "got %v", err)
		})
	}
}

func TestGroupByStation(t *testing.T) {
	in := `date,level,station
2024-06-01,1,B
2024-06-01,2,A
2024-06-02,3,B
2024-06-02,4,A
`
	readings, err := ParseReadings(strings.NewReader(in), "")
	require.NoError(t, err)

	got := GroupByStation(readings)
	require.Len(t, got, 2)
	assert.Equal(t, "B", got[0].StationID)
	require.Len(t, got[0].Readings, 2)
	assert.InDelta(t, 1.0, got[0].Readings[0].WaterLevel, 1e-12)
	assert.InDelta(t, 3.0, got[0].Readings[1].WaterLevel, 1e-12)
	assert.Equal(t, "A", got[1].StationID)
	assert.InDelta(t, 4.0, got[1].Readings[1].WaterLevel, 1e-12)
}
