package analysis

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/aquawatch/groundwater-etl/internal/domain"
	"github.com/go-playground/validator/v10"
)

type catalogEntry struct {
	Code      string   `json:"code" validate:"required"`
	Name      string   `json:"name"`
	State     string   `json:"state"`
	Latitude  *float64 `json:"latitude" validate:"omitempty,min=-90,max=90"`
	Longitude *float64 `json:"longitude" validate:"omitempty,min=-180,max=180"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// LoadStations reads a JSON array of stations from path. An empty path
// returns fallback unchanged.
func LoadStations(path string, fallback []domain.Station) ([]domain.Station, error) {
	if path == "" {
		return fallback, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read station catalog: %w", err)
	}
	return ParseStations(data)
}

// ParseStations decodes and validates a station catalog. An entry with only
// one coordinate is kept without a location.
func ParseStations(data []byte) ([]domain.Station, error) {
	var entries []catalogEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode station catalog: %w", err)
	}

	out := make([]domain.Station, 0, len(entries))
	for i, e := range entries {
		if err := validate.Struct(e); err != nil {
			return nil, fmt.Errorf("station catalog entry %d: %w", i, err)
		}
		st := domain.Station{Code: e.Code, Name: e.Name, State: e.State}
		if e.Latitude != nil && e.Longitude != nil {
			st.Location = &domain.GeoPoint{Lat: *e.Latitude, Lng: *e.Longitude}
		}
		out = append(out, st)
	}
	return out, nil
}
