package domain

import "context"

// Place is the administrative area around a coordinate.
type Place struct {
	Name             string  `json:"name,omitempty"`
	District         string  `json:"district,omitempty"`
	State            string  `json:"state,omitempty"`
	FormattedAddress string  `json:"formatted_address,omitempty"`
	Confidence       float64 `json:"confidence,omitempty"` // 0.0–1.0 provider relevance
}

// Empty reports whether the provider returned nothing for the point.
func (p Place) Empty() bool { return p.FormattedAddress == "" }

// ReverseGeocoder resolves coordinates to a place.
type ReverseGeocoder interface {
	ReverseGeocode(ctx context.Context, point GeoPoint) (Place, error)
}
