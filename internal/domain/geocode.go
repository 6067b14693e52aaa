package domain

import (
	"context"
	"log/slog"
)

// GeoSource records how a series' place was resolved.
type GeoSource string

const (
	GeoSourceReverse  GeoSource = "reverse"  // provider returned a place
	GeoSourceOriginal GeoSource = "original" // nothing to add
	GeoSourceFailed   GeoSource = "failed"   // provider error
)

// ResolvePlace reverse-geocodes point. A nil geocoder, an empty answer or a
// provider error never fail the caller; the returned source says which one
// happened.
func ResolvePlace(ctx context.Context, point GeoPoint, geocoder ReverseGeocoder, logger *slog.Logger) (*Place, GeoSource) {
	if geocoder == nil {
		return nil, GeoSourceOriginal
	}
	place, err := geocoder.ReverseGeocode(ctx, point)
	if err != nil {
		logger.Warn("reverse geocoding failed",
			"lat", point.Lat,
			"lng", point.Lng,
			"error", err,
		)
		return nil, GeoSourceFailed
	}
	if place.Empty() {
		return nil, GeoSourceOriginal
	}
	return &place, GeoSourceReverse
}
