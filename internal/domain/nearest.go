package domain

import "math"

const (
	// EarthRadiusKm is the mean radius used for great-circle distances.
	EarthRadiusKm = 6371.0

	// DefaultSearchRadiusKm bounds FindNearest when no radius is configured.
	DefaultSearchRadiusKm = 25.0
)

// StationMatch is a station together with its distance from the query point.
type StationMatch struct {
	Station    Station `json:"station"`
	DistanceKm float64 `json:"distance_km"`
}

// HaversineKm returns the great-circle distance between two points.
func HaversineKm(a, b GeoPoint) float64 {
	lat1 := radians(a.Lat)
	lat2 := radians(b.Lat)
	dLat := radians(b.Lat - a.Lat)
	dLng := radians(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * EarthRadiusKm * math.Asin(math.Min(1, math.Sqrt(h)))
}

// FindNearest scans stations for the one closest to point. Stations without
// coordinates are skipped. The radius is inclusive. On equal distances the
// station seen first wins.
func FindNearest(point GeoPoint, stations []Station, maxRadiusKm float64) (StationMatch, bool) {
	best := -1
	bestDist := math.Inf(1)
	for i, s := range stations {
		if s.Location == nil {
			continue
		}
		if d := HaversineKm(point, *s.Location); d < bestDist {
			best, bestDist = i, d
		}
	}
	if best < 0 || bestDist > maxRadiusKm {
		return StationMatch{}, false
	}
	return StationMatch{Station: stations[best], DistanceKm: bestDist}, true
}

// StationsFromSamples derives one station per station code, keeping the first
// sample that carries coordinates. Order follows first appearance.
func StationsFromSamples(samples []WaterSample) []Station {
	index := make(map[string]int, len(samples))
	var out []Station
	for _, s := range samples {
		i, seen := index[s.StationCode]
		if !seen {
			index[s.StationCode] = len(out)
			out = append(out, Station{Code: s.StationCode, Name: s.Location, State: s.State})
			i = len(out) - 1
		}
		if out[i].Location != nil {
			continue
		}
		if p, ok := s.Point(); ok {
			out[i].Location = &p
		}
	}
	return out
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }
