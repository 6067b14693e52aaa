package domain

// WaterSample is one water-quality observation from a monitoring station.
// DissolvedOxygen, PH and BOD are pointers so an absent measurement can be
// told apart from a zero reading.
type WaterSample struct {
	StationCode     string   `json:"station_code"`
	Location        string   `json:"location,omitempty"`
	State           string   `json:"state,omitempty"`
	Year            int      `json:"year,omitempty"`
	Temperature     float64  `json:"temperature"`      // °C
	DissolvedOxygen *float64 `json:"dissolved_oxygen"` // mg/L
	PH              *float64 `json:"ph"`
	Conductivity    float64  `json:"conductivity"`    // µmhos/cm
	BOD             *float64 `json:"bod"`             // mg/L
	NitrateNitrite  float64  `json:"nitrate_nitrite"` // mg/L
	FecalColiform   float64  `json:"fecal_coliform"`  // MPN/100mL
	TotalColiform   float64  `json:"total_coliform"`  // MPN/100mL
	Latitude        *float64 `json:"latitude,omitempty"`
	Longitude       *float64 `json:"longitude,omitempty"`
}

// Point returns the sample's coordinates when both are present.
func (s WaterSample) Point() (GeoPoint, bool) {
	return pointOf(s.Latitude, s.Longitude)
}

// GeoPoint is a WGS-84 latitude/longitude pair in degrees.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Station is a named monitoring site. Location is nil when the site has no
// known coordinates; such stations are never returned by FindNearest.
type Station struct {
	Code     string    `json:"code"`
	Name     string    `json:"name,omitempty"`
	State    string    `json:"state,omitempty"`
	Location *GeoPoint `json:"location,omitempty"`
}

// Float64 returns a pointer to v, for optional fields.
func Float64(v float64) *float64 { return &v }

func pointOf(lat, lng *float64) (GeoPoint, bool) {
	if lat == nil || lng == nil {
		return GeoPoint{}, false
	}
	return GeoPoint{Lat: *lat, Lng: *lng}, true
}
