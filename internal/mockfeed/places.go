package mockfeed

import (
	"fmt"

	"github.com/aquawatch/groundwater-etl/internal/domain"
)

// Region is a named area with an approximate centroid.
type Region struct {
	Name  string
	State string
	At    domain.GeoPoint
}

// States lists Indian states and union territories with approximate centroids.
var States = []Region{
	{Name: "Andhra Pradesh", At: domain.GeoPoint{Lat: 15.9129, Lng: 79.7400}},
	{Name: "Arunachal Pradesh", At: domain.GeoPoint{Lat: 28.2180, Lng: 94.7278}},
	{Name: "Assam", At: domain.GeoPoint{Lat: 26.2006, Lng: 92.9376}},
	{Name: "Bihar", At: domain.GeoPoint{Lat: 25.0961, Lng: 85.3131}},
	{Name: "Chhattisgarh", At: domain.GeoPoint{Lat: 21.2787, Lng: 81.8661}},
	{Name: "Goa", At: domain.GeoPoint{Lat: 15.2993, Lng: 74.1240}},
	{Name: "Gujarat", At: domain.GeoPoint{Lat: 23.0225, Lng: 72.5714}},
	{Name: "Haryana", At: domain.GeoPoint{Lat: 29.0588, Lng: 76.0856}},
	{Name: "Himachal Pradesh", At: domain.GeoPoint{Lat: 31.1048, Lng: 77.1734}},
	{Name: "Jharkhand", At: domain.GeoPoint{Lat: 23.6102, Lng: 85.2799}},
	{Name: "Karnataka", At: domain.GeoPoint{Lat: 15.3173, Lng: 75.7139}},
	{Name: "Kerala", At: domain.GeoPoint{Lat: 10.8505, Lng: 76.2711}},
	{Name: "Madhya Pradesh", At: domain.GeoPoint{Lat: 22.9734, Lng: 78.6569}},
	{Name: "Maharashtra", At: domain.GeoPoint{Lat: 19.7515, Lng: 75.7139}},
	{Name: "Manipur", At: domain.GeoPoint{Lat: 24.6637, Lng: 93.9063}},
	{Name: "Meghalaya", At: domain.GeoPoint{Lat: 25.4670, Lng: 91.3662}},
	{Name: "Mizoram", At: domain.GeoPoint{Lat: 23.1645, Lng: 92.9376}},
	{Name: "Nagaland", At: domain.GeoPoint{Lat: 26.1584, Lng: 94.5624}},
	{Name: "Odisha", At: domain.GeoPoint{Lat: 20.9517, Lng: 85.0985}},
	{Name: "Punjab", At: domain.GeoPoint{Lat: 31.1471, Lng: 75.3412}},
	{Name: "Rajasthan", At: domain.GeoPoint{Lat: 27.0238, Lng: 74.2179}},
	{Name: "Sikkim", At: domain.GeoPoint{Lat: 27.5330, Lng: 88.5122}},
	{Name: "Tamil Nadu", At: domain.GeoPoint{Lat: 11.1271, Lng: 78.6569}},
	{Name: "Telangana", At: domain.GeoPoint{Lat: 18.1124, Lng: 79.0193}},
	{Name: "Tripura", At: domain.GeoPoint{Lat: 23.9408, Lng: 91.9882}},
	{Name: "Uttar Pradesh", At: domain.GeoPoint{Lat: 26.8467, Lng: 80.9462}},
	{Name: "Uttarakhand", At: domain.GeoPoint{Lat: 30.0668, Lng: 79.0193}},
	{Name: "West Bengal", At: domain.GeoPoint{Lat: 22.9868, Lng: 87.8550}},
	{Name: "Delhi", At: domain.GeoPoint{Lat: 28.7041, Lng: 77.1025}},
	{Name: "Puducherry", At: domain.GeoPoint{Lat: 11.9416, Lng: 79.8083}},
	{Name: "Chandigarh", At: domain.GeoPoint{Lat: 30.7333, Lng: 76.7794}},
	{Name: "Jammu and Kashmir", At: domain.GeoPoint{Lat: 34.0837, Lng: 74.7973}},
	{Name: "Ladakh", At: domain.GeoPoint{Lat: 34.1526, Lng: 77.5771}},
}

// Districts are the DWLR districts the feed cycles through.
var Districts = []Region{
	{Name: "Kutch", State: "Gujarat", At: domain.GeoPoint{Lat: 23.7337, Lng: 69.8597}},
	{Name: "Jaipur", State: "Rajasthan", At: domain.GeoPoint{Lat: 26.9124, Lng: 75.7873}},
	{Name: "Pune", State: "Maharashtra", At: domain.GeoPoint{Lat: 18.5204, Lng: 73.8567}},
	{Name: "Mysuru", State: "Karnataka", At: domain.GeoPoint{Lat: 12.2958, Lng: 76.6394}},
	{Name: "Madurai", State: "Tamil Nadu", At: domain.GeoPoint{Lat: 9.9252, Lng: 78.1198}},
}

var locations = []string{
	"Central Station", "North Station", "South Station", "East Station", "West Station",
	"Industrial Area", "Residential Zone", "Agricultural Zone", "Rural Station", "Urban Station",
}

// StateStations is the default station catalog: one reference station at
// each state centroid.
func StateStations() []domain.Station {
	out := make([]domain.Station, len(States))
	for i, s := range States {
		at := s.At
		out[i] = domain.Station{
			Code:     fmt.Sprintf("CGWB%02d", i+1),
			Name:     s.Name + " reference well",
			State:    s.Name,
			Location: &at,
		}
	}
	return out
}
