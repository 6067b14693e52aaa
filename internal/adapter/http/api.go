package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/aquawatch/groundwater-etl/internal/analysis"
	"github.com/aquawatch/groundwater-etl/internal/domain"
	"github.com/aquawatch/groundwater-etl/internal/ingest"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/go-playground/validator/v10"
)

const maxBodyBytes = 8 << 20

type sampleRequest struct {
	StationCode     string   `json:"station_code" validate:"required"`
	Location        string   `json:"location"`
	State           string   `json:"state"`
	Year            int      `json:"year" validate:"omitempty,gte=1900,lte=2100"`
	Temperature     float64  `json:"temperature"`
	DissolvedOxygen *float64 `json:"dissolved_oxygen" validate:"required,gte=0"`
	PH              *float64 `json:"ph" validate:"required,gte=0,lte=14"`
	Conductivity    float64  `json:"conductivity" validate:"gte=0"`
	BOD             *float64 `json:"bod" validate:"required,gte=0"`
	NitrateNitrite  float64  `json:"nitrate_nitrite" validate:"gte=0"`
	FecalColiform   float64  `json:"fecal_coliform" validate:"gte=0"`
	TotalColiform   float64  `json:"total_coliform" validate:"gte=0"`
	Latitude        *float64 `json:"latitude" validate:"omitempty,min=-90,max=90"`
	Longitude       *float64 `json:"longitude" validate:"omitempty,min=-180,max=180"`
}

func (r sampleRequest) sample() domain.WaterSample {
	return domain.WaterSample{
		StationCode:     r.StationCode,
		Location:        r.Location,
		State:           r.State,
		Year:            r.Year,
		Temperature:     r.Temperature,
		DissolvedOxygen: r.DissolvedOxygen,
		PH:              r.PH,
		Conductivity:    r.Conductivity,
		BOD:             r.BOD,
		NitrateNitrite:  r.NitrateNitrite,
		FecalColiform:   r.FecalColiform,
		TotalColiform:   r.TotalColiform,
		Latitude:        r.Latitude,
		Longitude:       r.Longitude,
	}
}

type trendRequest struct {
	Samples []domain.WaterSample `json:"samples" validate:"required,min=1"`
}

type trendResponse struct {
	Parameter domain.QualityParameter `json:"parameter"`
	Years     []domain.YearAverage    `json:"years"`
	Stations  []domain.Station        `json:"stations"`
}

type seriesRequest struct {
	StationID string                     `json:"station_id" validate:"required"`
	District  string                     `json:"district"`
	State     string                     `json:"state"`
	Latitude  *float64                   `json:"latitude" validate:"omitempty,min=-90,max=90"`
	Longitude *float64                   `json:"longitude" validate:"omitempty,min=-180,max=180"`
	Readings  []domain.WaterLevelReading `json:"readings" validate:"required,min=1"`
}

type nearestQuery struct {
	Lat      float64 `json:"lat" validate:"min=-90,max=90"`
	Lng      float64 `json:"lng" validate:"min=-180,max=180"`
	RadiusKm float64 `json:"radius_km" validate:"gt=0"`
}

func (s *Server) handleAssess(w http.ResponseWriter, r *http.Request) {
	var req sampleRequest
	if !s.decode(w, r, &req) {
		return
	}
	res, err := s.analyzer.AssessSample(req.sample())
	if err != nil {
		s.writeError(w, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, res)
}

func (s *Server) handleTrend(w http.ResponseWriter, r *http.Request) {
	param := domain.QualityParameter(r.URL.Query().Get("parameter"))
	var req trendRequest
	if !s.decode(w, r, &req) {
		return
	}
	years, err := domain.YearlyTrend(req.Samples, param)
	if err != nil {
		s.writeError(w, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, trendResponse{
		Parameter: param,
		Years:     years,
		Stations:  domain.StationsFromSamples(req.Samples),
	})
}

// handleAnalyze accepts a JSON series or a DWLR CSV upload. A CSV may hold
// several stations, so it always answers with an array.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "text/csv" {
		s.analyzeCSV(w, r)
		return
	}

	var req seriesRequest
	if !s.decode(w, r, &req) {
		return
	}
	res, err := s.analyzer.AnalyzeSeries(r.Context(), domain.Series{
		StationID: req.StationID,
		District:  req.District,
		State:     req.State,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		Readings:  req.Readings,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, res)
}

func (s *Server) analyzeCSV(w http.ResponseWriter, r *http.Request) {
	readings, err := ingest.ParseReadings(http.MaxBytesReader(w, r.Body, maxBodyBytes), r.URL.Query().Get("station_id"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	series := ingest.GroupByStation(readings)
	out := make([]analysis.SeriesAnalysis, 0, len(series))
	for _, one := range series {
		res, err := s.analyzer.AnalyzeSeries(r.Context(), one)
		if err != nil {
			s.writeError(w, err)
			return
		}
		out = append(out, res)
	}
	sharedobs.WriteJSON(w, http.StatusOK, out)
}

func (s *Server) handleNearest(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lat, errLat := strconv.ParseFloat(q.Get("lat"), 64)
	lng, errLng := strconv.ParseFloat(q.Get("lng"), 64)
	if err := errors.Join(errLat, errLng); err != nil || math.IsNaN(lat) || math.IsNaN(lng) {
		sharedobs.WriteJSON(w, http.StatusBadRequest, errorBody("lat and lng must be numbers"))
		return
	}
	query := nearestQuery{Lat: lat, Lng: lng, RadiusKm: s.analyzer.RadiusKm()}
	if v := q.Get("radius_km"); v != "" {
		radius, err := strconv.ParseFloat(v, 64)
		if err != nil {
			sharedobs.WriteJSON(w, http.StatusBadRequest, errorBody("radius_km must be a number"))
			return
		}
		query.RadiusKm = radius
	}
	if err := s.validate.Struct(query); err != nil {
		s.writeError(w, err)
		return
	}

	match, ok := domain.FindNearest(domain.GeoPoint{Lat: query.Lat, Lng: query.Lng}, s.analyzer.Stations(), query.RadiusKm)
	if !ok {
		sharedobs.WriteJSON(w, http.StatusNotFound, errorBody(fmt.Sprintf("no station within %g km", query.RadiusKm)))
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, match)
}

// decode reads a JSON body into v and validates it, writing a 400 on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		if errors.Is(err, domain.ErrValidation) {
			s.writeError(w, err)
			return false
		}
		sharedobs.WriteJSON(w, http.StatusBadRequest, errorBody("malformed JSON body: "+err.Error()))
		return false
	}
	if err := s.validate.Struct(v); err != nil {
		s.writeError(w, err)
		return false
	}
	return true
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	var fieldErrs validator.ValidationErrors
	switch {
	case errors.As(err, &fieldErrs):
		fields := make(map[string]string, len(fieldErrs))
		for _, fe := range fieldErrs {
			fields[fe.Field()] = fe.Tag()
		}
		sharedobs.WriteJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid request", "fields": fields})
	case errors.Is(err, domain.ErrValidation), errors.Is(err, ingest.ErrNoValidRows):
		sharedobs.WriteJSON(w, http.StatusBadRequest, errorBody(err.Error()))
	default:
		s.logger.Error("api request failed", "error", err)
		sharedobs.WriteJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}

func errorBody(msg string) map[string]string {
	return map[string]string{"error": msg}
}

// instrument counts requests by route and status code and records their latency.
func (s *Server) instrument(route string, h http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		h(rec, r)
		s.metrics.APIRequests.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
		s.metrics.APIRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
