package mapbox

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aquawatch/groundwater-etl/internal/domain"
	"github.com/aquawatch/groundwater-etl/internal/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testToken         = "test-token"
	contentTypeJSON   = "application/json"
	headerContentType = "Content-Type"
)

func testMetrics() *observability.Metrics {
	return observability.NewMetricsForTesting()
}

func testClient(baseURL string) *Client {
	return &Client{
		token:      testToken,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		baseURL:    baseURL,
		metrics:    testMetrics(),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestClient_ReverseGeocode_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/73.856700,18.520400.json", r.URL.Path)
		assert.False(t, r.URL.Query().Has("limit"), "limit is only valid with a single type")
		assert.Equal(t, "place,locality,district", r.URL.Query().Get("types"))
		assert.Equal(t, testToken, r.URL.Query().Get("access_token"))

		resp := response{
			Features: []feature{
				{
					ID:        "place.2918",
					PlaceName: "Pune, Pune, Maharashtra, India",
					Text:      "Pune",
					Relevance: 0.98,
					Context: []contextEntry{
						{ID: "district.1191", Text: "Pune"},
						{ID: "region.9223", Text: "Maharashtra"},
						{ID: "country.8780", Text: "India"},
					},
				},
			},
		}
		w.Header().Set(headerContentType, contentTypeJSON)
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	place, err := c.ReverseGeocode(context.Background(), pune)
	require.NoError(t, err)

	assert.Equal(t, domain.Place{
		Name:             "Pune",
		District:         "Pune",
		State:            "Maharashtra",
		FormattedAddress: "Pune, Pune, Maharashtra, India",
		Confidence:       0.98,
	}, place)
	assert.InDelta(t, 1, testutil.ToFloat64(c.metrics.GeocodeRequests.WithLabelValues("success")), 1e-12)
}

func TestClient_ReverseGeocode_DistrictFeature(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write([]byte(`{"features":[{"id":"district.77","text":"Kachchh","place_name":"Kachchh, Gujarat, India","relevance":1,
			"context":[{"id":"region.5","text":"Gujarat"}]}]}`))
	}))
	defer srv.Close()

	place, err := testClient(srv.URL).ReverseGeocode(context.Background(), domain.GeoPoint{Lat: 23.73, Lng: 69.86})
	require.NoError(t, err)
	assert.Equal(t, "Kachchh", place.District)
	assert.Equal(t, "Gujarat", place.State)
}

func TestClient_ReverseGeocode_TakesFirstOfSeveralFeatures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write([]byte(`{"features":[
			{"id":"locality.11","text":"Kothrud","place_name":"Kothrud, Pune, Maharashtra, India","relevance":1,
			 "context":[{"id":"district.1191","text":"Pune"},{"id":"region.9223","text":"Maharashtra"}]},
			{"id":"place.2918","text":"Pune","place_name":"Pune, Maharashtra, India","relevance":1,
			 "context":[{"id":"region.9223","text":"Maharashtra"}]},
			{"id":"district.1191","text":"Pune","place_name":"Pune, Maharashtra, India","relevance":1}
		]}`))
	}))
	defer srv.Close()

	place, err := testClient(srv.URL).ReverseGeocode(context.Background(), pune)
	require.NoError(t, err)
	assert.Equal(t, "Kothrud", place.Name)
	assert.Equal(t, "Pune", place.District)
	assert.Equal(t, "Maharashtra", place.State)
}

func TestClient_ReverseGeocode_NoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(headerContentType, contentTypeJSON)
		require.NoError(t, json.NewEncoder(w).Encode(response{Features: []feature{}}))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	place, err := c.ReverseGeocode(context.Background(), domain.GeoPoint{Lat: 0, Lng: -30})
	require.NoError(t, err)
	assert.True(t, place.Empty())
	assert.InDelta(t, 1, testutil.ToFloat64(c.metrics.GeocodeRequests.WithLabelValues("empty")), 1e-12)
}

func TestClient_ReverseGeocode_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Not Authorized"}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	c.token = "bad-token"

	_, err := c.ReverseGeocode(context.Background(), pune)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.InDelta(t, 1, testutil.ToFloat64(c.metrics.GeocodeRequests.WithLabelValues("error")), 1e-12)
}

func TestClient_ReverseGeocode_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	c.httpClient.Timeout = 50 * time.Millisecond

	_, err := c.ReverseGeocode(context.Background(), pune)
	require.Error(t, err)
}

func TestClient_ReverseGeocode_BadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"features":`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).ReverseGeocode(context.Background(), pune)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode response")
}

func TestNewClient(t *testing.T) {
	c := NewClient(testToken, 3*time.Second, testMetrics(), slog.Default())
	assert.Equal(t, defaultBaseURL, c.baseURL)
	assert.Equal(t, 3*time.Second, c.httpClient.Timeout)
}
