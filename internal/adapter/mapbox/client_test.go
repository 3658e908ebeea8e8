package mapbox

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/station-telemetry-etl/internal/observability"
)

const (
	testToken         = "test-token"
	contentTypeJSON   = "application/json"
	headerContentType = "Content-Type"
)

const parisFeature = `{"features":[{
	"id":"place.8948",
	"place_type":["place"],
	"text":"Paris",
	"place_name":"Paris, Île-de-France, France",
	"context":[
		{"id":"region.13","text":"Île-de-France","short_code":"FR-IDF"},
		{"id":"country.8","text":"France","short_code":"fr"}
	]
}]}`

func testClient(baseURL string, timeout time.Duration) *Client {
	c := NewClient(testToken, timeout, observability.NewMetricsForTesting(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	c.baseURL = baseURL
	return c
}

func TestClient_ReverseGeocode_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "2.352200,48.856600")
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		assert.Equal(t, "place", r.URL.Query().Get("types"))
		assert.Equal(t, testToken, r.URL.Query().Get("access_token"))

		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write([]byte(parisFeature))
	}))
	defer srv.Close()

	c := testClient(srv.URL, 5*time.Second)
	result, err := c.ReverseGeocode(context.Background(), 48.8566, 2.3522)
	require.NoError(t, err)

	assert.Equal(t, "Paris", result.City)
	assert.Equal(t, "FR", result.Country)
	assert.Equal(t, "Paris", result.PlaceName)
	assert.Equal(t, "Paris, Île-de-France, France", result.FormattedAddress)
	assert.Equal(t, 1.0, testutil.ToFloat64(c.metrics.GeocodeRequests.WithLabelValues("success")))
}

func TestClient_ReverseGeocode_CountryFeature(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write([]byte(`{"features":[{"id":"country.1","text":"Iceland","place_name":"Iceland","properties":{"short_code":"is"}}]}`))
	}))
	defer srv.Close()

	result, err := testClient(srv.URL, 5*time.Second).ReverseGeocode(context.Background(), 64.9, -18.5)
	require.NoError(t, err)

	assert.Empty(t, result.City)
	assert.Equal(t, "IS", result.Country)
}

func TestClient_ReverseGeocode_NoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write([]byte(`{"features":[]}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL, 5*time.Second)
	result, err := c.ReverseGeocode(context.Background(), 0.5, -30)
	require.NoError(t, err)
	assert.Empty(t, result.City)
	assert.Equal(t, 1.0, testutil.ToFloat64(c.metrics.GeocodeRequests.WithLabelValues("empty")))
}

func TestClient_ReverseGeocode_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Not Authorized"}`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL, 5*time.Second).ReverseGeocode(context.Background(), 48.85, 2.35)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestClient_ReverseGeocode_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL, 50*time.Millisecond).ReverseGeocode(context.Background(), 48.85, 2.35)
	require.Error(t, err)
}

func TestClient_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := testClient(srv.URL, 5*time.Second)
	for i := 0; i < 5; i++ {
		_, err := c.ReverseGeocode(context.Background(), 48.85, 2.35)
		require.Error(t, err)
	}

	_, err := c.ReverseGeocode(context.Background(), 48.85, 2.35)
	require.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, int32(5), calls.Load())
	assert.Equal(t, 6.0, testutil.ToFloat64(c.metrics.GeocodeRequests.WithLabelValues("error")))
}
