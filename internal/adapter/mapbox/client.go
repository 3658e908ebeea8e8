package mapbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/couchcryptid/station-telemetry-etl/internal/domain"
	"github.com/couchcryptid/station-telemetry-etl/internal/observability"
)

// ErrUnavailable is returned while the circuit breaker is open.
var ErrUnavailable = errors.New("mapbox unavailable")

// Client implements domain.Geocoder using the Mapbox Geocoding API.
type Client struct {
	token      string
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
	breaker    *gobreaker.CircuitBreaker
}

// NewClient creates a Mapbox geocoding client. Five consecutive failures open
// the breaker for a minute.
func NewClient(token string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		token: token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: "https://api.mapbox.com/geocoding/v5/mapbox.places",
		metrics: metrics,
		logger:  logger,
		breaker: newBreaker(logger),
	}
}

func newBreaker(logger *slog.Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "mapbox",
		MaxRequests: 1,
		Interval:    5 * time.Minute,
		Timeout:     time.Minute,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
}

// ReverseGeocode resolves coordinates to a city and an upper-case ISO country
// code. An empty result is not an error.
func (c *Client) ReverseGeocode(ctx context.Context, lat, lon float64) (domain.GeocodingResult, error) {
	// Mapbox uses lon,lat order.
	coord := fmt.Sprintf("%.6f,%.6f", lon, lat)
	u := fmt.Sprintf("%s/%s.json", c.baseURL, coord)
	params := url.Values{
		"access_token": {c.token},
		"limit":        {"1"},
		"types":        {"place"},
	}

	out, err := c.breaker.Execute(func() (interface{}, error) {
		return c.doRequest(ctx, u+"?"+params.Encode())
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		c.metrics.GeocodeRequests.WithLabelValues("error").Inc()
		return domain.GeocodingResult{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	if err != nil {
		c.metrics.GeocodeRequests.WithLabelValues("error").Inc()
		return domain.GeocodingResult{}, err
	}

	result := out.(domain.GeocodingResult)
	if result.City == "" && result.Country == "" {
		c.metrics.GeocodeRequests.WithLabelValues("empty").Inc()
	} else {
		c.metrics.GeocodeRequests.WithLabelValues("success").Inc()
	}
	return result, nil
}

func (c *Client) doRequest(ctx context.Context, fullURL string) (domain.GeocodingResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return domain.GeocodingResult{}, fmt.Errorf("create request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.GeocodeAPIDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return domain.GeocodingResult{}, fmt.Errorf("reverse geocode request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.GeocodingResult{}, fmt.Errorf("mapbox API error: status %d: %s", resp.StatusCode, body)
	}

	var mapboxResp response
	if err := json.NewDecoder(resp.Body).Decode(&mapboxResp); err != nil {
		return domain.GeocodingResult{}, fmt.Errorf("decode response: %w", err)
	}

	if len(mapboxResp.Features) == 0 {
		return domain.GeocodingResult{}, nil
	}
	return mapboxResp.Features[0].result(), nil
}

// Mapbox API response types.

type response struct {
	Features []feature `json:"features"`
}

type feature struct {
	ID         string      `json:"id"` // "<type>.<n>"
	PlaceName  string      `json:"place_name"`
	Text       string      `json:"text"`
	Properties properties  `json:"properties"`
	Context    []component `json:"context"`
}

type properties struct {
	ShortCode string `json:"short_code"`
}

type component struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	ShortCode string `json:"short_code"`
}

func kind(id string) string {
	k, _, _ := strings.Cut(id, ".")
	return k
}

// result reads the city and country from the feature itself or from its
// context hierarchy.
func (f feature) result() domain.GeocodingResult {
	r := domain.GeocodingResult{
		PlaceName:        f.Text,
		FormattedAddress: f.PlaceName,
	}
	parts := append([]component{{ID: f.ID, Text: f.Text, ShortCode: f.Properties.ShortCode}}, f.Context...)
	for _, c := range parts {
		switch kind(c.ID) {
		case "place":
			if r.City == "" {
				r.City = c.Text
			}
		case "country":
			if r.Country == "" {
				r.Country = strings.ToUpper(c.ShortCode)
			}
		}
	}
	return r
}
