package domain

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

// --- mocks ---

type mockGeocoder struct {
	result GeocodingResult
	err    error
	calls  int
}

func (m *mockGeocoder) ReverseGeocode(_ context.Context, _, _ float64) (GeocodingResult, error) {
	m.calls++
	return m.result, m.err
}

type fixedLimiter bool

func (f fixedLimiter) Allow(_, _ string) bool { return bool(f) }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func locatedStation() Station {
	return Station{
		ID:    "30:00:00:00:00:07",
		Place: Place{Location: [2]float64{-97.7431, 30.2672}},
	}
}

// --- tests ---

func TestEnrichPlace_NilGeocoder(t *testing.T) {
	s, changed := EnrichPlace(context.Background(), locatedStation(), nil, nil, discardLogger())

	assert.False(t, changed)
	assert.Empty(t, s.Place.City)
}

func TestEnrichPlace_FillsMissingFields(t *testing.T) {
	geo := &mockGeocoder{result: GeocodingResult{City: "Austin", Country: "US"}}

	s, changed := EnrichPlace(context.Background(), locatedStation(), geo, fixedLimiter(true), discardLogger())

	assert.True(t, changed)
	assert.Equal(t, "Austin", s.Place.City)
	assert.Equal(t, "US", s.Place.Country)
	assert.Equal(t, 1, geo.calls)
}

func TestEnrichPlace_KeepsProviderValues(t *testing.T) {
	geo := &mockGeocoder{result: GeocodingResult{City: "Round Rock", Country: "US"}}
	in := locatedStation()
	in.Place.City = "Austin"

	s, changed := EnrichPlace(context.Background(), in, geo, nil, discardLogger())

	assert.True(t, changed)
	assert.Equal(t, "Austin", s.Place.City)
	assert.Equal(t, "US", s.Place.Country)
}

func TestEnrichPlace_NothingMissing(t *testing.T) {
	geo := &mockGeocoder{}
	in := locatedStation()
	in.Place.City, in.Place.Country = "Austin", "US"

	_, changed := EnrichPlace(context.Background(), in, geo, nil, discardLogger())

	assert.False(t, changed)
	assert.Equal(t, 0, geo.calls)
}

func TestEnrichPlace_NotLocated(t *testing.T) {
	geo := &mockGeocoder{}

	_, changed := EnrichPlace(context.Background(), Station{ID: "x"}, geo, nil, discardLogger())

	assert.False(t, changed)
	assert.Equal(t, 0, geo.calls)
}

func TestEnrichPlace_RateLimited(t *testing.T) {
	geo := &mockGeocoder{result: GeocodingResult{City: "Austin"}}

	_, changed := EnrichPlace(context.Background(), locatedStation(), geo, fixedLimiter(false), discardLogger())

	assert.False(t, changed)
	assert.Equal(t, 0, geo.calls)
}

func TestEnrichPlace_ErrorGracefulDegradation(t *testing.T) {
	geo := &mockGeocoder{err: errors.New("rate limited")}

	s, changed := EnrichPlace(context.Background(), locatedStation(), geo, nil, discardLogger())

	assert.False(t, changed)
	assert.Empty(t, s.Place.City)
	assert.Equal(t, 30.2672, s.Place.Latitude())
}
