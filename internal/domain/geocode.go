package domain

import (
	"context"
	"log/slog"
)

// GeocodingResult is what a reverse geocoder knows about a coordinate pair.
type GeocodingResult struct {
	City             string
	Country          string // ISO 3166-1 alpha-2, upper case
	PlaceName        string
	FormattedAddress string
}

// Geocoder resolves coordinates to a place.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, lat, lon float64) (GeocodingResult, error)
}

// EnrichPlace fills a missing city or country of a located station through
// geocoder. The lookup is skipped when geocoder is nil, when the station has
// nothing missing or no coordinates, or when limiter refuses the call.
// Failures leave the station untouched (graceful degradation). The returned
// bool reports whether any field changed.
func EnrichPlace(ctx context.Context, s Station, geocoder Geocoder, limiter RateLimiter, logger *slog.Logger) (Station, bool) {
	if geocoder == nil || !s.Place.Located() {
		return s, false
	}
	if s.Place.City != "" && s.Place.Country != "" {
		return s, false
	}
	if limiter != nil && !limiter.Allow("mapbox", "reverse") {
		logger.Debug("reverse geocoding deferred by rate limiter", "station_id", s.ID)
		return s, false
	}

	result, err := geocoder.ReverseGeocode(ctx, s.Place.Latitude(), s.Place.Longitude())
	if err != nil {
		logger.Warn("reverse geocoding failed",
			"station_id", s.ID,
			"lat", s.Place.Latitude(),
			"lon", s.Place.Longitude(),
			"error", err,
		)
		return s, false
	}

	changed := false
	if s.Place.City == "" && result.City != "" {
		s.Place.City = result.City
		changed = true
	}
	if s.Place.Country == "" && result.Country != "" {
		s.Place.Country = result.Country
		changed = true
	}
	return s, changed
}
