// Package clientraw normalizes the clientraw.txt export of Weather Display.
//
// The file is one line of space-separated fields addressed by position. Wind
// is in knots, everything else in metric units, and the observation time is
// civil time in the station's timezone.
package clientraw

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/couchcryptid/station-telemetry-etl/internal/domain"
	"github.com/couchcryptid/station-telemetry-etl/internal/identity"
	"github.com/couchcryptid/station-telemetry-etl/internal/provider"
	"github.com/couchcryptid/station-telemetry-etl/internal/units"
)

const (
	header    = "12345"
	minFields = 42
)

// Field positions.
const (
	fWindAvg     = 1
	fGust        = 2
	fWindDir     = 3
	fTemp        = 4
	fHumidity    = 5
	fPressure    = 6
	fRainDay     = 7
	fRainMonth   = 8
	fRainYear    = 9
	fIndoorTemp  = 12
	fIndoorHum   = 13
	fExtraTemp   = 16 // through 18
	fExtraHum    = 26 // through 28
	fHour        = 29
	fMinute      = 30
	fSecond      = 31
	fStationName = 32
	fDay         = 35
	fMonth       = 36
	fUV          = 79
	fSolar       = 127
	fYear        = 141
	extraCount   = 3
)

// New returns the clientraw provider.
func New(deps provider.Deps) *provider.Base {
	return provider.New(identity.Clientraw, Normalize, Discover, deps)
}

func split(p domain.Payload) ([]string, error) {
	fields := strings.Fields(string(p.Body))
	if len(fields) < minFields {
		return nil, fmt.Errorf("%w: %d fields, want at least %d", domain.ErrMalformedPayload, len(fields), minFields)
	}
	if fields[0] != header {
		return nil, fmt.Errorf("%w: header %q", domain.ErrMalformedPayload, fields[0])
	}
	return fields, nil
}

// stationName strips the "-hh:mm:ss" suffix Weather Display appends.
func stationName(s string) string {
	if i := strings.LastIndex(s, "-"); i > 0 && strings.Contains(s[i:], ":") {
		s = s[:i]
	}
	return strings.ReplaceAll(s, "_", " ")
}

func observedAt(fields []string, loc *time.Location, fallback time.Time) time.Time {
	year := provider.Text(fields, fYear)
	if year == "" {
		year = fallback.In(loc).Format("2006")
	}
	value := fmt.Sprintf("%s-%s-%s %s:%s:%s", year,
		provider.Text(fields, fMonth), provider.Text(fields, fDay),
		provider.Text(fields, fHour), provider.Text(fields, fMinute), provider.Text(fields, fSecond))
	if t, ok := provider.LocalTime("2006-1-2 15:4:5", value, loc); ok {
		return t
	}
	return fallback.UTC()
}

func station(p domain.Payload, fields []string, catalog domain.Catalog) (domain.Station, error) {
	s, err := provider.CatalogStation(identity.Clientraw, p, catalog)
	if err != nil {
		return s, err
	}
	if s.Name == "" {
		s.Name = stationName(provider.Text(fields, fStationName))
	}
	return s, nil
}

// Discover resolves the catalog station the file was fetched for.
func Discover(p domain.Payload, catalog domain.Catalog) ([]domain.Station, error) {
	fields, err := split(p)
	if err != nil {
		return nil, err
	}
	s, err := station(p, fields, catalog)
	if err != nil {
		return nil, err
	}
	return []domain.Station{s}, nil
}

// Normalize fans the record out into slot modules.
func Normalize(p domain.Payload, catalog domain.Catalog, logger *slog.Logger) ([]domain.Module, error) {
	fields, err := split(p)
	if err != nil {
		return nil, err
	}
	s, err := station(p, fields, catalog)
	if err != nil {
		return nil, err
	}

	knots := func(i int) *float64 {
		return provider.Convert(provider.Field(fields, i), units.Knot, units.WindSpeed)
	}
	f := provider.Flat{
		Station:           s,
		Time:              observedAt(fields, s.Place.Loc(), p.ReceivedAt),
		PressureSeaLevel:  provider.Field(fields, fPressure),
		Temperature:       provider.Field(fields, fTemp),
		Humidity:          provider.Field(fields, fHumidity),
		WindAngle:         provider.Field(fields, fWindDir),
		WindStrength:      knots(fWindAvg),
		GustStrength:      knots(fGust),
		RainDay:           provider.Field(fields, fRainDay),
		RainMonth:         provider.Field(fields, fRainMonth),
		RainYear:          provider.Field(fields, fRainYear),
		IndoorTemperature: provider.Field(fields, fIndoorTemp),
		IndoorHumidity:    provider.Field(fields, fIndoorHum),
		UVIndex:           provider.Field(fields, fUV),
		Irradiance:        provider.Field(fields, fSolar),
	}
	for i := 0; i < extraCount; i++ {
		f.ExtraTemperature[i] = provider.Field(fields, fExtraTemp+i)
		f.ExtraHumidity[i] = provider.Field(fields, fExtraHum+i)
	}
	return provider.FanOut(f, logger), nil
}
