// Package stickertags normalizes the stickertags.txt file of Weather Display.
//
// The file is a single comma-separated line whose last field is a
// pipe-delimited unit descriptor such as "°C|kts|hPa|mm".
package stickertags

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/couchcryptid/station-telemetry-etl/internal/domain"
	"github.com/couchcryptid/station-telemetry-etl/internal/identity"
	"github.com/couchcryptid/station-telemetry-etl/internal/provider"
	"github.com/couchcryptid/station-telemetry-etl/internal/units"
)

const minFields = 13

const (
	fTime      = 0
	fDate      = 1
	fTemp      = 2
	fHumidity  = 5
	fPressure  = 7
	fWindSpeed = 9
	fWindDir   = 10
	fRainToday = 11
	fUnits     = 12
)

// New returns the stickertags provider.
func New(deps provider.Deps) *provider.Base {
	return provider.New(identity.Stickertags, Normalize, Discover, deps)
}

func split(p domain.Payload) ([]string, error) {
	fields := strings.Split(strings.TrimSpace(string(p.Body)), ",")
	if len(fields) < minFields {
		return nil, fmt.Errorf("%w: %d fields, want at least %d", domain.ErrMalformedPayload, len(fields), minFields)
	}
	return fields, nil
}

// Discover resolves the catalog station the file was fetched for.
func Discover(p domain.Payload, catalog domain.Catalog) ([]domain.Station, error) {
	if _, err := split(p); err != nil {
		return nil, err
	}
	s, err := provider.CatalogStation(identity.Stickertags, p, catalog)
	if err != nil {
		return nil, err
	}
	return []domain.Station{s}, nil
}

// Normalize fans the record out into slot modules. Heat index, wind chill
// and dew point columns are ignored: derived kinds are recomputed from the
// raw measurements.
func Normalize(p domain.Payload, catalog domain.Catalog, logger *slog.Logger) ([]domain.Module, error) {
	fields, err := split(p)
	if err != nil {
		return nil, err
	}
	s, err := provider.CatalogStation(identity.Stickertags, p, catalog)
	if err != nil {
		return nil, err
	}

	set := units.ParseDescriptor(provider.Text(fields, fUnits), "|")
	value := func(i int, unit units.Unit, q units.Quantity) *float64 {
		return provider.Convert(provider.Field(fields, i), unit, q)
	}

	observed, ok := provider.LocalTime("02/01/2006 15:04",
		provider.Text(fields, fDate)+" "+provider.Text(fields, fTime), s.Place.Loc())
	if !ok {
		observed = p.ReceivedAt.UTC()
	}

	var bearing *float64
	if deg, ok := units.CompassToDegrees(provider.Text(fields, fWindDir)); ok {
		bearing = provider.Float(deg)
	}

	return provider.FanOut(provider.Flat{
		Station:          s,
		Time:             observed,
		PressureSeaLevel: value(fPressure, set.Pressure, units.Pressure),
		Temperature:      value(fTemp, set.Temperature, units.Temperature),
		Humidity:         provider.Field(fields, fHumidity),
		WindAngle:        bearing,
		WindStrength:     value(fWindSpeed, set.Wind, units.WindSpeed),
		RainDay:          value(fRainToday, set.Rain, units.Rainfall),
	}, logger), nil
}
