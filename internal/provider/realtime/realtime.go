// Package realtime normalizes the realtime.txt file published by Cumulus.
//
// Fields are space-separated and addressed by position. The file declares
// its own units in fields 13 to 16; unknown tokens fall back to Cumulus'
// defaults.
package realtime

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/couchcryptid/station-telemetry-etl/internal/domain"
	"github.com/couchcryptid/station-telemetry-etl/internal/identity"
	"github.com/couchcryptid/station-telemetry-etl/internal/provider"
	"github.com/couchcryptid/station-telemetry-etl/internal/units"
)

const minFields = 24

const (
	fDate       = 0
	fTime       = 1
	fTemp       = 2
	fHumidity   = 3
	fWindAvg    = 5
	fBearing    = 7
	fRainRate   = 8
	fRainToday  = 9
	fPressure   = 10
	fWindUnit   = 13
	fTempUnit   = 14
	fPressUnit  = 15
	fRainUnit   = 16
	fRainMonth  = 19
	fRainYear   = 20
	fIndoorTemp = 22
	fIndoorHum  = 23
	fGust       = 40
	fUV         = 43
	fSolar      = 45
)

// New returns the realtime provider.
func New(deps provider.Deps) *provider.Base {
	return provider.New(identity.Realtime, Normalize, Discover, deps)
}

func split(p domain.Payload) ([]string, error) {
	fields := strings.Fields(string(p.Body))
	if len(fields) < minFields {
		return nil, fmt.Errorf("%w: %d fields, want at least %d", domain.ErrMalformedPayload, len(fields), minFields)
	}
	return fields, nil
}

func unitSet(fields []string) units.Set {
	return units.Set{
		Temperature: units.ParseTemperature(provider.Text(fields, fTempUnit), units.Celsius),
		Wind:        units.ParseWind(provider.Text(fields, fWindUnit), units.KilometerPerHour),
		Pressure:    units.ParsePressure(provider.Text(fields, fPressUnit), units.HectoPascal),
		Rain:        units.ParseRain(provider.Text(fields, fRainUnit), units.Millimeter),
	}
}

// Discover resolves the catalog station the file was fetched for.
func Discover(p domain.Payload, catalog domain.Catalog) ([]domain.Station, error) {
	if _, err := split(p); err != nil {
		return nil, err
	}
	s, err := provider.CatalogStation(identity.Realtime, p, catalog)
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
	s, err := provider.CatalogStation(identity.Realtime, p, catalog)
	if err != nil {
		return nil, err
	}

	set := unitSet(fields)
	value := func(i int, unit units.Unit, q units.Quantity) *float64 {
		return provider.Convert(provider.Field(fields, i), unit, q)
	}

	date := strings.NewReplacer("-", "/", ".", "/").Replace(provider.Text(fields, fDate))
	observed, ok := provider.LocalTime("02/01/06 15:04:05", date+" "+provider.Text(fields, fTime), s.Place.Loc())
	if !ok {
		observed = p.ReceivedAt.UTC()
	}

	return provider.FanOut(provider.Flat{
		Station:           s,
		Time:              observed,
		PressureSeaLevel:  value(fPressure, set.Pressure, units.Pressure),
		Temperature:       value(fTemp, set.Temperature, units.Temperature),
		Humidity:          provider.Field(fields, fHumidity),
		WindAngle:         provider.Field(fields, fBearing),
		WindStrength:      value(fWindAvg, set.Wind, units.WindSpeed),
		GustStrength:      value(fGust, set.Wind, units.WindSpeed),
		Rain:              value(fRainRate, set.Rain, units.Rainfall),
		RainDay:           value(fRainToday, set.Rain, units.Rainfall),
		RainMonth:         value(fRainMonth, set.Rain, units.Rainfall),
		RainYear:          value(fRainYear, set.Rain, units.Rainfall),
		IndoorTemperature: value(fIndoorTemp, set.Temperature, units.Temperature),
		IndoorHumidity:    provider.Field(fields, fIndoorHum),
		UVIndex:           provider.Field(fields, fUV),
		Irradiance:        provider.Field(fields, fSolar),
	}, logger), nil
}
