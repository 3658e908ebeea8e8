// Package wunderground normalizes Weather Underground PWS current observations.
package wunderground

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/station-telemetry-etl/internal/domain"
	"github.com/couchcryptid/station-telemetry-etl/internal/identity"
	"github.com/couchcryptid/station-telemetry-etl/internal/provider"
	"github.com/couchcryptid/station-telemetry-etl/internal/units"
)

type unitBlock struct {
	Temp        *float64 `json:"temp"`
	WindSpeed   *float64 `json:"windSpeed"`
	WindGust    *float64 `json:"windGust"`
	Pressure    *float64 `json:"pressure"`
	PrecipRate  *float64 `json:"precipRate"`
	PrecipTotal *float64 `json:"precipTotal"`
	Elev        *float64 `json:"elev"`
}

type observation struct {
	StationID      string     `json:"stationID"`
	Epoch          int64      `json:"epoch"`
	Lat            *float64   `json:"lat"`
	Lon            *float64   `json:"lon"`
	Country        string     `json:"country"`
	Neighborhood   string     `json:"neighborhood"`
	Humidity       *float64   `json:"humidity"`
	WindDir        *float64   `json:"winddir"`
	UV             *float64   `json:"uv"`
	SolarRadiation *float64   `json:"solarRadiation"`
	Metric         *unitBlock `json:"metric"`
	Imperial       *unitBlock `json:"imperial"`
	UKHybrid       *unitBlock `json:"uk_hybrid"`
}

var ukHybrid = units.Set{
	Temperature: units.Celsius,
	Wind:        units.MilePerHour,
	Pressure:    units.HectoPascal,
	Rain:        units.Millimeter,
}

// block returns the unit block present on the observation with the unit set
// it is expressed in, and the altitude unit factor to meters.
func (o observation) block() (unitBlock, units.Set, float64) {
	switch {
	case o.Metric != nil:
		return *o.Metric, units.Metric, 1
	case o.Imperial != nil:
		return *o.Imperial, units.Imperial, 0.3048
	case o.UKHybrid != nil:
		return *o.UKHybrid, ukHybrid, 0.3048
	}
	return unitBlock{}, units.Metric, 1
}

// New returns the wunderground provider.
func New(deps provider.Deps) *provider.Base {
	return provider.New(identity.WUnderground, Normalize, Discover, deps)
}

func decode(p domain.Payload, catalog domain.Catalog) (observation, domain.Station, error) {
	var r struct {
		Observations []observation `json:"observations"`
	}
	if err := json.Unmarshal(p.Body, &r); err != nil {
		return observation{}, domain.Station{}, fmt.Errorf("%w: %v", domain.ErrMalformedPayload, err)
	}
	if len(r.Observations) == 0 {
		return observation{}, domain.Station{}, fmt.Errorf("%w: no observations", domain.ErrMalformedPayload)
	}
	o := r.Observations[0]

	s, err := provider.CatalogStation(identity.WUnderground, p, catalog)
	if err != nil {
		return o, s, err
	}
	if o.StationID != "" {
		s.ServiceID = o.StationID
	}
	if s.Place.Country == "" {
		s.Place.Country = o.Country
	}
	if s.Place.City == "" {
		s.Place.City = o.Neighborhood
	}
	if o.Lat != nil && o.Lon != nil {
		s.Place.Location = [2]float64{*o.Lon, *o.Lat}
	}
	b, _, toMeters := o.block()
	if b.Elev != nil {
		s.Place.Altitude = *b.Elev * toMeters
	}
	return o, s, nil
}

// Discover resolves the catalog station of the observation.
func Discover(p domain.Payload, catalog domain.Catalog) ([]domain.Station, error) {
	_, s, err := decode(p, catalog)
	if err != nil {
		return nil, err
	}
	return []domain.Station{s}, nil
}

// Normalize fans the observation out into slot modules.
func Normalize(p domain.Payload, catalog domain.Catalog, logger *slog.Logger) ([]domain.Module, error) {
	o, s, err := decode(p, catalog)
	if err != nil {
		return nil, err
	}
	b, set, _ := o.block()

	return provider.FanOut(provider.Flat{
		Station:          s,
		Time:             provider.EpochSeconds(o.Epoch),
		PressureSeaLevel: provider.Convert(b.Pressure, set.Pressure, units.Pressure),
		Temperature:      provider.Convert(b.Temp, set.Temperature, units.Temperature),
		Humidity:         o.Humidity,
		WindAngle:        o.WindDir,
		WindStrength:     provider.Convert(b.WindSpeed, set.Wind, units.WindSpeed),
		GustStrength:     provider.Convert(b.WindGust, set.Wind, units.WindSpeed),
		Rain:             provider.Convert(b.PrecipRate, set.Rain, units.Rainfall),
		RainDay:          provider.Convert(b.PrecipTotal, set.Rain, units.Rainfall),
		UVIndex:          o.UV,
		Irradiance:       o.SolarRadiation,
	}, logger), nil
}
