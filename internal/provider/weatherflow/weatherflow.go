// Package weatherflow normalizes WeatherFlow Tempest station observations.
package weatherflow

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/station-telemetry-etl/internal/domain"
	"github.com/couchcryptid/station-telemetry-etl/internal/identity"
	"github.com/couchcryptid/station-telemetry-etl/internal/provider"
	"github.com/couchcryptid/station-telemetry-etl/internal/units"
)

const statusUnauthorized = 401

type response struct {
	StationID   int64         `json:"station_id"`
	StationName string        `json:"station_name"`
	Latitude    float64       `json:"latitude"`
	Longitude   float64       `json:"longitude"`
	Elevation   float64       `json:"elevation"`
	Timezone    string        `json:"timezone"`
	Obs         []observation `json:"obs"`
	Status      struct {
		Code    int    `json:"status_code"`
		Message string `json:"status_message"`
	} `json:"status"`
}

type observation struct {
	Timestamp           int64    `json:"timestamp"`
	AirTemperature      *float64 `json:"air_temperature"`
	RelativeHumidity    *float64 `json:"relative_humidity"`
	StationPressure     *float64 `json:"station_pressure"`
	SeaLevelPressure    *float64 `json:"sea_level_pressure"`
	WindAvg             *float64 `json:"wind_avg"`
	WindDirection       *float64 `json:"wind_direction"`
	WindGust            *float64 `json:"wind_gust"`
	Precip              *float64 `json:"precip"`
	PrecipAccumLocalDay *float64 `json:"precip_accum_local_day"`
	UV                  *float64 `json:"uv"`
	SolarRadiation      *float64 `json:"solar_radiation"`
	Brightness          *float64 `json:"brightness"`
}

// New returns the weatherflow provider.
func New(deps provider.Deps) *provider.Base {
	return provider.New(identity.WeatherFlow, Normalize, Discover, deps)
}

func decode(p domain.Payload) (*response, error) {
	var r response
	if err := json.Unmarshal(p.Body, &r); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrMalformedPayload, err)
	}
	if r.Status.Code == statusUnauthorized {
		return nil, fmt.Errorf("%w: %s", domain.ErrAuthentication, r.Status.Message)
	}
	if r.StationID == 0 {
		return nil, fmt.Errorf("%w: no station id", domain.ErrMalformedPayload)
	}
	return &r, nil
}

func (r *response) station() domain.Station {
	return domain.Station{
		ID:          identity.StationID(identity.WeatherFlow, r.StationID),
		GUID:        r.StationID,
		Provider:    string(identity.WeatherFlow),
		Name:        r.StationName,
		Operational: len(r.Obs) > 0,
		Place: domain.Place{
			Timezone: r.Timezone,
			Altitude: r.Elevation,
			Location: [2]float64{r.Longitude, r.Latitude},
		},
	}
}

// Discover reports the observed station.
func Discover(p domain.Payload, _ domain.Catalog) ([]domain.Station, error) {
	r, err := decode(p)
	if err != nil {
		return nil, err
	}
	return []domain.Station{r.station()}, nil
}

// Normalize fans the latest observation out into slot modules.
func Normalize(p domain.Payload, _ domain.Catalog, logger *slog.Logger) ([]domain.Module, error) {
	r, err := decode(p)
	if err != nil {
		return nil, err
	}
	st := r.station()
	if len(r.Obs) == 0 {
		return provider.FanOut(provider.Flat{Station: st, Time: p.ReceivedAt}, logger), nil
	}
	o := r.Obs[0]

	seaLevel := o.SeaLevelPressure
	if seaLevel == nil && o.StationPressure != nil && o.AirTemperature != nil {
		seaLevel = provider.Float(units.SeaLevelPressure(*o.StationPressure, r.Elevation, *o.AirTemperature))
	}

	var gustAngle *float64
	if o.WindGust != nil {
		gustAngle = o.WindDirection
	}

	wind := func(v *float64) *float64 { return provider.Convert(v, units.MeterPerSecond, units.WindSpeed) }

	return provider.FanOut(provider.Flat{
		Station:          st,
		Time:             provider.EpochSeconds(o.Timestamp),
		Pressure:         o.StationPressure,
		PressureSeaLevel: seaLevel,
		Temperature:      o.AirTemperature,
		Humidity:         o.RelativeHumidity,
		WindAngle:        o.WindDirection,
		WindStrength:     wind(o.WindAvg),
		GustAngle:        gustAngle,
		GustStrength:     wind(o.WindGust),
		Rain:             o.Precip,
		RainDay:          o.PrecipAccumLocalDay,
		UVIndex:          o.UV,
		Irradiance:       o.SolarRadiation,
		Illuminance:      o.Brightness,
	}, logger), nil
}
