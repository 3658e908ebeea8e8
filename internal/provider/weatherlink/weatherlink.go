// Package weatherlink normalizes Davis WeatherLink v2 current conditions.
//
// A station reports one entry per sensor (ISS, barometer, indoor console).
// Their readings are merged into a single flat record; when two sensors
// report the same field the first one wins.
package weatherlink

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/station-telemetry-etl/internal/domain"
	"github.com/couchcryptid/station-telemetry-etl/internal/identity"
	"github.com/couchcryptid/station-telemetry-etl/internal/provider"
	"github.com/couchcryptid/station-telemetry-etl/internal/units"
)

type response struct {
	Code      int      `json:"code"`
	Message   string   `json:"message"`
	StationID int64    `json:"station_id"`
	Sensors   []sensor `json:"sensors"`
}

type sensor struct {
	LSID       int64     `json:"lsid"`
	SensorType int       `json:"sensor_type"`
	Data       []reading `json:"data"`
}

type reading struct {
	TS                        int64    `json:"ts"`
	Temp                      *float64 `json:"temp"`
	Hum                       *float64 `json:"hum"`
	WindSpeedLast             *float64 `json:"wind_speed_last"`
	WindDirLast               *float64 `json:"wind_dir_last"`
	WindSpeedHiLast10Min      *float64 `json:"wind_speed_hi_last_10_min"`
	WindDirAtHiSpeedLast10Min *float64 `json:"wind_dir_at_hi_speed_last_10_min"`
	RainfallDailyIn           *float64 `json:"rainfall_daily_in"`
	RainfallMonthlyIn         *float64 `json:"rainfall_monthly_in"`
	RainfallYearIn            *float64 `json:"rainfall_year_in"`
	BarSeaLevel               *float64 `json:"bar_sea_level"`
	BarAbsolute               *float64 `json:"bar_absolute"`
	TempIn                    *float64 `json:"temp_in"`
	HumIn                     *float64 `json:"hum_in"`
	SolarRad                  *float64 `json:"solar_rad"`
	UVIndex                   *float64 `json:"uv_index"`
}

// New returns the weatherlink provider.
func New(deps provider.Deps) *provider.Base {
	return provider.New(identity.WeatherLink, Normalize, Discover, deps)
}

func decode(p domain.Payload) (*response, error) {
	var r response
	if err := json.Unmarshal(p.Body, &r); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrMalformedPayload, err)
	}
	switch {
	case r.Code == 401 || r.Code == 403:
		return nil, fmt.Errorf("%w: %s", domain.ErrAuthentication, r.Message)
	case r.Code >= 400:
		return nil, fmt.Errorf("%w: code %d: %s", domain.ErrMalformedPayload, r.Code, r.Message)
	case r.StationID == 0:
		return nil, fmt.Errorf("%w: no station id", domain.ErrMalformedPayload)
	}
	return &r, nil
}

// station resolves the reported station. WeatherLink current conditions
// carry no name or location, so a matching catalog entry supplies them.
func (r *response) station(catalog domain.Catalog) domain.Station {
	s := domain.Station{GUID: r.StationID, Name: fmt.Sprintf("WeatherLink %d", r.StationID)}
	if catalog != nil {
		if known, ok := catalog.Station(r.StationID); ok {
			s = known
		}
	}
	s.ID = identity.StationID(identity.WeatherLink, r.StationID)
	s.Provider = string(identity.WeatherLink)
	s.Operational = len(r.Sensors) > 0
	return s
}

// Discover reports the station.
func Discover(p domain.Payload, catalog domain.Catalog) ([]domain.Station, error) {
	r, err := decode(p)
	if err != nil {
		return nil, err
	}
	return []domain.Station{r.station(catalog)}, nil
}

// Normalize merges every sensor reading and fans the result out into slot
// modules.
func Normalize(p domain.Payload, catalog domain.Catalog, logger *slog.Logger) ([]domain.Module, error) {
	r, err := decode(p)
	if err != nil {
		return nil, err
	}
	m := merge(r.Sensors)

	observed := p.ReceivedAt
	if m.TS > 0 {
		observed = time.Unix(m.TS, 0)
	}

	temp := func(v *float64) *float64 { return provider.Convert(v, units.Fahrenheit, units.Temperature) }
	wind := func(v *float64) *float64 { return provider.Convert(v, units.MilePerHour, units.WindSpeed) }
	press := func(v *float64) *float64 { return provider.Convert(v, units.InchMercury, units.Pressure) }
	rain := func(v *float64) *float64 { return provider.Convert(v, units.Inch, units.Rainfall) }

	return provider.FanOut(provider.Flat{
		Station:           r.station(catalog),
		Time:              observed,
		Pressure:          press(m.BarAbsolute),
		PressureSeaLevel:  press(m.BarSeaLevel),
		Temperature:       temp(m.Temp),
		Humidity:          m.Hum,
		WindAngle:         m.WindDirLast,
		WindStrength:      wind(m.WindSpeedLast),
		GustAngle:         m.WindDirAtHiSpeedLast10Min,
		GustStrength:      wind(m.WindSpeedHiLast10Min),
		RainDay:           rain(m.RainfallDailyIn),
		RainMonth:         rain(m.RainfallMonthlyIn),
		RainYear:          rain(m.RainfallYearIn),
		IndoorTemperature: temp(m.TempIn),
		IndoorHumidity:    m.HumIn,
		UVIndex:           m.UVIndex,
		Irradiance:        m.SolarRad,
	}, logger), nil
}

func first(dst **float64, v *float64) {
	if *dst == nil && v != nil {
		*dst = v
	}
}

// merge folds every reading into one. The latest timestamp wins.
func merge(sensors []sensor) reading {
	var out reading
	for _, s := range sensors {
		for _, d := range s.Data {
			if d.TS > out.TS {
				out.TS = d.TS
			}
			first(&out.Temp, d.Temp)
			first(&out.Hum, d.Hum)
			first(&out.WindSpeedLast, d.WindSpeedLast)
			first(&out.WindDirLast, d.WindDirLast)
			first(&out.WindSpeedHiLast10Min, d.WindSpeedHiLast10Min)
			first(&out.WindDirAtHiSpeedLast10Min, d.WindDirAtHiSpeedLast10Min)
			first(&out.RainfallDailyIn, d.RainfallDailyIn)
			first(&out.RainfallMonthlyIn, d.RainfallMonthlyIn)
			first(&out.RainfallYearIn, d.RainfallYearIn)
			first(&out.BarSeaLevel, d.BarSeaLevel)
			first(&out.BarAbsolute, d.BarAbsolute)
			first(&out.TempIn, d.TempIn)
			first(&out.HumIn, d.HumIn)
			first(&out.SolarRad, d.SolarRad)
			first(&out.UVIndex, d.UVIndex)
		}
	}
	return out
}
