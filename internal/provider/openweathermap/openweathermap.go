// Package openweathermap normalizes OpenWeatherMap current-weather and
// air-pollution payloads into the synthetic current and pollution modules of
// a catalog station.
package openweathermap

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/couchcryptid/station-telemetry-etl/internal/domain"
	"github.com/couchcryptid/station-telemetry-etl/internal/identity"
	"github.com/couchcryptid/station-telemetry-etl/internal/provider"
	"github.com/couchcryptid/station-telemetry-etl/internal/units"
)

// code accepts the API status code as either a number or a string.
type code int

func (c *code) UnmarshalJSON(b []byte) error {
	s := string(bytes.Trim(b, `"`))
	if s == "" || s == "null" {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	*c = code(n)
	return nil
}

type current struct {
	Cod     code   `json:"cod"`
	Message string `json:"message"`
	Coord   *struct {
		Lon float64 `json:"lon"`
		Lat float64 `json:"lat"`
	} `json:"coord"`
	Main *struct {
		Temp      *float64 `json:"temp"`
		Humidity  *float64 `json:"humidity"`
		Pressure  *float64 `json:"pressure"`
		SeaLevel  *float64 `json:"sea_level"`
		GrndLevel *float64 `json:"grnd_level"`
	} `json:"main"`
	Wind *struct {
		Speed *float64 `json:"speed"`
		Deg   *float64 `json:"deg"`
		Gust  *float64 `json:"gust"`
	} `json:"wind"`
	Rain *struct {
		OneHour *float64 `json:"1h"`
	} `json:"rain"`
	Dt  int64 `json:"dt"`
	Sys *struct {
		Country string `json:"country"`
	} `json:"sys"`
	Name string `json:"name"`

	List []struct {
		Dt   int64 `json:"dt"`
		Main struct {
			AQI *float64 `json:"aqi"`
		} `json:"main"`
		Components struct {
			CO   *float64 `json:"co"`
			NO2  *float64 `json:"no2"`
			O3   *float64 `json:"o3"`
			SO2  *float64 `json:"so2"`
			PM25 *float64 `json:"pm2_5"`
			PM10 *float64 `json:"pm10"`
		} `json:"components"`
	} `json:"list"`
}

// New returns the openweathermap provider.
func New(deps provider.Deps) *provider.Base {
	return provider.New(identity.OpenWeatherMap, Normalize, Discover, deps)
}

func decode(p domain.Payload) (current, error) {
	var c current
	if err := json.Unmarshal(p.Body, &c); err != nil {
		return c, fmt.Errorf("%w: %v", domain.ErrMalformedPayload, err)
	}
	switch {
	case c.Cod == 401:
		return c, fmt.Errorf("%w: %s", domain.ErrAuthentication, c.Message)
	case c.Cod >= 400:
		return c, fmt.Errorf("%w: upstream error %d: %s", domain.ErrMalformedPayload, c.Cod, c.Message)
	case c.Main == nil && c.List == nil:
		return c, fmt.Errorf("%w: neither main nor list present", domain.ErrMalformedPayload)
	}
	return c, nil
}

func station(p domain.Payload, c current, catalog domain.Catalog) (domain.Station, error) {
	s, err := provider.CatalogStation(identity.OpenWeatherMap, p, catalog)
	if err != nil {
		return s, err
	}
	if !s.Place.Located() && c.Coord != nil {
		s.Place.Location = [2]float64{c.Coord.Lon, c.Coord.Lat}
	}
	if s.Place.Country == "" && c.Sys != nil {
		s.Place.Country = c.Sys.Country
	}
	if s.Place.City == "" {
		s.Place.City = c.Name
	}
	return s, nil
}

// Discover resolves the catalog station the payload was fetched for.
func Discover(p domain.Payload, catalog domain.Catalog) ([]domain.Station, error) {
	c, err := decode(p)
	if err != nil {
		return nil, err
	}
	s, err := station(p, c, catalog)
	if err != nil {
		return nil, err
	}
	return []domain.Station{s}, nil
}

// Normalize builds the current module from a current-weather payload, or the
// pollution module from an air-pollution payload.
func Normalize(p domain.Payload, catalog domain.Catalog, logger *slog.Logger) ([]domain.Module, error) {
	c, err := decode(p)
	if err != nil {
		return nil, err
	}
	s, err := station(p, c, catalog)
	if err != nil {
		return nil, err
	}

	if c.List != nil {
		m := domain.NewModule(s, identity.VirtualID(identity.PrefixPollution, s.ID), domain.ModulePollution, "Pollution", provider.EpochSeconds(0))
		if len(c.List) > 0 {
			l := c.List[0]
			m.Dashboard = domain.NewDashboard(provider.EpochSeconds(l.Dt))
			m.Dashboard.Set(domain.KindAQI, l.Main.AQI)
			m.Dashboard.Set(domain.KindCO, l.Components.CO)
			m.Dashboard.Set(domain.KindNO2, l.Components.NO2)
			m.Dashboard.Set(domain.KindO3, l.Components.O3)
			m.Dashboard.Set(domain.KindSO2, l.Components.SO2)
			m.Dashboard.Set(domain.KindPM25, l.Components.PM25)
			m.Dashboard.Set(domain.KindPM10, l.Components.PM10)
		}
		return provider.Keep([]domain.Module{m}, logger), nil
	}

	m := domain.NewModule(s, identity.VirtualID(identity.PrefixCurrent, s.ID), domain.ModuleCurrent, "Current conditions", provider.EpochSeconds(c.Dt))
	d := &m.Dashboard
	if c.Main != nil {
		d.Set(domain.KindTemperature, c.Main.Temp)
		d.Set(domain.KindHumidity, c.Main.Humidity)
		d.Set(domain.KindPressure, c.Main.GrndLevel)
		if c.Main.SeaLevel != nil {
			d.Set(domain.KindPressureSeaLevel, c.Main.SeaLevel)
		} else {
			d.Set(domain.KindPressureSeaLevel, c.Main.Pressure)
		}
	}
	if c.Wind != nil {
		d.Set(domain.KindWindStrength, provider.Convert(c.Wind.Speed, units.MeterPerSecond, units.WindSpeed))
		d.Set(domain.KindWindAngle, c.Wind.Deg)
		d.Set(domain.KindGustStrength, provider.Convert(c.Wind.Gust, units.MeterPerSecond, units.WindSpeed))
	}
	if c.Rain != nil {
		d.Set(domain.KindRainHourAggregated, c.Rain.OneHour)
	}
	return provider.Keep([]domain.Module{m}, logger), nil
}
