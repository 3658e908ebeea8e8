// Package netatmo normalizes Netatmo station-data payloads, covering both the
// weather station (NAMain and its modules) and the home coach (NHC).
//
// Netatmo devices carry real hardware MACs, which are kept as station and
// module ids.
package netatmo

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/couchcryptid/station-telemetry-etl/internal/derived"
	"github.com/couchcryptid/station-telemetry-etl/internal/domain"
	"github.com/couchcryptid/station-telemetry-etl/internal/identity"
	"github.com/couchcryptid/station-telemetry-etl/internal/provider"
)

type response struct {
	Body *struct {
		Devices []device `json:"devices"`
	} `json:"body"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type place struct {
	Altitude float64    `json:"altitude"`
	City     string     `json:"city"`
	Country  string     `json:"country"`
	Timezone string     `json:"timezone"`
	Location [2]float64 `json:"location"`
}

type dashboard struct {
	TimeUTC          int64    `json:"time_utc"`
	Temperature      *float64 `json:"Temperature"`
	Humidity         *float64 `json:"Humidity"`
	CO2              *float64 `json:"CO2"`
	Noise            *float64 `json:"Noise"`
	Pressure         *float64 `json:"Pressure"`
	AbsolutePressure *float64 `json:"AbsolutePressure"`
	Rain             *float64 `json:"Rain"`
	SumRain1         *float64 `json:"sum_rain_1"`
	SumRain24        *float64 `json:"sum_rain_24"`
	WindStrength     *float64 `json:"WindStrength"`
	WindAngle        *float64 `json:"WindAngle"`
	GustStrength     *float64 `json:"GustStrength"`
	GustAngle        *float64 `json:"GustAngle"`
}

type module struct {
	ID             string     `json:"_id"`
	Type           string     `json:"type"`
	ModuleName     string     `json:"module_name"`
	Firmware       int        `json:"firmware"`
	BatteryPercent *int       `json:"battery_percent"`
	RFStatus       *int       `json:"rf_status"`
	Dashboard      *dashboard `json:"dashboard_data"`
}

type device struct {
	module
	StationName string   `json:"station_name"`
	WifiStatus  *int     `json:"wifi_status"`
	Reachable   bool     `json:"reachable"`
	Place       place    `json:"place"`
	Modules     []module `json:"modules"`
}

// Error codes Netatmo returns for invalid, expired or over-quota tokens.
var authCodes = map[int]bool{2: true, 3: true, 26: true}

// New returns the netatmo provider.
func New(deps provider.Deps) *provider.Base {
	return provider.New(identity.Netatmo, Normalize, Discover, deps)
}

func decode(p domain.Payload) ([]device, error) {
	var r response
	if err := json.Unmarshal(p.Body, &r); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedPayload, err)
	}
	if r.Error != nil {
		if authCodes[r.Error.Code] {
			return nil, fmt.Errorf("%w: code %d: %s", domain.ErrAuthentication, r.Error.Code, r.Error.Message)
		}
		return nil, fmt.Errorf("%w: upstream error %d: %s", domain.ErrMalformedPayload, r.Error.Code, r.Error.Message)
	}
	if r.Body == nil || r.Body.Devices == nil {
		return nil, fmt.Errorf("%w: no body.devices", domain.ErrMalformedPayload)
	}
	return r.Body.Devices, nil
}

func (d device) station() domain.Station {
	return domain.Station{
		ID:          strings.ToLower(d.ID),
		ServiceID:   d.ID,
		Provider:    string(identity.Netatmo),
		Name:        d.StationName,
		Operational: d.Reachable,
		Place: domain.Place{
			Country:  d.Place.Country,
			City:     d.Place.City,
			Timezone: d.Place.Timezone,
			Altitude: d.Place.Altitude,
			Location: d.Place.Location,
		},
	}
}

// Discover lists the devices of a payload as stations.
func Discover(p domain.Payload, _ domain.Catalog) ([]domain.Station, error) {
	devices, err := decode(p)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Station, 0, len(devices))
	for _, d := range devices {
		out = append(out, d.station())
	}
	return out, nil
}

// Normalize builds one module per device and per attached module.
func Normalize(p domain.Payload, _ domain.Catalog, logger *slog.Logger) ([]domain.Module, error) {
	devices, err := decode(p)
	if err != nil {
		return nil, err
	}
	var out []domain.Module
	for _, d := range devices {
		st := d.station()
		main := build(st, d.module, domain.ModuleMain)
		main.Signal = percent(d.WifiStatus, 86, 56)
		out = append(out, main)
		for _, m := range d.Modules {
			typ, ok := moduleTypes[m.Type]
			if !ok {
				logger.Debug("unknown netatmo module type", "type", m.Type, "module_id", m.ID)
				continue
			}
			out = append(out, build(st, m, typ))
		}
	}
	return provider.Keep(out, logger), nil
}

var moduleTypes = map[string]domain.ModuleType{
	"NAModule1": domain.ModuleOutdoor,
	"NAModule2": domain.ModuleWind,
	"NAModule3": domain.ModuleRain,
	"NAModule4": domain.ModuleIndoor,
}

func build(st domain.Station, m module, typ domain.ModuleType) domain.Module {
	var t int64
	if m.Dashboard != nil {
		t = m.Dashboard.TimeUTC
	}
	out := domain.NewModule(st, strings.ToLower(m.ID), typ, m.ModuleName, provider.EpochSeconds(t))
	out.Firmware = m.Firmware
	if m.BatteryPercent != nil {
		out.Battery = *m.BatteryPercent
	}
	if m.RFStatus != nil {
		out.Signal = percent(m.RFStatus, 90, 60)
	}
	if m.Dashboard == nil {
		return out
	}

	d := m.Dashboard
	dash := &out.Dashboard
	switch typ {
	case domain.ModuleMain, domain.ModuleIndoor:
		dash.Set(domain.KindTemperature, d.Temperature)
		dash.Set(domain.KindHumidity, d.Humidity)
		dash.Set(domain.KindCO2, d.CO2)
		dash.Set(domain.KindNoise, d.Noise)
		dash.Set(domain.KindPressure, d.AbsolutePressure)
		dash.Set(domain.KindPressureSeaLevel, d.Pressure)
		dash.Merge(derived.Health(derived.HealthInput{
			Temperature: d.Temperature,
			Humidity:    d.Humidity,
			CO2:         d.CO2,
			Noise:       d.Noise,
		}))
	case domain.ModuleOutdoor:
		dash.Set(domain.KindTemperature, d.Temperature)
		dash.Set(domain.KindHumidity, d.Humidity)
	case domain.ModuleWind:
		dash.Set(domain.KindWindStrength, d.WindStrength)
		dash.Set(domain.KindWindAngle, d.WindAngle)
		dash.Set(domain.KindGustStrength, d.GustStrength)
		dash.Set(domain.KindGustAngle, d.GustAngle)
	case domain.ModuleRain:
		dash.Set(domain.KindRain, d.Rain)
		dash.Set(domain.KindRainHourAggregated, d.SumRain1)
		dash.Set(domain.KindRainDayAggregated, d.SumRain24)
	}
	return out
}

// percent maps a Netatmo radio level, where lower is better, onto 0..100
// between the worst and best documented thresholds.
func percent(level *int, worst, best int) int {
	if level == nil {
		return domain.DefaultSignal
	}
	p := 100 * (worst - *level) / (worst - best)
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	}
	return p
}
