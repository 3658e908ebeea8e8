package provider

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/station-telemetry-etl/internal/derived"
	"github.com/couchcryptid/station-telemetry-etl/internal/domain"
	"github.com/couchcryptid/station-telemetry-etl/internal/identity"
	"github.com/couchcryptid/station-telemetry-etl/internal/observability"
)

// minKinds is the smallest dashboard worth persisting.
const minKinds = 2

// Flat is one provider device record flattened to internal units. Nil fields
// are absent from the payload.
type Flat struct {
	Station domain.Station
	Time    time.Time

	Pressure         *float64
	PressureSeaLevel *float64

	Temperature *float64
	Humidity    *float64

	WindAngle    *float64
	WindStrength *float64
	GustAngle    *float64
	GustStrength *float64

	Rain      *float64
	RainHour  *float64
	RainDay   *float64
	RainMonth *float64
	RainYear  *float64

	IndoorTemperature *float64
	IndoorHumidity    *float64
	CO2               *float64
	Noise             *float64

	UVIndex     *float64
	Irradiance  *float64
	Illuminance *float64

	ExtraTemperature [identity.MaxExtra + 1]*float64
	ExtraHumidity    [identity.MaxExtra + 1]*float64
}

func anySet(vs ...*float64) bool {
	for _, v := range vs {
		if v != nil {
			return true
		}
	}
	return false
}

// FanOut splits a flat record into slot modules. The main module is always
// built; the others only when one of their fields is present. Modules left
// with fewer than two kinds are dropped with a warning.
func FanOut(f Flat, logger *slog.Logger) []domain.Module {
	payload := identity.Payload(f.Station.ID)
	build := func(slot identity.Slot, index int, typ domain.ModuleType, name string) domain.Module {
		return domain.NewModule(f.Station, identity.ModuleID(slot, index, payload), typ, name, f.Time)
	}

	var out []domain.Module

	main := build(identity.SlotMain, 0, domain.ModuleMain, "Main")
	main.Dashboard.Set(domain.KindPressure, f.Pressure)
	main.Dashboard.Set(domain.KindPressureSeaLevel, f.PressureSeaLevel)
	out = append(out, main)

	if anySet(f.Temperature, f.Humidity) {
		m := build(identity.SlotOutdoor, 0, domain.ModuleOutdoor, "Outdoor")
		m.Dashboard.Set(domain.KindTemperature, f.Temperature)
		m.Dashboard.Set(domain.KindHumidity, f.Humidity)
		out = append(out, m)
	}

	if anySet(f.WindAngle, f.WindStrength, f.GustAngle, f.GustStrength) {
		m := build(identity.SlotWind, 0, domain.ModuleWind, "Wind gauge")
		m.Dashboard.Set(domain.KindWindAngle, f.WindAngle)
		m.Dashboard.Set(domain.KindWindStrength, f.WindStrength)
		m.Dashboard.Set(domain.KindGustAngle, f.GustAngle)
		m.Dashboard.Set(domain.KindGustStrength, f.GustStrength)
		out = append(out, m)
	}

	if anySet(f.Rain, f.RainHour, f.RainDay, f.RainMonth, f.RainYear) {
		m := build(identity.SlotRain, 0, domain.ModuleRain, "Rain gauge")
		m.Dashboard.Set(domain.KindRain, f.Rain)
		m.Dashboard.Set(domain.KindRainHourAggregated, f.RainHour)
		m.Dashboard.Set(domain.KindRainDayAggregated, f.RainDay)
		m.Dashboard.Set(domain.KindRainMonthAggregated, f.RainMonth)
		m.Dashboard.Set(domain.KindRainYearAggregated, f.RainYear)
		out = append(out, m)
	}

	if anySet(f.IndoorTemperature, f.IndoorHumidity, f.CO2, f.Noise) {
		m := build(identity.SlotIndoor, 0, domain.ModuleIndoor, "Indoor")
		m.Dashboard.Set(domain.KindTemperature, f.IndoorTemperature)
		m.Dashboard.Set(domain.KindHumidity, f.IndoorHumidity)
		m.Dashboard.Set(domain.KindCO2, f.CO2)
		m.Dashboard.Set(domain.KindNoise, f.Noise)
		m.Dashboard.Merge(derived.Health(derived.HealthInput{
			Temperature: f.IndoorTemperature,
			Humidity:    f.IndoorHumidity,
			CO2:         f.CO2,
			Noise:       f.Noise,
		}))
		out = append(out, m)
	}

	if anySet(f.UVIndex, f.Irradiance, f.Illuminance) {
		m := build(identity.SlotSolar, 0, domain.ModuleSolar, "Solar")
		m.Dashboard.Set(domain.KindUVIndex, f.UVIndex)
		m.Dashboard.Set(domain.KindIrradiance, f.Irradiance)
		m.Dashboard.Set(domain.KindIlluminance, f.Illuminance)
		out = append(out, m)
	}

	for i := 0; i <= identity.MaxExtra; i++ {
		if !anySet(f.ExtraTemperature[i], f.ExtraHumidity[i]) {
			continue
		}
		m := build(identity.SlotExtra, i, domain.ModuleExtra, fmt.Sprintf("Extra %d", i+1))
		m.Dashboard.Set(domain.KindTemperature, f.ExtraTemperature[i])
		m.Dashboard.Set(domain.KindHumidity, f.ExtraHumidity[i])
		out = append(out, m)
	}

	return Keep(out, logger)
}

// Keep drops the modules carrying fewer than two kinds, logging each at
// warning level.
func Keep(modules []domain.Module, logger *slog.Logger) []domain.Module {
	out := make([]domain.Module, 0, len(modules))
	for _, m := range modules {
		if m.Dashboard.Len() < minKinds {
			logger.Warn("record dropped, not enough measurements",
				observability.KeyFacility, "normalize",
				observability.KeyStationID, m.StationID,
				observability.KeyDeviceName, m.StationName,
				observability.KeyModuleID, m.ModuleID,
				observability.KeyModuleName, m.Name,
				"kinds", m.Dashboard.Len(),
			)
			continue
		}
		out = append(out, m)
	}
	return out
}
