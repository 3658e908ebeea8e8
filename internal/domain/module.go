package domain

import (
	"sort"
	"time"
)

// ModuleType is the closed set of module roles a station can expose.
type ModuleType string

const (
	ModuleMain      ModuleType = "main"
	ModuleOutdoor   ModuleType = "outdoor"
	ModuleIndoor    ModuleType = "indoor"
	ModuleWind      ModuleType = "wind"
	ModuleRain      ModuleType = "rain"
	ModuleSolar     ModuleType = "solar"
	ModuleExtra     ModuleType = "extra"
	ModuleComputed  ModuleType = "computed"
	ModuleEphemeris ModuleType = "ephemeris"
	ModuleCurrent   ModuleType = "current"
	ModulePollution ModuleType = "pollution"
)

// Kind is a measurement kind. Each kind has exactly one internal unit.
type Kind string

// Measured kinds.
const (
	KindTemperature         Kind = "temperature"
	KindHumidity            Kind = "humidity"
	KindPressure            Kind = "pressure"
	KindPressureSeaLevel    Kind = "pressure_sl"
	KindWindAngle           Kind = "windangle"
	KindWindStrength        Kind = "windstrength"
	KindGustAngle           Kind = "gustangle"
	KindGustStrength        Kind = "guststrength"
	KindRain                Kind = "rain"
	KindRainHourAggregated  Kind = "rain_hour_aggregated"
	KindRainDayAggregated   Kind = "rain_day_aggregated"
	KindRainMonthAggregated Kind = "rain_month_aggregated"
	KindRainYearAggregated  Kind = "rain_year_aggregated"
	KindCO2                 Kind = "co2"
	KindNoise               Kind = "noise"
	KindUVIndex             Kind = "uv_index"
	KindIrradiance          Kind = "irradiance"
	KindIlluminance         Kind = "illuminance"
)

// Derived kinds.
const (
	KindDewPoint                       Kind = "dew_point"
	KindFrostPoint                     Kind = "frost_point"
	KindHeatIndex                      Kind = "heat_index"
	KindHumidex                        Kind = "humidex"
	KindWindChill                      Kind = "wind_chill"
	KindCloudCeiling                   Kind = "cloud_ceiling"
	KindCBI                            Kind = "cbi"
	KindSaturationVaporPressure        Kind = "saturation_vapor_pressure"
	KindPartialVaporPressure           Kind = "partial_vapor_pressure"
	KindSaturationAbsoluteHumidity     Kind = "saturation_absolute_humidity"
	KindPartialAbsoluteHumidity        Kind = "partial_absolute_humidity"
	KindSpecificEnthalpy               Kind = "specific_enthalpy"
	KindAirDensity                     Kind = "air_density"
	KindEquilibriumMoistureContent     Kind = "equilibrium_moisture_content"
	KindWetBulb                        Kind = "wet_bulb"
	KindPotentialTemperature           Kind = "potential_temperature"
	KindEquivalentTemperature          Kind = "equivalent_temperature"
	KindEquivalentPotentialTemperature Kind = "equivalent_potential_temperature"
)

// Health kinds.
const (
	KindHealthIndex       Kind = "health_idx"
	KindHealthTemperature Kind = "health_temperature"
	KindHealthHumidity    Kind = "health_humidity"
	KindHealthCO2         Kind = "health_co2"
	KindHealthNoise       Kind = "health_noise"
)

// Ephemeris kinds.
const (
	KindSunrise          Kind = "sunrise"
	KindSunset           Kind = "sunset"
	KindMoonrise         Kind = "moonrise"
	KindMoonset          Kind = "moonset"
	KindMoonPhase        Kind = "moon_phase"
	KindMoonAge          Kind = "moon_age"
	KindMoonIllumination Kind = "moon_illumination"
	KindMoonDistance     Kind = "moon_distance"
	KindMoonDiameter     Kind = "moon_diameter"
	KindSunDistance      Kind = "sun_distance"
	KindSunDiameter      Kind = "sun_diameter"
)

// Pollution kinds.
const (
	KindAQI  Kind = "aqi"
	KindCO   Kind = "co"
	KindNO2  Kind = "no2"
	KindO3   Kind = "o3"
	KindSO2  Kind = "so2"
	KindPM25 Kind = "pm25"
	KindPM10 Kind = "pm10"
)

// Defaults for providers with no notion of firmware, battery or signal.
const (
	DefaultFirmware = 0
	DefaultBattery  = 100
	DefaultSignal   = 100
)

// Dashboard is a timestamped set of measurements for one module.
type Dashboard struct {
	Time   time.Time        `json:"time"`
	Values map[Kind]float64 `json:"values"`
}

// NewDashboard returns an empty dashboard stamped with t, truncated to the
// second and converted to UTC.
func NewDashboard(t time.Time) Dashboard {
	return Dashboard{
		Time:   t.UTC().Truncate(time.Second),
		Values: make(map[Kind]float64),
	}
}

// Set stores v under kind. A nil value is missing data and is ignored.
func (d *Dashboard) Set(kind Kind, v *float64) {
	if v == nil {
		return
	}
	d.Put(kind, *v)
}

// Put stores v under kind.
func (d *Dashboard) Put(kind Kind, v float64) {
	if d.Values == nil {
		d.Values = make(map[Kind]float64)
	}
	d.Values[kind] = v
}

// Merge copies every value of m onto the dashboard.
func (d *Dashboard) Merge(m map[Kind]float64) {
	for k, v := range m {
		d.Put(k, v)
	}
}

// Has reports whether kind is present.
func (d Dashboard) Has(kind Kind) bool {
	_, ok := d.Values[kind]
	return ok
}

// Len returns the number of kinds on the dashboard.
func (d Dashboard) Len() int { return len(d.Values) }

// Kinds returns the dashboard kinds in lexical order.
func (d Dashboard) Kinds() []Kind {
	out := make([]Kind, 0, len(d.Values))
	for k := range d.Values {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Module is the canonical record for one logical sensor group of a station.
// Modules are built fresh on every collection cycle and handed to a Sink.
type Module struct {
	StationID   string     `json:"station_id"`
	StationName string     `json:"station_name"`
	ModuleID    string     `json:"module_id"`
	Type        ModuleType `json:"type"`
	Name        string     `json:"name"`
	Firmware    int        `json:"firmware"`
	Battery     int        `json:"battery"`
	Signal      int        `json:"signal"`
	Place       Place      `json:"place"`
	Dashboard   Dashboard  `json:"dashboard"`
}

// NewModule returns a module with default firmware, battery and signal.
func NewModule(station Station, moduleID string, typ ModuleType, name string, t time.Time) Module {
	return Module{
		StationID:   station.ID,
		StationName: station.Name,
		ModuleID:    moduleID,
		Type:        typ,
		Name:        name,
		Firmware:    DefaultFirmware,
		Battery:     DefaultBattery,
		Signal:      DefaultSignal,
		Place:       station.Place,
		Dashboard:   NewDashboard(t),
	}
}
