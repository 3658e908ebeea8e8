package derived

import "github.com/couchcryptid/station-telemetry-etl/internal/domain"

// WeatherInput carries the optional reference values of a station. Pressure
// is in hPa, as stored on dashboards.
type WeatherInput struct {
	Temperature  *float64
	Humidity     *float64
	WindStrength *float64
	Pressure     *float64
}

// Weather returns every derived kind whose inputs are present. An input set
// with no usable pair yields an empty map.
func Weather(in WeatherInput) map[domain.Kind]float64 {
	out := make(map[domain.Kind]float64)
	if in.Temperature == nil {
		return out
	}
	t := *in.Temperature

	if in.WindStrength != nil {
		out[domain.KindWindChill] = WindChill(t, *in.WindStrength)
	}
	if in.Humidity == nil {
		return out
	}
	h := *in.Humidity

	out[domain.KindCBI] = ChandlerBurningIndex(t, h)
	out[domain.KindHeatIndex] = HeatIndex(t, h)
	if dew, ok := DewPoint(t, h); ok {
		out[domain.KindDewPoint] = dew
		out[domain.KindHumidex] = Humidex(t, dew)
		out[domain.KindCloudCeiling] = CloudCeiling(t, dew)
		if fp, ok := FrostPoint(t, dew); ok {
			out[domain.KindFrostPoint] = fp
		}
	}

	if in.Pressure == nil {
		return out
	}
	p := *in.Pressure * 100

	out[domain.KindSaturationVaporPressure] = SaturationVaporPressure(t)
	out[domain.KindPartialVaporPressure] = PartialVaporPressure(t, h)
	out[domain.KindSaturationAbsoluteHumidity] = SaturationAbsoluteHumidity(t)
	out[domain.KindPartialAbsoluteHumidity] = PartialAbsoluteHumidity(t, h)
	out[domain.KindAirDensity] = AirDensity(t, h, p)
	out[domain.KindEquilibriumMoistureContent] = EquilibriumMoistureContent(t, h)
	out[domain.KindWetBulb] = WetBulbTemperature(t, h)
	if v, ok := SpecificEnthalpy(t, h, p); ok {
		out[domain.KindSpecificEnthalpy] = v
	}
	if v, ok := PotentialTemperature(t, p); ok {
		out[domain.KindPotentialTemperature] = v
	}
	if v, ok := EquivalentTemperature(t, h, p); ok {
		out[domain.KindEquivalentTemperature] = v
	}
	if v, ok := EquivalentPotentialTemperature(t, h, p); ok {
		out[domain.KindEquivalentPotentialTemperature] = v
	}
	return out
}
