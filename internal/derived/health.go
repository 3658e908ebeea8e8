package derived

import (
	"math"

	"github.com/couchcryptid/station-telemetry-etl/internal/domain"
)

// HealthInput carries the optional indoor readings the health index rates.
type HealthInput struct {
	Temperature *float64 // °C
	Humidity    *float64 // %
	CO2         *float64 // ppm
	Noise       *float64 // dB
}

type band struct {
	upTo  float64
	score float64
}

// score returns the adjustment of the first band whose bound covers d, or
// beyond when d exceeds every bound.
func score(d float64, bands []band, beyond float64) float64 {
	for _, b := range bands {
		if d <= b.upTo {
			return b.score
		}
	}
	return beyond
}

var (
	temperatureBands = []band{{1, 12}, {2, 8}, {4, 3}, {6, -4}, {9, -10}}
	humidityBands    = []band{{5, 12}, {10, 7}, {18, 0}, {28, -8}}
	co2Bands         = []band{{200, 14}, {600, 6}, {1100, -4}, {1600, -12}}
	noiseBands       = []band{{5, 10}, {15, 4}, {25, -5}, {35, -12}}
)

const (
	idealTemperature = 19.0
	idealHumidity    = 52.0
	idealCO2         = 400.0
	idealNoise       = 35.0
)

// comfort rates the temperature and humidity pair together through the dew
// point spread and the humidex.
func comfort(t, h float64) float64 {
	dew, ok := dewPoint(t, h)
	if !ok {
		return 0
	}
	var c float64
	switch spread := t - dew; {
	case spread < 2:
		c -= 6
	case spread < 5:
		c -= 2
	case spread <= 15:
		c += 2
	default:
		c -= 4
	}
	switch hx := humidex(t, dew); {
	case hx < 30:
		c += 4
	case hx < 35:
	case hx < 40:
		c -= 6
	case hx < 46:
		c -= 12
	default:
		c -= 20
	}
	return c
}

// Health rates indoor air quality. It returns health_idx in 0..100 together
// with the signed adjustment of every present sub-indicator. Fewer than two
// sub-indicators yield an empty map.
func Health(in HealthInput) map[domain.Kind]float64 {
	out := make(map[domain.Kind]float64)
	if in.Temperature != nil {
		out[domain.KindHealthTemperature] = score(math.Abs(*in.Temperature-idealTemperature), temperatureBands, -18)
	}
	if in.Humidity != nil {
		out[domain.KindHealthHumidity] = score(math.Abs(*in.Humidity-idealHumidity), humidityBands, -15)
	}
	if in.CO2 != nil {
		out[domain.KindHealthCO2] = score(math.Max(0, *in.CO2-idealCO2), co2Bands, -22)
	}
	if in.Noise != nil {
		out[domain.KindHealthNoise] = score(math.Max(0, *in.Noise-idealNoise), noiseBands, -20)
	}
	if len(out) < 2 {
		return map[domain.Kind]float64{}
	}

	sum := 0.0
	for _, v := range out {
		sum += v
	}
	if in.Temperature != nil && in.Humidity != nil {
		sum += comfort(*in.Temperature, *in.Humidity)
	}
	out[domain.KindHealthIndex] = math.Round(math.Min(100, math.Max(0, 50+sum)))
	return out
}
