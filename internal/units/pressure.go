package units

import (
	"math"
	"strings"
)

// SeaLevelPressure reduces an absolute pressure in hPa measured at altitudeM
// with air temperature tempC to sea level, rounded to 0.1 hPa.
func SeaLevelPressure(absHPa, altitudeM, tempC float64) float64 {
	lapse := 0.0065 * altitudeM
	p := absHPa * math.Pow(1-lapse/(tempC+lapse+kelvinOffset), -5.257)
	return math.Round(p*10) / 10
}

var compassPoints = []string{
	"N", "NNE", "NE", "ENE", "E", "ESE", "SE", "SSE",
	"S", "SSW", "SW", "WSW", "W", "WNW", "NW", "NNW",
}

// CompassToDegrees converts a 16-point compass label to degrees.
func CompassToDegrees(label string) (float64, bool) {
	label = strings.ToUpper(strings.TrimSpace(label))
	for i, p := range compassPoints {
		if p == label {
			return float64(i) * 22.5, true
		}
	}
	return 0, false
}
