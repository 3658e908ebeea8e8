// Package astro implements the ephemeris Astronomer on top of suncalc.
package astro

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/sixdouglas/suncalc"

	"github.com/couchcryptid/station-telemetry-etl/internal/ephemeris"
)

const (
	synodicMonth = 29.530588853 // days
	auKM         = 149597870.7
	sunRadiusKM  = 696340.0
	moonRadiusKM = 1737.4
	j2000        = 2451545.0
	unixEpochJD  = 2440587.5
)

// Astronomer computes sun and moon events with suncalc.
type Astronomer struct{}

// New returns an Astronomer.
func New() *Astronomer { return &Astronomer{} }

// guard turns a panic inside suncalc into an error.
func guard(op string, err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("%s: %v", op, r)
	}
}

// valid rejects the zero time and the far-off dates suncalc produces from a
// NaN julian day when the sun never crosses the horizon.
func valid(t, date time.Time) bool {
	if t.IsZero() {
		return false
	}
	d := t.Sub(date)
	return d > -48*time.Hour && d < 48*time.Hour
}

// SunTimes returns the sunrise and sunset of date's civil day. Rise or Set
// is zero when the sun does not cross the horizon that day (polar day or
// polar night).
func (Astronomer) SunTimes(date time.Time, lat, lon float64) (st ephemeris.SunTimes, err error) {
	defer guard("sun times", &err)

	times := suncalc.GetTimes(date, lat, lon)
	if rise, ok := times[suncalc.Sunrise]; ok && valid(rise.Value, date) {
		st.Rise = rise.Value
	}
	if set, ok := times[suncalc.Sunset]; ok && valid(set.Value, date) {
		st.Set = set.Value
	}
	return st, nil
}

// MoonTimes returns the moonrise and moonset computed for date's civil day.
// A moon that stays above or below the horizon yields zero times.
func (Astronomer) MoonTimes(date time.Time, lat, lon float64) (mt ephemeris.MoonTimes, err error) {
	defer guard("moon times", &err)

	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	times := suncalc.GetMoonTimes(day, lat, lon, false)
	if times.AlwaysUp || times.AlwaysDown {
		return ephemeris.MoonTimes{}, nil
	}
	return ephemeris.MoonTimes{Rise: times.Rise, Set: times.Set}, nil
}

// Lunar returns the moon phase and the apparent size and distance of the sun
// and moon at t.
func (Astronomer) Lunar(t time.Time) (l ephemeris.Lunar, err error) {
	defer guard("lunar", &err)

	illum := suncalc.GetMoonIllumination(t)
	// suncalc reports a geocentric distance; the observer does not matter.
	pos := suncalc.GetMoonPosition(t, 0, 0)
	if math.IsNaN(illum.Phase) || math.IsNaN(pos.Distance) || pos.Distance <= 0 {
		return ephemeris.Lunar{}, errors.New("lunar: invalid model output")
	}

	sunDistance := SunDistance(t)
	return ephemeris.Lunar{
		Phase:        round(illum.Phase, 4),
		Age:          round(illum.Phase*synodicMonth, 2),
		Illumination: round(illum.Fraction, 4),
		MoonDistance: math.Round(pos.Distance),
		MoonDiameter: round(angularDiameter(moonRadiusKM, pos.Distance), 4),
		SunDistance:  math.Round(sunDistance),
		SunDiameter:  round(angularDiameter(sunRadiusKM, sunDistance), 4),
	}, nil
}

// SunDistance returns the Earth-Sun distance in km at t.
func SunDistance(t time.Time) float64 {
	d := float64(t.Unix())/86400 + unixEpochJD - j2000
	g := (357.529 + 0.98560028*d) * math.Pi / 180
	return (1.00014 - 0.01671*math.Cos(g) - 0.00014*math.Cos(2*g)) * auKM
}

// angularDiameter returns the apparent diameter in degrees of a body of the
// given radius seen from distance, both in km.
func angularDiameter(radius, distance float64) float64 {
	return 2 * math.Atan(radius/distance) * 180 / math.Pi
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
