package units

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToInternal(t *testing.T) {
	tests := []struct {
		name string
		v    float64
		unit Unit
		q    Quantity
		want float64
	}{
		{"celsius identity", 21.5, Celsius, Temperature, 21.5},
		{"fahrenheit freezing", 32, Fahrenheit, Temperature, 0},
		{"fahrenheit boiling", 212, Fahrenheit, Temperature, 100},
		{"kelvin", 273.15, Kelvin, Temperature, 0},
		{"hpa identity", 1013.2, HectoPascal, Pressure, 1013.2},
		{"inhg", 29.92, InchMercury, Pressure, 1013.207},
		{"mmhg", 760, MillimeterMercury, Pressure, 1013.25},
		{"kpa", 101.3, KiloPascal, Pressure, 1013},
		{"kmh identity", 12, KilometerPerHour, WindSpeed, 12},
		{"mph", 10, MilePerHour, WindSpeed, 16.09344},
		{"mps", 10, MeterPerSecond, WindSpeed, 36},
		{"knot", 10, Knot, WindSpeed, 18.52},
		{"mm identity", 4.2, Millimeter, Rainfall, 4.2},
		{"inch", 1, Inch, Rainfall, 25.4},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ToInternal(tc.v, tc.unit, tc.q)
			require.NoError(t, err)
			assert.InDelta(t, tc.want, got, 0.01)
		})
	}
}

func TestRoundTrip(t *testing.T) {
	cases := map[Quantity][]Unit{
		Temperature: {Celsius, Fahrenheit, Kelvin},
		Pressure:    {HectoPascal, InchMercury, MillimeterMercury, KiloPascal},
		WindSpeed:   {KilometerPerHour, MilePerHour, MeterPerSecond, Knot},
		Rainfall:    {Millimeter, Inch},
	}
	for q, us := range cases {
		for _, u := range us {
			internal, err := ToInternal(17.3, u, q)
			require.NoError(t, err)
			back, err := ToDisplay(internal, u, q)
			require.NoError(t, err)
			assert.InDelta(t, 17.3, back, 1e-9, "%s unit %d", q, u)
		}
	}
}

func TestToInternal_UnsupportedUnit(t *testing.T) {
	_, err := ToInternal(5, 3, WindSpeed)

	var uerr *UnsupportedUnitError
	require.True(t, errors.As(err, &uerr))
	assert.Equal(t, WindSpeed, uerr.Quantity)
	assert.Equal(t, Unit(3), uerr.Unit)
	assert.Contains(t, err.Error(), "wind speed")
}

func TestToDisplay_UnsupportedUnit(t *testing.T) {
	_, err := ToDisplay(5, 9, Rainfall)
	assert.Error(t, err)
}

func TestMustInternal_Panics(t *testing.T) {
	assert.Panics(t, func() { MustInternal(1, 7, Temperature) })
	assert.InDelta(t, 0, MustInternal(32, Fahrenheit, Temperature), 1e-9)
}

func TestInternal_Optional(t *testing.T) {
	assert.Nil(t, Internal(nil, Fahrenheit, Temperature))
	in := 50.0
	assert.Nil(t, Internal(&in, 3, WindSpeed))
	got := Internal(&in, Fahrenheit, Temperature)
	require.NotNil(t, got)
	assert.InDelta(t, 10, *got, 1e-9)
}

func TestParsers(t *testing.T) {
	assert.Equal(t, Celsius, ParseTemperature("°C", Fahrenheit))
	assert.Equal(t, Fahrenheit, ParseTemperature(" F ", Celsius))
	assert.Equal(t, Celsius, ParseTemperature("rankine", Celsius))
	assert.Equal(t, HectoPascal, ParsePressure("mb", InchMercury))
	assert.Equal(t, InchMercury, ParsePressure("inHg", HectoPascal))
	assert.Equal(t, Knot, ParseWind("kts", KilometerPerHour))
	assert.Equal(t, MeterPerSecond, ParseWind("m/s", KilometerPerHour))
	assert.Equal(t, KilometerPerHour, ParseWind("bft", KilometerPerHour))
	assert.Equal(t, Inch, ParseRain("in", Millimeter))
}

func TestParseDescriptor(t *testing.T) {
	got := ParseDescriptor("°F|mph|inHg|in", "|")
	assert.Equal(t, Imperial, got)

	got = ParseDescriptor("°C|kts|hPa|mm", "|")
	assert.Equal(t, Set{Temperature: Celsius, Wind: Knot, Pressure: HectoPascal, Rain: Millimeter}, got)

	got = ParseDescriptor("°C|??", "|")
	assert.Equal(t, Metric, got)
}

func TestSeaLevelPressure(t *testing.T) {
	assert.Equal(t, 1013.0, SeaLevelPressure(1013, 0, 15))
	got := SeaLevelPressure(950, 500, 15)
	assert.InDelta(t, 1007.7, got, 0.1)
	assert.Greater(t, got, 950.0)
}

func TestCompassToDegrees(t *testing.T) {
	d, ok := CompassToDegrees("NNE")
	assert.True(t, ok)
	assert.Equal(t, 22.5, d)

	d, ok = CompassToDegrees("w")
	assert.True(t, ok)
	assert.Equal(t, 270.0, d)

	_, ok = CompassToDegrees("Variable")
	assert.False(t, ok)
}
