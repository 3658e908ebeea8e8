package units

import "strings"

var temperatureTokens = map[string]Unit{
	"c": Celsius, "°c": Celsius, "degc": Celsius, "celsius": Celsius,
	"f": Fahrenheit, "°f": Fahrenheit, "degf": Fahrenheit, "fahrenheit": Fahrenheit,
	"k": Kelvin, "kelvin": Kelvin,
}

var pressureTokens = map[string]Unit{
	"hpa": HectoPascal, "mb": HectoPascal, "mbar": HectoPascal, "millibar": HectoPascal,
	"in": InchMercury, "inhg": InchMercury, "inches": InchMercury,
	"mm": MillimeterMercury, "mmhg": MillimeterMercury,
	"kpa": KiloPascal,
}

var windTokens = map[string]Unit{
	"km/h": KilometerPerHour, "kmh": KilometerPerHour, "kph": KilometerPerHour, "kmph": KilometerPerHour,
	"mph": MilePerHour,
	"m/s": MeterPerSecond, "ms": MeterPerSecond, "mps": MeterPerSecond,
	"kts": Knot, "kt": Knot, "knot": Knot, "knots": Knot,
}

var rainTokens = map[string]Unit{
	"mm": Millimeter, "millimeters": Millimeter,
	"in": Inch, "inch": Inch, "inches": Inch,
}

func lookup(table map[string]Unit, token string, def Unit) Unit {
	if u, ok := table[strings.ToLower(strings.TrimSpace(token))]; ok {
		return u
	}
	return def
}

// ParseTemperature maps a free-text temperature unit token to its code, or
// returns def when the token is unknown.
func ParseTemperature(token string, def Unit) Unit { return lookup(temperatureTokens, token, def) }

// ParsePressure maps a pressure unit token ("hPa", "mb", "inHg"...).
func ParsePressure(token string, def Unit) Unit { return lookup(pressureTokens, token, def) }

// ParseWind maps a wind speed unit token ("kts", "m/s", "mph"...).
func ParseWind(token string, def Unit) Unit { return lookup(windTokens, token, def) }

// ParseRain maps a rainfall unit token ("mm", "in").
func ParseRain(token string, def Unit) Unit { return lookup(rainTokens, token, def) }

// Set is the unit set a provider payload is expressed in.
type Set struct {
	Temperature Unit
	Wind        Unit
	Pressure    Unit
	Rain        Unit
}

// Metric is the internal unit set.
var Metric = Set{Temperature: Celsius, Wind: KilometerPerHour, Pressure: HectoPascal, Rain: Millimeter}

// Imperial is the unit set of US-facing providers.
var Imperial = Set{Temperature: Fahrenheit, Wind: MilePerHour, Pressure: InchMercury, Rain: Inch}

// ParseDescriptor splits a delimited unit descriptor such as "°C|kts|hPa|mm"
// in temperature, wind, pressure, rain order. Missing or unknown tokens fall
// back to the internal unit.
func ParseDescriptor(s, sep string) Set {
	parts := strings.Split(s, sep)
	token := func(i int) string {
		if i < len(parts) {
			return parts[i]
		}
		return ""
	}
	return Set{
		Temperature: ParseTemperature(token(0), Celsius),
		Wind:        ParseWind(token(1), KilometerPerHour),
		Pressure:    ParsePressure(token(2), HectoPascal),
		Rain:        ParseRain(token(3), Millimeter),
	}
}
