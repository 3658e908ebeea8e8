// Package units converts provider measurements to and from the internal unit
// of each quantity.
//
// Internal units are °C, hPa, km/h and mm. Conversions never round; rounding
// is a presentation concern of the caller.
package units

import "fmt"

// Quantity is a physical quantity with a closed set of unit codes.
type Quantity int

const (
	Temperature Quantity = iota
	Pressure
	WindSpeed
	Rainfall
)

func (q Quantity) String() string {
	switch q {
	case Temperature:
		return "temperature"
	case Pressure:
		return "pressure"
	case WindSpeed:
		return "wind speed"
	case Rainfall:
		return "rainfall"
	default:
		return fmt.Sprintf("quantity(%d)", int(q))
	}
}

// Unit is a unit code, meaningful only together with its Quantity.
type Unit int

// Temperature units.
const (
	Celsius    Unit = 0
	Fahrenheit Unit = 1
	Kelvin     Unit = 2
)

// Pressure units.
const (
	HectoPascal       Unit = 0
	InchMercury       Unit = 1
	MillimeterMercury Unit = 2
	KiloPascal        Unit = 3
)

// Wind speed units. Code 3 is Beaufort, which has no inverse and is rejected.
const (
	KilometerPerHour Unit = 0
	MilePerHour      Unit = 1
	MeterPerSecond   Unit = 2
	Knot             Unit = 4
)

// Rainfall units.
const (
	Millimeter Unit = 0
	Inch       Unit = 1
)

const (
	hPaPerInHg   = 33.8638866667
	hPaPerMmHg   = 1.33322368
	kmhPerMph    = 1.609344
	kmhPerMs     = 3.6
	kmhPerKnot   = 1.852
	mmPerInch    = 25.4
	kelvinOffset = 273.15
)

// UnsupportedUnitError reports a unit code outside the closed set of its
// quantity.
type UnsupportedUnitError struct {
	Quantity Quantity
	Unit     Unit
}

func (e *UnsupportedUnitError) Error() string {
	return fmt.Sprintf("unsupported %s unit code %d", e.Quantity, int(e.Unit))
}

// ToInternal converts v expressed in unit to the internal unit of q.
func ToInternal(v float64, unit Unit, q Quantity) (float64, error) {
	switch q {
	case Temperature:
		switch unit {
		case Celsius:
			return v, nil
		case Fahrenheit:
			return (v - 32) * 5 / 9, nil
		case Kelvin:
			return v - kelvinOffset, nil
		}
	case Pressure:
		switch unit {
		case HectoPascal:
			return v, nil
		case InchMercury:
			return v * hPaPerInHg, nil
		case MillimeterMercury:
			return v * hPaPerMmHg, nil
		case KiloPascal:
			return v * 10, nil
		}
	case WindSpeed:
		switch unit {
		case KilometerPerHour:
			return v, nil
		case MilePerHour:
			return v * kmhPerMph, nil
		case MeterPerSecond:
			return v * kmhPerMs, nil
		case Knot:
			return v * kmhPerKnot, nil
		}
	case Rainfall:
		switch unit {
		case Millimeter:
			return v, nil
		case Inch:
			return v * mmPerInch, nil
		}
	}
	return 0, &UnsupportedUnitError{Quantity: q, Unit: unit}
}

// ToDisplay converts v from the internal unit of q to unit.
func ToDisplay(v float64, unit Unit, q Quantity) (float64, error) {
	switch q {
	case Temperature:
		switch unit {
		case Celsius:
			return v, nil
		case Fahrenheit:
			return v*9/5 + 32, nil
		case Kelvin:
			return v + kelvinOffset, nil
		}
	case Pressure:
		switch unit {
		case HectoPascal:
			return v, nil
		case InchMercury:
			return v / hPaPerInHg, nil
		case MillimeterMercury:
			return v / hPaPerMmHg, nil
		case KiloPascal:
			return v / 10, nil
		}
	case WindSpeed:
		switch unit {
		case KilometerPerHour:
			return v, nil
		case MilePerHour:
			return v / kmhPerMph, nil
		case MeterPerSecond:
			return v / kmhPerMs, nil
		case Knot:
			return v / kmhPerKnot, nil
		}
	case Rainfall:
		switch unit {
		case Millimeter:
			return v, nil
		case Inch:
			return v / mmPerInch, nil
		}
	}
	return 0, &UnsupportedUnitError{Quantity: q, Unit: unit}
}

// MustInternal is ToInternal for units already resolved through a parser
// with defaults. It panics on an unsupported code.
func MustInternal(v float64, unit Unit, q Quantity) float64 {
	out, err := ToInternal(v, unit, q)
	if err != nil {
		panic(err)
	}
	return out
}

// Internal converts an optional value. A nil value stays nil; an unsupported
// unit yields nil as well, so the kind is omitted.
func Internal(v *float64, unit Unit, q Quantity) *float64 {
	if v == nil {
		return nil
	}
	out, err := ToInternal(*v, unit, q)
	if err != nil {
		return nil
	}
	return &out
}
