package derived

import "math"

func dewPoint(t, h float64) (float64, bool) {
	if h <= 0 {
		return 0, false
	}
	g := math.Log(h/100) + 17.62*t/(243.12+t)
	return 243.12 * g / (17.62 - g), true
}

// DewPoint returns the Magnus dew point in °C. It is undefined for a
// non-positive humidity.
func DewPoint(t, h float64) (float64, bool) {
	d, ok := dewPoint(t, h)
	if !ok {
		return 0, false
	}
	return round(d, 1), true
}

// FrostPoint returns the frost point in °C from the temperature and the dew
// point.
func FrostPoint(t, dew float64) (float64, bool) {
	tk := t + kelvin
	denom := 2954.61/tk + 2.193665*math.Log(tk) - 13.3448
	if denom == 0 || math.IsNaN(denom) {
		return 0, false
	}
	fp := (dew + kelvin) - tk + 2671.02/denom
	return round(fp-kelvin, 1), true
}

// HeatIndex returns the NWS heat index in °C.
func HeatIndex(t, h float64) float64 {
	tf := t*9/5 + 32
	hi := 0.5 * (tf + 61 + (tf-68)*1.2 + h*0.094)
	if (hi+tf)/2 >= 80 {
		hi = -42.379 + 2.04901523*tf + 10.14333127*h -
			0.22475541*tf*h - 0.00683783*tf*tf - 0.05481717*h*h +
			0.00122874*tf*tf*h + 0.00085282*tf*h*h - 0.00000199*tf*tf*h*h
		switch {
		case h < 13 && tf >= 80 && tf <= 112:
			hi -= (13 - h) / 4 * math.Sqrt((17-math.Abs(tf-95))/17)
		case h > 85 && tf >= 80 && tf <= 87:
			hi += (h - 85) / 10 * ((87 - tf) / 5)
		}
	}
	return round((hi-32)*5/9, 1)
}

func humidex(t, dew float64) float64 {
	return t + 0.5555*(6.11*math.Exp(5417.7530*(1/273.16-1/(kelvin+dew)))-10)
}

// Humidex returns the Canadian humidex from the temperature and dew point.
func Humidex(t, dew float64) float64 {
	return round(humidex(t, dew), 0)
}

// WindChill returns the wind chill in °C for a wind speed v in km/h. Below
// 4.8 km/h the linear low-wind form applies; from 4.8 km/h on, the
// JAG/TI power-law form.
func WindChill(t, v float64) float64 {
	if v < 4.8 {
		return round(t+0.2*(0.1345*t-1.59)*v, 1)
	}
	p := math.Pow(v, 0.16)
	return round(13.12+0.6215*t-11.37*p+0.3965*t*p, 1)
}

// CloudCeiling returns the estimated cumulus base in meters above ground.
func CloudCeiling(t, dew float64) float64 {
	return round(math.Max(0, 125*(t-dew)), 0)
}

// ChandlerBurningIndex returns the Chandler burning index. The index is not
// clamped.
func ChandlerBurningIndex(t, h float64) float64 {
	cbi := ((110 - 1.373*h) - 0.54*(10.20-t)) * (124 * math.Pow(10, -0.0142*h)) / 60
	return round(cbi, 1)
}
