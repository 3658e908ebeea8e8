package derived

import "math"

const (
	kelvin       = 273.15
	rDryAir      = 287.05 // J/(kg·K)
	rWaterVapor  = 461.5  // J/(kg·K)
	svpAtZero    = 611.2  // Pa
	epsilonRatio = 0.622
)

func round(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}

func svp(t float64) float64 {
	if t < 0 {
		return svpAtZero * math.Exp(22.46*t/(272.62+t))
	}
	return svpAtZero * math.Exp(17.62*t/(243.12+t))
}

func pvp(t, h float64) float64 {
	return svp(t) * h / 100
}

func mixingRatio(e, p float64) (float64, bool) {
	if p-e <= 0 {
		return 0, false
	}
	return epsilonRatio * e / (p - e), true
}

// SaturationVaporPressure returns the Magnus-Sonntag saturation vapor pressure
// in Pa, over ice below 0 °C.
func SaturationVaporPressure(t float64) float64 {
	return round(svp(t), 0)
}

// PartialVaporPressure returns the vapor pressure in Pa at relative humidity h.
func PartialVaporPressure(t, h float64) float64 {
	return round(pvp(t, h), 0)
}

// SaturationAbsoluteHumidity returns the saturated vapor density in kg/m³.
func SaturationAbsoluteHumidity(t float64) float64 {
	return round(svp(t)/(rWaterVapor*(t+kelvin)), 5)
}

// PartialAbsoluteHumidity returns the vapor density in kg/m³.
func PartialAbsoluteHumidity(t, h float64) float64 {
	return round(pvp(t, h)/(rWaterVapor*(t+kelvin)), 5)
}

// AirDensity returns the density of moist air in kg/m³. A zero pressure
// yields 0.
func AirDensity(t, h, p float64) float64 {
	if p == 0 {
		return 0
	}
	e := pvp(t, h)
	tk := t + kelvin
	return round((p-e)/(rDryAir*tk)+e/(rWaterVapor*tk), 3)
}

// SpecificEnthalpy returns the enthalpy of moist air in J/kg of dry air.
func SpecificEnthalpy(t, h, p float64) (float64, bool) {
	x, ok := mixingRatio(pvp(t, h), p)
	if !ok {
		return 0, false
	}
	return round(1000*(1.006*t+x*(2501+1.86*t)), 0), true
}

// EquilibriumMoistureContent returns the wood equilibrium moisture content in
// percent (Hailwood-Horrobin, as fitted by Simpson 1998).
func EquilibriumMoistureContent(t, h float64) float64 {
	tf := t*9/5 + 32
	w := 330 + 0.452*tf + 0.00415*tf*tf
	k := 0.791 + 0.000463*tf - 0.000000844*tf*tf
	k1 := 6.34 + 0.000775*tf - 0.0000935*tf*tf
	k2 := 1.09 + 0.0284*tf - 0.0000904*tf*tf
	kh := k * h / 100
	emc := 1800 / w * (kh/(1-kh) + (k1*kh+2*k1*k2*kh*kh)/(1+k1*kh+k1*k2*kh*kh))
	return round(emc, 1)
}

// WetBulbTemperature returns the Stull (2011) wet-bulb temperature in °C.
func WetBulbTemperature(t, h float64) float64 {
	tw := t*math.Atan(0.151977*math.Sqrt(h+8.313659)) +
		math.Atan(t+h) - math.Atan(h-1.676331) +
		0.00391838*math.Pow(h, 1.5)*math.Atan(0.023101*h) -
		4.686035
	return round(tw, 1)
}

func theta(t, p float64) float64 {
	return (t+kelvin)*math.Pow(100000/p, 0.2857) - kelvin
}

// PotentialTemperature returns the potential temperature in °C referenced to
// 1000 hPa.
func PotentialTemperature(t, p float64) (float64, bool) {
	if p == 0 {
		return 0, false
	}
	return round(theta(t, p), 1), true
}

func equivalent(t, h, p float64) (float64, bool) {
	x, ok := mixingRatio(pvp(t, h), p)
	if !ok {
		return 0, false
	}
	return t + 2501/1.006*x, true
}

// EquivalentTemperature returns the temperature air would reach if all its
// vapor condensed, in °C.
func EquivalentTemperature(t, h, p float64) (float64, bool) {
	te, ok := equivalent(t, h, p)
	if !ok {
		return 0, false
	}
	return round(te, 1), true
}

// EquivalentPotentialTemperature returns the potential temperature of the
// equivalent temperature, in °C.
func EquivalentPotentialTemperature(t, h, p float64) (float64, bool) {
	te, ok := equivalent(t, h, p)
	if !ok {
		return 0, false
	}
	return round(theta(te, p), 1), true
}
