package identity

import "strconv"

// Family is a provider family name.
type Family string

const (
	Netatmo        Family = "netatmo"
	OpenWeatherMap Family = "openweathermap"
	WUnderground   Family = "wunderground"
	Clientraw      Family = "clientraw"
	Realtime       Family = "realtime"
	Stickertags    Family = "stickertags"
	Pioupiou       Family = "pioupiou"
	WeatherFlow    Family = "weatherflow"
	Ambient        Family = "ambient"
	WeatherLink    Family = "weatherlink"
)

// Netatmo keeps the hardware MAC of its devices and has no prefix.
var prefixes = map[Family]string{
	OpenWeatherMap: "30",
	WUnderground:   "40",
	Clientraw:      "61",
	Realtime:       "62",
	Stickertags:    "63",
	Pioupiou:       "81",
	WeatherFlow:    "82",
	Ambient:        "83",
	WeatherLink:    "84",
}

// Prefix returns the station id prefix of f. Netatmo has none.
func (f Family) Prefix() (string, bool) {
	p, ok := prefixes[f]
	return p, ok
}

// Families lists every known family, netatmo first.
func Families() []Family {
	return []Family{
		Netatmo, OpenWeatherMap, WUnderground, Clientraw, Realtime,
		Stickertags, Pioupiou, WeatherFlow, Ambient, WeatherLink,
	}
}

// Detect returns the family owning a station id. Ids whose prefix matches no
// synthetic family are hardware MACs and belong to netatmo.
func Detect(id string) Family {
	p := DecodeProvider(id)
	for f, prefix := range prefixes {
		if prefix == p {
			return f
		}
	}
	return Netatmo
}

// StationID builds the synthetic station id of a catalog GUID. Netatmo has no
// synthetic ids; its GUID is encoded under a zero prefix.
func StationID(f Family, guid int64) string {
	p, _ := f.Prefix()
	return Encode(p, strconv.FormatInt(guid, 10))
}
