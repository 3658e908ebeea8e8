// Package ambient normalizes the Ambient Weather device list.
//
// Each device reports its latest observation under lastData in imperial
// units, with up to nine extra temperature and humidity channels.
package ambient

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/couchcryptid/station-telemetry-etl/internal/domain"
	"github.com/couchcryptid/station-telemetry-etl/internal/identity"
	"github.com/couchcryptid/station-telemetry-etl/internal/provider"
	"github.com/couchcryptid/station-telemetry-etl/internal/units"
)

type device struct {
	MACAddress string `json:"macAddress"`
	Info       struct {
		Name   string `json:"name"`
		Coords struct {
			Coords struct {
				Lat float64 `json:"lat"`
				Lon float64 `json:"lon"`
			} `json:"coords"`
			Elevation float64 `json:"elevation"`
			Location  string  `json:"location"`
		} `json:"coords"`
	} `json:"info"`
	LastData observation `json:"lastData"`
}

// observation keeps lastData as raw fields; the extra channels are addressed
// by computed key.
type observation map[string]json.RawMessage

func (o observation) number(key string) *float64 {
	raw, ok := o[key]
	if !ok {
		return nil
	}
	var v *float64
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	return v
}

func (o observation) text(key string) string {
	var s string
	if raw, ok := o[key]; ok {
		_ = json.Unmarshal(raw, &s)
	}
	return s
}

// New returns the ambient provider.
func New(deps provider.Deps) *provider.Base {
	return provider.New(identity.Ambient, Normalize, Discover, deps)
}

func decode(p domain.Payload) ([]device, error) {
	var devices []device
	if err := json.Unmarshal(p.Body, &devices); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrMalformedPayload, err)
	}
	for i, d := range devices {
		if d.MACAddress == "" {
			return nil, fmt.Errorf("%w: device %d has no mac address", domain.ErrMalformedPayload, i)
		}
	}
	return devices, nil
}

func (d device) station() domain.Station {
	name := d.Info.Name
	if name == "" {
		name = d.MACAddress
	}
	return domain.Station{
		ID:          identity.Encode(stationPrefix(), d.MACAddress),
		ServiceID:   d.MACAddress,
		Provider:    string(identity.Ambient),
		Name:        name,
		Operational: len(d.LastData) > 0,
		Place: domain.Place{
			City:     d.Info.Coords.Location,
			Timezone: d.LastData.text("tz"),
			Altitude: d.Info.Coords.Elevation,
			Location: [2]float64{d.Info.Coords.Coords.Lon, d.Info.Coords.Coords.Lat},
		},
	}
}

func stationPrefix() string {
	p, _ := identity.Ambient.Prefix()
	return p
}

// Discover reports every device as a station.
func Discover(p domain.Payload, _ domain.Catalog) ([]domain.Station, error) {
	devices, err := decode(p)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Station, 0, len(devices))
	for _, d := range devices {
		out = append(out, d.station())
	}
	return out, nil
}

// Normalize fans every device out into slot modules.
func Normalize(p domain.Payload, _ domain.Catalog, logger *slog.Logger) ([]domain.Module, error) {
	devices, err := decode(p)
	if err != nil {
		return nil, err
	}
	var out []domain.Module
	for _, d := range devices {
		out = append(out, provider.FanOut(flatten(d, p), logger)...)
	}
	return out, nil
}

func flatten(d device, p domain.Payload) provider.Flat {
	o := d.LastData
	temp := func(key string) *float64 { return provider.Convert(o.number(key), units.Fahrenheit, units.Temperature) }
	wind := func(key string) *float64 { return provider.Convert(o.number(key), units.MilePerHour, units.WindSpeed) }
	press := func(key string) *float64 { return provider.Convert(o.number(key), units.InchMercury, units.Pressure) }
	rain := func(key string) *float64 { return provider.Convert(o.number(key), units.Inch, units.Rainfall) }

	observed := p.ReceivedAt
	if ms := o.number("dateutc"); ms != nil {
		observed = provider.EpochMillis(int64(*ms))
	}

	var gustAngle *float64
	if o.number("windgustmph") != nil {
		gustAngle = o.number("winddir")
	}

	f := provider.Flat{
		Station:           d.station(),
		Time:              observed,
		Pressure:          press("baromabsin"),
		PressureSeaLevel:  press("baromrelin"),
		Temperature:       temp("tempf"),
		Humidity:          o.number("humidity"),
		WindAngle:         o.number("winddir"),
		WindStrength:      wind("windspeedmph"),
		GustAngle:         gustAngle,
		GustStrength:      wind("windgustmph"),
		RainHour:          rain("hourlyrainin"),
		RainDay:           rain("dailyrainin"),
		RainMonth:         rain("monthlyrainin"),
		RainYear:          rain("yearlyrainin"),
		IndoorTemperature: temp("tempinf"),
		IndoorHumidity:    o.number("humidityin"),
		CO2:               o.number("co2"),
		UVIndex:           o.number("uv"),
		Irradiance:        o.number("solarradiation"),
	}
	for i := 0; i <= identity.MaxExtra; i++ {
		n := strconv.Itoa(i + 1)
		f.ExtraTemperature[i] = temp("temp" + n + "f")
		f.ExtraHumidity[i] = o.number("humidity" + n)
	}
	return f
}
