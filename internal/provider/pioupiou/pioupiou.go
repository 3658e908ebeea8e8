// Package pioupiou normalizes the live endpoint of the Pioupiou community
// wind network.
package pioupiou

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/couchcryptid/station-telemetry-etl/internal/domain"
	"github.com/couchcryptid/station-telemetry-etl/internal/identity"
	"github.com/couchcryptid/station-telemetry-etl/internal/provider"
	"github.com/couchcryptid/station-telemetry-etl/internal/units"
)

// standardTemperature is the ISA sea-level temperature in °C, used to reduce
// pressure to sea level since the sensor has no thermometer.
const standardTemperature = 15.0

type response struct {
	Data *sensor `json:"data"`
}

type sensor struct {
	ID   int64 `json:"id"`
	Meta struct {
		Name string `json:"name"`
	} `json:"meta"`
	Location struct {
		Latitude  *float64 `json:"latitude"`
		Longitude *float64 `json:"longitude"`
	} `json:"location"`
	Measurements struct {
		Date         *time.Time `json:"date"`
		WindHeading  *float64   `json:"wind_heading"`
		WindSpeedAvg *float64   `json:"wind_speed_avg"`
		WindSpeedMax *float64   `json:"wind_speed_max"`
		Pressure     *float64   `json:"pressure"`
	} `json:"measurements"`
	Status struct {
		State string `json:"state"`
	} `json:"status"`
}

// New returns the pioupiou provider.
func New(deps provider.Deps) *provider.Base {
	return provider.New(identity.Pioupiou, Normalize, Discover, deps)
}

func decode(p domain.Payload) (*sensor, error) {
	var r response
	if err := json.Unmarshal(p.Body, &r); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrMalformedPayload, err)
	}
	if r.Data == nil || r.Data.ID == 0 {
		return nil, fmt.Errorf("%w: no sensor data", domain.ErrMalformedPayload)
	}
	return r.Data, nil
}

func station(s *sensor) domain.Station {
	st := domain.Station{
		ID:          identity.StationID(identity.Pioupiou, s.ID),
		GUID:        s.ID,
		Provider:    string(identity.Pioupiou),
		Name:        s.Meta.Name,
		Operational: !strings.EqualFold(s.Status.State, "off"),
	}
	if s.Location.Latitude != nil && s.Location.Longitude != nil {
		st.Place.Location = [2]float64{*s.Location.Longitude, *s.Location.Latitude}
	}
	if st.Name == "" {
		st.Name = fmt.Sprintf("Pioupiou %d", s.ID)
	}
	return st
}

// Discover reports the sensor as a station.
func Discover(p domain.Payload, _ domain.Catalog) ([]domain.Station, error) {
	s, err := decode(p)
	if err != nil {
		return nil, err
	}
	return []domain.Station{station(s)}, nil
}

// Normalize builds the wind module, and a main module when the sensor
// reports pressure. Sea-level pressure is derived only when the catalog
// knows the sensor's altitude; a lone station pressure leaves main below
// the two-kind minimum.
func Normalize(p domain.Payload, catalog domain.Catalog, logger *slog.Logger) ([]domain.Module, error) {
	s, err := decode(p)
	if err != nil {
		return nil, err
	}
	st := station(s)
	altitude, located := catalogAltitude(catalog, st)
	if located {
		st.Place.Altitude = altitude
	}
	m := s.Measurements

	observed := p.ReceivedAt
	if m.Date != nil {
		observed = *m.Date
	}
	stationPayload := identity.Payload(st.ID)

	var out []domain.Module

	wind := domain.NewModule(st, identity.ModuleID(identity.SlotWind, 0, stationPayload), domain.ModuleWind, "Wind gauge", observed)
	wind.Dashboard.Set(domain.KindWindAngle, m.WindHeading)
	wind.Dashboard.Set(domain.KindWindStrength, m.WindSpeedAvg)
	if m.WindSpeedMax != nil {
		wind.Dashboard.Set(domain.KindGustAngle, m.WindHeading)
	}
	wind.Dashboard.Set(domain.KindGustStrength, m.WindSpeedMax)
	out = append(out, wind)

	if m.Pressure != nil {
		main := domain.NewModule(st, identity.ModuleID(identity.SlotMain, 0, stationPayload), domain.ModuleMain, "Main", observed)
		main.Dashboard.Set(domain.KindPressure, m.Pressure)
		if located {
			main.Dashboard.Put(domain.KindPressureSeaLevel, units.SeaLevelPressure(*m.Pressure, altitude, standardTemperature))
		}
		out = append(out, main)
	}

	return provider.Keep(out, logger), nil
}

// catalogAltitude returns the altitude the catalog declares for st. Catalog
// entries of other families sharing the guid do not count.
func catalogAltitude(catalog domain.Catalog, st domain.Station) (float64, bool) {
	if catalog == nil {
		return 0, false
	}
	cs, ok := catalog.Station(st.GUID)
	if !ok || cs.ID != st.ID || cs.Place.Altitude == 0 {
		return 0, false
	}
	return cs.Place.Altitude, true
}
