package domain

import (
	"time"
)

// Place is the geolocation attached to a station and to every module record
// emitted for it.
type Place struct {
	Country  string     `json:"country,omitempty"`
	City     string     `json:"city,omitempty"`
	Timezone string     `json:"timezone,omitempty"`
	Altitude float64    `json:"altitude"`
	Location [2]float64 `json:"location"` // [longitude, latitude]
}

// Longitude returns the first coordinate of Location.
func (p Place) Longitude() float64 { return p.Location[0] }

// Latitude returns the second coordinate of Location.
func (p Place) Latitude() float64 { return p.Location[1] }

// Located reports whether the place carries coordinates.
func (p Place) Located() bool {
	return p.Location[0] != 0 || p.Location[1] != 0
}

// Loc resolves the place timezone, falling back to UTC when the name is empty
// or unknown.
func (p Place) Loc() *time.Location {
	if p.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Station is the persisted identity of one provider device.
type Station struct {
	ID          string    `json:"id"`
	GUID        int64     `json:"guid,omitempty"`
	ServiceID   string    `json:"service_id,omitempty"`
	Provider    string    `json:"provider"`
	Name        string    `json:"name"`
	Place       Place     `json:"place"`
	Operational bool      `json:"operational"`
	LastRefresh time.Time `json:"last_refresh"`
	LastSeen    time.Time `json:"last_seen"`
}

// Snapshot is a located, operational station with its latest reference
// values. Each reference value is optional.
type Snapshot struct {
	Station      Station
	Temperature  *float64
	Humidity     *float64
	WindStrength *float64
	Pressure     *float64
}

// Payload is one already-fetched provider payload waiting for normalization.
type Payload struct {
	Provider   string
	GUID       int64
	Body       []byte
	ReceivedAt time.Time
}

// StationList is an in-memory Catalog keyed by GUID.
type StationList map[int64]Station

// Station implements Catalog.
func (l StationList) Station(guid int64) (Station, bool) {
	s, ok := l[guid]
	return s, ok
}
