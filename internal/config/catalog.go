package config

import (
	"fmt"
	"os"
	"reflect"

	"gopkg.in/yaml.v3"

	"github.com/couchcryptid/station-telemetry-etl/internal/domain"
	"github.com/couchcryptid/station-telemetry-etl/internal/identity"
)

// StationConfig declares a station for providers whose payloads carry no
// identity of their own (file exports, generic APIs).
type StationConfig struct {
	GUID      int64   `yaml:"guid" validate:"gt=0"`
	Provider  string  `yaml:"provider" validate:"required"`
	Name      string  `yaml:"name" validate:"required"`
	ServiceID string  `yaml:"service_id"`
	Country   string  `yaml:"country" validate:"omitempty,len=2"`
	City      string  `yaml:"city"`
	Timezone  string  `yaml:"timezone" validate:"omitempty,timezone"`
	Altitude  float64 `yaml:"altitude"`
	Latitude  float64 `yaml:"latitude" validate:"min=-90,max=90"`
	Longitude float64 `yaml:"longitude" validate:"min=-180,max=180"`
}

type catalogFile struct {
	Providers []string        `yaml:"providers"`
	Stations  []StationConfig `yaml:"stations"`
}

func (c *Config) loadCatalogFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read CATALOG_FILE: %w", err)
	}
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parse CATALOG_FILE: %w", err)
	}
	if len(c.Providers) == 0 {
		c.Providers = f.Providers
	}
	c.Stations = f.Stations
	return nil
}

// LoadCatalogFile reads a catalog file on its own, validating each station.
func LoadCatalogFile(path string) (domain.StationList, error) {
	var c Config
	if err := c.loadCatalogFile(path); err != nil {
		return nil, err
	}
	for i := range c.Stations {
		if err := validate.Struct(c.Stations[i]); err != nil {
			return nil, fmt.Errorf("station %d: %w", c.Stations[i].GUID, describe(err))
		}
	}
	return c.Catalog(), nil
}

// Station converts the declaration to a catalog station.
func (s StationConfig) Station() domain.Station {
	return domain.Station{
		ID:          identity.StationID(identity.Family(s.Provider), s.GUID),
		GUID:        s.GUID,
		ServiceID:   s.ServiceID,
		Provider:    s.Provider,
		Name:        s.Name,
		Operational: true,
		Place: domain.Place{
			Country:  s.Country,
			City:     s.City,
			Timezone: s.Timezone,
			Altitude: s.Altitude,
			Location: [2]float64{s.Longitude, s.Latitude},
		},
	}
}

// Catalog returns the declared stations keyed by GUID.
func (c *Config) Catalog() domain.StationList {
	out := make(domain.StationList, len(c.Stations))
	for _, s := range c.Stations {
		out[s.GUID] = s.Station()
	}
	return out
}

func envKey(field string) string {
	f, ok := reflect.TypeOf(Config{}).FieldByName(field)
	if !ok {
		return ""
	}
	return f.Tag.Get("env")
}
