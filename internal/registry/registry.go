// Package registry selects the provider normalizers enabled by configuration.
package registry

import (
	"fmt"
	"strings"

	"github.com/couchcryptid/station-telemetry-etl/internal/domain"
	"github.com/couchcryptid/station-telemetry-etl/internal/identity"
	"github.com/couchcryptid/station-telemetry-etl/internal/provider"
	"github.com/couchcryptid/station-telemetry-etl/internal/provider/ambient"
	"github.com/couchcryptid/station-telemetry-etl/internal/provider/clientraw"
	"github.com/couchcryptid/station-telemetry-etl/internal/provider/netatmo"
	"github.com/couchcryptid/station-telemetry-etl/internal/provider/openweathermap"
	"github.com/couchcryptid/station-telemetry-etl/internal/provider/pioupiou"
	"github.com/couchcryptid/station-telemetry-etl/internal/provider/realtime"
	"github.com/couchcryptid/station-telemetry-etl/internal/provider/stickertags"
	"github.com/couchcryptid/station-telemetry-etl/internal/provider/weatherflow"
	"github.com/couchcryptid/station-telemetry-etl/internal/provider/weatherlink"
	"github.com/couchcryptid/station-telemetry-etl/internal/provider/wunderground"
)

var factories = map[identity.Family]func(provider.Deps) *provider.Base{
	identity.Netatmo:        netatmo.New,
	identity.OpenWeatherMap: openweathermap.New,
	identity.WUnderground:   wunderground.New,
	identity.Clientraw:      clientraw.New,
	identity.Realtime:       realtime.New,
	identity.Stickertags:    stickertags.New,
	identity.Pioupiou:       pioupiou.New,
	identity.WeatherFlow:    weatherflow.New,
	identity.Ambient:        ambient.New,
	identity.WeatherLink:    weatherlink.New,
}

// Registry maps provider names to their normalizers.
type Registry struct {
	providers map[string]provider.Provider
	names     []string
}

// New builds the providers named in enabled, in family order. An empty list
// enables every family. Unknown names are an error.
func New(deps provider.Deps, enabled []string) (*Registry, error) {
	want := make(map[identity.Family]bool, len(enabled))
	for _, name := range enabled {
		f := identity.Family(strings.ToLower(strings.TrimSpace(name)))
		if _, ok := factories[f]; !ok {
			return nil, fmt.Errorf("%w: %q", domain.ErrUnknownProvider, name)
		}
		want[f] = true
	}

	r := &Registry{providers: make(map[string]provider.Provider)}
	for _, f := range identity.Families() {
		if len(want) > 0 && !want[f] {
			continue
		}
		r.providers[string(f)] = factories[f](deps)
		r.names = append(r.names, string(f))
	}
	return r, nil
}

// Lookup returns the provider registered under name.
func (r *Registry) Lookup(name string) (provider.Provider, error) {
	p, ok := r.providers[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownProvider, name)
	}
	return p, nil
}

// Names lists the enabled providers in family order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.names...)
}
