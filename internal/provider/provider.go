// Package provider defines the normalizer contract every provider family
// implements and the machinery they share: station synchronization, pruning
// and the fan-out of flat device records into canonical modules.
//
// Normalizers are pure. They take an already-fetched payload and return
// canonical modules without reading the clock or holding state between calls,
// so normalizing the same payload twice yields identical output.
package provider

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/station-telemetry-etl/internal/domain"
	"github.com/couchcryptid/station-telemetry-etl/internal/identity"
	"github.com/couchcryptid/station-telemetry-etl/internal/observability"
)

// Provider normalizes the payloads of one provider family and reconciles its
// station inventory with the persisted catalog.
type Provider interface {
	Name() string
	Family() identity.Family
	Normalize(p domain.Payload, catalog domain.Catalog) ([]domain.Module, error)
	Synchronize(ctx context.Context, p domain.Payload, catalog domain.Catalog, store domain.StationStore) (int, error)
	Prune(ctx context.Context, store domain.StationStore, keep []string) (int, error)
}

// NormalizeFunc turns one payload into canonical modules. Dropped records are
// reported to logger.
type NormalizeFunc func(p domain.Payload, catalog domain.Catalog, logger *slog.Logger) ([]domain.Module, error)

// DiscoverFunc lists the stations a payload reports.
type DiscoverFunc func(p domain.Payload, catalog domain.Catalog) ([]domain.Station, error)

// Deps are the collaborators a provider may call. Geocoder and Limiter are
// optional.
type Deps struct {
	Logger   *slog.Logger
	Geocoder domain.Geocoder
	Limiter  domain.RateLimiter
}

// Base implements Provider from a family's normalize and discover functions.
type Base struct {
	family    identity.Family
	normalize NormalizeFunc
	discover  DiscoverFunc
	deps      Deps
}

// New creates a Base for family.
func New(family identity.Family, normalize NormalizeFunc, discover DiscoverFunc, deps Deps) *Base {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Base{
		family:    family,
		normalize: normalize,
		discover:  discover,
		deps:      deps,
	}
}

func (b *Base) Name() string            { return string(b.family) }
func (b *Base) Family() identity.Family { return b.family }
func (b *Base) Logger() *slog.Logger    { return b.deps.Logger }

// Normalize runs the family normalizer.
func (b *Base) Normalize(p domain.Payload, catalog domain.Catalog) ([]domain.Module, error) {
	modules, err := b.normalize(p, catalog, b.deps.Logger)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", b.family, err)
	}
	return modules, nil
}

// Synchronize inserts every station the payload reports that the store does
// not know yet. Existing stations are left untouched, so repeated calls are
// idempotent. Only new stations are geocoded. It returns the number of
// inserted stations.
func (b *Base) Synchronize(ctx context.Context, p domain.Payload, catalog domain.Catalog, store domain.StationStore) (int, error) {
	stations, err := b.discover(p, catalog)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", b.family, err)
	}

	existing, err := store.Stations(ctx)
	if err != nil {
		return 0, fmt.Errorf("list stations: %w", err)
	}
	known := make(map[string]struct{}, len(existing))
	for _, s := range existing {
		known[s.ID] = struct{}{}
	}

	inserted := 0
	now := domain.Now()
	for _, s := range stations {
		if _, ok := known[s.ID]; ok {
			continue
		}
		s.Provider = string(b.family)
		s.LastSeen = now
		s.LastRefresh = now
		s, _ = domain.EnrichPlace(ctx, s, b.deps.Geocoder, b.deps.Limiter, b.deps.Logger)

		ok, err := store.InsertStation(ctx, s)
		if err != nil {
			return inserted, fmt.Errorf("insert station %s: %w", s.ID, err)
		}
		if ok {
			inserted++
			observability.Notice(ctx, b.deps.Logger, "station added",
				observability.KeyFacility, "sync",
				observability.KeyService, b.Name(),
				observability.KeyStationID, s.ID,
				observability.KeyDeviceName, s.Name,
			)
		}
	}
	return inserted, nil
}

// Prune deletes the persisted stations of this family whose id is not in keep.
// It returns the number of deleted stations.
func (b *Base) Prune(ctx context.Context, store domain.StationStore, keep []string) (int, error) {
	stations, err := store.Stations(ctx)
	if err != nil {
		return 0, fmt.Errorf("list stations: %w", err)
	}

	kept := make(map[string]struct{}, len(keep))
	for _, id := range keep {
		kept[id] = struct{}{}
	}

	var stale []string
	for _, s := range stations {
		if s.Provider != string(b.family) {
			continue
		}
		if _, ok := kept[s.ID]; !ok {
			stale = append(stale, s.ID)
		}
	}
	if len(stale) == 0 {
		return 0, nil
	}

	n, err := store.DeleteStations(ctx, stale)
	if err != nil {
		return 0, fmt.Errorf("delete stations: %w", err)
	}
	observability.Notice(ctx, b.deps.Logger, "stations pruned",
		observability.KeyFacility, "sync",
		observability.KeyService, b.Name(),
		"count", n,
	)
	return n, nil
}

// CatalogStation resolves the station a payload belongs to through its GUID.
// Families whose payloads carry no station identity use it in both their
// normalize and discover functions.
func CatalogStation(family identity.Family, p domain.Payload, catalog domain.Catalog) (domain.Station, error) {
	if catalog == nil {
		return domain.Station{}, fmt.Errorf("%w: no catalog for guid %d", domain.ErrStationNotFound, p.GUID)
	}
	s, ok := catalog.Station(p.GUID)
	if !ok {
		return domain.Station{}, fmt.Errorf("%w: guid %d", domain.ErrStationNotFound, p.GUID)
	}
	if s.ID == "" {
		s.ID = identity.StationID(family, s.GUID)
	}
	s.Provider = string(family)
	return s, nil
}
