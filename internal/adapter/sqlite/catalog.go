package sqlite

import (
	"context"
	"log/slog"
	"time"

	"github.com/couchcryptid/station-telemetry-etl/internal/domain"
	"github.com/couchcryptid/station-telemetry-etl/internal/lru"
)

const lookupTimeout = 2 * time.Second

// CachedCatalog resolves GUIDs against the configured stations first, then
// against the persisted catalog. Persisted hits are kept in an LRU cache.
type CachedCatalog struct {
	static domain.Catalog
	store  *Store
	cache  *lru.Cache[int64, domain.Station]
	logger *slog.Logger
}

// NewCachedCatalog creates a catalog. static may be nil.
func NewCachedCatalog(static domain.Catalog, store *Store, size int, logger *slog.Logger) *CachedCatalog {
	return &CachedCatalog{
		static: static,
		store:  store,
		cache:  lru.New[int64, domain.Station](size),
		logger: logger,
	}
}

// Station implements domain.Catalog.
func (c *CachedCatalog) Station(guid int64) (domain.Station, bool) {
	if c.static != nil {
		if s, ok := c.static.Station(guid); ok {
			return s, true
		}
	}
	if s, ok := c.cache.Get(guid); ok {
		return s, true
	}

	ctx, cancel := context.WithTimeout(context.Background(), lookupTimeout)
	defer cancel()
	s, err := c.store.StationByGUID(ctx, guid)
	if err != nil {
		c.logger.Debug("catalog lookup missed", "guid", guid, "error", err)
		return domain.Station{}, false
	}
	c.cache.Put(guid, s)
	return s, true
}

// Invalidate drops every cached station, for instance after a prune.
func (c *CachedCatalog) Invalidate() {
	c.cache.Purge()
}
