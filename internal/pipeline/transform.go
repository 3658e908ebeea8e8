package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/couchcryptid/station-telemetry-etl/internal/domain"
	"github.com/couchcryptid/station-telemetry-etl/internal/observability"
	"github.com/couchcryptid/station-telemetry-etl/internal/provider"
)

// ErrProviderSuspended is returned for payloads of a provider whose
// credentials were rejected, until the provider is resumed.
var ErrProviderSuspended = errors.New("provider suspended")

// Error classes reported in the normalize_errors_total metric.
const (
	ClassMalformed = "malformed"
	ClassAuth      = "auth"
	ClassSuspended = "suspended"
	ClassUnknown   = "unknown"
	ClassNotFound  = "not_found"
	ClassOther     = "other"
)

// Classify maps a normalization error to its metric class.
func Classify(err error) string {
	switch {
	case errors.Is(err, ErrProviderSuspended):
		return ClassSuspended
	case errors.Is(err, domain.ErrAuthentication):
		return ClassAuth
	case errors.Is(err, domain.ErrMalformedPayload):
		return ClassMalformed
	case errors.Is(err, domain.ErrUnknownProvider):
		return ClassUnknown
	case errors.Is(err, domain.ErrStationNotFound):
		return ClassNotFound
	default:
		return ClassOther
	}
}

// Providers resolves a provider by name.
type Providers interface {
	Lookup(name string) (provider.Provider, error)
}

// invalidator is implemented by catalogs that cache persisted stations.
type invalidator interface {
	Invalidate()
}

// ProviderTransformer implements Transformer through the provider registry.
// Before normalizing it reconciles the station catalog with the stations the
// payload reports, at most as often as the limiter allows.
type ProviderTransformer struct {
	providers Providers
	catalog   domain.Catalog
	store     domain.StationStore
	limiter   domain.RateLimiter
	logger    *slog.Logger
	metrics   *observability.Metrics

	mu        sync.Mutex
	suspended map[string]bool
}

// NewTransformer creates a ProviderTransformer. A nil store disables station
// synchronization; a nil limiter never throttles it.
func NewTransformer(providers Providers, catalog domain.Catalog, store domain.StationStore, limiter domain.RateLimiter, logger *slog.Logger, metrics *observability.Metrics) *ProviderTransformer {
	return &ProviderTransformer{
		providers: providers,
		catalog:   catalog,
		store:     store,
		limiter:   limiter,
		logger:    logger,
		metrics:   metrics,
		suspended: make(map[string]bool),
	}
}

// Transform normalizes p with its provider. An authentication failure
// suspends the provider.
func (t *ProviderTransformer) Transform(ctx context.Context, p domain.Payload) ([]domain.Module, error) {
	prov, err := t.providers.Lookup(p.Provider)
	if err != nil {
		return nil, err
	}
	name := prov.Name()
	if t.Suspended(name) {
		return nil, fmt.Errorf("%w: %s", ErrProviderSuspended, name)
	}

	t.synchronize(ctx, prov, p)

	modules, err := prov.Normalize(p, t.catalog)
	if err != nil {
		if errors.Is(err, domain.ErrAuthentication) {
			t.suspend(ctx, name)
		}
		return nil, err
	}
	return modules, nil
}

func (t *ProviderTransformer) synchronize(ctx context.Context, prov provider.Provider, p domain.Payload) {
	if t.store == nil {
		return
	}
	if t.limiter != nil && !t.limiter.Allow(prov.Name(), "sync") {
		return
	}
	n, err := prov.Synchronize(ctx, p, t.catalog, t.store)
	if n > 0 {
		t.metrics.StationsInserted.WithLabelValues(prov.Name()).Add(float64(n))
		t.invalidate()
	}
	if err != nil {
		t.logger.Debug("station synchronization incomplete", "provider", prov.Name(), "error", err)
	}
}

// Prune deletes the persisted stations of the named provider that are not in
// keep.
func (t *ProviderTransformer) Prune(ctx context.Context, name string, keep []string) (int, error) {
	prov, err := t.providers.Lookup(name)
	if err != nil {
		return 0, err
	}
	if t.store == nil {
		return 0, errors.New("no station store configured")
	}
	n, err := prov.Prune(ctx, t.store, keep)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		t.metrics.StationsPruned.WithLabelValues(prov.Name()).Add(float64(n))
		t.invalidate()
	}
	return n, nil
}

// Suspended reports whether the named provider is suspended.
func (t *ProviderTransformer) Suspended(name string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.suspended[name]
}

func (t *ProviderTransformer) suspend(ctx context.Context, name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.suspended[name] {
		return
	}
	t.suspended[name] = true
	t.metrics.ProviderSuspended.WithLabelValues(name).Set(1)
	observability.Notice(ctx, t.logger, "provider suspended until resumed",
		observability.KeyService, name)
}

// Resume lifts the suspension of the named provider. It reports whether the
// provider was suspended.
func (t *ProviderTransformer) Resume(ctx context.Context, name string) (bool, error) {
	prov, err := t.providers.Lookup(name)
	if err != nil {
		return false, err
	}
	name = prov.Name()

	t.mu.Lock()
	defer t.mu.Unlock()
	was := t.suspended[name]
	delete(t.suspended, name)
	t.metrics.ProviderSuspended.WithLabelValues(name).Set(0)
	if was {
		observability.Notice(ctx, t.logger, "provider resumed", observability.KeyService, name)
	}
	return was, nil
}

func (t *ProviderTransformer) invalidate() {
	if c, ok := t.catalog.(invalidator); ok {
		c.Invalidate()
	}
}
