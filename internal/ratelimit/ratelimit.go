// Package ratelimit gates outbound calls with one token bucket per service
// and verb.
package ratelimit

import (
	"sync"

	"golang.org/x/time/rate"

	"github.com/couchcryptid/station-telemetry-etl/internal/observability"
)

type key struct{ service, verb string }

// Limiter implements domain.RateLimiter. It is safe for concurrent use.
type Limiter struct {
	mu      sync.Mutex
	buckets map[key]*rate.Limiter
	limit   rate.Limit
	burst   int
	metrics *observability.Metrics
}

// New creates a Limiter allowing rps calls per second with the given burst
// for each service and verb. A non-positive rps disables limiting.
func New(rps float64, burst int, metrics *observability.Metrics) *Limiter {
	limit := rate.Limit(rps)
	if rps <= 0 {
		limit = rate.Inf
	}
	if burst < 1 {
		burst = 1
	}
	return &Limiter{
		buckets: make(map[key]*rate.Limiter),
		limit:   limit,
		burst:   burst,
		metrics: metrics,
	}
}

func (l *Limiter) bucket(service, verb string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	k := key{service, verb}
	b, ok := l.buckets[k]
	if !ok {
		b = rate.NewLimiter(l.limit, l.burst)
		l.buckets[k] = b
	}
	return b
}

// Allow reports whether one call to service/verb may proceed now. Refusals
// are counted.
func (l *Limiter) Allow(service, verb string) bool {
	if l.bucket(service, verb).Allow() {
		return true
	}
	if l.metrics != nil {
		l.metrics.RateLimited.WithLabelValues(service, verb).Inc()
	}
	return false
}
