package domain

import "context"

// Sink persists canonical modules. Writes are idempotent upserts keyed by
// (station id, module id, kind, timestamp).
type Sink interface {
	WriteModule(ctx context.Context, m Module) error
}

// Query reads the station snapshots the computers work on.
type Query interface {
	LocatedOperationalStations(ctx context.Context) (map[string]Snapshot, error)
	StationByGUID(ctx context.Context, guid int64) (Station, error)
}

// StationStore is the persisted station catalog the provider synchronization
// reconciles against.
type StationStore interface {
	Stations(ctx context.Context) ([]Station, error)
	// InsertStation adds s unless a station with the same id exists. It
	// reports whether a row was inserted.
	InsertStation(ctx context.Context, s Station) (bool, error)
	DeleteStations(ctx context.Context, ids []string) (int, error)
}

// Catalog resolves configured stations for providers whose payloads carry no
// station identity of their own.
type Catalog interface {
	Station(guid int64) (Station, bool)
}

// RateLimiter gates every outbound call the core triggers indirectly.
type RateLimiter interface {
	Allow(service, verb string) bool
}
