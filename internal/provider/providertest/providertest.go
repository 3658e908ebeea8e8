// Package providertest holds in-memory collaborators for normalizer tests.
package providertest

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/couchcryptid/station-telemetry-etl/internal/domain"
)

// Recorder is a slog.Handler that keeps every record.
type Recorder struct {
	mu      sync.Mutex
	records []slog.Record
}

func (r *Recorder) Enabled(context.Context, slog.Level) bool { return true }

func (r *Recorder) Handle(_ context.Context, rec slog.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec.Clone())
	return nil
}

func (r *Recorder) WithAttrs([]slog.Attr) slog.Handler { return r }
func (r *Recorder) WithGroup(string) slog.Handler      { return r }

// Logger returns a logger writing to r.
func (r *Recorder) Logger() *slog.Logger { return slog.New(r) }

// Count returns the number of records logged at exactly level.
func (r *Recorder) Count(level slog.Level) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, rec := range r.records {
		if rec.Level == level {
			n++
		}
	}
	return n
}

// Messages returns the logged messages in order.
func (r *Recorder) Messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.records))
	for i, rec := range r.records {
		out[i] = rec.Message
	}
	return out
}

// Store is an in-memory domain.StationStore.
type Store struct {
	mu       sync.Mutex
	stations map[string]domain.Station
	Err      error
}

// NewStore returns a store holding stations.
func NewStore(stations ...domain.Station) *Store {
	s := &Store{stations: make(map[string]domain.Station)}
	for _, st := range stations {
		s.stations[st.ID] = st
	}
	return s
}

func (s *Store) Stations(context.Context) ([]domain.Station, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	out := make([]domain.Station, 0, len(s.stations))
	for _, st := range s.stations {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) InsertStation(_ context.Context, st domain.Station) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return false, s.Err
	}
	if _, ok := s.stations[st.ID]; ok {
		return false, nil
	}
	s.stations[st.ID] = st
	return true, nil
}

func (s *Store) DeleteStations(_ context.Context, ids []string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return 0, s.Err
	}
	n := 0
	for _, id := range ids {
		if _, ok := s.stations[id]; ok {
			delete(s.stations, id)
			n++
		}
	}
	return n, nil
}

// Load reads a fixture from the calling package's testdata directory.
func Load(t testing.TB, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	if err != nil {
		t.Fatalf("read fixture %s: %v", name, err)
	}
	return data
}
