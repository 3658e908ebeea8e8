package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/couchcryptid/station-telemetry-etl/internal/domain"
)

//go:embed sql/upsert-module.sql
var upsertModuleSQL string

//go:embed sql/upsert-measurement.sql
var upsertMeasurementSQL string

//go:embed sql/insert-station.sql
var insertStationSQL string

//go:embed sql/get-stations.sql
var getStationsSQL string

//go:embed sql/get-station-by-guid.sql
var getStationByGUIDSQL string

//go:embed sql/get-located-operational.sql
var getLocatedOperationalSQL string

const timeLayout = time.RFC3339

// Store implements domain.Sink, domain.Query and domain.StationStore.
type Store struct {
	db *sql.DB
}

// NewStore wraps an opened database.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// WriteModule upserts the module row and every dashboard value in one
// transaction. Writing the same module twice leaves one row per kind.
func (s *Store) WriteModule(ctx context.Context, m domain.Module) error {
	return s.LoadBatch(ctx, []domain.Module{m})
}

// LoadBatch writes modules in a single transaction.
func (s *Store) LoadBatch(ctx context.Context, modules []domain.Module) error {
	if len(modules) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, upsertMeasurementSQL)
	if err != nil {
		return fmt.Errorf("prepare measurement: %w", err)
	}
	defer stmt.Close()

	for i := range modules {
		if err := writeModule(ctx, tx, stmt, modules[i]); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func writeModule(ctx context.Context, tx *sql.Tx, stmt *sql.Stmt, m domain.Module) error {
	ts := m.Dashboard.Time.UTC().Format(timeLayout)
	if _, err := tx.ExecContext(ctx, upsertModuleSQL,
		m.StationID, m.ModuleID, string(m.Type), m.Name, m.Firmware, m.Battery, m.Signal, ts,
	); err != nil {
		return fmt.Errorf("upsert module %s: %w", m.ModuleID, err)
	}
	for _, kind := range m.Dashboard.Kinds() {
		if _, err := stmt.ExecContext(ctx, m.StationID, m.ModuleID, string(kind), ts, m.Dashboard.Values[kind]); err != nil {
			return fmt.Errorf("upsert %s of %s: %w", kind, m.ModuleID, err)
		}
	}
	return nil
}

// InsertStation adds st unless its id exists.
func (s *Store) InsertStation(ctx context.Context, st domain.Station) (bool, error) {
	p := st.Place
	res, err := s.db.ExecContext(ctx, insertStationSQL,
		st.ID, st.GUID, st.ServiceID, st.Provider, st.Name, p.Country, p.City, p.Timezone,
		p.Altitude, p.Longitude(), p.Latitude(), st.Operational,
		formatTime(st.LastRefresh), formatTime(st.LastSeen),
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// DeleteStations removes the stations with the given ids and their modules.
func (s *Store) DeleteStations(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM modules WHERE station_id IN ("+placeholders+")", args...); err != nil {
		return 0, fmt.Errorf("delete modules: %w", err)
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM stations WHERE id IN ("+placeholders+")", args...)
	if err != nil {
		return 0, fmt.Errorf("delete stations: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), tx.Commit()
}

// Stations lists every persisted station ordered by id.
func (s *Store) Stations(ctx context.Context) ([]domain.Station, error) {
	rows, err := s.db.QueryContext(ctx, getStationsSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Station
	for rows.Next() {
		st, err := scanStation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// StationByGUID returns the station registered under a catalog GUID.
func (s *Store) StationByGUID(ctx context.Context, guid int64) (domain.Station, error) {
	st, err := scanStation(s.db.QueryRowContext(ctx, getStationByGUIDSQL, guid))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Station{}, fmt.Errorf("%w: guid %d", domain.ErrStationNotFound, guid)
	}
	return st, err
}

// LocatedOperationalStations returns the located, operational stations keyed
// by id, with the latest outdoor temperature and humidity, wind strength and
// pressure each of them reported.
func (s *Store) LocatedOperationalStations(ctx context.Context) (map[string]domain.Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, getLocatedOperationalSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]domain.Snapshot)
	for rows.Next() {
		var snap domain.Snapshot
		var temp, hum, wind, press sql.NullFloat64
		st, err := scanStation(rows, &temp, &hum, &wind, &press)
		if err != nil {
			return nil, err
		}
		snap.Station = st
		snap.Temperature = nullable(temp)
		snap.Humidity = nullable(hum)
		snap.WindStrength = nullable(wind)
		snap.Pressure = nullable(press)
		out[st.ID] = snap
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanStation(row scanner, extra ...any) (domain.Station, error) {
	var st domain.Station
	var lon, lat float64
	var refresh, seen string
	dest := []any{
		&st.ID, &st.GUID, &st.ServiceID, &st.Provider, &st.Name,
		&st.Place.Country, &st.Place.City, &st.Place.Timezone,
		&st.Place.Altitude, &lon, &lat, &st.Operational, &refresh, &seen,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return domain.Station{}, err
	}
	st.Place.Location = [2]float64{lon, lat}
	st.LastRefresh = parseTime(refresh)
	st.LastSeen = parseTime(seen)
	return st, nil
}

func nullable(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
