// Package ephemeris computes sun and moon events for every located,
// operational station and emits them as a synthetic "Ephemeris" module.
//
// Moon and lunar failures degrade the affected metrics to Sentinel. Sunrise
// and sunset failures are not degraded: they abort the pass.
package ephemeris

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/station-telemetry-etl/internal/domain"
	"github.com/couchcryptid/station-telemetry-etl/internal/identity"
	"github.com/couchcryptid/station-telemetry-etl/internal/observability"
)

const name = "ephemeris"

// Sentinel replaces a metric whose astronomical routine failed.
const Sentinel = -9999.0

// SunTimes are the sunrise and sunset of one civil day. Either may be zero
// during polar day or polar night.
type SunTimes struct {
	Rise time.Time
	Set  time.Time
}

// MoonTimes are the moonrise and moonset computed for one civil day. Either
// may be zero when the moon does not rise or set that day.
type MoonTimes struct {
	Rise time.Time
	Set  time.Time
}

// Lunar is the output of the lunar ephemeris routine. Distances are in km,
// diameters in degrees of arc, age in days, phase and illumination in [0, 1].
type Lunar struct {
	Phase        float64
	Age          float64
	Illumination float64
	MoonDistance float64
	MoonDiameter float64
	SunDistance  float64
	SunDiameter  float64
}

// Astronomer is the astronomical model. Dates are civil days expressed in the
// station's timezone.
type Astronomer interface {
	SunTimes(date time.Time, lat, lon float64) (SunTimes, error)
	MoonTimes(date time.Time, lat, lon float64) (MoonTimes, error)
	Lunar(t time.Time) (Lunar, error)
}

// Computer runs ephemeris passes. It holds no state between passes.
type Computer struct {
	query   domain.Query
	sink    domain.Sink
	astro   Astronomer
	clock   clockwork.Clock
	logger  *slog.Logger
	metrics *observability.Metrics
}

// New creates a Computer.
func New(query domain.Query, sink domain.Sink, astro Astronomer, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Computer {
	return &Computer{
		query:   query,
		sink:    sink,
		astro:   astro,
		clock:   clock,
		logger:  logger.With(observability.KeyFacility, name),
		metrics: metrics,
	}
}

// Run executes one pass and returns the number of modules written.
func (c *Computer) Run(ctx context.Context) (int, error) {
	start := time.Now()
	now := c.clock.Now()
	logger := c.logger.With("pass_id", uuid.NewString())

	written, err := c.run(ctx, now, logger)

	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	c.metrics.ComputerPasses.WithLabelValues(name, outcome).Inc()
	c.metrics.ComputerModules.WithLabelValues(name).Add(float64(written))
	c.metrics.ComputerDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	return written, err
}

func (c *Computer) run(ctx context.Context, now time.Time, logger *slog.Logger) (int, error) {
	snapshots, err := c.query.LocatedOperationalStations(ctx)
	if err != nil {
		observability.Critical(ctx, logger, "station query failed, pass aborted", "error", err)
		return 0, fmt.Errorf("query stations: %w", err)
	}

	ids := make([]string, 0, len(snapshots))
	for id := range snapshots {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var errs []error
	written := 0
	for _, id := range ids {
		s := snapshots[id].Station
		m, err := c.Module(s, now, logger)
		if err != nil {
			logger.Error("sun times failed, pass aborted",
				observability.KeyStationID, s.ID,
				observability.KeyDeviceName, s.Name,
				"error", err,
			)
			return written, fmt.Errorf("station %s: %w", id, err)
		}
		if err := c.sink.WriteModule(ctx, m); err != nil {
			logger.Error("write ephemeris module failed",
				observability.KeyStationID, s.ID,
				observability.KeyModuleID, m.ModuleID,
				"error", err,
			)
			errs = append(errs, fmt.Errorf("station %s: %w", id, err))
			continue
		}
		written++
	}

	logger.Info("ephemeris pass finished", "stations", len(ids), "modules", written)
	return written, errors.Join(errs...)
}

// Module builds the ephemeris module of station s at time now. Only a
// sunrise/sunset failure is returned as an error.
func (c *Computer) Module(s domain.Station, now time.Time, logger *slog.Logger) (domain.Module, error) {
	loc := s.Place.Loc()
	lat, lon := s.Place.Latitude(), s.Place.Longitude()
	local := now.In(loc)
	today := time.Date(local.Year(), local.Month(), local.Day(), 12, 0, 0, 0, loc)

	sun, err := c.astro.SunTimes(today, lat, lon)
	if err != nil {
		return domain.Module{}, fmt.Errorf("sun times: %w", err)
	}

	m := domain.NewModule(s, identity.VirtualID(identity.PrefixEphemeris, s.ID), domain.ModuleEphemeris, "Ephemeris", now)
	if !sun.Rise.IsZero() {
		m.Dashboard.Put(domain.KindSunrise, epoch(sun.Rise))
	}
	if !sun.Set.IsZero() {
		m.Dashboard.Put(domain.KindSunset, epoch(sun.Set))
	}

	rise, set, err := c.moonEvents(today, lat, lon)
	if err != nil {
		logger.Warn("moon times failed",
			observability.KeyStationID, s.ID,
			observability.KeyModuleID, m.ModuleID,
			"error", err,
		)
		m.Dashboard.Put(domain.KindMoonrise, Sentinel)
		m.Dashboard.Put(domain.KindMoonset, Sentinel)
	} else {
		if !rise.IsZero() {
			m.Dashboard.Put(domain.KindMoonrise, epoch(rise))
		}
		if !set.IsZero() {
			m.Dashboard.Put(domain.KindMoonset, epoch(set))
		}
	}

	lunar, err := c.astro.Lunar(now)
	if err != nil {
		logger.Warn("lunar ephemeris failed",
			observability.KeyStationID, s.ID,
			observability.KeyModuleID, m.ModuleID,
			"error", err,
		)
		lunar = Lunar{Sentinel, Sentinel, Sentinel, Sentinel, Sentinel, Sentinel, Sentinel}
	}
	m.Dashboard.Put(domain.KindMoonPhase, lunar.Phase)
	m.Dashboard.Put(domain.KindMoonAge, lunar.Age)
	m.Dashboard.Put(domain.KindMoonIllumination, lunar.Illumination)
	m.Dashboard.Put(domain.KindMoonDistance, lunar.MoonDistance)
	m.Dashboard.Put(domain.KindMoonDiameter, lunar.MoonDiameter)
	m.Dashboard.Put(domain.KindSunDistance, lunar.SunDistance)
	m.Dashboard.Put(domain.KindSunDiameter, lunar.SunDiameter)
	return m, nil
}

// moonEvents looks at yesterday, today and tomorrow and keeps the rise and
// set whose local calendar date is today. Events near local midnight can be
// reported against a neighbouring day.
func (c *Computer) moonEvents(today time.Time, lat, lon float64) (rise, set time.Time, err error) {
	loc := today.Location()
	for _, offset := range []int{-1, 0, 1} {
		mt, err := c.astro.MoonTimes(today.AddDate(0, 0, offset), lat, lon)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		if rise.IsZero() && sameDay(mt.Rise, today, loc) {
			rise = mt.Rise
		}
		if set.IsZero() && sameDay(mt.Set, today, loc) {
			set = mt.Set
		}
	}
	return rise, set, nil
}

func sameDay(t, day time.Time, loc *time.Location) bool {
	if t.IsZero() {
		return false
	}
	y1, m1, d1 := t.In(loc).Date()
	y2, m2, d2 := day.In(loc).Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

func epoch(t time.Time) float64 {
	return float64(t.Unix())
}
