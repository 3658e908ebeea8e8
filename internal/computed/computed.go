// Package computed derives weather indices for every located, operational
// station and emits them as a synthetic "Computed" module.
package computed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/station-telemetry-etl/internal/derived"
	"github.com/couchcryptid/station-telemetry-etl/internal/domain"
	"github.com/couchcryptid/station-telemetry-etl/internal/identity"
	"github.com/couchcryptid/station-telemetry-etl/internal/observability"
)

const name = "computed"

// Computer runs weather index passes. It holds no state between passes.
type Computer struct {
	query   domain.Query
	sink    domain.Sink
	clock   clockwork.Clock
	logger  *slog.Logger
	metrics *observability.Metrics
}

// New creates a Computer.
func New(query domain.Query, sink domain.Sink, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Computer {
	return &Computer{
		query:   query,
		sink:    sink,
		clock:   clock,
		logger:  logger.With(observability.KeyFacility, name),
		metrics: metrics,
	}
}

// Run executes one pass and returns the number of modules written. A query
// failure aborts the pass for every station. Sink failures are reported per
// station and joined into the returned error.
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
		m, ok := Module(snapshots[id], now)
		if !ok {
			logger.Debug("no reference values, station skipped", observability.KeyStationID, id)
			continue
		}
		if err := c.sink.WriteModule(ctx, m); err != nil {
			logger.Error("write computed module failed",
				observability.KeyStationID, m.StationID,
				observability.KeyDeviceName, m.StationName,
				observability.KeyModuleID, m.ModuleID,
				"error", err,
			)
			errs = append(errs, fmt.Errorf("station %s: %w", id, err))
			continue
		}
		written++
	}

	logger.Info("computed pass finished", "stations", len(ids), "modules", written)
	return written, errors.Join(errs...)
}

// Module builds the computed module of one station at time t. It reports
// false when the snapshot supports no derived kind.
func Module(s domain.Snapshot, t time.Time) (domain.Module, bool) {
	values := derived.Weather(derived.WeatherInput{
		Temperature:  s.Temperature,
		Humidity:     s.Humidity,
		WindStrength: s.WindStrength,
		Pressure:     s.Pressure,
	})
	if len(values) == 0 {
		return domain.Module{}, false
	}
	m := domain.NewModule(s.Station, identity.VirtualID(identity.PrefixComputed, s.Station.ID), domain.ModuleComputed, "Computed", t)
	m.Dashboard.Merge(values)
	return m, true
}
