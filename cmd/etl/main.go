package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/station-telemetry-etl/internal/adapter/astro"
	httpadapter "github.com/couchcryptid/station-telemetry-etl/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/station-telemetry-etl/internal/adapter/kafka"
	"github.com/couchcryptid/station-telemetry-etl/internal/adapter/mapbox"
	"github.com/couchcryptid/station-telemetry-etl/internal/adapter/mqtt"
	"github.com/couchcryptid/station-telemetry-etl/internal/adapter/sqlite"
	"github.com/couchcryptid/station-telemetry-etl/internal/computed"
	"github.com/couchcryptid/station-telemetry-etl/internal/config"
	"github.com/couchcryptid/station-telemetry-etl/internal/domain"
	"github.com/couchcryptid/station-telemetry-etl/internal/ephemeris"
	"github.com/couchcryptid/station-telemetry-etl/internal/observability"
	"github.com/couchcryptid/station-telemetry-etl/internal/pipeline"
	"github.com/couchcryptid/station-telemetry-etl/internal/provider"
	"github.com/couchcryptid/station-telemetry-etl/internal/ratelimit"
	"github.com/couchcryptid/station-telemetry-etl/internal/registry"
	"github.com/couchcryptid/station-telemetry-etl/internal/scheduler"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := sqlite.Open(ctx, cfg.SQLitePath)
	if err != nil {
		logger.Error("failed to open database", "path", cfg.SQLitePath, "error", err)
		os.Exit(1)
	}
	store := sqlite.NewStore(db)

	static := cfg.Catalog()
	seedCatalog(ctx, store, static, logger)
	catalog := sqlite.NewCachedCatalog(static, store, cfg.MapboxCacheSize, logger)

	// Initialize geocoder (feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN).
	var geocoder domain.Geocoder
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, metrics, logger)
		geocoder = mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics)
		metrics.GeocodeEnabled.Set(1)
		logger.Info("mapbox geocoding enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	} else {
		logger.Info("mapbox geocoding disabled")
	}

	limiter := ratelimit.New(cfg.RateLimitRPS, cfg.RateLimitBurst, metrics)

	reg, err := registry.New(provider.Deps{Logger: logger, Geocoder: geocoder, Limiter: limiter}, cfg.Providers)
	if err != nil {
		logger.Error("invalid provider selection", "error", err)
		os.Exit(1)
	}
	logger.Info("providers enabled", "providers", reg.Names())

	reader := kafkaadapter.NewReader(cfg, logger)
	writer := kafkaadapter.NewWriter(cfg, logger)
	sinks := pipeline.Fanout{store, writer}
	closers := []io.Closer{reader, writer}

	if cfg.MQTTBroker != "" {
		pub, err := mqtt.Connect(ctx, mqtt.Options{
			Broker:      cfg.MQTTBroker,
			ClientID:    cfg.MQTTClientID,
			TopicPrefix: cfg.MQTTTopicPrefix,
		}, logger)
		if err != nil {
			logger.Error("mqtt unavailable, modules will not be mirrored", "broker", cfg.MQTTBroker, "error", err)
		} else {
			sinks = append(sinks, pub)
			closers = append(closers, pub)
		}
	}

	transformer := pipeline.NewTransformer(reg, catalog, store, limiter, logger, metrics)
	p := pipeline.New(reader, transformer, sinks, logger, metrics, cfg.BatchSize)

	clock := clockwork.NewRealClock()
	sched := scheduler.New(logger, cfg.ComputeInterval)
	if err := sched.Add("computed", cfg.ComputeInterval, computed.New(store, sinks, clock, logger, metrics)); err != nil {
		logger.Error("failed to schedule computer", "error", err)
		os.Exit(1)
	}
	if err := sched.Add("ephemeris", cfg.EphemerisInterval, ephemeris.New(store, sinks, astro.New(), clock, logger, metrics)); err != nil {
		logger.Error("failed to schedule computer", "error", err)
		os.Exit(1)
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, p, transformer, limiter, logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	sched.Start()

	// Start ETL pipeline.
	go func() {
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	sched.Stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	for _, c := range closers {
		if err := c.Close(); err != nil {
			logger.Error("close error", "error", err)
		}
	}
	if err := db.Close(); err != nil {
		logger.Error("database close error", "error", err)
	}

	logger.Info("shutdown complete")
}

// seedCatalog persists the configured stations so the computers see them
// before any payload arrives.
func seedCatalog(ctx context.Context, store *sqlite.Store, static domain.StationList, logger *slog.Logger) {
	guids := make([]int64, 0, len(static))
	for g := range static {
		guids = append(guids, g)
	}
	sort.Slice(guids, func(i, j int) bool { return guids[i] < guids[j] })

	for _, g := range guids {
		s := static[g]
		s.LastRefresh = domain.Now()
		if _, err := store.InsertStation(ctx, s); err != nil {
			logger.Warn("failed to seed catalog station", "guid", g, "error", err)
		}
	}
}
