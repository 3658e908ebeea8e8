package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "station_etl"

// Metrics holds the Prometheus counters, histograms, and gauges for the ETL pipeline
// and the periodic computers.
type Metrics struct {
	PayloadsConsumed prometheus.Counter
	ModulesProduced  prometheus.Counter
	NormalizeErrors  *prometheus.CounterVec // labels: provider, class={malformed,auth,suspended,unknown,not_found,other}
	PipelineRunning  prometheus.Gauge

	// Batch processing metrics.
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram

	// Station catalog metrics.
	StationsInserted  *prometheus.CounterVec // labels: provider
	StationsPruned    *prometheus.CounterVec // labels: provider
	ProviderSuspended *prometheus.GaugeVec   // labels: provider

	// Computer metrics.
	ComputerPasses   *prometheus.CounterVec   // labels: computer={computed,ephemeris}, outcome={success,error}
	ComputerModules  *prometheus.CounterVec   // labels: computer
	ComputerDuration *prometheus.HistogramVec // labels: computer

	// Outbound call gating.
	RateLimited *prometheus.CounterVec // labels: service, verb

	// Geocoding metrics.
	GeocodeRequests    *prometheus.CounterVec // labels: outcome={success,error,empty}
	GeocodeCache       *prometheus.CounterVec // labels: result={hit,miss}
	GeocodeAPIDuration prometheus.Histogram
	GeocodeEnabled     prometheus.Gauge
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	return newMetrics(prometheus.DefaultRegisterer)
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics(prometheus.NewRegistry())
}

func newMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		PayloadsConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payloads_consumed_total",
			Help:      "Total raw provider payloads read from the source.",
		}),
		ModulesProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "modules_produced_total",
			Help:      "Total canonical module records written to the sinks.",
		}),
		NormalizeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "normalize_errors_total",
			Help:      "Payloads that produced no records, by provider and error class.",
		}, []string{"provider", "class"}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 when the pipeline is active, 0 when shut down.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_size",
			Help:      "Number of payloads per batch extracted from the source.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_processing_duration_seconds",
			Help:      "Duration of a complete batch extract-transform-load cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		StationsInserted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stations_inserted_total",
			Help:      "Stations added to the catalog by synchronization.",
		}, []string{"provider"}),
		StationsPruned: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stations_pruned_total",
			Help:      "Stations removed from the catalog by pruning.",
		}, []string{"provider"}),
		ProviderSuspended: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "provider_suspended",
			Help:      "1 while a provider is suspended after an authentication failure.",
		}, []string{"provider"}),
		ComputerPasses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "computer_passes_total",
			Help:      "Computer passes by computer and outcome.",
		}, []string{"computer", "outcome"}),
		ComputerModules: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "computer_modules_total",
			Help:      "Synthetic modules written by the computers.",
		}, []string{"computer"}),
		ComputerDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "computer_pass_duration_seconds",
			Help:      "Duration of one computer pass.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"computer"}),
		RateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Outbound calls refused by the rate limiter.",
		}, []string{"service", "verb"}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_requests_total",
			Help:      "Reverse geocoding requests by outcome.",
		}, []string{"outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_cache_total",
			Help:      "Reverse geocoding cache lookups by result.",
		}, []string{"result"}),
		GeocodeAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "geocode_api_duration_seconds",
			Help:      "Mapbox API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		GeocodeEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "geocode_enabled",
			Help:      "1 when place enrichment through geocoding is enabled, 0 otherwise.",
		}),
	}

	reg.MustRegister(
		m.PayloadsConsumed,
		m.ModulesProduced,
		m.NormalizeErrors,
		m.PipelineRunning,
		m.BatchSize,
		m.BatchProcessingDuration,
		m.StationsInserted,
		m.StationsPruned,
		m.ProviderSuspended,
		m.ComputerPasses,
		m.ComputerModules,
		m.ComputerDuration,
		m.RateLimited,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeAPIDuration,
		m.GeocodeEnabled,
	)

	return m
}
