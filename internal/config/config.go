package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds all service settings, populated from environment variables,
// an optional .env file and an optional YAML catalog file.
type Config struct {
	KafkaBrokers     []string      `env:"KAFKA_BROKERS" validate:"required,min=1,dive,hostname_port"`
	KafkaSourceTopic string        `env:"KAFKA_SOURCE_TOPIC" validate:"required"`
	KafkaSinkTopic   string        `env:"KAFKA_SINK_TOPIC" validate:"required"`
	KafkaGroupID     string        `env:"KAFKA_GROUP_ID" validate:"required"`
	HTTPAddr         string        `env:"HTTP_ADDR" validate:"required"`
	LogLevel         string        `env:"LOG_LEVEL" validate:"oneof=debug info notice warn warning error critical"`
	LogFormat        string        `env:"LOG_FORMAT" validate:"oneof=json text"`
	ShutdownTimeout  time.Duration `env:"SHUTDOWN_TIMEOUT" validate:"gt=0"`

	BatchSize          int           `env:"BATCH_SIZE" validate:"min=1,max=1000"`
	BatchFlushInterval time.Duration `env:"BATCH_FLUSH_INTERVAL" validate:"gt=0"`

	// Persistence and secondary sink.
	SQLitePath      string `env:"SQLITE_PATH" validate:"required"`
	MQTTBroker      string `env:"MQTT_BROKER" validate:"omitempty,url"`
	MQTTTopicPrefix string `env:"MQTT_TOPIC_PREFIX" validate:"required"`
	MQTTClientID    string `env:"MQTT_CLIENT_ID" validate:"required"`

	// Providers enabled for normalization. Empty means every known family.
	Providers   []string        `env:"PROVIDERS"`
	CatalogFile string          `env:"CATALOG_FILE" validate:"omitempty,file"`
	Stations    []StationConfig `validate:"dive"`

	// Periodic computers.
	ComputeInterval   time.Duration `env:"COMPUTE_INTERVAL" validate:"min=1m"`
	EphemerisInterval time.Duration `env:"EPHEMERIS_INTERVAL" validate:"min=1m"`

	// Outbound call gating, per service.
	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS" validate:"gt=0"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST" validate:"min=1"`

	// Mapbox geocoding configuration.
	MapboxToken     string        `env:"MAPBOX_TOKEN" validate:"required_if=MapboxEnabled true"`
	MapboxEnabled   bool          `env:"MAPBOX_ENABLED"`
	MapboxTimeout   time.Duration `env:"MAPBOX_TIMEOUT" validate:"gt=0"`
	MapboxCacheSize int           `env:"MAPBOX_CACHE_SIZE" validate:"min=1"`
}

var validate = validator.New()

// Load reads configuration from environment variables, applying defaults where unset.
// A .env file in the working directory is loaded first when present; it never
// overrides variables already set.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var errs []error
	duration := func(key, def string) time.Duration {
		d, err := time.ParseDuration(EnvOrDefault(key, def))
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid %s: %w", key, err))
		}
		return d
	}
	integer := func(key string, def int) int {
		s := os.Getenv(key)
		if s == "" {
			return def
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid %s: %w", key, err))
		}
		return n
	}

	rps, err := strconv.ParseFloat(EnvOrDefault("RATE_LIMIT_RPS", "2"), 64)
	if err != nil {
		errs = append(errs, fmt.Errorf("invalid RATE_LIMIT_RPS: %w", err))
	}

	mapboxToken := os.Getenv("MAPBOX_TOKEN")
	mapboxEnabled := mapboxToken != ""
	if v := os.Getenv("MAPBOX_ENABLED"); v != "" {
		mapboxEnabled = v == "true"
	}

	cfg := &Config{
		KafkaBrokers:       ParseList(EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic:   EnvOrDefault("KAFKA_SOURCE_TOPIC", "raw-provider-payloads"),
		KafkaSinkTopic:     EnvOrDefault("KAFKA_SINK_TOPIC", "station-modules"),
		KafkaGroupID:       EnvOrDefault("KAFKA_GROUP_ID", "station-telemetry-etl"),
		HTTPAddr:           EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:           EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:          EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:    duration("SHUTDOWN_TIMEOUT", "10s"),
		BatchSize:          integer("BATCH_SIZE", 50),
		BatchFlushInterval: duration("BATCH_FLUSH_INTERVAL", "500ms"),

		SQLitePath:      EnvOrDefault("SQLITE_PATH", "station-telemetry.db"),
		MQTTBroker:      os.Getenv("MQTT_BROKER"),
		MQTTTopicPrefix: EnvOrDefault("MQTT_TOPIC_PREFIX", "stations"),
		MQTTClientID:    EnvOrDefault("MQTT_CLIENT_ID", "station-telemetry-etl"),

		Providers:   ParseList(os.Getenv("PROVIDERS")),
		CatalogFile: os.Getenv("CATALOG_FILE"),

		ComputeInterval:   duration("COMPUTE_INTERVAL", "5m"),
		EphemerisInterval: duration("EPHEMERIS_INTERVAL", "15m"),

		RateLimitRPS:   rps,
		RateLimitBurst: integer("RATE_LIMIT_BURST", 5),

		MapboxToken:     mapboxToken,
		MapboxEnabled:   mapboxEnabled,
		MapboxTimeout:   duration("MAPBOX_TIMEOUT", "5s"),
		MapboxCacheSize: integer("MAPBOX_CACHE_SIZE", 1000),
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	if cfg.CatalogFile != "" {
		if err := cfg.loadCatalogFile(cfg.CatalogFile); err != nil {
			return nil, err
		}
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, describe(err)
	}
	return cfg, nil
}

// describe rewrites validator errors in terms of the environment variables a
// user can change.
func describe(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		name := fe.Namespace()
		if key := envKey(fe.StructField()); key != "" {
			name = key
		}
		msgs = append(msgs, fmt.Sprintf("invalid %s: failed %q", name, fe.Tag()))
	}
	return errors.New(strings.Join(msgs, "; "))
}

// EnvOrDefault returns the value of key, or def when unset or empty.
func EnvOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// ParseList splits a comma-separated list, dropping blank entries.
func ParseList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
