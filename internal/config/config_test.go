package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	defaultBroker   = "localhost:9092"
	testMapboxToken = "pk.test-token"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{defaultBroker}, cfg.KafkaBrokers)
	assert.Equal(t, "raw-provider-payloads", cfg.KafkaSourceTopic)
	assert.Equal(t, "station-modules", cfg.KafkaSinkTopic)
	assert.Equal(t, "station-telemetry-etl", cfg.KafkaGroupID)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 50, cfg.BatchSize)
	assert.Equal(t, 500*time.Millisecond, cfg.BatchFlushInterval)
	assert.Equal(t, "station-telemetry.db", cfg.SQLitePath)
	assert.Empty(t, cfg.MQTTBroker)
	assert.Empty(t, cfg.Providers)
	assert.Empty(t, cfg.Stations)
	assert.Equal(t, 5*time.Minute, cfg.ComputeInterval)
	assert.Equal(t, 15*time.Minute, cfg.EphemerisInterval)
	assert.Equal(t, 2.0, cfg.RateLimitRPS)
	assert.Equal(t, 5, cfg.RateLimitBurst)
	assert.False(t, cfg.MapboxEnabled)
	assert.Empty(t, cfg.MapboxToken)
	assert.Equal(t, 5*time.Second, cfg.MapboxTimeout)
	assert.Equal(t, 1000, cfg.MapboxCacheSize)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_SOURCE_TOPIC", "custom-source")
	t.Setenv("KAFKA_SINK_TOPIC", "custom-sink")
	t.Setenv("KAFKA_GROUP_ID", "custom-group")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("BATCH_SIZE", "100")
	t.Setenv("BATCH_FLUSH_INTERVAL", "1s")
	t.Setenv("MQTT_BROKER", "tcp://localhost:1883")
	t.Setenv("PROVIDERS", "netatmo, clientraw")
	t.Setenv("COMPUTE_INTERVAL", "10m")
	t.Setenv("RATE_LIMIT_RPS", "0.5")
	t.Setenv("MAPBOX_TOKEN", testMapboxToken)
	t.Setenv("MAPBOX_TIMEOUT", "10s")
	t.Setenv("MAPBOX_CACHE_SIZE", "500")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "custom-source", cfg.KafkaSourceTopic)
	assert.Equal(t, "custom-sink", cfg.KafkaSinkTopic)
	assert.Equal(t, "custom-group", cfg.KafkaGroupID)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 100, cfg.BatchSize)
	assert.Equal(t, 1*time.Second, cfg.BatchFlushInterval)
	assert.Equal(t, "tcp://localhost:1883", cfg.MQTTBroker)
	assert.Equal(t, []string{"netatmo", "clientraw"}, cfg.Providers)
	assert.Equal(t, 10*time.Minute, cfg.ComputeInterval)
	assert.Equal(t, 0.5, cfg.RateLimitRPS)
	assert.True(t, cfg.MapboxEnabled)
	assert.Equal(t, testMapboxToken, cfg.MapboxToken)
	assert.Equal(t, 10*time.Second, cfg.MapboxTimeout)
	assert.Equal(t, 500, cfg.MapboxCacheSize)
}

func TestLoad_InvalidShutdownTimeout(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_NegativeShutdownTimeout(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "-1s")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_InvalidBatchSize(t *testing.T) {
	t.Setenv("BATCH_SIZE", "0")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BATCH_SIZE")
}

func TestLoad_BatchSizeTooLarge(t *testing.T) {
	t.Setenv("BATCH_SIZE", "9999")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BATCH_SIZE")
}

func TestLoad_InvalidLogFormat(t *testing.T) {
	t.Setenv("LOG_FORMAT", "xml")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LOG_FORMAT")
}

func TestLoad_ComputeIntervalTooShort(t *testing.T) {
	t.Setenv("COMPUTE_INTERVAL", "10s")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "COMPUTE_INTERVAL")
}

func TestLoad_InvalidRateLimit(t *testing.T) {
	t.Setenv("RATE_LIMIT_RPS", "fast")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RATE_LIMIT_RPS")
}

func TestLoad_InvalidMapboxTimeout(t *testing.T) {
	t.Setenv("MAPBOX_TIMEOUT", "bad")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MAPBOX_TIMEOUT")
}

func TestLoad_MapboxEnabledWithoutToken(t *testing.T) {
	t.Setenv("MAPBOX_ENABLED", "true")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MAPBOX_TOKEN")
}

func TestLoad_MapboxTokenImpliesEnabled(t *testing.T) {
	t.Setenv("MAPBOX_TOKEN", testMapboxToken)
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.MapboxEnabled)
}

func TestLoad_MapboxExplicitlyDisabled(t *testing.T) {
	t.Setenv("MAPBOX_TOKEN", testMapboxToken)
	t.Setenv("MAPBOX_ENABLED", "false")
	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.MapboxEnabled)
}

const catalogYAML = `
providers: [clientraw, openweathermap]
stations:
  - guid: 7
    provider: clientraw
    name: Roof
    country: FR
    city: Lyon
    timezone: Europe/Paris
    altitude: 170
    latitude: 45.76
    longitude: 4.84
`

func writeCatalog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_CatalogFile(t *testing.T) {
	t.Setenv("CATALOG_FILE", writeCatalog(t, catalogYAML))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"clientraw", "openweathermap"}, cfg.Providers)
	require.Len(t, cfg.Stations, 1)

	s, ok := cfg.Catalog().Station(7)
	require.True(t, ok)
	assert.Equal(t, "61:00:00:00:00:07", s.ID)
	assert.Equal(t, "Roof", s.Name)
	assert.Equal(t, "Europe/Paris", s.Place.Timezone)
	assert.Equal(t, 45.76, s.Place.Latitude())
	assert.Equal(t, 4.84, s.Place.Longitude())
	assert.True(t, s.Operational)
}

func TestLoad_CatalogFileEnvProvidersWin(t *testing.T) {
	t.Setenv("CATALOG_FILE", writeCatalog(t, catalogYAML))
	t.Setenv("PROVIDERS", "netatmo")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"netatmo"}, cfg.Providers)
}

func TestLoad_CatalogFileInvalidYAML(t *testing.T) {
	t.Setenv("CATALOG_FILE", writeCatalog(t, "stations: [[["))
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CATALOG_FILE")
}

func TestLoad_CatalogFileInvalidStation(t *testing.T) {
	t.Setenv("CATALOG_FILE", writeCatalog(t, "stations:\n  - guid: 0\n    provider: clientraw\n    name: x\n"))
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GUID")
}

func TestParseList(t *testing.T) {
	assert.Nil(t, ParseList(""))
	assert.Equal(t, []string{"a", "b"}, ParseList(" a, ,b "))
}
