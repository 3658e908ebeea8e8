package wunderground

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/station-telemetry-etl/internal/domain"
	"github.com/couchcryptid/station-telemetry-etl/internal/provider"
	"github.com/couchcryptid/station-telemetry-etl/internal/provider/providertest"
)

var catalog = domain.StationList{42: {GUID: 42, Name: "Travis Heights"}}

func payload(body []byte) domain.Payload {
	return domain.Payload{Provider: "wunderground", GUID: 42, Body: body}
}

func kinds(modules []domain.Module) map[domain.ModuleType]domain.Dashboard {
	out := make(map[domain.ModuleType]domain.Dashboard)
	for _, m := range modules {
		out[m.Type] = m.Dashboard
	}
	return out
}

func TestNormalize_Imperial(t *testing.T) {
	rec := &providertest.Recorder{}
	p := New(provider.Deps{Logger: rec.Logger()})

	got, err := p.Normalize(payload(providertest.Load(t, "imperial.json")), catalog)
	require.NoError(t, err)

	byType := kinds(got)
	// main carries only sea-level pressure and is dropped
	assert.NotContains(t, byType, domain.ModuleMain)
	assert.Equal(t, 1, rec.Count(slog.LevelWarn))

	outdoor := byType[domain.ModuleOutdoor]
	assert.InDelta(t, 25, outdoor.Values[domain.KindTemperature], 1e-9)
	assert.Equal(t, 71.0, outdoor.Values[domain.KindHumidity])

	wind := byType[domain.ModuleWind]
	assert.InDelta(t, 8.04672, wind.Values[domain.KindWindStrength], 1e-6)
	assert.Equal(t, 160.0, wind.Values[domain.KindWindAngle])

	rain := byType[domain.ModuleRain]
	assert.InDelta(t, 3.048, rain.Values[domain.KindRainDayAggregated], 1e-9)
	assert.Equal(t, 0.0, rain.Values[domain.KindRain])

	require.Contains(t, byType, domain.ModuleSolar)
	assert.Equal(t, "40:00:00:00:00:42", got[0].StationID)
	assert.InDelta(t, 152.4, got[0].Place.Altitude, 1e-9)
	assert.Equal(t, "US", got[0].Place.Country)
}

func TestNormalize_Metric(t *testing.T) {
	p := New(provider.Deps{Logger: (&providertest.Recorder{}).Logger()})
	body := []byte(`{"observations":[{"stationID":"ILYON1","epoch":1717243200,"humidity":50,
		"metric":{"temp":20.5,"pressure":1013.2,"windSpeed":10,"windGust":18}}]}`)

	got, err := p.Normalize(payload(body), catalog)
	require.NoError(t, err)

	byType := kinds(got)
	assert.Equal(t, 20.5, byType[domain.ModuleOutdoor].Values[domain.KindTemperature])
	assert.Equal(t, 10.0, byType[domain.ModuleWind].Values[domain.KindWindStrength])
}

func TestNormalize_UKHybrid(t *testing.T) {
	p := New(provider.Deps{Logger: (&providertest.Recorder{}).Logger()})
	body := []byte(`{"observations":[{"epoch":1717243200,"humidity":80,
		"uk_hybrid":{"temp":14,"windSpeed":10,"windGust":20}}]}`)

	got, err := p.Normalize(payload(body), catalog)
	require.NoError(t, err)

	byType := kinds(got)
	assert.Equal(t, 14.0, byType[domain.ModuleOutdoor].Values[domain.KindTemperature])
	assert.InDelta(t, 16.09344, byType[domain.ModuleWind].Values[domain.KindWindStrength], 1e-9)
}

func TestNormalize_IdentityOnly(t *testing.T) {
	rec := &providertest.Recorder{}
	p := New(provider.Deps{Logger: rec.Logger()})

	got, err := p.Normalize(payload([]byte(`{"observations":[{"stationID":"ILYON1","epoch":1717243200}]}`)), catalog)

	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, 1, rec.Count(slog.LevelWarn))
}

func TestNormalize_Malformed(t *testing.T) {
	p := New(provider.Deps{Logger: (&providertest.Recorder{}).Logger()})

	_, err := p.Normalize(payload([]byte(`{"observations":[]}`)), catalog)
	assert.ErrorIs(t, err, domain.ErrMalformedPayload)

	_, err = p.Normalize(payload([]byte(`nope`)), catalog)
	assert.ErrorIs(t, err, domain.ErrMalformedPayload)
}

func TestNormalize_Idempotent(t *testing.T) {
	p := New(provider.Deps{Logger: (&providertest.Recorder{}).Logger()})
	body := providertest.Load(t, "imperial.json")

	first, err := p.Normalize(payload(body), catalog)
	require.NoError(t, err)
	second, err := p.Normalize(payload(body), catalog)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
