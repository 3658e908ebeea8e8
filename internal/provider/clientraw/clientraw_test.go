package clientraw

import (
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/station-telemetry-etl/internal/domain"
	"github.com/couchcryptid/station-telemetry-etl/internal/identity"
	"github.com/couchcryptid/station-telemetry-etl/internal/provider"
	"github.com/couchcryptid/station-telemetry-etl/internal/provider/providertest"
)

var (
	received = time.Date(2024, 6, 1, 12, 6, 0, 0, time.UTC)
	catalog  = domain.StationList{7: {GUID: 7, Place: domain.Place{Timezone: "Europe/Paris"}}}
)

func payload(body []byte) domain.Payload {
	return domain.Payload{Provider: "clientraw", GUID: 7, Body: body, ReceivedAt: received}
}

func byType(modules []domain.Module) map[domain.ModuleType]domain.Module {
	out := make(map[domain.ModuleType]domain.Module)
	for _, m := range modules {
		out[m.Type] = m
	}
	return out
}

func TestNormalize(t *testing.T) {
	rec := &providertest.Recorder{}
	p := New(provider.Deps{Logger: rec.Logger()})

	got, err := p.Normalize(payload(providertest.Load(t, "clientraw.txt")), catalog)
	require.NoError(t, err)

	mods := byType(got)
	outdoor := mods[domain.ModuleOutdoor]
	assert.Equal(t, "61:00:00:00:00:07", outdoor.StationID)
	assert.Equal(t, "Lyon Nord", outdoor.StationName)
	assert.Equal(t, time.Date(2024, 6, 1, 12, 5, 9, 0, time.UTC), outdoor.Dashboard.Time)
	assert.Equal(t, 18.5, outdoor.Dashboard.Values[domain.KindTemperature])

	wind := mods[domain.ModuleWind]
	assert.InDelta(t, 9.26, wind.Dashboard.Values[domain.KindWindStrength], 1e-9)
	assert.InDelta(t, 16.668, wind.Dashboard.Values[domain.KindGustStrength], 1e-9)

	rain := mods[domain.ModuleRain]
	assert.Equal(t, 412.0, rain.Dashboard.Values[domain.KindRainYearAggregated])

	indoor := mods[domain.ModuleIndoor]
	assert.Equal(t, 21.3, indoor.Dashboard.Values[domain.KindTemperature])
	assert.True(t, indoor.Dashboard.Has(domain.KindHealthIndex))

	extra := mods[domain.ModuleExtra]
	_, idx, ok := identity.SlotOf(extra.ModuleID)
	require.True(t, ok)
	assert.Equal(t, 0, idx)
	assert.Equal(t, 15.2, extra.Dashboard.Values[domain.KindTemperature])

	assert.Contains(t, mods, domain.ModuleSolar)
	// main only carries sea-level pressure
	assert.NotContains(t, mods, domain.ModuleMain)
	assert.Equal(t, 1, rec.Count(slog.LevelWarn))
}

func TestNormalize_MissingYearUsesReceivedAt(t *testing.T) {
	fields := strings.Fields(string(providertest.Load(t, "clientraw.txt")))
	body := strings.Join(fields[:fYear], " ")
	p := New(provider.Deps{Logger: (&providertest.Recorder{}).Logger()})

	got, err := p.Normalize(payload([]byte(body)), catalog)
	require.NoError(t, err)
	require.NotEmpty(t, got)
	assert.Equal(t, 2024, got[0].Dashboard.Time.Year())
}

func TestNormalize_IdentityOnly(t *testing.T) {
	rec := &providertest.Recorder{}
	p := New(provider.Deps{Logger: rec.Logger()})
	body := "12345" + strings.Repeat(" -", 60)

	got, err := p.Normalize(payload([]byte(body)), catalog)

	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, 1, rec.Count(slog.LevelWarn))
}

func TestNormalize_Malformed(t *testing.T) {
	p := New(provider.Deps{Logger: (&providertest.Recorder{}).Logger()})

	_, err := p.Normalize(payload([]byte("12345 1 2 3")), catalog)
	assert.ErrorIs(t, err, domain.ErrMalformedPayload)

	_, err = p.Normalize(payload([]byte("99999"+strings.Repeat(" 0", 60))), catalog)
	assert.ErrorIs(t, err, domain.ErrMalformedPayload)
}

func TestNormalize_Idempotent(t *testing.T) {
	p := New(provider.Deps{Logger: (&providertest.Recorder{}).Logger()})
	body := providertest.Load(t, "clientraw.txt")

	first, err := p.Normalize(payload(body), catalog)
	require.NoError(t, err)
	second, err := p.Normalize(payload(body), catalog)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestStationName(t *testing.T) {
	assert.Equal(t, "Lyon Nord", stationName("Lyon_Nord-14:05:09"))
	assert.Equal(t, "Saint-Genis", stationName("Saint-Genis"))
}
