package ambient

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/station-telemetry-etl/internal/domain"
	"github.com/couchcryptid/station-telemetry-etl/internal/provider"
	"github.com/couchcryptid/station-telemetry-etl/internal/provider/providertest"
)

func payload(body []byte) domain.Payload {
	return domain.Payload{Provider: "ambient", Body: body}
}

func byID(modules []domain.Module) map[string]domain.Module {
	out := make(map[string]domain.Module, len(modules))
	for _, m := range modules {
		out[m.ModuleID] = m
	}
	return out
}

func TestNormalize(t *testing.T) {
	p := New(provider.Deps{Logger: (&providertest.Recorder{}).Logger()})

	got, err := p.Normalize(payload(providertest.Load(t, "devices.json")), nil)
	require.NoError(t, err)

	mods := byID(got)
	// main, outdoor, wind, rain, indoor, solar, extra 1, extra 3
	require.Len(t, mods, 8)

	outdoor := mods["10:0e:c6:20:0f:7b"]
	assert.Equal(t, "83:0e:c6:20:0f:7b", outdoor.StationID)
	assert.Equal(t, "Backyard", outdoor.StationName)
	assert.Equal(t, time.Date(2024, 6, 1, 12, 30, 45, 0, time.UTC), outdoor.Dashboard.Time)
	assert.InDelta(t, 25, outdoor.Dashboard.Values[domain.KindTemperature], 1e-9)
	assert.Equal(t, "America/New_York", outdoor.Place.Timezone)

	wind := mods["20:0e:c6:20:0f:7b"]
	assert.InDelta(t, 8.04672, wind.Dashboard.Values[domain.KindWindStrength], 1e-9)
	assert.Equal(t, 180.0, wind.Dashboard.Values[domain.KindGustAngle])

	rain := mods["30:0e:c6:20:0f:7b"]
	assert.InDelta(t, 2.54, rain.Dashboard.Values[domain.KindRainDayAggregated], 1e-9)
	assert.InDelta(t, 304.8, rain.Dashboard.Values[domain.KindRainYearAggregated], 1e-9)

	indoor := mods["40:0e:c6:20:0f:7b"]
	assert.InDelta(t, 22, indoor.Dashboard.Values[domain.KindTemperature], 1e-9)
	assert.True(t, indoor.Dashboard.Has(domain.KindHealthIndex))

	extra1 := mods["90:0e:c6:20:0f:7b"]
	assert.Equal(t, "Extra 1", extra1.Name)
	assert.InDelta(t, 20, extra1.Dashboard.Values[domain.KindTemperature], 1e-9)

	extra3 := mods["92:0e:c6:20:0f:7b"]
	assert.Equal(t, "Extra 3", extra3.Name)
	assert.InDelta(t, 0, extra3.Dashboard.Values[domain.KindTemperature], 1e-9)
	assert.Equal(t, 70.0, extra3.Dashboard.Values[domain.KindHumidity])
}

func TestNormalize_IdentityOnly(t *testing.T) {
	rec := &providertest.Recorder{}
	p := New(provider.Deps{Logger: rec.Logger()})
	body := []byte(`[{"macAddress":"AA:BB:CC:DD:EE:FF","info":{"name":"Bare"},"lastData":{"dateutc":1717245045000}}]`)

	got, err := p.Normalize(payload(body), nil)

	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, 1, rec.Count(slog.LevelWarn))
}

func TestNormalize_Malformed(t *testing.T) {
	p := New(provider.Deps{Logger: (&providertest.Recorder{}).Logger()})

	for _, body := range []string{`{"error":"apiKey"}`, `[{"info":{"name":"no mac"}}]`} {
		_, err := p.Normalize(payload([]byte(body)), nil)
		assert.ErrorIs(t, err, domain.ErrMalformedPayload, body)
	}
}

func TestDiscover(t *testing.T) {
	stations, err := Discover(payload(providertest.Load(t, "devices.json")), nil)
	require.NoError(t, err)
	require.Len(t, stations, 1)

	s := stations[0]
	assert.Equal(t, "83:0e:c6:20:0f:7b", s.ID)
	assert.Equal(t, "00:0E:C6:20:0F:7B", s.ServiceID)
	assert.Equal(t, [2]float64{-74.006, 40.7128}, s.Place.Location)
	assert.Equal(t, 10.2, s.Place.Altitude)
}

func TestSynchronize_Idempotent(t *testing.T) {
	store := providertest.NewStore()
	p := New(provider.Deps{Logger: (&providertest.Recorder{}).Logger()})
	body := payload(providertest.Load(t, "devices.json"))

	n, err := p.Synchronize(context.Background(), body, nil, store)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = p.Synchronize(context.Background(), body, nil, store)
	require.NoError(t, err)
	assert.Zero(t, n)
}
