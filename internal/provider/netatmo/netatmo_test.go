package netatmo

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/station-telemetry-etl/internal/domain"
	"github.com/couchcryptid/station-telemetry-etl/internal/identity"
	"github.com/couchcryptid/station-telemetry-etl/internal/provider"
	"github.com/couchcryptid/station-telemetry-etl/internal/provider/providertest"
)

func payload(t *testing.T, body []byte) domain.Payload {
	t.Helper()
	return domain.Payload{Provider: "netatmo", Body: body}
}

func TestNormalize_StationData(t *testing.T) {
	rec := &providertest.Recorder{}
	p := New(provider.Deps{Logger: rec.Logger()})

	got, err := p.Normalize(payload(t, providertest.Load(t, "stations.json")), nil)
	require.NoError(t, err)

	// the NAModule4 without dashboard is dropped
	require.Len(t, got, 5)
	assert.Equal(t, 1, rec.Count(slog.LevelWarn))

	main := got[0]
	assert.Equal(t, "70:ee:50:00:00:01", main.StationID)
	assert.Equal(t, "70:ee:50:00:00:01", main.ModuleID)
	assert.Equal(t, domain.ModuleMain, main.Type)
	assert.Equal(t, "Maison", main.StationName)
	assert.Equal(t, 178, main.Firmware)
	assert.Equal(t, 100, main.Signal)
	assert.Equal(t, time.Unix(1717243200, 0).UTC(), main.Dashboard.Time)
	assert.Equal(t, 996.1, main.Dashboard.Values[domain.KindPressure])
	assert.Equal(t, 1016.2, main.Dashboard.Values[domain.KindPressureSeaLevel])
	assert.Equal(t, 612.0, main.Dashboard.Values[domain.KindCO2])
	assert.True(t, main.Dashboard.Has(domain.KindHealthIndex))
	assert.Equal(t, "Lyon", main.Place.City)

	outdoor := got[1]
	assert.Equal(t, domain.ModuleOutdoor, outdoor.Type)
	assert.Equal(t, 81, outdoor.Battery)
	assert.Equal(t, 100, outdoor.Signal)
	assert.Equal(t, 17.9, outdoor.Dashboard.Values[domain.KindTemperature])

	wind := got[2]
	assert.Equal(t, domain.ModuleWind, wind.Type)
	assert.Equal(t, 21.0, wind.Dashboard.Values[domain.KindGustStrength])
	assert.Equal(t, 50, wind.Signal)

	rain := got[3]
	assert.Equal(t, domain.ModuleRain, rain.Type)
	assert.Equal(t, 3.1, rain.Dashboard.Values[domain.KindRainDayAggregated])

	coach := got[4]
	assert.Equal(t, "70:ee:50:00:00:02", coach.StationID)
	assert.Equal(t, domain.ModuleMain, coach.Type)
	assert.Equal(t, 45, coach.Firmware)
	assert.Equal(t, 23.1, coach.Dashboard.Values[domain.KindTemperature])
	assert.True(t, coach.Dashboard.Has(domain.KindHealthNoise))
}

func TestNormalize_Idempotent(t *testing.T) {
	p := New(provider.Deps{Logger: (&providertest.Recorder{}).Logger()})
	body := providertest.Load(t, "stations.json")

	first, err := p.Normalize(payload(t, body), nil)
	require.NoError(t, err)
	second, err := p.Normalize(payload(t, body), nil)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestNormalize_EmptyDevice(t *testing.T) {
	rec := &providertest.Recorder{}
	p := New(provider.Deps{Logger: rec.Logger()})

	got, err := p.Normalize(payload(t, []byte(`{"body":{"devices":[{"_id":"70:ee:50:00:00:09","type":"NAMain"}]}}`)), nil)

	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, 1, rec.Count(slog.LevelWarn))
}

func TestNormalize_Errors(t *testing.T) {
	p := New(provider.Deps{Logger: (&providertest.Recorder{}).Logger()})

	tests := []struct {
		name string
		body string
		want error
	}{
		{"invalid token", `{"error":{"code":2,"message":"Invalid access token"}}`, domain.ErrAuthentication},
		{"expired token", `{"error":{"code":3,"message":"Access token expired"}}`, domain.ErrAuthentication},
		{"usage reached", `{"error":{"code":26,"message":"User usage reached"}}`, domain.ErrAuthentication},
		{"other upstream error", `{"error":{"code":500,"message":"Internal"}}`, domain.ErrMalformedPayload},
		{"no devices", `{"body":{}}`, domain.ErrMalformedPayload},
		{"not json", `<html>`, domain.ErrMalformedPayload},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := p.Normalize(payload(t, []byte(tc.body)), nil)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestSynchronize(t *testing.T) {
	p := New(provider.Deps{Logger: (&providertest.Recorder{}).Logger()})
	store := providertest.NewStore()

	n, err := p.Synchronize(context.Background(), payload(t, providertest.Load(t, "stations.json")), nil, store)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	stations, err := store.Stations(context.Background())
	require.NoError(t, err)
	for _, s := range stations {
		assert.Equal(t, identity.Netatmo, identity.Detect(s.ID))
		assert.Equal(t, "netatmo", s.Provider)
	}
}
