package pioupiou

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
	"github.com/couchcryptid/station-telemetry-etl/internal/units"
)

func payload(body []byte) domain.Payload {
	return domain.Payload{
		Provider:   "pioupiou",
		Body:       body,
		ReceivedAt: time.Date(2024, 6, 1, 13, 0, 0, 0, time.UTC),
	}
}

func TestNormalize(t *testing.T) {
	p := New(provider.Deps{Logger: (&providertest.Recorder{}).Logger()})
	catalog := domain.StationList{110: {
		ID:    "81:00:00:00:01:10",
		GUID:  110,
		Place: domain.Place{Altitude: 2058},
	}}

	got, err := p.Normalize(payload(providertest.Load(t, "live.json")), catalog)
	require.NoError(t, err)
	require.Len(t, got, 2)

	wind := got[0]
	assert.Equal(t, domain.ModuleWind, wind.Type)
	assert.Equal(t, "81:00:00:00:01:10", wind.StationID)
	assert.Equal(t, "Col du Lautaret", wind.StationName)
	assert.Equal(t, time.Date(2024, 6, 1, 12, 30, 45, 0, time.UTC), wind.Dashboard.Time)
	assert.Equal(t, map[domain.Kind]float64{
		domain.KindWindAngle:    247.5,
		domain.KindWindStrength: 18.25,
		domain.KindGustAngle:    247.5,
		domain.KindGustStrength: 31.5,
	}, wind.Dashboard.Values)
	assert.Equal(t, [2]float64{6.4042, 45.0351}, wind.Place.Location)

	main := got[1]
	assert.Equal(t, domain.ModuleMain, main.Type)
	assert.Equal(t, map[domain.Kind]float64{
		domain.KindPressure:         1012.0,
		domain.KindPressureSeaLevel: units.SeaLevelPressure(1012, 2058, 15),
	}, main.Dashboard.Values)
	assert.Greater(t, main.Dashboard.Values[domain.KindPressureSeaLevel], 1012.0)
	assert.Equal(t, 2058.0, main.Place.Altitude)
}

func TestNormalize_UnknownAltitudeKeepsStationPressureOnly(t *testing.T) {
	tests := []struct {
		name    string
		catalog domain.Catalog
	}{
		{"no catalog", nil},
		{"not in catalog", domain.StationList{}},
		{"other family shares the guid", domain.StationList{110: {ID: "30:00:00:00:01:10", GUID: 110, Place: domain.Place{Altitude: 300}}}},
		{"no declared altitude", domain.StationList{110: {ID: "81:00:00:00:01:10", GUID: 110}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &providertest.Recorder{}
			p := New(provider.Deps{Logger: rec.Logger()})

			got, err := p.Normalize(payload(providertest.Load(t, "live.json")), tt.catalog)
			require.NoError(t, err)

			// a main module with only station pressure is dropped
			require.Len(t, got, 1)
			assert.Equal(t, domain.ModuleWind, got[0].Type)
			assert.Equal(t, 1, rec.Count(slog.LevelWarn))
		})
	}
}

func TestNormalize_NoPressure(t *testing.T) {
	rec := &providertest.Recorder{}
	p := New(provider.Deps{Logger: rec.Logger()})
	body := []byte(`{"data":{"id":7,"measurements":{"wind_heading":90,"wind_speed_avg":12}}}`)

	got, err := p.Normalize(payload(body), nil)

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, domain.ModuleWind, got[0].Type)
	assert.Equal(t, time.Date(2024, 6, 1, 13, 0, 0, 0, time.UTC), got[0].Dashboard.Time)
	assert.Zero(t, rec.Count(slog.LevelWarn))
}

func TestNormalize_IdentityOnly(t *testing.T) {
	rec := &providertest.Recorder{}
	p := New(provider.Deps{Logger: rec.Logger()})

	got, err := p.Normalize(payload([]byte(`{"data":{"id":7,"meta":{"name":"Empty"}}}`)), nil)

	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, 1, rec.Count(slog.LevelWarn))
}

func TestNormalize_Malformed(t *testing.T) {
	p := New(provider.Deps{Logger: (&providertest.Recorder{}).Logger()})

	for _, body := range []string{`not json`, `{"error_code":"not_found"}`, `{"data":{}}`} {
		_, err := p.Normalize(payload([]byte(body)), nil)
		assert.ErrorIs(t, err, domain.ErrMalformedPayload, body)
	}
}

func TestSynchronize(t *testing.T) {
	store := providertest.NewStore()
	p := New(provider.Deps{Logger: (&providertest.Recorder{}).Logger()})
	body := payload(providertest.Load(t, "live.json"))

	n, err := p.Synchronize(context.Background(), body, nil, store)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = p.Synchronize(context.Background(), body, nil, store)
	require.NoError(t, err)
	assert.Zero(t, n)

	stations, err := store.Stations(context.Background())
	require.NoError(t, err)
	require.Len(t, stations, 1)
	assert.True(t, stations[0].Operational)
	assert.Equal(t, "pioupiou", stations[0].Provider)
}
