package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode(t *testing.T) {
	tests := []struct {
		name, prefix, payload, want string
	}{
		{"pads payload", "30", "123", "30:00:00:00:01:23"},
		{"lower-cases", "AB", "00FF", "ab:00:00:00:00:ff"},
		{"truncates from the left", "83", "AA:BB:CC:DD:EE:FF", "83:bb:cc:dd:ee:ff"},
		{"pads prefix", "9", "1", "09:00:00:00:00:01"},
		{"truncates prefix", "123", "1", "23:00:00:00:00:01"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Encode(tc.prefix, tc.payload)
			assert.Equal(t, tc.want, got)
			assert.True(t, Valid(got))
		})
	}
}

func TestDecode(t *testing.T) {
	id := Encode("62", "4711")

	assert.Equal(t, "62", DecodeProvider(id))
	assert.Equal(t, "0000004711", Payload(id))
	guid, err := GUID(id)
	require.NoError(t, err)
	assert.Equal(t, int64(4711), guid)
}

func TestGUID_NotDecimal(t *testing.T) {
	_, err := GUID("83:bb:cc:dd:ee:ff")
	assert.Error(t, err)
}

func TestValid(t *testing.T) {
	assert.True(t, Valid("70:ee:50:00:00:01"))
	assert.False(t, Valid("70:EE:50:00:00:01"))
	assert.False(t, Valid("70:ee:50:00:00"))
	assert.False(t, Valid("70ee50000001"))
}

func TestStationID_Detect(t *testing.T) {
	for _, f := range Families() {
		if f == Netatmo {
			continue
		}
		id := StationID(f, 42)
		assert.Equal(t, f, Detect(id), "family %s", f)
		guid, err := GUID(id)
		require.NoError(t, err)
		assert.Equal(t, int64(42), guid)
	}
}

func TestDetect_FallsBackToNetatmo(t *testing.T) {
	assert.Equal(t, Netatmo, Detect("70:ee:50:12:34:56"))
}

func TestModuleID_SlotOf(t *testing.T) {
	station := StationID(Clientraw, 7)

	main := ModuleID(SlotMain, 0, Payload(station))
	assert.Equal(t, "00:00:00:00:00:07", main)

	slot, idx, ok := SlotOf(ModuleID(SlotExtra, 3, Payload(station)))
	assert.True(t, ok)
	assert.Equal(t, SlotExtra, slot)
	assert.Equal(t, 3, idx)

	slot, _, ok = SlotOf(ModuleID(SlotSolar, 0, Payload(station)))
	assert.True(t, ok)
	assert.Equal(t, SlotSolar, slot)

	_, _, ok = SlotOf(VirtualID(PrefixComputed, station))
	assert.False(t, ok)
	_, _, ok = SlotOf(Encode("70", "1"))
	assert.False(t, ok)
}

func TestVirtualID(t *testing.T) {
	station := StationID(OpenWeatherMap, 123)

	assert.Equal(t, "a0:00:00:00:01:23", VirtualID(PrefixCurrent, station))
	assert.Equal(t, "e0:00:00:00:01:23", VirtualID(PrefixEphemeris, station))
}
