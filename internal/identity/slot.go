package identity

import "fmt"

// Slot is the role digit of a synthetic module id.
type Slot int

const (
	SlotMain    Slot = 0
	SlotOutdoor Slot = 1
	SlotWind    Slot = 2
	SlotRain    Slot = 3
	SlotIndoor  Slot = 4
	SlotSolar   Slot = 5
	SlotExtra   Slot = 9
)

// MaxExtra is the highest extra sensor index.
const MaxExtra = 8

// ModuleID builds the id of a physical module. index is only meaningful for
// SlotExtra and ranges over 0..MaxExtra.
func ModuleID(slot Slot, index int, stationPayload string) string {
	return Encode(fmt.Sprintf("%d%d", slot, index), stationPayload)
}

// SlotOf inverts ModuleID. It reports false when the prefix names no slot.
func SlotOf(moduleID string) (Slot, int, bool) {
	p := DecodeProvider(moduleID)
	if p[0] < '0' || p[0] > '9' || p[1] < '0' || p[1] > '9' {
		return 0, 0, false
	}
	slot, index := Slot(p[0]-'0'), int(p[1]-'0')
	switch slot {
	case SlotMain, SlotOutdoor, SlotWind, SlotRain, SlotIndoor, SlotSolar:
		return slot, index, index == 0
	case SlotExtra:
		return slot, index, index <= MaxExtra
	}
	return 0, 0, false
}

// Virtual module prefixes.
const (
	PrefixCurrent   = "a0"
	PrefixPollution = "a1"
	PrefixComputed  = "c0"
	PrefixEphemeris = "e0"
)

// VirtualID builds the id of a synthetic module attached to stationID.
func VirtualID(prefix, stationID string) string {
	return Encode(prefix, Payload(stationID))
}
