package provider

import (
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/station-telemetry-etl/internal/units"
)

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }

// Field parses the i-th field of a split text record. Absent indices, blank
// values, "-" and "--" placeholders, and unparsable numbers are all missing
// data and yield nil.
func Field(fields []string, i int) *float64 {
	if i < 0 || i >= len(fields) {
		return nil
	}
	s := strings.TrimSpace(fields[i])
	switch s {
	case "", "-", "--", "---", "N/A":
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

// Text returns the i-th field of a split text record, or "".
func Text(fields []string, i int) string {
	if i < 0 || i >= len(fields) {
		return ""
	}
	return strings.TrimSpace(fields[i])
}

// Convert converts an optional value to internal units.
func Convert(v *float64, unit units.Unit, q units.Quantity) *float64 {
	return units.Internal(v, unit, q)
}

// Scale multiplies an optional value.
func Scale(v *float64, factor float64) *float64 {
	if v == nil {
		return nil
	}
	out := *v * factor
	return &out
}

// FromInt converts an optional integer.
func FromInt(v *int) *float64 {
	if v == nil {
		return nil
	}
	f := float64(*v)
	return &f
}

// EpochSeconds converts a UNIX timestamp in seconds to UTC.
func EpochSeconds(s int64) time.Time {
	return time.Unix(s, 0).UTC()
}

// EpochMillis converts a UNIX timestamp in milliseconds to UTC, truncated to
// the second.
func EpochMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC().Truncate(time.Second)
}

// LocalTime parses a civil time written in the station's timezone and
// returns it in UTC.
func LocalTime(layout, value string, loc *time.Location) (time.Time, bool) {
	t, err := time.ParseInLocation(layout, strings.TrimSpace(value), loc)
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}
