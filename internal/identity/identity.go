// Package identity builds and parses the MAC-address-shaped identifiers used
// for stations and modules.
//
// An identifier is twelve lower-case hex characters in six colon-separated
// pairs. The first pair is a prefix (provider family for stations, slot for
// modules); the remaining five pairs carry a payload, usually the decimal
// catalog GUID of the station, left-padded with zeros.
package identity

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const (
	prefixLen  = 2
	payloadLen = 10
)

var validID = regexp.MustCompile(`^([0-9a-f]{2}:){5}[0-9a-f]{2}$`)

func normalize(s string, n int) string {
	s = strings.ToLower(strings.ReplaceAll(s, ":", ""))
	if len(s) < n {
		s = strings.Repeat("0", n-len(s)) + s
	}
	return s[len(s)-n:]
}

// Encode joins prefix and payload into an identifier. Both parts are
// lower-cased and stripped of colons; the payload is left-padded with zeros
// to ten characters and keeps only its last ten, the prefix likewise to two.
func Encode(prefix, payload string) string {
	raw := normalize(prefix, prefixLen) + normalize(payload, payloadLen)
	var b strings.Builder
	b.Grow(17)
	for i := 0; i < len(raw); i += 2 {
		if i > 0 {
			b.WriteByte(':')
		}
		b.WriteString(raw[i : i+2])
	}
	return b.String()
}

func strip(id string) string {
	return normalize(id, prefixLen+payloadLen)
}

// DecodeProvider returns the two-character prefix of id.
func DecodeProvider(id string) string {
	return strip(id)[:prefixLen]
}

// Payload returns the ten-character payload of id, without colons.
func Payload(id string) string {
	return strip(id)[prefixLen:]
}

// GUID parses the payload of id as a decimal catalog key.
func GUID(id string) (int64, error) {
	g, err := strconv.ParseInt(Payload(id), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("identifier %q carries no decimal guid: %w", id, err)
	}
	return g, nil
}

// Valid reports whether id is six lower-case two-digit hex groups.
func Valid(id string) bool {
	return validID.MatchString(id)
}
