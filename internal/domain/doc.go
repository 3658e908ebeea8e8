// Package domain models the canonical station telemetry shared by every
// weather provider the service ingests.
//
// # Canonical Model
//
// A station is a set of typed modules. Each module carries a dashboard: a
// single UTC timestamp and a map from measurement kind to value. Every value
// on a dashboard is expressed in the internal unit of its kind:
//
//	temperature-like kinds   °C
//	pressure, pressure_sl    hPa
//	wind and gust strength   km/h
//	rain and its aggregates  mm
//	vapor pressures          Pa
//	ephemeris times          UTC epoch seconds
//
// Conversions happen in the provider normalizers before a module is built,
// so a dashboard never mixes units for one kind.
//
// # Identifiers
//
// Station and module ids are MAC-address-shaped strings ("30:00:00:00:01:23").
// Providers that ship real hardware ids keep them; every other provider gets a
// synthetic id from package identity, whose first two hex characters name the
// provider family (stations) or the module slot (modules).
//
// # Missing Data
//
// Provider payloads are semi-structured. An absent field never produces an
// error: the corresponding kind is left off the dashboard. Derived kinds
// follow the same rule, they are only present when all of their inputs are.
// Records left with fewer than two kinds carry nothing worth persisting and
// are dropped by the normalizers.
//
// # Error Classes
//
//	missing data         omitted silently
//	malformed payload    ErrMalformedPayload, zero records for the pass
//	unsupported unit     provider default unit, no error
//	authentication       ErrAuthentication, provider suspended until resumed
//	insufficient inputs  derived kind omitted silently
package domain
