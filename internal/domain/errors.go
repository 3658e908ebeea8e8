package domain

import "errors"

var (
	// ErrMalformedPayload marks a payload that fails a basic shape check.
	// Callers log it and treat the pass as producing zero records.
	ErrMalformedPayload = errors.New("malformed payload")

	// ErrAuthentication marks a provider rejecting the stored credentials.
	// Callers stop automatic retries for that provider until resumed.
	ErrAuthentication = errors.New("upstream authentication failed")

	// ErrUnknownProvider is returned when no normalizer is registered for a
	// payload's provider name.
	ErrUnknownProvider = errors.New("unknown provider")

	// ErrStationNotFound is returned by catalog lookups that miss.
	ErrStationNotFound = errors.New("station not found")
)
