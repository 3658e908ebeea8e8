// Package derived computes the derived weather quantities and the indoor
// health index from raw measurements.
//
// Inputs are in internal units: °C, %, Pa and km/h. Every exported function
// rounds its own result to the precision of its kind; intermediates are never
// rounded. Functions that can be undefined for some inputs return a second
// boolean result instead of a sentinel value.
package derived
