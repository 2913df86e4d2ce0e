// Package helpers provides utility functions for type conversions and numeric clamping.
//
// These helpers are used throughout triedns for conversions that may lose
// precision (e.g., int to uint16). They prevent overflow and underflow by clamping
// values to valid ranges for the target type.
package helpers

import "math"

// ClampInt restricts v to the range [lowerLimit, upperLimit].
func ClampInt(v, lowerLimit, upperLimit int) int {
	if v < lowerLimit {
		return lowerLimit
	}
	if v > upperLimit {
		return upperLimit
	}
	return v
}

// ClampIntToUint16 converts v to uint16 with clamping.
// Values below 0 become 0; values above math.MaxUint16 become math.MaxUint16.
func ClampIntToUint16(v int) uint16 {
	clamped := ClampInt(v, 0, math.MaxUint16)
	return uint16(clamped) //nolint:gosec // clamped to valid range
}

// ClampIntToInt32 converts v to int32 with clamping.
func ClampIntToInt32(v int) int32 {
	clamped := ClampInt(v, math.MinInt32, math.MaxInt32)
	return int32(clamped) //nolint:gosec // clamped to valid range
}
