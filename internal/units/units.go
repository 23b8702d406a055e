// Package units provides speed unit constants and conversions.
// The simulation runs in m/s; km/h and mph appear only at the edges
// (configuration thresholds and operator-facing output).
package units

import "fmt"

// Unit constants
const (
	MPS  = "mps"
	MPH  = "mph"
	KMPH = "kmph"
	KPH  = "kph"
)

const (
	kmhPerMPS = 3.6
	mphPerMPS = 2.2369362920544
)

// ValidUnits contains all valid unit values
var ValidUnits = []string{MPS, MPH, KMPH, KPH}

// IsValid checks if the given unit is in the list of valid units
func IsValid(unit string) bool {
	for _, validUnit := range ValidUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// KMHToMPS converts km/h to m/s.
func KMHToMPS(kmh float64) float64 {
	return kmh / kmhPerMPS
}

// MPSToKMH converts m/s to km/h.
func MPSToKMH(mps float64) float64 {
	return mps * kmhPerMPS
}

// ConvertSpeed converts a speed from meters per second to the target units.
// Unknown units leave the value in m/s.
func ConvertSpeed(speedMPS float64, targetUnits string) float64 {
	switch targetUnits {
	case MPH:
		return speedMPS * mphPerMPS
	case KMPH, KPH:
		return speedMPS * kmhPerMPS
	default:
		return speedMPS
	}
}

// Label returns the short display suffix for a unit, e.g. "km/h".
func Label(unit string) string {
	switch unit {
	case MPH:
		return "mph"
	case KMPH, KPH:
		return "km/h"
	default:
		return "m/s"
	}
}

// FormatSpeed renders a m/s value in the given units with its label.
func FormatSpeed(speedMPS float64, unit string) string {
	return fmt.Sprintf("%.0f %s", ConvertSpeed(speedMPS, unit), Label(unit))
}
