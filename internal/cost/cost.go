// Package cost estimates a relative per-message resource cost.
package cost

import "math"

// perChar is the base cost unit charged for each character.
const perChar = 0.5

// Estimate returns round(length * 0.5 * (0.5 + routeScore)).
// Higher scores spend more. The result is reporting-only and never
// feeds back into the crypto decision.
func Estimate(messageLength int, routeScore float64) int {
	base := float64(messageLength) * perChar
	priorityFactor := 0.5 + routeScore
	return int(math.Round(base * priorityFactor))
}
