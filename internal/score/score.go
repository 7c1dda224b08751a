// Package score reduces a signature and trust context to a route score.
package score

import (
	"math"

	"github.com/ppiankov/meshgate/internal/signature"
)

const (
	elevationWeight  = 0.7
	elevationScale   = 0.01
	reputationWeight = 0.3
)

// Context carries the tunable scoring inputs.
// The zero value is not the default; start from DefaultContext.
type Context struct {
	Reputation float64 `yaml:"reputation" json:"reputation"` // 0-100
	Tau        float64 `yaml:"tau"        json:"tau"`        // logistic midpoint
	M          float64 `yaml:"m"          json:"m"`          // logistic steepness
}

// DefaultContext returns full reputation, tau 0.5 and steepness 10.
func DefaultContext() Context {
	return Context{
		Reputation: 100,
		Tau:        0.5,
		M:          10,
	}
}

// Compute returns the route score in [0,1], rounded to 4 decimal places.
// Inputs must be finite; NaN or Inf propagate unchecked.
func Compute(sig signature.Signature, ctx Context) float64 {
	base := Base(sig, ctx.Reputation)
	scaled := 1 / (1 + math.Exp(-ctx.M*(base-ctx.Tau)))
	return Round4(scaled)
}

// Base is the linear pre-activation: weighted elevations plus weighted reputation.
func Base(sig signature.Signature, reputation float64) float64 {
	elevationScore := elevationWeight * sig.Sum() * elevationScale
	reputationScore := reputationWeight * (reputation / 100)
	return elevationScore + reputationScore
}

// Round4 rounds half away from zero to 4 decimal places.
func Round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}
