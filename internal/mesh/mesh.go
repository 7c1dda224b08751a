// Package mesh runs the scoring pipeline: message -> signature -> route score
// -> {crypto plan, cost}. Every call is pure given its inputs.
package mesh

import (
	"github.com/ppiankov/meshgate/internal/cost"
	"github.com/ppiankov/meshgate/internal/policy"
	"github.com/ppiankov/meshgate/internal/score"
	"github.com/ppiankov/meshgate/internal/signature"
)

// Result is the outcome of one pipeline run.
type Result struct {
	Message    string              `json:"message"`
	Length     int                 `json:"length"`
	Reputation float64             `json:"reputation"`
	Signature  signature.Signature `json:"sig"`
	RouteScore float64             `json:"routeScore"`
	Band       policy.Band         `json:"band"`
	Plan       policy.CryptoPlan   `json:"crypto"`
	Cost       int                 `json:"estimatedMicroJoules"`
}

// Evaluate scores a message against cfg. A nil cfg uses policy defaults.
func Evaluate(message string, cfg *policy.PolicyConfig) Result {
	if cfg == nil {
		cfg = policy.DefaultConfig()
	}
	return EvaluateWith(message, cfg.Scoring, cfg.Bands)
}

// EvaluateWith runs the pipeline with explicit scoring inputs and bands.
func EvaluateWith(message string, ctx score.Context, bands policy.Bands) Result {
	r := EvaluateLength(signature.Length(message), ctx, bands)
	r.Message = message
	return r
}

// EvaluateLength runs the pipeline for a message of the given length.
// The signature depends on length only, so logged decisions can be
// re-scored without the original text.
func EvaluateLength(length int, ctx score.Context, bands policy.Bands) Result {
	sig := signature.FromLength(length)
	routeScore := score.Compute(sig, ctx)

	return Result{
		Length:     length,
		Reputation: ctx.Reputation,
		Signature:  sig,
		RouteScore: routeScore,
		Band:       bands.Classify(routeScore),
		Plan:       bands.Plan(routeScore, length),
		Cost:       cost.Estimate(length, routeScore),
	}
}
