package scenario

import (
	"fmt"
	"math"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/meshgate/internal/mesh"
	"github.com/ppiankov/meshgate/internal/policy"
)

// scoreTolerance is half a unit in the fourth decimal place.
const scoreTolerance = 5e-5

// Run evaluates all cases in a scenario against the given policy.
// Cases are independent; a nil cfg means built-in defaults.
func Run(s *Scenario, cfg *policy.PolicyConfig) *RunResult {
	if cfg == nil {
		cfg = policy.DefaultConfig()
	}

	result := &RunResult{
		Name:  s.Name,
		Total: len(s.Cases),
	}

	for i, c := range s.Cases {
		scoring := cfg.Scoring
		if s.Reputation != nil {
			scoring.Reputation = *s.Reputation
		}
		if c.Reputation != nil {
			scoring.Reputation = *c.Reputation
		}

		r := mesh.EvaluateWith(c.Message, scoring, cfg.Bands)
		cr := CaseResult{
			Index:      i + 1,
			Message:    c.Message,
			Band:       string(r.Band),
			Alg:        string(r.Plan.Alg),
			RouteScore: r.RouteScore,
			Cost:       r.Cost,
			Failures:   check(c.Expect, r),
		}

		if len(cr.Failures) == 0 {
			cr.Passed = true
			result.Passed++
		} else {
			result.Failed++
		}

		result.Cases = append(result.Cases, cr)
	}

	return result
}

func check(want Expect, r mesh.Result) []string {
	var failures []string
	if want.Band != "" && !strings.EqualFold(want.Band, string(r.Band)) {
		failures = append(failures, fmt.Sprintf("band: expected %s, got %s", strings.ToLower(want.Band), r.Band))
	}
	if want.Alg != "" && want.Alg != string(r.Plan.Alg) {
		failures = append(failures, fmt.Sprintf("alg: expected %s, got %s", want.Alg, r.Plan.Alg))
	}
	if want.Score != nil && math.Abs(*want.Score-r.RouteScore) > scoreTolerance {
		failures = append(failures, fmt.Sprintf("score: expected %.4f, got %.4f", *want.Score, r.RouteScore))
	}
	if want.Cost != nil && *want.Cost != r.Cost {
		failures = append(failures, fmt.Sprintf("cost: expected %d, got %d", *want.Cost, r.Cost))
	}
	return failures
}

// Load parses a scenario YAML file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario %s: %w", path, err)
	}

	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	if s.Name == "" {
		s.Name = path
	}
	if !validReputation(s.Reputation) {
		return nil, fmt.Errorf("scenario %s: reputation must be within [0,100]", path)
	}
	for i, c := range s.Cases {
		if !validReputation(c.Reputation) {
			return nil, fmt.Errorf("scenario %s case %d: reputation must be within [0,100]", path, i+1)
		}
	}
	return &s, nil
}

func validReputation(r *float64) bool {
	return r == nil || (*r >= 0 && *r <= 100)
}

// LoadAndRun loads a scenario YAML file and the policy, and runs.
func LoadAndRun(path, policyPath string) (*RunResult, error) {
	s, err := Load(path)
	if err != nil {
		return nil, err
	}

	cfg, err := policy.LoadConfig(policyPath)
	if err != nil {
		return nil, fmt.Errorf("load policy: %w", err)
	}

	result := Run(s, cfg)
	result.File = path

	return result, nil
}
