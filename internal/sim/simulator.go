package sim

import (
	"fmt"

	"github.com/ppiankov/meshgate/internal/audit"
	"github.com/ppiankov/meshgate/internal/mesh"
	"github.com/ppiankov/meshgate/internal/policy"
)

// Simulate replays an audit log against a new policy and returns decision diffs.
// Each entry is re-scored from its recorded message length. The recorded
// reputation is kept unless keepReputation is false, in which case the new
// policy's scoring.reputation applies.
func Simulate(logPath, policyPath string, keepReputation bool) (*SimResult, error) {
	cfg, err := policy.LoadConfig(policyPath)
	if err != nil {
		return nil, fmt.Errorf("load policy: %w", err)
	}

	entries, err := audit.Tail(logPath, 0)
	if err != nil {
		return nil, err
	}

	result := Replay(entries, cfg, keepReputation)
	result.PolicyPath = policyPath
	return result, nil
}

// Replay re-scores entries under cfg.
func Replay(entries []audit.AuditEntry, cfg *policy.PolicyConfig, keepReputation bool) *SimResult {
	result := &SimResult{}

	for _, entry := range entries {
		result.TotalDecisions++

		scoring := cfg.Scoring
		if keepReputation {
			scoring.Reputation = entry.Reputation
		}
		r := mesh.EvaluateLength(entry.MessageLength, scoring, cfg.Bands)

		if string(r.Band) == entry.Band && r.RouteScore == entry.RouteScore {
			continue
		}

		diff := DiffEntry{
			Timestamp:     entry.Timestamp,
			RequestID:     entry.RequestID,
			MessageLength: entry.MessageLength,
			OldBand:       entry.Band,
			NewBand:       string(r.Band),
			OldScore:      entry.RouteScore,
			NewScore:      r.RouteScore,
			OldAlg:        entry.Alg,
			NewAlg:        string(r.Plan.Alg),
		}
		result.Changes = append(result.Changes, diff)
		result.ChangedDecisions++

		switch delta := rank(diff.NewBand) - rank(diff.OldBand); {
		case delta > 0:
			result.Escalated++
		case delta < 0:
			result.Relaxed++
		}
	}

	return result
}
