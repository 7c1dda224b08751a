package sim

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DiffEntry represents one logged decision whose outcome changed.
type DiffEntry struct {
	Timestamp     string  `json:"ts"`
	RequestID     string  `json:"request_id"`
	MessageLength int     `json:"message_length"`
	OldBand       string  `json:"old_band"`
	NewBand       string  `json:"new_band"`
	OldScore      float64 `json:"old_score"`
	NewScore      float64 `json:"new_score"`
	OldAlg        string  `json:"old_alg"`
	NewAlg        string  `json:"new_alg"`
}

// SimResult holds the complete simulation output.
type SimResult struct {
	PolicyPath       string      `json:"policy_path"`
	TotalDecisions   int         `json:"total_decisions"`
	ChangedDecisions int         `json:"changed_decisions"`
	Escalated        int         `json:"escalated"`
	Relaxed          int         `json:"relaxed"`
	Changes          []DiffEntry `json:"changes"`
}

// rank orders bands by crypto strength. Unknown bands rank lowest.
func rank(band string) int {
	switch band {
	case "high":
		return 2
	case "medium":
		return 1
	default:
		return 0
	}
}

// FormatText renders the simulation result as human-readable text.
func FormatText(r *SimResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Simulating %s against %d recorded decisions...\n", r.PolicyPath, r.TotalDecisions)

	if len(r.Changes) == 0 {
		b.WriteString("\nNo changes detected.\n")
		return b.String()
	}

	b.WriteString("\n")
	for _, d := range r.Changes {
		ts := d.Timestamp
		if len(ts) > 19 {
			ts = ts[11:19]
		}
		fmt.Fprintf(&b, "  CHANGED  %s  len=%-4d %.4f -> %.4f  %s -> %s\n",
			ts, d.MessageLength, d.OldScore, d.NewScore, d.OldBand, d.NewBand)
	}

	fmt.Fprintf(&b, "\n%d of %d decisions changed.", r.ChangedDecisions, r.TotalDecisions)
	if r.Escalated > 0 || r.Relaxed > 0 {
		fmt.Fprintf(&b, " %d escalated, %d relaxed.", r.Escalated, r.Relaxed)
	}
	b.WriteString("\n")

	return b.String()
}

// FormatJSON renders the simulation result as JSON.
func FormatJSON(r *SimResult) (string, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal sim result: %w", err)
	}
	return string(data), nil
}
