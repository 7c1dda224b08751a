package policydiff

import (
	"encoding/json"
	"fmt"
	"strings"
)

// FormatText renders the diff result as human-readable text.
func FormatText(r *DiffResult) string {
	if !r.HasChanges {
		return fmt.Sprintf("Policy diff: %s → %s\n\nNo changes detected.\n", r.OldPath, r.NewPath)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Policy diff: %s → %s\n", r.OldPath, r.NewPath)

	writeSection(&b, "Scoring", "scoring.", filterChanges(r.Changes, "scoring."))
	writeSection(&b, "Bands", "bands.", filterChanges(r.Changes, "bands."))

	for _, c := range filterChanges(r.Changes, "default_message") {
		fmt.Fprintf(&b, "\n  %-20s %s → %s\n", c.Field+":", c.Old, c.New)
	}

	if len(r.AlertChanges) > 0 {
		b.WriteString("\n  Alerts:\n")
		for _, ac := range r.AlertChanges {
			switch ac.Type {
			case "added":
				fmt.Fprintf(&b, "    + %s\n", ac.Alert)
			case "removed":
				fmt.Fprintf(&b, "    - %s\n", ac.Alert)
			case "changed":
				fmt.Fprintf(&b, "    ~ %s\n", ac.Alert)
			}
		}
	}

	return b.String()
}

func writeSection(b *strings.Builder, title, prefix string, changes []Change) {
	if len(changes) == 0 {
		return
	}
	fmt.Fprintf(b, "\n  %s:\n", title)
	for _, c := range changes {
		name := strings.TrimPrefix(c.Field, prefix)
		fmt.Fprintf(b, "    %-18s %s → %s", name+":", c.Old, c.New)
		if c.Comment != "" {
			fmt.Fprintf(b, "  (%s)", c.Comment)
		}
		b.WriteString("\n")
	}
}

// FormatJSON renders the diff result as JSON.
func FormatJSON(r *DiffResult) (string, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal diff result: %w", err)
	}
	return string(data), nil
}

func filterChanges(changes []Change, prefix string) []Change {
	var out []Change
	for _, c := range changes {
		if strings.HasPrefix(c.Field, prefix) {
			out = append(out, c)
		}
	}
	return out
}
