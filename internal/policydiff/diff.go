package policydiff

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/ppiankov/meshgate/internal/alert"
	"github.com/ppiankov/meshgate/internal/policy"
)

// Change represents a scalar field change.
type Change struct {
	Field   string `json:"field"`
	Old     string `json:"old"`
	New     string `json:"new"`
	Comment string `json:"comment,omitempty"`
}

// AlertChange represents a webhook addition, removal, or modification.
type AlertChange struct {
	Type  string `json:"type"` // "added", "removed", "changed"
	Alert string `json:"alert"`
}

// DiffResult holds the comparison of two PolicyConfigs.
type DiffResult struct {
	OldPath      string        `json:"old_path"`
	NewPath      string        `json:"new_path"`
	Changes      []Change      `json:"changes"`
	AlertChanges []AlertChange `json:"alert_changes"`
	HasChanges   bool          `json:"has_changes"`
}

// Comments describe the effect on decisions: "escalates" means more
// messages land in a stronger crypto band, "relaxes" the opposite.
const (
	escalates = "escalates"
	relaxes   = "relaxes"
)

// Diff compares two PolicyConfigs and returns the differences.
func Diff(old, new *policy.PolicyConfig) *DiffResult {
	r := &DiffResult{}

	// Scoring inputs
	diffFloat(r, "scoring.reputation", old.Scoring.Reputation, new.Scoring.Reputation, true)
	diffFloat(r, "scoring.tau", old.Scoring.Tau, new.Scoring.Tau, false)
	if old.Scoring.M != new.Scoring.M {
		comment := "flatter"
		if new.Scoring.M > old.Scoring.M {
			comment = "steeper"
		}
		r.Changes = append(r.Changes, Change{
			Field:   "scoring.m",
			Old:     formatFloat(old.Scoring.M),
			New:     formatFloat(new.Scoring.M),
			Comment: comment,
		})
	}

	// Band thresholds: a lower bound lets more scores through
	diffFloat(r, "bands.high_above", old.Bands.HighAbove, new.Bands.HighAbove, false)
	diffFloat(r, "bands.medium_above", old.Bands.MediumAbove, new.Bands.MediumAbove, false)

	if old.DefaultMessage != new.DefaultMessage {
		r.Changes = append(r.Changes, Change{
			Field: "default_message",
			Old:   strconv.Quote(old.DefaultMessage),
			New:   strconv.Quote(new.DefaultMessage),
		})
	}

	diffAlerts(r, old.Alerts, new.Alerts)

	r.HasChanges = len(r.Changes) > 0 || len(r.AlertChanges) > 0
	return r
}

func diffFloat(r *DiffResult, field string, old, new float64, higherEscalates bool) {
	if old == new {
		return
	}
	comment := relaxes
	if (new > old) == higherEscalates {
		comment = escalates
	}
	r.Changes = append(r.Changes, Change{
		Field:   field,
		Old:     formatFloat(old),
		New:     formatFloat(new),
		Comment: comment,
	})
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func alertLabel(a alert.AlertConfig) string {
	format := a.Format
	if format == "" {
		format = "generic"
	}
	return fmt.Sprintf("%s [%s] on %s", a.URL, format, strings.Join(sortedEvents(a), ","))
}

func sortedEvents(a alert.AlertConfig) []string {
	events := append([]string(nil), a.Events...)
	sort.Strings(events)
	return events
}

func sameAlert(a, b alert.AlertConfig) bool {
	return a.Format == b.Format &&
		strings.Join(sortedEvents(a), ",") == strings.Join(sortedEvents(b), ",")
}

// diffAlerts keys webhooks by URL.
func diffAlerts(r *DiffResult, oldAlerts, newAlerts []alert.AlertConfig) {
	oldMap := make(map[string]alert.AlertConfig)
	for _, a := range oldAlerts {
		oldMap[a.URL] = a
	}
	newMap := make(map[string]alert.AlertConfig)
	for _, a := range newAlerts {
		newMap[a.URL] = a
	}

	for _, a := range newAlerts {
		if prev, exists := oldMap[a.URL]; exists {
			if !sameAlert(prev, a) {
				r.AlertChanges = append(r.AlertChanges, AlertChange{
					Type:  "changed",
					Alert: fmt.Sprintf("%s (was: %s)", alertLabel(a), alertLabel(prev)),
				})
			}
		} else {
			r.AlertChanges = append(r.AlertChanges, AlertChange{Type: "added", Alert: alertLabel(a)})
		}
	}

	for _, a := range oldAlerts {
		if _, exists := newMap[a.URL]; !exists {
			r.AlertChanges = append(r.AlertChanges, AlertChange{Type: "removed", Alert: alertLabel(a)})
		}
	}
}
