package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
)

// Summary counts decisions per band over a set of entries.
type Summary struct {
	Total          int     `json:"total"`
	High           int     `json:"high"`
	Medium         int     `json:"medium"`
	Low            int     `json:"low"`
	MeanRouteScore float64 `json:"mean_route_score"`
	FirstTimestamp string  `json:"first_timestamp,omitempty"`
	LastTimestamp  string  `json:"last_timestamp,omitempty"`
}

// Tail returns the last n entries of the log. n <= 0 returns every entry.
// Lines that do not parse are skipped.
func Tail(path string, n int) ([]AuditEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("audit: open: %w", err)
	}
	defer f.Close()

	var entries []AuditEntry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var e AuditEntry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			continue
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("audit: scan: %w", err)
	}

	if n > 0 && len(entries) > n {
		entries = entries[len(entries)-n:]
	}
	return entries, nil
}

// Summarize tallies entries by band.
func Summarize(entries []AuditEntry) Summary {
	var s Summary
	var total float64
	for _, e := range entries {
		s.Total++
		total += e.RouteScore
		switch e.Band {
		case "high":
			s.High++
		case "medium":
			s.Medium++
		case "low":
			s.Low++
		}
	}
	if s.Total > 0 {
		s.MeanRouteScore = total / float64(s.Total)
		s.FirstTimestamp = entries[0].Timestamp
		s.LastTimestamp = entries[len(entries)-1].Timestamp
	}
	return s
}
