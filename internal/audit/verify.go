package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"github.com/ppiankov/meshgate/internal/policy"
)

// VerifyResult holds the outcome of a chain verification.
type VerifyResult struct {
	Valid     bool   `json:"valid"`
	Lines     int    `json:"lines"`
	Head      string `json:"head,omitempty"`
	Error     string `json:"error,omitempty"`
	ErrorLine int    `json:"error_line,omitempty"`
}

func broken(line int, format string, args ...any) VerifyResult {
	return VerifyResult{Error: fmt.Sprintf(format, args...), ErrorLine: line}
}

// Verify walks a JSONL log and checks that every prev_hash links to the
// line before it and that each recorded alg is the one its band selects.
// Head is the hash a further entry would chain to.
func Verify(path string) VerifyResult {
	f, err := os.Open(path)
	if err != nil {
		return VerifyResult{Error: fmt.Sprintf("open: %v", err)}
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	lineNum := 0
	expected := GenesisHash
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()

		var entry AuditEntry
		if err := json.Unmarshal(line, &entry); err != nil {
			return broken(lineNum, "parse error: %v", err)
		}
		if entry.PrevHash != expected {
			if lineNum == 1 {
				return broken(lineNum, "first entry prev_hash is %q, expected genesis hash", entry.PrevHash)
			}
			return broken(lineNum, "hash mismatch: expected %s, got %s", expected, entry.PrevHash)
		}
		if entry.Band != "" {
			alg, ok := policy.AlgFor(entry.Band)
			if !ok {
				return broken(lineNum, "unknown band %q", entry.Band)
			}
			if entry.Alg != string(alg) {
				return broken(lineNum, "band %s recorded with alg %q, expected %q", entry.Band, entry.Alg, alg)
			}
		}

		expected = HashLine(line)
	}

	if err := scanner.Err(); err != nil {
		return VerifyResult{Error: fmt.Sprintf("scan: %v", err)}
	}

	return VerifyResult{Valid: true, Lines: lineNum, Head: expected}
}
