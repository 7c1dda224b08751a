package audit

// TimestampFormat is the layout used in audit entry timestamps.
const TimestampFormat = "2006-01-02T15:04:05.000Z"

// AuditEntry is one line in the hash-chained JSONL audit log.
// All fields are scalars (no map[string]any) so json.Marshal field order
// is deterministic and hashing is reproducible.
type AuditEntry struct {
	Timestamp     string  `json:"ts"`
	RequestID     string  `json:"request_id"`
	NodeID        string  `json:"node_id"`
	Source        string  `json:"source"` // http, mcp
	MessageLength int     `json:"message_length"`
	Reputation    float64 `json:"reputation"`
	RouteScore    float64 `json:"route_score"`
	Band          string  `json:"band"`
	Alg           string  `json:"alg"`
	Cost          int     `json:"cost"`
	PolicyHash    string  `json:"policy_hash"`
	PrevHash      string  `json:"prev_hash"`
}
