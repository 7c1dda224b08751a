package alert

// AlertConfig defines a webhook alert destination.
type AlertConfig struct {
	URL     string            `yaml:"url"     json:"url"`
	Format  string            `yaml:"format"  json:"format"` // "generic", "slack"
	Events  []string          `yaml:"events"  json:"events"` // bands: ["high", "medium", "low"]
	Headers map[string]string `yaml:"headers" json:"headers"`
}

// AlertEvent is the payload sent to webhook endpoints.
type AlertEvent struct {
	Timestamp     string  `json:"timestamp"`
	RequestID     string  `json:"request_id"`
	NodeID        string  `json:"node_id"`
	Band          string  `json:"band"`
	Alg           string  `json:"alg"`
	RouteScore    float64 `json:"route_score"`
	MessageLength int     `json:"message_length"`
	PolicyHash    string  `json:"policy_hash"`
}
