package scenario

// Expect lists the assertions for one case. Empty fields are not checked.
type Expect struct {
	Band  string   `yaml:"band,omitempty"`
	Alg   string   `yaml:"alg,omitempty"`
	Score *float64 `yaml:"score,omitempty"`
	Cost  *int     `yaml:"cost,omitempty"`
}

// Case is one test case within a scenario.
type Case struct {
	Message    string   `yaml:"message"`
	Reputation *float64 `yaml:"reputation,omitempty"`
	Expect     Expect   `yaml:"expect"`
}

// Scenario is a named collection of scoring test cases.
// Reputation applies to every case that does not set its own.
type Scenario struct {
	Name       string   `yaml:"name"`
	Reputation *float64 `yaml:"reputation,omitempty"`
	Cases      []Case   `yaml:"cases"`
}

// CaseResult is the outcome of evaluating one test case.
type CaseResult struct {
	Index      int      `json:"index"`
	Passed     bool     `json:"passed"`
	Message    string   `json:"message"`
	Band       string   `json:"band"`
	Alg        string   `json:"alg"`
	RouteScore float64  `json:"route_score"`
	Cost       int      `json:"cost"`
	Failures   []string `json:"failures,omitempty"`
}

// RunResult is the outcome of running all cases in one scenario file.
type RunResult struct {
	File   string       `json:"file"`
	Name   string       `json:"name"`
	Total  int          `json:"total"`
	Passed int          `json:"passed"`
	Failed int          `json:"failed"`
	Cases  []CaseResult `json:"cases"`
}
