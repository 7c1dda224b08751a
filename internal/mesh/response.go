package mesh

import (
	"github.com/ppiankov/meshgate/internal/policy"
	"github.com/ppiankov/meshgate/internal/signature"
)

// PingMessage is the liveness text returned by the ping endpoint.
const PingMessage = "Planetary Cognitive Mesh demo node is alive."

// PingResponse is the body of GET /api/mesh/ping.
type PingResponse struct {
	OK      bool   `json:"ok"`
	NodeID  string `json:"nodeId"`
	Message string `json:"message"`
}

// TestRequest is the body accepted by POST /api/mesh/test.
type TestRequest struct {
	Message *string `json:"message,omitempty"`
}

// TestResponse is the body of a successful POST /api/mesh/test.
type TestResponse struct {
	OK          bool              `json:"ok"`
	NodeID      string            `json:"nodeId"`
	Input       Input             `json:"input"`
	SmartAtom   SmartAtom         `json:"smartAtom"`
	Crypto      policy.CryptoPlan `json:"crypto"`
	Carbon      Carbon            `json:"carbon"`
	Explanation Explanation       `json:"explanation"`
}

// Input echoes the message that was scored.
type Input struct {
	Message string `json:"message"`
}

// SmartAtom carries the signature and its route score.
type SmartAtom struct {
	Sig        signature.Signature `json:"sig"`
	RouteScore float64             `json:"routeScore"`
}

// Carbon holds the relative energy cost proxy.
type Carbon struct {
	EstimatedMicroJoules int `json:"estimatedMicroJoules"`
}

// Explanation is the human-readable walk through the pipeline.
type Explanation struct {
	Summary string   `json:"summary"`
	Steps   []string `json:"steps"`
}

// NewPingResponse builds the liveness payload for a node.
func NewPingResponse(nodeID string) PingResponse {
	return PingResponse{OK: true, NodeID: nodeID, Message: PingMessage}
}

// NewTestResponse wraps a pipeline result in the wire payload.
func NewTestResponse(nodeID string, r Result) TestResponse {
	return TestResponse{
		OK:          true,
		NodeID:      nodeID,
		Input:       Input{Message: r.Message},
		SmartAtom:   SmartAtom{Sig: r.Signature, RouteScore: r.RouteScore},
		Crypto:      r.Plan,
		Carbon:      Carbon{EstimatedMicroJoules: r.Cost},
		Explanation: DefaultExplanation(),
	}
}

// DefaultExplanation describes the pipeline steps for human readers.
func DefaultExplanation() Explanation {
	return Explanation{
		Summary: "This endpoint shows how the Mesh scores and prepares your packet.",
		Steps: []string{
			"Your message was converted into a sparse-style signature (positions + elevations).",
			"The Smart Atom scorer computed a routeScore from 0 to 1.",
			"Based on routeScore, the Mesh selected an appropriate crypto stack.",
			"A rough carbon proxy was computed as a function of size and routeScore.",
		},
	}
}

// UsageResponse is returned with 405 when /api/mesh/test is not POSTed.
type UsageResponse struct {
	OK      bool         `json:"ok"`
	Error   string       `json:"error"`
	Message string       `json:"message"`
	Usage   Usage        `json:"usage"`
	Example UsageExample `json:"example"`
}

// Usage describes how to call the test endpoint.
type Usage struct {
	Method  string            `json:"method"`
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers"`
	Body    map[string]string `json:"body"`
}

// UsageExample is a sample request for the test endpoint.
type UsageExample struct {
	Curl string `json:"curl"`
}

// NewUsageResponse builds the usage payload. baseURL prefixes the curl example.
func NewUsageResponse(baseURL string) UsageResponse {
	return UsageResponse{
		OK:      false,
		Error:   "Method not allowed",
		Message: "This endpoint requires a POST request with a JSON body.",
		Usage: Usage{
			Method:  "POST",
			URL:     TestPath,
			Headers: map[string]string{"Content-Type": "application/json"},
			Body:    map[string]string{"message": "Your message here"},
		},
		Example: UsageExample{
			Curl: `curl -X POST ` + baseURL + TestPath +
				` -H "Content-Type: application/json" -d '{"message":"Route this through the Planetary Cognitive Mesh."}'`,
		},
	}
}

// Endpoint paths.
const (
	TestPath = "/api/mesh/test"
	PingPath = "/api/mesh/ping"
)
