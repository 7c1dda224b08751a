package mcp

import (
	"context"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ppiankov/meshgate/internal/cost"
	"github.com/ppiankov/meshgate/internal/mesh"
	"github.com/ppiankov/meshgate/internal/policy"
	"github.com/ppiankov/meshgate/internal/score"
	"github.com/ppiankov/meshgate/internal/signature"
)

// ScoreInput defines parameters for the mesh_score tool.
type ScoreInput struct {
	Message    *string  `json:"message,omitempty" jsonschema:"message text to score, defaults to the policy default message when omitted"`
	Reputation *float64 `json:"reputation,omitempty" jsonschema:"caller reputation in [0,100], defaults to the policy value"`
}

// ScoreOutput is the pipeline result for one message.
type ScoreOutput struct {
	NodeID     string              `json:"nodeId,omitempty"`
	Length     int                 `json:"length"`
	Sig        signature.Signature `json:"sig"`
	RouteScore float64             `json:"routeScore"`
	Band       string              `json:"band"`
	Crypto     policy.CryptoPlan   `json:"crypto"`
	Cost       int                 `json:"estimatedMicroJoules"`
	PolicyHash string              `json:"policyHash"`
	Error      string              `json:"error,omitempty"`
}

// PlanInput defines parameters for the mesh_plan tool.
type PlanInput struct {
	RouteScore    float64 `json:"routeScore" jsonschema:"route score in [0,1]"`
	MessageLength int     `json:"messageLength,omitempty" jsonschema:"message length, used for the cost estimate"`
}

// PlanOutput is the selected plan for a route score.
type PlanOutput struct {
	Band   string            `json:"band"`
	Crypto policy.CryptoPlan `json:"crypto"`
	Cost   int               `json:"estimatedMicroJoules"`
	Error  string            `json:"error,omitempty"`
}

// PolicyInput is empty.
type PolicyInput struct{}

// PolicyOutput describes the loaded policy.
type PolicyOutput struct {
	Scoring        score.Context `json:"scoring"`
	Bands          policy.Bands  `json:"bands"`
	DefaultMessage string        `json:"defaultMessage"`
	Alerts         int           `json:"alerts"`
	PolicyHash     string        `json:"policyHash"`
}

func (s *Server) handleScore(ctx context.Context, req *mcpsdk.CallToolRequest, input ScoreInput) (*mcpsdk.CallToolResult, ScoreOutput, error) {
	scoring := s.policyCfg.Scoring
	if input.Reputation != nil {
		rep := *input.Reputation
		if rep < 0 || rep > 100 {
			return &mcpsdk.CallToolResult{IsError: true}, ScoreOutput{
				Error: fmt.Sprintf("reputation must be within [0,100], got %g", rep),
			}, nil
		}
		scoring.Reputation = rep
	}

	message := s.policyCfg.DefaultMessage
	if input.Message != nil {
		message = *input.Message
	}

	r := mesh.EvaluateWith(message, scoring, s.policyCfg.Bands)
	s.record(r)

	return nil, ScoreOutput{
		NodeID:     s.nodeID,
		Length:     r.Length,
		Sig:        r.Signature,
		RouteScore: r.RouteScore,
		Band:       string(r.Band),
		Crypto:     r.Plan,
		Cost:       r.Cost,
		PolicyHash: s.policyHash,
	}, nil
}

func (s *Server) handlePlan(ctx context.Context, req *mcpsdk.CallToolRequest, input PlanInput) (*mcpsdk.CallToolResult, PlanOutput, error) {
	if input.RouteScore < 0 || input.RouteScore > 1 {
		return &mcpsdk.CallToolResult{IsError: true}, PlanOutput{
			Error: fmt.Sprintf("routeScore must be within [0,1], got %g", input.RouteScore),
		}, nil
	}
	if input.MessageLength < 0 {
		return &mcpsdk.CallToolResult{IsError: true}, PlanOutput{
			Error: fmt.Sprintf("messageLength must not be negative, got %d", input.MessageLength),
		}, nil
	}

	bands := s.policyCfg.Bands
	return nil, PlanOutput{
		Band:   string(bands.Classify(input.RouteScore)),
		Crypto: bands.Plan(input.RouteScore, input.MessageLength),
		Cost:   cost.Estimate(input.MessageLength, input.RouteScore),
	}, nil
}

func (s *Server) handlePolicy(ctx context.Context, req *mcpsdk.CallToolRequest, input PolicyInput) (*mcpsdk.CallToolResult, PolicyOutput, error) {
	return nil, PolicyOutput{
		Scoring:        s.policyCfg.Scoring,
		Bands:          s.policyCfg.Bands,
		DefaultMessage: s.policyCfg.DefaultMessage,
		Alerts:         len(s.policyCfg.Alerts),
		PolicyHash:     s.policyHash,
	}, nil
}
