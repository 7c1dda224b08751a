package mcp

import (
	"context"
	"path/filepath"
	"testing"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/meshgate/internal/audit"
	"github.com/ppiankov/meshgate/internal/policy"
)

func newTestServer(t *testing.T, auditPath string) *Server {
	t.Helper()
	s, err := New(Config{
		NodeID:       "mcp-test",
		PolicyPath:   filepath.Join(t.TempDir(), "missing.yaml"),
		AuditLogPath: auditPath,
	})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func ptr(v float64) *float64 { return &v }

func str(v string) *string { return &v }

func TestScoreScenarioMessage(t *testing.T) {
	s := newTestServer(t, "")

	result, out, err := s.handleScore(context.Background(), &mcpsdk.CallToolRequest{}, ScoreInput{
		Message: str("Route this through the Planetary Cognitive Mesh."),
	})
	require.NoError(t, err)
	assert.Nil(t, result)
	assert.Equal(t, 48, out.Length)
	assert.Equal(t, 0.323, out.RouteScore)
	assert.Equal(t, "medium", out.Band)
	assert.Equal(t, policy.AlgSignedOnly, out.Crypto.Alg)
	assert.Equal(t, 20, out.Cost)
	assert.Equal(t, "mcp-test", out.NodeID)
	assert.NotEmpty(t, out.PolicyHash)
}

func TestScoreReputationOverride(t *testing.T) {
	s := newTestServer(t, "")
	ctx := context.Background()

	_, full, err := s.handleScore(ctx, &mcpsdk.CallToolRequest{}, ScoreInput{Message: str("hello"), Reputation: ptr(100)})
	require.NoError(t, err)
	_, none, err := s.handleScore(ctx, &mcpsdk.CallToolRequest{}, ScoreInput{Message: str("hello"), Reputation: ptr(0)})
	require.NoError(t, err)

	assert.Less(t, none.RouteScore, full.RouteScore)
	assert.Equal(t, "low", none.Band)
}

func TestScoreRejectsReputationOutOfRange(t *testing.T) {
	s := newTestServer(t, "")

	result, out, err := s.handleScore(context.Background(), &mcpsdk.CallToolRequest{}, ScoreInput{
		Message:    str("hello"),
		Reputation: ptr(101),
	})
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.True(t, result.IsError)
	assert.Contains(t, out.Error, "reputation")
}

func TestScoreMissingMessageUsesDefault(t *testing.T) {
	s := newTestServer(t, "")

	_, out, err := s.handleScore(context.Background(), &mcpsdk.CallToolRequest{}, ScoreInput{})
	require.NoError(t, err)
	assert.Equal(t, len(policy.DefaultMessage), out.Length)
}

func TestScoreEmptyStringMessageIsScored(t *testing.T) {
	s := newTestServer(t, "")

	_, out, err := s.handleScore(context.Background(), &mcpsdk.CallToolRequest{}, ScoreInput{Message: str("")})
	require.NoError(t, err)
	assert.Equal(t, 0, out.Length)
	assert.Equal(t, 0.2789, out.RouteScore)
	assert.Equal(t, "low", out.Band)
}

func TestScoreWritesAudit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	s := newTestServer(t, path)

	_, _, err := s.handleScore(context.Background(), &mcpsdk.CallToolRequest{}, ScoreInput{Message: str("hi")})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	entries, err := audit.Tail(path, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "mcp", entries[0].Source)
	assert.Equal(t, "mcp-test", entries[0].NodeID)
	assert.Equal(t, "low", entries[0].Band)
}

func TestPlanBands(t *testing.T) {
	s := newTestServer(t, "")
	ctx := context.Background()

	tests := []struct {
		score float64
		band  string
		alg   policy.Alg
	}{
		{0.71, "high", policy.AlgFull},
		{0.7, "medium", policy.AlgSignedOnly},
		{0.3, "low", policy.AlgNone},
	}
	for _, tt := range tests {
		_, out, err := s.handlePlan(ctx, &mcpsdk.CallToolRequest{}, PlanInput{RouteScore: tt.score, MessageLength: 100})
		require.NoError(t, err)
		assert.Equal(t, tt.band, out.Band, "score %g", tt.score)
		assert.Equal(t, tt.alg, out.Crypto.Alg, "score %g", tt.score)
	}

	_, out, err := s.handlePlan(ctx, &mcpsdk.CallToolRequest{}, PlanInput{RouteScore: 1.0, MessageLength: 100})
	require.NoError(t, err)
	assert.Equal(t, 75, out.Cost)
}

func TestPlanRejectsInvalidInput(t *testing.T) {
	s := newTestServer(t, "")
	ctx := context.Background()

	result, out, err := s.handlePlan(ctx, &mcpsdk.CallToolRequest{}, PlanInput{RouteScore: 1.5})
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, out.Error, "routeScore")

	result, _, err = s.handlePlan(ctx, &mcpsdk.CallToolRequest{}, PlanInput{RouteScore: 0.5, MessageLength: -1})
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestPolicyReportsDefaults(t *testing.T) {
	s := newTestServer(t, "")

	_, out, err := s.handlePolicy(context.Background(), &mcpsdk.CallToolRequest{}, PolicyInput{})
	require.NoError(t, err)
	assert.Equal(t, policy.DefaultBands(), out.Bands)
	assert.Equal(t, 100.0, out.Scoring.Reputation)
	assert.Equal(t, policy.DefaultMessage, out.DefaultMessage)
	assert.Zero(t, out.Alerts)
}

func TestToolsListedOverInMemoryTransport(t *testing.T) {
	s := newTestServer(t, "")
	ctx := context.Background()

	serverT, clientT := mcpsdk.NewInMemoryTransports()
	ss, err := s.mcpServer.Connect(ctx, serverT, nil)
	require.NoError(t, err)
	defer ss.Close()

	client := mcpsdk.NewClient(&mcpsdk.Implementation{Name: "test-client", Version: "0"}, nil)
	cs, err := client.Connect(ctx, clientT, nil)
	require.NoError(t, err)
	defer cs.Close()

	tools, err := cs.ListTools(ctx, &mcpsdk.ListToolsParams{})
	require.NoError(t, err)

	var names []string
	for _, tool := range tools.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{"mesh_score", "mesh_plan", "mesh_policy"}, names)

	res, err := cs.CallTool(ctx, &mcpsdk.CallToolParams{
		Name:      "mesh_score",
		Arguments: map[string]any{"message": "hi"},
	})
	require.NoError(t, err)
	assert.False(t, res.IsError)
}
