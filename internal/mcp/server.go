package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"

	"github.com/ppiankov/meshgate/internal/alert"
	"github.com/ppiankov/meshgate/internal/audit"
	"github.com/ppiankov/meshgate/internal/mesh"
	"github.com/ppiankov/meshgate/internal/policy"
)

// Config holds MCP server configuration.
type Config struct {
	NodeID       string
	PolicyPath   string
	AuditLogPath string
	Version      string
}

// Server exposes the scoring pipeline as MCP tools.
type Server struct {
	mcpServer  *mcpsdk.Server
	nodeID     string
	policyCfg  *policy.PolicyConfig
	policyHash string
	dispatcher *alert.Dispatcher
	auditLog   *audit.Log
}

// New creates an MCP server with loaded policy and tools.
func New(cfg Config) (*Server, error) {
	policyCfg, policyHash, err := policy.LoadConfigWithHash(cfg.PolicyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load policy config: %w", err)
	}

	var auditLog *audit.Log
	if cfg.AuditLogPath != "" {
		auditLog, err = audit.Open(cfg.AuditLogPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open audit log: %w", err)
		}
	}

	version := cfg.Version
	if version == "" {
		version = "dev"
	}

	s := &Server{
		nodeID:     cfg.NodeID,
		policyCfg:  policyCfg,
		policyHash: policyHash,
		dispatcher: alert.NewDispatcher(policyCfg.Alerts),
		auditLog:   auditLog,
	}

	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    "meshgate",
			Version: version,
		},
		nil,
	)

	s.registerTools()
	return s, nil
}

// Run starts the MCP server on stdio transport. Blocks until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

// Close waits for pending alerts and closes the audit log if configured.
func (s *Server) Close() error {
	s.dispatcher.Wait()
	if s.auditLog != nil {
		return s.auditLog.Close()
	}
	return nil
}

func (s *Server) record(r mesh.Result) {
	now := time.Now().UTC().Format(audit.TimestampFormat)
	requestID := uuid.NewString()

	if s.auditLog != nil {
		err := s.auditLog.Record(audit.AuditEntry{
			Timestamp:     now,
			RequestID:     requestID,
			NodeID:        s.nodeID,
			Source:        "mcp",
			MessageLength: r.Length,
			Reputation:    r.Reputation,
			RouteScore:    r.RouteScore,
			Band:          string(r.Band),
			Alg:           string(r.Plan.Alg),
			Cost:          r.Cost,
			PolicyHash:    s.policyHash,
		})
		if err != nil {
			log.Error().Err(err).Msg("audit record failed")
		}
	}

	s.dispatcher.Dispatch(alert.AlertEvent{
		Timestamp:     now,
		RequestID:     requestID,
		NodeID:        s.nodeID,
		Band:          string(r.Band),
		Alg:           string(r.Plan.Alg),
		RouteScore:    r.RouteScore,
		MessageLength: r.Length,
		PolicyHash:    s.policyHash,
	})
}

// registerTools adds all meshgate tools to the MCP server.
func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "mesh_score",
		Description: "Score a message: signature, routeScore, band, crypto plan and cost estimate.",
	}, s.handleScore)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "mesh_plan",
		Description: "Return the crypto plan the mesh selects for a given routeScore, without scoring a message.",
	}, s.handlePlan)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "mesh_policy",
		Description: "Show the active scoring context, band thresholds and policy hash.",
	}, s.handlePolicy)
}
