package cli

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/ppiankov/meshgate/internal/config"
	meshmcp "github.com/ppiankov/meshgate/internal/mcp"
)

func newMCPCmd() *cobra.Command {
	var (
		nodeID     string
		policyPath string
		auditLog   string
	)

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP tool server for agent integration",
		Long:  "Runs meshgate as an MCP (Model Context Protocol) server over stdio.\nExposes tools: mesh_score, mesh_plan, mesh_policy.",
		RunE: func(cmd *cobra.Command, args []string) error {
			srv, err := meshmcp.New(meshmcp.Config{
				NodeID:       nodeID,
				PolicyPath:   policyPath,
				AuditLogPath: auditLog,
				Version:      version,
			})
			if err != nil {
				return fmt.Errorf("failed to create MCP server: %w", err)
			}
			defer srv.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			log.Info().Str("node_id", nodeID).Msg("meshgate MCP server running on stdio")
			err = srv.Run(ctx)
			if ctx.Err() != nil {
				return nil
			}
			return err
		},
	}

	cmd.Flags().StringVar(&nodeID, config.KeyNodeID, config.DefaultNodeID, "Node identifier recorded in tool output")
	cmd.Flags().StringVar(&policyPath, config.KeyPolicy, "", "Path to policy YAML")
	cmd.Flags().StringVar(&auditLog, config.KeyAuditLog, "", "Path to audit log JSONL file")
	return cmd
}
