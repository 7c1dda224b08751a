package cli

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/ppiankov/meshgate/internal/config"
	"github.com/ppiankov/meshgate/internal/policy"
	"github.com/ppiankov/meshgate/internal/server"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP scoring node",
		Long: "Serves POST /api/mesh/test and GET /api/mesh/ping.\n" +
			"Flags may also be set through MESH_* environment variables\n" +
			"(MESH_NODE_ID, MESH_LISTEN, MESH_POLICY, ...).\n" +
			"The policy file is hot-reloaded on change.",
		RunE: runServe,
	}
	config.RegisterFlags(cmd.Flags())
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	v, err := config.New(cmd.Flags())
	if err != nil {
		return err
	}
	cfg, err := config.Load(v)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	srv, err := server.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	defer srv.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	policyPath := cfg.PolicyPath
	if policyPath == "" {
		policyPath = policy.DefaultPath()
	}
	reloader, err := server.NewReloader(srv, []string{policyPath})
	if err != nil {
		log.Warn().Err(err).Msg("hot-reload disabled")
	}
	if reloader != nil {
		go reloader.Run(ctx)
	}

	if cfg.HealthPort > 0 {
		log.Info().Int("port", cfg.HealthPort).Msg("grpc health service enabled")
	}
	if cfg.AuditLogPath != "" {
		log.Info().Str("path", cfg.AuditLogPath).Msg("audit log enabled")
	}

	if err := srv.Start(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	log.Info().Msg("shut down")
	return nil
}
