package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/meshgate/internal/client"
	"github.com/ppiankov/meshgate/internal/server"
)

func newProbeCmd() *cobra.Command {
	var (
		url        string
		healthAddr string
		timeout    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "probe [message]",
		Short: "Ping a running node and score a message through it",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			out := cmd.OutOrStdout()
			c := client.New(url, nil)

			start := time.Now()
			ping, err := c.Ping(ctx)
			if err != nil {
				return fmt.Errorf("ping %s: %w", url, err)
			}
			fmt.Fprintf(out, "ping:   %s (%s) %s\n", ping.NodeID, time.Since(start).Round(time.Millisecond), ping.Message)

			if healthAddr != "" {
				status, err := client.CheckHealth(ctx, healthAddr, server.HealthService)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "health: %s\n", status)
			}

			var message *string
			if len(args) == 1 {
				message = &args[0]
			}
			resp, err := c.Test(ctx, message)
			if err != nil {
				return fmt.Errorf("test %s: %w", url, err)
			}
			fmt.Fprintf(out, "test:   routeScore %.4f alg %s cost %d\n",
				resp.SmartAtom.RouteScore, resp.Crypto.Alg, resp.Carbon.EstimatedMicroJoules)
			return nil
		},
	}

	cmd.Flags().StringVar(&url, "url", "http://localhost:8787", "Base URL of the node")
	cmd.Flags().StringVar(&healthAddr, "health", "", "gRPC health address (host:port), skipped when empty")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "Request timeout")
	return cmd
}
