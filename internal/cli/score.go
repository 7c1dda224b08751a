package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ppiankov/meshgate/internal/mesh"
	"github.com/ppiankov/meshgate/internal/policy"
)

func newScoreCmd() *cobra.Command {
	var (
		policyPath string
		reputation float64
		format     string
	)

	cmd := &cobra.Command{
		Use:   "score [message]",
		Short: "Score a single message locally",
		Long: "Runs the scoring pipeline once and prints the decision.\n" +
			"With no argument the policy's default message is scored;\n" +
			"use '-' to read the message from stdin.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := policy.LoadConfig(policyPath)
			if err != nil {
				return err
			}

			message := cfg.DefaultMessage
			if len(args) == 1 {
				message = args[0]
			}
			if message == "-" {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}
				message = strings.TrimRight(string(data), "\r\n")
			}

			scoring := cfg.Scoring
			if cmd.Flags().Changed("reputation") {
				if reputation < 0 || reputation > 100 {
					return fmt.Errorf("--reputation must be within [0,100], got %g", reputation)
				}
				scoring.Reputation = reputation
			}

			r := mesh.EvaluateWith(message, scoring, cfg.Bands)
			return printResult(cmd.OutOrStdout(), format, r)
		},
	}

	cmd.Flags().StringVar(&policyPath, "policy", "", "Path to policy YAML (default ~/.meshgate/policy.yaml)")
	cmd.Flags().Float64Var(&reputation, "reputation", 100, "Caller reputation in [0,100] (overrides the policy)")
	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format (text|json)")
	return cmd
}

func printResult(w io.Writer, format string, r mesh.Result) error {
	switch format {
	case "json":
		out, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal result: %w", err)
		}
		fmt.Fprintln(w, string(out))
	case "text":
		fmt.Fprintf(w, "length:      %d\n", r.Length)
		fmt.Fprintf(w, "elevations:  %v\n", r.Signature.Elevations)
		fmt.Fprintf(w, "routeScore:  %.4f\n", r.RouteScore)
		fmt.Fprintf(w, "band:        %s\n", r.Band)
		fmt.Fprintf(w, "alg:         %s\n", r.Plan.Alg)
		fmt.Fprintf(w, "e2e/signed:  %t/%t (hop0 %t)\n", r.Plan.E2EEncrypted, r.Plan.Signed, r.Plan.Hop0)
		fmt.Fprintf(w, "cost:        %d\n", r.Cost)
		for _, n := range r.Plan.Notes {
			fmt.Fprintf(w, "  - %s\n", n)
		}
	default:
		return fmt.Errorf("unknown format %q (want text or json)", format)
	}
	return nil
}
