package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppiankov/meshgate/internal/sim"
)

func newSimulateCmd() *cobra.Command {
	var (
		trace          string
		policyPath     string
		keepReputation bool
		format         string
	)

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Replay audit log against a new policy and show decision diffs",
		Long: "Reads a recorded audit log, re-scores each decision from its message\n" +
			"length under an alternate policy file, and shows which bands changed.\n\n" +
			"Use this to preview policy changes before deploying them.",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := sim.Simulate(trace, policyPath, keepReputation)
			if err != nil {
				return err
			}

			switch format {
			case "json":
				out, err := sim.FormatJSON(result)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), out)
			default:
				fmt.Fprint(cmd.OutOrStdout(), sim.FormatText(result))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&trace, "trace", "", "Path to audit log (required)")
	cmd.Flags().StringVar(&policyPath, "policy", "", "Path to new policy YAML (required)")
	cmd.Flags().BoolVar(&keepReputation, "keep-reputation", true, "Re-score with each entry's recorded reputation instead of the new policy's")
	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format (text|json)")
	cmd.MarkFlagRequired("trace")
	cmd.MarkFlagRequired("policy")
	return cmd
}
