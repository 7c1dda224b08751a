package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppiankov/meshgate/internal/policy"
	"github.com/ppiankov/meshgate/internal/policydiff"
)

func newDiffCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "diff <old.yaml> <new.yaml>",
		Short: "Compare two policy files and show changes",
		Long:  "Loads two policy YAML files and shows what changed in human-readable terms:\nscoring inputs, band thresholds, default message, alert webhooks.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			oldCfg, err := policy.LoadConfig(args[0])
			if err != nil {
				return fmt.Errorf("load old policy: %w", err)
			}

			newCfg, err := policy.LoadConfig(args[1])
			if err != nil {
				return fmt.Errorf("load new policy: %w", err)
			}

			result := policydiff.Diff(oldCfg, newCfg)
			result.OldPath = args[0]
			result.NewPath = args[1]

			switch format {
			case "json":
				out, err := policydiff.FormatJSON(result)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), out)
			default:
				fmt.Fprint(cmd.OutOrStdout(), policydiff.FormatText(result))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format (text|json)")
	return cmd
}
