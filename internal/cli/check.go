package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ppiankov/meshgate/internal/scenario"
)

func newCheckCmd() *cobra.Command {
	var (
		scenarioGlob string
		policyPath   string
		format       string
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run scoring assertions from scenario files",
		Long: "Loads scenario YAML files matching a glob pattern, scores each\n" +
			"case through the pipeline, and reports pass/fail.\n\n" +
			"Exit code 0 if all cases pass, 1 if any fail.\n" +
			"Use in CI to gate policy changes.",
		RunE: func(cmd *cobra.Command, args []string) error {
			matches, err := filepath.Glob(scenarioGlob)
			if err != nil {
				return fmt.Errorf("invalid glob pattern: %w", err)
			}
			if len(matches) == 0 {
				return fmt.Errorf("no scenario files match pattern: %s", scenarioGlob)
			}

			var results []*scenario.RunResult
			for _, path := range matches {
				r, err := scenario.LoadAndRun(path, policyPath)
				if err != nil {
					return err
				}
				results = append(results, r)
			}

			out := cmd.OutOrStdout()
			switch format {
			case "json":
				s, err := scenario.FormatJSON(results)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, s)
			default:
				fmt.Fprint(out, scenario.FormatText(results))
			}

			for _, r := range results {
				if r.Failed > 0 {
					return &exitError{code: 1}
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&scenarioGlob, "scenario", "", "Glob pattern for scenario YAML files (required)")
	cmd.Flags().StringVar(&policyPath, "policy", "", "Path to policy YAML (optional)")
	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format (text|json)")
	cmd.MarkFlagRequired("scenario")
	return cmd
}
