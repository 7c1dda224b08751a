package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ppiankov/meshgate/internal/policy"
)

func newInitPolicyCmd() *cobra.Command {
	var (
		path  string
		force bool
	)

	cmd := &cobra.Command{
		Use:   "init-policy",
		Short: "Generate default policy.yaml with comments",
		Long: "Creates ~/.meshgate/policy.yaml with the default scoring inputs,\n" +
			"band thresholds and default message. Edit it to tune decisions.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if path == "" {
				path = policy.DefaultPath()
			}
			if path == "" {
				return fmt.Errorf("cannot determine home directory; pass --path")
			}
			if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
				return fmt.Errorf("cannot create config directory: %w", err)
			}

			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("policy.yaml already exists at %s (use --force to overwrite)", path)
			}

			if err := os.WriteFile(path, []byte(policy.DefaultConfigYAML()), 0644); err != nil {
				return fmt.Errorf("failed to write policy.yaml: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&path, "path", "", "Destination (default ~/.meshgate/policy.yaml)")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	return cmd
}
