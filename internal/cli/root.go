package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/meshgate/internal/config"
	"github.com/ppiankov/meshgate/internal/logging"
)

// exitError carries a process exit code without printing cobra usage.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "meshgate",
		Short: "Message scoring and crypto-policy node",
		Long: "Scores inbound messages, picks a crypto plan from the score band\n" +
			"and estimates a relative cost. Decides which suite applies; never\n" +
			"performs the cryptography itself.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			v, err := config.New(cmd.Flags())
			if err != nil {
				return err
			}
			return logging.Setup(v.GetString(config.KeyLogLevel), os.Stderr)
		},
	}
	config.RegisterPersistentFlags(cmd.PersistentFlags())

	cmd.AddCommand(
		newServeCmd(),
		newScoreCmd(),
		newCheckCmd(),
		newInitPolicyCmd(),
		newAuditCmd(),
		newMCPCmd(),
		newProbeCmd(),
		newDiffCmd(),
		newSimulateCmd(),
		newDoctorCmd(),
		newVersionCmd(),
	)
	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		var ee *exitError
		if errors.As(err, &ee) {
			os.Exit(ee.code)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
