package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppiankov/meshgate/internal/audit"
)

func newAuditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Audit log operations",
		Long:  "Commands for verifying and inspecting the hash-chained decision log.",
	}
	cmd.AddCommand(newAuditVerifyCmd(), newAuditTailCmd(), newAuditSummaryCmd())
	return cmd
}

func newAuditVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <path>",
		Short: "Verify hash chain integrity of an audit log",
		Long:  "Walks the JSONL audit log and validates that every entry's prev_hash\nmatches the SHA-256 of the previous entry. Exits 0 if valid, 1 if tampered.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result := audit.Verify(args[0])
			if result.Valid {
				fmt.Fprintf(cmd.OutOrStdout(), "OK: %d entries verified\n", result.Lines)
				return nil
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "FAILED at line %d: %s\n", result.ErrorLine, result.Error)
			return &exitError{code: 1}
		},
	}
}

func newAuditTailCmd() *cobra.Command {
	var lines int

	cmd := &cobra.Command{
		Use:   "tail <path>",
		Short: "Show recent audit log entries",
		Long:  "Reads the last N entries from the JSONL audit log and pretty-prints them.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := audit.Tail(args[0], lines)
			if err != nil {
				return err
			}
			for _, e := range entries {
				out, _ := json.MarshalIndent(e, "", "  ")
				fmt.Fprintln(cmd.OutOrStdout(), string(out))
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&lines, "lines", "n", 10, "Number of recent entries to show")
	return cmd
}

func newAuditSummaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary <path>",
		Short: "Count decisions per band",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := audit.Tail(args[0], 0)
			if err != nil {
				return err
			}
			out, _ := json.MarshalIndent(audit.Summarize(entries), "", "  ")
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
}
