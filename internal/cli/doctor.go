package cli

import (
	"fmt"
	"io"
	"net"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/meshgate/internal/audit"
	"github.com/ppiankov/meshgate/internal/config"
	"github.com/ppiankov/meshgate/internal/policy"
)

type checkResult struct {
	label  string
	ok     bool
	detail string
	fix    string
}

func newDoctorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check node readiness and diagnose configuration issues",
		Long: "Validates the resolved serve configuration, the policy file and\n" +
			"the audit log chain, and checks that the listen address is free.",
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := config.New(cmd.Flags())
			if err != nil {
				return err
			}
			return runDoctor(cmd.OutOrStdout(), v)
		},
	}
	config.RegisterFlags(cmd.Flags())
	return cmd
}

func runDoctor(w io.Writer, v *viper.Viper) error {
	var checks []checkResult
	listen := v.GetString(config.KeyListen)
	policyPath := v.GetString(config.KeyPolicy)
	auditPath := v.GetString(config.KeyAuditLog)

	// 1. Binary and version.
	execPath, _ := os.Executable()
	checks = append(checks, checkResult{
		label:  "meshgate binary",
		ok:     execPath != "",
		detail: fmt.Sprintf("%s (%s)", execPath, version),
	})

	// 2. Resolved configuration.
	if cfg, err := config.Load(v); err != nil {
		checks = append(checks, checkResult{label: "configuration", detail: err.Error(), fix: "check MESH_* variables and flags"})
	} else {
		checks = append(checks, checkResult{label: "configuration", ok: true, detail: "node " + cfg.NodeID})
	}

	// 3. policy.yaml.
	if policyPath == "" {
		policyPath = policy.DefaultPath()
	}
	if _, err := os.Stat(policyPath); err != nil {
		checks = append(checks, checkResult{
			label:  "policy.yaml",
			ok:     true,
			detail: "not found, built-in defaults apply",
		})
	} else if _, hash, err := policy.LoadConfigWithHash(policyPath); err != nil {
		checks = append(checks, checkResult{label: "policy.yaml", detail: err.Error(), fix: "meshgate init-policy --force"})
	} else {
		checks = append(checks, checkResult{label: "policy.yaml", ok: true, detail: policyPath + " " + hash[:19]})
	}

	// 4. Audit log chain.
	if auditPath != "" {
		if _, err := os.Stat(auditPath); err != nil {
			checks = append(checks, checkResult{label: "audit log", ok: true, detail: "will be created at " + auditPath})
		} else if res := audit.Verify(auditPath); res.Valid {
			checks = append(checks, checkResult{label: "audit log", ok: true, detail: fmt.Sprintf("%d entries verified", res.Lines)})
		} else {
			checks = append(checks, checkResult{
				label:  "audit log",
				detail: fmt.Sprintf("chain broken at line %d: %s", res.ErrorLine, res.Error),
				fix:    "rotate the file; keep the broken copy for review",
			})
		}
	}

	// 5. Listen address.
	if ln, err := net.Listen("tcp", listen); err != nil {
		checks = append(checks, checkResult{label: "listen address", detail: err.Error(), fix: "pick another --listen"})
	} else {
		ln.Close()
		checks = append(checks, checkResult{label: "listen address", ok: true, detail: listen + " available"})
	}

	hasFailures := false
	for _, c := range checks {
		mark := "\u2713" // ✓
		if !c.ok {
			mark = "\u2717" // ✗
			hasFailures = true
		}
		line := fmt.Sprintf("%s %-20s %s", mark, c.label+":", c.detail)
		if !c.ok && c.fix != "" {
			line += fmt.Sprintf("  ->  %s", c.fix)
		}
		fmt.Fprintln(w, line)
	}

	if hasFailures {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Some checks failed. Run the suggested commands to fix.")
		return fmt.Errorf("doctor found issues")
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "All checks passed.")
	return nil
}
