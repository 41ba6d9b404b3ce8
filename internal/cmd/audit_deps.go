package cmd

import (
	"context"
	"fmt"

	"github.com/harrison/pipetools/internal/audit"
	"github.com/spf13/cobra"
)

// NewAuditDepsCommand creates the audit-deps command
func NewAuditDepsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit-deps",
		Short: "Audit npm dependencies, ignoring accepted advisories",
		Long: `Run npm audit and fail when vulnerabilities in non-development
dependencies remain after removing allow-listed advisories.

Development-only findings are printed as warnings but do not fail the run.
Output that is not valid JSON (for example after an npm network error)
fails the run.

With --audit_dev_deps the plain npm audit output is shown and its exit
status is returned unchanged.

Examples:
  pipetools audit-deps
  pipetools audit-deps --format table
  pipetools audit-deps --audit_dev_deps`,
		Args: cobra.NoArgs,
		RunE: runAuditDeps,
	}

	cmd.Flags().Bool("audit_dev_deps", false, "Audit dev dependencies (plain npm audit, no filtering)")
	cmd.Flags().String("npm", "", "npm executable (default: npm, npm.cmd on Windows)")
	cmd.Flags().String("format", "", "Output format for findings: json or table")
	cmd.Flags().String("log-dir", "", "Directory for run log files")
	cmd.Flags().BoolP("verbose", "v", false, "Print verbose status output")

	return cmd
}

func runAuditDeps(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	var npmPtr, formatPtr, logDirPtr *string
	if cmd.Flags().Changed("npm") {
		v, _ := cmd.Flags().GetString("npm")
		npmPtr = &v
	}
	if cmd.Flags().Changed("format") {
		v, _ := cmd.Flags().GetString("format")
		formatPtr = &v
	}
	if cmd.Flags().Changed("log-dir") {
		v, _ := cmd.Flags().GetString("log-dir")
		logDirPtr = &v
	}
	cfg.MergeWithFlags(nil, logDirPtr, nil, npmPtr, formatPtr)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	logLevel := cfg.LogLevel
	if verbose {
		logLevel = "debug"
	}

	log, closeLog, err := newLogger(cmd.ErrOrStderr(), cfg.LogDir, "audit-deps", logLevel)
	if err != nil {
		return err
	}
	defer closeLog()

	runner := &audit.ExecRunner{Stdout: cmd.OutOrStdout(), Stderr: cmd.ErrOrStderr()}
	auditor := audit.NewAuditor(
		runner,
		audit.NewFilter(cfg.Audit.Allowlist...),
		cfg.Audit.NPMCommand,
		audit.NewPrinter(cmd.OutOrStdout(), cfg.Audit.Format),
	)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	devDeps, _ := cmd.Flags().GetBool("audit_dev_deps")
	if devDeps {
		log.LogDebug(fmt.Sprintf("Running %s audit without filtering", auditor.NPM))
		status, err := auditor.AuditDevDeps(ctx)
		if err != nil {
			return err
		}
		return exitStatus(status)
	}

	log.LogDebug(fmt.Sprintf("Running %s audit --json (allow-list: %v)", auditor.NPM, cfg.Audit.Allowlist))
	status, err := auditor.Audit(ctx)
	if err != nil {
		return err
	}
	log.LogDebug(fmt.Sprintf("Audit exit status %d", status))
	return exitStatus(status)
}
