package audit

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
)

// Result messages printed after an audit.
const (
	MsgVulnerabilities = "Result: Audit finished, vulnerabilities found"
	MsgDevWarnings     = "Result: Audit finished, there are dev package warnings"
	MsgClean           = "Result: Audit finished, no vulnerabilities found"
	MsgMalformed       = "Audit failed to return valid json"
)

// CommandRunner runs the audit tool.
type CommandRunner interface {
	// Output runs the command and returns its standard output. A non-zero
	// exit status is not an error.
	Output(ctx context.Context, name string, args ...string) ([]byte, error)

	// Run runs the command attached to the runner's streams and returns its
	// exit status.
	Run(ctx context.Context, name string, args ...string) (int, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct {
	Stdout io.Writer
	Stderr io.Writer
}

// NewExecRunner creates an ExecRunner wired to the process streams.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{Stdout: os.Stdout, Stderr: os.Stderr}
}

// Output implements CommandRunner.
func (r *ExecRunner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = r.Stderr
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			// npm audit exits non-zero whenever it finds anything
			return out, nil
		}
		return nil, fmt.Errorf("failed to run %s: %w", name, err)
	}
	return out, nil
}

// Run implements CommandRunner.
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) (int, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode(), nil
		}
		return 0, fmt.Errorf("failed to run %s: %w", name, err)
	}
	return 0, nil
}

// DefaultNPMCommand returns the npm executable name for the host OS.
func DefaultNPMCommand() string {
	if runtime.GOOS == "windows" {
		return "npm.cmd"
	}
	return "npm"
}

// Auditor runs npm audit and reports on the filtered result.
type Auditor struct {
	Runner  CommandRunner
	Filter  *Filter
	NPM     string
	Printer *Printer
}

// NewAuditor creates an Auditor. An empty npm falls back to DefaultNPMCommand.
func NewAuditor(runner CommandRunner, filter *Filter, npm string, printer *Printer) *Auditor {
	if npm == "" {
		npm = DefaultNPMCommand()
	}
	return &Auditor{
		Runner:  runner,
		Filter:  filter,
		NPM:     npm,
		Printer: printer,
	}
}

// AuditDevDeps runs a plain npm audit and forwards its exit status
// without any filtering.
func (a *Auditor) AuditDevDeps(ctx context.Context) (int, error) {
	return a.Runner.Run(ctx, a.NPM, "audit")
}

// Audit runs `npm audit --json`, filters the report and prints the verdict.
// It returns the process exit status.
func (a *Auditor) Audit(ctx context.Context) (int, error) {
	output, err := a.Runner.Output(ctx, a.NPM, "audit", "--json")
	if err != nil {
		return 1, err
	}
	return a.Check(output)
}

// Check evaluates raw audit output. Malformed output prints a diagnostic
// and returns status 1 with no partial processing.
func (a *Auditor) Check(output []byte) (int, error) {
	report, err := ParseReport(output)
	if err != nil {
		a.Printer.Message(MsgMalformed)
		return 1, nil
	}

	verdict := a.Filter.Evaluate(report)

	switch {
	case verdict.Blocking():
		a.Printer.Message(MsgVulnerabilities)
		if err := a.Printer.Resolutions(verdict.NonDev); err != nil {
			return 1, err
		}
	case len(verdict.Resolutions) > 0:
		a.Printer.Message(MsgDevWarnings)
		if err := a.Printer.Resolutions(verdict.Resolutions); err != nil {
			return verdict.Status, err
		}
	default:
		a.Printer.Message(MsgClean)
	}

	return verdict.Status, nil
}
