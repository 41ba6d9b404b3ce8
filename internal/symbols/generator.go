// Package symbols produces breakpad symbol files for native libraries by
// invoking the Chromium generate_breakpad_symbols.py script once per binary.
package symbols

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
)

const (
	// DefaultPython is the interpreter used to run the generator script.
	DefaultPython = "python3"

	// DefaultGeneratorScript is the script location relative to the source root.
	DefaultGeneratorScript = "components/crash/content/tools/generate_breakpad_symbols.py"

	// Platform is passed to the generator for every binary.
	Platform = "android"

	dumpSymsName = "dump_syms"
)

// DumpSymsBinary returns the path of the dump_syms tool inside buildDir.
// The generator script needs it, so a missing or non-executable binary is
// reported before any work starts.
func DumpSymsBinary(buildDir string) (string, error) {
	p := filepath.Join(expandHome(buildDir), dumpSymsName)
	info, err := os.Stat(p)
	if err != nil || info.IsDir() || info.Mode().Perm()&0111 == 0 {
		return "", fmt.Errorf("cannot find %s", p)
	}
	return p, nil
}

func expandHome(p string) string {
	if len(p) < 2 || p[:2] != "~/" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, p[2:])
}

// Generator runs the symbol generator for one binary at a time.
// It satisfies dispatch.TaskRunner.
type Generator struct {
	Python     string
	Script     string
	BuildDir   string
	SymbolsDir string

	Stdout io.Writer
	Stderr io.Writer
}

// GeneratorConfig holds the inputs for NewGenerator.
type GeneratorConfig struct {
	SrcRoot    string
	BuildDir   string
	SymbolsDir string

	// Python overrides DefaultPython.
	Python string
	// Script overrides DefaultGeneratorScript. Relative paths are resolved
	// against SrcRoot.
	Script string
}

// NewGenerator creates a Generator writing tool output to the process streams.
func NewGenerator(cfg GeneratorConfig) *Generator {
	python := cfg.Python
	if python == "" {
		python = DefaultPython
	}
	script := cfg.Script
	if script == "" {
		script = DefaultGeneratorScript
	}
	if !filepath.IsAbs(script) {
		script = filepath.Join(cfg.SrcRoot, script)
	}

	return &Generator{
		Python:     python,
		Script:     script,
		BuildDir:   cfg.BuildDir,
		SymbolsDir: cfg.SymbolsDir,
		Stdout:     os.Stdout,
		Stderr:     os.Stderr,
	}
}

// Args returns the generator command line for binary, excluding the interpreter.
func (g *Generator) Args(binary string) []string {
	return []string{
		g.Script,
		"--build-dir=" + g.BuildDir,
		"--symbols-dir=" + g.SymbolsDir,
		"--binary=" + binary,
		"--platform=" + Platform,
		"--verbose",
	}
}

// Run invokes the generator synchronously for binary. A non-zero exit is
// returned as exitCode; err is set only when the process could not run.
func (g *Generator) Run(ctx context.Context, binary string) (int, error) {
	cmd := exec.CommandContext(ctx, g.Python, g.Args(binary)...)
	cmd.Stdout = g.Stdout
	cmd.Stderr = g.Stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode(), nil
		}
		return -1, fmt.Errorf("failed to run symbol generator for %s: %w", binary, err)
	}
	return 0, nil
}

// ClearDir removes dir and everything below it. Failures are ignored.
func ClearDir(dir string) {
	_ = os.RemoveAll(dir)
}
