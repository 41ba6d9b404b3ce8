package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/harrison/pipetools/internal/apk"
	"github.com/harrison/pipetools/internal/audit"
	"github.com/harrison/pipetools/internal/symbols"
	"gopkg.in/yaml.v3"
)

// AuditConfig configures the audit-deps command
type AuditConfig struct {
	// Allowlist holds advisory ids that never fail the audit
	Allowlist []int `yaml:"allowlist"`

	// NPMCommand overrides the npm executable (default: npm, npm.cmd on Windows)
	NPMCommand string `yaml:"npm_command"`

	// Format selects how resolutions are printed (json, table)
	Format string `yaml:"format"`
}

// SymbolsConfig configures the breakpad-symbols command
type SymbolsConfig struct {
	// Jobs is the worker pool size (0 = host CPU count)
	Jobs int `yaml:"jobs"`

	// IgnoredLibs lists libraries in the package that are not built by us
	IgnoredLibs []string `yaml:"ignored_libs"`

	// Python is the interpreter used to run the generator script
	Python string `yaml:"python"`

	// GeneratorScript is the generator path, relative to --src-root unless absolute
	GeneratorScript string `yaml:"generator_script"`

	// StrictDispatchErrors fails the run when a generator cannot be started
	StrictDispatchErrors bool `yaml:"strict_dispatch_errors"`

	// WriteManifest writes <symbols-dir>.manifest.json after each run
	WriteManifest bool `yaml:"write_manifest"`
}

// Config represents pipetools configuration options
type Config struct {
	// LogLevel sets the logging verbosity (trace, debug, info, warn, error)
	LogLevel string `yaml:"log_level"`

	// LogDir is the directory for run log files (empty = console only)
	LogDir string `yaml:"log_dir"`

	Audit   AuditConfig   `yaml:"audit"`
	Symbols SymbolsConfig `yaml:"symbols"`
}

// DefaultConfig returns a Config with the values used when no file is present
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		LogDir:   "",
		Audit: AuditConfig{
			Allowlist:  append([]int(nil), audit.DefaultAllowlist...),
			NPMCommand: "",
			Format:     audit.FormatJSON,
		},
		Symbols: SymbolsConfig{
			Jobs:                 0,
			IgnoredLibs:          append([]string(nil), apk.DefaultIgnoredLibs...),
			Python:               symbols.DefaultPython,
			GeneratorScript:      symbols.DefaultGeneratorScript,
			StrictDispatchErrors: false,
			WriteManifest:        true,
		},
	}
}

// LoadConfig loads configuration from the specified file path
// If the file doesn't exist, returns default configuration without error
// If the file exists but is malformed, returns an error
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Decoding over the defaults keeps every key the file leaves out.
	// Lists given in the file replace the default list entirely.
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// LoadConfigFromDir loads configuration from .pipetools/config.yaml in the specified directory
func LoadConfigFromDir(dir string) (*Config, error) {
	return LoadConfig(filepath.Join(dir, ".pipetools", "config.yaml"))
}

// MergeWithFlags merges CLI flags into the configuration
// Non-nil flag values override configuration values
func (c *Config) MergeWithFlags(jobs *int, logDir *string, strictDispatchErrors *bool, npmCommand *string, format *string) {
	if jobs != nil {
		c.Symbols.Jobs = *jobs
	}
	if logDir != nil {
		c.LogDir = *logDir
	}
	if strictDispatchErrors != nil {
		c.Symbols.StrictDispatchErrors = *strictDispatchErrors
	}
	if npmCommand != nil {
		c.Audit.NPMCommand = *npmCommand
	}
	if format != nil {
		c.Audit.Format = *format
	}
}

// Validate validates the configuration values
func (c *Config) Validate() error {
	validLevels := map[string]bool{
		"trace": true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[c.LogLevel] {
		return fmt.Errorf("invalid log_level %q, must be one of: trace, debug, info, warn, error", c.LogLevel)
	}

	if c.Symbols.Jobs < 0 {
		return fmt.Errorf("symbols.jobs must be >= 0, got %d", c.Symbols.Jobs)
	}
	if c.Symbols.Python == "" {
		return fmt.Errorf("symbols.python cannot be empty")
	}
	if c.Symbols.GeneratorScript == "" {
		return fmt.Errorf("symbols.generator_script cannot be empty")
	}

	switch c.Audit.Format {
	case audit.FormatJSON, audit.FormatTable:
	default:
		return fmt.Errorf("invalid audit.format %q, must be one of: json, table", c.Audit.Format)
	}

	for _, id := range c.Audit.Allowlist {
		if id <= 0 {
			return fmt.Errorf("audit.allowlist contains invalid advisory id %d", id)
		}
	}

	return nil
}
