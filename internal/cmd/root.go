package cmd

import (
	"fmt"

	"github.com/harrison/pipetools/internal/config"
	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// NewRootCommand creates and returns the root cobra command for pipetools
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pipetools",
		Short: "Build pipeline utilities for the Android browser build",
		Long: `pipetools bundles small build pipeline steps.

audit-deps runs npm audit, drops accepted advisories and fails only when
vulnerabilities in production dependencies remain.

breakpad-symbols extracts the native libraries shipped in an apk or aab,
finds their unstripped builds and generates breakpad symbols for each of
them in parallel.`,
		Version: Version,
		// Errors are printed once by main
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().String("config", "", "Path to config file (default: .pipetools/config.yaml)")

	cmd.AddCommand(NewAuditDepsCommand())
	cmd.AddCommand(NewBreakpadSymbolsCommand())

	return cmd
}

// loadConfig resolves the config file from --config or the working directory.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configPath, _ := cmd.Flags().GetString("config")
	if configPath != "" {
		cfg, err := config.LoadConfig(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
		}
		return cfg, nil
	}

	cfg, err := config.LoadConfigFromDir(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}
