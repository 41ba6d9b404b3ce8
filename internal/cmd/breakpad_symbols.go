package cmd

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/harrison/pipetools/internal/apk"
	"github.com/harrison/pipetools/internal/dispatch"
	"github.com/harrison/pipetools/internal/filelock"
	"github.com/harrison/pipetools/internal/symbols"
	"github.com/spf13/cobra"
)

// NewBreakpadSymbolsCommand creates the breakpad-symbols command
func NewBreakpadSymbolsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "breakpad-symbols",
		Short: "Generate breakpad symbols for the native libraries in an apk or aab",
		Long: `Generate breakpad symbols for every native library shipped in an
Android package.

Library names are read from lib/<abi>/*.so (apk) or base/lib/<abi>/*.so
(aab) entries. Each library is looked up in <build-dir>/lib.unstripped,
falling back to <build-dir>, and in the unstripped dir of a secondary
android_clang_* ABI build when one exists. Chromium's
generate_breakpad_symbols.py then runs once per binary across a pool of
--jobs workers. Any failing binary fails the run, but never stops the
remaining ones.

Examples:
  pipetools breakpad-symbols --build-dir out/android --symbols-dir /tmp/syms \
    --package-path out/android/apks/Browser.apk --src-root ~/src
  pipetools breakpad-symbols ... --clear -j 8 -v`,
		Args: cobra.NoArgs,
		RunE: runBreakpadSymbols,
	}

	cmd.Flags().String("build-dir", "", "The build output directory")
	cmd.Flags().String("symbols-dir", "", "The directory where to write the symbols files")
	cmd.Flags().String("package-path", "", "The apk or aab package to generate symbols for")
	cmd.Flags().String("src-root", "", "The root of the Chromium src checkout")
	cmd.Flags().Bool("clear", false, "Clear the symbols directory before writing new symbols")
	cmd.Flags().IntP("jobs", "j", runtime.NumCPU(), "Number of parallel tasks to run")
	cmd.Flags().BoolP("verbose", "v", false, "Print verbose status output")
	cmd.Flags().Bool("strict-dispatch-errors", false, "Fail the run when a generator cannot be started")
	cmd.Flags().String("log-dir", "", "Directory for run log files")

	for _, name := range []string{"build-dir", "symbols-dir", "package-path", "src-root"} {
		_ = cmd.MarkFlagRequired(name)
	}

	return cmd
}

func runBreakpadSymbols(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	buildDir, _ := cmd.Flags().GetString("build-dir")
	symbolsDir, _ := cmd.Flags().GetString("symbols-dir")
	packagePath, _ := cmd.Flags().GetString("package-path")
	srcRoot, _ := cmd.Flags().GetString("src-root")
	clearSymbols, _ := cmd.Flags().GetBool("clear")
	verbose, _ := cmd.Flags().GetBool("verbose")

	var jobsPtr *int
	if cmd.Flags().Changed("jobs") {
		jobs, _ := cmd.Flags().GetInt("jobs")
		if jobs < 1 {
			return apk.NewConfigError("jobs", fmt.Sprintf("must be >= 1, got %d", jobs))
		}
		jobsPtr = &jobs
	}
	var strictPtr *bool
	if cmd.Flags().Changed("strict-dispatch-errors") {
		strict, _ := cmd.Flags().GetBool("strict-dispatch-errors")
		strictPtr = &strict
	}
	var logDirPtr *string
	if cmd.Flags().Changed("log-dir") {
		logDir, _ := cmd.Flags().GetString("log-dir")
		logDirPtr = &logDir
	}
	cfg.MergeWithFlags(jobsPtr, logDirPtr, strictPtr, nil, nil)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logLevel := cfg.LogLevel
	if verbose {
		logLevel = "debug"
	}
	log, closeLog, err := newLogger(cmd.OutOrStdout(), cfg.LogDir, "breakpad-symbols", logLevel)
	if err != nil {
		return err
	}
	defer closeLog()

	if _, err := symbols.DumpSymsBinary(buildDir); err != nil {
		return err
	}

	libNames, err := apk.ScanPackage(packagePath, cfg.Symbols.IgnoredLibs)
	if err != nil {
		return err
	}
	log.LogDebug(fmt.Sprintf("Found %d libraries in %s", len(libNames), packagePath))

	libPaths, err := apk.NewResolver(buildDir).Resolve(libNames)
	if err != nil {
		return err
	}
	for _, p := range libPaths {
		log.LogTrace(fmt.Sprintf("Resolved %s", p))
	}

	lock := filelock.NewDirLock(symbolsDir)
	if err := lock.TryLock(); err != nil {
		return fmt.Errorf("symbols directory is in use: %w", err)
	}
	defer lock.Unlock()

	if clearSymbols {
		log.LogDebug(fmt.Sprintf("Clearing %s", symbolsDir))
		symbols.ClearDir(symbolsDir)
	}

	generator := symbols.NewGenerator(symbols.GeneratorConfig{
		SrcRoot:    srcRoot,
		BuildDir:   buildDir,
		SymbolsDir: symbolsDir,
		Python:     cfg.Symbols.Python,
		Script:     cfg.Symbols.GeneratorScript,
	})
	generator.Stdout = cmd.OutOrStdout()
	generator.Stderr = cmd.ErrOrStderr()

	dispatcher := dispatch.New(generator, dispatch.Config{
		Workers:              cfg.Symbols.Jobs,
		Verbose:              verbose,
		StrictDispatchErrors: cfg.Symbols.StrictDispatchErrors,
	}, log)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	startedAt := time.Now()
	result := dispatcher.Run(ctx, libPaths)

	if cfg.Symbols.WriteManifest {
		manifest := symbols.Manifest{
			RunID:      result.RunID,
			Package:    packagePath,
			BuildDir:   buildDir,
			Libraries:  libPaths,
			Jobs:       dispatcher.Workers(),
			StartedAt:  startedAt,
			FinishedAt: time.Now(),
			Failed:     result.Failed,
		}
		if p, err := symbols.WriteManifest(symbolsDir, manifest); err != nil {
			log.LogWarn(fmt.Sprintf("Failed to write manifest: %v", err))
		} else {
			log.LogDebug(fmt.Sprintf("Manifest written to %s", p))
		}
	}

	return exitStatus(result.ExitCode())
}
