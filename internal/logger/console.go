// Package logger provides logging implementations for pipetools runs.
//
// Loggers are leveled (trace, debug, info, warn, error), thread-safe, and
// implement dispatch.Logger so the symbol dispatcher can report progress
// from its workers directly.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/harrison/pipetools/internal/dispatch"
	"github.com/mattn/go-isatty"
)

// Log level constants for filtering
const (
	levelTrace int = 0
	levelDebug int = 1
	levelInfo  int = 2
	levelWarn  int = 3
	levelError int = 4
)

// ConsoleLogger logs to a writer with [HH:MM:SS] timestamps.
// Color output is enabled automatically when the writer is a terminal.
type ConsoleLogger struct {
	writer      io.Writer
	logLevel    string
	mutex       sync.Mutex
	colorOutput bool
}

// NewConsoleLogger creates a ConsoleLogger that writes to the provided io.Writer.
// If writer is nil, messages are silently discarded.
// Invalid or empty levels default to "info".
func NewConsoleLogger(writer io.Writer, logLevel string) *ConsoleLogger {
	return &ConsoleLogger{
		writer:      writer,
		logLevel:    normalizeLogLevel(logLevel),
		colorOutput: isTerminal(writer),
	}
}

// isTerminal reports whether w is a TTY that should receive colors.
// NO_COLOR disables color regardless.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok || f == nil {
		return false
	}
	if color.NoColor {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// normalizeLogLevel converts a log level string to lowercase and validates it.
// Returns "info" as default for empty or invalid levels.
func normalizeLogLevel(level string) string {
	normalized := strings.ToLower(strings.TrimSpace(level))
	switch normalized {
	case "trace", "debug", "info", "warn", "error":
		return normalized
	default:
		return "info"
	}
}

// logLevelToInt converts a log level string to its numeric value.
func logLevelToInt(level string) int {
	switch level {
	case "trace":
		return levelTrace
	case "debug":
		return levelDebug
	case "info":
		return levelInfo
	case "warn":
		return levelWarn
	case "error":
		return levelError
	default:
		return levelInfo
	}
}

func (cl *ConsoleLogger) shouldLog(messageLevel string) bool {
	return logLevelToInt(messageLevel) >= logLevelToInt(cl.logLevel)
}

// LogTrace logs a trace-level message.
func (cl *ConsoleLogger) LogTrace(message string) {
	cl.logWithLevel("TRACE", message)
}

// LogDebug logs a debug-level message.
func (cl *ConsoleLogger) LogDebug(message string) {
	cl.logWithLevel("DEBUG", message)
}

// LogInfo logs an info-level message.
func (cl *ConsoleLogger) LogInfo(message string) {
	cl.logWithLevel("INFO", message)
}

// LogWarn logs a warning-level message.
func (cl *ConsoleLogger) LogWarn(message string) {
	cl.logWithLevel("WARN", message)
}

// LogError logs an error-level message.
func (cl *ConsoleLogger) LogError(message string) {
	cl.logWithLevel("ERROR", message)
}

func (cl *ConsoleLogger) logWithLevel(level string, message string) {
	if cl.writer == nil || !cl.shouldLog(strings.ToLower(level)) {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	label := level
	if cl.colorOutput {
		label = levelColor(level).Sprint(level)
	}
	fmt.Fprintf(cl.writer, "[%s] [%s] %s\n", timestamp(), label, message)
}

func levelColor(level string) *color.Color {
	switch level {
	case "TRACE":
		return color.New(color.FgHiBlack)
	case "DEBUG":
		return color.New(color.FgCyan)
	case "INFO":
		return color.New(color.FgBlue)
	case "WARN":
		return color.New(color.FgYellow)
	case "ERROR":
		return color.New(color.FgRed)
	default:
		return color.New(color.Reset)
	}
}

// LogRunStart logs the start of a dispatcher run at INFO level.
// Format: "[HH:MM:SS] [INFO] Generating symbols for <n> libraries with <w> workers (run <id>)"
func (cl *ConsoleLogger) LogRunStart(runID string, items int, workers int) {
	cl.LogInfo(fmt.Sprintf("Generating symbols for %d libraries with %d workers (run %s)", items, workers, runID))
}

// LogTaskOutcome logs a single library's outcome. Failures are WARN so
// they are visible at the default level; successes are DEBUG.
func (cl *ConsoleLogger) LogTaskOutcome(item string, outcome dispatch.Outcome, exitCode int) {
	switch outcome {
	case dispatch.OutcomeSuccess:
		cl.LogDebug(fmt.Sprintf("%s: %s", item, cl.outcomeText(outcome)))
	case dispatch.OutcomeToolFailure:
		cl.LogWarn(fmt.Sprintf("%s: %s (exit %d)", item, cl.outcomeText(outcome), exitCode))
	default:
		cl.LogDebug(fmt.Sprintf("%s: %s", item, cl.outcomeText(outcome)))
	}
}

func (cl *ConsoleLogger) outcomeText(outcome dispatch.Outcome) string {
	if !cl.colorOutput {
		return outcome.String()
	}
	switch outcome {
	case dispatch.OutcomeSuccess:
		return color.New(color.FgGreen).Sprint(outcome.String())
	case dispatch.OutcomeToolFailure:
		return color.New(color.FgRed).Sprint(outcome.String())
	default:
		return color.New(color.FgYellow).Sprint(outcome.String())
	}
}

// LogDispatchError logs an error that kept a task from running at DEBUG level.
func (cl *ConsoleLogger) LogDispatchError(item string, err error) {
	cl.LogDebug(fmt.Sprintf("%s: %T: %v", item, err, err))
}

// LogRunComplete logs the run summary at INFO level, or ERROR when the run failed.
func (cl *ConsoleLogger) LogRunComplete(runID string, result dispatch.RunResult) {
	summary := fmt.Sprintf("Run %s finished in %s: %d processed, %d succeeded, %d failed, %d not dispatched",
		runID, formatDuration(result.Duration), result.Processed, result.Succeeded, result.ToolFailures, result.DispatchErrors)

	if result.Failed {
		cl.LogError(summary)
		return
	}
	cl.LogInfo(summary)
}

// timestamp returns the current time formatted as "15:04:05" (HH:MM:SS).
func timestamp() string {
	return time.Now().Format("15:04:05")
}

// formatDuration converts a time.Duration to a human-readable string.
// Examples: "5s", "1m30s", "2h15m"
func formatDuration(d time.Duration) string {
	switch {
	case d >= time.Hour:
		hours := d / time.Hour
		minutes := (d % time.Hour) / time.Minute
		if minutes == 0 {
			return fmt.Sprintf("%dh", hours)
		}
		return fmt.Sprintf("%dh%dm", hours, minutes)
	case d >= time.Minute:
		minutes := d / time.Minute
		seconds := (d % time.Minute) / time.Second
		if seconds == 0 {
			return fmt.Sprintf("%dm", minutes)
		}
		return fmt.Sprintf("%dm%ds", minutes, seconds)
	default:
		return fmt.Sprintf("%ds", int64(d.Seconds()))
	}
}
