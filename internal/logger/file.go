package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/harrison/pipetools/internal/dispatch"
)

// FileLogger writes a timestamped per-run log file and keeps a
// latest.log symlink pointing at the newest one.
type FileLogger struct {
	logDir   string
	runLog   *os.File
	runFile  string
	logLevel string
	mu       sync.Mutex
}

// NewFileLogger creates a FileLogger in logDir for the named command.
func NewFileLogger(logDir, command, logLevel string) (*FileLogger, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	// Generate timestamped filename: <command>-YYYYMMDD-HHMMSS.log
	stamp := time.Now().Format("20060102-150405")
	runFile := filepath.Join(logDir, fmt.Sprintf("%s-%s.log", command, stamp))

	file, err := os.OpenFile(runFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create run log file: %w", err)
	}

	symlinkPath := filepath.Join(logDir, "latest.log")
	if _, err := os.Lstat(symlinkPath); err == nil {
		if err := os.Remove(symlinkPath); err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to remove old symlink: %w", err)
		}
	}
	if err := os.Symlink(filepath.Base(runFile), symlinkPath); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to create symlink: %w", err)
	}

	fl := &FileLogger{
		logDir:   logDir,
		runLog:   file,
		runFile:  runFile,
		logLevel: normalizeLogLevel(logLevel),
	}

	fl.write(fmt.Sprintf("=== pipetools %s ===\n", command))
	fl.write(fmt.Sprintf("Started at: %s\n\n", time.Now().Format(time.RFC3339)))

	return fl, nil
}

// RunFile returns the path of the current run log.
func (fl *FileLogger) RunFile() string {
	return fl.runFile
}

func (fl *FileLogger) write(s string) {
	fl.mu.Lock()
	defer fl.mu.Unlock()
	if fl.runLog != nil {
		fl.runLog.WriteString(s)
	}
}

func (fl *FileLogger) logWithLevel(level string, message string) {
	if logLevelToInt(strings.ToLower(level)) < logLevelToInt(fl.logLevel) {
		return
	}
	fl.write(fmt.Sprintf("[%s] [%s] %s\n", time.Now().Format(time.RFC3339), level, message))
}

// LogTrace logs a trace-level message.
func (fl *FileLogger) LogTrace(message string) { fl.logWithLevel("TRACE", message) }

// LogDebug logs a debug-level message.
func (fl *FileLogger) LogDebug(message string) { fl.logWithLevel("DEBUG", message) }

// LogInfo logs an info-level message.
func (fl *FileLogger) LogInfo(message string) { fl.logWithLevel("INFO", message) }

// LogWarn logs a warning-level message.
func (fl *FileLogger) LogWarn(message string) { fl.logWithLevel("WARN", message) }

// LogError logs an error-level message.
func (fl *FileLogger) LogError(message string) { fl.logWithLevel("ERROR", message) }

// LogRunStart implements dispatch.Logger.
func (fl *FileLogger) LogRunStart(runID string, items int, workers int) {
	fl.LogInfo(fmt.Sprintf("run %s: %d libraries, %d workers", runID, items, workers))
}

// LogTaskOutcome implements dispatch.Logger. Every outcome is recorded at
// DEBUG except tool failures, which are WARN.
func (fl *FileLogger) LogTaskOutcome(item string, outcome dispatch.Outcome, exitCode int) {
	msg := fmt.Sprintf("%s: %s (exit %d)", item, outcome, exitCode)
	if outcome == dispatch.OutcomeToolFailure {
		fl.LogWarn(msg)
		return
	}
	fl.LogDebug(msg)
}

// LogDispatchError implements dispatch.Logger.
func (fl *FileLogger) LogDispatchError(item string, err error) {
	fl.LogDebug(fmt.Sprintf("%s: dispatch error: %v", item, err))
}

// LogRunComplete implements dispatch.Logger.
func (fl *FileLogger) LogRunComplete(runID string, result dispatch.RunResult) {
	fl.write(fmt.Sprintf("\n=== Run %s ===\n", runID))
	fl.write(fmt.Sprintf("Processed: %d\n", result.Processed))
	fl.write(fmt.Sprintf("Succeeded: %d\n", result.Succeeded))
	fl.write(fmt.Sprintf("Tool failures: %d\n", result.ToolFailures))
	fl.write(fmt.Sprintf("Dispatch errors: %d\n", result.DispatchErrors))
	fl.write(fmt.Sprintf("Duration: %s\n", result.Duration.Round(time.Millisecond)))
	fl.write(fmt.Sprintf("Failed: %t\n", result.Failed))
}

// Close flushes and closes the run log.
func (fl *FileLogger) Close() error {
	fl.mu.Lock()
	defer fl.mu.Unlock()
	if fl.runLog == nil {
		return nil
	}
	fl.runLog.WriteString(fmt.Sprintf("\nFinished at: %s\n", time.Now().Format(time.RFC3339)))
	err := fl.runLog.Close()
	fl.runLog = nil
	return err
}
