package logger

import "github.com/harrison/pipetools/internal/dispatch"

// Logger is the full leveled logging surface shared by ConsoleLogger and FileLogger.
type Logger interface {
	dispatch.Logger
	LogTrace(message string)
	LogDebug(message string)
	LogInfo(message string)
	LogWarn(message string)
	LogError(message string)
}

// MultiLogger forwards every call to each wrapped logger.
type MultiLogger struct {
	loggers []Logger
}

// NewMultiLogger creates a MultiLogger. nil entries are skipped.
func NewMultiLogger(loggers ...Logger) *MultiLogger {
	m := &MultiLogger{}
	for _, l := range loggers {
		if l != nil {
			m.loggers = append(m.loggers, l)
		}
	}
	return m
}

// LogTrace forwards to all loggers
func (m *MultiLogger) LogTrace(message string) {
	for _, l := range m.loggers {
		l.LogTrace(message)
	}
}

// LogDebug forwards to all loggers
func (m *MultiLogger) LogDebug(message string) {
	for _, l := range m.loggers {
		l.LogDebug(message)
	}
}

// LogInfo forwards to all loggers
func (m *MultiLogger) LogInfo(message string) {
	for _, l := range m.loggers {
		l.LogInfo(message)
	}
}

// LogWarn forwards to all loggers
func (m *MultiLogger) LogWarn(message string) {
	for _, l := range m.loggers {
		l.LogWarn(message)
	}
}

// LogError forwards to all loggers
func (m *MultiLogger) LogError(message string) {
	for _, l := range m.loggers {
		l.LogError(message)
	}
}

// LogRunStart forwards to all loggers
func (m *MultiLogger) LogRunStart(runID string, items int, workers int) {
	for _, l := range m.loggers {
		l.LogRunStart(runID, items, workers)
	}
}

// LogTaskOutcome forwards to all loggers
func (m *MultiLogger) LogTaskOutcome(item string, outcome dispatch.Outcome, exitCode int) {
	for _, l := range m.loggers {
		l.LogTaskOutcome(item, outcome, exitCode)
	}
}

// LogDispatchError forwards to all loggers
func (m *MultiLogger) LogDispatchError(item string, err error) {
	for _, l := range m.loggers {
		l.LogDispatchError(item, err)
	}
}

// LogRunComplete forwards to all loggers
func (m *MultiLogger) LogRunComplete(runID string, result dispatch.RunResult) {
	for _, l := range m.loggers {
		l.LogRunComplete(runID, result)
	}
}
