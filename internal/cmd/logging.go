package cmd

import (
	"io"

	"github.com/harrison/pipetools/internal/logger"
)

// newLogger builds a console logger, plus a file logger when logDir is set.
// The returned func closes the file logger.
func newLogger(w io.Writer, logDir, command, level string) (logger.Logger, func(), error) {
	console := logger.NewConsoleLogger(w, level)
	if logDir == "" {
		return console, func() {}, nil
	}

	fileLog, err := logger.NewFileLogger(logDir, command, level)
	if err != nil {
		return nil, nil, err
	}
	return logger.NewMultiLogger(console, fileLog), func() { fileLog.Close() }, nil
}
