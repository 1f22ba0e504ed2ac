// Package logging provides structured logging with file output support.
// Diagnostics never share a stream with the instruction table.
package logging

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"objdump2itb/internal/config"
)

// LoggerCloser wraps a logger and provides a Close method for cleanup
type LoggerCloser struct {
	*log.Logger
	closer io.Closer
}

// Close closes the underlying writer if it's closeable
func (lc *LoggerCloser) Close() error {
	if lc.closer != nil {
		return lc.closer.Close()
	}
	return nil
}

// ParseLevel maps a config level name to a log level. Unknown names are info.
func ParseLevel(level string) log.Level {
	switch level {
	case "debug":
		return log.DebugLevel
	case "warn":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

// NewLoggerWithWriter creates a new logger with the provided writer
func NewLoggerWithWriter(w io.Writer, cfg config.Config) *LoggerCloser {
	lg := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
		Level:           ParseLevel(cfg.LogLevel),
	})

	var closer io.Closer
	if c, ok := w.(io.Closer); ok && w != os.Stderr {
		closer = c
	}

	return &LoggerCloser{
		Logger: lg.WithPrefix(cfg.LogPrefix),
		closer: closer,
	}
}

// NewLogger creates a logger writing to stderr, or to a timestamped file
// when cfg.LogToFile is set.
func NewLogger(cfg config.Config) *LoggerCloser {
	output := io.Writer(os.Stderr)

	if cfg.LogToFile {
		timestamp := time.Now().Format("20060102-150405")
		logFile := fmt.Sprintf("objdump2itb-%s-debug.log", timestamp)

		f, err := os.OpenFile(logFile, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
		if err == nil {
			output = f
		}
		// If file creation fails, fall back to stderr
	}

	return NewLoggerWithWriter(output, cfg)
}
