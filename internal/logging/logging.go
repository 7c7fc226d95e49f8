// Package logging provides the diagnostic logger for the tool server.
// All output goes to stderr; stdout belongs to the protocol stream and must
// never carry log lines.
package logging

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// EnvDebug enables debug-level logging when set to any non-empty value.
const EnvDebug = "DRIFTPRESS_DEBUG"

var (
	defaultLogger *log.Logger
	once          sync.Once
)

// Default returns the process-wide stderr logger, creating it on first use.
func Default() *log.Logger {
	once.Do(func() {
		defaultLogger = New(os.Stderr)
	})
	return defaultLogger
}

// New creates a logger writing to w. Used directly in tests to capture
// diagnostics.
func New(w io.Writer) *log.Logger {
	logger := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
		Prefix:          "presstool",
	})
	if os.Getenv(EnvDebug) != "" {
		logger.SetLevel(log.DebugLevel)
	} else {
		logger.SetLevel(log.InfoLevel)
	}
	return logger
}

// Package-level helpers for the common case.

func Info(msg string, keyvals ...any)  { Default().Info(msg, keyvals...) }
func Warn(msg string, keyvals ...any)  { Default().Warn(msg, keyvals...) }
func Error(msg string, keyvals ...any) { Default().Error(msg, keyvals...) }
func Debug(msg string, keyvals ...any) { Default().Debug(msg, keyvals...) }
