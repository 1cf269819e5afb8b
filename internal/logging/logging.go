// Package logging wraps charmbracelet/log so every binary and package builds
// its logger the same way.
package logging

import (
	"os"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/postal-lookup/internal/config"
)

// New creates a prefixed logger writing to stderr. The level comes from
// LOG_LEVEL (debug, info, warn, error); unknown values fall back to info.
// LOG_CALLER=true adds the call site to every record.
func New(prefix string) *log.Logger {
	return log.NewWithOptions(os.Stderr, log.Options{
		Prefix:          prefix,
		ReportCaller:    config.GetEnvBool("LOG_CALLER", false),
		ReportTimestamp: true,
		Formatter:       log.TextFormatter,
		Level:           LevelFromEnv(),
	})
}

// LevelFromEnv resolves the configured log level.
func LevelFromEnv() log.Level {
	switch strings.ToLower(config.GetEnv("LOG_LEVEL", "info")) {
	case "debug":
		return log.DebugLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}
