// Package log configures structured logging for the ledger binaries.
package log

import (
	"log/slog"
	"os"
	"strings"
)

// FieldComponent tags every line with the emitting binary.
const FieldComponent = "component"

// Setup builds a text-handler logger tagged with the component name,
// installs it as the process default, and returns it. level accepts
// debug, info, warn, and error; anything else falls back to info.
func Setup(component, level string) *slog.Logger {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: ParseLevel(level),
	})
	logger := slog.New(handler).With(FieldComponent, component)
	slog.SetDefault(logger)
	return logger
}

// ParseLevel maps a level name to its slog level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
