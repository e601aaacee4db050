// Package logger provides the shared structured logging setup using slog.
// All services log JSON with a minimum level chosen at startup; subsystems
// get child loggers tagged with a component field.
package logger

import (
	"io"
	"log/slog"
	"os"
)

// Config holds the configuration for the logger.
type Config struct {
	// Output is the writer to send logs to (defaults to os.Stdout).
	Output io.Writer
	// Level is the minimum log level to output.
	Level slog.Level
	// AddSource adds source code position to log records.
	AddSource bool
}

// New creates a new JSON logger with the provided configuration. A nil
// config yields an info-level logger on stdout.
func New(cfg *Config) *slog.Logger {
	if cfg == nil {
		cfg = &Config{Level: slog.LevelInfo}
	}

	output := cfg.Output
	if output == nil {
		output = os.Stdout
	}

	handler := slog.NewJSONHandler(output, &slog.HandlerOptions{
		Level:     cfg.Level,
		AddSource: cfg.AddSource,
	})

	return slog.New(handler)
}

// ParseLevel converts a string to a slog.Level.
// Supported values: "debug", "info", "warn", "error".
// Returns slog.LevelInfo if the level string is not recognized.
func ParseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Component returns a child logger tagged with the subsystem name.
func Component(parent *slog.Logger, name string) *slog.Logger {
	return parent.With(slog.String("component", name))
}
