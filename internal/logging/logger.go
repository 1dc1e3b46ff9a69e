// Package logging builds the structured logger shared by the API server and
// the CLI.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

type Config struct {
	// Level is one of debug, info, warn, error. Unknown values mean info.
	Level string
	// JSON selects the JSON handler instead of the text handler.
	JSON bool
	// Service is attached to every record when set.
	Service string
	// Output defaults to stderr.
	Output io.Writer
}

// ParseLevel maps a level name to slog.Level.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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

func New(cfg Config) *slog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}

	var handler slog.Handler
	if cfg.JSON {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}

	logger := slog.New(handler)
	if cfg.Service != "" {
		logger = logger.With("service", cfg.Service)
	}
	return logger
}
