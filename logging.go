package main

import (
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"
)

// newLogger builds the process logger. Output must never be the protocol
// stream; main passes stderr.
func newLogger(cfg *Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler).With("session", uuid.NewString())
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func componentLogger(logger *slog.Logger, component string) *slog.Logger {
	return logger.With("component", component)
}
