package utils

import (
	"log/slog"
	"os"
	"strings"
)

// NewLogger returns a slog.Logger at the requested verbosity. Debug level
// also enables source annotation, which is cheap at telemetry cadence and
// invaluable when chasing a misbehaving detector.
func NewLogger(level string, json bool) *slog.Logger {
	handlerLevel := parseLevel(level)
	opts := &slog.HandlerOptions{
		Level:     handlerLevel,
		AddSource: handlerLevel == slog.LevelDebug,
	}

	var handler slog.Handler
	if json {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}

func parseLevel(level string) slog.Level {
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
