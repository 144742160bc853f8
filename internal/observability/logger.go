package observability

import (
	"log/slog"
	"os"
)

// LoggerConfig is the subset of engine configuration the logger factory needs.
type LoggerConfig struct {
	LogLevel  string // "debug" | "info" | "warn" | "error"
	LogFormat string // "json" | "text"
}

// NewLogger builds a slog.Logger whose handler and level are selected by
// cfg, writing to stderr.
func NewLogger(cfg LoggerConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}

	var handler slog.Handler
	if cfg.LogFormat == "text" {
		handler = slog.NewTextHandler(os.Stderr, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}

func parseLevel(level string) slog.Level {
	switch level {
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
