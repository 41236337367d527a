// Package log configures the process-wide slog logger. Packages log through
// slog directly; only the entry points call Setup.
package log

import (
	"log/slog"
	"os"
	"strings"
)

type Config struct {
	// Level is one of "debug", "info", "warn", "error".
	Level string
	// JSON switches from the human-readable text handler to JSON output.
	JSON bool
	// Service is attached to every record.
	Service string
}

// FromEnv reads LOG_LEVEL and LOG_FORMAT.
func FromEnv(service string) Config {
	return Config{
		Level:   os.Getenv("LOG_LEVEL"),
		JSON:    strings.EqualFold(os.Getenv("LOG_FORMAT"), "json"),
		Service: service,
	}
}

// Setup installs the configured handler as the slog default.
func Setup(cfg Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}

	var handler slog.Handler
	if cfg.JSON {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)
	if cfg.Service != "" {
		logger = logger.With("service", cfg.Service)
	}
	slog.SetDefault(logger)
	return logger
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
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
