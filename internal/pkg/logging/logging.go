package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Output is where Setup writes records. Logs go to stderr so that CLI
// results on stdout stay machine-readable.
var Output io.Writer = os.Stderr

// ParseLevel maps "debug", "info", "warn" and "error" to slog levels,
// case-insensitively. Anything else is info.
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

// LevelFromEnv returns LOG_LEVEL, or fallback when it is unset.
func LevelFromEnv(fallback string) string {
	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		return lvl
	}
	return fallback
}

// Setup initialises the global slog default logger for one gateflow binary.
// format may be "json" or "text" (default "json"). Every record carries the
// service name.
func Setup(service, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}

	var handler slog.Handler
	if strings.ToLower(format) == "text" {
		handler = slog.NewTextHandler(Output, opts)
	} else {
		handler = slog.NewJSONHandler(Output, opts)
	}

	logger := slog.New(handler)
	if service != "" {
		logger = logger.With("service", service)
	}
	slog.SetDefault(logger)
	return logger
}
