package logger

import (
	"log/slog"
	"os"
)

var defaultLogger *slog.Logger

// Init configures the process-wide logger. Production gets JSON at info
// level for log shipping; everything else gets text at debug level.
func Init(env string) {
	var handler slog.Handler

	if env == "production" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	}

	defaultLogger = slog.New(handler).With("service", "registry-api")
	slog.SetDefault(defaultLogger)
}

// LoggerWrapper returns the configured logger, lazily initializing a
// development logger so callers before Init never hit a nil pointer.
func LoggerWrapper() *slog.Logger {
	if defaultLogger == nil {
		Init("development")
	}
	return defaultLogger
}
