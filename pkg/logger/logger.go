// Package logger holds the process-wide structured logger shared by the API,
// the background worker and the gorm adapter.
package logger

import (
	"log/slog"
	"os"
)

// Log is the shared logger. Setup must run before anything logs.
var Log *slog.Logger

// Setup configures the shared logger for the given environment: JSON output
// at info level in production, human-readable text at debug level otherwise.
func Setup(env string) {
	var handler slog.Handler
	switch env {
	case "production":
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	default:
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	}

	Log = slog.New(handler)
	slog.SetDefault(Log)
}

func Debug(msg string, args ...any) {
	Log.Debug(msg, args...)
}

func Info(msg string, args ...any) {
	Log.Info(msg, args...)
}

func Warn(msg string, args ...any) {
	Log.Warn(msg, args...)
}

func Error(msg string, args ...any) {
	Log.Error(msg, args...)
}
