package lakego

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/hupe1980/lakego/model"
)

// Logger wraps slog.Logger with lakego-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithTablet adds a tablet field to the logger.
func (l *Logger) WithTablet(id model.TabletID) *Logger {
	return &Logger{
		Logger: l.Logger.With("tablet", int64(id)),
	}
}

// WithVersion adds a metadata version field to the logger.
func (l *Logger) WithVersion(v model.Version) *Logger {
	return &Logger{
		Logger: l.Logger.With("version", int64(v)),
	}
}

// LogRecovery logs the outcome of a recovery run.
func (l *Logger) LogRecovery(ctx context.Context, tablet model.TabletID, version model.Version, took time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "recovery failed",
			"tablet", int64(tablet),
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "recovery completed",
			"tablet", int64(tablet),
			"version", int64(version),
			"duration", took,
		)
	}
}
