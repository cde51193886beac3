package creedmoor

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with creedmoor-specific helpers so operations
// log with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses a default text handler to stderr.
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
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// LogPut logs a put operation.
func (l *Logger) LogPut(ctx context.Context, size int64, evicted int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "put failed",
			"size", size,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "put completed",
			"size", size,
			"evicted", evicted,
		)
	}
}

// LogGet logs a get operation.
func (l *Logger) LogGet(ctx context.Context, hit bool, err error) {
	if err != nil {
		l.ErrorContext(ctx, "get failed",
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "get completed",
			"hit", hit,
		)
	}
}

// LogRemove logs a remove operation.
func (l *Logger) LogRemove(ctx context.Context, existed bool, err error) {
	if err != nil {
		l.ErrorContext(ctx, "remove failed",
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "remove completed",
			"existed", existed,
		)
	}
}

// LogEviction logs an eviction pass.
func (l *Logger) LogEviction(ctx context.Context, victims int, freed int64) {
	l.DebugContext(ctx, "eviction completed",
		"victims", victims,
		"freed_bytes", freed,
	)
}

// LogRecovery logs the startup recovery scan.
func (l *Logger) LogRecovery(ctx context.Context, entries, skipped int, bytes int64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "recovery failed",
			"entries", entries,
			"error", err,
		)
	} else if skipped > 0 {
		l.WarnContext(ctx, "recovery completed with skipped entries",
			"entries", entries,
			"skipped", skipped,
			"bytes", bytes,
		)
	} else {
		l.InfoContext(ctx, "recovery completed",
			"entries", entries,
			"bytes", bytes,
		)
	}
}
