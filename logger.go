package vecmem

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with vecmem-specific context.
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
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
			Level: slog.Level(1000), // Unreachable level
		})),
	}
}

// WithCollection adds a collection field to the logger.
func (l *Logger) WithCollection(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("collection", name),
	}
}

// LogUpsert logs a single upsert.
func (l *Logger) LogUpsert(ctx context.Context, key any, dimension int, err error) {
	if err != nil {
		l.DebugContext(ctx, "upsert failed",
			"key", key,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "upsert completed",
			"key", key,
			"dimension", dimension,
		)
	}
}

// LogBatchUpsert logs a batch upsert. applied may be less than count when the
// batch stopped early.
func (l *Logger) LogBatchUpsert(ctx context.Context, count, applied int, err error) {
	if err != nil {
		l.DebugContext(ctx, "batch upsert stopped",
			"total", count,
			"applied", applied,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "batch upsert completed",
			"count", count,
		)
	}
}

// LogSearch logs a search operation.
func (l *Logger) LogSearch(ctx context.Context, top, resultsFound int, err error) {
	if err != nil {
		l.DebugContext(ctx, "search failed",
			"top", top,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "search completed",
			"top", top,
			"results", resultsFound,
		)
	}
}

// LogDelete logs a delete operation.
func (l *Logger) LogDelete(ctx context.Context, removed int, err error) {
	if err != nil {
		l.DebugContext(ctx, "delete failed",
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "delete completed",
			"removed", removed,
		)
	}
}

// LogCollection logs a collection lifecycle event ("created", "deleted").
func (l *Logger) LogCollection(ctx context.Context, event, name string, err error) {
	if err != nil {
		l.DebugContext(ctx, "collection "+event+" failed",
			"collection", name,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "collection "+event,
			"collection", name,
		)
	}
}

// LogFindClosest logs a corpus-level ranking.
func (l *Logger) LogFindClosest(ctx context.Context, corpus, topK, resultsFound int, err error) {
	if err != nil {
		l.DebugContext(ctx, "find closest failed",
			"corpus", corpus,
			"top_k", topK,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "find closest completed",
			"corpus", corpus,
			"top_k", topK,
			"results", resultsFound,
		)
	}
}
