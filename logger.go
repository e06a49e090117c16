package kdpool

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with kdpool-specific context.
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
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithDimension adds a dimension field to the logger.
func (l *Logger) WithDimension(dim int) *Logger {
	return &Logger{
		Logger: l.Logger.With("dimension", dim),
	}
}

// WithCount adds a count field to the logger.
func (l *Logger) WithCount(count int) *Logger {
	return &Logger{
		Logger: l.Logger.With("count", count),
	}
}

// LogBuild logs a tree build.
func (l *Logger) LogBuild(ctx context.Context, size, dimension, height int, duration time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "build failed",
			"size", size,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "build completed",
			"size", size,
			"dimension", dimension,
			"height", height,
			"duration", duration,
		)
	}
}

// LogSearch logs a nearest-neighbor search.
func (l *Logger) LogSearch(ctx context.Context, found bool, err error) {
	if err != nil {
		l.ErrorContext(ctx, "search failed",
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "search completed",
			"found", found,
		)
	}
}

// LogBatchSearch logs a batch nearest-neighbor search.
func (l *Logger) LogBatchSearch(ctx context.Context, count, completed int, err error) {
	l = l.WithCount(count)
	if err != nil {
		l.WarnContext(ctx, "batch search aborted",
			"completed", completed,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "batch search completed")
	}
}

// LogSplit logs a hyperplane split.
func (l *Logger) LogSplit(ctx context.Context, above, below int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "split failed",
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "split completed",
			"above", above,
			"below", below,
		)
	}
}

// LogClip logs a convex polytope clip.
func (l *Logger) LogClip(ctx context.Context, planes, inside, outside int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "clip failed",
			"planes", planes,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "clip completed",
			"planes", planes,
			"inside", inside,
			"outside", outside,
		)
	}
}

// LogInvalidate logs an invalidation.
func (l *Logger) LogInvalidate(ctx context.Context, requested, changed int) {
	l.DebugContext(ctx, "invalidate completed",
		"requested", requested,
		"changed", changed,
	)
}
