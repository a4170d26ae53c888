package cascade

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/hupe1980/cascade/model"
)

// Logger wraps slog.Logger with matching-specific context.
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
func NewJSONLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return NewLogger(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	}))
}

// WithJob adds a job id field to the logger.
func (l *Logger) WithJob(id string) *Logger {
	return &Logger{
		Logger: l.Logger.With("job", id),
	}
}

// WithPair adds the image pair to the logger.
func (l *Logger) WithPair(p model.Pair) *Logger {
	return &Logger{
		Logger: l.Logger.With("i", p.I, "j", p.J),
	}
}

// LogJobStart logs the start of a matching job.
func (l *Logger) LogJobStart(ctx context.Context, images, pairs, workers int) {
	l.InfoContext(ctx, "matching started",
		"images", images,
		"pairs", pairs,
		"workers", workers,
	)
}

// LogIndexBuild logs the construction of one image's hash index.
func (l *Logger) LogIndexBuild(ctx context.Context, id model.ImageID, descriptors int, bytes int64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "index build failed",
			"image", id,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "index built",
		"image", id,
		"descriptors", descriptors,
		"bytes", bytes,
	)
}

// LogPairSkipped logs a pair that was not matched.
func (l *Logger) LogPairSkipped(ctx context.Context, p model.Pair, reason SkipReason) {
	l.WarnContext(ctx, "pair skipped",
		"i", p.I,
		"j", p.J,
		"reason", reason.String(),
	)
}

// LogJobDone logs the end of a matching job.
func (l *Logger) LogJobDone(ctx context.Context, matched, correspondences int, elapsed time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "matching failed",
			"matched_pairs", matched,
			"elapsed", elapsed,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "matching completed",
		"matched_pairs", matched,
		"correspondences", correspondences,
		"elapsed", elapsed,
	)
}
