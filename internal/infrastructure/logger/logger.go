// Package logger provides the structured logging used across the engine:
// one slog-backed Logger, tagged per package with a "component" field and,
// inside a tick, with the tick id that triggered the work.
package logger

import (
	"context"
	"log/slog"
	"os"

	"github.com/campaignflow/engine/internal/config"
)

// Logger wraps slog.Logger with the engine's own context propagation.
type Logger struct {
	slog *slog.Logger
}

// New builds a Logger from the process's logging configuration.
func New(cfg config.LoggingConfig) *Logger {
	level := parseLevel(cfg.Level)
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return &Logger{slog: slog.New(handler)}
}

// Named returns a child logger tagged with a "component" field, the
// convention every application-layer package (clock, ratelimit, engine,
// orchestrator, trigger, ...) uses to identify its own log lines.
func (l *Logger) Named(component string) *Logger {
	return l.With("component", component)
}

// With returns a child logger carrying the given key/value attributes on
// every subsequent line.
func (l *Logger) With(args ...interface{}) *Logger {
	return &Logger{slog: l.slog.With(args...)}
}

type tickIDKey struct{}

// ContextWithTickID tags ctx with the id of the tick invocation currently in
// flight, so every log line emitted while handling that tick — across
// orchestrator and engine calls several stack frames deep — carries the
// same correlation id.
func ContextWithTickID(ctx context.Context, tickID string) context.Context {
	return context.WithValue(ctx, tickIDKey{}, tickID)
}

// WithContext returns a child logger carrying the tick id from ctx, if any
// was attached via ContextWithTickID.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	tickID, ok := ctx.Value(tickIDKey{}).(string)
	if !ok || tickID == "" {
		return l
	}
	return l.With("tick_id", tickID)
}

// Debug logs at debug level.
func (l *Logger) Debug(msg string, args ...interface{}) { l.slog.Debug(msg, args...) }

// Info logs at info level.
func (l *Logger) Info(msg string, args ...interface{}) { l.slog.Info(msg, args...) }

// Warn logs at warn level.
func (l *Logger) Warn(msg string, args ...interface{}) { l.slog.Warn(msg, args...) }

// Error logs at error level.
func (l *Logger) Error(msg string, args ...interface{}) { l.slog.Error(msg, args...) }

// DebugContext logs at debug level, attaching the tick id carried by ctx.
func (l *Logger) DebugContext(ctx context.Context, msg string, args ...interface{}) {
	l.WithContext(ctx).slog.DebugContext(ctx, msg, args...)
}

// InfoContext logs at info level, attaching the tick id carried by ctx.
func (l *Logger) InfoContext(ctx context.Context, msg string, args ...interface{}) {
	l.WithContext(ctx).slog.InfoContext(ctx, msg, args...)
}

// WarnContext logs at warn level, attaching the tick id carried by ctx.
func (l *Logger) WarnContext(ctx context.Context, msg string, args ...interface{}) {
	l.WithContext(ctx).slog.WarnContext(ctx, msg, args...)
}

// ErrorContext logs at error level, attaching the tick id carried by ctx.
func (l *Logger) ErrorContext(ctx context.Context, msg string, args ...interface{}) {
	l.WithContext(ctx).slog.ErrorContext(ctx, msg, args...)
}

// parseLevel maps a configured level name to its slog.Level, defaulting to
// info for anything unrecognized.
func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

var process *Logger

func init() {
	process = New(config.LoggingConfig{Level: "info", Format: "json"})
}

// Default returns the process-wide logger used before a configured one is
// installed (package init, early startup).
func Default() *Logger { return process }

// SetDefault installs l as the process-wide logger.
func SetDefault(l *Logger) { process = l }

// Debug logs at debug level on the process-wide logger.
func Debug(msg string, args ...interface{}) { process.Debug(msg, args...) }

// Info logs at info level on the process-wide logger.
func Info(msg string, args ...interface{}) { process.Info(msg, args...) }

// Warn logs at warn level on the process-wide logger.
func Warn(msg string, args ...interface{}) { process.Warn(msg, args...) }

// Error logs at error level on the process-wide logger.
func Error(msg string, args ...interface{}) { process.Error(msg, args...) }
