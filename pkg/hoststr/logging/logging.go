package logging

import (
	"context"
	"log/slog"

	"go.uber.org/zap"
)

const redactedPlaceholder = "[redacted]"

// Logger is the subset of slog functionality hoststr uses.
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)
	With(args ...any) Logger
}

// New returns a Logger backed by the provided slog.Logger. Passing nil binds to
// slog.Default().
func New(logger *slog.Logger) Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return &slogLogger{logger: logger}
}

// Discard returns a Logger that drops every record.
func Discard() Logger {
	return New(slog.New(slog.DiscardHandler))
}

type slogLogger struct {
	logger *slog.Logger
}

func (l *slogLogger) Debug(ctx context.Context, msg string, args ...any) {
	l.logger.DebugContext(ctx, msg, args...)
}

func (l *slogLogger) Info(ctx context.Context, msg string, args ...any) {
	l.logger.InfoContext(ctx, msg, args...)
}

func (l *slogLogger) Warn(ctx context.Context, msg string, args ...any) {
	l.logger.WarnContext(ctx, msg, args...)
}

func (l *slogLogger) Error(ctx context.Context, msg string, args ...any) {
	l.logger.ErrorContext(ctx, msg, args...)
}

func (l *slogLogger) With(args ...any) Logger {
	return &slogLogger{logger: l.logger.With(args...)}
}

// WithLevel returns a Logger that drops records below level before they
// reach l.
func WithLevel(l Logger, level slog.Level) Logger {
	if l == nil {
		return Discard()
	}
	return &levelLogger{next: l, level: level}
}

type levelLogger struct {
	next  Logger
	level slog.Level
}

func (l *levelLogger) Debug(ctx context.Context, msg string, args ...any) {
	if l.level <= slog.LevelDebug {
		l.next.Debug(ctx, msg, args...)
	}
}

func (l *levelLogger) Info(ctx context.Context, msg string, args ...any) {
	if l.level <= slog.LevelInfo {
		l.next.Info(ctx, msg, args...)
	}
}

func (l *levelLogger) Warn(ctx context.Context, msg string, args ...any) {
	if l.level <= slog.LevelWarn {
		l.next.Warn(ctx, msg, args...)
	}
}

func (l *levelLogger) Error(ctx context.Context, msg string, args ...any) {
	if l.level <= slog.LevelError {
		l.next.Error(ctx, msg, args...)
	}
}

func (l *levelLogger) With(args ...any) Logger {
	return &levelLogger{next: l.next.With(args...), level: l.level}
}

// NewZap returns a Logger backed by a zap logger. Arguments follow the slog
// convention: alternating keys and values, or slog.Attr values.
func NewZap(logger *zap.Logger) Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &zapLogger{s: logger.Sugar()}
}

type zapLogger struct {
	s *zap.SugaredLogger
}

func (l *zapLogger) Debug(_ context.Context, msg string, args ...any) {
	l.s.Debugw(msg, zapArgs(args)...)
}

func (l *zapLogger) Info(_ context.Context, msg string, args ...any) {
	l.s.Infow(msg, zapArgs(args)...)
}

func (l *zapLogger) Warn(_ context.Context, msg string, args ...any) {
	l.s.Warnw(msg, zapArgs(args)...)
}

func (l *zapLogger) Error(_ context.Context, msg string, args ...any) {
	l.s.Errorw(msg, zapArgs(args)...)
}

func (l *zapLogger) With(args ...any) Logger {
	return &zapLogger{s: l.s.With(zapArgs(args)...)}
}

// zapArgs rewrites slog.Attr arguments as zap fields.
func zapArgs(args []any) []any {
	out := make([]any, len(args))
	for i, a := range args {
		if attr, ok := a.(slog.Attr); ok {
			out[i] = zap.Any(attr.Key, attr.Value.Resolve().Any())
			continue
		}
		out[i] = a
	}
	return out
}

// Redacted marks an attribute whose value was deliberately left out.
func Redacted(key string) slog.Attr {
	return slog.String(key, redactedPlaceholder)
}

// Placeholder returns the canonical string that represents a redacted value.
func Placeholder() string {
	return redactedPlaceholder
}
