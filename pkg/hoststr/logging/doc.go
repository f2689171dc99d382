// Package logging provides the logging facade used by hoststr.
//
// Logger is a small, context-aware subset of log/slog:
//
//	type Logger interface {
//	    Debug(ctx context.Context, msg string, args ...any)
//	    Info(ctx context.Context, msg string, args ...any)
//	    Warn(ctx context.Context, msg string, args ...any)
//	    Error(ctx context.Context, msg string, args ...any)
//	    With(args ...any) Logger
//	}
//
// New binds a *slog.Logger (nil means slog.Default()), NewZap binds a
// *zap.Logger, and Discard drops everything.
//
// # Redaction
//
// Host strings come from argv and the environment and may carry secrets. The
// bridge never logs their contents, only their model and length, and marks
// the omission with Redacted:
//
//	logger.Debug(ctx, "convert", "model", "posix", "units", 12, logging.Redacted("value"))
//	// Logs: ... value="[redacted]"
package logging
