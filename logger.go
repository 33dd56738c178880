package stomp

import "log/slog"

// Logger is the structured logger used by Conn and Server. *slog.Logger
// satisfies it.
type Logger interface {
	// Debug logs a debug-level message with optional key-value pairs.
	Debug(msg string, args ...any)
	// Info logs an info-level message with optional key-value pairs.
	Info(msg string, args ...any)
	// Warn logs a warning-level message with optional key-value pairs.
	Warn(msg string, args ...any)
	// Error logs an error-level message with optional key-value pairs.
	Error(msg string, args ...any)
}

// defaultLogger returns the default slog logger from the standard library.
func defaultLogger() Logger {
	return slog.Default()
}

// fieldLogger prepends a fixed set of key/value pairs to every entry.
type fieldLogger struct {
	base Logger
	args []any
}

func withFields(l Logger, args ...any) Logger {
	if fl, ok := l.(fieldLogger); ok {
		return fieldLogger{base: fl.base, args: append(fl.args[:len(fl.args):len(fl.args)], args...)}
	}
	return fieldLogger{base: l, args: args}
}

func (l fieldLogger) with(args []any) []any {
	return append(l.args[:len(l.args):len(l.args)], args...)
}

func (l fieldLogger) Debug(msg string, args ...any) { l.base.Debug(msg, l.with(args)...) }
func (l fieldLogger) Info(msg string, args ...any) { l.base.Info(msg, l.with(args)...) }
func (l fieldLogger) Warn(msg string, args ...any) { l.base.Warn(msg, l.with(args)...) }
func (l fieldLogger) Error(msg string, args ...any) { l.base.Error(msg, l.with(args)...) }
