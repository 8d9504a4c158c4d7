// Package logging defines a minimal structured logger interface and a
// log/slog implementation of it.
package logging

import "context"

// Logger is the logging contract used across the server. Implementations
// must be safe for concurrent use.
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)
	With(args ...any) Logger
}
