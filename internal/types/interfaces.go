package types

// Logger defines the structured logging interface used throughout the
// pipeline. Worker entrypoints adapt *slog.Logger to this interface.
type Logger interface {
	Info(msg string, args ...any)
	Error(msg string, args ...any)
	Warn(msg string, args ...any)
	With(args ...any) Logger
}
