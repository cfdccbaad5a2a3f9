// Package logger defines the structured logging contract used throughout the
// module, with a zerolog-backed default implementation.
package logger

import "time"

// Logger is the contract the engine and the connection providers log through.
type Logger interface {
	Info() LogEvent
	Error() LogEvent
	Debug() LogEvent
	Warn() LogEvent
	WithFields(fields map[string]any) Logger
}

// LogEvent is a structured log event under construction. Msg or Msgf sends it.
type LogEvent interface {
	Msg(msg string)
	Msgf(format string, args ...any)
	Err(err error) LogEvent
	Str(key, value string) LogEvent
	Int(key string, value int) LogEvent
	Dur(key string, d time.Duration) LogEvent
	Interface(key string, i any) LogEvent
}
