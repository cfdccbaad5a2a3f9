package logger

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// ZeroLogger wraps zerolog.Logger to implement the Logger interface.
type ZeroLogger struct {
	zlog *zerolog.Logger
}

var _ Logger = (*ZeroLogger)(nil)

// New creates a ZeroLogger at the given level. If pretty is true, output is
// formatted for human readability; otherwise it is JSON. An unknown level
// falls back to info.
func New(level string, pretty bool) *ZeroLogger {
	var l zerolog.Logger

	if pretty {
		l = zerolog.New(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}).With().Timestamp().Logger()
	} else {
		l = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}

	zLevel, err := zerolog.ParseLevel(level)
	if err != nil {
		zLevel = zerolog.InfoLevel
	}
	l = l.Level(zLevel)

	return &ZeroLogger{zlog: &l}
}

// FromZerolog wraps an existing zerolog.Logger, letting applications that
// already configured zerolog plug it in unchanged.
func FromZerolog(l zerolog.Logger) *ZeroLogger {
	return &ZeroLogger{zlog: &l}
}

// WithFields returns a logger with additional fields attached to all entries.
func (l *ZeroLogger) WithFields(fields map[string]any) Logger {
	log := l.zlog.With().Fields(fields).Logger()
	return &ZeroLogger{zlog: &log}
}

func (l *ZeroLogger) Info() LogEvent {
	return &LogEventAdapter{event: l.zlog.Info()}
}

func (l *ZeroLogger) Error() LogEvent {
	return &LogEventAdapter{event: l.zlog.Error()}
}

func (l *ZeroLogger) Debug() LogEvent {
	return &LogEventAdapter{event: l.zlog.Debug()}
}

func (l *ZeroLogger) Warn() LogEvent {
	return &LogEventAdapter{event: l.zlog.Warn()}
}
