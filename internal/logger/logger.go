package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Options describes logger configuration supplied at creation time.
type Options struct {
	Level  string
	Pretty bool
	Writer io.Writer
}

// Logger wraps zerolog behind a small key-value API. A nil *Logger is a
// valid no-op logger.
type Logger struct {
	base zerolog.Logger
}

// New creates a configured Logger based on Options.
func New(opts Options) (*Logger, error) {
	writer := opts.Writer
	if writer == nil {
		writer = os.Stderr
	}

	level := zerolog.InfoLevel
	if opts.Level != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(opts.Level))
		if err != nil {
			return nil, err
		}
		level = parsed
	}

	var output io.Writer = writer
	if opts.Pretty {
		console := zerolog.NewConsoleWriter()
		console.Out = writer
		console.TimeFormat = time.RFC3339
		output = console
	}

	base := zerolog.New(output).Level(level).With().Timestamp().Logger()
	return &Logger{base: base}, nil
}

// With returns a derived logger that always writes the supplied field.
func (l *Logger) With(key string, value any) *Logger {
	if l == nil {
		return nil
	}
	derived := Logger{base: l.base.With().Interface(key, value).Logger()}
	return &derived
}

// Debug writes a debug entry with optional key-value pairs.
func (l *Logger) Debug(msg string, kv ...any) {
	if l == nil {
		return
	}
	withFields(l.base.Debug(), kv).Msg(msg)
}

// Info writes an informational entry with optional key-value pairs.
func (l *Logger) Info(msg string, kv ...any) {
	if l == nil {
		return
	}
	withFields(l.base.Info(), kv).Msg(msg)
}

// Warn writes a warning entry with optional key-value pairs.
func (l *Logger) Warn(msg string, kv ...any) {
	if l == nil {
		return
	}
	withFields(l.base.Warn(), kv).Msg(msg)
}

// Error writes an error entry including the supplied error context.
func (l *Logger) Error(err error, msg string, kv ...any) {
	if l == nil {
		return
	}
	event := l.base.Error()
	if err != nil {
		event = event.Err(err)
	}
	withFields(event, kv).Msg(msg)
}

// withFields applies alternating key-value pairs to the event. A trailing
// key without a value is recorded under "arg".
func withFields(event *zerolog.Event, kv []any) *zerolog.Event {
	for i := 0; i+1 < len(kv); i += 2 {
		event = event.Interface(fmt.Sprint(kv[i]), kv[i+1])
	}
	if len(kv)%2 == 1 {
		event = event.Interface("arg", kv[len(kv)-1])
	}
	return event
}
