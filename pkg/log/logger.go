// Package log provides structured logging for diagbench on top of zerolog.
//
// The package exposes a minimal Logger interface so calling code is not
// coupled to a concrete backend, plus standard dotted attribute keys for
// machine learning operations (see attributes.go). Errors constructed by
// pkg/errors carry cockroachdb stack traces; Error extracts them into a
// dedicated stacktrace field.
package log

import (
	"context"
	"io"
	"os"
	"sync"

	cockroacherrors "github.com/cockroachdb/errors"
	"github.com/rs/zerolog"

	"github.com/hmizuno-lab/diagbench/pkg/errors"
)

// Logger is a structured logger with leveled output and field chaining.
type Logger interface {
	Debug(msg string, fields ...any)
	Info(msg string, fields ...any)
	Warn(msg string, fields ...any)
	Error(msg string, fields ...any)

	// With returns a new Logger with the given key-value pairs attached to
	// every subsequent message.
	With(fields ...any) Logger

	// Enabled reports whether the logger emits records at the given level.
	Enabled(ctx context.Context, level zerolog.Level) bool
}

var (
	mu     sync.RWMutex
	root   = newZerologLogger(os.Stderr, zerolog.InfoLevel)
	warned sync.Once
)

// GetLogger returns the package default logger.
func GetLogger() Logger {
	mu.RLock()
	defer mu.RUnlock()
	installWarnSink()
	return root
}

// GetLoggerWithName returns a logger tagged with a component name.
func GetLoggerWithName(name string) Logger {
	return GetLogger().With(ComponentKey, name)
}

// SetOutput redirects all loggers created afterwards to w. Passing nil
// restores the default destination. Mainly for tests.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	if w == nil {
		w = os.Stderr
	}
	root = newZerologLogger(w, root.zl.GetLevel())
}

// SetLevel sets the minimum level emitted by the default logger.
func SetLevel(level zerolog.Level) {
	mu.Lock()
	defer mu.Unlock()
	root = &zerologLogger{zl: root.zl.Level(level)}
}

// ParseLevel maps a config string to a zerolog level, defaulting to info.
func ParseLevel(s string) zerolog.Level {
	switch s {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// installWarnSink routes pkg/errors warnings through zerolog exactly once.
func installWarnSink() {
	warned.Do(func() {
		errors.SetZerologWarnFunc(func(w error) {
			root.Warn(w.Error(), ErrorTypeKey, typeName(w))
		})
	})
}

func typeName(err error) string {
	type zerologObject interface{ MarshalZerologObject(*zerolog.Event) }
	if _, ok := err.(zerologObject); ok {
		return "structured"
	}
	return "plain"
}

type zerologLogger struct {
	zl zerolog.Logger
}

func newZerologLogger(w io.Writer, level zerolog.Level) *zerologLogger {
	zl := zerolog.New(w).Level(level).With().Timestamp().Logger()
	return &zerologLogger{zl: zl}
}

func (l *zerologLogger) Debug(msg string, fields ...any) {
	l.emit(l.zl.Debug(), msg, fields)
}

func (l *zerologLogger) Info(msg string, fields ...any) {
	l.emit(l.zl.Info(), msg, fields)
}

func (l *zerologLogger) Warn(msg string, fields ...any) {
	l.emit(l.zl.Warn(), msg, fields)
}

func (l *zerologLogger) Error(msg string, fields ...any) {
	event := l.zl.Error()
	// An error passed as the leading field gets special treatment: the
	// message chain and the cockroachdb stack trace become attributes.
	if len(fields) > 0 {
		if err, ok := fields[0].(error); ok {
			event = event.Err(err)
			if trace := extractStacktrace(err); trace != "" {
				event = event.Str(StacktraceKey, trace)
			}
			fields = fields[1:]
		}
	}
	l.emit(event, msg, fields)
}

func (l *zerologLogger) With(fields ...any) Logger {
	ctx := l.zl.With()
	for i := 0; i+1 < len(fields); i += 2 {
		key, ok := fields[i].(string)
		if !ok {
			continue
		}
		ctx = ctx.Interface(key, fields[i+1])
	}
	return &zerologLogger{zl: ctx.Logger()}
}

func (l *zerologLogger) Enabled(_ context.Context, level zerolog.Level) bool {
	return level >= l.zl.GetLevel()
}

func (l *zerologLogger) emit(event *zerolog.Event, msg string, fields []any) {
	for i := 0; i+1 < len(fields); i += 2 {
		key, ok := fields[i].(string)
		if !ok {
			continue
		}
		switch v := fields[i+1].(type) {
		case string:
			event = event.Str(key, v)
		case int:
			event = event.Int(key, v)
		case int64:
			event = event.Int64(key, v)
		case float64:
			event = event.Float64(key, v)
		case bool:
			event = event.Bool(key, v)
		case error:
			event = event.AnErr(key, v)
		default:
			event = event.Interface(key, v)
		}
	}
	event.Msg(msg)
}

// extractStacktrace pulls the first safe detail payload (the stack trace)
// out of a cockroachdb error chain.
func extractStacktrace(err error) string {
	safeDetails := cockroacherrors.GetSafeDetails(err).SafeDetails
	if len(safeDetails) > 0 {
		return safeDetails[0]
	}
	return ""
}
