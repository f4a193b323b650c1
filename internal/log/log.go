// Package log provides context-aware logging for doccache.
//
// Plain output (Printf, Println) goes straight to the writer unless quiet.
// Leveled messages (Debug, Warn) are structured key/value lines rendered by
// logrus: Debug only appears in verbose mode, Warn unless quiet.
package log

import (
	"context"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
)

type ctxKey struct{}

// Logger provides output and leveled diagnostic logging.
type Logger struct {
	out     io.Writer
	verbose bool
	quiet   bool
	entry   *logrus.Logger
}

// New creates a new logger. quiet suppresses everything, including verbose
// output.
func New(out io.Writer, verbose, quiet bool) *Logger {
	l := logrus.New()
	l.SetOutput(out)
	l.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp:       true,
		DisableLevelTruncation: true,
		DisableColors:          true,
	})

	switch {
	case quiet:
		l.SetLevel(logrus.PanicLevel)
	case verbose:
		l.SetLevel(logrus.DebugLevel)
	default:
		l.SetLevel(logrus.WarnLevel)
	}

	return &Logger{out: out, verbose: verbose, quiet: quiet, entry: l}
}

// Discard returns a logger that writes nothing.
func Discard() *Logger {
	return New(io.Discard, false, true)
}

// WithLogger attaches a logger to the context.
func WithLogger(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext retrieves the logger from context.
// Returns a no-op logger if none is attached.
func FromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(ctxKey{}).(*Logger); ok {
		return l
	}
	return Discard()
}

// Printf writes formatted output.
func (l *Logger) Printf(format string, args ...any) {
	if l.quiet {
		return
	}
	fmt.Fprintf(l.out, format, args...)
}

// Println writes a line of output.
func (l *Logger) Println(args ...any) {
	if l.quiet {
		return
	}
	fmt.Fprintln(l.out, args...)
}

// Debug logs msg with alternating key/value pairs in verbose mode.
// A trailing key without a value is dropped.
func (l *Logger) Debug(msg string, keyvals ...any) {
	l.entry.WithFields(fields(keyvals)).Debug(msg)
}

// Warn logs msg with alternating key/value pairs unless quiet.
func (l *Logger) Warn(msg string, keyvals ...any) {
	l.entry.WithFields(fields(keyvals)).Warn(msg)
}

// IsVerbose returns true if verbose output will be written.
func (l *Logger) IsVerbose() bool {
	return l.verbose && !l.quiet
}

// Writer returns the underlying writer.
func (l *Logger) Writer() io.Writer {
	return l.out
}

func fields(keyvals []any) logrus.Fields {
	f := make(logrus.Fields, len(keyvals)/2)
	for i := 0; i+1 < len(keyvals); i += 2 {
		f[fmt.Sprint(keyvals[i])] = keyvals[i+1]
	}
	return f
}
