// Package log provides category-tagged structured logging for releng.
// It wraps log/slog with a fixed set of subsystem categories so log lines
// can be filtered per concern (db, version, search, ...) without each
// package carrying its own logger instance.
package log

import (
	"io"
	"log/slog"
	"os"
	"sync/atomic"
	"time"
)

// Category identifies the subsystem emitting a log line.
type Category string

const (
	CatDB        Category = "db"
	CatConfig    Category = "config"
	CatField     Category = "field"
	CatVersion   Category = "version"
	CatSearch    Category = "search"
	CatAttach    Category = "attach"
	CatTelemetry Category = "telemetry"
	CatCLI       Category = "cli"
)

// SlowThreshold is the advisory elapsed-time limit for a single operation.
// Operations exceeding it are logged at error level by Elapsed; they are
// never cancelled.
const SlowThreshold = 60 * time.Second

var logger atomic.Pointer[slog.Logger]

func init() {
	logger.Store(slog.New(slog.NewTextHandler(os.Stderr, nil)))
}

// Init replaces the package logger, writing to w at the given level.
func Init(w io.Writer, level slog.Level) {
	logger.Store(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}

// SetLogger replaces the package logger. Intended for tests.
func SetLogger(l *slog.Logger) {
	logger.Store(l)
}

func with(cat Category, args []any) (*slog.Logger, []any) {
	return logger.Load(), append([]any{"cat", string(cat)}, args...)
}

// Debug logs a debug message for the given category.
func Debug(cat Category, msg string, args ...any) {
	l, a := with(cat, args)
	l.Debug(msg, a...)
}

// Info logs an info message for the given category.
func Info(cat Category, msg string, args ...any) {
	l, a := with(cat, args)
	l.Info(msg, a...)
}

// Warn logs a warning for the given category.
func Warn(cat Category, msg string, args ...any) {
	l, a := with(cat, args)
	l.Warn(msg, a...)
}

// Error logs an error message for the given category.
func Error(cat Category, msg string, args ...any) {
	l, a := with(cat, args)
	l.Error(msg, a...)
}

// ErrorErr logs an error message together with the underlying error.
func ErrorErr(cat Category, msg string, err error, args ...any) {
	l, a := with(cat, append([]any{"err", err}, args...))
	l.Error(msg, a...)
}

// Elapsed logs how long an operation took. Operations slower than
// SlowThreshold are logged at error level as having exceeded the advisory
// timeout; everything else is logged at info level. This is observability
// only: callers are never interrupted.
func Elapsed(cat Category, op string, start time.Time, args ...any) {
	elapsed := time.Since(start)
	args = append(args, "elapsed", elapsed.Round(time.Millisecond))
	if elapsed > SlowThreshold {
		Error(cat, op+" exceeded advisory timeout", args...)
		return
	}
	Info(cat, op+" completed", args...)
}
