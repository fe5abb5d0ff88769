// Package log provides the small leveled logger used throughout the
// gomodbus stack. It is a direct generalization of the teacher's
// LeveledLogger/logger pair: a prefix-tagged sink over stdout/stderr, no
// third-party logging dependency.
package log

import (
	"fmt"
	"os"
)

// Logger is the leveled logging interface accepted by every package's
// configuration. Callers may supply their own implementation to route
// messages into a larger application's logging pipeline.
type Logger interface {
	Info(msg string)
	Infof(format string, args ...interface{})
	Warning(msg string)
	Warningf(format string, args ...interface{})
	Error(msg string)
	Errorf(format string, args ...interface{})
}

var _ Logger = (*stdLogger)(nil)

type stdLogger struct {
	prefix string
}

// New returns the default Logger implementation, tagging every line with
// prefix and writing to stdout.
func New(prefix string) Logger {
	return &stdLogger{prefix: prefix}
}

func (l *stdLogger) Info(msg string) {
	l.write(fmt.Sprintf("%s [info]: %s\n", l.prefix, msg))
}

func (l *stdLogger) Infof(format string, args ...interface{}) {
	l.write(fmt.Sprintf("%s [info]: %s\n", l.prefix, fmt.Sprintf(format, args...)))
}

func (l *stdLogger) Warning(msg string) {
	l.write(fmt.Sprintf("%s [warn]: %s\n", l.prefix, msg))
}

func (l *stdLogger) Warningf(format string, args ...interface{}) {
	l.write(fmt.Sprintf("%s [warn]: %s\n", l.prefix, fmt.Sprintf(format, args...)))
}

func (l *stdLogger) Error(msg string) {
	l.write(fmt.Sprintf("%s [error]: %s\n", l.prefix, msg))
}

func (l *stdLogger) Errorf(format string, args ...interface{}) {
	l.write(fmt.Sprintf("%s [error]: %s\n", l.prefix, fmt.Sprintf(format, args...)))
}

func (l *stdLogger) write(msg string) {
	os.Stdout.WriteString(msg)
}

// noopLogger discards everything; used as a safe zero value so callers
// never need a nil check before logging.
type noopLogger struct{}

func (noopLogger) Info(string)                       {}
func (noopLogger) Infof(string, ...interface{})      {}
func (noopLogger) Warning(string)                    {}
func (noopLogger) Warningf(string, ...interface{})   {}
func (noopLogger) Error(string)                      {}
func (noopLogger) Errorf(string, ...interface{})     {}

// Noop returns a Logger that discards every message.
func Noop() Logger {
	return noopLogger{}
}
