package schemachain

import (
	"log"
	"os"
)

// Logger is the logging interface used by a [Provider]. Output is only produced when the provider
// is verbose.
type Logger interface {
	Fatalf(format string, v ...any)
	Printf(format string, v ...any)
}

// stdLogger writes to stderr with the standard date and time prefix.
type stdLogger struct {
	l *log.Logger
}

func newStdLogger() *stdLogger {
	return &stdLogger{l: log.New(os.Stderr, "", log.LstdFlags)}
}

func (s *stdLogger) Fatalf(format string, v ...any) { s.l.Fatalf(format, v...) }
func (s *stdLogger) Printf(format string, v ...any) { s.l.Printf(format, v...) }

// NopLogger returns a logger that discards all logged output.
func NopLogger() Logger {
	return nopLogger{}
}

type nopLogger struct{}

func (nopLogger) Fatalf(string, ...any) {}
func (nopLogger) Printf(string, ...any) {}
