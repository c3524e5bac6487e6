// Package log provides structured JSON logging for clinbench built on
// log/slog, with a handler that surfaces cockroachdb/errors stack traces as a
// dedicated attribute.
package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

// Setup installs the default clinbench logger: JSON output on stderr at the
// given level, wrapped so that logged errors carry their stack trace.
func Setup(loglevel string) {
	SetupWriter(loglevel, os.Stderr)
}

// SetupWriter is Setup with an explicit destination, used by tests.
func SetupWriter(loglevel string, w io.Writer) {
	ops := slog.HandlerOptions{
		Level: ToLogLevel(loglevel),
	}
	handler := slog.NewJSONHandler(w, &ops)
	slog.SetDefault(slog.New(WrapByErrFmtHandler(handler)))
}

// ToLogLevel converts a level string to a slog.Level.
func ToLogLevel(level string) slog.Level {
	switch level {
	case "info":
		return slog.LevelInfo
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		panic(fmt.Sprintf("invalid log level :%s", level))
	}
}

const (
	ErrAttrKey        = "error"
	StacktraceAttrKey = "stacktrace"
)

// ErrAttr is a wrapper to pass err to slog.
func ErrAttr(err error) slog.Attr {
	return slog.Any(ErrAttrKey, err)
}
