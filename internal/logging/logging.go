// Package logging wires slog to the CLI's -v/-q/--log-format flags.
package logging

import (
	"io"
	"log/slog"
	"testing"
)

// Format selects the handler encoding.
type Format string

const (
	// FormatText is the human-readable default.
	FormatText Format = "text"
	// FormatJSON is for machine consumption.
	FormatJSON Format = "json"
)

// traceLevel sits below slog.LevelDebug for -vv output.
const traceLevel = slog.Level(-8)

// FromFlags builds the process logger from the global CLI flags: quiet
// discards everything, one -v enables debug, two or more enable trace.
// A nil output is rejected by the handlers, so callers pass stderr.
func FromFlags(verbosity int, quiet bool, format Format, output io.Writer) *slog.Logger {
	if quiet {
		return NewDiscard()
	}

	level := slog.LevelInfo
	switch {
	case verbosity == 1:
		level = slog.LevelDebug
	case verbosity >= 2:
		level = traceLevel
	}

	opts := &slog.HandlerOptions{Level: level}
	if format == FormatJSON {
		return slog.New(slog.NewJSONHandler(output, opts))
	}
	return slog.New(slog.NewTextHandler(output, opts))
}

// NewDiscard returns a logger that drops every record.
func NewDiscard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testWriter routes handler output through t.Log so records show up
// attached to the failing test.
type testWriter struct {
	t *testing.T
}

func (w *testWriter) Write(p []byte) (int, error) {
	w.t.Helper()
	msg := string(p)
	if len(msg) > 0 && msg[len(msg)-1] == '\n' {
		msg = msg[:len(msg)-1]
	}
	w.t.Log(msg)
	return len(p), nil
}

// ForTest returns a debug-level text logger bound to the test's output.
func ForTest(t *testing.T) *slog.Logger {
	t.Helper()
	return slog.New(slog.NewTextHandler(&testWriter{t: t},
		&slog.HandlerOptions{Level: slog.LevelDebug}))
}
