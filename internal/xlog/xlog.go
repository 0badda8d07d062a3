// Package xlog provides the zerolog logger every package in this module
// writes through. Components take a zerolog.Logger parameter rather than
// importing this package directly, so tests can pass zerolog.Nop(); xlog
// only holds the construction logic for the demo program and callers that
// want console-friendly output.
package xlog

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New builds the library's default logger: pretty console output when attached
// to a terminal, compact JSON otherwise (container/log-aggregator friendly).
func New(level zerolog.Level) zerolog.Logger {
	var w io.Writer = os.Stderr
	if isTerminal(os.Stderr) {
		w = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
