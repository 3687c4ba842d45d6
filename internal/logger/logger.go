// Package logger holds the process-wide zerolog logger and the helpers that
// keep user identifiers and free text out of log lines.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Log is the process-wide logger. It writes human-readable lines to stdout
// until SetJSON is called.
var Log = New(os.Stdout, false)

func init() {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
}

// New builds a timestamped logger writing to w, as JSON or console text.
func New(w io.Writer, json bool) zerolog.Logger {
	if !json {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).With().Timestamp().Caller().Logger()
}

// SetJSON switches Log to JSON lines on stdout.
func SetJSON() {
	Log = New(os.Stdout, true)
}

// SetLevel applies a LOG_LEVEL value. Blank, unknown and disabling levels
// fall back to info.
func SetLevel(level string) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel || lvl == zerolog.Disabled {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}
