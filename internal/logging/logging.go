// Package logging builds the zerolog loggers handed to each component at
// construction time. Components never reach for a process-global logger;
// they receive a child logger tagged with their component name, which keeps
// parallel tests and embedded use free of cross-talk.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Setup builds the root logger writing human-readable output to w at the
// given level. Unknown levels fall back to warn so a mistyped --log-level
// never silences errors.
func Setup(w io.Writer, level string) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	lvl := parseLevel(level)
	console := zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	return zerolog.New(console).Level(lvl).With().Timestamp().Logger()
}

// Component returns a child of root tagged with the given component name.
func Component(root zerolog.Logger, name string) zerolog.Logger {
	return root.With().Str("component", name).Logger()
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.WarnLevel
	}
}
