package common

import (
	"io"
	"time"

	"github.com/rs/zerolog"
)

// LogLevels are the accepted values for the log level setting
var LogLevels = []string{"trace", "debug", "info", "warn", "error", "fatal", "panic", "disabled"}

// InitLogger builds a JSON logger writing to w.
// Level is parsed from the given string (e.g. "debug", "info", "warn", "error").
func InitLogger(level string, w io.Writer) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.DurationFieldUnit = time.Millisecond
	zerolog.DurationFieldInteger = true

	return zerolog.New(w).Level(parseLevel(level)).With().
		Timestamp().
		Str("service", "tubeseed").
		Logger()
}

// InitConsoleLogger builds a human-readable logger for interactive commands
func InitConsoleLogger(level string, w io.Writer) zerolog.Logger {
	console := zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	return zerolog.New(console).Level(parseLevel(level)).With().Timestamp().Logger()
}

func parseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		return zerolog.InfoLevel
	}
	return lvl
}
