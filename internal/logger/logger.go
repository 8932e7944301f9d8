package logger

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// New returns the process logger. Output is JSON on stderr with a "severity"
// level field for Cloud Logging, or a console writer when ENV=development.
func New() zerolog.Logger {
	return NewWithWriter(os.Stderr, os.Getenv("ENV") == "development", os.Getenv("LOG_LEVEL"))
}

// NewWithWriter builds a logger writing to w. An unknown level falls back to info.
func NewWithWriter(w io.Writer, console bool, level string) zerolog.Logger {
	zerolog.LevelFieldName = "severity"
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	if console {
		w = zerolog.ConsoleWriter{Out: w}
	}
	logger := zerolog.New(w).With().Timestamp().Logger()

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	return logger.Level(lvl)
}
