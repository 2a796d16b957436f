// Package logging configures the global zerolog logger.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Setup sends human-readable logs to w at the given level.
// An unknown level falls back to info.
func Setup(level string, w io.Writer) {
	zerolog.SetGlobalLevel(parseLevel(level))
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}).
		With().Timestamp().Logger()
}

// SetupFile sends JSON logs to a rotating file, keeping the terminal free for the chat.
// The returned closer flushes and closes the file.
func SetupFile(level, path string) io.Closer {
	rotator := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     14, // days
		Compress:   true,
	}
	zerolog.SetGlobalLevel(parseLevel(level))
	log.Logger = zerolog.New(rotator).With().Timestamp().Logger()
	return rotator
}

// Stderr is Setup on os.Stderr.
func Stderr(level string) {
	Setup(level, os.Stderr)
}

func parseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		return zerolog.InfoLevel
	}
	return lvl
}
