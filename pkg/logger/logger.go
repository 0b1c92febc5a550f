package logger

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New создаёт zerolog-логгер сервиса. Уровень задаётся LOG_LEVEL,
// в development по умолчанию debug.
func New(env, level string) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339
	l := zerolog.New(os.Stdout).With().Timestamp().Str("service", "helpdesk-service").Logger()
	if lvl, err := zerolog.ParseLevel(level); err == nil && level != "" {
		return l.Level(lvl)
	}
	if env == "development" {
		return l.Level(zerolog.DebugLevel)
	}
	return l.Level(zerolog.InfoLevel)
}
