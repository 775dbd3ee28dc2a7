package logging

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New construit le logger racine. En développement la sortie est lisible
// (console), sinon JSON sur stdout.
func New(level, environment string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	if environment == "development" && lvl > zerolog.DebugLevel {
		lvl = zerolog.DebugLevel
	}

	logger := zerolog.New(os.Stdout).Level(lvl).With().Timestamp().Logger()
	if environment == "development" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}
	return logger
}

// Context renvoie un contexte racine portant le logger, récupérable via zerolog.Ctx
func Context(parent context.Context, logger zerolog.Logger) context.Context {
	return logger.WithContext(parent)
}
