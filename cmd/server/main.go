package main

import (
	"os"

	"admix-studio/internal/config"
	"admix-studio/internal/logging"

	"github.com/joho/godotenv"
)

func main() {
	envErr := godotenv.Load()

	cfg := config.Load()
	logger := logging.New(cfg.LogLevel, cfg.Environment)
	if envErr != nil {
		logger.Debug().Err(envErr).Msg("no .env file loaded")
	}

	if err := rootCommand(cfg, logger).Execute(); err != nil {
		logger.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}
