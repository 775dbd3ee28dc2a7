package database

import (
	"context"
	"fmt"

	"admix-studio/pkg/models"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type DB struct {
	*gorm.DB
}

func gormLogLevel(logLevel string) logger.LogLevel {
	switch logLevel {
	case "debug":
		return logger.Info
	case "warn":
		return logger.Warn
	case "error":
		return logger.Error
	default:
		return logger.Silent
	}
}

func Connect(ctx context.Context, databaseURL string, logLevel string) (*DB, error) {
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(gormLogLevel(logLevel)),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	zerolog.Ctx(ctx).Info().Msg("Database connection established")
	return &DB{db}, nil
}

// Migrate crée ou met à jour toutes les tables du service
func (db *DB) Migrate(ctx context.Context) error {
	log := zerolog.Ctx(ctx)
	log.Info().Msg("Running database migrations...")

	tables := []interface{}{
		&models.User{},
		&models.Script{},
		&models.ContentJob{},
		&models.SpeechJob{},
		&models.VoiceProfile{},
		&models.AudioSample{},
		&models.VideoJob{},
		&models.WorkflowRun{},
		&models.StepCheckpoint{},
	}
	for _, table := range tables {
		if err := db.WithContext(ctx).AutoMigrate(table); err != nil {
			return fmt.Errorf("failed to migrate %T: %w", table, err)
		}
	}

	log.Info().Int("tables", len(tables)).Msg("Database migrations completed")
	return nil
}

func (db *DB) Close() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
