package database

import (
	"fmt"
	"time"

	"facerate-go/internal/config"
	logging "facerate-go/internal/logging"
	"facerate-go/internal/models"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DSN builds the Postgres connection string from the database config.
func DSN(dbConf config.DatabaseConfig) string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		dbConf.Host, dbConf.User, dbConf.Password, dbConf.DBName, dbConf.Port, dbConf.SSLMode)
}

// Init opens the database and runs migrations.
func Init(log *zap.Logger, dbConf config.DatabaseConfig) (*gorm.DB, error) {
	// Create our custom GORM logger
	gormLogger := logging.NewGormZapLogger(log)
	gormLogger.LogLevel = logger.Warn

	db, err := gorm.Open(postgres.Open(DSN(dbConf)), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(time.Hour)

	log.Info("Database connection established successfully.")
	if err := runMigrations(log, db); err != nil {
		return nil, err
	}
	return db, nil
}

func runMigrations(log *zap.Logger, db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Participant{},
		&models.TrialResult{},
		&models.SessionPayload{},
	)
	if err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}
	log.Info("Database migrations completed successfully.")

	streamIndex := `CREATE INDEX IF NOT EXISTS idx_responses_stream_labels ON responses_stream (height_label, attract_label);`
	if err := db.Exec(streamIndex).Error; err != nil {
		return fmt.Errorf("failed to create index on responses_stream: %w", err)
	}
	log.Info("Custom indexes ensured successfully.")
	return nil
}
