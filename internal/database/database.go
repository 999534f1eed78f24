package database

import (
	"fmt"

	"open-factcheck/internal/config"
	"open-factcheck/internal/logger"
	"open-factcheck/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Connect establishes a connection to the PostgreSQL database
func Connect(cfg config.DatabaseConfig, log *logger.Logger) (*gorm.DB, error) {
	level := gormlogger.Warn
	if cfg.LogSQL {
		level = gormlogger.Info
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	log.Info("Connected to database", "host", cfg.Host, "db", cfg.DBName)
	return db, nil
}

// Migrate runs database migrations
func Migrate(db *gorm.DB, log *logger.Logger) error {
	if db == nil {
		return fmt.Errorf("database connection not established")
	}

	if err := models.AutoMigrate(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Info("Database migrations completed")
	return nil
}

// Close closes the underlying connection pool
func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}

	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}
