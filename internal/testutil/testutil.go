// Package testutil provides an in-memory database and logger for package tests
package testutil

import (
	"testing"
	"time"

	"open-factcheck/internal/logger"
	"open-factcheck/internal/models"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// DB opens a private in-memory sqlite database with the full schema.
// The pool is pinned to one connection so every query sees the same memory
// database and transactions serialise like row locks would.
func DB(tb testing.TB) *gorm.DB {
	tb.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:  gormlogger.Default.LogMode(gormlogger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		tb.Fatalf("Failed to connect to test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		tb.Fatalf("Failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	tb.Cleanup(func() { _ = sqlDB.Close() })

	if err := models.AutoMigrate(db); err != nil {
		tb.Fatalf("Failed to migrate test database: %v", err)
	}
	return db
}

func Logger(tb testing.TB) *logger.Logger {
	tb.Helper()
	log, err := logger.New("test")
	if err != nil {
		tb.Fatalf("failed to init logger: %v", err)
	}
	return log
}

// User inserts a user with the given role
func User(tb testing.TB, db *gorm.DB, username string, role models.Role) *models.User {
	tb.Helper()
	u := &models.User{
		ID:       uuid.New(),
		Username: username,
		Role:     role,
		IsActive: true,
	}
	if err := db.Create(u).Error; err != nil {
		tb.Fatalf("failed to create user %s: %v", username, err)
	}
	return u
}
