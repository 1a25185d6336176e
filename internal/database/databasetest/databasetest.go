// Package databasetest provides a migrated in-memory database for tests.
package databasetest

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Murdock022X/BankingWebsite/internal/database"
	"github.com/Murdock022X/BankingWebsite/internal/models"
)

// Open returns a fresh sqlite database with every table migrated, bank
// settings of 26% / $5.00 savings and 0% / $0.00 checkings, and term 0.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sqlite handle: %v", err)
	}
	// every connection to :memory: is its own database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	settings := models.BankSettings{
		ID:           1,
		SavingsAPY:   decimal.RequireFromString("0.26"),
		SavingsMin:   decimal.RequireFromString("5.00"),
		CheckingsAPY: decimal.Zero,
		CheckingsMin: decimal.Zero,
	}
	if err := db.Create(&settings).Error; err != nil {
		t.Fatalf("seed settings: %v", err)
	}
	if err := db.Create(&models.CurrTerm{ID: 1, Term: 0}).Error; err != nil {
		t.Fatalf("seed term: %v", err)
	}
	return db
}

// Runner wraps db the way the services are wired in tests: default
// isolation, no retries.
func Runner(db *gorm.DB) *database.Runner {
	return database.NewRunner(db, nil, 0)
}
