package utils

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"coursebox/backend/config"
	"coursebox/backend/models"
)

func InitDB(cfg *config.Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	if err := MigrateDB(db); err != nil {
		return nil, err
	}

	return db, nil
}

// MigrateDB runs auto-migration for every table the service owns. Shared
// with tests, which run it against an in-memory sqlite database.
func MigrateDB(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Enrollment{},
		&models.UserActivity{},
		&models.Cohort{},
		&models.Week{},
		&models.ContentUnit{},
		&models.CompletionRecord{},
		&models.WeekProgress{},
		&models.CoinLedgerEntry{},
		&models.UserCoinBalance{},
	)
}
