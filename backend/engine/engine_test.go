package engine

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"coursebox/backend/logger"
	"coursebox/backend/models"
	"coursebox/backend/utils"
)

func newTestEngine(t *testing.T) (*Engine, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	// A single connection keeps every query on the same in-memory database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, utils.MigrateDB(db))

	return New(db, logger.NewNop()), db
}

func seedCohort(t *testing.T, db *gorm.DB) models.Cohort {
	t.Helper()
	cohort := models.Cohort{Name: "Backend Bootcamp"}
	require.NoError(t, db.Create(&cohort).Error)
	return cohort
}

func seedWeek(t *testing.T, db *gorm.DB, cohortID uint, number int, isFree bool, policy models.LockPolicy) models.Week {
	t.Helper()
	week := models.Week{
		CohortID:   cohortID,
		Number:     number,
		Title:      "Week",
		IsFree:     isFree,
		LockPolicy: policy,
	}
	require.NoError(t, db.Create(&week).Error)
	return week
}

func seedUnit(t *testing.T, db *gorm.DB, weekID uint, minTime int, reward int64, optional bool) models.ContentUnit {
	t.Helper()
	unit := models.ContentUnit{
		WeekID:                 weekID,
		Kind:                   models.UnitTopic,
		Title:                  "Topic",
		IsOptional:             optional,
		MinTimeRequiredSeconds: minTime,
		CoinReward:             reward,
	}
	require.NoError(t, db.Create(&unit).Error)
	return unit
}

func strictPolicy(minPct float64, minCoins int64) models.LockPolicy {
	return models.LockPolicy{
		LockedByDefault:          true,
		MinCompletionPercent:     minPct,
		MinCoinsToUnlockNextWeek: minCoins,
	}
}
