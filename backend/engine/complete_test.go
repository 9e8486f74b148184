package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"coursebox/backend/models"
)

func TestCompleteAwardsCoinsExactlyOnce(t *testing.T) {
	eng, db := newTestEngine(t)
	cohort := seedCohort(t, db)
	week := seedWeek(t, db, cohort.ID, 0, true, models.LockPolicy{})
	unit := seedUnit(t, db, week.ID, 60, 25, false)

	ctx := context.Background()
	_, err := eng.TrackTime(ctx, 1, unit.ID, 90)
	require.NoError(t, err)

	first, err := eng.Complete(ctx, 1, unit.ID, datatypes.JSON(`{"source":"topic"}`))
	require.NoError(t, err)
	assert.EqualValues(t, 25, first.CoinsAwarded)
	assert.EqualValues(t, 25, first.NewBalance)
	assert.False(t, first.AlreadyCompleted)
	assert.Equal(t, 100.0, first.WeekCompletionPercentage)

	second, err := eng.Complete(ctx, 1, unit.ID, nil)
	require.NoError(t, err)
	assert.True(t, second.AlreadyCompleted)
	assert.EqualValues(t, 25, second.CoinsAwarded)
	assert.EqualValues(t, 25, second.NewBalance)

	var entries int64
	require.NoError(t, db.Model(&models.CoinLedgerEntry{}).
		Where("user_id = ?", 1).Count(&entries).Error)
	assert.EqualValues(t, 1, entries)

	var completed int64
	require.NoError(t, db.Model(&models.CompletionRecord{}).
		Where("user_id = ? AND completed_at IS NOT NULL", 1).Count(&completed).Error)
	assert.EqualValues(t, 1, completed)
}

func TestCompleteRejectedBeforeEligibility(t *testing.T) {
	eng, db := newTestEngine(t)
	cohort := seedCohort(t, db)
	week := seedWeek(t, db, cohort.ID, 0, true, models.LockPolicy{})
	unit := seedUnit(t, db, week.ID, 120, 10, false)

	ctx := context.Background()
	_, err := eng.TrackTime(ctx, 1, unit.ID, 119)
	require.NoError(t, err)

	_, err = eng.Complete(ctx, 1, unit.ID, nil)
	assert.ErrorIs(t, err, ErrNotEligible)

	// No half-applied side effects.
	var entries int64
	require.NoError(t, db.Model(&models.CoinLedgerEntry{}).Count(&entries).Error)
	assert.EqualValues(t, 0, entries)
}

func TestCompleteWithoutHeartbeatWhenNoMinimum(t *testing.T) {
	eng, db := newTestEngine(t)
	cohort := seedCohort(t, db)
	week := seedWeek(t, db, cohort.ID, 0, true, models.LockPolicy{})
	unit := seedUnit(t, db, week.ID, 0, 5, false)

	res, err := eng.Complete(context.Background(), 1, unit.ID, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 5, res.CoinsAwarded)
}

func TestCompleteUnknownUnit(t *testing.T) {
	eng, _ := newTestEngine(t)

	_, err := eng.Complete(context.Background(), 1, 9999, nil)
	assert.ErrorIs(t, err, ErrUnitNotFound)
}

func TestCompleteRecomputesWeekPercentage(t *testing.T) {
	eng, db := newTestEngine(t)
	cohort := seedCohort(t, db)
	week := seedWeek(t, db, cohort.ID, 0, true, models.LockPolicy{})
	unitA := seedUnit(t, db, week.ID, 0, 10, false)
	seedUnit(t, db, week.ID, 0, 10, false)

	res, err := eng.Complete(context.Background(), 1, unitA.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, 50.0, res.WeekCompletionPercentage)

	var wp models.WeekProgress
	require.NoError(t, db.Where("user_id = ? AND week_id = ?", 1, week.ID).First(&wp).Error)
	assert.Equal(t, 50.0, wp.CompletionPercentage)
}

func TestCompleteOpportunisticallyUnlocksNextWeek(t *testing.T) {
	eng, db := newTestEngine(t)
	cohort := seedCohort(t, db)
	week0 := seedWeek(t, db, cohort.ID, 0, true, models.LockPolicy{})
	week1 := seedWeek(t, db, cohort.ID, 1, false, strictPolicy(100, 10))
	unit := seedUnit(t, db, week0.ID, 0, 10, false)

	res, err := eng.Complete(context.Background(), 1, unit.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, 100.0, res.WeekCompletionPercentage)

	// Completing week 0 satisfied week 1's policy inside the same call.
	var wp models.WeekProgress
	require.NoError(t, db.Where("user_id = ? AND week_id = ?", 1, week1.ID).First(&wp).Error)
	assert.True(t, wp.IsUnlocked)
	assert.NotNil(t, wp.UnlockedAt)
}

func TestCompleteDistinctUsersIndependent(t *testing.T) {
	eng, db := newTestEngine(t)
	cohort := seedCohort(t, db)
	week := seedWeek(t, db, cohort.ID, 0, true, models.LockPolicy{})
	unit := seedUnit(t, db, week.ID, 0, 10, false)

	ctx := context.Background()
	_, err := eng.Complete(ctx, 1, unit.ID, nil)
	require.NoError(t, err)

	res, err := eng.Complete(ctx, 2, unit.ID, nil)
	require.NoError(t, err)
	assert.False(t, res.AlreadyCompleted)
	assert.EqualValues(t, 10, res.NewBalance)
}
