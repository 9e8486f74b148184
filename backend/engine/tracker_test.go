package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coursebox/backend/models"
)

func TestTrackTimeEligibilityFlipsAtThreshold(t *testing.T) {
	eng, db := newTestEngine(t)
	cohort := seedCohort(t, db)
	week := seedWeek(t, db, cohort.ID, 0, true, models.LockPolicy{})
	unit := seedUnit(t, db, week.ID, 120, 10, false)

	ctx := context.Background()
	for _, claimed := range []int{0, 30, 60, 95} {
		res, err := eng.TrackTime(ctx, 1, unit.ID, claimed)
		require.NoError(t, err)
		assert.Equal(t, claimed, res.TimeSpentSeconds)
		assert.False(t, res.IsEligibleForCompletion, "not eligible at %ds", claimed)
		assert.Equal(t, 120-claimed, res.TimeRemainingSeconds)
	}

	res, err := eng.TrackTime(ctx, 1, unit.ID, 125)
	require.NoError(t, err)
	assert.True(t, res.IsEligibleForCompletion)
	assert.Equal(t, 125, res.TimeSpentSeconds)
	assert.Equal(t, 0, res.TimeRemainingSeconds)
	assert.False(t, res.IsCompleted)
}

func TestTrackTimeBoundaryExact(t *testing.T) {
	eng, db := newTestEngine(t)
	cohort := seedCohort(t, db)
	week := seedWeek(t, db, cohort.ID, 0, true, models.LockPolicy{})
	unit := seedUnit(t, db, week.ID, 120, 0, false)

	ctx := context.Background()
	res, err := eng.TrackTime(ctx, 1, unit.ID, 119)
	require.NoError(t, err)
	assert.False(t, res.IsEligibleForCompletion)
	assert.Equal(t, 1, res.TimeRemainingSeconds)

	res, err = eng.TrackTime(ctx, 1, unit.ID, 120)
	require.NoError(t, err)
	assert.True(t, res.IsEligibleForCompletion)
}

func TestTrackTimeMonotonicUnderStaleHeartbeats(t *testing.T) {
	eng, db := newTestEngine(t)
	cohort := seedCohort(t, db)
	week := seedWeek(t, db, cohort.ID, 0, true, models.LockPolicy{})
	unit := seedUnit(t, db, week.ID, 300, 0, false)

	ctx := context.Background()
	_, err := eng.TrackTime(ctx, 1, unit.ID, 95)
	require.NoError(t, err)

	// A stale or duplicate claim must not roll the stored value back.
	for _, claimed := range []int{60, 95, 0} {
		res, err := eng.TrackTime(ctx, 1, unit.ID, claimed)
		require.NoError(t, err)
		assert.Equal(t, 95, res.TimeSpentSeconds)
	}

	res, err := eng.TrackTime(ctx, 1, unit.ID, 110)
	require.NoError(t, err)
	assert.Equal(t, 110, res.TimeSpentSeconds)
}

func TestTrackTimeRejectsNegative(t *testing.T) {
	eng, db := newTestEngine(t)
	cohort := seedCohort(t, db)
	week := seedWeek(t, db, cohort.ID, 0, true, models.LockPolicy{})
	unit := seedUnit(t, db, week.ID, 60, 0, false)

	_, err := eng.TrackTime(context.Background(), 1, unit.ID, -5)
	assert.ErrorIs(t, err, ErrInvalidTime)
}

func TestTrackTimeUnknownUnit(t *testing.T) {
	eng, _ := newTestEngine(t)

	_, err := eng.TrackTime(context.Background(), 1, 9999, 10)
	assert.ErrorIs(t, err, ErrUnitNotFound)
}

func TestTrackTimeAfterCompletionIsNoop(t *testing.T) {
	eng, db := newTestEngine(t)
	cohort := seedCohort(t, db)
	week := seedWeek(t, db, cohort.ID, 0, true, models.LockPolicy{})
	unit := seedUnit(t, db, week.ID, 60, 5, false)

	ctx := context.Background()
	_, err := eng.TrackTime(ctx, 1, unit.ID, 80)
	require.NoError(t, err)
	_, err = eng.Complete(ctx, 1, unit.ID, nil)
	require.NoError(t, err)

	res, err := eng.TrackTime(ctx, 1, unit.ID, 500)
	require.NoError(t, err)
	assert.True(t, res.IsCompleted)
	assert.False(t, res.IsEligibleForCompletion)
	assert.Equal(t, 80, res.TimeSpentSeconds)
}

func TestTrackTimeCreatesSingleRecord(t *testing.T) {
	eng, db := newTestEngine(t)
	cohort := seedCohort(t, db)
	week := seedWeek(t, db, cohort.ID, 0, true, models.LockPolicy{})
	unit := seedUnit(t, db, week.ID, 60, 0, false)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := eng.TrackTime(ctx, 1, unit.ID, i*10)
		require.NoError(t, err)
	}

	var count int64
	require.NoError(t, db.Model(&models.CompletionRecord{}).
		Where("user_id = ? AND content_unit_id = ?", 1, unit.ID).
		Count(&count).Error)
	assert.EqualValues(t, 1, count)
}
