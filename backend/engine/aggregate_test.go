package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coursebox/backend/models"
)

func TestComputeWeekCompletionExcludesOptionalUnits(t *testing.T) {
	eng, db := newTestEngine(t)
	cohort := seedCohort(t, db)
	week := seedWeek(t, db, cohort.ID, 0, true, models.LockPolicy{})
	required := seedUnit(t, db, week.ID, 0, 0, false)
	seedUnit(t, db, week.ID, 0, 0, false)
	optional := seedUnit(t, db, week.ID, 0, 0, true)

	ctx := context.Background()
	_, err := eng.Complete(ctx, 1, required.ID, nil)
	require.NoError(t, err)
	_, err = eng.Complete(ctx, 1, optional.ID, nil)
	require.NoError(t, err)

	// Optional completion moves neither numerator nor denominator.
	pct, err := eng.ComputeWeekCompletion(ctx, 1, week.ID)
	require.NoError(t, err)
	assert.Equal(t, 50.0, pct)
}

func TestComputeWeekCompletionEmptyWeek(t *testing.T) {
	eng, db := newTestEngine(t)
	cohort := seedCohort(t, db)
	week := seedWeek(t, db, cohort.ID, 0, true, models.LockPolicy{})

	pct, err := eng.ComputeWeekCompletion(context.Background(), 1, week.ID)
	require.NoError(t, err)
	assert.Equal(t, 100.0, pct)
}

func TestComputeWeekCompletionUnknownWeek(t *testing.T) {
	eng, _ := newTestEngine(t)

	_, err := eng.ComputeWeekCompletion(context.Background(), 1, 9999)
	assert.ErrorIs(t, err, ErrWeekNotFound)
}

func TestComputeWeekCompletionCachesResult(t *testing.T) {
	eng, db := newTestEngine(t)
	cohort := seedCohort(t, db)
	week := seedWeek(t, db, cohort.ID, 0, true, models.LockPolicy{})
	unit := seedUnit(t, db, week.ID, 0, 0, false)
	seedUnit(t, db, week.ID, 0, 0, false)
	seedUnit(t, db, week.ID, 0, 0, false)
	seedUnit(t, db, week.ID, 0, 0, false)

	ctx := context.Background()
	_, err := eng.Complete(ctx, 1, unit.ID, nil)
	require.NoError(t, err)

	pct, err := eng.ComputeWeekCompletion(ctx, 1, week.ID)
	require.NoError(t, err)
	assert.Equal(t, 25.0, pct)

	var wp models.WeekProgress
	require.NoError(t, db.Where("user_id = ? AND week_id = ?", 1, week.ID).First(&wp).Error)
	assert.Equal(t, 25.0, wp.CompletionPercentage)
	assert.Equal(t, cohort.ID, wp.CohortID)
}
