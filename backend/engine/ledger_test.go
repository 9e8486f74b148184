package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coursebox/backend/models"
)

func TestBalanceZeroForNewUser(t *testing.T) {
	eng, _ := newTestEngine(t)

	balance, err := eng.Balance(context.Background(), 42)
	require.NoError(t, err)
	assert.EqualValues(t, 0, balance)
}

func TestAdjustAppendsSignedEntries(t *testing.T) {
	eng, db := newTestEngine(t)
	ctx := context.Background()

	balance, err := eng.Adjust(ctx, 1, 100, "migration credit")
	require.NoError(t, err)
	assert.EqualValues(t, 100, balance)

	balance, err = eng.Adjust(ctx, 1, -30, "penalty")
	require.NoError(t, err)
	assert.EqualValues(t, 70, balance)

	var entries []models.CoinLedgerEntry
	require.NoError(t, db.Where("user_id = ?", 1).Order("id").Find(&entries).Error)
	require.Len(t, entries, 2)
	assert.EqualValues(t, 100, entries[0].Amount)
	assert.EqualValues(t, -30, entries[1].Amount)
	assert.Equal(t, models.SourceManualAdjustment, entries[0].SourceType)
	assert.NotEmpty(t, entries[0].Reference)
}

func TestAdjustRejectsZero(t *testing.T) {
	eng, _ := newTestEngine(t)

	_, err := eng.Adjust(context.Background(), 1, 0, "noop")
	assert.ErrorIs(t, err, ErrZeroAdjustment)
}

func TestCachedBalanceMatchesLedgerAfterMixedActivity(t *testing.T) {
	eng, db := newTestEngine(t)
	cohort := seedCohort(t, db)
	week := seedWeek(t, db, cohort.ID, 0, true, models.LockPolicy{})
	unitA := seedUnit(t, db, week.ID, 0, 15, false)
	unitB := seedUnit(t, db, week.ID, 0, 10, false)

	ctx := context.Background()
	_, err := eng.Complete(ctx, 1, unitA.ID, nil)
	require.NoError(t, err)
	_, err = eng.Complete(ctx, 1, unitB.ID, nil)
	require.NoError(t, err)
	_, err = eng.Adjust(ctx, 1, -5, "spent on hint")
	require.NoError(t, err)

	check, err := eng.VerifyBalance(ctx, 1)
	require.NoError(t, err)
	assert.True(t, check.Consistent)
	assert.EqualValues(t, 20, check.CachedBalance)
	assert.EqualValues(t, 20, check.LedgerBalance)
}

func TestRebuildBalanceRepairsCorruptedCache(t *testing.T) {
	eng, db := newTestEngine(t)
	ctx := context.Background()

	_, err := eng.Adjust(ctx, 1, 100, "migration credit")
	require.NoError(t, err)

	// Corrupt the cache behind the engine's back.
	require.NoError(t, db.Model(&models.UserCoinBalance{}).
		Where("user_id = ?", 1).
		Update("total_balance", 9999).Error)

	check, err := eng.VerifyBalance(ctx, 1)
	require.NoError(t, err)
	assert.False(t, check.Consistent)

	rebuilt, err := eng.RebuildBalance(ctx, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 100, rebuilt)

	check, err = eng.VerifyBalance(ctx, 1)
	require.NoError(t, err)
	assert.True(t, check.Consistent)
}
