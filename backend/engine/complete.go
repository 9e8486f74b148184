package engine

import (
	"context"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"coursebox/backend/models"
)

// Complete finalizes a content unit for a user. Calling it on an already
// completed unit is an idempotent no-op that returns the terminal state.
// First-ever completion stamps the record, appends one coin ledger entry,
// recomputes the owning week's aggregate and re-checks the following
// week's drip gate, all inside one transaction: coin award and completion
// record commit together or not at all.
func (e *Engine) Complete(ctx context.Context, userID, unitID uint, completionData datatypes.JSON) (CompleteResult, error) {
	var res CompleteResult
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var unit models.ContentUnit
		if err := tx.First(&unit, unitID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUnitNotFound
			}
			return err
		}
		var week models.Week
		if err := tx.First(&week, unit.WeekID).Error; err != nil {
			return err
		}

		rec, err := e.ensureRecord(tx, userID, unitID)
		if err != nil {
			return err
		}

		if rec.IsCompleted() {
			r, err := e.terminalState(tx, userID, rec, &week)
			if err != nil {
				return err
			}
			res = r
			return nil
		}

		if rec.TimeSpentSeconds < unit.MinTimeRequiredSeconds {
			return ErrNotEligible
		}

		now := time.Now().UTC()
		// Compare-and-set on completed_at: of two racing calls exactly one
		// update wins, so coins are awarded exactly once.
		cas := tx.Model(&models.CompletionRecord{}).
			Where("user_id = ? AND content_unit_id = ? AND completed_at IS NULL", userID, unitID).
			Updates(map[string]interface{}{
				"completed_at":          now,
				"completion_percentage": 100.0,
				"coins_awarded":         unit.CoinReward,
				"completion_method":     "time_tracked",
				"completion_data":       completionData,
			})
		if cas.Error != nil {
			return cas.Error
		}
		if cas.RowsAffected == 0 {
			// Lost the race to a duplicate request; report its result.
			if err := tx.Where("user_id = ? AND content_unit_id = ?", userID, unitID).
				First(rec).Error; err != nil {
				return err
			}
			r, err := e.terminalState(tx, userID, rec, &week)
			if err != nil {
				return err
			}
			res = r
			return nil
		}

		balance, err := e.cachedBalance(tx, userID)
		if err != nil {
			return err
		}
		if unit.CoinReward != 0 {
			balance, err = e.appendLedgerEntry(tx, userID, unit.CoinReward,
				models.SourceContentUnit, unit.ID, "completed: "+unit.Title)
			if err != nil {
				return err
			}
		}

		pct, err := e.recomputeWeekCompletion(tx, userID, &week)
		if err != nil {
			return err
		}

		activity := models.UserActivity{
			UserID:      userID,
			ActionType:  "unit_completed",
			TargetID:    unit.ID,
			TargetTitle: unit.Title,
			Detail:      unit.Kind,
		}
		if err := tx.Create(&activity).Error; err != nil {
			return err
		}

		// Completing content in week N may satisfy week N+1's drip gate.
		if err := e.evaluateFollowingWeek(tx, userID, &week); err != nil {
			return err
		}

		e.log.Info("content unit completed",
			"user_id", userID, "unit_id", unit.ID, "coins", unit.CoinReward)

		res = CompleteResult{
			CoinsAwarded:             unit.CoinReward,
			NewBalance:               balance,
			WeekCompletionPercentage: pct,
		}
		return nil
	})
	return res, err
}

// terminalState rebuilds the response for a unit that is already
// completed: the original award, current balance, and the cached week
// percentage, with no side effects.
func (e *Engine) terminalState(tx *gorm.DB, userID uint, rec *models.CompletionRecord, week *models.Week) (CompleteResult, error) {
	balance, err := e.cachedBalance(tx, userID)
	if err != nil {
		return CompleteResult{}, err
	}

	var pct float64
	var wp models.WeekProgress
	err = tx.Where("user_id = ? AND week_id = ?", userID, week.ID).First(&wp).Error
	switch {
	case err == nil:
		pct = wp.CompletionPercentage
	case errors.Is(err, gorm.ErrRecordNotFound):
		pct = 0
	default:
		return CompleteResult{}, err
	}

	return CompleteResult{
		CoinsAwarded:             rec.CoinsAwarded,
		NewBalance:               balance,
		WeekCompletionPercentage: pct,
		AlreadyCompleted:         true,
	}, nil
}
