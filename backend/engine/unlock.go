package engine

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"coursebox/backend/models"
)

// EvaluateUnlock runs the two-state LOCKED -> UNLOCKED machine for one
// user and week. UNLOCKED is terminal: once granted, later evaluations
// return unlocked no matter how the underlying completion data moves.
// Evaluation is a read path that always produces an answer; data problems
// (a missing previous week) fail closed to LOCKED with a reason code.
func (e *Engine) EvaluateUnlock(ctx context.Context, userID, weekID uint) (UnlockResult, error) {
	var res UnlockResult
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var week models.Week
		if err := tx.First(&week, weekID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrWeekNotFound
			}
			return err
		}
		r, err := e.evaluate(tx, userID, &week)
		if err != nil {
			return err
		}
		res = r
		return nil
	})
	return res, err
}

func (e *Engine) evaluate(tx *gorm.DB, userID uint, week *models.Week) (UnlockResult, error) {
	var wp models.WeekProgress
	err := tx.Where("user_id = ? AND week_id = ?", userID, week.ID).First(&wp).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return UnlockResult{}, err
	}
	if err == nil && wp.IsUnlocked {
		return UnlockResult{IsUnlocked: true, UnlockedAt: wp.UnlockedAt}, nil
	}

	// Week 0, free weeks and weeks not locked by default have no
	// prerequisite at all. DeadlineAt is deliberately not consulted.
	if week.IsFree || week.Number == 0 || !week.LockPolicy.LockedByDefault {
		return e.grant(tx, userID, week)
	}

	var prev models.Week
	err = tx.Where("cohort_id = ? AND number = ?", week.CohortID, week.Number-1).
		First(&prev).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Numbering gap: fail closed rather than defaulting open.
			return locked(LockReasons{Codes: []string{ReasonMissingPrerequisite}}), nil
		}
		return UnlockResult{}, err
	}

	// Both inputs are cached aggregates; nothing is recomputed on this path.
	var prevPct float64
	var prevWP models.WeekProgress
	err = tx.Where("user_id = ? AND week_id = ?", userID, prev.ID).First(&prevWP).Error
	switch {
	case err == nil:
		prevPct = prevWP.CompletionPercentage
	case errors.Is(err, gorm.ErrRecordNotFound):
		prevPct = 0
	default:
		return UnlockResult{}, err
	}

	balance, err := e.cachedBalance(tx, userID)
	if err != nil {
		return UnlockResult{}, err
	}

	var reasons LockReasons
	if short := week.LockPolicy.MinCompletionPercent - prevPct; short > 0 {
		reasons.Codes = append(reasons.Codes, ReasonCompletionShort)
		reasons.CompletionPercentShortBy = short
	}
	if short := week.LockPolicy.MinCoinsToUnlockNextWeek - balance; short > 0 {
		reasons.Codes = append(reasons.Codes, ReasonCoinsShort)
		reasons.CoinsShortBy = short
	}
	if len(reasons.Codes) > 0 {
		return locked(reasons), nil
	}

	return e.grant(tx, userID, week)
}

func locked(reasons LockReasons) UnlockResult {
	return UnlockResult{IsUnlocked: false, ReasonsIfLocked: &reasons}
}

// grant transitions (user, week) to UNLOCKED, stamping unlocked_at exactly
// once. The guarded update keeps the stamp stable under concurrent grants.
func (e *Engine) grant(tx *gorm.DB, userID uint, week *models.Week) (UnlockResult, error) {
	wp := models.WeekProgress{UserID: userID, WeekID: week.ID, CohortID: week.CohortID}
	if err := tx.Where("user_id = ? AND week_id = ?", userID, week.ID).
		FirstOrCreate(&wp).Error; err != nil {
		return UnlockResult{}, err
	}
	if wp.IsUnlocked {
		return UnlockResult{IsUnlocked: true, UnlockedAt: wp.UnlockedAt}, nil
	}

	now := time.Now().UTC()
	granted := tx.Model(&models.WeekProgress{}).
		Where("id = ? AND is_unlocked = ?", wp.ID, false).
		Updates(map[string]interface{}{"is_unlocked": true, "unlocked_at": now})
	if granted.Error != nil {
		return UnlockResult{}, granted.Error
	}
	if granted.RowsAffected == 1 {
		activity := models.UserActivity{
			UserID:      userID,
			ActionType:  "week_unlocked",
			TargetID:    week.ID,
			TargetTitle: week.Title,
		}
		if err := tx.Create(&activity).Error; err != nil {
			return UnlockResult{}, err
		}
		e.log.Info("week unlocked",
			"user_id", userID, "week_id", week.ID, "week_number", week.Number)
	}

	return UnlockResult{IsUnlocked: true, UnlockedAt: &now}, nil
}

// evaluateFollowingWeek re-checks the next week's drip gate after a
// completion event in this one. No next week is not an error.
func (e *Engine) evaluateFollowingWeek(tx *gorm.DB, userID uint, week *models.Week) error {
	var next models.Week
	err := tx.Where("cohort_id = ? AND number = ?", week.CohortID, week.Number+1).
		First(&next).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	_, err = e.evaluate(tx, userID, &next)
	return err
}

// UnlockStateFor reads the cached unlock state without evaluating; used by
// week listings. A missing row reports locked.
func (e *Engine) UnlockStateFor(ctx context.Context, userID, weekID uint) (bool, *time.Time, error) {
	var wp models.WeekProgress
	err := e.db.WithContext(ctx).
		Where("user_id = ? AND week_id = ?", userID, weekID).First(&wp).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil, nil
	}
	if err != nil {
		return false, nil, err
	}
	return wp.IsUnlocked, wp.UnlockedAt, nil
}
