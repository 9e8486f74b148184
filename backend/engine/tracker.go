package engine

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"coursebox/backend/models"
)

// TrackTime records a heartbeat for one user on one content unit.
// claimedSeconds is the cumulative time the client believes it has spent;
// the stored value only ever moves forward, so duplicate, stale or
// out-of-order heartbeats can never decrease it. The server value in the
// result is authoritative.
func (e *Engine) TrackTime(ctx context.Context, userID, unitID uint, claimedSeconds int) (TrackTimeResult, error) {
	var res TrackTimeResult
	if claimedSeconds < 0 {
		return res, ErrInvalidTime
	}

	db := e.db.WithContext(ctx)

	var unit models.ContentUnit
	if err := db.First(&unit, unitID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return res, ErrUnitNotFound
		}
		return res, err
	}

	rec, err := e.ensureRecord(db, userID, unitID)
	if err != nil {
		return res, err
	}

	// Single guarded UPDATE instead of read-modify-write: two concurrent
	// heartbeats from duplicate tabs cannot lose each other's time.
	if !rec.IsCompleted() {
		err = db.Model(&models.CompletionRecord{}).
			Where("user_id = ? AND content_unit_id = ?", userID, unitID).
			Update("time_spent_seconds", gorm.Expr(
				"CASE WHEN time_spent_seconds >= ? THEN time_spent_seconds ELSE ? END",
				claimedSeconds, claimedSeconds)).Error
		if err != nil {
			return res, err
		}
		if err := db.Where("user_id = ? AND content_unit_id = ?", userID, unitID).
			First(rec).Error; err != nil {
			return res, err
		}
	}
	// A heartbeat after completion is accepted but is a no-op; time is not
	// retroactively accumulated.

	return trackTimeResult(rec, &unit), nil
}

// ensureRecord creates the (user, unit) completion row on first contact.
// The unique index plus DO NOTHING makes creation race-safe.
func (e *Engine) ensureRecord(db *gorm.DB, userID, unitID uint) (*models.CompletionRecord, error) {
	rec := models.CompletionRecord{
		UserID:        userID,
		ContentUnitID: unitID,
		StartedAt:     time.Now().UTC(),
	}
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "content_unit_id"}},
		DoNothing: true,
	}).Create(&rec).Error
	if err != nil {
		return nil, err
	}

	var current models.CompletionRecord
	if err := db.Where("user_id = ? AND content_unit_id = ?", userID, unitID).
		First(&current).Error; err != nil {
		return nil, err
	}
	return &current, nil
}

func trackTimeResult(rec *models.CompletionRecord, unit *models.ContentUnit) TrackTimeResult {
	remaining := unit.MinTimeRequiredSeconds - rec.TimeSpentSeconds
	if remaining < 0 {
		remaining = 0
	}
	completed := rec.IsCompleted()
	return TrackTimeResult{
		TimeSpentSeconds:        rec.TimeSpentSeconds,
		IsEligibleForCompletion: !completed && rec.TimeSpentSeconds >= unit.MinTimeRequiredSeconds,
		TimeRemainingSeconds:    remaining,
		MinTimeRequiredSeconds:  unit.MinTimeRequiredSeconds,
		IsCompleted:             completed,
	}
}
