package engine

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"coursebox/backend/models"
)

// ComputeWeekCompletion recomputes a user's completion percentage over the
// week's required units and caches it on the WeekProgress row. Optional
// units are excluded from both sides of the ratio.
func (e *Engine) ComputeWeekCompletion(ctx context.Context, userID, weekID uint) (float64, error) {
	var pct float64
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var week models.Week
		if err := tx.First(&week, weekID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrWeekNotFound
			}
			return err
		}
		p, err := e.recomputeWeekCompletion(tx, userID, &week)
		if err != nil {
			return err
		}
		pct = p
		return nil
	})
	return pct, err
}

func (e *Engine) recomputeWeekCompletion(tx *gorm.DB, userID uint, week *models.Week) (float64, error) {
	var required int64
	err := tx.Model(&models.ContentUnit{}).
		Where("week_id = ? AND is_optional = ?", week.ID, false).
		Count(&required).Error
	if err != nil {
		return 0, err
	}

	// A week with no required content counts as fully complete.
	pct := 100.0
	if required > 0 {
		var completed int64
		err = tx.Model(&models.CompletionRecord{}).
			Joins("JOIN content_units ON content_units.id = completion_records.content_unit_id").
			Where("completion_records.user_id = ? AND completion_records.completed_at IS NOT NULL", userID).
			Where("content_units.week_id = ? AND content_units.is_optional = ? AND content_units.deleted_at IS NULL",
				week.ID, false).
			Count(&completed).Error
		if err != nil {
			return 0, err
		}
		pct = float64(completed) / float64(required) * 100
	}

	// Cache the aggregate; unlock state on the same row is untouched.
	wp := models.WeekProgress{UserID: userID, WeekID: week.ID, CohortID: week.CohortID}
	if err := tx.Where("user_id = ? AND week_id = ?", userID, week.ID).
		FirstOrCreate(&wp).Error; err != nil {
		return 0, err
	}
	if err := tx.Model(&wp).Update("completion_percentage", pct).Error; err != nil {
		return 0, err
	}
	return pct, nil
}
