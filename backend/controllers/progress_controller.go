package controllers

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"coursebox/backend/config"
	"coursebox/backend/engine"
	"coursebox/backend/models"
	"coursebox/backend/utils"
)

type ProgressController struct {
	DB     *gorm.DB
	Cfg    *config.Config
	Engine *engine.Engine
}

func NewProgressController(db *gorm.DB, cfg *config.Config, eng *engine.Engine) *ProgressController {
	return &ProgressController{DB: db, Cfg: cfg, Engine: eng}
}

// GetProgressOverview returns the caller's aggregate position: units
// completed, weeks unlocked, coin balance and recent activity.
func (pc *ProgressController) GetProgressOverview(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, pc.Cfg)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	var unitsCompleted int64
	if err := pc.DB.Model(&models.CompletionRecord{}).
		Where("user_id = ? AND completed_at IS NOT NULL", userID).
		Count(&unitsCompleted).Error; err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}

	var weeksUnlocked int64
	if err := pc.DB.Model(&models.WeekProgress{}).
		Where("user_id = ? AND is_unlocked = ?", userID, true).
		Count(&weeksUnlocked).Error; err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}

	var totalTimeSeconds int64
	if err := pc.DB.Model(&models.CompletionRecord{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(time_spent_seconds), 0)").
		Scan(&totalTimeSeconds).Error; err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}

	balance, err := pc.Engine.Balance(c.Context(), userID)
	if err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}

	var recentActivity []models.UserActivity
	if err := pc.DB.Where("user_id = ?", userID).
		Order("created_at DESC").Limit(10).
		Find(&recentActivity).Error; err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}

	return c.JSON(fiber.Map{
		"units_completed":    unitsCompleted,
		"weeks_unlocked":     weeksUnlocked,
		"total_time_seconds": totalTimeSeconds,
		"coin_balance":       balance,
		"recent_activity":    recentActivity,
	})
}
