package controllers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"coursebox/backend/config"
	"coursebox/backend/engine"
	"coursebox/backend/models"
	"coursebox/backend/utils"
)

type WeeksController struct {
	DB     *gorm.DB
	Cfg    *config.Config
	Engine *engine.Engine
}

func NewWeeksController(db *gorm.DB, cfg *config.Config, eng *engine.Engine) *WeeksController {
	return &WeeksController{DB: db, Cfg: cfg, Engine: eng}
}

func (wc *WeeksController) EvaluateUnlock(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, wc.Cfg)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	weekID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid week ID")
	}

	result, err := wc.Engine.EvaluateUnlock(c.Context(), userID, uint(weekID))
	if err != nil {
		return engineError(c, err)
	}

	return c.JSON(result)
}

func (wc *WeeksController) GetWeekDetails(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, wc.Cfg)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	weekID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid week ID")
	}

	var week models.Week
	if err := wc.DB.Preload("Units", func(db *gorm.DB) *gorm.DB {
		return db.Order("sequence_order")
	}).First(&week, weekID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Week not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	unlocked, unlockedAt, err := wc.Engine.UnlockStateFor(c.Context(), userID, week.ID)
	if err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}

	units := make([]fiber.Map, 0, len(week.Units))
	for _, unit := range week.Units {
		var rec models.CompletionRecord
		recErr := wc.DB.Where("user_id = ? AND content_unit_id = ?", userID, unit.ID).
			First(&rec).Error

		entry := fiber.Map{
			"id":                        unit.ID,
			"kind":                      unit.Kind,
			"title":                     unit.Title,
			"sequence_order":            unit.SequenceOrder,
			"is_optional":               unit.IsOptional,
			"min_time_required_seconds": unit.MinTimeRequiredSeconds,
			"coin_reward":               unit.CoinReward,
			"time_spent_seconds":        0,
			"is_completed":              false,
		}
		if recErr == nil {
			entry["time_spent_seconds"] = rec.TimeSpentSeconds
			entry["is_completed"] = rec.IsCompleted()
		}
		units = append(units, entry)
	}

	var wp models.WeekProgress
	completionPct := 0.0
	if err := wc.DB.Where("user_id = ? AND week_id = ?", userID, week.ID).
		First(&wp).Error; err == nil {
		completionPct = wp.CompletionPercentage
	}

	return c.JSON(fiber.Map{
		"week": fiber.Map{
			"id":          week.ID,
			"cohort_id":   week.CohortID,
			"number":      week.Number,
			"title":       week.Title,
			"is_free":     week.IsFree,
			"lock_policy": week.LockPolicy,
		},
		"is_unlocked":           unlocked,
		"unlocked_at":           unlockedAt,
		"completion_percentage": completionPct,
		"units":                 units,
	})
}
