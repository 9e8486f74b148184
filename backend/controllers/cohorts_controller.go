package controllers

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"coursebox/backend/config"
	"coursebox/backend/engine"
	"coursebox/backend/models"
	"coursebox/backend/utils"
)

type CohortsController struct {
	DB     *gorm.DB
	Cfg    *config.Config
	Engine *engine.Engine
}

func NewCohortsController(db *gorm.DB, cfg *config.Config, eng *engine.Engine) *CohortsController {
	return &CohortsController{DB: db, Cfg: cfg, Engine: eng}
}

func (cc *CohortsController) GetCohorts(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, cc.Cfg)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	var cohorts []models.Cohort
	if err := cc.DB.Find(&cohorts).Error; err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}

	result := make([]fiber.Map, 0, len(cohorts))
	for _, cohort := range cohorts {
		var enrollment models.Enrollment
		enrolled := cc.DB.Where("user_id = ? AND cohort_id = ? AND status = ?",
			userID, cohort.ID, "active").First(&enrollment).Error == nil

		result = append(result, fiber.Map{
			"id":          cohort.ID,
			"name":        cohort.Name,
			"description": cohort.Description,
			"start_date":  cohort.StartDate,
			"enrolled":    enrolled,
		})
	}

	return c.JSON(result)
}

func (cc *CohortsController) Enroll(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, cc.Cfg)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	cohortID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid cohort ID")
	}

	var cohort models.Cohort
	if err := cc.DB.First(&cohort, cohortID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Cohort not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	enrollment := models.Enrollment{
		UserID:   userID,
		CohortID: cohort.ID,
		Status:   "active",
	}
	if err := cc.DB.Where("user_id = ? AND cohort_id = ?", userID, cohort.ID).
		FirstOrCreate(&enrollment).Error; err != nil {
		return utils.InternalServerError(c, "Could not enroll")
	}

	return c.JSON(fiber.Map{
		"message":    "Enrolled",
		"enrollment": enrollment,
	})
}

// GetCohortWeeks lists a cohort's weeks with the caller's unlock state and
// cached completion percentage per week.
func (cc *CohortsController) GetCohortWeeks(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, cc.Cfg)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	cohortID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid cohort ID")
	}

	var weeks []models.Week
	if err := cc.DB.Where("cohort_id = ?", cohortID).
		Order("number").Find(&weeks).Error; err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}

	result := make([]fiber.Map, 0, len(weeks))
	for _, week := range weeks {
		unlocked, unlockedAt, err := cc.Engine.UnlockStateFor(c.Context(), userID, week.ID)
		if err != nil {
			return utils.InternalServerError(c, "Could not query database")
		}

		completionPct := 0.0
		var wp models.WeekProgress
		if err := cc.DB.Where("user_id = ? AND week_id = ?", userID, week.ID).
			First(&wp).Error; err == nil {
			completionPct = wp.CompletionPercentage
		}

		result = append(result, fiber.Map{
			"id":                    week.ID,
			"number":                week.Number,
			"title":                 week.Title,
			"is_free":               week.IsFree,
			"is_unlocked":           unlocked,
			"unlocked_at":           unlockedAt,
			"completion_percentage": completionPct,
		})
	}

	return c.JSON(result)
}

type createCohortInput struct {
	Name        string     `json:"name" validate:"required"`
	Description string     `json:"description"`
	StartDate   *time.Time `json:"start_date"`
}

func (cc *CohortsController) CreateCohort(c *fiber.Ctx) error {
	var input createCohortInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if errs := utils.ValidateStruct(input); errs != nil {
		return utils.ValidationError(c, errs)
	}

	cohort := models.Cohort{
		Name:        input.Name,
		Description: input.Description,
		StartDate:   input.StartDate,
	}
	if err := cc.DB.Create(&cohort).Error; err != nil {
		return utils.InternalServerError(c, "Could not create cohort")
	}

	return c.JSON(fiber.Map{
		"message": "Cohort created",
		"cohort":  cohort,
	})
}

type addWeekInput struct {
	Number     int               `json:"number" validate:"gte=0"`
	Title      string            `json:"title" validate:"required"`
	IsFree     bool              `json:"is_free"`
	LockPolicy models.LockPolicy `json:"lock_policy"`
}

func (cc *CohortsController) AddWeek(c *fiber.Ctx) error {
	cohortID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid cohort ID")
	}

	var input addWeekInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if errs := utils.ValidateStruct(input); errs != nil {
		return utils.ValidationError(c, errs)
	}

	var cohort models.Cohort
	if err := cc.DB.First(&cohort, cohortID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Cohort not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	week := models.Week{
		CohortID:   cohort.ID,
		Number:     input.Number,
		Title:      input.Title,
		IsFree:     input.IsFree,
		LockPolicy: input.LockPolicy,
	}
	if err := cc.DB.Create(&week).Error; err != nil {
		return utils.InternalServerError(c, "Could not create week")
	}

	return c.JSON(fiber.Map{
		"message": "Week created",
		"week":    week,
	})
}

func (cc *CohortsController) UpdateWeekPolicy(c *fiber.Ctx) error {
	weekID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid week ID")
	}

	var input models.LockPolicy
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	var week models.Week
	if err := cc.DB.First(&week, weekID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Week not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	week.LockPolicy = input
	if err := cc.DB.Save(&week).Error; err != nil {
		return utils.InternalServerError(c, "Could not save policy")
	}

	return c.JSON(fiber.Map{
		"message": "Policy updated",
		"week":    week,
	})
}

type addUnitInput struct {
	Kind                   string `json:"kind" validate:"omitempty,oneof=topic lesson_block quiz assignment live_class"`
	Title                  string `json:"title" validate:"required"`
	SequenceOrder          int    `json:"sequence_order"`
	IsOptional             bool   `json:"is_optional"`
	MinTimeRequiredSeconds int    `json:"min_time_required_seconds" validate:"gte=0"`
	CoinReward             int64  `json:"coin_reward" validate:"gte=0"`
}

func (cc *CohortsController) AddUnit(c *fiber.Ctx) error {
	weekID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid week ID")
	}

	var input addUnitInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if errs := utils.ValidateStruct(input); errs != nil {
		return utils.ValidationError(c, errs)
	}

	var week models.Week
	if err := cc.DB.First(&week, weekID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Week not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	kind := input.Kind
	if kind == "" {
		kind = models.UnitTopic
	}

	unit := models.ContentUnit{
		WeekID:                 week.ID,
		Kind:                   kind,
		Title:                  input.Title,
		SequenceOrder:          input.SequenceOrder,
		IsOptional:             input.IsOptional,
		MinTimeRequiredSeconds: input.MinTimeRequiredSeconds,
		CoinReward:             input.CoinReward,
	}
	if err := cc.DB.Create(&unit).Error; err != nil {
		return utils.InternalServerError(c, "Could not create content unit")
	}

	return c.JSON(fiber.Map{
		"message": "Content unit created",
		"unit":    unit,
	})
}

func (cc *CohortsController) UpdateUnit(c *fiber.Ctx) error {
	unitID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid content unit ID")
	}

	var input addUnitInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if errs := utils.ValidateStruct(input); errs != nil {
		return utils.ValidationError(c, errs)
	}

	var unit models.ContentUnit
	if err := cc.DB.First(&unit, unitID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Content unit not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	if input.Kind != "" {
		unit.Kind = input.Kind
	}
	unit.Title = input.Title
	unit.SequenceOrder = input.SequenceOrder
	unit.IsOptional = input.IsOptional
	unit.MinTimeRequiredSeconds = input.MinTimeRequiredSeconds
	unit.CoinReward = input.CoinReward

	if err := cc.DB.Save(&unit).Error; err != nil {
		return utils.InternalServerError(c, "Could not save content unit")
	}

	return c.JSON(fiber.Map{
		"message": "Content unit updated",
		"unit":    unit,
	})
}
