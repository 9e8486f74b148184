package controllers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"coursebox/backend/config"
	"coursebox/backend/engine"
	"coursebox/backend/utils"
)

type ContentController struct {
	DB     *gorm.DB
	Cfg    *config.Config
	Engine *engine.Engine
}

func NewContentController(db *gorm.DB, cfg *config.Config, eng *engine.Engine) *ContentController {
	return &ContentController{DB: db, Cfg: cfg, Engine: eng}
}

type trackTimeInput struct {
	// Cumulative seconds claimed by the client since it started the unit.
	// The server value wins; a lower claim is a no-op.
	TimeSpent int `json:"time_spent" validate:"gte=0"`
}

func (cc *ContentController) TrackTime(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, cc.Cfg)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	unitID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid content unit ID")
	}

	var input trackTimeInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if errs := utils.ValidateStruct(input); errs != nil {
		return utils.ValidationError(c, errs)
	}

	result, err := cc.Engine.TrackTime(c.Context(), userID, uint(unitID), input.TimeSpent)
	if err != nil {
		return engineError(c, err)
	}

	return c.JSON(result)
}

type completeInput struct {
	CompletionData datatypes.JSON `json:"completion_data"`
}

func (cc *ContentController) Complete(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, cc.Cfg)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	unitID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid content unit ID")
	}

	var input completeInput
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&input); err != nil {
			return utils.BadRequest(c, "Cannot parse JSON")
		}
	}

	result, err := cc.Engine.Complete(c.Context(), userID, uint(unitID), input.CompletionData)
	if err != nil {
		return engineError(c, err)
	}

	return c.JSON(result)
}
