package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"coursebox/backend/engine"
	"coursebox/backend/utils"
)

// engineError maps engine errors onto HTTP responses. Everything the
// engine raises is recoverable at the request boundary.
func engineError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, engine.ErrUnitNotFound),
		errors.Is(err, engine.ErrWeekNotFound):
		return utils.NotFound(c, err.Error())
	case errors.Is(err, engine.ErrInvalidTime),
		errors.Is(err, engine.ErrZeroAdjustment):
		return utils.BadRequest(c, err.Error())
	case errors.Is(err, engine.ErrNotEligible):
		return utils.Error(c, fiber.StatusUnprocessableEntity, err)
	default:
		return utils.InternalServerError(c, "Could not process request")
	}
}
