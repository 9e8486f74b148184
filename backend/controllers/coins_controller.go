package controllers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"coursebox/backend/config"
	"coursebox/backend/engine"
	"coursebox/backend/models"
	"coursebox/backend/utils"
)

type CoinsController struct {
	DB     *gorm.DB
	Cfg    *config.Config
	Engine *engine.Engine
}

func NewCoinsController(db *gorm.DB, cfg *config.Config, eng *engine.Engine) *CoinsController {
	return &CoinsController{DB: db, Cfg: cfg, Engine: eng}
}

func (cc *CoinsController) GetBalance(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, cc.Cfg)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	balance, err := cc.Engine.Balance(c.Context(), userID)
	if err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}

	return c.JSON(fiber.Map{
		"balance": balance,
	})
}

func (cc *CoinsController) GetTransactions(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, cc.Cfg)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	page, _ := strconv.Atoi(c.Query("page", "1"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(c.Query("page_size", "20"))
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	var total int64
	if err := cc.DB.Model(&models.CoinLedgerEntry{}).
		Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}

	var entries []models.CoinLedgerEntry
	if err := cc.DB.Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&entries).Error; err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}

	return utils.Paginate(c, entries, total, page, pageSize)
}

type adjustInput struct {
	UserID uint   `json:"user_id" validate:"required"`
	Amount int64  `json:"amount" validate:"required"`
	Reason string `json:"reason" validate:"required"`
}

func (cc *CoinsController) AdjustCoins(c *fiber.Ctx) error {
	var input adjustInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if errs := utils.ValidateStruct(input); errs != nil {
		return utils.ValidationError(c, errs)
	}

	balance, err := cc.Engine.Adjust(c.Context(), input.UserID, input.Amount, input.Reason)
	if err != nil {
		return engineError(c, err)
	}

	return c.JSON(fiber.Map{
		"message":     "Adjustment recorded",
		"new_balance": balance,
	})
}

func (cc *CoinsController) VerifyBalance(c *fiber.Ctx) error {
	userID, err := strconv.Atoi(c.Params("userId"))
	if err != nil {
		return utils.BadRequest(c, "Invalid user ID")
	}

	check, err := cc.Engine.VerifyBalance(c.Context(), uint(userID))
	if err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}

	return c.JSON(check)
}

func (cc *CoinsController) RebuildBalance(c *fiber.Ctx) error {
	userID, err := strconv.Atoi(c.Params("userId"))
	if err != nil {
		return utils.BadRequest(c, "Invalid user ID")
	}

	balance, err := cc.Engine.RebuildBalance(c.Context(), uint(userID))
	if err != nil {
		return utils.InternalServerError(c, "Could not rebuild balance")
	}

	return c.JSON(fiber.Map{
		"message": "Balance rebuilt",
		"balance": balance,
	})
}
