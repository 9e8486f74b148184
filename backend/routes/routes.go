package routes

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"coursebox/backend/config"
	"coursebox/backend/controllers"
	"coursebox/backend/engine"
	"coursebox/backend/middleware"
)

func SetupRoutes(app *fiber.App, db *gorm.DB, cfg *config.Config, eng *engine.Engine) {
	// Auth routes
	authController := controllers.NewAuthController(db, cfg)
	app.Post("/api/auth/register", authController.Register)
	app.Post("/api/auth/login", authController.Login)

	// Middleware
	authMiddleware := middleware.AuthMiddleware(cfg)
	adminMiddleware := middleware.AdminMiddleware(db, cfg)

	app.Get("/api/auth/profile", authMiddleware, authController.GetProfile)

	// Cohort routes
	cohortsController := controllers.NewCohortsController(db, cfg, eng)
	cohorts := app.Group("/api/cohorts", authMiddleware)
	cohorts.Get("/", cohortsController.GetCohorts)
	cohorts.Post("/:id/enroll", cohortsController.Enroll)
	cohorts.Get("/:id/weeks", cohortsController.GetCohortWeeks)

	// Week routes
	weeksController := controllers.NewWeeksController(db, cfg, eng)
	weeks := app.Group("/api/weeks", authMiddleware)
	weeks.Get("/:id", weeksController.GetWeekDetails)
	weeks.Post("/:id/evaluate-unlock", weeksController.EvaluateUnlock)

	// Content unit routes
	contentController := controllers.NewContentController(db, cfg, eng)
	units := app.Group("/api/content-units", authMiddleware)
	units.Post("/:id/track-time", contentController.TrackTime)
	units.Post("/:id/complete", contentController.Complete)

	// Coin routes
	coinsController := controllers.NewCoinsController(db, cfg, eng)
	coins := app.Group("/api/coins", authMiddleware)
	coins.Get("/balance", coinsController.GetBalance)
	coins.Get("/transactions", coinsController.GetTransactions)

	// Progress routes
	progressController := controllers.NewProgressController(db, cfg, eng)
	app.Get("/api/progress/overview", authMiddleware, progressController.GetProgressOverview)

	// Admin routes
	admin := app.Group("/api/admin", authMiddleware, adminMiddleware)
	admin.Post("/cohorts", cohortsController.CreateCohort)
	admin.Post("/cohorts/:id/weeks", cohortsController.AddWeek)
	admin.Put("/weeks/:id/policy", cohortsController.UpdateWeekPolicy)
	admin.Post("/weeks/:id/units", cohortsController.AddUnit)
	admin.Put("/units/:id", cohortsController.UpdateUnit)
	admin.Post("/coins/adjust", coinsController.AdjustCoins)
	admin.Get("/coins/:userId/verify", coinsController.VerifyBalance)
	admin.Post("/coins/:userId/rebuild", coinsController.RebuildBalance)
}
