package main

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"coursebox/backend/config"
	"coursebox/backend/engine"
	"coursebox/backend/logger"
	"coursebox/backend/middleware"
	"coursebox/backend/routes"
	"coursebox/backend/utils"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	// Initialize logger
	appLogger, err := logger.New(cfg.LogMode)
	if err != nil {
		log.Fatalf("Error initializing logger: %v", err)
	}
	defer appLogger.Sync()

	// Initialize database
	db, err := utils.InitDB(cfg)
	if err != nil {
		appLogger.Fatal("Error initializing database", "error", err)
	}

	// Progression engine
	eng := engine.New(db, appLogger)

	// Create Fiber app
	app := fiber.New()

	// Middleware
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	app.Use(middleware.LoggingMiddleware(appLogger))

	// Setup routes
	routes.SetupRoutes(app, db, cfg, eng)

	// Start server
	appLogger.Info("starting server", "port", cfg.ServerPort)
	if err := app.Listen(":" + cfg.ServerPort); err != nil {
		appLogger.Fatal("server stopped", "error", err)
	}
}
