// main.go
package main

import (
	"log"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"coursequest/database"
	"coursequest/gamification"
	"coursequest/handlers"
	"coursequest/middleware"
	"coursequest/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	validateEnvironment()

	database.InitDB()
	defer database.CloseDB()

	// Wire the gamification engine.
	svc := services.NewGamificationService(database.GetDB(), gamification.NewBonusRoller())
	hub := handlers.NewEventHub()
	svc.SetNotifier(hub)
	handlers.InitGamificationHandlers(svc)

	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
		BodyLimit:    4 * 1024 * 1024, // 4MB
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	})

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${method} ${path} (${latency})\n",
	}))

	corsOrigins := os.Getenv("CORS_ORIGINS")
	if corsOrigins == "" {
		corsOrigins = "http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     corsOrigins,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
	}))

	app.Use(middleware.RateLimitMiddleware())

	api := app.Group("/api")

	// Auth routes with stricter rate limiting
	authGroup := api.Group("/auth")
	authGroup.Use(middleware.AuthRateLimitMiddleware())
	authGroup.Post("/guest", handlers.GuestLogin)
	authGroup.Post("/login", handlers.Login)
	authGroup.Post("/register", handlers.Register)

	// Leaderboard is public
	api.Get("/leaderboard", handlers.GetLeaderboard)

	// Gamification routes (require authentication)
	gam := api.Group("/gamification")
	gam.Use(middleware.AuthMiddleware)
	gam.Post("/award", handlers.AwardXP)
	gam.Post("/checkin", handlers.CheckIn)
	gam.Get("/stats", handlers.GetStats)
	gam.Post("/freeze", handlers.PurchaseFreeze)
	gam.Get("/achievements", handlers.GetUserAchievements)
	gam.Get("/courses/:id/progress", handlers.GetCourseProgress)
	gam.Post("/courses/:id/reset", handlers.ResetCourseProgress)

	// Live event push for client-side animations
	app.Use("/ws/notifications", middleware.AuthMiddleware, handlers.UpgradeRequired)
	app.Get("/ws/notifications", hub.NotificationSocket())

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("🚀 CourseQuest server starting on port %s", port)
	if err := app.Listen(":" + port); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}

func validateEnvironment() {
	if os.Getenv("JWT_SECRET") == "" {
		log.Println("Warning: JWT_SECRET not set, using insecure default")
	}
	if os.Getenv("DATABASE_URL") == "" && os.Getenv("DB_HOST") == "" {
		log.Println("Warning: no database configuration found, using localhost defaults")
	}
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"success": false,
		"error":   err.Error(),
	})
}
