package main

import (
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/easytrack/easytrack-api/config"
	"github.com/easytrack/easytrack-api/handlers"
	"github.com/easytrack/easytrack-api/middleware"
	"github.com/easytrack/easytrack-api/routes"
	"github.com/easytrack/easytrack-api/scheduler"
	"github.com/easytrack/easytrack-api/services"
	"github.com/easytrack/easytrack-api/store"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	if level, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
		log.SetLevel(level)
	}

	if err := godotenv.Load(); err != nil {
		log.Info("No .env file found, using environment variables")
	}

	db, err := config.InitDB()
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	if err := config.RunMigrations(db); err != nil {
		log.WithError(err).Fatal("Failed to run migrations")
	}
	log.Info("Database connected and migrated")

	st := store.NewPostgres(db)
	svcs := services.New(st, log)
	h := handlers.New(svcs, log)

	sched := scheduler.New(svcs.Recurring, log)
	if err := sched.Start(); err != nil {
		log.WithError(err).Fatal("Failed to start scheduler")
	}
	defer sched.Stop()

	router := gin.Default()

	frontendURL := os.Getenv("FRONTEND_URL")
	if frontendURL == "" {
		frontendURL = "http://localhost:3000"
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{frontendURL},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))
	router.Use(middleware.RateLimiter())

	api := router.Group("/api")
	routes.SetupAuthRoutes(api, st)

	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware())
	routes.SetupUserRoutes(protected, st)
	routes.SetupLedgerRoutes(protected, h)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.WithField("port", port).Info("Starting server")
	if err := router.Run(":" + port); err != nil {
		log.WithError(err).Fatal("Server failed")
	}
}
