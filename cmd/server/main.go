package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"edvisa-admin/internal/adapters/events"
	"edvisa-admin/internal/adapters/http/middleware"
	"edvisa-admin/internal/adapters/http/routes"
	"edvisa-admin/internal/adapters/persistence/models"
	"edvisa-admin/internal/adapters/persistence/repositories"
	"edvisa-admin/internal/config"
	"edvisa-admin/internal/core/authz"
	"edvisa-admin/internal/core/services"
	"edvisa-admin/internal/pkg/metrics"

	"github.com/gofiber/fiber/v2"

	_ "edvisa-admin/docs" // Swagger docs
)

// @title Edvisa Admin API
// @version 1.0
// @description Back-office API for the Edvisa consultancy: users, permissions and client files.

// @contact.name API Support
// @contact.email support@edvisa.example

// @host localhost:3000
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load configuration: %v", err)
	}

	// Load role defaults before touching the database
	catalog, err := authz.LoadCatalog(cfg.Authz.DefaultsFile)
	if err != nil {
		log.Fatalf("❌ Failed to load permission defaults: %v", err)
	}

	// Connect to database
	db, err := config.ConnectDatabase(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer config.CloseDatabase()

	if err := models.AutoMigrate(db); err != nil {
		log.Fatalf("❌ Failed to auto migrate: %v", err)
	}
	log.Println("✅ Database migration completed")

	if err := config.NewSeeder(db, cfg.Admin).Run(); err != nil {
		log.Printf("⚠️ Warning: %v", err)
	}

	// Event publisher
	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.RabbitMQ.URI != "" {
		rabbit, err := events.NewRabbitMQPublisher(cfg.RabbitMQ.URI)
		if err != nil {
			log.Fatalf("❌ Failed to connect to RabbitMQ: %v", err)
		}
		defer rabbit.Close()
		publisher = rabbit
	} else {
		log.Println("⚠️ RABBITMQ_URI not set, events are discarded")
	}

	m := metrics.New()

	// Purge expired refresh tokens on schedule
	cronService := services.NewCronService(repositories.NewRefreshTokenRepository(db), m, cfg.Cron.TokenCleanupSpec)
	if err := cronService.Start(); err != nil {
		log.Fatalf("❌ Failed to start cron service: %v", err)
	}
	defer cronService.Stop()

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "Edvisa Admin API v1.0",
		ErrorHandler: middleware.CustomErrorHandler,
	})

	// Setup middlewares
	middleware.Setup(app, cfg)

	routes.Setup(app, routes.Deps{
		DB:        db,
		Config:    cfg,
		Catalog:   catalog,
		Publisher: publisher,
		Metrics:   m,
	})

	// Graceful shutdown
	go gracefulShutdown(app)

	// Start server
	log.Printf("🚀 Server starting on port %s [MODE: %s]", cfg.Port, cfg.AppMode)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}

// gracefulShutdown handles graceful shutdown
func gracefulShutdown(app *fiber.App) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Printf("❌ Error during shutdown: %v", err)
	}
	log.Println("✅ Server stopped gracefully")
}
