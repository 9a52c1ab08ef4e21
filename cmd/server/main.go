package main

import (
	"context"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"casting-studio/backend/internal/models"
	"casting-studio/backend/pkg/config"
	"casting-studio/backend/pkg/di"
	"casting-studio/backend/pkg/logger"
	"casting-studio/backend/pkg/observability"
	"casting-studio/backend/pkg/router"
	"casting-studio/backend/pkg/secrets"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		stdlog.Println("No .env file found")
	}

	cfg := config.New()

	// Initialize structured logger
	logConfig := logger.DefaultConfig()
	logConfig.Level = cfg.Logging.Level
	logConfig.JSON = cfg.Logging.Format != "text"

	log := logger.New(logConfig)
	logger.SetGlobal(log)

	log.Info("Starting application", "version", os.Getenv("APP_VERSION"))

	// Secrets manager (Vault with environment fallback)
	if err := secrets.Init(log); err != nil {
		log.Warn("Secrets manager unavailable, using environment variables only", "error", err)
	}

	// Tracing
	shutdownTracing := observability.SetupTracing("casting-studio-backend")
	defer shutdownTracing()

	// Initialize database
	db, err := config.NewDB()
	if err != nil {
		log.LogError(err, "Failed to initialize database")
		os.Exit(1)
	}

	// Auto-migrate the schema
	if err := db.AutoMigrate(&models.Character{}, &models.CharacterAsset{}); err != nil {
		log.LogError(err, "Failed to migrate database")
		os.Exit(1)
	}

	// Create indexes for better query performance
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_characters_user_created ON characters(user_id, created_at DESC)").Error; err != nil {
		log.LogError(err, "Failed to create character index", "index", "idx_characters_user_created")
	}
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_character_assets_character ON character_assets(character_id, created_at)").Error; err != nil {
		log.LogError(err, "Failed to create asset index", "index", "idx_character_assets_character")
	}

	// Initialize dependency injection container
	container, err := di.New(db, cfg, log)
	if err != nil {
		log.LogError(err, "Failed to initialize dependency container")
		os.Exit(1)
	}

	// Start background health checks
	container.Health.Start()

	// Request validation schema; the router skips validation if it is missing
	schemaPath := os.Getenv("OPENAPI_SCHEMA_PATH")
	if schemaPath == "" {
		schemaPath = "api/openapi.yaml"
	}

	// Build the HTTP surface
	r := router.New(router.Dependencies{
		Config:        cfg,
		Log:           log,
		Handler:       container.NewHandler(),
		JWTService:    container.JWTService,
		Redis:         container.Redis,
		Health:        container.Health,
		Metrics:       container.MetricsHandler,
		OpenAPISchema: schemaPath,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}

	// Start the server in a goroutine
	go func() {
		log.Info("Server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.LogError(err, "Server failed to start")
			os.Exit(1)
		}
	}()

	// Setup graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.LogError(err, "Server forced to shutdown")
	}
	if container.MeterProvider != nil {
		if err := container.MeterProvider.Shutdown(ctx); err != nil {
			log.LogError(err, "Meter provider forced to shutdown")
		}
	}

	log.Info("Server exited gracefully")
}
