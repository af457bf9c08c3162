package main

import (
	"database/sql"
	"fmt"
	"os"

	"capellawish/internal/config"
	"capellawish/internal/pkg/logger"
	"capellawish/internal/repository/postgres"
	redisrepo "capellawish/internal/repository/redis"
	"capellawish/internal/service/worker"

	_ "github.com/lib/pq"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Validate worker-specific configuration
	if err := cfg.ValidateForWorker(); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	// Setup logging
	log := logger.New(cfg.LogLevel)
	log.Info("Starting worker service...")

	// Connect to PostgreSQL
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Test database connection
	if err := db.Ping(); err != nil {
		log.Error("Failed to ping database", "error", err)
		os.Exit(1)
	}

	// Run database migrations
	if err := postgres.RunMigrations(db, log); err != nil {
		log.Error("Failed to run database migrations", "error", err)
		os.Exit(1)
	}

	// Connect to Redis
	redisClient, err := redisrepo.NewClient(cfg.RedisURL, log)
	if err != nil {
		log.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	// Create repositories
	queueRepo := redisrepo.NewQueueRepository(redisClient, log)
	itemRepo := postgres.NewItemRepository(db, cfg.MediaDir, log)

	// Create worker service
	workerService, err := worker.New(cfg, log, itemRepo, queueRepo)
	if err != nil {
		log.Error("Failed to create worker service", "error", err)
		os.Exit(1)
	}

	// Start blocks until a shutdown signal arrives and the job loops drain
	if err := workerService.Start(); err != nil {
		log.Error("Worker service failed", "error", err)
		os.Exit(1)
	}

	log.Info("Worker service shutdown complete")
}
