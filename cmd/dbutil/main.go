package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"

	"capellawish/internal/config"
	"capellawish/internal/pkg/logger"
	"capellawish/internal/repository/postgres"

	_ "github.com/lib/pq"
)

// dbutil runs one-off database maintenance commands:
//
//	dbutil migrate   apply pending migrations
//	dbutil status    print the current schema version
//	dbutil reset     drop all tables and re-run migrations (destructive)
func main() {
	cfg := config.Load()
	log := logger.New(cfg.LogLevel)

	command := flag.Arg(0)
	if command == "" {
		fmt.Fprintln(os.Stderr, "Usage: dbutil <migrate|status|reset>")
		os.Exit(2)
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Error("Failed to ping database", "error", err)
		os.Exit(1)
	}

	switch command {
	case "migrate":
		if err := postgres.RunMigrations(db, log); err != nil {
			log.Error("Migration failed", "error", err)
			os.Exit(1)
		}
		log.Info("Migrations applied")

	case "status":
		version, err := postgres.GetMigrationStatus(db)
		if err != nil {
			log.Error("Failed to read migration status", "error", err)
			os.Exit(1)
		}
		fmt.Printf("schema version: %d\n", version)

	case "reset":
		fmt.Print("This drops ALL data. Type 'yes' to continue: ")
		var answer string
		fmt.Scanln(&answer)
		if answer != "yes" {
			fmt.Println("Aborted.")
			return
		}
		if err := postgres.ResetDatabase(context.Background(), db, log); err != nil {
			log.Error("Reset failed", "error", err)
			os.Exit(1)
		}
		log.Info("Database reset complete")

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		os.Exit(2)
	}
}
