package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// Migration represents a database migration
type Migration struct {
	Version int
	Name    string
	SQL     string
}

// migrations contains all database migrations in order
var migrations = []Migration{
	{
		Version: 1,
		Name:    "initial_schema",
		SQL: `
			-- Create users table
			CREATE TABLE IF NOT EXISTS users (
				id SERIAL PRIMARY KEY,
				email VARCHAR(254) NOT NULL UNIQUE,
				username VARCHAR(150) NOT NULL UNIQUE,
				password_hash VARCHAR(100) NOT NULL,
				first_name VARCHAR(150) NOT NULL DEFAULT '',
				last_name VARCHAR(150) NOT NULL DEFAULT '',
				alias_name VARCHAR(150) NOT NULL DEFAULT '',
				is_active BOOLEAN NOT NULL DEFAULT TRUE,
				is_staff BOOLEAN NOT NULL DEFAULT FALSE,
				email_verified BOOLEAN NOT NULL DEFAULT FALSE,
				created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE
			);

			-- Create blob_images table (content-addressed image store)
			CREATE TABLE IF NOT EXISTS blob_images (
				id BIGSERIAL PRIMARY KEY,
				path TEXT NOT NULL,
				sha256_hash CHAR(64) NOT NULL UNIQUE,
				uploaded_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
			);

			-- Create wish_items table
			CREATE TABLE IF NOT EXISTS wish_items (
				id BIGSERIAL PRIMARY KEY,
				uuid UUID NOT NULL UNIQUE DEFAULT gen_random_uuid(),
				title VARCHAR(400) NOT NULL DEFAULT '',
				description TEXT NOT NULL DEFAULT '',
				image_blob_id BIGINT REFERENCES blob_images(id) ON DELETE SET NULL,
				is_public BOOLEAN NOT NULL DEFAULT FALSE,
				is_starred BOOLEAN NOT NULL DEFAULT FALSE,
				created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE,
				completed_at TIMESTAMP WITH TIME ZONE,
				deleted_at TIMESTAMP WITH TIME ZONE,
				user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE
			);

			CREATE INDEX IF NOT EXISTS idx_item_uuid ON wish_items(uuid);
			CREATE INDEX IF NOT EXISTS idx_item_is_public ON wish_items(user_id, is_public);
			CREATE INDEX IF NOT EXISTS idx_item_is_starred ON wish_items(user_id, is_starred);
			CREATE INDEX IF NOT EXISTS idx_item_user_updated ON wish_items(user_id, updated_at DESC);

			-- Create item_sources table
			CREATE TABLE IF NOT EXISTS item_sources (
				id BIGSERIAL PRIMARY KEY,
				uuid UUID NOT NULL UNIQUE DEFAULT gen_random_uuid(),
				source_url TEXT NOT NULL,
				source_name VARCHAR(300) NOT NULL DEFAULT '',
				description TEXT NOT NULL DEFAULT '',
				is_primary BOOLEAN NOT NULL DEFAULT FALSE,
				wish_item_id BIGINT NOT NULL REFERENCES wish_items(id) ON DELETE CASCADE,

				UNIQUE(wish_item_id, source_url)
			);

			CREATE INDEX IF NOT EXISTS idx_item_source_item_url ON item_sources(wish_item_id, source_url);
			CREATE INDEX IF NOT EXISTS idx_item_source_uuid ON item_sources(uuid);

			-- Create lists table
			CREATE TABLE IF NOT EXISTS lists (
				id SERIAL PRIMARY KEY,
				uuid UUID NOT NULL UNIQUE DEFAULT gen_random_uuid(),
				title VARCHAR(200) NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				allow_completion_by_other BOOLEAN NOT NULL DEFAULT FALSE,
				allow_anonymous_completion BOOLEAN NOT NULL DEFAULT FALSE,
				is_shared BOOLEAN NOT NULL DEFAULT FALSE,
				is_deleted BOOLEAN NOT NULL DEFAULT FALSE,
				created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE,
				user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,

				UNIQUE(user_id, title)
			);

			CREATE INDEX IF NOT EXISTS idx_lists_user ON lists(user_id);
			CREATE INDEX IF NOT EXISTS idx_lists_deleted ON lists(is_deleted);
		`,
	},
}

// RunMigrations executes all pending database migrations
func RunMigrations(db *sql.DB, logger *slog.Logger) error {
	logger.Info("Running database migrations...")

	// Create migrations table
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS migrations (
			version INTEGER PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			applied_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	err = db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM migrations").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get current version: %w", err)
	}

	logger.Info("Current migration version", "version", currentVersion)

	// Apply pending migrations
	applied := 0
	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		logger.Info("Applying migration",
			"version", migration.Version,
			"name", migration.Name,
		)

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin transaction for migration %d: %w", migration.Version, err)
		}

		if _, err := tx.Exec(migration.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to apply migration %d (%s): %w", migration.Version, migration.Name, err)
		}

		if _, err := tx.Exec("INSERT INTO migrations (version, name) VALUES ($1, $2)",
			migration.Version, migration.Name); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}

		applied++
		logger.Info("Migration applied successfully", "version", migration.Version)
	}

	if applied == 0 {
		logger.Info("No migrations to apply - database is up to date")
	} else {
		logger.Info("Database migrations completed", "applied", applied)
	}

	return nil
}

// GetMigrationStatus returns the current migration status
func GetMigrationStatus(db *sql.DB) (int, error) {
	var version int
	err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM migrations").Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("failed to get migration status: %w", err)
	}
	return version, nil
}

// ResetDatabase drops all tables (for testing)
func ResetDatabase(ctx context.Context, db *sql.DB, logger *slog.Logger) error {
	logger.Warn("Resetting database - all data will be lost")

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Drop tables in reverse dependency order
	dropSQL := []string{
		"DROP TABLE IF EXISTS item_sources CASCADE",
		"DROP TABLE IF EXISTS wish_items CASCADE",
		"DROP TABLE IF EXISTS blob_images CASCADE",
		"DROP TABLE IF EXISTS lists CASCADE",
		"DROP TABLE IF EXISTS users CASCADE",
		"DROP TABLE IF EXISTS migrations CASCADE",
	}

	for _, sql := range dropSQL {
		if _, err := tx.ExecContext(ctx, sql); err != nil {
			return fmt.Errorf("failed to execute drop statement: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit reset transaction: %w", err)
	}

	logger.Info("Database reset completed")
	return nil
}
