// Package database owns the schema and applies it with goose.
package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

const migrationsDir = "migrations"

// Migrate applies all pending migrations to the database at dsn.
func Migrate(ctx context.Context, dsn string) error {
	return withDB(ctx, dsn, func(db *sql.DB) error {
		return goose.UpContext(ctx, db, migrationsDir)
	})
}

// Rollback reverts the most recent migration.
func Rollback(ctx context.Context, dsn string) error {
	return withDB(ctx, dsn, func(db *sql.DB) error {
		return goose.DownContext(ctx, db, migrationsDir)
	})
}

// Status prints the state of every migration through goose's logger.
func Status(ctx context.Context, dsn string) error {
	return withDB(ctx, dsn, func(db *sql.DB) error {
		return goose.StatusContext(ctx, db, migrationsDir)
	})
}

func withDB(ctx context.Context, dsn string, fn func(db *sql.DB) error) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	if err := fn(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
