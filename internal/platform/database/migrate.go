package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

const migrationsTable = "schema_migrations"

// NewMigrator builds a migrate instance over db using the embedded SQL files.
func NewMigrator(db *sql.DB) (*migrate.Migrate, error) {
	const op = "database.NewMigrator"

	source, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return nil, fmt.Errorf("%s: source: %w", op, err)
	}
	driver, err := pgx.WithInstance(db, &pgx.Config{MigrationsTable: migrationsTable})
	if err != nil {
		return nil, fmt.Errorf("%s: driver: %w", op, err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "pgx5", driver)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return m, nil
}

// MigrateUp applies all pending migrations. It reports whether anything changed.
func MigrateUp(db *sql.DB) (bool, error) {
	m, err := NewMigrator(db)
	if err != nil {
		return false, err
	}
	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			return false, nil
		}
		return false, fmt.Errorf("database.MigrateUp: %w", err)
	}
	return true, nil
}

// MigrateDown reverts every applied migration.
func MigrateDown(db *sql.DB) (bool, error) {
	m, err := NewMigrator(db)
	if err != nil {
		return false, err
	}
	if err := m.Down(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			return false, nil
		}
		return false, fmt.Errorf("database.MigrateDown: %w", err)
	}
	return true, nil
}
