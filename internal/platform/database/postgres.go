package database

import (
	"database/sql"
	"log/slog"
	"os"
	"time"

	"github.com/Ali-LB/dbcc/internal/lib/logger/sl"
	"github.com/Ali-LB/dbcc/internal/platform/config"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
)

var DB *sql.DB

func Connect(log *slog.Logger) {
	var err error
	DB, err = Open(config.AppConfig.DBConnStr)
	if err != nil {
		log.Error("failed to connect to database", sl.Err(err))
		os.Exit(1)
	}
	log.Info("connected to PostgreSQL", slog.String("host", config.AppConfig.DBHost), slog.String("db", config.AppConfig.DBName))
}

// Open opens and pings a pgx-backed pool.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err = db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func Close(log *slog.Logger) {
	if DB != nil {
		DB.Close()
		log.Info("database connection closed")
	}
}
