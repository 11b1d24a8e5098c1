package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/Ali-LB/dbcc/internal/app/service"
	"github.com/Ali-LB/dbcc/internal/common/security"
	"github.com/Ali-LB/dbcc/internal/domain/repository"
	"github.com/Ali-LB/dbcc/internal/lib/logger/sl"
	"github.com/Ali-LB/dbcc/internal/platform/config"
	"github.com/Ali-LB/dbcc/internal/platform/database"
)

// seed creates the initial admin account from ADMIN_* settings.
func main() {
	config.Load()
	cfg := config.AppConfig
	log := sl.New(cfg.Env)

	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		log.Error("ADMIN_EMAIL and ADMIN_PASSWORD must be set")
		os.Exit(1)
	}

	database.Connect(log)
	defer database.Close(log)

	if _, err := database.MigrateUp(database.DB); err != nil {
		log.Error("failed to apply migrations", sl.Err(err))
		os.Exit(1)
	}

	users := service.NewUserAdminService(log, repository.NewPgUserRepository(database.DB), security.NewBcryptHasher(cfg.BcryptCost))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	created, err := users.Bootstrap(ctx, service.BootstrapAdminRequest{
		Email:     cfg.AdminEmail,
		Password:  cfg.AdminPassword,
		Username:  cfg.AdminUsername,
		FirstName: cfg.AdminFirstName,
		LastName:  cfg.AdminLastName,
	})
	if err != nil {
		log.Error("failed to seed admin", sl.Err(err))
		os.Exit(1)
	}
	log.Info("seed finished", slog.Bool("admin_created", created))
}
