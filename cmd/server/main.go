package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Ali-LB/dbcc/internal/api"
	"github.com/Ali-LB/dbcc/internal/app/service"
	"github.com/Ali-LB/dbcc/internal/app/worker"
	"github.com/Ali-LB/dbcc/internal/common/security"
	"github.com/Ali-LB/dbcc/internal/domain/repository"
	"github.com/Ali-LB/dbcc/internal/lib/logger/sl"
	"github.com/Ali-LB/dbcc/internal/platform/config"
	"github.com/Ali-LB/dbcc/internal/platform/database"
	"github.com/Ali-LB/dbcc/internal/platform/mailer"
	"github.com/Ali-LB/dbcc/internal/platform/queue"
)

func main() {
	// 1. Load Configuration
	config.Load()
	cfg := config.AppConfig
	log := sl.New(cfg.Env)
	log.Info("configuration loaded", slog.String("env", cfg.Env))

	// 2. Initialize JWT
	security.InitJWT(cfg.JWTKey, cfg.JWTExp)

	// 3. Initialize Database
	database.Connect(log)
	defer database.Close(log)
	if applied, err := database.MigrateUp(database.DB); err != nil {
		log.Error("failed to apply migrations", sl.Err(err))
		os.Exit(1)
	} else if applied {
		log.Info("migrations applied")
	}

	// 4. Initialize Redis
	queue.ConnectRedis(log)
	defer queue.CloseRedis(log)

	// 5. Initialize Repositories
	userRepo := repository.NewPgUserRepository(database.DB)
	tokenRepo := repository.NewPgTokenRepository(database.DB)
	eventRepo := repository.NewPgEventRepository(database.DB)
	registrationRepo := repository.NewPgRegistrationRepository(database.DB)
	transactor := repository.NewSQLTransactor(database.DB)

	// 6. Initialize Services
	hasher := security.NewBcryptHasher(cfg.BcryptCost)
	notifications := queue.NewNotificationQueue(queue.RDB, cfg.NotificationQueueName)
	tokenService := service.NewTokenService(log, tokenRepo, userRepo, transactor, hasher, notifications, service.TokenTTLs{
		Confirmation: cfg.ConfirmationTokenTTL,
		Reset:        cfg.ResetTokenTTL,
	})
	authService := service.NewAuthService(log, userRepo, tokenService, transactor, hasher, security.GenerateToken)
	eventService := service.NewEventService(log, eventRepo)
	registrationService := service.NewRegistrationService(log, eventRepo, registrationRepo, transactor)
	userAdminService := service.NewUserAdminService(log, userRepo, hasher)

	// 7. Initialize Notification Worker (as a goroutine)
	notificationWorker := worker.NewNotificationWorker(log, notifications, mailer.NewLogMailer(log), cfg.AppBaseURL, cfg.NotificationMaxAttempts)
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	go notificationWorker.Start(workerCtx)

	// 8. Initialize Router & HTTP Server
	limiter := queue.NewRateLimiter(queue.RDB, cfg.RateLimitRequests, cfg.RateLimitWindow)
	router := api.NewRouter(log, authService, tokenService, eventService, registrationService, userAdminService, limiter)

	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 9. Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Info("server starting", slog.String("port", cfg.APIPort))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("could not listen", slog.String("port", cfg.APIPort), sl.Err(err))
			os.Exit(1)
		}
	}()

	sig := <-stop
	log.Info("shutting down server", slog.String("signal", sig.String()))
	workerCancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown failed", sl.Err(err))
		return
	}
	tokenService.Wait()

	log.Info("server and worker stopped gracefully")
}
