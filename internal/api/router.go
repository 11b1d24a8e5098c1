package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/Ali-LB/dbcc/internal/api/handler"
	"github.com/Ali-LB/dbcc/internal/api/middleware"
	"github.com/Ali-LB/dbcc/internal/app/service"
	"github.com/Ali-LB/dbcc/internal/common/security"
	"github.com/Ali-LB/dbcc/internal/platform/metrics"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth/v5"
)

func NewRouter(
	log *slog.Logger,
	authService *service.AuthService,
	tokenService *service.TokenService,
	eventService *service.EventService,
	registrationService *service.RegistrationService,
	userAdminService *service.UserAdminService,
	limiter middleware.Limiter,
) http.Handler {
	r := chi.NewRouter()

	// Base Middlewares
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))

	// Verifies "Authorization: Bearer T" when present; ResolvePrincipal turns
	// the claims into the caller's principal, anonymous otherwise.
	r.Use(jwtauth.Verifier(security.TokenAuth))
	r.Use(middleware.ResolvePrincipal)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
	r.Handle("/metrics", metrics.Handler())

	limit := func(route string) func(http.Handler) http.Handler {
		return middleware.RateLimit(limiter, route, log)
	}

	r.Route("/api/v1", func(v1 chi.Router) {
		authHandler := handler.NewAuthHandler(authService, tokenService, limit)
		v1.Route("/auth", authHandler.RegisterRoutes)

		eventHandler := handler.NewEventHandler(eventService, registrationService)
		v1.Route("/events", eventHandler.RegisterRoutes)

		meHandler := handler.NewMeHandler(registrationService)
		v1.Route("/me", meHandler.RegisterRoutes)

		adminHandler := handler.NewAdminHandler(eventService, userAdminService)
		v1.Route("/admin", adminHandler.RegisterRoutes)
	})

	return r
}
