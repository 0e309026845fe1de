package router

import (
	"context"
	"net/http"
	"strings"
	"time"

	"gymsubs/internal/api/v1/handler"
	"gymsubs/internal/bootstrap"
	"gymsubs/internal/config"
	"gymsubs/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

// HealthFunc reports whether the service dependencies are reachable.
type HealthFunc func(ctx context.Context) error

// New builds the HTTP handler for the API.
func New(cfg *config.Config, c *bootstrap.Container, jwtSecret string, health HealthFunc, logger zerolog.Logger) http.Handler {
	validate := validator.New(validator.WithRequiredStructEnabled())

	subscriptionHandler := handler.NewSubscriptionHandler(c.Entitlements, c.Plans, validate, logger)
	limitHandler := handler.NewLimitHandler(c.Limits, c.Entitlements, logger)

	r := chi.NewRouter()
	r.Use(middleware.LoggerMiddleware(logger))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := health(ctx); err != nil {
			logger.Error().Err(err).Msg("Health check failed")
			http.Error(w, "unhealthy", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/v1", func(r chi.Router) {
		r.Use(middleware.AuthMiddleware(jwtSecret, logger))
		subscriptionHandler.RegisterRoutes(r)
		limitHandler.RegisterRoutes(r)
	})

	// Redirect /api/* to /v1/* for backward compatibility
	r.HandleFunc("/api/*", func(w http.ResponseWriter, r *http.Request) {
		rest := strings.TrimPrefix(r.URL.Path, "/api/")
		http.Redirect(w, r, "/v1/"+rest, http.StatusMovedPermanently)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"not found"}`))
	})

	corsMw := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader},
		AllowCredentials: true,
	})
	return corsMw.Handler(r)
}
