package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gymsubs/internal/api/v1/router"
	"gymsubs/internal/bootstrap"
	"gymsubs/internal/config"
	"gymsubs/internal/database"
	"gymsubs/internal/logger"

	"github.com/joho/godotenv"
)

// @title Gym Subscriptions API
// @version 1.0
// @description Plan entitlements, usage limits and plan changes
// @host localhost:8080
// @BasePath /v1
// @Schemes http https

func main() {
	log := logger.New()

	// 1. Load configuration
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("Warning: no .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Msgf("Error loading config: %v", err)
	}
	log = log.Level(logger.ParseLevel(cfg.LogLevel))
	if err := cfg.ValidateServer(); err != nil {
		log.Fatal().Err(err).Msg("Invalid server config")
	}
	log.Info().Str("environment", cfg.Environment).Msg("App environment loaded")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2. Connect to the database and build services
	container, err := bootstrap.New(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize services")
	}
	defer container.Close()

	jwtSecret, err := bootstrap.ResolveJWTSecret(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to resolve JWT secret")
	}

	// 3. Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router.New(cfg, container, jwtSecret, database.Healthcheck(container.Pool), log),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// 4. Start server in a goroutine
	go func() {
		log.Info().Msgf("Server starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Listen failed")
			stop()
		}
	}()

	// 5. Graceful shutdown
	<-ctx.Done()
	log.Info().Msg("Shutdown signal received, exiting...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
		os.Exit(1)
	}
	log.Info().Msg("Server shut down gracefully")
}
