package bootstrap

import (
	"context"
	"fmt"

	"gymsubs/internal/config"
	"gymsubs/internal/database"
	"gymsubs/internal/pubsub"
	"gymsubs/internal/repository"
	"gymsubs/internal/secrets"
	"gymsubs/internal/service"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"
)

// Container holds the shared pool and the subscription services built on it.
type Container struct {
	Pool         *pgxpool.Pool
	Entitlements service.EntitlementService
	Limits       service.LimitService
	Plans        service.PlanService

	publisher *pubsub.PubSubPublisher
}

// New connects to the database and wires repositories and services.
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*Container, error) {
	pool, err := database.Connect(ctx, cfg.PoolConfig(), logger)
	if err != nil {
		return nil, err
	}

	c := &Container{Pool: pool}
	opts := []service.Option{service.WithDefaultPlanName(cfg.DefaultPlanName)}
	if cfg.ExcludeApprovedExercises {
		opts = append(opts, service.WithExcludeApprovedExercises())
	}
	if cfg.EventsEnabled() {
		c.publisher, err = pubsub.NewPublisher(ctx, cfg.GCPProjectID, publisherOptions(cfg)...)
		if err != nil {
			pool.Close()
			return nil, err
		}
		opts = append(opts, service.WithEventPublisher(c.publisher, cfg.PubSubPlanEventsTopic))
		logger.Info().Str("topic", cfg.PubSubPlanEventsTopic).Msg("Plan change events enabled")
	}

	subRepo := repository.NewSubscriptionRepo(pool)
	usageRepo := repository.NewUsageRepo(pool)

	c.Entitlements = service.NewEntitlementService(subRepo, logger, opts...)
	c.Limits = service.NewLimitService(c.Entitlements, usageRepo, logger, opts...)
	c.Plans = service.NewPlanService(subRepo, logger, opts...)
	return c, nil
}

// Close releases the publisher and the pool.
func (c *Container) Close() {
	if c.publisher != nil {
		_ = c.publisher.Close()
	}
	c.Pool.Close()
}

// ResolveJWTSecret returns the configured JWT key material, reading it from
// Secret Manager when JWT_SECRET_RESOURCE is set.
func ResolveJWTSecret(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (string, error) {
	if cfg.JWTSecretResource == "" {
		return cfg.JWTSecret, nil
	}
	sm, err := secrets.NewSecretManager(ctx, cfg.GCPProjectID, cfg.GCPCredentialsFile)
	if err != nil {
		return "", err
	}
	defer sm.Close()

	secret, err := sm.Access(ctx, cfg.JWTSecretResource)
	if err != nil {
		return "", fmt.Errorf("resolve jwt secret: %w", err)
	}
	logger.Info().Msg("JWT secret loaded from Secret Manager")
	return secret, nil
}

func publisherOptions(cfg *config.Config) []option.ClientOption {
	if cfg.PubSubEmulatorHost != "" {
		return pubsub.EmulatorOptions(cfg.PubSubEmulatorHost)
	}
	if cfg.GCPCredentialsFile == "" {
		return nil
	}
	return []option.ClientOption{option.WithCredentialsFile(cfg.GCPCredentialsFile)}
}
