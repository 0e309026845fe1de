package service

import (
	"context"
	"fmt"

	"gymsubs/internal/model"
	"gymsubs/internal/repository"

	"github.com/rs/zerolog"
)

// EntitlementService resolves the plan a user is currently entitled to.
type EntitlementService interface {
	// Resolve returns the user's active subscription joined to its plan, or an
	// entitlement synthesized from the default plan when there is none.
	Resolve(ctx context.Context, userID string) (*model.Entitlement, error)
	HasFeature(ctx context.Context, userID string, feature model.Feature) (bool, error)
}

type entitlementService struct {
	repo            repository.SubscriptionRepository
	defaultPlanName string
	logger          zerolog.Logger
}

// NewEntitlementService creates a new EntitlementService with a scoped logger.
func NewEntitlementService(repo repository.SubscriptionRepository, logger zerolog.Logger, opts ...Option) EntitlementService {
	o := newOptions(opts)
	return &entitlementService{
		repo:            repo,
		defaultPlanName: o.defaultPlanName,
		logger:          logger.With().Str("service", "EntitlementService").Logger(),
	}
}

func (s *entitlementService) Resolve(ctx context.Context, userID string) (*model.Entitlement, error) {
	ent, err := s.repo.FindActiveSubscription(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to fetch active subscription")
		return nil, err
	}
	if ent != nil {
		return ent, nil
	}

	plan, err := s.repo.FindPlanByName(ctx, s.defaultPlanName)
	if err != nil {
		s.logger.Error().Err(err).Str("plan_name", s.defaultPlanName).Msg("Failed to fetch default plan")
		return nil, err
	}
	if plan == nil {
		s.logger.Error().Str("plan_name", s.defaultPlanName).Msg("Default plan is missing from subscription_plans")
		return nil, fmt.Errorf("%w: no plan named %q", ErrConfiguration, s.defaultPlanName)
	}
	return model.DefaultEntitlement(userID, plan), nil
}

func (s *entitlementService) HasFeature(ctx context.Context, userID string, feature model.Feature) (bool, error) {
	ent, err := s.Resolve(ctx, userID)
	if err != nil {
		return false, err
	}
	return ent.Has(feature), nil
}
