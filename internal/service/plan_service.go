package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gymsubs/internal/database"
	"gymsubs/internal/model"
	"gymsubs/internal/pubsub"
	"gymsubs/internal/repository"

	"github.com/rs/zerolog"
)

// PlanService moves users between subscription plans.
type PlanService interface {
	// ChangePlan cancels the user's active subscriptions and starts a one-month
	// subscription on planID, all in one transaction. Calling it twice yields two transitions.
	ChangePlan(ctx context.Context, userID string, planID int64) (*model.PlanChange, error)
	// EnsureDefaultSubscription binds a user without an active subscription to the default plan.
	EnsureDefaultSubscription(ctx context.Context, userID string) (bool, error)
	ListPlans(ctx context.Context) ([]model.SubscriptionPlan, error)
}

// PlanChangedEvent is published after a transition commits.
type PlanChangedEvent struct {
	Type           string    `json:"type"`
	UserID         string    `json:"user_id"`
	PlanID         int64     `json:"plan_id"`
	PlanName       string    `json:"plan_name"`
	SubscriptionID int64     `json:"subscription_id"`
	ChangedAt      time.Time `json:"changed_at"`
}

const planChangedEventType = "subscription.plan_changed"

type planService struct {
	repo            repository.SubscriptionRepository
	defaultPlanName string
	now             func() time.Time
	publisher       pubsub.Publisher
	eventsTopic     string
	logger          zerolog.Logger
}

// NewPlanService creates a new PlanService with a scoped logger.
func NewPlanService(repo repository.SubscriptionRepository, logger zerolog.Logger, opts ...Option) PlanService {
	o := newOptions(opts)
	return &planService{
		repo:            repo,
		defaultPlanName: o.defaultPlanName,
		now:             o.now,
		publisher:       o.publisher,
		eventsTopic:     o.eventsTopic,
		logger:          logger.With().Str("service", "PlanService").Logger(),
	}
}

func (s *planService) ChangePlan(ctx context.Context, userID string, planID int64) (*model.PlanChange, error) {
	plan, err := s.repo.FindPlanByID(ctx, planID)
	if err != nil {
		s.logger.Error().Err(err).Int64("plan_id", planID).Msg("Failed to fetch target plan")
		return nil, fmt.Errorf("%w: %w", ErrTransitionFailed, err)
	}
	if plan == nil {
		return nil, fmt.Errorf("%w: %d", ErrPlanNotFound, planID)
	}

	change, err := s.transition(ctx, userID, plan)
	if err != nil {
		return nil, s.transitionError(err, userID, planID)
	}
	s.logger.Info().
		Str("user_id", userID).
		Int64("plan_id", planID).
		Int64("subscription_id", change.SubscriptionID).
		Int64("cancelled", change.Cancelled).
		Msg("Plan changed")

	s.publishPlanChanged(ctx, change)
	return change, nil
}

func (s *planService) transition(ctx context.Context, userID string, plan *model.SubscriptionPlan) (*model.PlanChange, error) {
	tx, err := s.repo.BeginTx(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	now := s.now().UTC()
	cancelled, err := tx.CancelActiveSubscriptions(ctx, userID, now)
	if err != nil {
		return nil, err
	}
	sub := newSubscription(userID, plan.ID, now)
	if _, err := tx.InsertSubscription(ctx, sub); err != nil {
		return nil, err
	}
	if err := updateCurrentPlan(ctx, tx, userID, plan.ID); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return &model.PlanChange{
		UserID:         userID,
		PlanID:         plan.ID,
		PlanName:       plan.Name,
		SubscriptionID: sub.ID,
		StartDate:      sub.StartDate,
		EndDate:        sub.EndDate,
		Cancelled:      cancelled,
	}, nil
}

// transitionError logs a failed transition and wraps it as ErrTransitionFailed.
// A missing user row surfaces from the insert as a foreign key violation.
func (s *planService) transitionError(err error, userID string, planID int64) error {
	switch {
	case database.IsDuplicateKey(err):
		s.logger.Warn().Err(err).Str("user_id", userID).Int64("plan_id", planID).Msg("Concurrent plan change collided on the active subscription index")
	case database.IsForeignKeyViolation(err):
		s.logger.Warn().Err(err).Str("user_id", userID).Int64("plan_id", planID).Msg("Plan change for unknown user")
		err = fmt.Errorf("%w: %s: %w", ErrUserNotFound, userID, err)
	default:
		s.logger.Error().Err(err).Str("user_id", userID).Int64("plan_id", planID).Msg("Failed to change plan")
	}
	return fmt.Errorf("%w: %w", ErrTransitionFailed, err)
}

func (s *planService) EnsureDefaultSubscription(ctx context.Context, userID string) (bool, error) {
	plan, err := s.repo.FindPlanByName(ctx, s.defaultPlanName)
	if err != nil {
		s.logger.Error().Err(err).Str("plan_name", s.defaultPlanName).Msg("Failed to fetch default plan")
		return false, fmt.Errorf("%w: %w", ErrTransitionFailed, err)
	}
	if plan == nil {
		s.logger.Error().Str("plan_name", s.defaultPlanName).Msg("Default plan is missing from subscription_plans")
		return false, fmt.Errorf("%w: no plan named %q", ErrConfiguration, s.defaultPlanName)
	}

	created, err := s.bindDefault(ctx, userID, plan)
	if err != nil {
		return false, s.transitionError(err, userID, plan.ID)
	}
	if created {
		s.logger.Info().Str("user_id", userID).Str("plan_name", plan.Name).Msg("Default subscription created")
	}
	return created, nil
}

func (s *planService) bindDefault(ctx context.Context, userID string, plan *model.SubscriptionPlan) (bool, error) {
	tx, err := s.repo.BeginTx(ctx, userID)
	if err != nil {
		return false, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	exists, err := tx.HasActiveSubscription(ctx, userID)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}
	if _, err := tx.InsertSubscription(ctx, newSubscription(userID, plan.ID, s.now().UTC())); err != nil {
		return false, err
	}
	if err := updateCurrentPlan(ctx, tx, userID, plan.ID); err != nil {
		return false, err
	}
	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return true, nil
}

func (s *planService) ListPlans(ctx context.Context) ([]model.SubscriptionPlan, error) {
	plans, err := s.repo.ListPlans(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list plans")
		return nil, err
	}
	return plans, nil
}

func (s *planService) publishPlanChanged(ctx context.Context, change *model.PlanChange) {
	if s.publisher == nil {
		return
	}
	payload, err := json.Marshal(PlanChangedEvent{
		Type:           planChangedEventType,
		UserID:         change.UserID,
		PlanID:         change.PlanID,
		PlanName:       change.PlanName,
		SubscriptionID: change.SubscriptionID,
		ChangedAt:      change.StartDate,
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to marshal plan change event")
		return
	}
	// The transition is committed; a lost event must not fail the request.
	if _, err := s.publisher.Publish(ctx, s.eventsTopic, payload); err != nil {
		s.logger.Error().Err(err).Str("user_id", change.UserID).Str("topic", s.eventsTopic).Msg("Failed to publish plan change event")
	}
}

// newSubscription builds the fixed one-month, auto-renewing window used for every plan change.
func newSubscription(userID string, planID int64, now time.Time) *model.UserSubscription {
	return &model.UserSubscription{
		UserID:    userID,
		PlanID:    planID,
		Status:    model.StatusActive,
		StartDate: now,
		EndDate:   now.AddDate(0, 1, 0),
		AutoRenew: true,
	}
}

func updateCurrentPlan(ctx context.Context, tx repository.SubscriptionTx, userID string, planID int64) error {
	n, err := tx.UpdateUserCurrentPlan(ctx, userID, planID)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrUserNotFound, userID)
	}
	return nil
}
