package service

import (
	"context"
	"fmt"

	"gymsubs/internal/model"
	"gymsubs/internal/repository"

	"github.com/rs/zerolog"
)

// LimitService compares a user's resource usage with the caps of their plan.
type LimitService interface {
	Check(ctx context.Context, userID string, resource model.Resource) (*model.UsageReport, error)
	CheckAll(ctx context.Context, userID string) ([]model.UsageReport, error)
	// Allowed reports whether one more resource may be created. Any failure denies.
	Allowed(ctx context.Context, userID string, resource model.Resource) bool
}

type limitService struct {
	entitlements    EntitlementService
	usage           repository.UsageRepository
	excludeApproved bool
	logger          zerolog.Logger
}

// NewLimitService creates a new LimitService with a scoped logger.
func NewLimitService(entitlements EntitlementService, usage repository.UsageRepository, logger zerolog.Logger, opts ...Option) LimitService {
	o := newOptions(opts)
	return &limitService{
		entitlements:    entitlements,
		usage:           usage,
		excludeApproved: o.excludeApproved,
		logger:          logger.With().Str("service", "LimitService").Logger(),
	}
}

func (s *limitService) Check(ctx context.Context, userID string, resource model.Resource) (*model.UsageReport, error) {
	res, ok := model.ParseResource(string(resource))
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidResource, resource)
	}
	ent, err := s.resolve(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.report(ctx, ent, res)
}

func (s *limitService) CheckAll(ctx context.Context, userID string) ([]model.UsageReport, error) {
	ent, err := s.resolve(ctx, userID)
	if err != nil {
		return nil, err
	}
	reports := make([]model.UsageReport, 0, len(model.Resources))
	for _, res := range model.Resources {
		r, err := s.report(ctx, ent, res)
		if err != nil {
			return nil, err
		}
		reports = append(reports, *r)
	}
	return reports, nil
}

func (s *limitService) Allowed(ctx context.Context, userID string, resource model.Resource) bool {
	r, err := s.Check(ctx, userID, resource)
	if err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID).Str("resource", string(resource)).Msg("Limit check failed, denying")
		return false
	}
	return !r.LimitReached
}

func (s *limitService) resolve(ctx context.Context, userID string) (*model.Entitlement, error) {
	ent, err := s.entitlements.Resolve(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoEntitlement, err)
	}
	return ent, nil
}

func (s *limitService) report(ctx context.Context, ent *model.Entitlement, res model.Resource) (*model.UsageReport, error) {
	limit, _ := ent.CapFor(res)
	r := &model.UsageReport{
		Resource:   res,
		PlanName:   ent.PlanName,
		MaxAllowed: limit,
		Remaining:  limit,
	}
	// Paid plans without a ceiling never need the count.
	if ent.IsPaid() && limit.IsUnlimited() {
		return r, nil
	}

	count, err := s.count(ctx, ent.UserID, res)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", ent.UserID).Str("resource", string(res)).Msg("Failed to count resource usage")
		return nil, err
	}
	r.Counted = true
	r.CurrentCount = count
	r.LimitReached = limit.Reached(count)
	r.Remaining = limit.Remaining(count)
	return r, nil
}

func (s *limitService) count(ctx context.Context, userID string, res model.Resource) (int64, error) {
	switch res {
	case model.ResourceWorkout:
		return s.usage.CountActiveWorkoutAssignments(ctx, userID)
	case model.ResourceCustomExercise:
		return s.usage.CountUserCreatedExercises(ctx, userID, s.excludeApproved)
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidResource, res)
	}
}
