package service_test

import (
	"context"
	"time"

	"gymsubs/internal/model"
	"gymsubs/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type mockSubscriptionRepo struct {
	mock.Mock
}

func (m *mockSubscriptionRepo) FindActiveSubscription(ctx context.Context, userID string) (*model.Entitlement, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Entitlement), args.Error(1)
}

func (m *mockSubscriptionRepo) FindPlanByName(ctx context.Context, name string) (*model.SubscriptionPlan, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SubscriptionPlan), args.Error(1)
}

func (m *mockSubscriptionRepo) FindPlanByID(ctx context.Context, planID int64) (*model.SubscriptionPlan, error) {
	args := m.Called(ctx, planID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SubscriptionPlan), args.Error(1)
}

func (m *mockSubscriptionRepo) ListPlans(ctx context.Context) ([]model.SubscriptionPlan, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.SubscriptionPlan), args.Error(1)
}

func (m *mockSubscriptionRepo) BeginTx(ctx context.Context, userID string) (repository.SubscriptionTx, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(repository.SubscriptionTx), args.Error(1)
}

type mockTx struct {
	mock.Mock
}

func (m *mockTx) HasActiveSubscription(ctx context.Context, userID string) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

func (m *mockTx) CancelActiveSubscriptions(ctx context.Context, userID string, at time.Time) (int64, error) {
	args := m.Called(ctx, userID, at)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockTx) InsertSubscription(ctx context.Context, sub *model.UserSubscription) (int64, error) {
	args := m.Called(ctx, sub)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockTx) UpdateUserCurrentPlan(ctx context.Context, userID string, planID int64) (int64, error) {
	args := m.Called(ctx, userID, planID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockTx) Commit(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockTx) Rollback(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type mockUsageRepo struct {
	mock.Mock
}

func (m *mockUsageRepo) CountActiveWorkoutAssignments(ctx context.Context, userID string) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockUsageRepo) CountUserCreatedExercises(ctx context.Context, userID string, excludeApproved bool) (int64, error) {
	args := m.Called(ctx, userID, excludeApproved)
	return args.Get(0).(int64), args.Error(1)
}

type mockEntitlements struct {
	mock.Mock
}

func (m *mockEntitlements) Resolve(ctx context.Context, userID string) (*model.Entitlement, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Entitlement), args.Error(1)
}

func (m *mockEntitlements) HasFeature(ctx context.Context, userID string, feature model.Feature) (bool, error) {
	args := m.Called(ctx, userID, feature)
	return args.Bool(0), args.Error(1)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, topic string, payload []byte) (string, error) {
	args := m.Called(ctx, topic, payload)
	return args.String(0), args.Error(1)
}

func freePlan() *model.SubscriptionPlan {
	return &model.SubscriptionPlan{
		ID:                 1,
		Name:               "Free",
		Price:              decimal.Zero,
		MaxWorkouts:        model.Limited(3),
		MaxCustomExercises: model.Limited(5),
	}
}

func premiumPlan() *model.SubscriptionPlan {
	return &model.SubscriptionPlan{
		ID:                 2,
		Name:               "Premium",
		Price:              decimal.RequireFromString("4.99"),
		MaxWorkouts:        model.Unlimited(),
		MaxCustomExercises: model.Limited(50),
		Features:           model.Features{AdvancedStats: true, NoAds: true},
	}
}

func entitlementFor(userID string, plan *model.SubscriptionPlan) *model.Entitlement {
	subID := int64(10)
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)
	return &model.Entitlement{
		SubscriptionID:     &subID,
		UserID:             userID,
		PlanID:             plan.ID,
		PlanName:           plan.Name,
		Status:             model.StatusActive,
		StartDate:          &start,
		EndDate:            &end,
		AutoRenew:          true,
		Price:              plan.Price,
		MaxWorkouts:        plan.MaxWorkouts,
		MaxCustomExercises: plan.MaxCustomExercises,
		Features:           plan.Features,
	}
}
