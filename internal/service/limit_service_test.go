package service_test

import (
	"context"
	"errors"
	"testing"

	"gymsubs/internal/model"
	"gymsubs/internal/service"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newLimitService(ents *mockEntitlements, usage *mockUsageRepo, opts ...service.Option) service.LimitService {
	return service.NewLimitService(ents, usage, zerolog.Nop(), opts...)
}

func TestLimitService_Check(t *testing.T) {
	ctx := context.Background()

	t.Run("free plan at the workout cap", func(t *testing.T) {
		ents := &mockEntitlements{}
		usage := &mockUsageRepo{}
		ents.On("Resolve", mock.Anything, "user-1").Return(model.DefaultEntitlement("user-1", freePlan()), nil)
		usage.On("CountActiveWorkoutAssignments", mock.Anything, "user-1").Return(int64(3), nil)

		r, err := newLimitService(ents, usage).Check(ctx, "user-1", model.ResourceWorkout)

		require.NoError(t, err)
		assert.Equal(t, model.ResourceWorkout, r.Resource)
		assert.Equal(t, int64(3), r.CurrentCount)
		assert.Equal(t, model.Limited(3), r.MaxAllowed)
		assert.True(t, r.LimitReached)
		assert.Equal(t, model.Limited(0), r.Remaining)
		assert.True(t, r.Counted)
	})

	t.Run("free plan below the exercise cap", func(t *testing.T) {
		ents := &mockEntitlements{}
		usage := &mockUsageRepo{}
		ents.On("Resolve", mock.Anything, "user-1").Return(model.DefaultEntitlement("user-1", freePlan()), nil)
		usage.On("CountUserCreatedExercises", mock.Anything, "user-1", false).Return(int64(2), nil)

		r, err := newLimitService(ents, usage).Check(ctx, "user-1", model.ResourceCustomExercise)

		require.NoError(t, err)
		assert.False(t, r.LimitReached)
		assert.Equal(t, model.Limited(3), r.Remaining)
	})

	t.Run("count above the cap clamps remaining at zero", func(t *testing.T) {
		ents := &mockEntitlements{}
		usage := &mockUsageRepo{}
		ents.On("Resolve", mock.Anything, "user-1").Return(model.DefaultEntitlement("user-1", freePlan()), nil)
		usage.On("CountActiveWorkoutAssignments", mock.Anything, "user-1").Return(int64(7), nil)

		r, err := newLimitService(ents, usage).Check(ctx, "user-1", model.ResourceWorkout)

		require.NoError(t, err)
		assert.True(t, r.LimitReached)
		assert.Equal(t, model.Limited(0), r.Remaining)
	})

	t.Run("paid unlimited plan skips the count query", func(t *testing.T) {
		ents := &mockEntitlements{}
		usage := &mockUsageRepo{}
		ents.On("Resolve", mock.Anything, "user-2").Return(entitlementFor("user-2", premiumPlan()), nil)

		r, err := newLimitService(ents, usage).Check(ctx, "user-2", model.ResourceWorkout)

		require.NoError(t, err)
		assert.False(t, r.LimitReached)
		assert.True(t, r.MaxAllowed.IsUnlimited())
		assert.True(t, r.Remaining.IsUnlimited())
		assert.False(t, r.Counted)
		usage.AssertNotCalled(t, "CountActiveWorkoutAssignments", mock.Anything, mock.Anything)
	})

	t.Run("free plan with unlimited cap still counts", func(t *testing.T) {
		ents := &mockEntitlements{}
		usage := &mockUsageRepo{}
		plan := freePlan()
		plan.MaxWorkouts = model.Unlimited()
		ents.On("Resolve", mock.Anything, "user-3").Return(model.DefaultEntitlement("user-3", plan), nil)
		usage.On("CountActiveWorkoutAssignments", mock.Anything, "user-3").Return(int64(40), nil)

		r, err := newLimitService(ents, usage).Check(ctx, "user-3", model.ResourceWorkout)

		require.NoError(t, err)
		assert.False(t, r.LimitReached)
		assert.True(t, r.Remaining.IsUnlimited())
		assert.Equal(t, int64(40), r.CurrentCount)
	})

	t.Run("accepts resource aliases", func(t *testing.T) {
		ents := &mockEntitlements{}
		usage := &mockUsageRepo{}
		ents.On("Resolve", mock.Anything, "user-1").Return(model.DefaultEntitlement("user-1", freePlan()), nil)
		usage.On("CountUserCreatedExercises", mock.Anything, "user-1", false).Return(int64(5), nil)

		r, err := newLimitService(ents, usage).Check(ctx, "user-1", model.Resource("customExercise"))

		require.NoError(t, err)
		assert.Equal(t, model.ResourceCustomExercise, r.Resource)
		assert.True(t, r.LimitReached)
	})

	t.Run("exclude approved exercises option", func(t *testing.T) {
		ents := &mockEntitlements{}
		usage := &mockUsageRepo{}
		ents.On("Resolve", mock.Anything, "user-1").Return(model.DefaultEntitlement("user-1", freePlan()), nil)
		usage.On("CountUserCreatedExercises", mock.Anything, "user-1", true).Return(int64(1), nil)

		svc := newLimitService(ents, usage, service.WithExcludeApprovedExercises())
		r, err := svc.Check(ctx, "user-1", model.ResourceCustomExercise)

		require.NoError(t, err)
		assert.Equal(t, int64(1), r.CurrentCount)
		usage.AssertExpectations(t)
	})

	t.Run("unknown resource fails before any query", func(t *testing.T) {
		ents := &mockEntitlements{}
		usage := &mockUsageRepo{}

		r, err := newLimitService(ents, usage).Check(ctx, "user-1", model.Resource("photos"))

		assert.Nil(t, r)
		assert.ErrorIs(t, err, service.ErrInvalidResource)
		ents.AssertNotCalled(t, "Resolve", mock.Anything, mock.Anything)
		usage.AssertNotCalled(t, "CountActiveWorkoutAssignments", mock.Anything, mock.Anything)
		usage.AssertNotCalled(t, "CountUserCreatedExercises", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("resolver failure fails closed", func(t *testing.T) {
		ents := &mockEntitlements{}
		usage := &mockUsageRepo{}
		cause := errors.New("connection refused")
		ents.On("Resolve", mock.Anything, "user-1").Return(nil, cause)

		r, err := newLimitService(ents, usage).Check(ctx, "user-1", model.ResourceWorkout)

		assert.Nil(t, r)
		assert.ErrorIs(t, err, service.ErrNoEntitlement)
		assert.ErrorIs(t, err, cause)
	})

	t.Run("missing default plan surfaces as no entitlement", func(t *testing.T) {
		ents := &mockEntitlements{}
		usage := &mockUsageRepo{}
		ents.On("Resolve", mock.Anything, "user-1").Return(nil, service.ErrConfiguration)

		_, err := newLimitService(ents, usage).Check(ctx, "user-1", model.ResourceWorkout)

		assert.ErrorIs(t, err, service.ErrNoEntitlement)
		assert.ErrorIs(t, err, service.ErrConfiguration)
	})

	t.Run("count failure is returned", func(t *testing.T) {
		ents := &mockEntitlements{}
		usage := &mockUsageRepo{}
		cause := errors.New("timeout")
		ents.On("Resolve", mock.Anything, "user-1").Return(model.DefaultEntitlement("user-1", freePlan()), nil)
		usage.On("CountActiveWorkoutAssignments", mock.Anything, "user-1").Return(int64(0), cause)

		_, err := newLimitService(ents, usage).Check(ctx, "user-1", model.ResourceWorkout)

		assert.ErrorIs(t, err, cause)
	})
}

func TestLimitService_CheckAll(t *testing.T) {
	ents := &mockEntitlements{}
	usage := &mockUsageRepo{}
	ents.On("Resolve", mock.Anything, "user-1").Return(entitlementFor("user-1", premiumPlan()), nil)
	usage.On("CountUserCreatedExercises", mock.Anything, "user-1", false).Return(int64(12), nil)

	reports, err := newLimitService(ents, usage).CheckAll(context.Background(), "user-1")

	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, model.ResourceWorkout, reports[0].Resource)
	assert.False(t, reports[0].Counted)
	assert.Equal(t, model.ResourceCustomExercise, reports[1].Resource)
	assert.Equal(t, model.Limited(38), reports[1].Remaining)
	ents.AssertNumberOfCalls(t, "Resolve", 1)
}

func TestLimitService_Allowed(t *testing.T) {
	ctx := context.Background()

	t.Run("below cap", func(t *testing.T) {
		ents := &mockEntitlements{}
		usage := &mockUsageRepo{}
		ents.On("Resolve", mock.Anything, "user-1").Return(model.DefaultEntitlement("user-1", freePlan()), nil)
		usage.On("CountActiveWorkoutAssignments", mock.Anything, "user-1").Return(int64(1), nil)

		assert.True(t, newLimitService(ents, usage).Allowed(ctx, "user-1", model.ResourceWorkout))
	})

	t.Run("at cap", func(t *testing.T) {
		ents := &mockEntitlements{}
		usage := &mockUsageRepo{}
		ents.On("Resolve", mock.Anything, "user-1").Return(model.DefaultEntitlement("user-1", freePlan()), nil)
		usage.On("CountActiveWorkoutAssignments", mock.Anything, "user-1").Return(int64(3), nil)

		assert.False(t, newLimitService(ents, usage).Allowed(ctx, "user-1", model.ResourceWorkout))
	})

	t.Run("resolver failure denies", func(t *testing.T) {
		ents := &mockEntitlements{}
		usage := &mockUsageRepo{}
		ents.On("Resolve", mock.Anything, "user-1").Return(nil, errors.New("db down"))

		assert.False(t, newLimitService(ents, usage).Allowed(ctx, "user-1", model.ResourceWorkout))
	})
}
