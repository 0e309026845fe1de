package repository_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"gymsubs/internal/database"
	"gymsubs/internal/model"
	"gymsubs/internal/repository"
	"gymsubs/internal/service"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupDB connects to TEST_DATABASE_URL and applies the migrations.
func setupDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL is not set, skip database integration test")
	}
	ctx := context.Background()
	pool, err := database.Connect(ctx, database.PoolConfig{ConnectionString: dsn, RetryAttempts: 1}, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, database.Migrate(ctx, pool, database.MigrateUp, zerolog.Nop()))
	return pool
}

func createUser(t *testing.T, pool *pgxpool.Pool) string {
	t.Helper()
	id := uuid.NewString()
	_, err := pool.Exec(context.Background(), `INSERT INTO users (id, email) VALUES ($1, $2)`, id, id+"@example.com")
	require.NoError(t, err)
	return id
}

func planID(t *testing.T, repo repository.SubscriptionRepository, name string) int64 {
	t.Helper()
	plan, err := repo.FindPlanByName(context.Background(), name)
	require.NoError(t, err)
	require.NotNil(t, plan)
	return plan.ID
}

type subscriptionCounts struct {
	active    int
	cancelled int
}

func countSubscriptions(t *testing.T, pool *pgxpool.Pool, userID string) subscriptionCounts {
	t.Helper()
	var c subscriptionCounts
	err := pool.QueryRow(context.Background(), `
        SELECT COUNT(*) FILTER (WHERE status = 'active'),
               COUNT(*) FILTER (WHERE status = 'cancelled')
        FROM user_subscriptions
        WHERE user_id = $1`, userID).Scan(&c.active, &c.cancelled)
	require.NoError(t, err)
	return c
}

func currentPlanID(t *testing.T, pool *pgxpool.Pool, userID string) *int64 {
	t.Helper()
	var id *int64
	require.NoError(t, pool.QueryRow(context.Background(), `SELECT current_plan_id FROM users WHERE id = $1`, userID).Scan(&id))
	return id
}

// failingRepo hands out transactions whose user pointer update always fails.
type failingRepo struct {
	repository.SubscriptionRepository
}

func (r failingRepo) BeginTx(ctx context.Context, userID string) (repository.SubscriptionTx, error) {
	tx, err := r.SubscriptionRepository.BeginTx(ctx, userID)
	if err != nil {
		return nil, err
	}
	return failingTx{tx}, nil
}

type failingTx struct {
	repository.SubscriptionTx
}

func (failingTx) UpdateUserCurrentPlan(context.Context, string, int64) (int64, error) {
	return 0, errors.New("forced failure")
}

func TestPlans(t *testing.T) {
	pool := setupDB(t)
	repo := repository.NewSubscriptionRepo(pool)
	ctx := context.Background()

	plans, err := repo.ListPlans(ctx)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(plans), 3)
	assert.Equal(t, "Free", plans[0].Name)
	assert.True(t, plans[0].Price.IsZero())

	pro, err := repo.FindPlanByName(ctx, "Pro")
	require.NoError(t, err)
	require.NotNil(t, pro)
	assert.Equal(t, "9.99", pro.Price.StringFixed(2))
	assert.True(t, pro.MaxWorkouts.IsUnlimited())
	assert.True(t, pro.CloudBackup)

	missing, err := repo.FindPlanByID(ctx, -1)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestChangePlan_Integration(t *testing.T) {
	pool := setupDB(t)
	repo := repository.NewSubscriptionRepo(pool)
	plans := service.NewPlanService(repo, zerolog.Nop())
	entitlements := service.NewEntitlementService(repo, zerolog.Nop())
	ctx := context.Background()

	userID := createUser(t, pool)
	premium := planID(t, repo, "Premium")
	pro := planID(t, repo, "Pro")

	ent, err := entitlements.Resolve(ctx, userID)
	require.NoError(t, err)
	assert.True(t, ent.IsDefault)
	assert.Equal(t, "Free", ent.PlanName)

	change, err := plans.ChangePlan(ctx, userID, premium)
	require.NoError(t, err)
	assert.Equal(t, int64(0), change.Cancelled)
	assert.Equal(t, subscriptionCounts{active: 1}, countSubscriptions(t, pool, userID))

	change, err = plans.ChangePlan(ctx, userID, pro)
	require.NoError(t, err)
	assert.Equal(t, int64(1), change.Cancelled)
	assert.Equal(t, subscriptionCounts{active: 1, cancelled: 1}, countSubscriptions(t, pool, userID))
	require.NotNil(t, currentPlanID(t, pool, userID))
	assert.Equal(t, pro, *currentPlanID(t, pool, userID))

	ent, err = entitlements.Resolve(ctx, userID)
	require.NoError(t, err)
	assert.False(t, ent.IsDefault)
	assert.Equal(t, "Pro", ent.PlanName)
	require.NotNil(t, ent.SubscriptionID)
	assert.Equal(t, change.SubscriptionID, *ent.SubscriptionID)
	assert.WithinDuration(t, ent.StartDate.UTC().AddDate(0, 1, 0), ent.EndDate.UTC(), time.Second)

	// Same plan again is still a full transition.
	_, err = plans.ChangePlan(ctx, userID, pro)
	require.NoError(t, err)
	assert.Equal(t, subscriptionCounts{active: 1, cancelled: 2}, countSubscriptions(t, pool, userID))
}

func TestChangePlan_UnknownPlanMutatesNothing(t *testing.T) {
	pool := setupDB(t)
	repo := repository.NewSubscriptionRepo(pool)
	plans := service.NewPlanService(repo, zerolog.Nop())
	ctx := context.Background()

	userID := createUser(t, pool)
	_, err := plans.ChangePlan(ctx, userID, planID(t, repo, "Premium"))
	require.NoError(t, err)
	before := countSubscriptions(t, pool, userID)

	_, err = plans.ChangePlan(ctx, userID, -1)

	assert.ErrorIs(t, err, service.ErrPlanNotFound)
	assert.Equal(t, before, countSubscriptions(t, pool, userID))
}

func TestChangePlan_FailureRollsBack(t *testing.T) {
	pool := setupDB(t)
	repo := repository.NewSubscriptionRepo(pool)
	ctx := context.Background()

	userID := createUser(t, pool)
	premium := planID(t, repo, "Premium")
	_, err := service.NewPlanService(repo, zerolog.Nop()).ChangePlan(ctx, userID, premium)
	require.NoError(t, err)
	before := countSubscriptions(t, pool, userID)

	_, err = service.NewPlanService(failingRepo{repo}, zerolog.Nop()).ChangePlan(ctx, userID, planID(t, repo, "Pro"))

	assert.ErrorIs(t, err, service.ErrTransitionFailed)
	assert.Equal(t, before, countSubscriptions(t, pool, userID))
	assert.Equal(t, premium, *currentPlanID(t, pool, userID))

	ent, err := repo.FindActiveSubscription(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "Premium", ent.PlanName)
}

func TestChangePlan_UnknownUser(t *testing.T) {
	pool := setupDB(t)
	repo := repository.NewSubscriptionRepo(pool)

	_, err := service.NewPlanService(repo, zerolog.Nop()).ChangePlan(context.Background(), uuid.NewString(), planID(t, repo, "Premium"))

	assert.ErrorIs(t, err, service.ErrTransitionFailed)
	assert.ErrorIs(t, err, service.ErrUserNotFound)
}

func TestPlanCapsRoundTrip(t *testing.T) {
	pool := setupDB(t)
	repo := repository.NewSubscriptionRepo(pool)
	ctx := context.Background()
	name := "caps-" + uuid.NewString()

	// -1 is the legacy unlimited marker.
	_, err := pool.Exec(ctx, `
        INSERT INTO subscription_plans (name, price, max_workouts, max_custom_exercises)
        VALUES ($1, 1.50, $2, $3)`, name, model.Limited(7), model.Limited(-1))
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), `DELETE FROM subscription_plans WHERE name = $1`, name)
	})

	var stored *int64
	require.NoError(t, pool.QueryRow(ctx, `SELECT max_custom_exercises FROM subscription_plans WHERE name = $1`, name).Scan(&stored))
	assert.Nil(t, stored)

	plan, err := repo.FindPlanByName(ctx, name)
	require.NoError(t, err)
	require.NotNil(t, plan)
	limit, ok := plan.MaxWorkouts.Limit()
	assert.True(t, ok)
	assert.Equal(t, int64(7), limit)
	assert.True(t, plan.MaxCustomExercises.IsUnlimited())

	_, err = pool.Exec(ctx, `UPDATE subscription_plans SET max_custom_exercises = -1 WHERE name = $1`, name)
	require.NoError(t, err)
	plan, err = repo.FindPlanByName(ctx, name)
	require.NoError(t, err)
	assert.True(t, plan.MaxCustomExercises.IsUnlimited())
}

func TestSingleActiveIndex(t *testing.T) {
	pool := setupDB(t)
	repo := repository.NewSubscriptionRepo(pool)
	ctx := context.Background()
	userID := createUser(t, pool)
	free := planID(t, repo, "Free")

	insert := func() error {
		tx, err := repo.BeginTx(ctx, userID)
		require.NoError(t, err)
		defer func() { _ = tx.Rollback(ctx) }()
		now := time.Now().UTC()
		if _, err := tx.InsertSubscription(ctx, &model.UserSubscription{
			UserID: userID, PlanID: free, Status: model.StatusActive,
			StartDate: now, EndDate: now.AddDate(0, 1, 0), AutoRenew: true,
		}); err != nil {
			return err
		}
		return tx.Commit(ctx)
	}

	require.NoError(t, insert())
	err := insert()
	assert.True(t, database.IsDuplicateKey(err))
	assert.Equal(t, subscriptionCounts{active: 1}, countSubscriptions(t, pool, userID))
}

func TestEnsureDefaultSubscription_Integration(t *testing.T) {
	pool := setupDB(t)
	repo := repository.NewSubscriptionRepo(pool)
	plans := service.NewPlanService(repo, zerolog.Nop())
	ctx := context.Background()
	userID := createUser(t, pool)

	created, err := plans.EnsureDefaultSubscription(ctx, userID)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = plans.EnsureDefaultSubscription(ctx, userID)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, subscriptionCounts{active: 1}, countSubscriptions(t, pool, userID))
}

func TestUsageCounts(t *testing.T) {
	pool := setupDB(t)
	usage := repository.NewUsageRepo(pool)
	ctx := context.Background()
	userID := createUser(t, pool)

	for i := 0; i < 3; i++ {
		var workoutID int64
		require.NoError(t, pool.QueryRow(ctx,
			`INSERT INTO workouts (user_id, name) VALUES ($1, 'Push day') RETURNING id`, userID).Scan(&workoutID))
		_, err := pool.Exec(ctx,
			`INSERT INTO workout_assignments (workout_id, user_id, is_active) VALUES ($1, $2, $3)`,
			workoutID, userID, i < 2)
		require.NoError(t, err)
	}
	for _, status := range []string{"pending", "approved", "rejected"} {
		_, err := pool.Exec(ctx, `INSERT INTO exercises (name, created_by, status) VALUES ('Curl', $1, $2)`, userID, status)
		require.NoError(t, err)
	}

	workouts, err := usage.CountActiveWorkoutAssignments(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), workouts)

	all, err := usage.CountUserCreatedExercises(ctx, userID, false)
	require.NoError(t, err)
	assert.Equal(t, int64(3), all)

	unapproved, err := usage.CountUserCreatedExercises(ctx, userID, true)
	require.NoError(t, err)
	assert.Equal(t, int64(2), unapproved)

	limits := service.NewLimitService(service.NewEntitlementService(repository.NewSubscriptionRepo(pool), zerolog.Nop()), usage, zerolog.Nop())
	report, err := limits.Check(ctx, userID, model.ResourceWorkout)
	require.NoError(t, err)
	assert.False(t, report.LimitReached)
	assert.Equal(t, model.Limited(1), report.Remaining)
}
