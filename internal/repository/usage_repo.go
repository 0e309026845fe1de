package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// UsageRepository counts the resources a plan limits.
type UsageRepository interface {
	// CountActiveWorkoutAssignments counts the user's active assignments of existing workouts.
	CountActiveWorkoutAssignments(ctx context.Context, userID string) (int64, error)
	// CountUserCreatedExercises counts exercises created by the user, optionally skipping approved ones.
	CountUserCreatedExercises(ctx context.Context, userID string, excludeApproved bool) (int64, error)
}

type usageRepo struct {
	pool *pgxpool.Pool
}

// NewUsageRepo creates a new UsageRepository.
func NewUsageRepo(pool *pgxpool.Pool) UsageRepository {
	return &usageRepo{pool: pool}
}

func (r *usageRepo) CountActiveWorkoutAssignments(ctx context.Context, userID string) (int64, error) {
	const q = `
        SELECT COUNT(*)
        FROM workout_assignments wa
        JOIN workouts w ON w.id = wa.workout_id
        WHERE wa.user_id = $1
          AND wa.is_active
    `
	var count int64
	if err := r.pool.QueryRow(ctx, q, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting active workout assignments for user %s: %w", userID, err)
	}
	return count, nil
}

func (r *usageRepo) CountUserCreatedExercises(ctx context.Context, userID string, excludeApproved bool) (int64, error) {
	const q = `
        SELECT COUNT(*)
        FROM exercises
        WHERE created_by = $1
          AND (NOT $2 OR status <> 'approved')
    `
	var count int64
	if err := r.pool.QueryRow(ctx, q, userID, excludeApproved).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting custom exercises for user %s: %w", userID, err)
	}
	return count, nil
}
