package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gymsubs/internal/database"
	"gymsubs/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// SubscriptionRepository defines methods for accessing plans and subscriptions.
type SubscriptionRepository interface {
	// FindActiveSubscription returns the user's active subscription joined to its plan, or nil if there is none.
	FindActiveSubscription(ctx context.Context, userID string) (*model.Entitlement, error)
	FindPlanByName(ctx context.Context, name string) (*model.SubscriptionPlan, error)
	FindPlanByID(ctx context.Context, planID int64) (*model.SubscriptionPlan, error)
	ListPlans(ctx context.Context) ([]model.SubscriptionPlan, error)
	// BeginTx opens a transaction holding a lock scoped to userID until commit or rollback.
	BeginTx(ctx context.Context, userID string) (SubscriptionTx, error)
}

// SubscriptionTx groups the writes of a plan transition. Rollback after Commit is a no-op.
type SubscriptionTx interface {
	HasActiveSubscription(ctx context.Context, userID string) (bool, error)
	CancelActiveSubscriptions(ctx context.Context, userID string, at time.Time) (int64, error)
	InsertSubscription(ctx context.Context, sub *model.UserSubscription) (int64, error)
	UpdateUserCurrentPlan(ctx context.Context, userID string, planID int64) (int64, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

type subscriptionRepo struct {
	pool *pgxpool.Pool
}

// NewSubscriptionRepo creates a new SubscriptionRepository.
func NewSubscriptionRepo(pool *pgxpool.Pool) SubscriptionRepository {
	return &subscriptionRepo{pool: pool}
}

const planColumns = `id, name, price::text, max_workouts, max_custom_exercises, advanced_stats, cloud_backup, no_ads, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlan(row rowScanner) (*model.SubscriptionPlan, error) {
	var (
		sp    model.SubscriptionPlan
		price string
	)
	err := row.Scan(
		&sp.ID,
		&sp.Name,
		&price,
		&sp.MaxWorkouts,
		&sp.MaxCustomExercises,
		&sp.AdvancedStats,
		&sp.CloudBackup,
		&sp.NoAds,
		&sp.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if sp.Price, err = decimal.NewFromString(price); err != nil {
		return nil, fmt.Errorf("parse price of plan %d: %w", sp.ID, err)
	}
	return &sp, nil
}

// FindActiveSubscription returns the latest-ending active subscription for a user.
// More than one active row violates the single-active invariant; the query still picks one.
func (r *subscriptionRepo) FindActiveSubscription(ctx context.Context, userID string) (*model.Entitlement, error) {
	const q = `
        SELECT us.id,
               us.user_id,
               us.plan_id,
               sp.name,
               us.status,
               us.start_date,
               us.end_date,
               us.auto_renew,
               sp.price::text,
               sp.max_workouts,
               sp.max_custom_exercises,
               sp.advanced_stats,
               sp.cloud_backup,
               sp.no_ads
        FROM user_subscriptions us
        JOIN subscription_plans sp ON sp.id = us.plan_id
        WHERE us.user_id = $1
          AND us.status = 'active'
        ORDER BY us.end_date DESC
        LIMIT 1
    `
	var (
		e          model.Entitlement
		subID      int64
		start, end time.Time
		price      string
	)
	err := r.pool.QueryRow(ctx, q, userID).Scan(
		&subID,
		&e.UserID,
		&e.PlanID,
		&e.PlanName,
		&e.Status,
		&start,
		&end,
		&e.AutoRenew,
		&price,
		&e.MaxWorkouts,
		&e.MaxCustomExercises,
		&e.AdvancedStats,
		&e.CloudBackup,
		&e.NoAds,
	)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch active subscription for user %s: %w", userID, err)
	}
	if e.Price, err = decimal.NewFromString(price); err != nil {
		return nil, fmt.Errorf("parse price of plan %d: %w", e.PlanID, err)
	}
	e.SubscriptionID = &subID
	e.StartDate = &start
	e.EndDate = &end
	return &e, nil
}

// FindPlanByName returns the plan with the given name, or nil.
func (r *subscriptionRepo) FindPlanByName(ctx context.Context, name string) (*model.SubscriptionPlan, error) {
	q := `SELECT ` + planColumns + ` FROM subscription_plans WHERE name = $1`
	sp, err := scanPlan(r.pool.QueryRow(ctx, q, name))
	if err != nil {
		if database.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch plan %q: %w", name, err)
	}
	return sp, nil
}

// FindPlanByID returns the plan with the given id, or nil.
func (r *subscriptionRepo) FindPlanByID(ctx context.Context, planID int64) (*model.SubscriptionPlan, error) {
	q := `SELECT ` + planColumns + ` FROM subscription_plans WHERE id = $1`
	sp, err := scanPlan(r.pool.QueryRow(ctx, q, planID))
	if err != nil {
		if database.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch plan %d: %w", planID, err)
	}
	return sp, nil
}

// ListPlans returns all plans, cheapest first.
func (r *subscriptionRepo) ListPlans(ctx context.Context) ([]model.SubscriptionPlan, error) {
	q := `SELECT ` + planColumns + ` FROM subscription_plans ORDER BY price, id`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("listing plans: %w", err)
	}
	defer rows.Close()

	var plans []model.SubscriptionPlan
	for rows.Next() {
		sp, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning plan: %w", err)
		}
		plans = append(plans, *sp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing plans: %w", err)
	}
	return plans, nil
}

// BeginTx starts a transaction and takes a transaction-scoped advisory lock on the user id,
// serializing concurrent transitions for the same user.
func (r *subscriptionRepo) BeginTx(ctx context.Context, userID string) (SubscriptionTx, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("starting subscription transaction for user %s: %w", userID, err)
	}
	const lockQ = `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`
	if _, err := tx.Exec(ctx, lockQ, "user_subscriptions:"+userID); err != nil {
		_ = tx.Rollback(ctx)
		return nil, fmt.Errorf("locking subscriptions of user %s: %w", userID, err)
	}
	return &subscriptionTx{tx: tx}, nil
}

type subscriptionTx struct {
	tx pgx.Tx
}

func (t *subscriptionTx) HasActiveSubscription(ctx context.Context, userID string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM user_subscriptions WHERE user_id = $1 AND status = 'active')`
	var exists bool
	if err := t.tx.QueryRow(ctx, q, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("checking active subscription for user %s: %w", userID, err)
	}
	return exists, nil
}

// CancelActiveSubscriptions closes every active row of the user at the given time.
func (t *subscriptionTx) CancelActiveSubscriptions(ctx context.Context, userID string, at time.Time) (int64, error) {
	const q = `
        UPDATE user_subscriptions
        SET status = 'cancelled',
            end_date = $2,
            updated_at = NOW()
        WHERE user_id = $1
          AND status = 'active'
    `
	tag, err := t.tx.Exec(ctx, q, userID, at)
	if err != nil {
		return 0, fmt.Errorf("cancelling active subscriptions for user %s: %w", userID, err)
	}
	return tag.RowsAffected(), nil
}

// InsertSubscription stores sub and fills its id and timestamps.
func (t *subscriptionTx) InsertSubscription(ctx context.Context, sub *model.UserSubscription) (int64, error) {
	const q = `
        INSERT INTO user_subscriptions (user_id, plan_id, status, start_date, end_date, auto_renew, payment_provider, payment_reference)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING id, created_at, updated_at
    `
	err := t.tx.QueryRow(ctx, q,
		sub.UserID,
		sub.PlanID,
		sub.Status,
		sub.StartDate,
		sub.EndDate,
		sub.AutoRenew,
		sub.PaymentProvider,
		sub.PaymentReference,
	).Scan(&sub.ID, &sub.CreatedAt, &sub.UpdatedAt)
	if err != nil {
		return 0, fmt.Errorf("inserting subscription %d for user %s: %w", sub.PlanID, sub.UserID, err)
	}
	return sub.ID, nil
}

// UpdateUserCurrentPlan points the user row at planID and reactivates the account.
func (t *subscriptionTx) UpdateUserCurrentPlan(ctx context.Context, userID string, planID int64) (int64, error) {
	const q = `
        UPDATE users
        SET current_plan_id = $2,
            active = TRUE,
            updated_at = NOW()
        WHERE id = $1
    `
	tag, err := t.tx.Exec(ctx, q, userID, planID)
	if err != nil {
		return 0, fmt.Errorf("updating current plan of user %s: %w", userID, err)
	}
	return tag.RowsAffected(), nil
}

func (t *subscriptionTx) Commit(ctx context.Context) error {
	if err := t.tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing subscription transaction: %w", err)
	}
	return nil
}

func (t *subscriptionTx) Rollback(ctx context.Context) error {
	if err := t.tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return fmt.Errorf("rolling back subscription transaction: %w", err)
	}
	return nil
}
