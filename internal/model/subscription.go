package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// SubscriptionStatus is the lifecycle state of a UserSubscription row.
type SubscriptionStatus string

const (
	StatusActive    SubscriptionStatus = "active"
	StatusCancelled SubscriptionStatus = "cancelled"
)

// UserSubscription binds a user to a plan for a time window.
type UserSubscription struct {
	ID               int64              `db:"id" json:"id"`
	UserID           string             `db:"user_id" json:"user_id"`
	PlanID           int64              `db:"plan_id" json:"plan_id"`
	Status           SubscriptionStatus `db:"status" json:"status"`
	StartDate        time.Time          `db:"start_date" json:"start_date"`
	EndDate          time.Time          `db:"end_date" json:"end_date"`
	AutoRenew        bool               `db:"auto_renew" json:"auto_renew"`
	PaymentProvider  *string            `db:"payment_provider" json:"payment_provider,omitempty"`
	PaymentReference *string            `db:"payment_reference" json:"payment_reference,omitempty"`
	CreatedAt        time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time          `db:"updated_at" json:"updated_at"`
}

// Entitlement is a user's active subscription joined to its plan. It is
// derived at query time and never persisted. SubscriptionID is nil when the
// entitlement was synthesized from the default plan.
type Entitlement struct {
	SubscriptionID     *int64             `json:"subscription_id"`
	UserID             string             `json:"user_id"`
	PlanID             int64              `json:"plan_id"`
	PlanName           string             `json:"plan_name"`
	Status             SubscriptionStatus `json:"status"`
	StartDate          *time.Time         `json:"start_date,omitempty"`
	EndDate            *time.Time         `json:"end_date,omitempty"`
	AutoRenew          bool               `json:"auto_renew"`
	Price              decimal.Decimal    `json:"price"`
	MaxWorkouts        Cap                `json:"max_workouts"`
	MaxCustomExercises Cap                `json:"max_custom_exercises"`
	Features
	IsDefault bool `json:"is_default"`
}

// IsPaid reports whether the entitlement comes from a priced plan.
func (e Entitlement) IsPaid() bool {
	return e.Price.IsPositive()
}

// CapFor returns the plan ceiling for a resource kind.
func (e Entitlement) CapFor(r Resource) (Cap, bool) {
	switch r {
	case ResourceWorkout:
		return e.MaxWorkouts, true
	case ResourceCustomExercise:
		return e.MaxCustomExercises, true
	default:
		return Cap{}, false
	}
}

// DefaultEntitlement synthesizes an active entitlement from the fallback plan.
func DefaultEntitlement(userID string, plan *SubscriptionPlan) *Entitlement {
	return &Entitlement{
		UserID:             userID,
		PlanID:             plan.ID,
		PlanName:           plan.Name,
		Status:             StatusActive,
		Price:              plan.Price,
		MaxWorkouts:        plan.MaxWorkouts,
		MaxCustomExercises: plan.MaxCustomExercises,
		Features:           plan.Features,
		IsDefault:          true,
	}
}

// PlanChange is the outcome of moving a user to a new plan.
type PlanChange struct {
	UserID         string    `json:"user_id"`
	PlanID         int64     `json:"plan_id"`
	PlanName       string    `json:"plan_name"`
	SubscriptionID int64     `json:"subscription_id"`
	StartDate      time.Time `json:"start_date"`
	EndDate        time.Time `json:"end_date"`
	Cancelled      int64     `json:"cancelled"`
}
