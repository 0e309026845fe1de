package dto

import (
	"time"

	"gymsubs/internal/model"

	"github.com/shopspring/decimal"
)

// ChangePlanRequest is the body of POST /subscriptions/change.
type ChangePlanRequest struct {
	PlanID int64 `json:"plan_id" validate:"required,gt=0"`
}

// ChangePlanResponse is returned after a committed plan transition.
type ChangePlanResponse struct {
	PlanID         int64     `json:"plan_id"`
	PlanName       string    `json:"plan_name"`
	SubscriptionID int64     `json:"subscription_id"`
	StartDate      time.Time `json:"start_date"`
	EndDate        time.Time `json:"end_date"`
}

type PlanResponse struct {
	ID                 int64           `json:"id"`
	Name               string          `json:"name"`
	Price              decimal.Decimal `json:"price"`
	MaxWorkouts        model.Cap       `json:"max_workouts"`
	MaxCustomExercises model.Cap       `json:"max_custom_exercises"`
	model.Features
}

type EntitlementResponse struct {
	*model.Entitlement
}

func NewPlanResponses(plans []model.SubscriptionPlan) []PlanResponse {
	out := make([]PlanResponse, 0, len(plans))
	for _, p := range plans {
		out = append(out, PlanResponse{
			ID:                 p.ID,
			Name:               p.Name,
			Price:              p.Price,
			MaxWorkouts:        p.MaxWorkouts,
			MaxCustomExercises: p.MaxCustomExercises,
			Features:           p.Features,
		})
	}
	return out
}
