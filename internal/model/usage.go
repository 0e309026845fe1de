package model

import "strings"

// Resource is a kind of usage limited by a plan.
type Resource string

const (
	ResourceWorkout        Resource = "workout"
	ResourceCustomExercise Resource = "custom_exercise"
)

// Resources lists every limit-checked resource kind.
var Resources = []Resource{ResourceWorkout, ResourceCustomExercise}

// ParseResource normalizes a resource kind from a request. ok is false for unknown kinds.
func ParseResource(s string) (Resource, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "workout", "workouts":
		return ResourceWorkout, true
	case "custom_exercise", "custom_exercises", "customexercise", "customexercises":
		return ResourceCustomExercise, true
	default:
		return "", false
	}
}

// UsageReport compares current usage of a resource with the plan ceiling.
type UsageReport struct {
	Resource     Resource `json:"resource"`
	PlanName     string   `json:"plan_name"`
	CurrentCount int64    `json:"current_count"`
	MaxAllowed   Cap      `json:"max_allowed"`
	LimitReached bool     `json:"limit_reached"`
	Remaining    Cap      `json:"remaining"`
	// Counted is false when usage was not queried because the plan has no ceiling.
	Counted bool `json:"counted"`
}
