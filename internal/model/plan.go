package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultPlanName is the plan users fall back to when they hold no active subscription.
const DefaultPlanName = "Free"

// Feature is a boolean capability toggled per plan.
type Feature string

const (
	FeatureAdvancedStats Feature = "advanced_stats"
	FeatureCloudBackup   Feature = "cloud_backup"
	FeatureNoAds         Feature = "no_ads"
)

// Features holds the boolean flags of a plan.
type Features struct {
	AdvancedStats bool `db:"advanced_stats" json:"advanced_stats"`
	CloudBackup   bool `db:"cloud_backup" json:"cloud_backup"`
	NoAds         bool `db:"no_ads" json:"no_ads"`
}

// Has reports whether f is enabled. Unknown features are disabled.
func (fs Features) Has(f Feature) bool {
	switch f {
	case FeatureAdvancedStats:
		return fs.AdvancedStats
	case FeatureCloudBackup:
		return fs.CloudBackup
	case FeatureNoAds:
		return fs.NoAds
	default:
		return false
	}
}

// SubscriptionPlan represents a subscription tier and its limits.
type SubscriptionPlan struct {
	ID                 int64           `db:"id" json:"id"`
	Name               string          `db:"name" json:"name"`
	Price              decimal.Decimal `db:"price" json:"price"`
	MaxWorkouts        Cap             `db:"max_workouts" json:"max_workouts"`
	MaxCustomExercises Cap             `db:"max_custom_exercises" json:"max_custom_exercises"`
	Features
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// IsPaid reports whether the plan has a non-zero price.
func (p SubscriptionPlan) IsPaid() bool {
	return p.Price.IsPositive()
}
