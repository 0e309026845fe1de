package dto

import "gymsubs/internal/model"

type LimitsResponse struct {
	UserID string              `json:"user_id"`
	Limits []model.UsageReport `json:"limits"`
}

type AllowedResponse struct {
	Resource model.Resource `json:"resource"`
	Allowed  bool           `json:"allowed"`
}

type FeatureResponse struct {
	Feature model.Feature `json:"feature"`
	Enabled bool          `json:"enabled"`
}

// ErrorResponse is the JSON error body. LimitReached is set when a limit check failed closed.
type ErrorResponse struct {
	Error        string `json:"error"`
	LimitReached bool   `json:"limit_reached,omitempty"`
}
