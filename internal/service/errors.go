package service

import "errors"

var (
	// ErrConfiguration means the default plan is missing; an operator has to fix the plan catalog.
	ErrConfiguration = errors.New("default subscription plan is not configured")
	// ErrNoEntitlement means no entitlement could be resolved; limit checks treat it as limit reached.
	ErrNoEntitlement    = errors.New("no entitlement could be resolved")
	ErrInvalidResource  = errors.New("invalid resource kind")
	ErrPlanNotFound     = errors.New("subscription plan not found")
	ErrTransitionFailed = errors.New("plan transition failed")
	ErrUserNotFound     = errors.New("user not found")
)
