package service

import (
	"time"

	"gymsubs/internal/model"
	"gymsubs/internal/pubsub"
)

type options struct {
	defaultPlanName string
	excludeApproved bool
	now             func() time.Time
	publisher       pubsub.Publisher
	eventsTopic     string
}

func newOptions(opts []Option) options {
	o := options{
		defaultPlanName: model.DefaultPlanName,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Option configures the subscription services.
type Option func(*options)

// WithDefaultPlanName overrides the fallback plan looked up by name.
func WithDefaultPlanName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.defaultPlanName = name
		}
	}
}

// WithExcludeApprovedExercises counts only custom exercises that have not been approved
// into the shared catalog. By default every exercise the user created counts.
func WithExcludeApprovedExercises() Option {
	return func(o *options) {
		o.excludeApproved = true
	}
}

// WithClock sets the time source used for subscription windows.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithEventPublisher publishes plan change events to topic after each committed transition.
func WithEventPublisher(p pubsub.Publisher, topic string) Option {
	return func(o *options) {
		if p != nil && topic != "" {
			o.publisher = p
			o.eventsTopic = topic
		}
	}
}
