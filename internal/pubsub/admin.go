package pubsub

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub"
	"github.com/rs/zerolog"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

const (
	eventRetention  = 7 * 24 * time.Hour
	ackDeadline     = 60 * time.Second
	maxDeliveries   = 5
	subscriptionTTL = 31 * 24 * time.Hour
)

// Admin provisions the topics and subscriptions plan events flow through.
type Admin struct {
	client *pubsub.Client
	logger zerolog.Logger
}

// EmulatorOptions returns client options for a local Pub/Sub emulator.
func EmulatorOptions(host string) []option.ClientOption {
	return []option.ClientOption{
		option.WithEndpoint(host),
		option.WithoutAuthentication(),
	}
}

// NewAdmin creates a Pub/Sub admin client for projectID.
func NewAdmin(ctx context.Context, projectID string, logger zerolog.Logger, opts ...option.ClientOption) (*Admin, error) {
	if projectID == "" {
		return nil, ErrMissingProjectID
	}
	client, err := pubsub.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Pub/Sub client: %w", err)
	}
	return &Admin{client: client, logger: logger.With().Str("component", "pubsub-admin").Logger()}, nil
}

func (a *Admin) Close() error {
	return a.client.Close()
}

// Reset deletes every subscription and topic in the project. Only use it against the emulator.
func (a *Admin) Reset(ctx context.Context) error {
	subs := a.client.Subscriptions(ctx)
	for {
		sub, err := subs.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return fmt.Errorf("listing subscriptions: %w", err)
		}
		a.logger.Info().Str("subscription", sub.ID()).Msg("Deleting subscription")
		if err := sub.Delete(ctx); err != nil {
			a.logger.Warn().Err(err).Str("subscription", sub.ID()).Msg("Failed to delete subscription")
		}
	}

	topics := a.client.Topics(ctx)
	for {
		topic, err := topics.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return fmt.Errorf("listing topics: %w", err)
		}
		a.logger.Info().Str("topic", topic.ID()).Msg("Deleting topic")
		if err := topic.Delete(ctx); err != nil {
			a.logger.Warn().Err(err).Str("topic", topic.ID()).Msg("Failed to delete topic")
		}
	}
	return nil
}

// SetupPlanEvents ensures the plan events topic, its dead letter topic and a pull
// subscription named "<topic>-sub" for downstream consumers.
func (a *Admin) SetupPlanEvents(ctx context.Context, topicID string) error {
	dlq, err := a.EnsureTopic(ctx, topicID+"-dlq", eventRetention)
	if err != nil {
		return err
	}
	topic, err := a.EnsureTopic(ctx, topicID, eventRetention)
	if err != nil {
		return err
	}
	if err := a.EnsureSubscription(ctx, topicID+"-sub", pubsub.SubscriptionConfig{
		Topic:            topic,
		AckDeadline:      ackDeadline,
		ExpirationPolicy: subscriptionTTL,
		RetryPolicy: &pubsub.RetryPolicy{
			MinimumBackoff: 10 * time.Second,
			MaximumBackoff: 600 * time.Second,
		},
		DeadLetterPolicy: &pubsub.DeadLetterPolicy{
			DeadLetterTopic:     dlq.String(),
			MaxDeliveryAttempts: maxDeliveries,
		},
	}); err != nil {
		return err
	}
	return a.EnsureSubscription(ctx, topicID+"-dlq-sub", pubsub.SubscriptionConfig{
		Topic:            dlq,
		AckDeadline:      ackDeadline,
		ExpirationPolicy: subscriptionTTL,
	})
}

// EnsureTopic creates topicID if needed. A retention mismatch on an existing topic is only reported.
func (a *Admin) EnsureTopic(ctx context.Context, topicID string, retention time.Duration) (*pubsub.Topic, error) {
	topic := a.client.Topic(topicID)
	exists, err := topic.Exists(ctx)
	if err != nil {
		return nil, fmt.Errorf("checking topic %s: %w", topicID, err)
	}
	if !exists {
		a.logger.Info().Str("topic", topicID).Dur("retention", retention).Msg("Creating topic")
		created, err := a.client.CreateTopicWithConfig(ctx, topicID, &pubsub.TopicConfig{RetentionDuration: retention})
		if err != nil {
			return nil, fmt.Errorf("creating topic %s: %w", topicID, err)
		}
		return created, nil
	}

	cfg, err := topic.Config(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading config of topic %s: %w", topicID, err)
	}
	if cfg.RetentionDuration != retention {
		a.logger.Warn().Str("topic", topicID).Msgf("Retention is %v, expected %v; update it manually", cfg.RetentionDuration, retention)
	}
	return topic, nil
}

// EnsureSubscription creates subID or updates its ack deadline and retry policy when they drifted.
func (a *Admin) EnsureSubscription(ctx context.Context, subID string, cfg pubsub.SubscriptionConfig) error {
	sub := a.client.Subscription(subID)
	exists, err := sub.Exists(ctx)
	if err != nil {
		return fmt.Errorf("checking subscription %s: %w", subID, err)
	}
	if !exists {
		a.logger.Info().Str("subscription", subID).Msg("Creating subscription")
		if _, err := a.client.CreateSubscription(ctx, subID, cfg); err != nil {
			return fmt.Errorf("creating subscription %s: %w", subID, err)
		}
		return nil
	}

	existing, err := sub.Config(ctx)
	if err != nil {
		return fmt.Errorf("reading config of subscription %s: %w", subID, err)
	}
	if existing.AckDeadline == cfg.AckDeadline && sameRetryPolicy(existing.RetryPolicy, cfg.RetryPolicy) {
		a.logger.Info().Str("subscription", subID).Msg("Subscription is up to date")
		return nil
	}

	a.logger.Info().Str("subscription", subID).Msg("Updating subscription")
	if _, err := sub.Update(ctx, pubsub.SubscriptionConfigToUpdate{
		AckDeadline: cfg.AckDeadline,
		RetryPolicy: cfg.RetryPolicy,
	}); err != nil {
		return fmt.Errorf("updating subscription %s: %w", subID, err)
	}
	return nil
}

func sameRetryPolicy(a, b *pubsub.RetryPolicy) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.MinimumBackoff == b.MinimumBackoff && a.MaximumBackoff == b.MaximumBackoff
}
