package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"newsletterd/internal/domain"
	"newsletterd/internal/email"
	"newsletterd/internal/metrics"
	"newsletterd/internal/store"
)

// SubscriberStore is the slice of the storage layer the subscription
// workflows depend on. *store.PostgresStore satisfies it.
type SubscriberStore interface {
	CreateSubscriber(ctx context.Context, req domain.SubscriptionRequest, now time.Time) (*domain.Subscriber, string, error)
	MarkConfirmed(ctx context.Context, subscriberID string) error
	SubscriberIDFromToken(ctx context.Context, token string) (string, error)
}

// SubscriptionEngine drives the subscribe and confirm workflows: it owns
// the validate -> insert -> issue token -> email sequence and the
// pending -> confirmed transition.
type SubscriptionEngine struct {
	store   SubscriberStore
	cache   *store.RedisStore
	sender  email.Sender
	metrics *metrics.Metrics
	logger  *slog.Logger
	baseURL string
	now     func() time.Time
}

func NewSubscriptionEngine(s SubscriberStore, cache *store.RedisStore, sender email.Sender, m *metrics.Metrics, logger *slog.Logger, baseURL string) *SubscriptionEngine {
	return &SubscriptionEngine{
		store:   s,
		cache:   cache,
		sender:  sender,
		metrics: m,
		logger:  logger,
		baseURL: baseURL,
		now:     time.Now,
	}
}

// Subscribe validates the raw form input, atomically stores a pending
// subscriber with its confirmation token, and emails the confirmation
// link. The stored row is not rolled back when the email fails;
// confirmation remains possible.
func (e *SubscriptionEngine) Subscribe(ctx context.Context, rawEmail, rawName string) error {
	req, err := domain.NewSubscriptionRequest(rawEmail, rawName)
	if err != nil {
		return err
	}

	sub, token, err := e.store.CreateSubscriber(ctx, req, e.now())
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateSubscriber) {
			return err
		}
		return fmt.Errorf("storing subscriber: %w", err)
	}
	e.metrics.SubscribersCreated.Inc()

	if err := e.sendConfirmationEmail(ctx, sub.Email, token); err != nil {
		// The row and token persist; the subscriber can still be
		// confirmed once the link is delivered out of band.
		return fmt.Errorf("sending confirmation email: %w", err)
	}

	e.logger.Info("subscriber created",
		"subscriber_id", sub.ID,
		"status", sub.Status,
	)

	return nil
}

// Confirm resolves the token and marks the subscriber confirmed. The
// transition is idempotent: re-clicking a confirmation link succeeds.
func (e *SubscriptionEngine) Confirm(ctx context.Context, token string) error {
	if token == "" {
		// Rejected before any storage access.
		return domain.ErrInvalidToken
	}

	subscriberID, err := e.store.SubscriberIDFromToken(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidToken) {
			return err
		}
		return fmt.Errorf("resolving subscription token: %w", err)
	}

	if err := e.store.MarkConfirmed(ctx, subscriberID); err != nil {
		return fmt.Errorf("confirming subscriber %s: %w", subscriberID, err)
	}
	e.metrics.SubscribersConfirmed.Inc()

	if e.cache != nil {
		if err := e.cache.InvalidateConfirmedEmails(ctx); err != nil {
			// The cache TTL bounds how long a stale snapshot survives.
			e.logger.Warn("failed to invalidate recipient cache", "error", err)
		}
	}

	e.logger.Info("subscriber confirmed", "subscriber_id", subscriberID)

	return nil
}

func (e *SubscriptionEngine) sendConfirmationEmail(ctx context.Context, to, token string) error {
	link := fmt.Sprintf("%s/subscriptions/confirm?subscription_token=%s", e.baseURL, url.QueryEscape(token))

	textBody := fmt.Sprintf(
		"Welcome to our newsletter!\nVisit %s to confirm your subscription.",
		link,
	)
	htmlBody := fmt.Sprintf(
		"Welcome to our newsletter!<br />Click <a href=\"%s\">%s</a> to confirm your subscription.",
		link, link,
	)

	return e.sender.Send(ctx, to, "Welcome!", textBody, htmlBody)
}
