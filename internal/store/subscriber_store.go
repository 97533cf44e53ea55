package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"newsletterd/internal/domain"
)

const uniqueViolationCode = "23505"

// CreateSubscriber inserts a pending subscriber together with its
// confirmation token in a single transaction. A subscriber row never
// exists without a resolvable token. Returns the token alongside the
// stored subscriber.
func (s *PostgresStore) CreateSubscriber(ctx context.Context, req domain.SubscriptionRequest, now time.Time) (*domain.Subscriber, string, error) {
	token, err := generateSubscriptionToken()
	if err != nil {
		return nil, "", fmt.Errorf("generating subscription token: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	sub := domain.Subscriber{
		ID:           uuid.NewString(),
		Email:        req.Email,
		Name:         req.Name,
		Status:       domain.StatusPendingConfirmation,
		SubscribedAt: now,
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO subscriptions (id, email, name, status, subscribed_at)
		VALUES ($1, $2, $3, $4, $5)
	`, sub.ID, sub.Email, sub.Name, sub.Status, sub.SubscribedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return nil, "", domain.ErrDuplicateSubscriber
		}
		return nil, "", fmt.Errorf("inserting subscriber: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO subscription_tokens (subscription_token, subscriber_id)
		VALUES ($1, $2)
	`, token, sub.ID)
	if err != nil {
		return nil, "", fmt.Errorf("inserting subscription token: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, "", fmt.Errorf("committing transaction: %w", err)
	}

	return &sub, token, nil
}

// MarkConfirmed flips the subscriber to confirmed. Confirming an already
// confirmed subscriber is a no-op, not an error.
func (s *PostgresStore) MarkConfirmed(ctx context.Context, subscriberID string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE subscriptions SET status = $1 WHERE id = $2
	`, domain.StatusConfirmed, subscriberID)
	if err != nil {
		return fmt.Errorf("updating subscriber status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) GetSubscriber(ctx context.Context, id string) (*domain.Subscriber, error) {
	var sub domain.Subscriber
	err := s.pool.QueryRow(ctx, `
		SELECT id, email, name, status, subscribed_at
		FROM subscriptions WHERE id = $1
	`, id).Scan(&sub.ID, &sub.Email, &sub.Name, &sub.Status, &sub.SubscribedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("querying subscriber: %w", err)
	}
	return &sub, nil
}

// ListConfirmedEmails returns a snapshot of every confirmed subscriber
// email. The slice is finite and safe to iterate once per dispatch.
func (s *PostgresStore) ListConfirmedEmails(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT email FROM subscriptions WHERE status = $1
	`, domain.StatusConfirmed)
	if err != nil {
		return nil, fmt.Errorf("querying confirmed subscribers: %w", err)
	}
	defer rows.Close()

	var emails []string
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, fmt.Errorf("scanning subscriber email: %w", err)
		}
		emails = append(emails, email)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading confirmed subscribers: %w", err)
	}

	if emails == nil {
		emails = []string{}
	}

	return emails, nil
}
