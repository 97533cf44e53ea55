package store

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"newsletterd/internal/domain"
)

const (
	tokenAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	tokenLength   = 25
)

// SubscriberIDFromToken resolves a confirmation token to its subscriber.
// Resolution never consumes the token; re-clicking a confirmation link
// stays valid. Unknown or empty tokens map to domain.ErrInvalidToken.
func (s *PostgresStore) SubscriberIDFromToken(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", domain.ErrInvalidToken
	}

	var subscriberID string
	err := s.pool.QueryRow(ctx, `
		SELECT subscriber_id FROM subscription_tokens WHERE subscription_token = $1
	`, token).Scan(&subscriberID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", domain.ErrInvalidToken
		}
		return "", fmt.Errorf("querying subscription token: %w", err)
	}
	return subscriberID, nil
}

// generateSubscriptionToken draws 25 alphanumeric characters from
// crypto/rand, comfortably past 128 bits of entropy.
func generateSubscriptionToken() (string, error) {
	buf := make([]byte, tokenLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = tokenAlphabet[int(b)%len(tokenAlphabet)]
	}
	return string(buf), nil
}
