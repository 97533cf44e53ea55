package store

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ConfirmedEmailsKey holds the cached confirmed-recipient snapshot.
const ConfirmedEmailsKey = "confirmed_emails"

// ConfirmedEmailsTTL bounds staleness when invalidation is missed.
const ConfirmedEmailsTTL = 5 * time.Minute

type RedisStore struct {
	client *redis.Client
}

func NewRedis(ctx context.Context, redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("pinging redis: %w", err)
	}

	return &RedisStore{client: client}, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) Client() *redis.Client {
	return s.client
}

// CachedConfirmedEmails returns the cached snapshot. ok is false on a
// cache miss; callers fall back to Postgres.
func (s *RedisStore) CachedConfirmedEmails(ctx context.Context) ([]string, bool, error) {
	emails, err := s.client.LRange(ctx, ConfirmedEmailsKey, 0, -1).Result()
	if err != nil {
		return nil, false, fmt.Errorf("reading confirmed emails cache: %w", err)
	}
	if len(emails) == 0 {
		// An empty list is indistinguishable from a missing key, so an
		// empty recipient set is simply never cached.
		return nil, false, nil
	}
	return emails, true, nil
}

// CacheConfirmedEmails replaces the snapshot atomically via a pipeline.
func (s *RedisStore) CacheConfirmedEmails(ctx context.Context, emails []string) error {
	if len(emails) == 0 {
		return nil
	}

	members := make([]interface{}, len(emails))
	for i, e := range emails {
		members[i] = e
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, ConfirmedEmailsKey)
	pipe.RPush(ctx, ConfirmedEmailsKey, members...)
	pipe.Expire(ctx, ConfirmedEmailsKey, ConfirmedEmailsTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("caching confirmed emails: %w", err)
	}
	return nil
}

// InvalidateConfirmedEmails drops the snapshot so the next dispatch sees
// newly confirmed subscribers.
func (s *RedisStore) InvalidateConfirmedEmails(ctx context.Context) error {
	if err := s.client.Del(ctx, ConfirmedEmailsKey).Err(); err != nil {
		return fmt.Errorf("invalidating confirmed emails cache: %w", err)
	}
	return nil
}
