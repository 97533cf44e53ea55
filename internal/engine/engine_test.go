package engine

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"

	"newsletterd/internal/domain"
	"newsletterd/internal/metrics"
	"newsletterd/internal/store"
)

// fakeStore is an in-memory SubscriberStore and RecipientLister.
type fakeStore struct {
	mu          sync.Mutex
	subscribers map[string]*domain.Subscriber
	tokens      map[string]string
	seq         int

	createErr  error
	confirmErr error
	listErr    error

	listCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		subscribers: make(map[string]*domain.Subscriber),
		tokens:      make(map[string]string),
	}
}

func (f *fakeStore) CreateSubscriber(ctx context.Context, req domain.SubscriptionRequest, now time.Time) (*domain.Subscriber, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.createErr != nil {
		return nil, "", f.createErr
	}
	for _, sub := range f.subscribers {
		if sub.Email == req.Email {
			return nil, "", domain.ErrDuplicateSubscriber
		}
	}

	f.seq++
	sub := &domain.Subscriber{
		ID:           fmt.Sprintf("sub-%d", f.seq),
		Email:        req.Email,
		Name:         req.Name,
		Status:       domain.StatusPendingConfirmation,
		SubscribedAt: now,
	}
	token := fmt.Sprintf("token-%d", f.seq)
	f.subscribers[sub.ID] = sub
	f.tokens[token] = sub.ID

	return sub, token, nil
}

func (f *fakeStore) MarkConfirmed(ctx context.Context, subscriberID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.confirmErr != nil {
		return f.confirmErr
	}
	sub, ok := f.subscribers[subscriberID]
	if !ok {
		return domain.ErrNotFound
	}
	sub.Status = domain.StatusConfirmed
	return nil
}

func (f *fakeStore) SubscriberIDFromToken(ctx context.Context, token string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	id, ok := f.tokens[token]
	if !ok {
		return "", domain.ErrInvalidToken
	}
	return id, nil
}

func (f *fakeStore) ListConfirmedEmails(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	emails := []string{}
	for _, sub := range f.subscribers {
		if sub.Status == domain.StatusConfirmed {
			emails = append(emails, sub.Email)
		}
	}
	return emails, nil
}

func (f *fakeStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subscribers)
}

type sentEmail struct {
	To       string
	Subject  string
	TextBody string
	HTMLBody string
}

// fakeSender records every send; failFor marks recipients that error.
type fakeSender struct {
	mu      sync.Mutex
	sent    []sentEmail
	failFor map[string]bool
	err     error
}

func newFakeSender() *fakeSender {
	return &fakeSender{failFor: make(map[string]bool)}
}

func (f *fakeSender) Send(ctx context.Context, to, subject, textBody, htmlBody string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return f.err
	}
	if f.failFor[to] {
		return fmt.Errorf("delivery to %s refused", to)
	}
	f.sent = append(f.sent, sentEmail{To: to, Subject: subject, TextBody: textBody, HTMLBody: htmlBody})
	return nil
}

func (f *fakeSender) all() []sentEmail {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]sentEmail, len(f.sent))
	copy(out, f.sent)
	return out
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testMetrics() *metrics.Metrics {
	return metrics.New(prometheus.NewRegistry())
}

func testRedisStore(t *testing.T) (*store.RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rs, err := store.NewRedis(context.Background(), "redis://"+mr.Addr())
	if err != nil {
		t.Fatalf("failed to connect to miniredis: %v", err)
	}
	t.Cleanup(func() { rs.Close() })

	return rs, mr
}
