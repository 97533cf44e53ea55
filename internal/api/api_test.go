package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"newsletterd/internal/domain"
	"newsletterd/internal/engine"
	"newsletterd/internal/metrics"
)

var errTest = errors.New("relation subscriptions does not exist")

// fakeStore backs the engines with an in-memory subscriber table.
type fakeStore struct {
	mu          sync.Mutex
	subscribers map[string]*domain.Subscriber
	tokens      map[string]string
	seq         int

	createErr  error
	confirmErr error
	listErr    error
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

func (f *fakeStore) onlySubscriber(t *testing.T) *domain.Subscriber {
	t.Helper()

	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.subscribers) != 1 {
		t.Fatalf("subscriber count: got %d, want 1", len(f.subscribers))
	}
	for _, sub := range f.subscribers {
		return sub
	}
	return nil
}

type sentEmail struct {
	To       string
	Subject  string
	TextBody string
	HTMLBody string
}

type fakeSender struct {
	mu   sync.Mutex
	sent []sentEmail
	err  error
}

func (f *fakeSender) Send(ctx context.Context, to, subject, textBody, htmlBody string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return f.err
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

func (f *fakeSender) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = nil
}

// newTestRouter wires the real router over in-memory fakes.
func newTestRouter(fs *fakeStore, sender *fakeSender) http.Handler {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	m := metrics.New(prometheus.NewRegistry())

	subscriptions := engine.NewSubscriptionEngine(fs, nil, sender, m, logger, "http://localhost:8080")
	fanout := engine.NewFanOutEngine(fs, nil, sender, m, logger, 4)

	return NewRouter(subscriptions, fanout)
}
