package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"newsletterd/internal/domain"
	"newsletterd/internal/email"
	"newsletterd/internal/metrics"
	"newsletterd/internal/store"
)

// RecipientLister is the read path of the subscriber store used for
// dispatch. *store.PostgresStore satisfies it.
type RecipientLister interface {
	ListConfirmedEmails(ctx context.Context) ([]string, error)
}

// FanOutEngine delivers a newsletter issue to every confirmed subscriber.
type FanOutEngine struct {
	store          RecipientLister
	cache          *store.RedisStore
	sender         email.Sender
	metrics        *metrics.Metrics
	logger         *slog.Logger
	maxConcurrency int
}

func NewFanOutEngine(s RecipientLister, cache *store.RedisStore, sender email.Sender, m *metrics.Metrics, logger *slog.Logger, maxConcurrency int) *FanOutEngine {
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}
	return &FanOutEngine{
		store:          s,
		cache:          cache,
		sender:         sender,
		metrics:        m,
		logger:         logger,
		maxConcurrency: maxConcurrency,
	}
}

// Publish sends the issue to every confirmed subscriber with bounded
// parallelism. Every recipient is attempted before Publish returns; only
// a fault while listing recipients is an error. Per-recipient send
// failures are logged and counted.
// Returns the number of emails successfully handed to the sender.
func (f *FanOutEngine) Publish(ctx context.Context, issue domain.Issue) (int, error) {
	start := time.Now()

	recipients, err := f.confirmedRecipients(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing confirmed subscribers: %w", err)
	}

	if len(recipients) == 0 {
		f.logger.Info("no confirmed subscribers, nothing to send", "title", issue.Title)
		f.metrics.IssuesPublished.Inc()
		return 0, nil
	}

	var sent, failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.maxConcurrency)
	for _, recipient := range recipients {
		recipient := recipient
		g.Go(func() error {
			if err := f.sender.Send(gctx, recipient, issue.Title, issue.Content.Text, issue.Content.HTML); err != nil {
				failed.Add(1)
				f.metrics.EmailsFailed.Inc()
				f.logger.Error("failed to deliver newsletter issue",
					"recipient", recipient,
					"title", issue.Title,
					"error", err,
				)
				return nil
			}
			sent.Add(1)
			f.metrics.EmailsSent.Inc()
			return nil
		})
	}
	// Goroutines swallow per-recipient failures, so the group error is
	// always nil.
	_ = g.Wait()

	f.metrics.IssuesPublished.Inc()
	f.metrics.ObserveDispatch(start)

	f.logger.Info("newsletter issue dispatched",
		"title", issue.Title,
		"recipients", len(recipients),
		"sent", sent.Load(),
		"failed", failed.Load(),
	)

	return int(sent.Load()), nil
}

// confirmedRecipients reads the snapshot through the Redis cache. Redis
// being down degrades to a Postgres read; it never masks a Postgres fault
// and never turns a readable store into an error.
func (f *FanOutEngine) confirmedRecipients(ctx context.Context) ([]string, error) {
	if f.cache != nil {
		emails, ok, err := f.cache.CachedConfirmedEmails(ctx)
		if err != nil {
			f.logger.Warn("recipient cache read failed, falling back to postgres", "error", err)
		} else if ok {
			return emails, nil
		}
	}

	emails, err := f.store.ListConfirmedEmails(ctx)
	if err != nil {
		return nil, err
	}

	if f.cache != nil {
		if err := f.cache.CacheConfirmedEmails(ctx, emails); err != nil {
			f.logger.Warn("failed to refresh recipient cache", "error", err)
		}
	}

	return emails, nil
}
