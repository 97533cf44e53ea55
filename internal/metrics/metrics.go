// Package metrics exposes Prometheus instrumentation for the subscriber
// lifecycle and newsletter dispatch paths.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	SubscribersCreated   prometheus.Counter
	SubscribersConfirmed prometheus.Counter
	IssuesPublished      prometheus.Counter
	EmailsSent           prometheus.Counter
	EmailsFailed         prometheus.Counter
	DispatchDuration     prometheus.Histogram
}

// New registers all metrics against the given registerer. Tests pass a
// fresh prometheus.NewRegistry to avoid duplicate registration.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		SubscribersCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "newsletterd_subscribers_created_total",
			Help: "Total number of pending subscribers created",
		}),
		SubscribersConfirmed: factory.NewCounter(prometheus.CounterOpts{
			Name: "newsletterd_subscribers_confirmed_total",
			Help: "Total number of subscribers confirmed via token",
		}),
		IssuesPublished: factory.NewCounter(prometheus.CounterOpts{
			Name: "newsletterd_issues_published_total",
			Help: "Total number of newsletter issues published",
		}),
		EmailsSent: factory.NewCounter(prometheus.CounterOpts{
			Name: "newsletterd_emails_sent_total",
			Help: "Total number of outbound emails accepted by the sender",
		}),
		EmailsFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "newsletterd_emails_failed_total",
			Help: "Total number of outbound emails that failed to send",
		}),
		DispatchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "newsletterd_dispatch_duration_seconds",
			Help:    "Duration of newsletter fan-out per publish request",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
	}
}

// ObserveDispatch records the duration of a fan-out. Call with
// time.Now() captured at the start of the dispatch.
func (m *Metrics) ObserveDispatch(start time.Time) {
	m.DispatchDuration.Observe(time.Since(start).Seconds())
}
