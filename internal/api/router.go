package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"newsletterd/internal/engine"
)

// NewRouter creates and configures the HTTP router.
func NewRouter(subscriptions *engine.SubscriptionEngine, fanout *engine.FanOutEngine) http.Handler {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	subHandler := NewSubscriptionHandler(subscriptions)
	newsHandler := NewNewsletterHandler(fanout)

	r.Get("/health_check", HealthHandler())
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/subscriptions", func(r chi.Router) {
		r.Post("/", subHandler.Subscribe)
		r.Get("/confirm", subHandler.Confirm)
	})

	r.Post("/newsletters", newsHandler.Publish)

	return r
}
