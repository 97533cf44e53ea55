package api

import (
	"errors"
	"net/http"

	"newsletterd/internal/domain"
	"newsletterd/internal/engine"
)

type SubscriptionHandler struct {
	engine *engine.SubscriptionEngine
}

func NewSubscriptionHandler(e *engine.SubscriptionEngine) *SubscriptionHandler {
	return &SubscriptionHandler{engine: e}
}

// Subscribe handles POST /subscriptions with form fields email and name.
func (h *SubscriptionHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		respondError(w, http.StatusBadRequest, "invalid form body")
		return
	}

	err := h.engine.Subscribe(r.Context(), r.PostFormValue("email"), r.PostFormValue("name"))
	if err != nil {
		var vErr *domain.ValidationError
		switch {
		case errors.As(err, &vErr):
			respondError(w, http.StatusBadRequest, vErr.Error())
		case errors.Is(err, domain.ErrDuplicateSubscriber):
			respondError(w, http.StatusBadRequest, "email is already subscribed")
		default:
			respondError(w, http.StatusInternalServerError, "failed to create subscription")
		}
		return
	}

	w.WriteHeader(http.StatusOK)
}

// Confirm handles GET /subscriptions/confirm?subscription_token=...
func (h *SubscriptionHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("subscription_token")

	if err := h.engine.Confirm(r.Context(), token); err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidToken):
			respondError(w, http.StatusBadRequest, "invalid subscription token")
		case errors.Is(err, domain.ErrNotFound):
			respondError(w, http.StatusBadRequest, "invalid subscription token")
		default:
			respondError(w, http.StatusInternalServerError, "failed to confirm subscription")
		}
		return
	}

	w.WriteHeader(http.StatusOK)
}
