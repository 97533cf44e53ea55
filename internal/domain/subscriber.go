package domain

import (
	"net/mail"
	"strings"
	"time"
)

// Subscriber statuses. A subscriber only ever moves from
// pending_confirmation to confirmed, never back.
const (
	StatusPendingConfirmation = "pending_confirmation"
	StatusConfirmed           = "confirmed"
)

type Subscriber struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Status       string    `json:"status"`
	SubscribedAt time.Time `json:"subscribed_at"`
}

// SubscriptionRequest is a validated (email, name) pair. Construct it
// through NewSubscriptionRequest; the zero value is not meaningful.
type SubscriptionRequest struct {
	Email string
	Name  string
}

// NewSubscriptionRequest validates raw form input. It performs no storage
// or network access.
func NewSubscriptionRequest(email, name string) (SubscriptionRequest, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return SubscriptionRequest{}, &ValidationError{Field: "name", Reason: "must not be empty"}
	}

	email = strings.TrimSpace(email)
	if email == "" {
		return SubscriptionRequest{}, &ValidationError{Field: "email", Reason: "must not be empty"}
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return SubscriptionRequest{}, &ValidationError{Field: "email", Reason: "is not a valid email address"}
	}

	return SubscriptionRequest{Email: email, Name: name}, nil
}
