// Package email delivers outbound mail for the newsletter service.
// Two transports are provided: an HTTP delivery API client and plain SMTP.
package email

import "context"

// Sender is the outbound email capability consumed by the workflows.
// Implementations must be safe for concurrent use.
type Sender interface {
	Send(ctx context.Context, to, subject, textBody, htmlBody string) error
}
