// Package payments integrates the checkout provider. The rest of the
// service only sees the Gateway interface; Stripe is the production
// implementation.
package payments

import (
	"context"
	"errors"
)

// ErrInvalidSignature is returned when a webhook payload fails verification.
var ErrInvalidSignature = errors.New("invalid webhook signature")

// CheckoutRequest describes the single calendar being bought.
type CheckoutRequest struct {
	CalendarID uint
	PetName    string
	Email      string // optional, prefills the checkout form
}

// Checkout is a created hosted checkout session.
type Checkout struct {
	SessionID string
	URL       string
}

// Session is the provider's view of a checkout session.
type Session struct {
	ID         string
	Paid       bool
	Email      string
	CalendarID string // from session metadata, may be empty
}

// Event is a verified webhook event. Session is set for checkout events.
type Event struct {
	ID      string
	Type    string
	Session *Session
}

// EventCheckoutCompleted is the event type that confirms a purchase.
const EventCheckoutCompleted = "checkout.session.completed"

// Gateway is the payment collaborator.
type Gateway interface {
	CreateCheckout(ctx context.Context, req CheckoutRequest) (*Checkout, error)
	GetSession(ctx context.Context, sessionID string) (*Session, error)
	ParseWebhook(payload []byte, signature string) (*Event, error)
	PublishableKey() string
}
