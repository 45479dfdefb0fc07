package payments

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/tbourn/pet-calendar-backend/internal/config"
	"github.com/tbourn/pet-calendar-backend/internal/utils"
)

const metadataCalendarID = "calendarId"

// Stripe implements Gateway with Stripe Checkout.
type Stripe struct {
	api            *client.API
	publishableKey string
	webhookSecret  string
	baseURL        string
	priceCents     int64
	currency       string
}

// NewStripe builds a Stripe gateway. backends may be nil; tests pass a
// backend pointed at a local server.
func NewStripe(cfg config.StripeConfig, publicBaseURL string, backends *stripe.Backends) *Stripe {
	api := &client.API{}
	api.Init(cfg.SecretKey, backends)
	return &Stripe{
		api:            api,
		publishableKey: cfg.PublishableKey,
		webhookSecret:  cfg.WebhookSecret,
		baseURL:        publicBaseURL,
		priceCents:     cfg.PriceCents,
		currency:       cfg.Currency,
	}
}

// PublishableKey returns the client-side key.
func (s *Stripe) PublishableKey() string { return s.publishableKey }

// CreateCheckout creates a one-item payment session for a calendar.
func (s *Stripe) CreateCheckout(ctx context.Context, req CheckoutRequest) (*Checkout, error) {
	id := utils.FormatID(req.CalendarID)
	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(s.currency),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(fmt.Sprintf("%s's Custom Pet Calendar", req.PetName)),
					Description: stripe.String(fmt.Sprintf(
						"A beautiful 12-month wall calendar featuring %s celebrating major holidays throughout the year.", req.PetName)),
				},
				UnitAmount: stripe.Int64(s.priceCents),
			},
			Quantity: stripe.Int64(1),
		}},
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(s.baseURL + "/checkout/success?session_id={CHECKOUT_SESSION_ID}&calendar_id=" + id),
		CancelURL:  stripe.String(s.baseURL + "/calendar/" + id),
	}
	if req.Email != "" {
		params.CustomerEmail = stripe.String(req.Email)
	}
	params.AddMetadata(metadataCalendarID, id)
	params.Context = ctx

	sess, err := s.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}
	return &Checkout{SessionID: sess.ID, URL: sess.URL}, nil
}

// GetSession retrieves a checkout session.
func (s *Stripe) GetSession(ctx context.Context, sessionID string) (*Session, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	sess, err := s.api.CheckoutSessions.Get(sessionID, params)
	if err != nil {
		return nil, fmt.Errorf("retrieve checkout session: %w", err)
	}
	return toSession(sess), nil
}

// ParseWebhook verifies the Stripe-Signature header and decodes the event.
func (s *Stripe) ParseWebhook(payload []byte, signature string) (*Event, error) {
	if s.webhookSecret == "" {
		return nil, fmt.Errorf("%w: webhook secret not configured", ErrInvalidSignature)
	}
	ev, err := webhook.ConstructEventWithOptions(payload, signature, s.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	out := &Event{ID: ev.ID, Type: string(ev.Type)}
	if ev.Type == stripe.EventTypeCheckoutSessionCompleted && ev.Data != nil {
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(ev.Data.Raw, &sess); err != nil {
			return nil, fmt.Errorf("decode checkout session: %w", err)
		}
		out.Session = toSession(&sess)
	}
	return out, nil
}

func toSession(sess *stripe.CheckoutSession) *Session {
	out := &Session{
		ID:         sess.ID,
		Paid:       sess.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid,
		Email:      sess.CustomerEmail,
		CalendarID: sess.Metadata[metadataCalendarID],
	}
	if sess.CustomerDetails != nil && sess.CustomerDetails.Email != "" {
		out.Email = sess.CustomerDetails.Email
	}
	return out
}
