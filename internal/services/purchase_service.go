// Package services – PurchaseService
//
// PurchaseService is the only place external payment state becomes local
// calendar state. It syncs one way: a paid checkout session moves a ready
// calendar to purchased and records the customer's email and the session
// reference. Confirming again re-applies the same fields.
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/pet-calendar-backend/internal/domain"
	"github.com/tbourn/pet-calendar-backend/internal/notify"
	"github.com/tbourn/pet-calendar-backend/internal/payments"
	"github.com/tbourn/pet-calendar-backend/internal/repo"
	"github.com/tbourn/pet-calendar-backend/internal/utils"
)

// Verification is the outcome of confirming a checkout session.
type Verification struct {
	Success  bool      `json:"success"`
	Calendar *Progress `json:"calendar,omitempty"`
}

// PurchaseService handles checkout and payment confirmation. A nil Gateway
// means payments are disabled; a nil Notifier means no receipts are sent.
type PurchaseService struct {
	DB       *gorm.DB
	Gateway  payments.Gateway
	Notifier notify.Notifier

	// PublicBaseURL prefixes the calendar link in receipts.
	PublicBaseURL string
	Log           zerolog.Logger
}

// Enabled reports whether a payment gateway is configured.
func (s *PurchaseService) Enabled() bool { return s != nil && s.Gateway != nil }

// PublishableKey returns the client-side key of the payment provider.
func (s *PurchaseService) PublishableKey() (string, error) {
	if !s.Enabled() {
		return "", ErrPaymentsDisabled
	}
	return s.Gateway.PublishableKey(), nil
}

// CreateCheckout opens a hosted checkout session for a ready calendar.
func (s *PurchaseService) CreateCheckout(ctx context.Context, calendarID uint, email string) (*payments.Checkout, error) {
	if !s.Enabled() {
		return nil, ErrPaymentsDisabled
	}
	ctx, span := otel.Tracer("services/PurchaseService").Start(ctx, "CreateCheckout",
		trace.WithAttributes(attribute.Int("calendar.id", int(calendarID))),
	)
	defer span.End()

	cal, err := repo.GetCalendarSummary(ctx, s.DB, calendarID)
	if err != nil {
		return nil, mapNotFound(err)
	}
	switch cal.Status {
	case domain.StatusReady:
	case domain.StatusPurchased:
		return nil, ErrAlreadyPurchased
	default:
		return nil, ErrNotReady
	}

	return s.Gateway.CreateCheckout(ctx, payments.CheckoutRequest{
		CalendarID: cal.ID,
		PetName:    cal.PetName,
		Email:      email,
	})
}

// Verify looks up sessionID with the provider and, when it is paid,
// confirms the purchase of calendarID. An unpaid session reports
// Success=false and changes nothing.
func (s *PurchaseService) Verify(ctx context.Context, calendarID uint, sessionID string) (*Verification, error) {
	if !s.Enabled() {
		return nil, ErrPaymentsDisabled
	}
	ctx, span := otel.Tracer("services/PurchaseService").Start(ctx, "Verify",
		trace.WithAttributes(attribute.Int("calendar.id", int(calendarID))),
	)
	defer span.End()

	if _, err := repo.GetCalendarSummary(ctx, s.DB, calendarID); err != nil {
		return nil, mapNotFound(err)
	}

	sess, err := s.Gateway.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !sess.Paid {
		return &Verification{Success: false}, nil
	}
	if sess.CalendarID != "" && sess.CalendarID != utils.FormatID(calendarID) {
		return nil, ErrSessionMismatch
	}

	if err := s.confirm(ctx, calendarID, sess); err != nil {
		return nil, err
	}
	p, err := project(ctx, s.DB, calendarID)
	if err != nil {
		return nil, err
	}
	return &Verification{Success: true, Calendar: p}, nil
}

// HandleWebhook verifies and applies a provider event. Events other than a
// paid checkout completion are acknowledged and ignored, as are events for
// calendars this service does not know. A paid event for a calendar that is
// still generating returns ErrNotReady so the provider retries it.
func (s *PurchaseService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	if !s.Enabled() {
		return ErrPaymentsDisabled
	}
	ev, err := s.Gateway.ParseWebhook(payload, signature)
	if err != nil {
		return err
	}
	lg := s.Log.With().Str("event_id", ev.ID).Str("event_type", ev.Type).Logger()

	if ev.Type != payments.EventCheckoutCompleted || ev.Session == nil || !ev.Session.Paid {
		lg.Debug().Msg("webhook event ignored")
		return nil
	}
	id, err := s.webhookCalendar(ctx, ev.Session)
	if err != nil {
		if errors.Is(err, ErrCalendarNotFound) {
			lg.Warn().Str("session_id", ev.Session.ID).Msg("checkout session without a known calendar")
			return nil
		}
		return err
	}

	err = s.confirm(ctx, id, ev.Session)
	switch {
	case errors.Is(err, ErrCalendarNotFound):
		lg.Warn().Uint("calendar_id", id).Msg("webhook for unknown calendar")
		return nil
	case errors.Is(err, ErrNotReady):
		// the provider redelivers until the calendar has finished generating
		lg.Warn().Uint("calendar_id", id).Msg("paid webhook for calendar that is not ready yet")
	}
	return err
}

// webhookCalendar resolves the calendar a session pays for: the metadata id
// when present, otherwise a calendar already bound to the session.
func (s *PurchaseService) webhookCalendar(ctx context.Context, sess *payments.Session) (uint, error) {
	if id, valid := utils.ParseID(sess.CalendarID); valid {
		return id, nil
	}
	cal, err := repo.GetCalendarBySession(ctx, s.DB, sess.ID)
	if err != nil {
		return 0, mapNotFound(err)
	}
	return cal.ID, nil
}

// confirm writes the purchase and sends a receipt on the first confirmation.
func (s *PurchaseService) confirm(ctx context.Context, calendarID uint, sess *payments.Session) error {
	changed, err := repo.MarkPurchased(ctx, s.DB, calendarID, sess.Email, sess.ID)
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return ErrCalendarNotFound
	case errors.Is(err, repo.ErrInvalidTransition):
		return ErrNotReady
	case err != nil:
		return fmt.Errorf("mark calendar %d purchased: %w", calendarID, err)
	}

	s.Log.Info().
		Uint("calendar_id", calendarID).
		Bool("first_confirmation", changed).
		Msg("purchase confirmed")

	if changed && s.Notifier != nil && sess.Email != "" {
		s.sendReceipt(ctx, calendarID, sess.Email)
	}
	return nil
}

func (s *PurchaseService) sendReceipt(ctx context.Context, calendarID uint, email string) {
	cal, err := repo.GetCalendarSummary(ctx, s.DB, calendarID)
	if err != nil {
		s.Log.Error().Err(err).Uint("calendar_id", calendarID).Msg("load calendar for receipt")
		return
	}
	r := notify.Receipt{
		To:          email,
		CalendarID:  cal.ID,
		PetName:     cal.PetName,
		CalendarURL: fmt.Sprintf("%s/calendar/%d", s.PublicBaseURL, cal.ID),
	}
	if err := s.Notifier.SendReceipt(ctx, r); err != nil {
		s.Log.Error().Err(err).Uint("calendar_id", calendarID).Msg("receipt email failed")
	}
}
