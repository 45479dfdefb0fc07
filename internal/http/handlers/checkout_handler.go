// Checkout and payment-provider HTTP handlers.
//
// Endpoints:
//   - POST /checkout                (hosted checkout session for a ready calendar)
//   - GET  /checkout/verify         (confirm a paid session after redirect)
//   - POST /stripe/webhook          (signed provider events)
//   - GET  /stripe/status           (feature flag probe)
//   - GET  /stripe/publishable-key  (client-side key)
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/pet-calendar-backend/internal/http/middleware"
	"github.com/tbourn/pet-calendar-backend/internal/payments"
	"github.com/tbourn/pet-calendar-backend/internal/services"
	"github.com/tbourn/pet-calendar-backend/internal/utils"
)

// maxWebhookBytes caps provider event payloads.
const maxWebhookBytes = 64 << 10

// CheckoutRequest is the JSON payload for starting a checkout. calendarId
// is accepted as a number or a numeric string.
type CheckoutRequest struct {
	CalendarID json.Number `json:"calendarId" swaggertype:"integer" example:"42"`
	Email      string      `json:"email"      binding:"omitempty,email" example:"owner@example.com"`
}

// CheckoutResponse carries the hosted checkout URL.
type CheckoutResponse struct {
	URL string `json:"url" example:"https://checkout.stripe.com/c/pay/cs_test_a1"`
}

// StatusResponse reports whether payments are enabled.
type StatusResponse struct {
	Enabled bool `json:"enabled"`
}

// PublishableKeyResponse carries the provider's client-side key.
type PublishableKeyResponse struct {
	PublishableKey string `json:"publishableKey" example:"pk_test_123"`
}

// WebhookResponse acknowledges a provider event.
type WebhookResponse struct {
	Received bool `json:"received"`
}

func (h *Handlers) paymentsEnabled() bool {
	return h.purchaseSvc != nil && h.purchaseSvc.Enabled()
}

// CreateCheckout godoc
// @ID          createCheckout
// @Summary     Start checkout
// @Description Creates a hosted checkout session for a ready calendar and returns its URL.
// @Tags        Checkout
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.CheckoutRequest  true  "Checkout payload"
//
// @Success     200  {object}  handlers.CheckoutResponse
// @Failure     400  {object}  handlers.ErrorResponse "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse "Calendar not found"
// @Failure     409  {object}  handlers.ErrorResponse "Calendar not ready or already purchased"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Failure     503  {object}  handlers.ErrorResponse "Payments disabled"
// @Router      /checkout [post]
func (h *Handlers) CreateCheckout(c *gin.Context) {
	if !h.paymentsEnabled() {
		fail(c, http.StatusServiceUnavailable, ErrCodePaymentsDisabled, "Payments are coming soon! Check back later.")
		return
	}

	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	if req.CalendarID == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "Calendar ID is required")
		return
	}
	id, valid := utils.ParseID(req.CalendarID.String())
	if !valid {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "Invalid calendar ID")
		return
	}

	co, err := h.purchaseSvc.CreateCheckout(c.Request.Context(), id, strings.TrimSpace(req.Email))
	switch {
	case err == nil:
		ok(c, http.StatusOK, CheckoutResponse{URL: co.URL})
	case errors.Is(err, services.ErrCalendarNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "Calendar not found")
	case errors.Is(err, services.ErrNotReady):
		fail(c, http.StatusConflict, ErrCodeNotReady, "Calendar is not ready for purchase")
	case errors.Is(err, services.ErrAlreadyPurchased):
		fail(c, http.StatusConflict, ErrCodeAlreadyPurchased, "Calendar has already been purchased")
	case errors.Is(err, services.ErrPaymentsDisabled):
		fail(c, http.StatusServiceUnavailable, ErrCodePaymentsDisabled, "Payments are coming soon! Check back later.")
	default:
		middleware.LoggerFrom(c).Error().Err(err).Uint("calendar_id", id).Msg("create checkout session")
		fail(c, http.StatusInternalServerError, ErrCodeCheckoutFailed, "Failed to create checkout session")
	}
}

// VerifyCheckout godoc
// @ID          verifyCheckout
// @Summary     Verify a checkout session
// @Description Looks up the session with the payment provider and, when paid, marks the calendar purchased. Unpaid sessions report success=false.
// @Tags        Checkout
// @Produce     json
//
// @Param       session_id   query  string  true  "Checkout session ID"  example(cs_test_a1)
// @Param       calendar_id  query  int     true  "Calendar ID"          minimum(1)
//
// @Success     200  {object}  services.Verification
// @Header      200  {string}  Cache-Control  "no-store"
// @Failure     400  {object}  handlers.ErrorResponse "Missing params"
// @Failure     404  {object}  handlers.ErrorResponse "Calendar not found"
// @Failure     409  {object}  handlers.ErrorResponse "Session mismatch or calendar not ready"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Failure     503  {object}  handlers.ErrorResponse "Payments disabled"
// @Router      /checkout/verify [get]
func (h *Handlers) VerifyCheckout(c *gin.Context) {
	if !h.paymentsEnabled() {
		fail(c, http.StatusServiceUnavailable, ErrCodePaymentsDisabled, "Payments not configured")
		return
	}

	sessionID := strings.TrimSpace(c.Query("session_id"))
	rawID := strings.TrimSpace(c.Query("calendar_id"))
	if sessionID == "" || rawID == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "Missing params")
		return
	}
	id, valid := utils.ParseID(rawID)
	if !valid {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "Invalid calendar ID")
		return
	}

	v, err := h.purchaseSvc.Verify(c.Request.Context(), id, sessionID)
	switch {
	case err == nil:
		ok(c, http.StatusOK, v)
	case errors.Is(err, services.ErrCalendarNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "Calendar not found")
	case errors.Is(err, services.ErrSessionMismatch):
		fail(c, http.StatusConflict, ErrCodeSessionMismatch, "Checkout session does not match this calendar")
	case errors.Is(err, services.ErrNotReady):
		fail(c, http.StatusConflict, ErrCodeNotReady, "Calendar is not ready for purchase")
	default:
		middleware.LoggerFrom(c).Error().Err(err).Uint("calendar_id", id).Msg("verify checkout session")
		fail(c, http.StatusInternalServerError, ErrCodeVerifyFailed, "Failed to verify payment")
	}
}

// StripeWebhook godoc
// @ID          stripeWebhook
// @Summary     Payment provider webhook
// @Description Receives signed provider events. A paid checkout completion marks its calendar purchased; other events are acknowledged and ignored.
// @Tags        Stripe
// @Accept      json
// @Produce     json
//
// @Param       Stripe-Signature  header  string  true  "Provider signature"
//
// @Success     200  {object}  handlers.WebhookResponse
// @Failure     400  {object}  handlers.ErrorResponse "Missing or invalid signature"
// @Failure     409  {object}  handlers.ErrorResponse "Calendar not ready yet, retry later"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Failure     503  {object}  handlers.ErrorResponse "Payments disabled"
// @Router      /stripe/webhook [post]
func (h *Handlers) StripeWebhook(c *gin.Context) {
	if !h.paymentsEnabled() {
		fail(c, http.StatusServiceUnavailable, ErrCodePaymentsDisabled, "Payments not configured")
		return
	}
	sig := c.GetHeader("Stripe-Signature")
	if sig == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "Missing stripe-signature")
		return
	}
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBytes))
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "Unreadable payload")
		return
	}

	err = h.purchaseSvc.HandleWebhook(c.Request.Context(), payload, sig)
	switch {
	case err == nil:
		ok(c, http.StatusOK, WebhookResponse{Received: true})
	case errors.Is(err, payments.ErrInvalidSignature):
		fail(c, http.StatusBadRequest, ErrCodeInvalidSignature, "Webhook signature verification failed")
	case errors.Is(err, services.ErrNotReady):
		fail(c, http.StatusConflict, ErrCodeNotReady, "Calendar is not ready for purchase")
	case errors.Is(err, services.ErrPaymentsDisabled):
		fail(c, http.StatusServiceUnavailable, ErrCodePaymentsDisabled, "Payments not configured")
	default:
		middleware.LoggerFrom(c).Error().Err(err).Msg("handle webhook")
		fail(c, http.StatusInternalServerError, ErrCodeWebhookFailed, "Webhook handler failed")
	}
}

// StripeStatus godoc
// @ID          stripeStatus
// @Summary     Payments feature flag
// @Tags        Stripe
// @Produce     json
// @Success     200  {object}  handlers.StatusResponse
// @Router      /stripe/status [get]
func (h *Handlers) StripeStatus(c *gin.Context) {
	ok(c, http.StatusOK, StatusResponse{Enabled: h.paymentsEnabled()})
}

// StripePublishableKey godoc
// @ID          stripePublishableKey
// @Summary     Payment provider publishable key
// @Tags        Stripe
// @Produce     json
// @Success     200  {object}  handlers.PublishableKeyResponse
// @Failure     503  {object}  handlers.ErrorResponse "Payments disabled"
// @Router      /stripe/publishable-key [get]
func (h *Handlers) StripePublishableKey(c *gin.Context) {
	if !h.paymentsEnabled() {
		fail(c, http.StatusServiceUnavailable, ErrCodePaymentsDisabled, "Payments are not yet configured")
		return
	}
	key, err := h.purchaseSvc.PublishableKey()
	if err != nil || key == "" {
		fail(c, http.StatusServiceUnavailable, ErrCodePaymentsDisabled, "Payments are not yet configured")
		return
	}
	ok(c, http.StatusOK, PublishableKeyResponse{PublishableKey: key})
}
