package payments

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/tbourn/pet-calendar-backend/internal/config"
)

func newTestStripe(t *testing.T, h http.HandlerFunc) *Stripe {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL:               stripe.String(srv.URL),
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelNull},
	})
	cfg := config.StripeConfig{
		SecretKey:      "sk_test_x",
		PublishableKey: "pk_test_x",
		WebhookSecret:  "whsec_test",
		PriceCents:     2999,
		Currency:       "usd",
	}
	return NewStripe(cfg, "https://pets.example.com", &stripe.Backends{API: backend, Connect: backend, Uploads: backend})
}

func TestCreateCheckout_SendsLineItemAndMetadata(t *testing.T) {
	var form url.Values
	st := newTestStripe(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/checkout/sessions" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		b, _ := io.ReadAll(r.Body)
		form, _ = url.ParseQuery(string(b))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"cs_test_1","object":"checkout.session","url":"https://checkout.stripe.com/c/pay/cs_test_1"}`)
	})

	co, err := st.CreateCheckout(context.Background(), CheckoutRequest{CalendarID: 7, PetName: "Buddy", Email: "a@b.c"})
	if err != nil {
		t.Fatalf("CreateCheckout: %v", err)
	}
	if co.SessionID != "cs_test_1" || !strings.HasPrefix(co.URL, "https://checkout.stripe.com/") {
		t.Fatalf("unexpected checkout: %+v", co)
	}

	checks := [][2]string{
		{"mode", "payment"},
		{"customer_email", "a@b.c"},
		{"metadata[calendarId]", "7"},
		{"line_items[0][quantity]", "1"},
		{"line_items[0][price_data][currency]", "usd"},
		{"line_items[0][price_data][unit_amount]", "2999"},
		{"line_items[0][price_data][product_data][name]", "Buddy's Custom Pet Calendar"},
		{"success_url", "https://pets.example.com/checkout/success?session_id={CHECKOUT_SESSION_ID}&calendar_id=7"},
		{"cancel_url", "https://pets.example.com/calendar/7"},
	}
	for _, c := range checks {
		if got := form.Get(c[0]); got != c[1] {
			t.Errorf("%s = %q; want %q", c[0], got, c[1])
		}
	}
}

func TestGetSession_MapsPaidStatusAndEmail(t *testing.T) {
	st := newTestStripe(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/checkout/sessions/cs_paid" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"cs_paid","object":"checkout.session","payment_status":"paid",
			"customer_details":{"email":"buyer@example.com"},"metadata":{"calendarId":"7"}}`)
	})

	sess, err := st.GetSession(context.Background(), "cs_paid")
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if !sess.Paid || sess.Email != "buyer@example.com" || sess.CalendarID != "7" || sess.ID != "cs_paid" {
		t.Fatalf("unexpected session: %+v", sess)
	}
}

func TestGetSession_Unpaid(t *testing.T) {
	st := newTestStripe(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"cs_open","object":"checkout.session","payment_status":"unpaid","customer_email":"x@y.z"}`)
	})
	sess, err := st.GetSession(context.Background(), "cs_open")
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if sess.Paid || sess.Email != "x@y.z" {
		t.Fatalf("unexpected session: %+v", sess)
	}
}

func TestParseWebhook_VerifiesSignature(t *testing.T) {
	st := newTestStripe(t, func(w http.ResponseWriter, r *http.Request) {})
	payload := []byte(`{"id":"evt_1","object":"event","type":"checkout.session.completed","api_version":"2020-01-01",
		"data":{"object":{"id":"cs_1","object":"checkout.session","payment_status":"paid","metadata":{"calendarId":"3"}}}}`)

	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    "whsec_test",
		Timestamp: time.Now(),
	})
	ev, err := st.ParseWebhook(payload, signed.Header)
	if err != nil {
		t.Fatalf("ParseWebhook: %v", err)
	}
	if ev.Type != EventCheckoutCompleted || ev.Session == nil || !ev.Session.Paid || ev.Session.CalendarID != "3" {
		t.Fatalf("unexpected event: %+v %+v", ev, ev.Session)
	}

	if _, err := st.ParseWebhook(payload, "t=1,v1=deadbeef"); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
}
