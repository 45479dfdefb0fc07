// Package notify sends customer notifications. Currently the only one is
// the purchase receipt mailed after a calendar is paid for.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"gopkg.in/gomail.v2"

	"github.com/tbourn/pet-calendar-backend/internal/config"
)

// Receipt is the data rendered into a purchase receipt.
type Receipt struct {
	To          string
	CalendarID  uint
	PetName     string
	CalendarURL string
}

// Notifier delivers purchase receipts.
type Notifier interface {
	SendReceipt(ctx context.Context, r Receipt) error
}

type sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// Mailer sends receipts over SMTP.
type Mailer struct {
	dialer sender
	from   string
}

// NewMailer returns a Mailer for the configured SMTP server.
func NewMailer(cfg config.SMTPConfig) *Mailer {
	return &Mailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

var receiptTmpl = template.Must(template.New("receipt").Parse(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: auto; padding: 20px;">
	<h2 style="text-align: center;">Thank you for your order!</h2>
	<p>Your 12-month calendar starring {{.PetName}} is unlocked.</p>
	<p style="text-align: center;"><a href="{{.CalendarURL}}">View your calendar</a></p>
	<p style="color: #888;">Order #{{.CalendarID}}</p>
</div>
`))

// SendReceipt renders and sends the receipt. gomail has no context support,
// so ctx is only checked before dialing.
func (m *Mailer) SendReceipt(ctx context.Context, r Receipt) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var body bytes.Buffer
	if err := receiptTmpl.Execute(&body, r); err != nil {
		return fmt.Errorf("render receipt: %w", err)
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", r.To)
	msg.SetHeader("Subject", fmt.Sprintf("Your calendar for %s is ready", r.PetName))
	msg.SetBody("text/html", body.String())
	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send receipt: %w", err)
	}
	return nil
}
