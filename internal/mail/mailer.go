// Package mail sends the registration confirmation email. Sending is
// best-effort: the caller folds the Result into its response but never
// fails a registration because of it.
package mail

import (
	"context"
	"fmt"
	"html"

	gomail "github.com/wneessen/go-mail"
)

const defaultFrom = "no-reply@numerano.ai"

type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// Confirmation is the payload for one confirmation message.
type Confirmation struct {
	To     string
	Name   string
	TeamID string
}

// Result reports the outcome of a send attempt. Skipped means credentials
// were not configured and no send was attempted; this is an expected
// degraded mode, not a failure.
type Result struct {
	OK      bool
	Skipped bool
	Message string
}

type Sender interface {
	SendConfirmation(ctx context.Context, c Confirmation) Result
}

type smtpSender struct {
	cfg Config
}

func NewSMTPSender(cfg Config) Sender {
	if cfg.From == "" {
		cfg.From = defaultFrom
	}
	return &smtpSender{cfg: cfg}
}

func (s *smtpSender) SendConfirmation(ctx context.Context, c Confirmation) Result {
	if s.cfg.Host == "" || s.cfg.Port == 0 || s.cfg.User == "" || s.cfg.Password == "" {
		return Result{
			Skipped: true,
			Message: "SMTP credentials not configured; skipping email send.",
		}
	}

	msg := gomail.NewMsg()
	if err := msg.From(s.cfg.From); err != nil {
		return Result{Message: err.Error()}
	}
	if err := msg.To(c.To); err != nil {
		return Result{Message: err.Error()}
	}
	msg.Subject(fmt.Sprintf("Your Numerano Team ID: %s", c.TeamID))
	msg.SetBodyString(gomail.TypeTextHTML, confirmationBody(c))

	opts := []gomail.Option{
		gomail.WithPort(s.cfg.Port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.cfg.User),
		gomail.WithPassword(s.cfg.Password),
	}
	if s.cfg.Port == 465 {
		opts = append(opts, gomail.WithSSL())
	}

	client, err := gomail.NewClient(s.cfg.Host, opts...)
	if err != nil {
		return Result{Message: err.Error()}
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return Result{Message: err.Error()}
	}

	return Result{OK: true}
}

func confirmationBody(c Confirmation) string {
	return fmt.Sprintf(`<div style="font-family: Inter, system-ui, sans-serif; padding: 16px; color: #0b0b14;">
  <h2>Welcome to Numerano Teams</h2>
  <p>Your registration was received and verified.</p>
  <p><strong>Team:</strong> %s</p>
  <p><strong>Team ID:</strong> %s</p>
  <p>Save this Team ID for future access.</p>
  <p style="margin-top: 18px;">— Numerano Team</p>
</div>`, html.EscapeString(c.Name), html.EscapeString(c.TeamID))
}
