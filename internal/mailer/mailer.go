// Package mailer sends transactional mail over SMTP, currently only the
// password recovery link.
package mailer

import (
	"fmt"

	"github.com/pkg/errors"
	"gopkg.in/gomail.v2"

	"github.com/ecotrack/ecotrack/internal/config"
)

// Sender dispatches a single plain text mail. Handlers depend on this
// interface so tests can capture outgoing mail instead of speaking SMTP.
type Sender interface {
	Send(to, subject, body string) error
}

// Mailer implements Sender over SMTP via gomail.
type Mailer struct {
	cfg config.SMTP
}

// New creates a Mailer from SMTP settings.
func New(cfg config.SMTP) *Mailer {
	return &Mailer{cfg: cfg}
}

// Send dispatches one mail. It dials per send; the reset flow is far too
// infrequent to warrant a held connection.
func (m *Mailer) Send(to, subject, body string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.From)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	dialer := gomail.NewDialer(m.cfg.Host, m.cfg.Port, m.cfg.User, m.cfg.Password)

	if err := dialer.DialAndSend(msg); err != nil {
		return errors.Wrap(err, "failed to send mail")
	}

	return nil
}

// ResetPasswordBody renders the recovery mail text with the link the SPA
// handles at /reset-password/<token>.
func ResetPasswordBody(clientBaseURL, resetToken string) string {
	return fmt.Sprintf(
		"You are receiving this because you (or someone else) requested a password reset for your account.\n\n"+
			"Please click the following link, or paste it into your browser, to complete the process:\n\n"+
			"%s/reset-password/%s\n\n"+
			"If you did not request this, please ignore this email and your password will remain unchanged.\n",
		clientBaseURL, resetToken)
}
