package mailer

import (
	"fmt"

	"gopkg.in/gomail.v2"

	"speshway/internal/config"
)

// Mailer delivers outbound notification mail. All sends happen inline in
// the request; callers log failures and never surface them to clients.
type Mailer interface {
	Send(to []string, subject, htmlBody string) error
}

// SMTPMailer implements Mailer over gomail.
type SMTPMailer struct {
	dialer   *gomail.Dialer
	from     string
	disabled bool
}

// NewSMTPMailer builds the mailer from SMTP settings.
func NewSMTPMailer(cfg config.SMTPConfig) *SMTPMailer {
	return &SMTPMailer{
		dialer:   gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:     cfg.From,
		disabled: cfg.DisableSend,
	}
}

// Send builds and dispatches a single HTML message.
func (m *SMTPMailer) Send(to []string, subject, htmlBody string) error {
	if m.disabled {
		return nil
	}
	if len(to) == 0 {
		return fmt.Errorf("no recipients")
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to...)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send mail to %v: %w", to, err)
	}
	return nil
}
