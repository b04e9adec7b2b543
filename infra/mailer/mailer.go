// Package mailer sends notification emails over SMTP.
package mailer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tapevault/backoffice/pkg/config"
	"gopkg.in/gomail.v2"
)

// Mailer sends a plain text email.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTPMailer delivers through a gomail dialer.
type SMTPMailer struct {
	from   string
	sender gomail.Sender
	dial   func() (gomail.SendCloser, error)
	logger *slog.Logger
}

// New returns an SMTP mailer, or a logging no-op when no host is configured.
func New(cfg *config.SMTP, logger *slog.Logger) Mailer {
	if cfg == nil || cfg.Host == "" {
		return &NoopMailer{logger: logger}
	}
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	return &SMTPMailer{from: cfg.From, dial: d.Dial, logger: logger}
}

// NewWithSender is used when the transport is already open.
func NewWithSender(from string, sender gomail.Sender, logger *slog.Logger) *SMTPMailer {
	return &SMTPMailer{from: from, sender: sender, logger: logger}
}

func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	sender := m.sender
	if sender == nil {
		sc, err := m.dial()
		if err != nil {
			m.logger.Error("SMTP dial failed", "error", err)
			return fmt.Errorf("smtp dial: %w", err)
		}
		defer sc.Close() //nolint:errcheck
		sender = sc
	}
	if err := gomail.Send(sender, msg); err != nil {
		m.logger.Error("Failed to send email", "to", to, "subject", subject, "error", err)
		return fmt.Errorf("send email: %w", err)
	}
	m.logger.Info("Email sent", "to", to, "subject", subject)
	return nil
}

// NoopMailer only logs.
type NoopMailer struct {
	logger *slog.Logger
}

func (m *NoopMailer) Send(_ context.Context, to, subject, _ string) error {
	m.logger.Debug("SMTP not configured, skipping email", "to", to, "subject", subject)
	return nil
}
