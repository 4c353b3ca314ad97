// Package mailer abstracts the outbound notification channel behind a
// capability interface so lead/contact handling stays testable without
// a live SMTP account.
package mailer

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/rs/zerolog"
)

// Message is one outbound notification
type Message struct {
	To      string
	Subject string
	Body    string
	HTML    bool
}

// Mailer sends notification messages. Implementations must be safe for
// concurrent use.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPConfig holds SMTP transport settings
type SMTPConfig struct {
	Host string
	Port int
	User string
	Pass string
	From string
}

// SMTPMailer sends mail through an authenticated SMTP relay
type SMTPMailer struct {
	cfg SMTPConfig
	log zerolog.Logger
}

// NewSMTPMailer creates a mailer backed by net/smtp
func NewSMTPMailer(cfg SMTPConfig, log zerolog.Logger) *SMTPMailer {
	if cfg.From == "" {
		cfg.From = cfg.User
	}
	return &SMTPMailer{
		cfg: cfg,
		log: log.With().Str("component", "mailer").Logger(),
	}
}

// Send delivers the message. The context is checked before dialing; net/smtp
// has no native context support so an in-flight delivery runs to completion.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if msg.To == "" {
		return fmt.Errorf("message has no recipient")
	}

	contentType := "text/plain; charset=utf-8"
	if msg.HTML {
		contentType = "text/html; charset=utf-8"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: RealCred+ <%s>\r\n", m.cfg.From)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	fmt.Fprintf(&b, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Content-Type: %s\r\n", contentType)
	fmt.Fprintf(&b, "\r\n%s\r\n", msg.Body)

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	auth := smtp.PlainAuth("", m.cfg.User, m.cfg.Pass, m.cfg.Host)

	if err := smtp.SendMail(addr, auth, m.cfg.From, []string{msg.To}, []byte(b.String())); err != nil {
		return fmt.Errorf("failed to send mail to %s: %w", msg.To, err)
	}

	m.log.Info().
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Msg("Mail sent")

	return nil
}

// LogMailer logs messages instead of sending them. Used when SMTP
// credentials are not configured (development, tests).
type LogMailer struct {
	log zerolog.Logger
}

// NewLogMailer creates a log-only mailer
func NewLogMailer(log zerolog.Logger) *LogMailer {
	return &LogMailer{log: log.With().Str("component", "mailer").Logger()}
}

// Send logs the message and reports success
func (m *LogMailer) Send(_ context.Context, msg Message) error {
	m.log.Info().
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Int("body_bytes", len(msg.Body)).
		Msg("Mail suppressed (SMTP not configured)")
	return nil
}
