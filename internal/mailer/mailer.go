package mailer

import (
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
)

// Message is a plain-text outbound email
type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Mailer delivers account email. Messages are produced by the API and
// delivered asynchronously by the worker through the job queue.
type Mailer interface {
	Send(msg *Message) error
}

// SMTPMailer delivers mail through a plain SMTP server
type SMTPMailer struct {
	addr     string
	from     string
	username string
	password string
	logger   *slog.Logger
}

// NewSMTPMailer creates a mailer for the given SMTP address (host:port).
// Username/password are optional for unauthenticated relays.
func NewSMTPMailer(addr, from, username, password string, logger *slog.Logger) *SMTPMailer {
	return &SMTPMailer{
		addr:     addr,
		from:     from,
		username: username,
		password: password,
		logger:   logger,
	}
}

// Send delivers a single message
func (m *SMTPMailer) Send(msg *Message) error {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", m.from)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	b.WriteString(msg.Body)

	var auth smtp.Auth
	if m.username != "" {
		host := m.addr
		if idx := strings.LastIndex(host, ":"); idx != -1 {
			host = host[:idx]
		}
		auth = smtp.PlainAuth("", m.username, m.password, host)
	}

	if err := smtp.SendMail(m.addr, auth, m.from, []string{msg.To}, []byte(b.String())); err != nil {
		return fmt.Errorf("failed to send mail to %s: %w", msg.To, err)
	}

	m.logger.Info("Mail sent", "to", msg.To, "subject", msg.Subject)
	return nil
}

// LogMailer logs messages instead of delivering them. Used when no SMTP
// server is configured (development).
type LogMailer struct {
	logger *slog.Logger
}

// NewLogMailer creates a mailer that only logs
func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

// Send logs the message and drops it
func (m *LogMailer) Send(msg *Message) error {
	m.logger.Info("Mail delivery skipped (no SMTP configured)",
		"to", msg.To,
		"subject", msg.Subject,
		"body", msg.Body,
	)
	return nil
}
