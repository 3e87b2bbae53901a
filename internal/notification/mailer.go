package notification

import (
	"fmt"
	"log"
	"net/smtp"

	"github.com/domodwyer/mailyak/v3"
	"github.com/google/uuid"
)

// Mailer hands a rendered email to a delivery mechanism and returns an
// opaque message id.
type Mailer interface {
	Send(toEmail, subject, htmlBody string) (string, error)
}

// SMTPMailer delivers mail through an SMTP relay.
type SMTPMailer struct {
	addr string // host:port of the SMTP server
	host string // hostname alone, for AUTH
	user string
	pass string
	from string
}

// NewSMTPMailer configures SMTP delivery. user/pass may be empty for an
// unauthenticated relay.
func NewSMTPMailer(addr, host, user, pass, from string) *SMTPMailer {
	return &SMTPMailer{addr: addr, host: host, user: user, pass: pass, from: from}
}

// Send builds and sends the message, returning a generated message id.
func (m *SMTPMailer) Send(toEmail, subject, htmlBody string) (string, error) {
	var auth smtp.Auth
	if m.user != "" {
		auth = smtp.PlainAuth("", m.user, m.pass, m.host)
	}
	mail := mailyak.New(m.addr, auth)
	mail.From(m.from)
	mail.To(toEmail)
	mail.Subject(subject)
	mail.HTML().Set(htmlBody)
	if err := mail.Send(); err != nil {
		return "", fmt.Errorf("smtp send: %w", err)
	}
	id := uuid.NewString()
	log.Printf("notification: email sent to %s with subject %q", toEmail, subject)
	return id, nil
}

// MockMailer performs no network I/O and returns a synthetic message id.
// It is selected by explicit configuration (MAIL_MOCK), never inferred, so
// a misconfigured production deploy cannot silently swallow mail.
type MockMailer struct{}

// Send logs the would-be delivery and returns a synthetic message id.
func (MockMailer) Send(toEmail, subject, _ string) (string, error) {
	log.Printf("notification: MOCK: email would be sent to %s with subject %q", toEmail, subject)
	return uuid.NewString(), nil
}
