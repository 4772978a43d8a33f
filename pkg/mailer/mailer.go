package mailer

import (
	"crypto/tls"
	"fmt"

	mail "github.com/go-mail/mail"

	"github.com/flextech/employees-backend/pkg/config"
)

// Sender delivers a rendered message. Services depend on this interface so
// tests and disabled environments can swap the transport out.
type Sender interface {
	Send(to, subject, htmlBody string) error
}

// SMTPSender delivers mail over SMTP with STARTTLS negotiation.
type SMTPSender struct {
	host string
	port int
	from string
	user string
	pass string
}

// NewSMTPSender builds a sender from the SMTP config section.
func NewSMTPSender(cfg config.SMTPConfig) (*SMTPSender, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("smtp host and from address are required")
	}
	return &SMTPSender{
		host: cfg.Host,
		port: cfg.Port,
		from: cfg.From,
		user: cfg.Username,
		pass: cfg.Password,
	}, nil
}

// Send delivers a single HTML message.
func (s *SMTPSender) Send(to, subject, htmlBody string) error {
	m := mail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)

	d := mail.NewDialer(s.host, s.port, s.user, s.pass)
	d.TLSConfig = &tls.Config{ServerName: s.host}

	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}
