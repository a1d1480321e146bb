package mailer

import (
	"context"
	"fmt"

	gomail "github.com/wneessen/go-mail"

	"github.com/velora-shop/storefront-backend/pkg/config"
)

// Sender is the outbound mail surface used by notification code. Implementations
// must be safe for concurrent use.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Message is a single outbound email.
type Message struct {
	To       string
	Subject  string
	HTMLBody string
	TextBody string
}

// Client sends mail over SMTP.
type Client struct {
	smtp *gomail.Client
	from string
}

// New builds an SMTP-backed mail client from configuration.
func New(cfg config.SMTPConfig) (*Client, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("smtp host is required")
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("smtp from address is required")
	}

	opts := []gomail.Option{
		gomail.WithPort(cfg.Port),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
	}
	if cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.Username),
			gomail.WithPassword(cfg.Password),
		)
	}

	smtp, err := gomail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("building smtp client: %w", err)
	}
	return &Client{smtp: smtp, from: cfg.From}, nil
}

// Send delivers one message. Callers treat failures as non-fatal; delivery is
// best effort and never blocks the transaction that triggered it.
func (c *Client) Send(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return fmt.Errorf("recipient is required")
	}

	m := gomail.NewMsg()
	if err := m.From(c.from); err != nil {
		return fmt.Errorf("setting from: %w", err)
	}
	if err := m.To(msg.To); err != nil {
		return fmt.Errorf("setting recipient: %w", err)
	}
	m.Subject(msg.Subject)
	if msg.HTMLBody != "" {
		m.SetBodyString(gomail.TypeTextHTML, msg.HTMLBody)
		if msg.TextBody != "" {
			m.AddAlternativeString(gomail.TypeTextPlain, msg.TextBody)
		}
	} else {
		m.SetBodyString(gomail.TypeTextPlain, msg.TextBody)
	}

	if err := c.smtp.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("sending mail to %s: %w", msg.To, err)
	}
	return nil
}
