package notifications

import (
	"context"
	"fmt"
	"strings"

	"github.com/velora-shop/storefront-backend/pkg/config"
	"github.com/velora-shop/storefront-backend/pkg/logger"
	"github.com/velora-shop/storefront-backend/pkg/mailer"
	"github.com/velora-shop/storefront-backend/pkg/outbox/payloads"
)

// Dispatcher renders and sends the transactional emails behind domain events.
// Delivery is best effort; nothing here feeds back into the write paths that
// emitted the event.
type Dispatcher struct {
	sender mailer.Sender
	cfg    config.NotificationsConfig
	logg   *logger.Logger
}

// NewDispatcher builds an email dispatcher.
func NewDispatcher(sender mailer.Sender, cfg config.NotificationsConfig, logg *logger.Logger) (*Dispatcher, error) {
	if sender == nil {
		return nil, fmt.Errorf("mail sender required")
	}
	return &Dispatcher{sender: sender, cfg: cfg, logg: logg}, nil
}

// NotifyOrderPlaced sends the customer confirmation and, when an admin address
// is configured, an internal alert. The admin alert is log-only on failure;
// a failed customer send is returned so the consumer can redeliver.
func (d *Dispatcher) NotifyOrderPlaced(ctx context.Context, event payloads.OrderPlacedEvent) error {
	if event.CustomerEmail == "" {
		return fmt.Errorf("order %s has no customer email", event.OrderID)
	}

	if err := d.sender.Send(ctx, mailer.Message{
		To:       event.CustomerEmail,
		Subject:  fmt.Sprintf("Order #%d confirmed", event.OrderNumber),
		TextBody: renderOrderConfirmationText(event),
		HTMLBody: renderOrderConfirmationHTML(event),
	}); err != nil {
		return fmt.Errorf("sending order confirmation: %w", err)
	}

	if d.cfg.AdminEmail != "" {
		alert := mailer.Message{
			To:      d.cfg.AdminEmail,
			Subject: fmt.Sprintf("New order #%d (%s)", event.OrderNumber, event.Total),
			TextBody: fmt.Sprintf(
				"Order %s placed by %s <%s>.\nSubtotal: %s\nShipping: %s\nTotal: %s\nLines: %d\n",
				event.OrderID, event.CustomerName, event.CustomerEmail,
				event.Subtotal, event.ShippingFee, event.Total, len(event.Lines),
			),
		}
		if err := d.sender.Send(ctx, alert); err != nil && d.logg != nil {
			d.logg.Warn(ctx, fmt.Sprintf("admin order alert failed for order %s: %v", event.OrderID, err))
		}
	}
	return nil
}

// NotifyVerificationRequested sends the email address verification link. Used
// for both the initial registration and resends.
func (d *Dispatcher) NotifyVerificationRequested(ctx context.Context, event payloads.UserRegisteredEvent) error {
	if event.Email == "" {
		return fmt.Errorf("user %s has no email", event.UserID)
	}
	if event.VerificationToken == "" {
		return fmt.Errorf("user %s event carries no verification token", event.UserID)
	}

	link := verificationLink(d.cfg.VerificationBaseURL, event.VerificationToken)
	greeting := "Hi"
	if event.FirstName != "" {
		greeting = "Hi " + event.FirstName
	}
	if err := d.sender.Send(ctx, mailer.Message{
		To:      event.Email,
		Subject: "Verify your email address",
		TextBody: fmt.Sprintf(
			"%s,\n\nConfirm your email address to finish setting up your account:\n\n%s\n\nThe link expires in %s. If you did not create this account, ignore this email.\n",
			greeting, link, d.cfg.VerificationTTL,
		),
		HTMLBody: fmt.Sprintf(
			`<p>%s,</p><p>Confirm your email address to finish setting up your account:</p><p><a href="%s">Verify email</a></p><p>The link expires in %s. If you did not create this account, ignore this email.</p>`,
			greeting, link, d.cfg.VerificationTTL,
		),
	}); err != nil {
		return fmt.Errorf("sending verification email: %w", err)
	}
	return nil
}

// NotifyContactReceived forwards a contact form submission to the admin inbox.
// Without a configured admin address the event is dropped with a warning.
func (d *Dispatcher) NotifyContactReceived(ctx context.Context, event payloads.ContactReceivedEvent) error {
	if d.cfg.AdminEmail == "" {
		if d.logg != nil {
			d.logg.Warn(ctx, fmt.Sprintf("no admin email configured, dropping contact %s", event.ContactID))
		}
		return nil
	}
	if err := d.sender.Send(ctx, mailer.Message{
		To:      d.cfg.AdminEmail,
		Subject: fmt.Sprintf("Contact form: %s", event.Subject),
		TextBody: fmt.Sprintf(
			"From: %s <%s>\nSubject: %s\n\n%s\n",
			event.Name, event.Email, event.Subject, event.Message,
		),
	}); err != nil {
		return fmt.Errorf("forwarding contact message: %w", err)
	}
	return nil
}

func verificationLink(baseURL, token string) string {
	if baseURL == "" {
		return token
	}
	if strings.Contains(baseURL, "?") {
		return baseURL + "&token=" + token
	}
	return strings.TrimRight(baseURL, "/") + "/verify-email?token=" + token
}

func renderOrderConfirmationText(event payloads.OrderPlacedEvent) string {
	var b strings.Builder
	name := event.CustomerName
	if name == "" {
		name = "there"
	}
	fmt.Fprintf(&b, "Hi %s,\n\nThanks for your order! Order #%d is confirmed.\n\n", name, event.OrderNumber)
	for _, line := range event.Lines {
		fmt.Fprintf(&b, "  %dx %s (%s, %s) - %s\n", line.Quantity, line.Name, line.Size, line.Color, line.LineTotal)
	}
	fmt.Fprintf(&b, "\nSubtotal: %s\nShipping: %s\nTotal: %s\n", event.Subtotal, event.ShippingFee, event.Total)
	return b.String()
}

func renderOrderConfirmationHTML(event payloads.OrderPlacedEvent) string {
	var b strings.Builder
	name := event.CustomerName
	if name == "" {
		name = "there"
	}
	fmt.Fprintf(&b, "<p>Hi %s,</p><p>Thanks for your order! Order <strong>#%d</strong> is confirmed.</p><ul>", name, event.OrderNumber)
	for _, line := range event.Lines {
		fmt.Fprintf(&b, "<li>%dx %s (%s, %s) - %s</li>", line.Quantity, line.Name, line.Size, line.Color, line.LineTotal)
	}
	fmt.Fprintf(&b, "</ul><p>Subtotal: %s<br>Shipping: %s<br>Total: <strong>%s</strong></p>", event.Subtotal, event.ShippingFee, event.Total)
	return b.String()
}
