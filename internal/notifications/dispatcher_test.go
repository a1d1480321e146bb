package notifications

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/velora-shop/storefront-backend/pkg/config"
	"github.com/velora-shop/storefront-backend/pkg/mailer"
	"github.com/velora-shop/storefront-backend/pkg/outbox/payloads"
)

type stubSender struct {
	sent   []mailer.Message
	failTo string
}

func (s *stubSender) Send(_ context.Context, msg mailer.Message) error {
	if s.failTo != "" && msg.To == s.failTo {
		return errors.New("smtp unavailable")
	}
	s.sent = append(s.sent, msg)
	return nil
}

func testNotifyConfig() config.NotificationsConfig {
	return config.NotificationsConfig{
		AdminEmail:          "orders@velora.example",
		VerificationTTL:     24 * time.Hour,
		VerificationBaseURL: "https://shop.velora.example",
	}
}

func orderPlacedFixture() payloads.OrderPlacedEvent {
	return payloads.OrderPlacedEvent{
		OrderID:       uuid.New(),
		OrderNumber:   1042,
		UserID:        uuid.New(),
		CustomerName:  "Iris Mendel",
		CustomerEmail: "iris@example.com",
		Subtotal:      "52.00",
		ShippingFee:   "8.00",
		Total:         "60.00",
		Lines: []payloads.OrderPlacedLine{
			{ProductID: uuid.New(), Name: "Harbor Tee", Size: "M", Color: "Navy", UnitPrice: "26.00", Quantity: 2, LineTotal: "52.00"},
		},
		PlacedAt: time.Now().UTC(),
	}
}

func TestNotifyOrderPlacedSendsConfirmationAndAdminAlert(t *testing.T) {
	sender := &stubSender{}
	d, err := NewDispatcher(sender, testNotifyConfig(), nil)
	if err != nil {
		t.Fatalf("NewDispatcher: %v", err)
	}

	if err := d.NotifyOrderPlaced(context.Background(), orderPlacedFixture()); err != nil {
		t.Fatalf("NotifyOrderPlaced: %v", err)
	}
	if len(sender.sent) != 2 {
		t.Fatalf("expected confirmation + admin alert, got %d messages", len(sender.sent))
	}

	confirmation := sender.sent[0]
	if confirmation.To != "iris@example.com" {
		t.Fatalf("confirmation went to %q", confirmation.To)
	}
	if !strings.Contains(confirmation.Subject, "#1042") {
		t.Fatalf("subject missing order number: %q", confirmation.Subject)
	}
	for _, fragment := range []string{"2x Harbor Tee", "Subtotal: 52.00", "Shipping: 8.00", "Total: 60.00"} {
		if !strings.Contains(confirmation.TextBody, fragment) {
			t.Fatalf("confirmation body missing %q:\n%s", fragment, confirmation.TextBody)
		}
	}

	alert := sender.sent[1]
	if alert.To != "orders@velora.example" {
		t.Fatalf("admin alert went to %q", alert.To)
	}
}

func TestNotifyOrderPlacedAdminFailureIsSwallowed(t *testing.T) {
	sender := &stubSender{failTo: "orders@velora.example"}
	d, _ := NewDispatcher(sender, testNotifyConfig(), nil)

	if err := d.NotifyOrderPlaced(context.Background(), orderPlacedFixture()); err != nil {
		t.Fatalf("admin failure must not fail dispatch: %v", err)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("customer confirmation missing, sent=%d", len(sender.sent))
	}
}

func TestNotifyOrderPlacedCustomerFailurePropagates(t *testing.T) {
	sender := &stubSender{failTo: "iris@example.com"}
	d, _ := NewDispatcher(sender, testNotifyConfig(), nil)

	if err := d.NotifyOrderPlaced(context.Background(), orderPlacedFixture()); err == nil {
		t.Fatal("expected error when the customer send fails")
	}
}

func TestNotifyVerificationRequestedBuildsLink(t *testing.T) {
	sender := &stubSender{}
	d, _ := NewDispatcher(sender, testNotifyConfig(), nil)

	err := d.NotifyVerificationRequested(context.Background(), payloads.UserRegisteredEvent{
		UserID:            uuid.New(),
		Email:             "new@example.com",
		FirstName:         "Noor",
		VerificationToken: "tok-123",
	})
	if err != nil {
		t.Fatalf("NotifyVerificationRequested: %v", err)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("expected one message, got %d", len(sender.sent))
	}
	body := sender.sent[0].TextBody
	if !strings.Contains(body, "https://shop.velora.example/verify-email?token=tok-123") {
		t.Fatalf("verification link missing:\n%s", body)
	}
	if !strings.Contains(body, "Hi Noor") {
		t.Fatalf("greeting missing:\n%s", body)
	}
}

func TestNotifyVerificationRequestedRejectsMissingToken(t *testing.T) {
	sender := &stubSender{}
	d, _ := NewDispatcher(sender, testNotifyConfig(), nil)

	err := d.NotifyVerificationRequested(context.Background(), payloads.UserRegisteredEvent{
		UserID: uuid.New(),
		Email:  "new@example.com",
	})
	if err == nil {
		t.Fatal("expected error for a tokenless event")
	}
}

func TestNotifyContactReceivedForwardsToAdmin(t *testing.T) {
	sender := &stubSender{}
	d, _ := NewDispatcher(sender, testNotifyConfig(), nil)

	err := d.NotifyContactReceived(context.Background(), payloads.ContactReceivedEvent{
		ContactID: uuid.New(),
		Name:      "Sam",
		Email:     "sam@example.com",
		Subject:   "Sizing question",
		Message:   "Does the Harbor Tee run small?",
	})
	if err != nil {
		t.Fatalf("NotifyContactReceived: %v", err)
	}
	if len(sender.sent) != 1 || sender.sent[0].To != "orders@velora.example" {
		t.Fatalf("contact not forwarded to admin: %+v", sender.sent)
	}
	if !strings.Contains(sender.sent[0].TextBody, "sam@example.com") {
		t.Fatal("reply address missing from forwarded message")
	}
}

func TestNotifyContactReceivedNoAdminConfigured(t *testing.T) {
	sender := &stubSender{}
	cfg := testNotifyConfig()
	cfg.AdminEmail = ""
	d, _ := NewDispatcher(sender, cfg, nil)

	if err := d.NotifyContactReceived(context.Background(), payloads.ContactReceivedEvent{ContactID: uuid.New()}); err != nil {
		t.Fatalf("missing admin address must drop, not fail: %v", err)
	}
	if len(sender.sent) != 0 {
		t.Fatalf("unexpected send: %+v", sender.sent)
	}
}
