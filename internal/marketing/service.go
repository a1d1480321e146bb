package marketing

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	dbpkg "github.com/velora-shop/storefront-backend/pkg/db"
	"github.com/velora-shop/storefront-backend/pkg/db/models"
	"github.com/velora-shop/storefront-backend/pkg/enums"
	pkgerrors "github.com/velora-shop/storefront-backend/pkg/errors"
	"github.com/velora-shop/storefront-backend/pkg/logger"
	"github.com/velora-shop/storefront-backend/pkg/outbox"
	"github.com/velora-shop/storefront-backend/pkg/outbox/payloads"
)

// Service handles newsletter signups and contact-form submissions.
type Service interface {
	Subscribe(ctx context.Context, email string) error
	SubmitContact(ctx context.Context, req ContactRequest) error
}

// ContactRequest is a contact-form submission.
type ContactRequest struct {
	Name    string `json:"name" validate:"required,max=200"`
	Email   string `json:"email" validate:"required,email"`
	Subject string `json:"subject" validate:"required,max=200"`
	Message string `json:"message" validate:"required,max=5000"`
}

// NewsletterRequest is a newsletter signup.
type NewsletterRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type service struct {
	repo   *Repository
	tx     txRunner
	outbox eventEmitter
	logg   *logger.Logger
}

// NewService constructs the marketing service.
func NewService(repo *Repository, tx txRunner, emitter eventEmitter, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("marketing repository is required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner is required")
	}
	if emitter == nil {
		return nil, fmt.Errorf("outbox emitter is required")
	}
	return &service{repo: repo, tx: tx, outbox: emitter, logg: logg}, nil
}

// Subscribe records a newsletter signup. Re-subscribing an address already on
// the list succeeds without a second row, so the endpoint never leaks whether
// an address is subscribed.
func (s *service) Subscribe(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}

	if _, err := s.repo.CreateSubscription(ctx, email); err != nil {
		if dbpkg.IsUniqueViolation(err, "newsletter_subscriptions") {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store subscription")
	}
	return nil
}

// SubmitContact stores the message and queues the admin notification in the
// same transaction.
func (s *service) SubmitContact(ctx context.Context, req ContactRequest) error {
	msg := &models.ContactMessage{
		Name:    strings.TrimSpace(req.Name),
		Email:   strings.ToLower(strings.TrimSpace(req.Email)),
		Subject: strings.TrimSpace(req.Subject),
		Message: strings.TrimSpace(req.Message),
	}
	if msg.Name == "" || msg.Email == "" || msg.Subject == "" || msg.Message == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "name, email, subject and message are required")
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).CreateContactMessage(ctx, msg); err != nil {
			return fmt.Errorf("store contact message: %w", err)
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventContactReceived,
			AggregateType: enums.AggregateContact,
			AggregateID:   msg.ID,
			Version:       1,
			Data: payloads.ContactReceivedEvent{
				ContactID: msg.ID,
				Name:      msg.Name,
				Email:     msg.Email,
				Subject:   msg.Subject,
				Message:   msg.Message,
			},
		})
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "submit contact message")
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithField(ctx, "contact_id", msg.ID.String()), "contact message received")
	}
	return nil
}
