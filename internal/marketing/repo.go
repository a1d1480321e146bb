package marketing

import (
	"context"

	"gorm.io/gorm"

	"github.com/velora-shop/storefront-backend/internal/repo"
	"github.com/velora-shop/storefront-backend/pkg/db/models"
)

// Repository persists newsletter signups and contact-form submissions.
type Repository struct {
	repo.Base
}

// NewRepository constructs a marketing repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{Base: repo.NewBase(tx)}
}

// CreateSubscription inserts a newsletter signup. The email column is unique;
// duplicates surface as a constraint violation for the service to absorb.
func (r *Repository) CreateSubscription(ctx context.Context, email string) (*models.NewsletterSubscription, error) {
	sub := &models.NewsletterSubscription{Email: email}
	if err := r.DB(ctx).Create(sub).Error; err != nil {
		return nil, err
	}
	return sub, nil
}

// CreateContactMessage stores a contact-form submission.
func (r *Repository) CreateContactMessage(ctx context.Context, msg *models.ContactMessage) error {
	return r.DB(ctx).Create(msg).Error
}
