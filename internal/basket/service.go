package basket

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	pkgerrors "github.com/velora-shop/storefront-backend/pkg/errors"
)

type guestBaskets interface {
	Get(ctx context.Context, token string) (*Basket, error)
	Save(ctx context.Context, token string, b *Basket) error
	Delete(ctx context.Context, token string) error
}

type userBaskets interface {
	Get(ctx context.Context, userID uuid.UUID) (*Basket, error)
	Save(ctx context.Context, userID uuid.UUID, b *Basket) error
	Clear(ctx context.Context, userID uuid.UUID) error
}

// catalog resolves a SKU to its live snapshot, or a coded error when the
// product is missing, inactive, or the variant does not exist.
type catalog interface {
	ResolveVariant(ctx context.Context, productID uuid.UUID, size, color string) (*Line, error)
}

// Identity names whose basket an operation targets: an authenticated user or
// an anonymous guest token. Exactly one side is set.
type Identity struct {
	UserID     uuid.UUID
	GuestToken string
}

// IsUser reports whether the identity is an authenticated account.
func (id Identity) IsUser() bool {
	return id.UserID != uuid.Nil
}

// AddItemInput is the payload for adding units of a SKU.
type AddItemInput struct {
	ProductID uuid.UUID
	Size      string
	Color     string
	Quantity  int
}

// UpdateItemInput sets the absolute quantity for a SKU. Zero removes it.
type UpdateItemInput struct {
	ProductID uuid.UUID
	Size      string
	Color     string
	Quantity  int
}

// Service routes basket operations to the guest or user store and keeps both
// behind the same semantics: coalesced lines, positive quantities, price
// snapshots taken at add time.
type Service struct {
	guests  guestBaskets
	users   userBaskets
	catalog catalog
}

// NewService builds the basket service.
func NewService(guests guestBaskets, users userBaskets, cat catalog) (*Service, error) {
	if guests == nil {
		return nil, fmt.Errorf("guest store required")
	}
	if users == nil {
		return nil, fmt.Errorf("user store required")
	}
	if cat == nil {
		return nil, fmt.Errorf("catalog required")
	}
	return &Service{guests: guests, users: users, catalog: cat}, nil
}

// Get returns the current basket for the identity.
func (s *Service) Get(ctx context.Context, id Identity) (*Basket, error) {
	if err := validateIdentity(id); err != nil {
		return nil, err
	}
	if id.IsUser() {
		return s.users.Get(ctx, id.UserID)
	}
	return s.guests.Get(ctx, id.GuestToken)
}

// AddItem adds units of a SKU on top of any existing quantity.
func (s *Service) AddItem(ctx context.Context, id Identity, input AddItemInput) (*Basket, error) {
	if err := validateIdentity(id); err != nil {
		return nil, err
	}
	if input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	line, err := s.catalog.ResolveVariant(ctx, input.ProductID, input.Size, input.Color)
	if err != nil {
		return nil, err
	}

	b, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	current := 0
	for _, existing := range b.Lines {
		if existing.Key() == line.Key() {
			current = existing.Quantity
			break
		}
	}
	line.Quantity = current + input.Quantity
	b.SetLine(*line)

	return b, s.save(ctx, id, b)
}

// UpdateItem sets the exact quantity for a SKU; zero or below removes it.
func (s *Service) UpdateItem(ctx context.Context, id Identity, input UpdateItemInput) (*Basket, error) {
	if err := validateIdentity(id); err != nil {
		return nil, err
	}
	b, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	key := Key{ProductID: input.ProductID, Size: input.Size, Color: input.Color}
	if input.Quantity <= 0 {
		b.RemoveLine(key)
		return b, s.save(ctx, id, b)
	}

	line, err := s.catalog.ResolveVariant(ctx, input.ProductID, input.Size, input.Color)
	if err != nil {
		return nil, err
	}
	line.Quantity = input.Quantity
	b.SetLine(*line)
	return b, s.save(ctx, id, b)
}

// Replace swaps the basket contents for the provided lines. Every line is
// re-resolved against the live catalog so prices are fresh snapshots; lines
// for the same SKU coalesce by summing quantities.
func (s *Service) Replace(ctx context.Context, id Identity, inputs []AddItemInput) (*Basket, error) {
	if err := validateIdentity(id); err != nil {
		return nil, err
	}

	b := &Basket{}
	for _, input := range inputs {
		if input.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
		}
		line, err := s.catalog.ResolveVariant(ctx, input.ProductID, input.Size, input.Color)
		if err != nil {
			return nil, err
		}
		line.Quantity = input.Quantity
		for _, existing := range b.Lines {
			if existing.Key() == line.Key() {
				line.Quantity += existing.Quantity
				break
			}
		}
		b.SetLine(*line)
	}

	return b, s.save(ctx, id, b)
}

// RemoveItem deletes a SKU from the basket. Removing an absent line is a no-op.
func (s *Service) RemoveItem(ctx context.Context, id Identity, productID uuid.UUID, size, color string) (*Basket, error) {
	if err := validateIdentity(id); err != nil {
		return nil, err
	}
	b, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	b.RemoveLine(Key{ProductID: productID, Size: size, Color: color})
	return b, s.save(ctx, id, b)
}

// Clear empties the basket.
func (s *Service) Clear(ctx context.Context, id Identity) error {
	if err := validateIdentity(id); err != nil {
		return err
	}
	if id.IsUser() {
		return s.users.Clear(ctx, id.UserID)
	}
	return s.guests.Delete(ctx, id.GuestToken)
}

// MergeGuestIntoUser folds the guest basket into the account basket at login
// and drops the guest copy. With no guest token or an empty guest basket the
// account basket is left untouched.
func (s *Service) MergeGuestIntoUser(ctx context.Context, guestToken string, userID uuid.UUID) (*Basket, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	remote, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if guestToken == "" {
		return remote, nil
	}
	guest, err := s.guests.Get(ctx, guestToken)
	if err != nil {
		return nil, err
	}
	if guest.IsEmpty() {
		return remote, nil
	}

	merged := Merge(guest, remote)
	if err := s.users.Save(ctx, userID, merged); err != nil {
		return nil, err
	}
	if err := s.guests.Delete(ctx, guestToken); err != nil {
		// The merge already landed; a stale guest blob will age out via TTL.
		return merged, nil
	}
	return merged, nil
}

func (s *Service) save(ctx context.Context, id Identity, b *Basket) error {
	if id.IsUser() {
		return s.users.Save(ctx, id.UserID, b)
	}
	return s.guests.Save(ctx, id.GuestToken, b)
}

func validateIdentity(id Identity) error {
	if !id.IsUser() && id.GuestToken == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "basket identity is required")
	}
	return nil
}
