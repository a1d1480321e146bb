package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/velora-shop/storefront-backend/pkg/db/models"
	pkgerrors "github.com/velora-shop/storefront-backend/pkg/errors"
)

// Requirement is a quantity demand against one SKU.
type Requirement struct {
	ProductID uuid.UUID
	Color     string
	Size      string
	Quantity  int
}

// Shortage reports a requirement the ledger cannot cover right now.
type Shortage struct {
	ProductID uuid.UUID `json:"product_id"`
	Color     string    `json:"color"`
	Size      string    `json:"size"`
	Requested int       `json:"requested"`
	Available int       `json:"available"`
}

// Ledger is the single authority over stock quantities. All decrements run
// through guarded updates so a quantity can never go below zero, no matter
// how many checkouts race.
type Ledger struct {
	db *gorm.DB
}

// NewLedger constructs the ledger bound to the provided DB.
func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

// WithTx binds the ledger to a transaction.
func (l *Ledger) WithTx(tx *gorm.DB) *Ledger {
	if tx == nil {
		return l
	}
	return &Ledger{db: tx}
}

// Level returns the current quantity for one SKU. A missing row is zero.
func (l *Ledger) Level(ctx context.Context, productID uuid.UUID, color, size string) (int, error) {
	var row models.StockLevel
	err := l.db.WithContext(ctx).
		Where("product_id = ? AND color = ? AND size = ?", productID, color, size).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading stock level: %w", err)
	}
	return row.Quantity, nil
}

// CheckAvailable reports every requirement the current levels cannot satisfy.
// This is an advisory read; only Decrement holds the real guarantee.
func (l *Ledger) CheckAvailable(ctx context.Context, reqs []Requirement) ([]Shortage, error) {
	var shortages []Shortage
	for _, req := range reqs {
		available, err := l.Level(ctx, req.ProductID, req.Color, req.Size)
		if err != nil {
			return nil, err
		}
		if available < req.Quantity {
			shortages = append(shortages, Shortage{
				ProductID: req.ProductID,
				Color:     req.Color,
				Size:      req.Size,
				Requested: req.Quantity,
				Available: available,
			})
		}
	}
	return shortages, nil
}

// Decrement atomically subtracts the requested quantity. The WHERE guard
// makes the update a no-op when stock is short, which surfaces as an
// INSUFFICIENT_STOCK error carrying the observed level.
func (l *Ledger) Decrement(ctx context.Context, req Requirement) error {
	if req.Quantity <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "decrement quantity must be positive")
	}

	res := l.db.WithContext(ctx).
		Model(&models.StockLevel{}).
		Where("product_id = ? AND color = ? AND size = ? AND quantity >= ?",
			req.ProductID, req.Color, req.Size, req.Quantity).
		Update("quantity", gorm.Expr("quantity - ?", req.Quantity))
	if res.Error != nil {
		return fmt.Errorf("decrementing stock: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		available, err := l.Level(ctx, req.ProductID, req.Color, req.Size)
		if err != nil {
			return err
		}
		return pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock").
			WithDetails([]Shortage{{
				ProductID: req.ProductID,
				Color:     req.Color,
				Size:      req.Size,
				Requested: req.Quantity,
				Available: available,
			}})
	}
	return nil
}

// DecrementAll applies every requirement in order, stopping at the first
// shortage. Callers run it inside a transaction so earlier decrements roll
// back when a later one fails.
func (l *Ledger) DecrementAll(ctx context.Context, reqs []Requirement) error {
	for _, req := range reqs {
		if err := l.Decrement(ctx, req); err != nil {
			return err
		}
	}
	return nil
}

// DecrementAllTx runs DecrementAll against the caller's transaction.
func (l *Ledger) DecrementAllTx(ctx context.Context, tx *gorm.DB, reqs []Requirement) error {
	return l.WithTx(tx).DecrementAll(ctx, reqs)
}

// Restock adds quantity back to a SKU, creating the row when absent.
func (l *Ledger) Restock(ctx context.Context, req Requirement) error {
	if req.Quantity <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "restock quantity must be positive")
	}
	res := l.db.WithContext(ctx).
		Model(&models.StockLevel{}).
		Where("product_id = ? AND color = ? AND size = ?", req.ProductID, req.Color, req.Size).
		Update("quantity", gorm.Expr("quantity + ?", req.Quantity))
	if res.Error != nil {
		return fmt.Errorf("restocking: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		row := models.StockLevel{
			ProductID: req.ProductID,
			Color:     req.Color,
			Size:      req.Size,
			Quantity:  req.Quantity,
		}
		if err := l.db.WithContext(ctx).Create(&row).Error; err != nil {
			return fmt.Errorf("creating stock level: %w", err)
		}
	}
	return nil
}
