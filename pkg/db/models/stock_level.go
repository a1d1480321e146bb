package models

import (
	"time"

	"github.com/google/uuid"
)

// StockLevel is the inventory ledger row for one SKU: a product in a
// specific color and size. Quantity is the single source of truth for
// availability and must never go negative; it is only decremented inside
// the order placement transaction.
type StockLevel struct {
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;primaryKey"`
	Color     string    `gorm:"column:color;primaryKey"`
	Size      string    `gorm:"column:size;primaryKey"`
	Quantity  int       `gorm:"column:quantity;not null;default:0"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
