package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// BasketRecord is the account-bound basket, one row per user. Saves replace
// the full line set so concurrent sessions resolve by last write wins.
type BasketRecord struct {
	ID        uuid.UUID    `gorm:"column:id;type:uuid;primaryKey"`
	UserID    uuid.UUID    `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`
	Lines     []BasketLine `gorm:"foreignKey:BasketID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time    `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time    `gorm:"column:updated_at;autoUpdateTime"`
}

func (b *BasketRecord) BeforeCreate(_ *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// BasketLine is one SKU entry in a basket. Quantity is always positive;
// setting it to zero or below removes the row instead.
type BasketLine struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	BasketID  uuid.UUID       `gorm:"column:basket_id;type:uuid;not null;uniqueIndex:ux_basket_lines_sku,priority:1"`
	ProductID uuid.UUID       `gorm:"column:product_id;type:uuid;not null;uniqueIndex:ux_basket_lines_sku,priority:2"`
	Name      string          `gorm:"column:name;not null"`
	Size      string          `gorm:"column:size;not null;uniqueIndex:ux_basket_lines_sku,priority:3"`
	Color     string          `gorm:"column:color;not null;uniqueIndex:ux_basket_lines_sku,priority:4"`
	Quantity  int             `gorm:"column:quantity;not null"`
	UnitPrice decimal.Decimal `gorm:"column:unit_price;type:numeric(10,2);not null"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (l *BasketLine) BeforeCreate(_ *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
