package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/velora-shop/storefront-backend/pkg/enums"
	"github.com/velora-shop/storefront-backend/pkg/types"
)

// Order is the immutable record of a stock-committed purchase. Every money
// field and line snapshot is frozen at placement time; later catalog edits
// never reach back into placed orders.
type Order struct {
	ID            uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	OrderNumber   int64              `gorm:"column:order_number;not null;default:0"`
	UserID        uuid.UUID          `gorm:"column:user_id;type:uuid;not null;index"`
	CustomerName  string             `gorm:"column:customer_name;not null"`
	CustomerEmail string             `gorm:"column:customer_email;not null"`
	CustomerPhone string             `gorm:"column:customer_phone;not null"`
	Shipping      types.ShippingInfo `gorm:"embedded"`
	Subtotal      decimal.Decimal    `gorm:"column:subtotal;type:numeric(10,2);not null"`
	ShippingFee   decimal.Decimal    `gorm:"column:shipping_fee;type:numeric(10,2);not null"`
	Total         decimal.Decimal    `gorm:"column:total;type:numeric(10,2);not null"`
	Status        enums.OrderStatus  `gorm:"column:status;not null;default:'new'"`
	Lines         []OrderLine        `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time          `gorm:"column:created_at;autoCreateTime"`
}

func (o *Order) BeforeCreate(_ *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// OrderLine snapshots one purchased SKU: name and unit price are copied from
// the product at placement time so historical invoices stay accurate.
type OrderLine struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	OrderID   uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	Name      string          `gorm:"column:name;not null"`
	Size      string          `gorm:"column:size;not null"`
	Color     string          `gorm:"column:color;not null"`
	UnitPrice decimal.Decimal `gorm:"column:unit_price;type:numeric(10,2);not null"`
	Quantity  int             `gorm:"column:quantity;not null"`
	LineTotal decimal.Decimal `gorm:"column:line_total;type:numeric(10,2);not null"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (l *OrderLine) BeforeCreate(_ *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
