package payloads

import (
	"time"

	"github.com/google/uuid"
)

// OrderPlacedLine is one purchased SKU carried inside OrderPlacedEvent.
type OrderPlacedLine struct {
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name"`
	Size      string    `json:"size"`
	Color     string    `json:"color"`
	UnitPrice string    `json:"unit_price"`
	Quantity  int       `json:"quantity"`
	LineTotal string    `json:"line_total"`
}

// OrderPlacedEvent is emitted after an order commits with stock reserved.
// Amounts are fixed-point decimal strings so consumers never re-derive money
// from floats.
type OrderPlacedEvent struct {
	OrderID       uuid.UUID         `json:"order_id"`
	OrderNumber   int64             `json:"order_number"`
	UserID        uuid.UUID         `json:"user_id"`
	CustomerName  string            `json:"customer_name"`
	CustomerEmail string            `json:"customer_email"`
	Subtotal      string            `json:"subtotal"`
	ShippingFee   string            `json:"shipping_fee"`
	Total         string            `json:"total"`
	Lines         []OrderPlacedLine `json:"lines"`
	PlacedAt      time.Time         `json:"placed_at"`
}

// UserRegisteredEvent is emitted when a new account is created and triggers
// the verification email.
type UserRegisteredEvent struct {
	UserID            uuid.UUID `json:"user_id"`
	Email             string    `json:"email"`
	FirstName         string    `json:"first_name"`
	VerificationToken string    `json:"verification_token"`
}

// ContactReceivedEvent is emitted when a contact form submission is stored.
type ContactReceivedEvent struct {
	ContactID uuid.UUID `json:"contact_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
}
