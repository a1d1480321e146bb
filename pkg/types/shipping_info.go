package types

// ShippingInfo carries the delivery address captured at checkout. It is
// embedded into the order row so the snapshot survives later profile edits.
type ShippingInfo struct {
	Line1      string `json:"line1" gorm:"column:ship_line1;not null"`
	Line2      string `json:"line2,omitempty" gorm:"column:ship_line2"`
	City       string `json:"city" gorm:"column:ship_city;not null"`
	PostalCode string `json:"postal_code" gorm:"column:ship_postal_code;not null"`
	Country    string `json:"country" gorm:"column:ship_country;not null"`
}
