package basket

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Line is one SKU in a basket. UnitPrice is the price snapshot captured when
// the line was added; checkout re-reads the catalog before charging.
type Line struct {
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	Size      string          `json:"size"`
	Color     string          `json:"color"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// Key identifies a line within a basket. Two lines with the same key always
// collapse into one.
type Key struct {
	ProductID uuid.UUID
	Size      string
	Color     string
}

// Key returns the coalescing identity of the line.
func (l Line) Key() Key {
	return Key{ProductID: l.ProductID, Size: l.Size, Color: l.Color}
}

// Basket is the in-memory basket shape shared by the guest and user stores.
type Basket struct {
	Lines []Line `json:"lines"`
}

// IsEmpty reports whether the basket has no purchasable lines.
func (b *Basket) IsEmpty() bool {
	return b == nil || len(b.Lines) == 0
}

// Subtotal sums quantity times unit price across all lines.
func (b *Basket) Subtotal() decimal.Decimal {
	total := decimal.Zero
	if b == nil {
		return total
	}
	for _, line := range b.Lines {
		total = total.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	return total
}

// TotalQuantity sums item counts across all lines.
func (b *Basket) TotalQuantity() int {
	if b == nil {
		return 0
	}
	total := 0
	for _, line := range b.Lines {
		total += line.Quantity
	}
	return total
}

// Normalize coalesces duplicate keys by summing quantities and drops lines
// whose quantity is zero or negative. Line order follows first appearance.
func (b *Basket) Normalize() {
	if b == nil || len(b.Lines) == 0 {
		return
	}
	index := make(map[Key]int, len(b.Lines))
	merged := make([]Line, 0, len(b.Lines))
	for _, line := range b.Lines {
		key := line.Key()
		if at, ok := index[key]; ok {
			merged[at].Quantity += line.Quantity
			continue
		}
		index[key] = len(merged)
		merged = append(merged, line)
	}
	kept := merged[:0]
	for _, line := range merged {
		if line.Quantity > 0 {
			kept = append(kept, line)
		}
	}
	b.Lines = kept
}

// SetLine replaces the quantity for the line's key, appending when absent and
// removing when the quantity drops to zero or below.
func (b *Basket) SetLine(line Line) {
	key := line.Key()
	for i := range b.Lines {
		if b.Lines[i].Key() != key {
			continue
		}
		if line.Quantity <= 0 {
			b.Lines = append(b.Lines[:i], b.Lines[i+1:]...)
			return
		}
		b.Lines[i].Quantity = line.Quantity
		b.Lines[i].UnitPrice = line.UnitPrice
		b.Lines[i].Name = line.Name
		return
	}
	if line.Quantity > 0 {
		b.Lines = append(b.Lines, line)
	}
}

// RemoveLine deletes the line with the given key if present.
func (b *Basket) RemoveLine(key Key) {
	for i := range b.Lines {
		if b.Lines[i].Key() == key {
			b.Lines = append(b.Lines[:i], b.Lines[i+1:]...)
			return
		}
	}
}

// Clone returns a deep copy so callers can mutate without aliasing.
func (b *Basket) Clone() *Basket {
	if b == nil {
		return &Basket{}
	}
	out := &Basket{Lines: make([]Line, len(b.Lines))}
	copy(out.Lines, b.Lines)
	return out
}
