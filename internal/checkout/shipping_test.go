package checkout

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestShippingFeeBoundary(t *testing.T) {
	threshold := decimal.RequireFromString("200.00")
	flat := decimal.RequireFromString("8.00")

	cases := []struct {
		subtotal string
		want     string
	}{
		{"0.00", "8.00"},
		{"199.99", "8.00"},
		{"200.00", "8.00"}, // exactly at the threshold still pays
		{"200.01", "0"},
		{"500.00", "0"},
	}
	for _, tc := range cases {
		got := ShippingFee(decimal.RequireFromString(tc.subtotal), threshold, flat)
		if got.String() != decimal.RequireFromString(tc.want).String() {
			t.Fatalf("subtotal %s: expected fee %s, got %s", tc.subtotal, tc.want, got)
		}
	}
}
