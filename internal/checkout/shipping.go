package checkout

import "github.com/shopspring/decimal"

// ShippingFee applies the step rule: orders strictly above the free-shipping
// threshold ship free, everything else pays the flat fee. A subtotal exactly
// at the threshold still pays. The result is stored on the order and never
// recomputed, so later threshold changes cannot rewrite history.
func ShippingFee(subtotal, threshold, flatFee decimal.Decimal) decimal.Decimal {
	if subtotal.GreaterThan(threshold) {
		return decimal.Zero
	}
	return flatFee
}
