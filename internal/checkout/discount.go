package checkout

import (
	"pdv-service/internal/cart"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// DiscountEditor implements the discount modal contract: value and percent
// fields are bidirectionally derived over a fixed subtotal, and a value
// exceeding the subtotal is rejected without touching the current state.
type DiscountEditor struct {
	subtotal decimal.Decimal
	value    decimal.Decimal
	percent  decimal.Decimal
}

// NewDiscountEditor opens an editor over the given subtotal with the
// currently applied discount preloaded.
func NewDiscountEditor(subtotal, current decimal.Decimal) *DiscountEditor {
	e := &DiscountEditor{subtotal: subtotal}
	if current.IsPositive() {
		// Preloading an already-applied discount cannot fail: it was
		// validated against this subtotal when applied.
		_ = e.SetValue(current)
	}
	return e
}

// SetValue sets the discount as a fixed amount and rederives the percent.
func (e *DiscountEditor) SetValue(v decimal.Decimal) error {
	if v.IsNegative() {
		v = decimal.Zero
	}
	if v.GreaterThan(e.subtotal) {
		return cart.ErrDiscountExceedsSubtotal
	}
	e.value = v
	if e.subtotal.IsPositive() {
		e.percent = v.Div(e.subtotal).Mul(hundred).Round(2)
	} else {
		e.percent = decimal.Zero
	}
	return nil
}

// SetPercent sets the discount as a percentage of subtotal and rederives
// the value. Percent is clamped to [0, 100].
func (e *DiscountEditor) SetPercent(p decimal.Decimal) error {
	if p.IsNegative() {
		p = decimal.Zero
	}
	if p.GreaterThan(hundred) {
		p = hundred
	}
	e.percent = p
	e.value = Round2(e.subtotal.Mul(p).Div(hundred))
	return nil
}

// Value returns the discount amount currently in the editor.
func (e *DiscountEditor) Value() decimal.Decimal {
	return e.value
}

// Percent returns the discount percentage currently in the editor.
func (e *DiscountEditor) Percent() decimal.Decimal {
	return e.percent
}
