package checkout

import (
	"errors"
	"fmt"

	"pdv-service/internal/cart"
	"pdv-service/internal/models"

	"github.com/shopspring/decimal"
)

var (
	// ErrEmptyCart is returned when allocation is attempted with no lines
	ErrEmptyCart = errors.New("cart is empty")

	// ErrInvalidPaymentMethod is returned for an unknown payment method
	ErrInvalidPaymentMethod = errors.New("invalid payment method")

	// ErrMissingSecondaryMethod is returned when the primary amount leaves
	// a remainder and no secondary method was chosen
	ErrMissingSecondaryMethod = errors.New("secondary payment method required")
)

// Payment is one leg of a finalized allocation.
type Payment struct {
	Method string          `json:"method"`
	Amount decimal.Decimal `json:"amount"`
}

// Tender is the operator-entered payment input for a sale.
type Tender struct {
	PrimaryMethod   string          `json:"primary_method"`
	PrimaryAmount   decimal.Decimal `json:"primary_amount"`
	SecondaryMethod string          `json:"secondary_method,omitempty"`
}

// Evaluation is the live state of a tender against a total, recomputed as
// the operator types. It decides whether the checkout button is enabled.
type Evaluation struct {
	Total     decimal.Decimal `json:"total"`
	Tendered  decimal.Decimal `json:"tendered"`
	Remaining decimal.Decimal `json:"remaining"`
	Change    decimal.Decimal `json:"change"`
	Split     bool            `json:"split"`
	Valid     bool            `json:"valid"`
}

// Allocation is the finalized result of a checkout: an ordered list of
// payments summing exactly to the total, plus the cash change tracked
// separately.
type Allocation struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Discount decimal.Decimal `json:"discount"`
	Total    decimal.Decimal `json:"total"`
	Payments []Payment       `json:"payments"`
	Change   decimal.Decimal `json:"change"`
}

// Round2 rounds to 2 decimal places. Applied once per boundary value, never
// per line, so rounding error does not compound.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Subtotal sums price x quantity over the lines. Recomputed on every cart
// mutation, never cached.
func Subtotal(lines []cart.Line) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Amount())
	}
	return total
}

// Total derives the sale total from subtotal and discount, floored at zero.
func Total(subtotal, discount decimal.Decimal) decimal.Decimal {
	t := Round2(subtotal.Sub(discount))
	if t.IsNegative() {
		return decimal.Zero
	}
	return t
}

// normalize clamps the tender to the allocator's input contract: amounts
// are never negative and non-cash primary legs are captured for the exact
// total.
func (t Tender) normalize(total decimal.Decimal) Tender {
	if t.PrimaryAmount.IsNegative() {
		t.PrimaryAmount = decimal.Zero
	}
	if t.PrimaryMethod != models.PaymentMethodMoney {
		t.PrimaryAmount = total
	}
	return t
}

// Evaluate computes the live split/change state for a tender against a
// total.
func Evaluate(total decimal.Decimal, tender Tender) Evaluation {
	tender = tender.normalize(total)

	remaining := Round2(total.Sub(tender.PrimaryAmount))
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}

	change := decimal.Zero
	if tender.PrimaryMethod == models.PaymentMethodMoney && tender.PrimaryAmount.GreaterThan(total) {
		change = Round2(tender.PrimaryAmount.Sub(total))
	}

	split := remaining.IsPositive()
	valid := !split || tender.SecondaryMethod != ""

	return Evaluation{
		Total:     total,
		Tendered:  tender.PrimaryAmount,
		Remaining: remaining,
		Change:    change,
		Split:     split,
		Valid:     valid,
	}
}

// Allocate finalizes a checkout: it validates the tender and emits the
// payment legs whose amounts sum exactly to the total. Over-tendered cash
// becomes change and is not part of the payment list.
func Allocate(lines []cart.Line, discount decimal.Decimal, tender Tender) (*Allocation, error) {
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}
	if !models.ValidPaymentMethod(tender.PrimaryMethod) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPaymentMethod, tender.PrimaryMethod)
	}
	if tender.SecondaryMethod != "" && !models.ValidPaymentMethod(tender.SecondaryMethod) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPaymentMethod, tender.SecondaryMethod)
	}

	subtotal := Subtotal(lines)
	if discount.IsNegative() {
		discount = decimal.Zero
	}
	total := Total(subtotal, discount)

	tender = tender.normalize(total)
	eval := Evaluate(total, tender)
	if !eval.Valid {
		return nil, ErrMissingSecondaryMethod
	}

	var payments []Payment
	if eval.Split {
		payments = []Payment{
			{Method: tender.PrimaryMethod, Amount: tender.PrimaryAmount},
			{Method: tender.SecondaryMethod, Amount: eval.Remaining},
		}
	} else {
		amount := tender.PrimaryAmount
		if amount.GreaterThan(total) {
			amount = total
		}
		payments = []Payment{{Method: tender.PrimaryMethod, Amount: amount}}
	}

	return &Allocation{
		Subtotal: subtotal,
		Discount: discount,
		Total:    total,
		Payments: payments,
		Change:   eval.Change,
	}, nil
}

// QuickCash suggests cash shortcut amounts for a total: the exact total
// plus the common note denominations above it, ascending and deduplicated.
func QuickCash(total decimal.Decimal) []decimal.Decimal {
	denominations := []int64{10, 20, 50, 100}

	out := []decimal.Decimal{Round2(total)}
	for _, d := range denominations {
		v := decimal.NewFromInt(d)
		if v.GreaterThan(total) {
			out = append(out, v)
		}
	}
	return out
}
