package checkout

import (
	"testing"

	"pdv-service/internal/cart"
	"pdv-service/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func productLine(id int64, price string, qty int) cart.Line {
	return cart.NewProductLine(models.Product{
		ID:    id,
		Name:  "Produto",
		Price: decimal.RequireFromString(price),
	}, qty)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestTotalFloorsAtZero(t *testing.T) {
	total := Total(dec("10.00"), dec("15.00"))
	assert.Equal(t, "0.00", total.StringFixed(2))

	total = Total(dec("10.00"), dec("3.50"))
	assert.Equal(t, "6.50", total.StringFixed(2))
}

func TestSubtotalSumsLines(t *testing.T) {
	lines := []cart.Line{
		productLine(1, "3.50", 2),
		productLine(2, "10.00", 1),
	}
	assert.Equal(t, "17.00", Subtotal(lines).StringFixed(2))
}

func TestAllocateExactCash(t *testing.T) {
	lines := []cart.Line{productLine(1, "25.00", 1)}

	alloc, err := Allocate(lines, decimal.Zero, Tender{
		PrimaryMethod: models.PaymentMethodMoney,
		PrimaryAmount: dec("25.00"),
	})
	require.NoError(t, err)

	require.Len(t, alloc.Payments, 1)
	assert.Equal(t, models.PaymentMethodMoney, alloc.Payments[0].Method)
	assert.Equal(t, "25.00", alloc.Payments[0].Amount.StringFixed(2))
	assert.Equal(t, "0.00", alloc.Change.StringFixed(2))
}

func TestAllocateCashOverpaymentYieldsChange(t *testing.T) {
	lines := []cart.Line{productLine(1, "37.00", 1)}

	alloc, err := Allocate(lines, decimal.Zero, Tender{
		PrimaryMethod: models.PaymentMethodMoney,
		PrimaryAmount: dec("50.00"),
	})
	require.NoError(t, err)

	// Payments sum to the total; the overpaid portion is change.
	require.Len(t, alloc.Payments, 1)
	assert.Equal(t, "37.00", alloc.Payments[0].Amount.StringFixed(2))
	assert.Equal(t, "13.00", alloc.Change.StringFixed(2))
}

func TestAllocateNonCashForcedToTotal(t *testing.T) {
	lines := []cart.Line{productLine(1, "80.00", 1)}

	// Whatever amount the operator typed, a card leg captures the total.
	alloc, err := Allocate(lines, decimal.Zero, Tender{
		PrimaryMethod: models.PaymentMethodCredit,
		PrimaryAmount: dec("5.00"),
	})
	require.NoError(t, err)

	require.Len(t, alloc.Payments, 1)
	assert.Equal(t, models.PaymentMethodCredit, alloc.Payments[0].Method)
	assert.Equal(t, "80.00", alloc.Payments[0].Amount.StringFixed(2))
	assert.Equal(t, "0.00", alloc.Change.StringFixed(2))
}

func TestAllocateSplitPayment(t *testing.T) {
	lines := []cart.Line{productLine(1, "100.00", 1)}

	alloc, err := Allocate(lines, decimal.Zero, Tender{
		PrimaryMethod:   models.PaymentMethodMoney,
		PrimaryAmount:   dec("40.00"),
		SecondaryMethod: models.PaymentMethodPix,
	})
	require.NoError(t, err)

	require.Len(t, alloc.Payments, 2)
	assert.Equal(t, models.PaymentMethodMoney, alloc.Payments[0].Method)
	assert.Equal(t, "40.00", alloc.Payments[0].Amount.StringFixed(2))
	assert.Equal(t, models.PaymentMethodPix, alloc.Payments[1].Method)
	assert.Equal(t, "60.00", alloc.Payments[1].Amount.StringFixed(2))
	assert.Equal(t, "0.00", alloc.Change.StringFixed(2))

	sum := alloc.Payments[0].Amount.Add(alloc.Payments[1].Amount)
	assert.True(t, sum.Equal(alloc.Total))
}

func TestAllocateSplitRequiresSecondaryMethod(t *testing.T) {
	lines := []cart.Line{productLine(1, "100.00", 1)}

	_, err := Allocate(lines, decimal.Zero, Tender{
		PrimaryMethod: models.PaymentMethodMoney,
		PrimaryAmount: dec("40.00"),
	})
	assert.ErrorIs(t, err, ErrMissingSecondaryMethod)
}

func TestAllocateSplitWithSameMethodTwice(t *testing.T) {
	lines := []cart.Line{productLine(1, "100.00", 1)}

	alloc, err := Allocate(lines, decimal.Zero, Tender{
		PrimaryMethod:   models.PaymentMethodCreditTab,
		PrimaryAmount:   dec("100.00"),
		SecondaryMethod: models.PaymentMethodCreditTab,
	})
	require.NoError(t, err)
	require.Len(t, alloc.Payments, 1)
	assert.Equal(t, "100.00", alloc.Payments[0].Amount.StringFixed(2))
}

func TestAllocateDiscountApplied(t *testing.T) {
	lines := []cart.Line{productLine(1, "50.00", 2)}

	alloc, err := Allocate(lines, dec("20.00"), Tender{
		PrimaryMethod: models.PaymentMethodDebit,
	})
	require.NoError(t, err)

	assert.Equal(t, "100.00", alloc.Subtotal.StringFixed(2))
	assert.Equal(t, "20.00", alloc.Discount.StringFixed(2))
	assert.Equal(t, "80.00", alloc.Total.StringFixed(2))
	require.Len(t, alloc.Payments, 1)
	assert.Equal(t, "80.00", alloc.Payments[0].Amount.StringFixed(2))
}

func TestAllocateNegativeAmountsClamped(t *testing.T) {
	lines := []cart.Line{productLine(1, "30.00", 1)}

	alloc, err := Allocate(lines, dec("-5.00"), Tender{
		PrimaryMethod:   models.PaymentMethodMoney,
		PrimaryAmount:   dec("-10.00"),
		SecondaryMethod: models.PaymentMethodPix,
	})
	require.NoError(t, err)

	assert.Equal(t, "0.00", alloc.Discount.StringFixed(2))
	assert.Equal(t, "30.00", alloc.Total.StringFixed(2))
	require.Len(t, alloc.Payments, 2)
	assert.Equal(t, "0.00", alloc.Payments[0].Amount.StringFixed(2))
	assert.Equal(t, "30.00", alloc.Payments[1].Amount.StringFixed(2))
}

func TestAllocateZeroTotalSale(t *testing.T) {
	lines := []cart.Line{productLine(1, "10.00", 1)}

	alloc, err := Allocate(lines, dec("10.00"), Tender{
		PrimaryMethod: models.PaymentMethodMoney,
	})
	require.NoError(t, err)

	assert.Equal(t, "0.00", alloc.Total.StringFixed(2))
	require.Len(t, alloc.Payments, 1)
	assert.Equal(t, "0.00", alloc.Payments[0].Amount.StringFixed(2))
	assert.Equal(t, "0.00", alloc.Change.StringFixed(2))
}

func TestAllocateEmptyCart(t *testing.T) {
	_, err := Allocate(nil, decimal.Zero, Tender{PrimaryMethod: models.PaymentMethodMoney})
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestAllocateInvalidMethod(t *testing.T) {
	lines := []cart.Line{productLine(1, "10.00", 1)}

	_, err := Allocate(lines, decimal.Zero, Tender{PrimaryMethod: "cheque"})
	assert.ErrorIs(t, err, ErrInvalidPaymentMethod)

	_, err = Allocate(lines, decimal.Zero, Tender{
		PrimaryMethod:   models.PaymentMethodMoney,
		PrimaryAmount:   dec("5.00"),
		SecondaryMethod: "cheque",
	})
	assert.ErrorIs(t, err, ErrInvalidPaymentMethod)
}

func TestEvaluateLiveState(t *testing.T) {
	total := dec("75.50")

	eval := Evaluate(total, Tender{
		PrimaryMethod: models.PaymentMethodMoney,
		PrimaryAmount: dec("50.00"),
	})
	assert.Equal(t, "25.50", eval.Remaining.StringFixed(2))
	assert.True(t, eval.Split)
	assert.False(t, eval.Valid)

	eval = Evaluate(total, Tender{
		PrimaryMethod:   models.PaymentMethodMoney,
		PrimaryAmount:   dec("50.00"),
		SecondaryMethod: models.PaymentMethodDebit,
	})
	assert.True(t, eval.Valid)

	eval = Evaluate(total, Tender{
		PrimaryMethod: models.PaymentMethodMoney,
		PrimaryAmount: dec("100.00"),
	})
	assert.Equal(t, "0.00", eval.Remaining.StringFixed(2))
	assert.Equal(t, "24.50", eval.Change.StringFixed(2))
	assert.False(t, eval.Split)
	assert.True(t, eval.Valid)
}

func TestEvaluateNonCashNeverChanges(t *testing.T) {
	eval := Evaluate(dec("30.00"), Tender{
		PrimaryMethod: models.PaymentMethodPix,
		PrimaryAmount: dec("100.00"),
	})
	assert.Equal(t, "30.00", eval.Tendered.StringFixed(2))
	assert.Equal(t, "0.00", eval.Change.StringFixed(2))
	assert.True(t, eval.Valid)
}

func TestQuickCash(t *testing.T) {
	suggestions := QuickCash(dec("37.00"))

	require.Len(t, suggestions, 3)
	assert.Equal(t, "37.00", suggestions[0].StringFixed(2))
	assert.Equal(t, "50.00", suggestions[1].StringFixed(2))
	assert.Equal(t, "100.00", suggestions[2].StringFixed(2))
}

func TestQuickCashAboveLargestNote(t *testing.T) {
	suggestions := QuickCash(dec("150.00"))

	require.Len(t, suggestions, 1)
	assert.Equal(t, "150.00", suggestions[0].StringFixed(2))
}

func TestRound2AppliedOncePerBoundary(t *testing.T) {
	// Three lines at 0.333 each: the subtotal keeps full precision and only
	// the derived total is rounded.
	lines := []cart.Line{
		productLine(1, "0.333", 3),
	}

	subtotal := Subtotal(lines)
	assert.Equal(t, "0.999", subtotal.String())

	total := Total(subtotal, decimal.Zero)
	assert.Equal(t, "1.00", total.StringFixed(2))
}
