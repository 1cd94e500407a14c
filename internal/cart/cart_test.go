package cart

import (
	"testing"

	"pdv-service/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testProduct(id int64, price string) models.Product {
	return models.Product{
		ID:    id,
		Name:  "Produto",
		Price: decimal.RequireFromString(price),
	}
}

func testInstallment(subID, periodID int64, value string) Line {
	return NewInstallmentLine(
		models.Subscription{ID: subID, Provider: "Sky"},
		models.SubscriptionPeriod{ID: periodID, PeriodLabel: "Agosto/2026", Value: decimal.RequireFromString(value)},
	)
}

func TestAddProductMergesQuantity(t *testing.T) {
	c := New()

	c.AddProduct(testProduct(1, "10.00"), 1)
	c.AddProduct(testProduct(1, "10.00"), 2)

	lines := c.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, 3, lines[0].Quantity)
	assert.Equal(t, "30.00", c.Subtotal().StringFixed(2))
}

func TestAddInstallmentRejectsDuplicatePeriod(t *testing.T) {
	c := New()

	require.NoError(t, c.AddInstallment(testInstallment(1, 7, "89.90")))

	err := c.AddInstallment(testInstallment(1, 7, "89.90"))
	assert.ErrorIs(t, err, ErrInstallmentAlreadyInCart)
	assert.Len(t, c.Lines(), 1)
}

func TestInstallmentQuantityPinnedAtOne(t *testing.T) {
	c := New()
	require.NoError(t, c.AddInstallment(testInstallment(1, 7, "89.90")))
	lineID := c.Lines()[0].ID

	require.NoError(t, c.Increment(lineID))
	require.NoError(t, c.SetQuantity(lineID, 5))

	assert.Equal(t, 1, c.Lines()[0].Quantity)
	assert.Equal(t, "89.90", c.Subtotal().StringFixed(2))
}

func TestInstallmentLineDescription(t *testing.T) {
	line := testInstallment(1, 7, "89.90")

	assert.Equal(t, "Assinatura Sky - Agosto/2026", line.Description)
	assert.True(t, line.IsInstallment())
	assert.False(t, line.ManageStock)
}

func TestQuantityFlooredAtOne(t *testing.T) {
	c := New()
	c.AddProduct(testProduct(1, "10.00"), 1)
	lineID := c.Lines()[0].ID

	require.NoError(t, c.Decrement(lineID))
	assert.Equal(t, 1, c.Lines()[0].Quantity)

	require.NoError(t, c.SetQuantity(lineID, 0))
	assert.Equal(t, 1, c.Lines()[0].Quantity)
}

func TestRemoveLine(t *testing.T) {
	c := New()
	c.AddProduct(testProduct(1, "10.00"), 1)
	c.AddProduct(testProduct(2, "5.00"), 1)

	require.NoError(t, c.Remove("P-1"))
	require.Len(t, c.Lines(), 1)
	assert.Equal(t, "P-2", c.Lines()[0].ID)

	assert.ErrorIs(t, c.Remove("P-99"), ErrLineNotFound)
}

func TestSubtotalRecomputedOnMutation(t *testing.T) {
	c := New()
	c.AddProduct(testProduct(1, "3.50"), 2)
	assert.Equal(t, "7.00", c.Subtotal().StringFixed(2))

	require.NoError(t, c.Increment("P-1"))
	assert.Equal(t, "10.50", c.Subtotal().StringFixed(2))

	require.NoError(t, c.Remove("P-1"))
	assert.Equal(t, "0.00", c.Subtotal().StringFixed(2))
}

func TestSetDiscountClampsAndRejects(t *testing.T) {
	c := New()
	c.AddProduct(testProduct(1, "50.00"), 1)

	require.NoError(t, c.SetDiscount(decimal.RequireFromString("-10.00")))
	assert.Equal(t, "0.00", c.Discount().StringFixed(2))

	require.NoError(t, c.SetDiscount(decimal.RequireFromString("20.00")))
	assert.Equal(t, "20.00", c.Discount().StringFixed(2))

	err := c.SetDiscount(decimal.RequireFromString("60.00"))
	assert.ErrorIs(t, err, ErrDiscountExceedsSubtotal)
	assert.Equal(t, "20.00", c.Discount().StringFixed(2))
}

func TestClearResetsEverything(t *testing.T) {
	c := New()
	c.AddProduct(testProduct(1, "10.00"), 1)
	customerID := int64(4)
	saleID := int64(9)
	c.SetCustomer(&customerID)
	c.SetEditingSale(&saleID)
	require.NoError(t, c.SetDiscount(decimal.RequireFromString("2.00")))

	c.Clear()

	assert.True(t, c.Empty())
	assert.Nil(t, c.CustomerID())
	assert.Nil(t, c.EditingSaleID())
	assert.Equal(t, "0.00", c.Discount().StringFixed(2))
}
