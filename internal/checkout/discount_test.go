package checkout

import (
	"testing"

	"pdv-service/internal/cart"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscountEditorValueDerivesPercent(t *testing.T) {
	e := NewDiscountEditor(dec("200.00"), decimal.Zero)

	require.NoError(t, e.SetValue(dec("50.00")))
	assert.Equal(t, "50.00", e.Value().StringFixed(2))
	assert.Equal(t, "25.00", e.Percent().StringFixed(2))
}

func TestDiscountEditorPercentDerivesValue(t *testing.T) {
	e := NewDiscountEditor(dec("80.00"), decimal.Zero)

	require.NoError(t, e.SetPercent(dec("10")))
	assert.Equal(t, "8.00", e.Value().StringFixed(2))
	assert.Equal(t, "10.00", e.Percent().StringFixed(2))
}

func TestDiscountEditorRejectsValueAboveSubtotal(t *testing.T) {
	e := NewDiscountEditor(dec("100.00"), decimal.Zero)
	require.NoError(t, e.SetValue(dec("30.00")))

	err := e.SetValue(dec("150.00"))
	assert.ErrorIs(t, err, cart.ErrDiscountExceedsSubtotal)

	// State untouched after the rejection.
	assert.Equal(t, "30.00", e.Value().StringFixed(2))
	assert.Equal(t, "30.00", e.Percent().StringFixed(2))
}

func TestDiscountEditorClampsPercent(t *testing.T) {
	e := NewDiscountEditor(dec("100.00"), decimal.Zero)

	require.NoError(t, e.SetPercent(dec("150")))
	assert.Equal(t, "100.00", e.Percent().StringFixed(2))
	assert.Equal(t, "100.00", e.Value().StringFixed(2))

	require.NoError(t, e.SetPercent(dec("-10")))
	assert.Equal(t, "0.00", e.Percent().StringFixed(2))
	assert.Equal(t, "0.00", e.Value().StringFixed(2))
}

func TestDiscountEditorNegativeValueClamped(t *testing.T) {
	e := NewDiscountEditor(dec("100.00"), decimal.Zero)

	require.NoError(t, e.SetValue(dec("-5.00")))
	assert.Equal(t, "0.00", e.Value().StringFixed(2))
}

func TestDiscountEditorPreloadsCurrentDiscount(t *testing.T) {
	e := NewDiscountEditor(dec("50.00"), dec("5.00"))

	assert.Equal(t, "5.00", e.Value().StringFixed(2))
	assert.Equal(t, "10.00", e.Percent().StringFixed(2))
}

func TestDiscountEditorZeroSubtotal(t *testing.T) {
	e := NewDiscountEditor(decimal.Zero, decimal.Zero)

	require.NoError(t, e.SetValue(decimal.Zero))
	assert.Equal(t, "0.00", e.Percent().StringFixed(2))
}
