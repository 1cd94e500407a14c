package receipt

import (
	"bytes"
	"testing"
	"time"

	"pdv-service/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testData() Data {
	periodID := int64(7)
	return Data{
		CompanyName: "Banca Central",
		Currency:    "BRL",
		Sale: models.Sale{
			ID:       42,
			Subtotal: dec("114.90"),
			Discount: dec("5.00"),
			Total:    dec("109.90"),
			Change:   dec("10.10"),
			SoldAt:   time.Date(2026, 8, 15, 14, 30, 0, 0, time.UTC),
		},
		Items: []models.SaleItem{
			{Description: "Café 500g", Quantity: 1, UnitPrice: dec("25.00")},
			{
				Description:          "Assinatura Sky - Agosto/2026",
				Quantity:             1,
				UnitPrice:            dec("89.90"),
				SubscriptionPeriodID: &periodID,
				PeriodLabel:          "Agosto/2026",
			},
		},
		Payments: []models.SalePayment{
			{Method: models.PaymentMethodMoney, Amount: dec("50.00"), Position: 0},
			{Method: models.PaymentMethodPix, Amount: dec("59.90"), Position: 1},
		},
		Customer: &models.Customer{Name: "Maria Silva"},
	}
}

func TestRenderReceipt(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, testData()))
	html := buf.String()

	assert.Contains(t, html, "Banca Central")
	assert.Contains(t, html, "Venda #42")
	assert.Contains(t, html, "Maria Silva")
	assert.Contains(t, html, "Café 500g")
	assert.Contains(t, html, "15/08/2026 14:30")
	assert.Contains(t, html, "Desconto")
	assert.Contains(t, html, "109.90")
	assert.Contains(t, html, "Dinheiro")
	assert.Contains(t, html, "Pix")
	assert.Contains(t, html, "Troco")
	assert.Contains(t, html, "10.10")
	assert.Contains(t, html, "80mm")
}

func TestRenderOmitsZeroSections(t *testing.T) {
	data := testData()
	data.Customer = nil
	data.Sale.Discount = decimal.Zero
	data.Sale.Change = decimal.Zero

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, data))
	html := buf.String()

	assert.NotContains(t, html, "Cliente:")
	assert.NotContains(t, html, "Desconto")
	assert.NotContains(t, html, "Troco")
}

func TestMethodLabelFallsBackToRaw(t *testing.T) {
	data := testData()
	data.Payments = []models.SalePayment{{Method: "voucher", Amount: dec("109.90")}}
	data.Sale.Change = decimal.Zero

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, data))

	assert.Contains(t, buf.String(), "voucher")
}
