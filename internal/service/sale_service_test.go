package service

import (
	"testing"
	"time"

	"pdv-service/internal/cart"
	"pdv-service/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaleItemsFromLines(t *testing.T) {
	product := models.Product{ID: 3, Name: "Café 500g", Price: decimal.RequireFromString("24.90"), ManageStock: true}
	line := cart.NewProductLine(product, 2)

	sub := models.Subscription{ID: 1, Provider: "Sky"}
	period := models.SubscriptionPeriod{ID: 7, PeriodLabel: "Agosto/2026", Value: decimal.RequireFromString("89.90")}
	installment := cart.NewInstallmentLine(sub, period)

	items := saleItemsFromLines([]cart.Line{line, installment})
	require.Len(t, items, 2)

	require.NotNil(t, items[0].ProductID)
	assert.Equal(t, int64(3), *items[0].ProductID)
	assert.Equal(t, 2, items[0].Quantity)
	assert.Equal(t, "Café 500g", items[0].Description)
	assert.Nil(t, items[0].SubscriptionPeriodID)

	assert.Nil(t, items[1].ProductID)
	require.NotNil(t, items[1].SubscriptionPeriodID)
	assert.Equal(t, int64(7), *items[1].SubscriptionPeriodID)
	assert.Equal(t, 1, items[1].Quantity)
	assert.Equal(t, "Agosto/2026", items[1].PeriodLabel)
}

func TestSaleItemDataFromItems(t *testing.T) {
	productID := int64(3)
	items := []models.SaleItem{
		{ProductID: &productID, Description: "Café 500g", Quantity: 2, UnitPrice: decimal.RequireFromString("24.90")},
	}

	data := saleItemDataFromItems(items)
	require.Len(t, data, 1)
	assert.Equal(t, &productID, data[0].ProductID)
	assert.Equal(t, "Café 500g", data[0].Description)
	assert.Equal(t, 2, data[0].Quantity)
}

func TestNewBaseEvent(t *testing.T) {
	before := time.Now()
	event := newBaseEvent(models.EventTypeSaleCompleted)

	assert.NotEmpty(t, event.EventID)
	assert.Equal(t, models.EventTypeSaleCompleted, event.EventType)
	assert.False(t, event.Timestamp.Before(before))
}

func TestCompleteSaleIdempotency(t *testing.T) {
	// Requires database, Redis and Kafka; covered by integration environment
	t.Skip("Integration test - requires database and Redis")
}

func TestApplyOutboxEntryUnknownEffect(t *testing.T) {
	s := &SaleService{}

	err := s.ApplyOutboxEntry(nil, &models.OutboxEntry{EffectType: "UNKNOWN"})
	assert.Error(t, err)
}
