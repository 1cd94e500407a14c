package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event types
const (
	EventTypeSaleCompleted = "SALE_COMPLETED"
	EventTypeSalePending   = "SALE_PENDING"
	EventTypeSaleCancelled = "SALE_CANCELLED"
	EventTypeStockDepleted = "STOCK_DEPLETED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// SaleItemData represents item data carried in events
type SaleItemData struct {
	ProductID            *int64          `json:"product_id,omitempty"`
	Description          string          `json:"description"`
	Quantity             int             `json:"quantity"`
	UnitPrice            decimal.Decimal `json:"unit_price"`
	SubscriptionPeriodID *int64          `json:"subscription_period_id,omitempty"`
}

// SalePaymentData represents one payment leg carried in events
type SalePaymentData struct {
	Method string          `json:"method"`
	Amount decimal.Decimal `json:"amount"`
}

// SaleCompletedEvent published when a sale is finalized
type SaleCompletedEvent struct {
	BaseEvent
	SaleID     int64             `json:"sale_id"`
	CustomerID *int64            `json:"customer_id,omitempty"`
	Total      decimal.Decimal   `json:"total"`
	Discount   decimal.Decimal   `json:"discount"`
	Change     decimal.Decimal   `json:"change"`
	Items      []SaleItemData    `json:"items"`
	Payments   []SalePaymentData `json:"payments"`
}

// SalePendingEvent published when a cart is saved as a pending order
type SalePendingEvent struct {
	BaseEvent
	SaleID     int64           `json:"sale_id"`
	CustomerID *int64          `json:"customer_id,omitempty"`
	Total      decimal.Decimal `json:"total"`
	Items      []SaleItemData  `json:"items"`
}

// SaleCancelledEvent published when a completed sale is cancelled
type SaleCancelledEvent struct {
	BaseEvent
	SaleID int64  `json:"sale_id"`
	Reason string `json:"reason"`
}

// StockDepletedEvent published when a decrement leaves a product at zero
type StockDepletedEvent struct {
	BaseEvent
	ProductID int64  `json:"product_id"`
	SKU       string `json:"sku"`
}
