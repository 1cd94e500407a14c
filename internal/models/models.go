package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product represents a catalog item
type Product struct {
	ID          int64           `db:"id" json:"id"`
	SKU         string          `db:"sku" json:"sku"`
	Name        string          `db:"name" json:"name"`
	Price       decimal.Decimal `db:"price" json:"price"`
	ManageStock bool            `db:"manage_stock" json:"manage_stock"`
	Stock       int             `db:"stock" json:"stock"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
}

// Customer represents a registered customer
type Customer struct {
	ID         int64     `db:"id" json:"id"`
	Name       string    `db:"name" json:"name"`
	Email      string    `db:"email" json:"email,omitempty"`
	Phone      string    `db:"phone" json:"phone,omitempty"`
	Subscriber bool      `db:"subscriber" json:"subscriber"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// Sale represents a finalized or pending sale snapshot
type Sale struct {
	ID             int64           `db:"id" json:"id"`
	CustomerID     *int64          `db:"customer_id" json:"customer_id,omitempty"`
	Subtotal       decimal.Decimal `db:"subtotal" json:"subtotal"`
	Discount       decimal.Decimal `db:"discount" json:"discount"`
	Total          decimal.Decimal `db:"total" json:"total"`
	Change         decimal.Decimal `db:"change" json:"change"`
	Status         string          `db:"status" json:"status"`
	CancelReason   string          `db:"cancel_reason" json:"cancel_reason,omitempty"`
	IdempotencyKey string          `db:"idempotency_key" json:"idempotency_key,omitempty"`
	SoldAt         time.Time       `db:"sold_at" json:"sold_at"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updated_at"`
}

// SaleItem represents one line of a sale snapshot
type SaleItem struct {
	ID                   int64           `db:"id" json:"id"`
	SaleID               int64           `db:"sale_id" json:"sale_id"`
	ProductID            *int64          `db:"product_id" json:"product_id,omitempty"`
	Description          string          `db:"description" json:"description"`
	Quantity             int             `db:"quantity" json:"quantity"`
	UnitPrice            decimal.Decimal `db:"unit_price" json:"unit_price"`
	SubscriptionPeriodID *int64          `db:"subscription_period_id" json:"subscription_period_id,omitempty"`
	PeriodLabel          string          `db:"period_label" json:"period_label,omitempty"`
}

// SalePayment represents one payment leg of a sale
type SalePayment struct {
	ID       int64           `db:"id" json:"id"`
	SaleID   int64           `db:"sale_id" json:"sale_id"`
	Method   string          `db:"method" json:"method"`
	Amount   decimal.Decimal `db:"amount" json:"amount"`
	Position int             `db:"position" json:"position"`
}

// Subscription represents a recurring billing agreement for a customer
type Subscription struct {
	ID         int64           `db:"id" json:"id"`
	CustomerID int64           `db:"customer_id" json:"customer_id"`
	Provider   string          `db:"provider" json:"provider"`
	Value      decimal.Decimal `db:"value" json:"value"`
	Active     bool            `db:"active" json:"active"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
}

// SubscriptionPeriod represents one billing period of a subscription
type SubscriptionPeriod struct {
	ID             int64           `db:"id" json:"id"`
	SubscriptionID int64           `db:"subscription_id" json:"subscription_id"`
	PeriodLabel    string          `db:"period_label" json:"period_label"`
	Value          decimal.Decimal `db:"value" json:"value"`
	PaidAt         *time.Time      `db:"paid_at" json:"paid_at,omitempty"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
}

// GhostSubscription is a customer flagged as subscriber with no
// subscription record configured yet
type GhostSubscription struct {
	CustomerID   int64  `db:"customer_id" json:"customer_id"`
	CustomerName string `db:"customer_name" json:"customer_name"`
}

// Wallet represents a money destination for ledger postings
type Wallet struct {
	ID      int64           `db:"id" json:"id"`
	Name    string          `db:"name" json:"name"`
	Balance decimal.Decimal `db:"balance" json:"balance"`
}

// FinanceCategory classifies ledger transactions
type FinanceCategory struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
	Kind string `db:"kind" json:"kind"`
}

// FinanceTransaction represents a ledger entry
type FinanceTransaction struct {
	ID          int64           `db:"id" json:"id"`
	WalletID    int64           `db:"wallet_id" json:"wallet_id"`
	CategoryID  int64           `db:"category_id" json:"category_id"`
	SaleID      *int64          `db:"sale_id" json:"sale_id,omitempty"`
	Description string          `db:"description" json:"description"`
	Amount      decimal.Decimal `db:"amount" json:"amount"`
	Kind        string          `db:"kind" json:"kind"`
	OccurredAt  time.Time       `db:"occurred_at" json:"occurred_at"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
}

// OutboxEntry represents a pending side effect of a completed sale,
// retried by the outbox worker until it lands
type OutboxEntry struct {
	ID          int64      `db:"id" json:"id"`
	SaleID      int64      `db:"sale_id" json:"sale_id"`
	EffectType  string     `db:"effect_type" json:"effect_type"`
	Payload     []byte     `db:"payload" json:"payload"`
	Attempts    int        `db:"attempts" json:"attempts"`
	LastError   string     `db:"last_error" json:"last_error,omitempty"`
	ProcessedAt *time.Time `db:"processed_at" json:"processed_at,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
}

// Payment methods
const (
	PaymentMethodMoney     = "money"
	PaymentMethodPix       = "pix"
	PaymentMethodDebit     = "debit"
	PaymentMethodCredit    = "credit"
	PaymentMethodCreditTab = "credit_tab"
	PaymentMethodLink      = "link"
	PaymentMethodOthers    = "others"
)

// ValidPaymentMethod reports whether m is a known payment method.
func ValidPaymentMethod(m string) bool {
	switch m {
	case PaymentMethodMoney, PaymentMethodPix, PaymentMethodDebit,
		PaymentMethodCredit, PaymentMethodCreditTab, PaymentMethodLink,
		PaymentMethodOthers:
		return true
	}
	return false
}

// Sale statuses
const (
	SaleStatusCompleted = "completed"
	SaleStatusPending   = "pending"
	SaleStatusCancelled = "cancelled"
)

// Ledger kinds
const (
	FinanceKindIncome  = "income"
	FinanceKindExpense = "expense"
)

// Outbox effect types
const (
	EffectStockDecrement       = "STOCK_DECREMENT"
	EffectSubscriptionMarkPaid = "SUBSCRIPTION_MARK_PAID"
	EffectFinancePost          = "FINANCE_POST"
)

// ProcessedEvent for idempotency
type ProcessedEvent struct {
	EventID     string    `db:"event_id"`
	EventType   string    `db:"event_type"`
	ProcessedAt time.Time `db:"processed_at"`
}
