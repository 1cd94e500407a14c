package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"pdv-service/internal/broker"
	"pdv-service/internal/cart"
	"pdv-service/internal/checkout"
	"pdv-service/internal/models"
	"pdv-service/internal/redisclient"
	"pdv-service/internal/store"
	"pdv-service/internal/util"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Checkout results. A sale recorded with incomplete side effects is
// reported distinctly instead of being swallowed; the outbox worker
// finishes the remainder.
const (
	ResultCompleted      = "COMPLETED"
	ResultPartialFailure = "PARTIAL_FAILURE"
)

const salesCategoryName = "Vendas"

// ErrCheckoutInProgress is returned when the same idempotency key is
// submitted while a finalize is still running.
var ErrCheckoutInProgress = errors.New("checkout already in progress")

// SaleService handles the complete-sale use case and sale lifecycle
type SaleService struct {
	store          *store.Store
	redis          *redisclient.Client
	eventPublisher *broker.EventPublisher
	stock          *StockClient
	subscriptions  *SubscriptionService
	logger         *zap.Logger
	lockTTL        time.Duration
}

// NewSaleService creates a new sale service
func NewSaleService(
	store *store.Store,
	redis *redisclient.Client,
	eventPublisher *broker.EventPublisher,
	stock *StockClient,
	subscriptions *SubscriptionService,
	lockTTL time.Duration,
) *SaleService {
	return &SaleService{
		store:          store,
		redis:          redis,
		eventPublisher: eventPublisher,
		stock:          stock,
		subscriptions:  subscriptions,
		logger:         util.GetLogger(),
		lockTTL:        lockTTL,
	}
}

// CheckoutItemRequest is one cart line in a checkout request: either a
// catalog product with a quantity or a pending subscription period.
type CheckoutItemRequest struct {
	ProductID            *int64 `json:"product_id,omitempty"`
	Quantity             int    `json:"quantity,omitempty"`
	SubscriptionPeriodID *int64 `json:"subscription_period_id,omitempty"`
}

// CheckoutRequest represents a request to finalize a sale
type CheckoutRequest struct {
	CustomerID      *int64                `json:"customer_id,omitempty"`
	Items           []CheckoutItemRequest `json:"items" binding:"required,min=1"`
	Discount        decimal.Decimal       `json:"discount"`
	PrimaryMethod   string                `json:"primary_method" binding:"required"`
	PrimaryAmount   decimal.Decimal       `json:"primary_amount"`
	SecondaryMethod string                `json:"secondary_method,omitempty"`
	IdempotencyKey  string                `json:"idempotency_key,omitempty"`
	PendingSaleID   *int64                `json:"pending_sale_id,omitempty"`
}

// PendingOrderRequest represents a cart saved for later
type PendingOrderRequest struct {
	CustomerID *int64                `json:"customer_id,omitempty"`
	Items      []CheckoutItemRequest `json:"items" binding:"required,min=1"`
	Discount   decimal.Decimal       `json:"discount"`
}

// FailedEffect names a side effect that did not land with the sale
type FailedEffect struct {
	Effect string `json:"effect"`
	Error  string `json:"error"`
}

// CheckoutResponse represents the outcome of a finalize
type CheckoutResponse struct {
	SaleID        int64              `json:"sale_id"`
	Status        string             `json:"status"`
	Result        string             `json:"result"`
	Total         decimal.Decimal    `json:"total"`
	Change        decimal.Decimal    `json:"change"`
	Payments      []checkout.Payment `json:"payments"`
	FailedEffects []FailedEffect     `json:"failed_effects,omitempty"`
}

// TenderPreview is the live checkout state shown while the operator enters
// amounts: remainder, change, validity and cash shortcuts.
type TenderPreview struct {
	Subtotal   decimal.Decimal     `json:"subtotal"`
	Discount   decimal.Decimal     `json:"discount"`
	Total      decimal.Decimal     `json:"total"`
	Evaluation checkout.Evaluation `json:"evaluation"`
	QuickCash  []decimal.Decimal   `json:"quick_cash"`
}

// buildCart resolves request items against the catalog and subscription
// periods and assembles a cart with the discount applied.
func (s *SaleService) buildCart(ctx context.Context, customerID *int64, items []CheckoutItemRequest, discount decimal.Decimal) (*cart.Cart, error) {
	productIDs := make([]int64, 0, len(items))
	for _, item := range items {
		if item.ProductID != nil {
			productIDs = append(productIDs, *item.ProductID)
		}
	}

	products, err := s.store.GetProductsByIDs(ctx, productIDs)
	if err != nil {
		return nil, err
	}
	productMap := make(map[int64]models.Product, len(products))
	for _, p := range products {
		productMap[p.ID] = p
	}

	c := cart.New()
	c.SetCustomer(customerID)

	for _, item := range items {
		switch {
		case item.ProductID != nil:
			p, ok := productMap[*item.ProductID]
			if !ok {
				return nil, fmt.Errorf("product not found: %d", *item.ProductID)
			}
			c.AddProduct(p, item.Quantity)

		case item.SubscriptionPeriodID != nil:
			line, err := s.subscriptions.InstallmentLine(ctx, *item.SubscriptionPeriodID)
			if err != nil {
				return nil, err
			}
			if err := c.AddInstallment(line); err != nil {
				return nil, err
			}

		default:
			return nil, fmt.Errorf("item must reference a product or a subscription period")
		}
	}

	if err := c.SetDiscount(discount); err != nil {
		return nil, err
	}

	return c, nil
}

// PreviewTender computes the live allocation state for the entered tender
func (s *SaleService) PreviewTender(ctx context.Context, req *CheckoutRequest) (*TenderPreview, error) {
	c, err := s.buildCart(ctx, req.CustomerID, req.Items, req.Discount)
	if err != nil {
		return nil, err
	}

	subtotal := c.Subtotal()
	total := checkout.Total(subtotal, c.Discount())

	return &TenderPreview{
		Subtotal: subtotal,
		Discount: c.Discount(),
		Total:    total,
		Evaluation: checkout.Evaluate(total, checkout.Tender{
			PrimaryMethod:   req.PrimaryMethod,
			PrimaryAmount:   req.PrimaryAmount,
			SecondaryMethod: req.SecondaryMethod,
		}),
		QuickCash: checkout.QuickCash(total),
	}, nil
}

// CompleteSale finalizes a checkout: allocation, sale snapshot persistence,
// then the dependent side effects (stock, subscription periods, ledger).
// The sale write comes first; side effects are best-effort and any failure
// after it is reported as PARTIAL_FAILURE with outbox entries for retry.
func (s *SaleService) CompleteSale(ctx context.Context, req *CheckoutRequest) (*CheckoutResponse, error) {
	ctx, span := util.StartSpan(ctx, "SaleService.CompleteSale")
	defer span.End()

	start := time.Now()
	defer func() {
		util.CheckoutLatency.Observe(time.Since(start).Seconds())
	}()

	if req.IdempotencyKey == "" {
		req.IdempotencyKey = uuid.New().String()
	}

	existing, err := s.store.GetSaleByIdempotencyKey(ctx, req.IdempotencyKey)
	if err != nil {
		return nil, fmt.Errorf("failed to check idempotency: %w", err)
	}
	if existing != nil {
		s.logger.Info("Duplicate checkout request detected",
			zap.String("idempotency_key", req.IdempotencyKey),
			zap.Int64("sale_id", existing.ID))
		return s.responseForExistingSale(ctx, existing)
	}

	locked, err := s.redis.AcquireLock(ctx, req.IdempotencyKey, s.lockTTL)
	if err != nil {
		s.logger.Warn("Checkout lock unavailable, proceeding without it", zap.Error(err))
	} else if !locked {
		return nil, ErrCheckoutInProgress
	} else {
		defer func() {
			if err := s.redis.ReleaseLock(context.Background(), req.IdempotencyKey); err != nil {
				s.logger.Warn("Failed to release checkout lock", zap.Error(err))
			}
		}()
	}

	c, err := s.buildCart(ctx, req.CustomerID, req.Items, req.Discount)
	if err != nil {
		util.SalesFailedTotal.WithLabelValues("invalid_items").Inc()
		return nil, err
	}

	allocation, err := checkout.Allocate(c.Lines(), c.Discount(), checkout.Tender{
		PrimaryMethod:   req.PrimaryMethod,
		PrimaryAmount:   req.PrimaryAmount,
		SecondaryMethod: req.SecondaryMethod,
	})
	if err != nil {
		util.SalesFailedTotal.WithLabelValues("invalid_tender").Inc()
		return nil, err
	}

	sale := &models.Sale{
		CustomerID:     req.CustomerID,
		Subtotal:       allocation.Subtotal,
		Discount:       allocation.Discount,
		Total:          allocation.Total,
		Change:         allocation.Change,
		Status:         models.SaleStatusCompleted,
		IdempotencyKey: req.IdempotencyKey,
		SoldAt:         time.Now(),
	}

	items := saleItemsFromLines(c.Lines())
	payments := make([]models.SalePayment, len(allocation.Payments))
	for i, p := range allocation.Payments {
		payments[i] = models.SalePayment{Method: p.Method, Amount: p.Amount}
	}

	if err := s.store.CreateSaleTx(ctx, sale, items, payments); err != nil {
		util.SalesFailedTotal.WithLabelValues("db_error").Inc()
		return nil, fmt.Errorf("failed to persist sale: %w", err)
	}

	s.logger.Info("Sale recorded",
		zap.Int64("sale_id", sale.ID),
		zap.String("total", sale.Total.String()),
		zap.Int("payment_legs", len(payments)))

	// A finalized pending order is superseded by the completed sale.
	if req.PendingSaleID != nil {
		if err := s.store.DeleteSale(ctx, *req.PendingSaleID); err != nil {
			s.logger.Error("Failed to remove finalized pending order",
				zap.Int64("pending_sale_id", *req.PendingSaleID),
				zap.Error(err))
		}
	}

	failed := s.applySideEffects(ctx, sale, c.Lines())

	s.publishSaleCompleted(ctx, sale, items, payments)

	result := ResultCompleted
	if len(failed) > 0 {
		result = ResultPartialFailure
		util.SalesPartialTotal.Inc()
		s.logger.Warn("Sale recorded with incomplete side effects",
			zap.Int64("sale_id", sale.ID),
			zap.Int("failed_effects", len(failed)))
	} else {
		util.SalesCompletedTotal.Inc()
	}
	if len(payments) == 2 {
		util.SplitPaymentsTotal.Inc()
	}

	return &CheckoutResponse{
		SaleID:        sale.ID,
		Status:        sale.Status,
		Result:        result,
		Total:         sale.Total,
		Change:        sale.Change,
		Payments:      allocation.Payments,
		FailedEffects: failed,
	}, nil
}

// applySideEffects runs the post-sale effects in order: stock decrements,
// subscription period settlement, ledger posting. Failures are queued to
// the outbox and reported back.
func (s *SaleService) applySideEffects(ctx context.Context, sale *models.Sale, lines []cart.Line) []FailedEffect {
	var failed []FailedEffect

	for _, line := range lines {
		switch {
		case line.Kind == cart.KindProduct && line.ManageStock && line.ProductID != nil:
			remaining, err := s.stock.Decrement(ctx, *line.ProductID, line.Quantity)
			if err != nil {
				failed = append(failed, s.enqueueEffect(ctx, sale.ID, models.EffectStockDecrement,
					stockDecrementPayload{ProductID: *line.ProductID, Quantity: line.Quantity}, err))
				continue
			}
			if remaining == 0 {
				s.publishStockDepleted(ctx, *line.ProductID)
			}

		case line.IsInstallment() && line.SubscriptionPeriodID != nil:
			if err := s.store.MarkPeriodPaid(ctx, *line.SubscriptionPeriodID); err != nil {
				failed = append(failed, s.enqueueEffect(ctx, sale.ID, models.EffectSubscriptionMarkPaid,
					markPeriodPaidPayload{PeriodID: *line.SubscriptionPeriodID}, err))
				continue
			}
			util.SubscriptionPeriodsPaidTotal.Inc()
		}
	}

	if sale.Total.IsPositive() {
		if err := s.postSaleToLedger(ctx, sale); err != nil {
			failed = append(failed, s.enqueueEffect(ctx, sale.ID, models.EffectFinancePost,
				financePostPayload{SaleID: sale.ID}, err))
		}
	}

	return failed
}

// postSaleToLedger records the sale as income in the default wallet
func (s *SaleService) postSaleToLedger(ctx context.Context, sale *models.Sale) error {
	wallet, err := s.store.GetDefaultWallet(ctx)
	if err != nil {
		return err
	}
	category, err := s.store.GetOrCreateFinanceCategory(ctx, salesCategoryName, models.FinanceKindIncome)
	if err != nil {
		return err
	}

	saleID := sale.ID
	return s.store.CreateFinanceTransaction(ctx, &models.FinanceTransaction{
		WalletID:    wallet.ID,
		CategoryID:  category.ID,
		SaleID:      &saleID,
		Description: fmt.Sprintf("Venda #%d", sale.ID),
		Amount:      sale.Total,
		Kind:        models.FinanceKindIncome,
		OccurredAt:  sale.SoldAt,
	})
}

type stockDecrementPayload struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

type markPeriodPaidPayload struct {
	PeriodID int64 `json:"period_id"`
}

type financePostPayload struct {
	SaleID int64 `json:"sale_id"`
}

// enqueueEffect writes a failed side effect to the outbox for retry
func (s *SaleService) enqueueEffect(ctx context.Context, saleID int64, effectType string, payload interface{}, cause error) FailedEffect {
	s.logger.Error("Sale side effect failed",
		zap.Int64("sale_id", saleID),
		zap.String("effect", effectType),
		zap.Error(cause))

	body, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error("Failed to marshal outbox payload", zap.Error(err))
		return FailedEffect{Effect: effectType, Error: cause.Error()}
	}

	entry := &models.OutboxEntry{
		SaleID:     saleID,
		EffectType: effectType,
		Payload:    body,
		Attempts:   1,
		LastError:  cause.Error(),
	}
	if err := s.store.InsertOutboxEntry(ctx, entry); err != nil {
		s.logger.Error("Failed to enqueue outbox entry; effect will not be retried",
			zap.Int64("sale_id", saleID),
			zap.String("effect", effectType),
			zap.Error(err))
	}

	return FailedEffect{Effect: effectType, Error: cause.Error()}
}

// ApplyOutboxEntry re-applies a queued side effect. Every branch is
// idempotent so retries after partial progress are safe.
func (s *SaleService) ApplyOutboxEntry(ctx context.Context, entry *models.OutboxEntry) error {
	switch entry.EffectType {
	case models.EffectStockDecrement:
		var p stockDecrementPayload
		if err := json.Unmarshal(entry.Payload, &p); err != nil {
			return fmt.Errorf("bad outbox payload: %w", err)
		}
		remaining, err := s.stock.Decrement(ctx, p.ProductID, p.Quantity)
		if err != nil {
			return err
		}
		if remaining == 0 {
			s.publishStockDepleted(ctx, p.ProductID)
		}
		return nil

	case models.EffectSubscriptionMarkPaid:
		var p markPeriodPaidPayload
		if err := json.Unmarshal(entry.Payload, &p); err != nil {
			return fmt.Errorf("bad outbox payload: %w", err)
		}
		return s.store.MarkPeriodPaid(ctx, p.PeriodID)

	case models.EffectFinancePost:
		var p financePostPayload
		if err := json.Unmarshal(entry.Payload, &p); err != nil {
			return fmt.Errorf("bad outbox payload: %w", err)
		}
		exists, err := s.store.HasFinanceTransactionForSale(ctx, p.SaleID)
		if err != nil {
			return err
		}
		if exists {
			return nil
		}
		sale, err := s.store.GetSaleByID(ctx, p.SaleID)
		if err != nil {
			return err
		}
		return s.postSaleToLedger(ctx, sale)

	default:
		return fmt.Errorf("unknown outbox effect type: %s", entry.EffectType)
	}
}

// SaveAsPending persists the cart as a pending order without payments or
// side effects.
func (s *SaleService) SaveAsPending(ctx context.Context, req *PendingOrderRequest) (*CheckoutResponse, error) {
	ctx, span := util.StartSpan(ctx, "SaleService.SaveAsPending")
	defer span.End()

	c, err := s.buildCart(ctx, req.CustomerID, req.Items, req.Discount)
	if err != nil {
		util.SalesFailedTotal.WithLabelValues("invalid_items").Inc()
		return nil, err
	}

	subtotal := c.Subtotal()
	sale := &models.Sale{
		CustomerID: req.CustomerID,
		Subtotal:   subtotal,
		Discount:   c.Discount(),
		Total:      checkout.Total(subtotal, c.Discount()),
		Change:     decimal.Zero,
		Status:     models.SaleStatusPending,
		SoldAt:     time.Now(),
	}

	items := saleItemsFromLines(c.Lines())
	if err := s.store.CreateSaleTx(ctx, sale, items, nil); err != nil {
		util.SalesFailedTotal.WithLabelValues("db_error").Inc()
		return nil, fmt.Errorf("failed to persist pending order: %w", err)
	}

	util.SalesPendingTotal.Inc()
	s.logger.Info("Pending order saved", zap.Int64("sale_id", sale.ID))

	event := &models.SalePendingEvent{
		BaseEvent:  newBaseEvent(models.EventTypeSalePending),
		SaleID:     sale.ID,
		CustomerID: sale.CustomerID,
		Total:      sale.Total,
		Items:      saleItemDataFromItems(items),
	}
	if err := s.eventPublisher.PublishSalePending(ctx, event); err != nil {
		s.logger.Error("Failed to publish SalePending event", zap.Error(err))
	}

	return &CheckoutResponse{
		SaleID: sale.ID,
		Status: sale.Status,
		Result: ResultCompleted,
		Total:  sale.Total,
	}, nil
}

// CancelSale transitions a sale to cancelled. Stock decrements and
// subscription settlements are not reversed.
func (s *SaleService) CancelSale(ctx context.Context, saleID int64, reason string) error {
	ctx, span := util.StartSpan(ctx, "SaleService.CancelSale")
	defer span.End()

	if err := s.store.CancelSale(ctx, saleID, reason); err != nil {
		return err
	}

	util.SalesCancelledTotal.Inc()
	s.logger.Info("Sale cancelled",
		zap.Int64("sale_id", saleID),
		zap.String("reason", reason))

	event := &models.SaleCancelledEvent{
		BaseEvent: newBaseEvent(models.EventTypeSaleCancelled),
		SaleID:    saleID,
		Reason:    reason,
	}
	if err := s.eventPublisher.PublishSaleCancelled(ctx, event); err != nil {
		s.logger.Error("Failed to publish SaleCancelled event", zap.Error(err))
	}

	return nil
}

// UpdateSaleDate corrects a sale's timestamp
func (s *SaleService) UpdateSaleDate(ctx context.Context, saleID int64, soldAt time.Time) error {
	return s.store.UpdateSaleDate(ctx, saleID, soldAt)
}

// GetSale retrieves a sale with its items and payments
func (s *SaleService) GetSale(ctx context.Context, saleID int64) (*models.Sale, []models.SaleItem, []models.SalePayment, error) {
	sale, err := s.store.GetSaleByID(ctx, saleID)
	if err != nil {
		return nil, nil, nil, err
	}
	items, err := s.store.GetSaleItems(ctx, saleID)
	if err != nil {
		return nil, nil, nil, err
	}
	payments, err := s.store.GetSalePayments(ctx, saleID)
	if err != nil {
		return nil, nil, nil, err
	}
	return sale, items, payments, nil
}

// ListSales lists sales, optionally filtered by status
func (s *SaleService) ListSales(ctx context.Context, status string) ([]models.Sale, error) {
	return s.store.ListSales(ctx, status)
}

func (s *SaleService) responseForExistingSale(ctx context.Context, sale *models.Sale) (*CheckoutResponse, error) {
	stored, err := s.store.GetSalePayments(ctx, sale.ID)
	if err != nil {
		return nil, err
	}
	payments := make([]checkout.Payment, len(stored))
	for i, p := range stored {
		payments[i] = checkout.Payment{Method: p.Method, Amount: p.Amount}
	}
	return &CheckoutResponse{
		SaleID:   sale.ID,
		Status:   sale.Status,
		Result:   ResultCompleted,
		Total:    sale.Total,
		Change:   sale.Change,
		Payments: payments,
	}, nil
}

func (s *SaleService) publishSaleCompleted(ctx context.Context, sale *models.Sale, items []models.SaleItem, payments []models.SalePayment) {
	paymentData := make([]models.SalePaymentData, len(payments))
	for i, p := range payments {
		paymentData[i] = models.SalePaymentData{Method: p.Method, Amount: p.Amount}
	}

	event := &models.SaleCompletedEvent{
		BaseEvent:  newBaseEvent(models.EventTypeSaleCompleted),
		SaleID:     sale.ID,
		CustomerID: sale.CustomerID,
		Total:      sale.Total,
		Discount:   sale.Discount,
		Change:     sale.Change,
		Items:      saleItemDataFromItems(items),
		Payments:   paymentData,
	}
	if err := s.eventPublisher.PublishSaleCompleted(ctx, event); err != nil {
		s.logger.Error("Failed to publish SaleCompleted event", zap.Error(err))
	}
}

func (s *SaleService) publishStockDepleted(ctx context.Context, productID int64) {
	product, err := s.store.GetProductByID(ctx, productID)
	if err != nil {
		s.logger.Error("Failed to load depleted product", zap.Error(err))
		return
	}
	event := &models.StockDepletedEvent{
		BaseEvent: newBaseEvent(models.EventTypeStockDepleted),
		ProductID: product.ID,
		SKU:       product.SKU,
	}
	if err := s.eventPublisher.PublishStockDepleted(ctx, event); err != nil {
		s.logger.Error("Failed to publish StockDepleted event", zap.Error(err))
	}
}

func newBaseEvent(eventType string) models.BaseEvent {
	return models.BaseEvent{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Timestamp: time.Now(),
	}
}

func saleItemsFromLines(lines []cart.Line) []models.SaleItem {
	items := make([]models.SaleItem, len(lines))
	for i, l := range lines {
		items[i] = models.SaleItem{
			ProductID:            l.ProductID,
			Description:          l.Description,
			Quantity:             l.Quantity,
			UnitPrice:            l.UnitPrice,
			SubscriptionPeriodID: l.SubscriptionPeriodID,
			PeriodLabel:          l.PeriodLabel,
		}
	}
	return items
}

func saleItemDataFromItems(items []models.SaleItem) []models.SaleItemData {
	data := make([]models.SaleItemData, len(items))
	for i, item := range items {
		data[i] = models.SaleItemData{
			ProductID:            item.ProductID,
			Description:          item.Description,
			Quantity:             item.Quantity,
			UnitPrice:            item.UnitPrice,
			SubscriptionPeriodID: item.SubscriptionPeriodID,
		}
	}
	return data
}
