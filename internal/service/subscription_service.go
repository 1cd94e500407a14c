package service

import (
	"context"
	"fmt"

	"pdv-service/internal/cart"
	"pdv-service/internal/models"
	"pdv-service/internal/store"
	"pdv-service/internal/util"

	"go.uber.org/zap"
)

// SubscriptionService handles subscription billing periods and their
// synthesis into cart installment lines.
type SubscriptionService struct {
	store  *store.Store
	logger *zap.Logger
}

// NewSubscriptionService creates a new subscription service
func NewSubscriptionService(store *store.Store) *SubscriptionService {
	return &SubscriptionService{
		store:  store,
		logger: util.GetLogger(),
	}
}

// InstallmentLine synthesizes a pseudo-product cart line for a pending
// subscription period. An already-paid period cannot be sold again.
func (ss *SubscriptionService) InstallmentLine(ctx context.Context, periodID int64) (cart.Line, error) {
	period, err := ss.store.GetPeriodByID(ctx, periodID)
	if err != nil {
		return cart.Line{}, err
	}
	if period.PaidAt != nil {
		return cart.Line{}, fmt.Errorf("subscription period %d is already paid", periodID)
	}

	sub, err := ss.store.GetSubscriptionByID(ctx, period.SubscriptionID)
	if err != nil {
		return cart.Line{}, err
	}

	return cart.NewInstallmentLine(*sub, *period), nil
}

// ListPendingPeriods lists unpaid billing periods, optionally for one
// customer.
func (ss *SubscriptionService) ListPendingPeriods(ctx context.Context, customerID *int64) ([]models.SubscriptionPeriod, error) {
	return ss.store.GetPendingPeriods(ctx, customerID)
}

// ListGhosts lists subscriber-flagged customers with no subscription
// configured, shown as placeholder rows requiring setup.
func (ss *SubscriptionService) ListGhosts(ctx context.Context) ([]models.GhostSubscription, error) {
	return ss.store.GetGhostSubscriptions(ctx)
}

// CreateSubscription registers a subscription for a customer
func (ss *SubscriptionService) CreateSubscription(ctx context.Context, sub *models.Subscription) error {
	if err := ss.store.CreateSubscription(ctx, sub); err != nil {
		return err
	}
	ss.logger.Info("Subscription created",
		zap.Int64("subscription_id", sub.ID),
		zap.Int64("customer_id", sub.CustomerID))
	return nil
}

// CreatePeriod opens a billing period on a subscription. The period value
// defaults to the subscription's configured value.
func (ss *SubscriptionService) CreatePeriod(ctx context.Context, period *models.SubscriptionPeriod) error {
	if period.Value.IsZero() {
		sub, err := ss.store.GetSubscriptionByID(ctx, period.SubscriptionID)
		if err != nil {
			return err
		}
		period.Value = sub.Value
	}
	return ss.store.CreatePeriod(ctx, period)
}
