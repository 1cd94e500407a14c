package store

import (
	"context"
	"database/sql"
	"fmt"

	"pdv-service/internal/models"
)

// CreateSubscription inserts a subscription
func (s *Store) CreateSubscription(ctx context.Context, sub *models.Subscription) error {
	query := `
		INSERT INTO subscriptions (customer_id, provider, value, active)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	return s.db.GetContext(ctx, sub, query,
		sub.CustomerID, sub.Provider, sub.Value, sub.Active)
}

// GetSubscriptionByID retrieves a subscription by ID
func (s *Store) GetSubscriptionByID(ctx context.Context, id int64) (*models.Subscription, error) {
	var sub models.Subscription
	err := s.db.GetContext(ctx, &sub, "SELECT * FROM subscriptions WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("subscription not found: %d", id)
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// GetSubscriptionsByCustomer retrieves a customer's subscriptions
func (s *Store) GetSubscriptionsByCustomer(ctx context.Context, customerID int64) ([]models.Subscription, error) {
	var subs []models.Subscription
	err := s.db.SelectContext(ctx, &subs,
		"SELECT * FROM subscriptions WHERE customer_id = $1 ORDER BY id", customerID)
	return subs, err
}

// CreatePeriod inserts a billing period for a subscription
func (s *Store) CreatePeriod(ctx context.Context, period *models.SubscriptionPeriod) error {
	query := `
		INSERT INTO subscription_periods (subscription_id, period_label, value)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	return s.db.GetContext(ctx, period, query,
		period.SubscriptionID, period.PeriodLabel, period.Value)
}

// GetPeriodByID retrieves a billing period by ID
func (s *Store) GetPeriodByID(ctx context.Context, id int64) (*models.SubscriptionPeriod, error) {
	var period models.SubscriptionPeriod
	err := s.db.GetContext(ctx, &period, "SELECT * FROM subscription_periods WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("subscription period not found: %d", id)
	}
	if err != nil {
		return nil, err
	}
	return &period, nil
}

// GetPendingPeriods retrieves unpaid periods, optionally for one customer
func (s *Store) GetPendingPeriods(ctx context.Context, customerID *int64) ([]models.SubscriptionPeriod, error) {
	var periods []models.SubscriptionPeriod
	if customerID == nil {
		err := s.db.SelectContext(ctx, &periods,
			"SELECT * FROM subscription_periods WHERE paid_at IS NULL ORDER BY created_at")
		return periods, err
	}
	err := s.db.SelectContext(ctx, &periods,
		`SELECT p.* FROM subscription_periods p
		 JOIN subscriptions s ON s.id = p.subscription_id
		 WHERE p.paid_at IS NULL AND s.customer_id = $1
		 ORDER BY p.created_at`, *customerID)
	return periods, err
}

// MarkPeriodPaid sets the payment timestamp on an unpaid period. Re-applying
// to an already-paid period is a no-op, so outbox retries stay idempotent.
func (s *Store) MarkPeriodPaid(ctx context.Context, periodID int64) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE subscription_periods SET paid_at = NOW() WHERE id = $1 AND paid_at IS NULL",
		periodID)
	return err
}

// GetGhostSubscriptions lists customers flagged as subscribers that have no
// subscription configured yet.
func (s *Store) GetGhostSubscriptions(ctx context.Context) ([]models.GhostSubscription, error) {
	var ghosts []models.GhostSubscription
	err := s.db.SelectContext(ctx, &ghosts,
		`SELECT c.id AS customer_id, c.name AS customer_name
		 FROM customers c
		 WHERE c.subscriber
		   AND NOT EXISTS (SELECT 1 FROM subscriptions s WHERE s.customer_id = c.id)
		 ORDER BY c.name`)
	return ghosts, err
}
