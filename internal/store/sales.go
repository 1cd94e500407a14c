package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"pdv-service/internal/models"
)

// CreateSaleTx inserts a sale with its items and payments in one
// transaction. The snapshot either lands whole or not at all.
func (s *Store) CreateSaleTx(ctx context.Context, sale *models.Sale, items []models.SaleItem, payments []models.SalePayment) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO sales (customer_id, subtotal, discount, total, change, status, idempotency_key, sold_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`

	err = tx.GetContext(ctx, sale, query,
		sale.CustomerID, sale.Subtotal, sale.Discount, sale.Total, sale.Change,
		sale.Status, sale.IdempotencyKey, sale.SoldAt)
	if err != nil {
		return fmt.Errorf("failed to insert sale: %w", err)
	}

	for i := range items {
		items[i].SaleID = sale.ID
		err = tx.GetContext(ctx, &items[i].ID,
			`INSERT INTO sale_items (sale_id, product_id, description, quantity, unit_price, subscription_period_id, period_label)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)
			 RETURNING id`,
			items[i].SaleID, items[i].ProductID, items[i].Description,
			items[i].Quantity, items[i].UnitPrice, items[i].SubscriptionPeriodID, items[i].PeriodLabel)
		if err != nil {
			return fmt.Errorf("failed to insert sale item: %w", err)
		}
	}

	for i := range payments {
		payments[i].SaleID = sale.ID
		payments[i].Position = i
		err = tx.GetContext(ctx, &payments[i].ID,
			`INSERT INTO sale_payments (sale_id, method, amount, position)
			 VALUES ($1, $2, $3, $4)
			 RETURNING id`,
			payments[i].SaleID, payments[i].Method, payments[i].Amount, payments[i].Position)
		if err != nil {
			return fmt.Errorf("failed to insert sale payment: %w", err)
		}
	}

	return tx.Commit()
}

// GetSaleByID retrieves a sale by ID
func (s *Store) GetSaleByID(ctx context.Context, id int64) (*models.Sale, error) {
	var sale models.Sale
	err := s.db.GetContext(ctx, &sale, "SELECT * FROM sales WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("sale not found: %d", id)
	}
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

// GetSaleByIdempotencyKey retrieves a sale by idempotency key
func (s *Store) GetSaleByIdempotencyKey(ctx context.Context, key string) (*models.Sale, error) {
	var sale models.Sale
	err := s.db.GetContext(ctx, &sale, "SELECT * FROM sales WHERE idempotency_key = $1", key)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

// GetSaleItems retrieves all items of a sale
func (s *Store) GetSaleItems(ctx context.Context, saleID int64) ([]models.SaleItem, error) {
	var items []models.SaleItem
	err := s.db.SelectContext(ctx, &items,
		"SELECT * FROM sale_items WHERE sale_id = $1 ORDER BY id", saleID)
	return items, err
}

// GetSalePayments retrieves the payment legs of a sale in entry order
func (s *Store) GetSalePayments(ctx context.Context, saleID int64) ([]models.SalePayment, error) {
	var payments []models.SalePayment
	err := s.db.SelectContext(ctx, &payments,
		"SELECT * FROM sale_payments WHERE sale_id = $1 ORDER BY position", saleID)
	return payments, err
}

// ListSales retrieves sales, optionally filtered by status
func (s *Store) ListSales(ctx context.Context, status string) ([]models.Sale, error) {
	var sales []models.Sale
	if status == "" {
		err := s.db.SelectContext(ctx, &sales, "SELECT * FROM sales ORDER BY sold_at DESC")
		return sales, err
	}
	err := s.db.SelectContext(ctx, &sales,
		"SELECT * FROM sales WHERE status = $1 ORDER BY sold_at DESC", status)
	return sales, err
}

// CancelSale transitions a sale to cancelled with a reason. The transition
// only applies to completed or pending sales and is not reversible.
func (s *Store) CancelSale(ctx context.Context, saleID int64, reason string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE sales SET status = $1, cancel_reason = $2, updated_at = NOW()
		 WHERE id = $3 AND status != $1`,
		models.SaleStatusCancelled, reason, saleID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("sale %d is already cancelled or does not exist", saleID)
	}
	return nil
}

// UpdateSaleDate corrects the sale timestamp only
func (s *Store) UpdateSaleDate(ctx context.Context, saleID int64, soldAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE sales SET sold_at = $1, updated_at = NOW() WHERE id = $2",
		soldAt, saleID)
	return err
}

// UpdateSaleStatus updates sale status
func (s *Store) UpdateSaleStatus(ctx context.Context, saleID int64, status string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE sales SET status = $1, updated_at = NOW() WHERE id = $2",
		status, saleID)
	return err
}

// DeleteSale physically removes a sale and its children. Explicit admin
// action only.
func (s *Store) DeleteSale(ctx context.Context, saleID int64) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM sale_payments WHERE sale_id = $1", saleID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM sale_items WHERE sale_id = $1", saleID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM sales WHERE id = $1", saleID); err != nil {
		return err
	}
	return tx.Commit()
}
