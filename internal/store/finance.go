package store

import (
	"context"
	"database/sql"
	"fmt"

	"pdv-service/internal/models"
)

// GetWallets retrieves all wallets
func (s *Store) GetWallets(ctx context.Context) ([]models.Wallet, error) {
	var wallets []models.Wallet
	err := s.db.SelectContext(ctx, &wallets, "SELECT * FROM wallets ORDER BY id")
	return wallets, err
}

// GetDefaultWallet retrieves the first wallet, used for sale postings when
// none is configured
func (s *Store) GetDefaultWallet(ctx context.Context) (*models.Wallet, error) {
	var wallet models.Wallet
	err := s.db.GetContext(ctx, &wallet, "SELECT * FROM wallets ORDER BY id LIMIT 1")
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("no wallet configured")
	}
	if err != nil {
		return nil, err
	}
	return &wallet, nil
}

// GetFinanceCategories retrieves all ledger categories
func (s *Store) GetFinanceCategories(ctx context.Context) ([]models.FinanceCategory, error) {
	var categories []models.FinanceCategory
	err := s.db.SelectContext(ctx, &categories, "SELECT * FROM finance_categories ORDER BY name")
	return categories, err
}

// GetOrCreateFinanceCategory finds a category by name and kind, creating it
// if missing
func (s *Store) GetOrCreateFinanceCategory(ctx context.Context, name, kind string) (*models.FinanceCategory, error) {
	var category models.FinanceCategory
	err := s.db.GetContext(ctx, &category,
		`INSERT INTO finance_categories (name, kind) VALUES ($1, $2)
		 ON CONFLICT (name, kind) DO UPDATE SET name = EXCLUDED.name
		 RETURNING *`, name, kind)
	if err != nil {
		return nil, err
	}
	return &category, nil
}

// CreateFinanceTransaction posts a ledger entry and adjusts the wallet
// balance in one transaction.
func (s *Store) CreateFinanceTransaction(ctx context.Context, ft *models.FinanceTransaction) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO finance_transactions (wallet_id, category_id, sale_id, description, amount, kind, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	err = tx.GetContext(ctx, ft, query,
		ft.WalletID, ft.CategoryID, ft.SaleID, ft.Description, ft.Amount, ft.Kind, ft.OccurredAt)
	if err != nil {
		return fmt.Errorf("failed to insert finance transaction: %w", err)
	}

	delta := "+"
	if ft.Kind == models.FinanceKindExpense {
		delta = "-"
	}
	_, err = tx.ExecContext(ctx,
		fmt.Sprintf("UPDATE wallets SET balance = balance %s $1 WHERE id = $2", delta),
		ft.Amount, ft.WalletID)
	if err != nil {
		return fmt.Errorf("failed to update wallet balance: %w", err)
	}

	return tx.Commit()
}

// HasFinanceTransactionForSale reports whether a ledger entry already exists
// for a sale, keeping outbox retries idempotent.
func (s *Store) HasFinanceTransactionForSale(ctx context.Context, saleID int64) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists,
		"SELECT EXISTS(SELECT 1 FROM finance_transactions WHERE sale_id = $1)", saleID)
	return exists, err
}

// GetFinanceTransactions retrieves ledger entries for a wallet
func (s *Store) GetFinanceTransactions(ctx context.Context, walletID int64) ([]models.FinanceTransaction, error) {
	var transactions []models.FinanceTransaction
	err := s.db.SelectContext(ctx, &transactions,
		"SELECT * FROM finance_transactions WHERE wallet_id = $1 ORDER BY occurred_at DESC", walletID)
	return transactions, err
}
