package service

import (
	"context"
	"errors"
	"fmt"

	"pdv-service/internal/redisclient"
	"pdv-service/internal/store"
	"pdv-service/internal/util"

	"go.uber.org/zap"
)

// StockClient decrements product stock with a Redis fast path in front of
// the authoritative conditional update in Postgres.
type StockClient struct {
	store  *store.Store
	redis  *redisclient.Client
	logger *zap.Logger
}

// NewStockClient creates a new stock client
func NewStockClient(store *store.Store, redis *redisclient.Client) *StockClient {
	return &StockClient{
		store:  store,
		redis:  redis,
		logger: util.GetLogger(),
	}
}

// Decrement takes quantity from a product's stock. The Redis counter
// rejects obviously over-sold requests cheaply; the database decrement is
// the source of truth and the Redis counter is restored if it fails.
// Returns the remaining stock.
func (sc *StockClient) Decrement(ctx context.Context, productID int64, quantity int) (int, error) {
	ctx, span := util.StartSpan(ctx, "StockClient.Decrement")
	defer span.End()

	_, ok, err := sc.redis.DecrementStock(ctx, productID, quantity)
	if err != nil {
		sc.logger.Warn("Redis stock decrement failed, using DB only",
			zap.Int64("product_id", productID),
			zap.Error(err))
	} else if !ok {
		util.StockDecrementsFailed.WithLabelValues("insufficient_stock").Inc()
		return 0, fmt.Errorf("product %d: %w", productID, store.ErrInsufficientStock)
	}

	remaining, err := sc.store.DecrementStock(ctx, productID, quantity)
	if err != nil {
		if restoreErr := sc.redis.RestoreStock(ctx, productID, quantity); restoreErr != nil {
			sc.logger.Error("Failed to restore Redis stock counter",
				zap.Int64("product_id", productID),
				zap.Error(restoreErr))
		}
		if errors.Is(err, store.ErrInsufficientStock) {
			util.StockDecrementsFailed.WithLabelValues("insufficient_stock").Inc()
		} else {
			util.StockDecrementsFailed.WithLabelValues("error").Inc()
		}
		return 0, err
	}

	return remaining, nil
}

// SyncStockToRedis seeds the Redis stock counters from the database
func (sc *StockClient) SyncStockToRedis(ctx context.Context) error {
	sc.logger.Info("Starting stock sync to Redis")

	products, err := sc.store.GetProducts(ctx)
	if err != nil {
		return fmt.Errorf("failed to get products: %w", err)
	}

	synced := 0
	for _, product := range products {
		if !product.ManageStock {
			continue
		}
		if err := sc.redis.SetStock(ctx, product.ID, product.Stock); err != nil {
			sc.logger.Error("Failed to seed Redis stock counter",
				zap.Int64("product_id", product.ID),
				zap.Error(err))
			continue
		}
		synced++
	}

	sc.logger.Info("Stock sync completed", zap.Int("count", synced))
	return nil
}
