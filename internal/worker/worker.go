package worker

import (
	"context"
	"log"
	"time"

	"pdv-service/internal/broker"
	"pdv-service/internal/models"
	"pdv-service/internal/service"
	"pdv-service/internal/store"
	"pdv-service/internal/util"

	"go.uber.org/zap"
)

// OutboxWorker retries sale side effects queued in the checkout outbox
// until they land. Effects are idempotent, so re-running a partially
// applied batch is safe.
type OutboxWorker struct {
	store       *store.Store
	saleService *service.SaleService
	tick        time.Duration
	batchSize   int
	logger      *zap.Logger
}

// NewOutboxWorker creates a new outbox worker
func NewOutboxWorker(store *store.Store, saleService *service.SaleService, tick time.Duration, batchSize int) *OutboxWorker {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &OutboxWorker{
		store:       store,
		saleService: saleService,
		tick:        tick,
		batchSize:   batchSize,
		logger:      util.GetLogger(),
	}
}

// Start runs the worker until the context is cancelled
func (w *OutboxWorker) Start(ctx context.Context) error {
	log.Println("Starting outbox worker...")

	ticker := time.NewTicker(w.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Outbox worker stopping...")
			return ctx.Err()
		case <-ticker.C:
			w.processBatch(ctx)
		}
	}
}

func (w *OutboxWorker) processBatch(ctx context.Context) {
	entries, err := w.store.GetUnprocessedOutbox(ctx, w.batchSize)
	if err != nil {
		w.logger.Error("Failed to fetch outbox entries", zap.Error(err))
		return
	}

	for i := range entries {
		entry := &entries[i]
		if err := w.saleService.ApplyOutboxEntry(ctx, entry); err != nil {
			util.OutboxRetriesTotal.WithLabelValues(entry.EffectType, "failure").Inc()
			w.logger.Warn("Outbox effect retry failed",
				zap.Int64("entry_id", entry.ID),
				zap.Int64("sale_id", entry.SaleID),
				zap.String("effect", entry.EffectType),
				zap.Int("attempts", entry.Attempts),
				zap.Error(err))
			if err := w.store.RecordOutboxFailure(ctx, entry.ID, err.Error()); err != nil {
				w.logger.Error("Failed to record outbox failure", zap.Error(err))
			}
			continue
		}

		util.OutboxRetriesTotal.WithLabelValues(entry.EffectType, "success").Inc()
		if err := w.store.MarkOutboxProcessed(ctx, entry.ID); err != nil {
			w.logger.Error("Failed to mark outbox entry processed",
				zap.Int64("entry_id", entry.ID),
				zap.Error(err))
		}
	}
}

// StockAlertWorker consumes sale-topic events and raises replenishment
// alerts when a product's stock hits zero.
type StockAlertWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	store        *store.Store
	logger       *zap.Logger
}

// NewStockAlertWorker creates a new stock alert worker
func NewStockAlertWorker(consumer *broker.Consumer, st *store.Store) *StockAlertWorker {
	w := &StockAlertWorker{
		consumer: consumer,
		store:    st,
		logger:   util.GetLogger(),
	}

	eventHandler := broker.NewEventHandler()
	eventHandler.OnStockDepleted(w.handleStockDepleted)
	w.eventHandler = eventHandler

	return w
}

// Start starts the worker
func (w *StockAlertWorker) Start(ctx context.Context) error {
	log.Println("Starting stock alert worker...")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *StockAlertWorker) Stop() error {
	log.Println("Stopping stock alert worker...")
	return w.consumer.Close()
}

func (w *StockAlertWorker) handleStockDepleted(ctx context.Context, event *models.StockDepletedEvent) error {
	processed, err := w.store.IsEventProcessed(ctx, event.EventID)
	if err != nil {
		return err
	}
	if processed {
		return nil
	}

	w.logger.Warn("Product stock depleted, replenishment needed",
		zap.Int64("product_id", event.ProductID),
		zap.String("sku", event.SKU))

	return w.store.MarkEventProcessed(ctx, event.EventID, event.EventType)
}
