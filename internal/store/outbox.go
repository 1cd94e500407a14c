package store

import (
	"context"

	"pdv-service/internal/models"
)

// InsertOutboxEntry records a side effect that failed after the sale write
// so the outbox worker can retry it.
func (s *Store) InsertOutboxEntry(ctx context.Context, entry *models.OutboxEntry) error {
	query := `
		INSERT INTO checkout_outbox (sale_id, effect_type, payload, attempts, last_error)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	return s.db.GetContext(ctx, entry, query,
		entry.SaleID, entry.EffectType, entry.Payload, entry.Attempts, entry.LastError)
}

// GetUnprocessedOutbox retrieves pending outbox entries, oldest first
func (s *Store) GetUnprocessedOutbox(ctx context.Context, limit int) ([]models.OutboxEntry, error) {
	var entries []models.OutboxEntry
	err := s.db.SelectContext(ctx, &entries,
		`SELECT * FROM checkout_outbox
		 WHERE processed_at IS NULL
		 ORDER BY created_at
		 LIMIT $1`, limit)
	return entries, err
}

// MarkOutboxProcessed stamps an outbox entry as done
func (s *Store) MarkOutboxProcessed(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE checkout_outbox SET processed_at = NOW() WHERE id = $1", id)
	return err
}

// RecordOutboxFailure bumps the attempt counter and stores the last error
func (s *Store) RecordOutboxFailure(ctx context.Context, id int64, lastError string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE checkout_outbox SET attempts = attempts + 1, last_error = $1 WHERE id = $2",
		lastError, id)
	return err
}

// IsEventProcessed checks if an event has been processed
func (s *Store) IsEventProcessed(ctx context.Context, eventID string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists,
		"SELECT EXISTS(SELECT 1 FROM processed_events WHERE event_id = $1)", eventID)
	return exists, err
}

// MarkEventProcessed marks an event as processed
func (s *Store) MarkEventProcessed(ctx context.Context, eventID, eventType string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO processed_events (event_id, event_type) VALUES ($1, $2) ON CONFLICT (event_id) DO NOTHING",
		eventID, eventType)
	return err
}
