// Package services orchestrates ledger writes across the store and the
// change-event broker.
package services

import (
	"context"
	"fmt"
	"log/slog"

	"conti/internal/amqp"
	"conti/internal/core"
	"conti/internal/store"
)

// TransactionService is the write path of the ledger. Every mutation goes
// to the store first; broker publishing is best-effort and never fails a
// request that the store already accepted.
type TransactionService struct {
	store      store.TransactionStore
	amqpClient *amqp.Client
}

func NewTransactionService(s store.TransactionStore, amqpClient *amqp.Client) *TransactionService {
	return &TransactionService{
		store:      s,
		amqpClient: amqpClient,
	}
}

// Create validates and persists a single transaction, then publishes a
// created event for the mirror worker.
func (s *TransactionService) Create(ctx context.Context, t core.Transaction) (int64, error) {
	if err := t.Validate(); err != nil {
		return 0, err
	}

	id, err := s.store.Insert(ctx, t)
	if err != nil {
		return 0, fmt.Errorf("save transaction: %w", err)
	}

	s.publish(ctx, id, amqp.OpCreated)
	return id, nil
}

// Delete removes a transaction by id. A missing id surfaces as
// store.ErrNotFound for the caller to report; nothing else is affected.
func (s *TransactionService) Delete(ctx context.Context, id int64) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}

	s.publish(ctx, id, amqp.OpDeleted)
	return nil
}

// Import commits a pre-parsed batch atomically. If the store rejects any
// row, nothing is inserted and no events are published.
func (s *TransactionService) Import(ctx context.Context, txs []core.Transaction) ([]int64, error) {
	ids, err := s.store.BatchInsert(ctx, txs)
	if err != nil {
		return nil, fmt.Errorf("import batch: %w", err)
	}

	for _, id := range ids {
		s.publish(ctx, id, amqp.OpCreated)
	}

	slog.InfoContext(ctx, "Imported transaction batch", "count", len(ids))
	return ids, nil
}

func (s *TransactionService) publish(ctx context.Context, id int64, op string) {
	if s.amqpClient == nil {
		return
	}
	if err := s.amqpClient.PublishEvent(ctx, amqp.NewTransactionEvent(id, op)); err != nil {
		// The local write already succeeded; the worker's periodic resync
		// covers the lost event.
		slog.ErrorContext(ctx, "Failed to publish transaction event",
			"id", id, "op", op, "error", err)
	}
}

// Close releases the broker connection, if any.
func (s *TransactionService) Close() error {
	if s.amqpClient != nil {
		if err := s.amqpClient.Close(); err != nil {
			return fmt.Errorf("close amqp: %w", err)
		}
	}
	return nil
}
