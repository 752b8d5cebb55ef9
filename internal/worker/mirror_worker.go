// Package worker mirrors committed ledger rows to the spreadsheet backend.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"conti/internal/amqp"
	"conti/internal/core"
	"conti/internal/sheets"
	"conti/internal/storage"
	"conti/internal/store"
)

// MirrorWorker consumes transaction events and appends the corresponding
// rows to the spreadsheet mirror. The mirror is append-only: deletes are
// acknowledged but not propagated.
type MirrorWorker struct {
	storage   *storage.SQLiteRepository
	appender  sheets.RowAppender
	batchSize int
}

func NewMirrorWorker(storage *storage.SQLiteRepository, appender sheets.RowAppender, batchSize int) *MirrorWorker {
	return &MirrorWorker{
		storage:   storage,
		appender:  appender,
		batchSize: batchSize,
	}
}

// HandleEvent processes a single transaction event from the broker.
func (w *MirrorWorker) HandleEvent(ctx context.Context, event *amqp.TransactionEvent) error {
	if event.Op != amqp.OpCreated {
		slog.DebugContext(ctx, "Ignoring non-create event", "id", event.ID, "op", event.Op)
		return nil
	}

	t, err := w.storage.Get(ctx, event.ID)
	if errors.Is(err, store.ErrNotFound) {
		// Deleted before the event was consumed; nothing to mirror.
		slog.WarnContext(ctx, "Transaction gone before mirroring", "id", event.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get transaction %d: %w", event.ID, err)
	}

	return w.mirror(ctx, t)
}

// ProcessPending mirrors transactions whose events were lost. Backup
// mechanism behind the broker path.
func (w *MirrorWorker) ProcessPending(ctx context.Context) error {
	pending, err := w.storage.PendingMirror(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get pending transactions: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending mirror rows", "count", len(pending))

	for _, t := range pending {
		if err := w.mirror(ctx, t); err != nil {
			slog.ErrorContext(ctx, "Failed to mirror transaction", "id", t.ID, "error", err)
			continue
		}
	}
	return nil
}

func (w *MirrorWorker) mirror(ctx context.Context, t core.Transaction) error {
	ref, err := w.appender.Append(ctx, t)
	if err != nil {
		return fmt.Errorf("append to sheet: %w", err)
	}

	if err := w.storage.MarkMirrored(ctx, t.ID); err != nil {
		// The row reached the sheet; the periodic pass may append it again,
		// which is the acceptable failure mode for an append-only mirror.
		slog.ErrorContext(ctx, "Failed to mark transaction mirrored", "id", t.ID, "error", err)
	}

	slog.InfoContext(ctx, "Mirrored transaction",
		"id", t.ID,
		"sheet_ref", ref,
		"description", t.Description,
		"amount_cents", t.Amount.Cents)

	return nil
}
