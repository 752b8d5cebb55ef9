package worker

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"conti/internal/amqp"
	"conti/internal/core"
	"conti/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAppender struct {
	mu       sync.Mutex
	appended []int64
	err      error
}

func (f *fakeAppender) Append(_ context.Context, t core.Transaction) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.appended = append(f.appended, t.ID)
	return "Transactions!A2:E2", nil
}

func newTestWorker(t *testing.T) (*MirrorWorker, *storage.SQLiteRepository, *fakeAppender) {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "conti.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	appender := &fakeAppender{}
	return NewMirrorWorker(repo, appender, 10), repo, appender
}

func insertTx(t *testing.T, repo *storage.SQLiteRepository, desc string) int64 {
	t.Helper()
	id, err := repo.Insert(context.Background(), core.Transaction{
		Date:        core.NewDate(2024, 3, 10),
		Description: desc,
		Amount:      core.Money{Cents: 500},
		Category:    "Food",
		Type:        core.Expense,
	})
	require.NoError(t, err)
	return id
}

func TestHandleEventMirrorsCreatedTransaction(t *testing.T) {
	w, repo, appender := newTestWorker(t)
	ctx := context.Background()

	id := insertTx(t, repo, "Coffee")

	err := w.HandleEvent(ctx, amqp.NewTransactionEvent(id, amqp.OpCreated))
	require.NoError(t, err)
	assert.Equal(t, []int64{id}, appender.appended)

	pending, err := repo.PendingMirror(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending, "mirrored rows must leave the pending set")
}

func TestHandleEventIgnoresDeletes(t *testing.T) {
	w, repo, appender := newTestWorker(t)
	ctx := context.Background()

	id := insertTx(t, repo, "Coffee")

	err := w.HandleEvent(ctx, amqp.NewTransactionEvent(id, amqp.OpDeleted))
	require.NoError(t, err)
	assert.Empty(t, appender.appended)
}

func TestHandleEventMissingTransaction(t *testing.T) {
	w, _, appender := newTestWorker(t)

	// Row deleted before the event arrived: not an error, nothing to requeue.
	err := w.HandleEvent(context.Background(), amqp.NewTransactionEvent(999, amqp.OpCreated))
	require.NoError(t, err)
	assert.Empty(t, appender.appended)
}

func TestProcessPending(t *testing.T) {
	w, repo, appender := newTestWorker(t)
	ctx := context.Background()

	id1 := insertTx(t, repo, "a")
	id2 := insertTx(t, repo, "b")

	require.NoError(t, w.ProcessPending(ctx))
	assert.Equal(t, []int64{id1, id2}, appender.appended)

	pending, err := repo.PendingMirror(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)

	// A second pass has nothing left to do.
	require.NoError(t, w.ProcessPending(ctx))
	assert.Len(t, appender.appended, 2)
}

func TestProcessPendingKeepsRowsOnAppendFailure(t *testing.T) {
	w, repo, appender := newTestWorker(t)
	ctx := context.Background()

	insertTx(t, repo, "a")
	appender.err = errors.New("sheet unavailable")

	require.NoError(t, w.ProcessPending(ctx), "per-row failures are logged, not returned")

	pending, err := repo.PendingMirror(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, pending, 1, "failed rows stay pending for the next pass")
}
