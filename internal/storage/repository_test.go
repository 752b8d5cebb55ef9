package storage

import (
	"context"
	"path/filepath"
	"testing"

	"conti/internal/core"
	"conti/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "conti.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestRunMigrationsIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "conti.db")
	require.NoError(t, RunMigrations(dbPath))
	// A second run finds nothing to apply and must not fail.
	require.NoError(t, RunMigrations(dbPath))
}

func sample(date core.Date, desc string, cents int64, cat string, typ core.TxType) core.Transaction {
	return core.Transaction{
		Date:        date,
		Description: desc,
		Amount:      core.Money{Cents: cents},
		Category:    cat,
		Type:        typ,
	}
}

func TestInsertGetDelete(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	id, err := repo.Insert(ctx, sample(core.NewDate(2024, 1, 1), "Salary", 100000, "Pay", core.Income))
	require.NoError(t, err)
	require.Positive(t, id)

	got, err := repo.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Salary", got.Description)
	assert.Equal(t, int64(100000), got.Amount.Cents)
	assert.Equal(t, core.Income, got.Type)
	assert.Equal(t, "2024-01-01", got.Date.String())
	assert.False(t, got.CreatedAt.IsZero())

	require.NoError(t, repo.Delete(ctx, id))
	_, err = repo.Get(ctx, id)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDeleteMissingID(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	id, err := repo.Insert(ctx, sample(core.NewDate(2024, 1, 1), "Salary", 100000, "Pay", core.Income))
	require.NoError(t, err)

	err = repo.Delete(ctx, id+100)
	assert.ErrorIs(t, err, store.ErrNotFound)

	// Other records are unaffected by the failed delete.
	all, err := repo.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestAllOrdering(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	// Inserted out of date order; same-date rows tie-break by insertion.
	_, err := repo.Insert(ctx, sample(core.NewDate(2024, 1, 5), "later", 100, "c", core.Expense))
	require.NoError(t, err)
	_, err = repo.Insert(ctx, sample(core.NewDate(2024, 1, 1), "first", 100, "c", core.Expense))
	require.NoError(t, err)
	_, err = repo.Insert(ctx, sample(core.NewDate(2024, 1, 5), "last", 100, "c", core.Expense))
	require.NoError(t, err)

	all, err := repo.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "first", all[0].Description)
	assert.Equal(t, "later", all[1].Description)
	assert.Equal(t, "last", all[2].Description)
}

func TestBatchInsertAtomicity(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	good := sample(core.NewDate(2024, 1, 1), "ok", 100, "c", core.Income)
	bad := sample(core.NewDate(2024, 1, 2), "bad", 0, "c", core.Expense)

	_, err := repo.BatchInsert(ctx, []core.Transaction{good, bad})
	require.Error(t, err)

	all, err := repo.All(ctx)
	require.NoError(t, err)
	assert.Empty(t, all, "failed batch must leave the store unchanged")

	ids, err := repo.BatchInsert(ctx, []core.Transaction{good, good, good})
	require.NoError(t, err)
	assert.Len(t, ids, 3)

	all, err = repo.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestGetCorruptCreatedAt(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	id, err := repo.Insert(ctx, sample(core.NewDate(2024, 1, 1), "Salary", 100000, "Pay", core.Income))
	require.NoError(t, err)

	_, err = repo.db.ExecContext(ctx, `UPDATE transactions SET created_at = 'garbage' WHERE id = ?`, id)
	require.NoError(t, err)

	// A row with an unreadable timestamp surfaces as an error instead of a
	// silently zeroed CreatedAt.
	_, err = repo.Get(ctx, id)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "created_at")
}

func TestPendingMirror(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	id1, err := repo.Insert(ctx, sample(core.NewDate(2024, 1, 1), "a", 100, "c", core.Income))
	require.NoError(t, err)
	id2, err := repo.Insert(ctx, sample(core.NewDate(2024, 1, 2), "b", 100, "c", core.Expense))
	require.NoError(t, err)

	pending, err := repo.PendingMirror(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, id1, pending[0].ID)

	require.NoError(t, repo.MarkMirrored(ctx, id1))

	pending, err = repo.PendingMirror(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, id2, pending[0].ID)
}
