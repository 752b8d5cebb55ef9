// Package store defines the transaction store port the ledger core depends
// on. Implementations: storage (SQLite) and store/memory.
package store

import (
	"context"
	"errors"

	"conti/internal/core"
)

// ErrNotFound is returned by Delete and Get for an id that does not exist.
var ErrNotFound = errors.New("transaction not found")

// TransactionStore is the single-writer persistence collaborator. All reads
// return snapshots ordered ascending by date with insertion-order ties, the
// order the aggregation engine assumes.
type TransactionStore interface {
	// Insert persists a validated transaction and returns its assigned id.
	Insert(ctx context.Context, t core.Transaction) (int64, error)

	// Get returns a single transaction by id.
	Get(ctx context.Context, id int64) (core.Transaction, error)

	// Delete removes a transaction by id. Deleting a missing id returns
	// ErrNotFound and leaves the store untouched.
	Delete(ctx context.Context, id int64) error

	// All returns every transaction, ordered by date then insertion.
	All(ctx context.Context) ([]core.Transaction, error)

	// BatchInsert persists the whole batch atomically: either every
	// transaction commits or none do.
	BatchInsert(ctx context.Context, txs []core.Transaction) ([]int64, error)
}
