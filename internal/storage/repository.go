package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"conti/internal/core"
	"conti/internal/store"

	_ "modernc.org/sqlite"
)

// SQLiteRepository is the durable TransactionStore backed by a local SQLite
// file. A single process owns all writes.
type SQLiteRepository struct {
	db *sql.DB
}

var _ store.TransactionStore = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Insert implements store.TransactionStore.
func (r *SQLiteRepository) Insert(ctx context.Context, t core.Transaction) (int64, error) {
	if err := t.Validate(); err != nil {
		return 0, err
	}
	createdAt := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (date, description, amount_cents, category, type, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		t.Date.String(), t.Description, t.Amount.Cents, t.Category, string(t.Type),
		createdAt.Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("insert transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		"id", id,
		"date", t.Date.String(),
		"description", t.Description,
		"amount_cents", t.Amount.Cents,
		"type", t.Type)

	return id, nil
}

// Get implements store.TransactionStore.
func (r *SQLiteRepository) Get(ctx context.Context, id int64) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, date, description, amount_cents, category, type, created_at
		 FROM transactions WHERE id = ?`, id)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, store.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction %d: %w", id, err)
	}
	return t, nil
}

// Delete implements store.TransactionStore. A missing id is reported as
// store.ErrNotFound, never as a silent no-op.
func (r *SQLiteRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete transaction %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return store.ErrNotFound
	}

	slog.InfoContext(ctx, "Transaction deleted", "id", id)
	return nil
}

// All implements store.TransactionStore. Ordering by (date, id) gives the
// ascending-by-date, insertion-order-tie sequence the aggregation engine
// requires.
func (r *SQLiteRepository) All(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, date, description, amount_cents, category, type, created_at
		 FROM transactions ORDER BY date, id`)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

// BatchInsert implements store.TransactionStore. The whole batch runs inside
// one SQL transaction; any failure rolls everything back so concurrent
// readers never observe a partial import.
func (r *SQLiteRepository) BatchInsert(ctx context.Context, txs []core.Transaction) ([]int64, error) {
	for _, t := range txs {
		if err := t.Validate(); err != nil {
			return nil, err
		}
	}

	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin batch: %w", err)
	}
	defer dbTx.Rollback()

	stmt, err := dbTx.PrepareContext(ctx,
		`INSERT INTO transactions (date, description, amount_cents, category, type, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("prepare batch insert: %w", err)
	}
	defer stmt.Close()

	createdAt := time.Now().UTC().Format(time.RFC3339)
	ids := make([]int64, 0, len(txs))
	for _, t := range txs {
		res, err := stmt.ExecContext(ctx,
			t.Date.String(), t.Description, t.Amount.Cents, t.Category, string(t.Type), createdAt)
		if err != nil {
			return nil, fmt.Errorf("batch insert row: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("batch last insert id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := dbTx.Commit(); err != nil {
		return nil, fmt.Errorf("commit batch: %w", err)
	}

	slog.InfoContext(ctx, "Batch import committed", "count", len(ids))
	return ids, nil
}

// PendingMirror returns transactions not yet mirrored to the spreadsheet,
// oldest first. Backup path for lost broker messages.
func (r *SQLiteRepository) PendingMirror(ctx context.Context, limit int) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, date, description, amount_cents, category, type, created_at
		 FROM transactions WHERE mirrored_at IS NULL ORDER BY id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending mirror: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan pending: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// MarkMirrored records that a transaction reached the spreadsheet mirror.
func (r *SQLiteRepository) MarkMirrored(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET mirrored_at = ? WHERE id = ?`,
		time.Now().UTC().Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("mark mirrored: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		t         core.Transaction
		dateStr   string
		typeStr   string
		createdAt string
	)
	if err := row.Scan(&t.ID, &dateStr, &t.Description, &t.Amount.Cents, &t.Category, &typeStr, &createdAt); err != nil {
		return core.Transaction{}, err
	}
	date, err := core.ParseDate(dateStr)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse stored date %q: %w", dateStr, err)
	}
	t.Date = date
	t.Type = core.TxType(typeStr)
	ts, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse stored created_at %q: %w", createdAt, err)
	}
	t.CreatedAt = ts
	return t, nil
}
