package core

import (
	"testing"
	"time"
)

func tx(date Date, desc string, cents int64, cat string, typ TxType) Transaction {
	return Transaction{Date: date, Description: desc, Amount: Money{Cents: cents}, Category: cat, Type: typ}
}

func TestBalance(t *testing.T) {
	if got := Balance(nil); got.Cents != 0 {
		t.Fatalf("empty set expected 0, got %d", got.Cents)
	}

	txs := []Transaction{
		tx(NewDate(2024, 1, 1), "Salary", 100000, "Pay", Income),
		tx(NewDate(2024, 1, 1), "Coffee", 500, "Food", Expense),
		tx(NewDate(2024, 1, 3), "Rent", 50000, "Housing", Expense),
	}
	if got := Balance(txs); got.Cents != 49500 {
		t.Fatalf("expected 49500, got %d", got.Cents)
	}

	// Expense-only ledgers go negative.
	if got := Balance(txs[1:]); got.Cents != -50500 {
		t.Fatalf("expected -50500, got %d", got.Cents)
	}
}

func TestDefaultRange(t *testing.T) {
	now := time.Date(2024, 2, 15, 13, 45, 12, 0, time.UTC)
	start, end := DefaultRange(now)
	if end.String() != "2024-02-15" {
		t.Fatalf("end expected 2024-02-15, got %s", end)
	}
	if start.String() != "2024-01-16" {
		t.Fatalf("start expected 2024-01-16, got %s", start)
	}
}

func TestFilterRange(t *testing.T) {
	txs := []Transaction{
		tx(NewDate(2024, 1, 5), "e", 100, "c", Expense),
		tx(NewDate(2024, 1, 1), "a", 100, "c", Income),
		tx(NewDate(2024, 1, 1), "b", 100, "c", Expense),
		tx(NewDate(2024, 2, 1), "out", 100, "c", Income),
		tx(NewDate(2023, 12, 31), "out", 100, "c", Income),
	}

	got := FilterRange(txs, NewDate(2024, 1, 1), NewDate(2024, 1, 31))
	if len(got) != 3 {
		t.Fatalf("expected 3 transactions, got %d", len(got))
	}
	// Ascending by date, same-date order preserved from input.
	if got[0].Description != "a" || got[1].Description != "b" || got[2].Description != "e" {
		t.Fatalf("unexpected order: %s %s %s", got[0].Description, got[1].Description, got[2].Description)
	}

	// Bounds are inclusive on both ends.
	got = FilterRange(txs, NewDate(2024, 1, 5), NewDate(2024, 1, 5))
	if len(got) != 1 || got[0].Description != "e" {
		t.Fatalf("expected single boundary match, got %d", len(got))
	}

	// No matches is an empty slice, not an error.
	got = FilterRange(txs, NewDate(2025, 1, 1), NewDate(2025, 1, 31))
	if len(got) != 0 {
		t.Fatalf("expected empty, got %d", len(got))
	}
}
