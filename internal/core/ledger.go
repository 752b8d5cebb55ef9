package core

import (
	"sort"
	"time"
)

// DefaultRangeDays is the report window used when no explicit range is
// requested.
const DefaultRangeDays = 30

// Balance folds a transaction set into a single signed balance in cents:
// income adds, expense subtracts. An empty set yields zero. The fold is
// exact integer arithmetic; no floating point is involved.
func Balance(txs []Transaction) Money {
	var cents int64
	for _, t := range txs {
		if t.Type == Income {
			cents += t.Amount.Cents
		} else {
			cents -= t.Amount.Cents
		}
	}
	return Money{Cents: cents}
}

// DefaultRange resolves the implicit report window: end is the calendar date
// of now, start is 30 days earlier. Both bounds are inclusive.
func DefaultRange(now time.Time) (start, end Date) {
	end = DateOf(now)
	start = end.AddDays(-DefaultRangeDays)
	return start, end
}

// FilterRange returns the subsequence of txs whose date falls in
// [start, end], sorted ascending by date. Same-date records keep their input
// order, so a store that returns insertion order gives a stable tie-break.
// An empty result is a valid outcome, not an error.
func FilterRange(txs []Transaction, start, end Date) []Transaction {
	out := make([]Transaction, 0, len(txs))
	for _, t := range txs {
		if t.Date.Before(start) || t.Date.After(end) {
			continue
		}
		out = append(out, t)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out
}
