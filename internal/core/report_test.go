package core

import "testing"

func TestCategoryTotals(t *testing.T) {
	txs := []Transaction{
		tx(NewDate(2024, 1, 1), "Salary", 100000, "Pay", Income),
		tx(NewDate(2024, 1, 1), "Coffee", 500, "Food", Expense),
		tx(NewDate(2024, 1, 2), "Lunch", 1200, "Food", Expense),
		tx(NewDate(2024, 1, 3), "Refund", 300, "Food", Income),
	}

	totals := CategoryTotals(txs)
	if len(totals) != 2 {
		t.Fatalf("expected 2 categories, got %d", len(totals))
	}
	if got := totals["Pay"]; got.Income.Cents != 100000 || got.Expense.Cents != 0 {
		t.Fatalf("Pay totals wrong: %+v", got)
	}
	if got := totals["Food"]; got.Income.Cents != 300 || got.Expense.Cents != 1700 {
		t.Fatalf("Food totals wrong: %+v", got)
	}

	// Conservation: sum over categories equals sum over transactions.
	var byCat, byTx int64
	for _, ct := range totals {
		byCat += ct.Income.Cents + ct.Expense.Cents
	}
	for _, x := range txs {
		byTx += x.Amount.Cents
	}
	if byCat != byTx {
		t.Fatalf("category sums %d != transaction sums %d", byCat, byTx)
	}

	if got := CategoryTotals(nil); len(got) != 0 {
		t.Fatalf("empty input expected empty map, got %d entries", len(got))
	}
}

func TestTimeSeries(t *testing.T) {
	start, end := NewDate(2024, 1, 1), NewDate(2024, 1, 3)
	txs := []Transaction{
		tx(NewDate(2024, 1, 1), "Salary", 100000, "Pay", Income),
		tx(NewDate(2024, 1, 1), "Coffee", 500, "Food", Expense),
		tx(NewDate(2024, 1, 3), "Rent", 50000, "Housing", Expense),
	}

	days, labels := TimeSeries(start, end, txs)
	if len(days) != 3 || len(labels) != 3 {
		t.Fatalf("expected 3 points, got %d days %d labels", len(days), len(labels))
	}
	if labels[0] != "Jan 01" || labels[2] != "Jan 03" {
		t.Fatalf("unexpected labels: %v", labels)
	}
	if days[0].Income.Cents != 100000 || days[0].Expense.Cents != 500 || days[0].Net.Cents != 99500 {
		t.Fatalf("day 1 wrong: %+v", days[0])
	}
	if days[1].Income.Cents != 0 || days[1].Expense.Cents != 0 || days[1].Net.Cents != 0 {
		t.Fatalf("gap day should be all zero: %+v", days[1])
	}
	if days[2].Net.Cents != -50000 {
		t.Fatalf("day 3 net expected -50000, got %d", days[2].Net.Cents)
	}
}

func TestTimeSeriesFirstDaySurvivesGrowth(t *testing.T) {
	// A long range forces the day slice through several reallocations while
	// it is built; amounts bucketed into early days must land in the slice
	// that is returned, not in an abandoned backing array.
	start, end := NewDate(2024, 1, 1), NewDate(2024, 2, 19)
	txs := []Transaction{
		tx(start, "Salary", 100000, "Pay", Income),
		tx(start, "Coffee", 500, "Food", Expense),
		tx(NewDate(2024, 1, 3), "Rent", 50000, "Housing", Expense),
	}

	days, _ := TimeSeries(start, end, txs)
	if len(days) != 50 {
		t.Fatalf("expected 50 points, got %d", len(days))
	}
	if days[0].Net.Cents != 99500 {
		t.Fatalf("day 1 net expected 99500, got %d", days[0].Net.Cents)
	}
	if days[2].Net.Cents != -50000 {
		t.Fatalf("day 3 net expected -50000, got %d", days[2].Net.Cents)
	}

	var sum int64
	for _, d := range days {
		sum += d.Net.Cents
	}
	if sum != 49500 {
		t.Fatalf("series net sum expected 49500, got %d", sum)
	}
}

func TestTimeSeriesLength(t *testing.T) {
	// One point per calendar day across a month boundary.
	days, labels := TimeSeries(NewDate(2024, 1, 25), NewDate(2024, 2, 5), nil)
	if len(days) != 12 || len(labels) != 12 {
		t.Fatalf("expected 12 points, got %d", len(days))
	}
	for i := 1; i < len(days); i++ {
		if !days[i-1].Date.AddDays(1).Equal(days[i].Date.Time) {
			t.Fatalf("gap between %s and %s", days[i-1].Date, days[i].Date)
		}
	}

	// Single-day range.
	days, _ = TimeSeries(NewDate(2024, 3, 1), NewDate(2024, 3, 1), nil)
	if len(days) != 1 {
		t.Fatalf("expected 1 point, got %d", len(days))
	}
}

func TestBuildReport(t *testing.T) {
	txs := []Transaction{
		tx(NewDate(2024, 1, 1), "Salary", 100000, "Pay", Income),
		tx(NewDate(2024, 1, 1), "Coffee", 500, "Food", Expense),
		tx(NewDate(2024, 1, 3), "Rent", 50000, "Housing", Expense),
		tx(NewDate(2024, 2, 9), "Outside", 999, "Food", Expense),
	}

	r := BuildReport(txs, NewDate(2024, 1, 1), NewDate(2024, 1, 3))

	if r.TotalIncome.Cents != 100000 {
		t.Fatalf("total income expected 100000, got %d", r.TotalIncome.Cents)
	}
	if r.TotalExpense.Cents != 50500 {
		t.Fatalf("total expense expected 50500, got %d", r.TotalExpense.Cents)
	}
	if len(r.Transactions) != 3 {
		t.Fatalf("expected 3 filtered transactions, got %d", len(r.Transactions))
	}
	if len(r.NetFlow) != 3 || len(r.DayLabels) != 3 {
		t.Fatalf("series misaligned: %d net, %d labels", len(r.NetFlow), len(r.DayLabels))
	}
	if r.NetFlow[0].Cents != 99500 || r.NetFlow[1].Cents != 0 || r.NetFlow[2].Cents != -50000 {
		t.Fatalf("net flow wrong: %v", r.NetFlow)
	}

	want := map[string]CategoryTotal{
		"Pay":     {Income: Money{Cents: 100000}},
		"Food":    {Expense: Money{Cents: 500}},
		"Housing": {Expense: Money{Cents: 50000}},
	}
	if len(r.Categories) != len(want) {
		t.Fatalf("expected %d categories, got %d", len(want), len(r.Categories))
	}
	for name, ct := range want {
		if got := r.Categories[name]; got != ct {
			t.Fatalf("category %s expected %+v, got %+v", name, ct, got)
		}
	}

	// Range-local balance is consistent with the unfiltered fold restricted
	// to the same window.
	local := r.TotalIncome.Cents - r.TotalExpense.Cents
	if got := Balance(r.Transactions); got.Cents != local {
		t.Fatalf("range balance mismatch: %d vs %d", got.Cents, local)
	}
}

func TestBuildReportEmpty(t *testing.T) {
	r := BuildReport(nil, NewDate(2024, 1, 1), NewDate(2024, 1, 31))
	if r.TotalIncome.Cents != 0 || r.TotalExpense.Cents != 0 {
		t.Fatalf("empty report should have zero totals: %+v", r)
	}
	if len(r.Days) != 31 {
		t.Fatalf("expected 31 day points, got %d", len(r.Days))
	}
	if len(r.Categories) != 0 {
		t.Fatalf("expected no categories, got %d", len(r.Categories))
	}
}
