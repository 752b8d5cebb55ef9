package core

// dayLabelLayout is the short axis label format for charts ("Jan 02").
const dayLabelLayout = "Jan 02"

type (
	// CategoryTotal carries per-category income and expense sums. A category
	// with entries of only one type keeps the other total at zero.
	CategoryTotal struct {
		Income  Money
		Expense Money
	}

	// DayPoint is one calendar day of the report time series. Net is signed:
	// income minus expense for that day.
	DayPoint struct {
		Date    Date
		Income  Money
		Expense Money
		Net     Money
	}

	// Report is the assembled 30-day summary handed to the presentation
	// layer. DayLabels and NetFlow are aligned index-for-index.
	Report struct {
		Start        Date
		End          Date
		TotalIncome  Money
		TotalExpense Money
		Categories   map[string]CategoryTotal
		Days         []DayPoint
		DayLabels    []string
		NetFlow      []Money
		Transactions []Transaction
	}
)

// CategoryTotals groups a range-filtered set by category label, summing
// income and expense separately. Labels are case-sensitive. The returned map
// has exactly one entry per label seen in the input; iteration order is
// unspecified, consumers sort for display.
func CategoryTotals(txs []Transaction) map[string]CategoryTotal {
	totals := make(map[string]CategoryTotal, len(txs))
	for _, t := range txs {
		ct := totals[t.Category]
		if t.Type == Income {
			ct.Income.Cents += t.Amount.Cents
		} else {
			ct.Expense.Cents += t.Amount.Cents
		}
		totals[t.Category] = ct
	}
	return totals
}

// TimeSeries produces one DayPoint per calendar day in [start, end], in
// ascending order with no gaps. Days without transactions yield zero points.
// The parallel label slice is aligned index-for-index with the points.
func TimeSeries(start, end Date, txs []Transaction) ([]DayPoint, []string) {
	// Index map rather than pointers: appends may reallocate the backing
	// array while the range is still being laid out.
	byDay := make(map[string]int)
	days := make([]DayPoint, 0)
	labels := make([]string, 0)
	for d := start; !d.After(end); d = d.AddDays(1) {
		byDay[d.String()] = len(days)
		days = append(days, DayPoint{Date: d})
		labels = append(labels, d.Format(dayLabelLayout))
	}
	for _, t := range txs {
		i, ok := byDay[t.Date.String()]
		if !ok {
			// Caller passed a transaction outside the range; skip it rather
			// than fragment the series.
			continue
		}
		p := &days[i]
		if t.Type == Income {
			p.Income.Cents += t.Amount.Cents
			p.Net.Cents += t.Amount.Cents
		} else {
			p.Expense.Cents += t.Amount.Cents
			p.Net.Cents -= t.Amount.Cents
		}
	}
	return days, labels
}

// BuildReport assembles the range report from a full transaction snapshot.
// The set is filtered exactly once and every figure in the report derives
// from that one filtered slice, so totals, category sums, and the time
// series cannot disagree.
func BuildReport(txs []Transaction, start, end Date) Report {
	filtered := FilterRange(txs, start, end)

	var income, expense int64
	for _, t := range filtered {
		if t.Type == Income {
			income += t.Amount.Cents
		} else {
			expense += t.Amount.Cents
		}
	}

	days, labels := TimeSeries(start, end, filtered)
	netFlow := make([]Money, len(days))
	for i, d := range days {
		netFlow[i] = d.Net
	}

	return Report{
		Start:        start,
		End:          end,
		TotalIncome:  Money{Cents: income},
		TotalExpense: Money{Cents: expense},
		Categories:   CategoryTotals(filtered),
		Days:         days,
		DayLabels:    labels,
		NetFlow:      netFlow,
		Transactions: filtered,
	}
}
