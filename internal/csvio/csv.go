// Package csvio maps transactions to and from the five-column tabular
// interchange format: Date, Description, Amount, Category, Type.
package csvio

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"conti/internal/core"

	"github.com/shopspring/decimal"
)

// Columns is the required header set, in export order. Header names are
// case-sensitive; import accepts them in any order.
var Columns = []string{"Date", "Description", "Amount", "Category", "Type"}

// SchemaError reports required columns missing from an import document.
// It aborts the import before any row is parsed.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("missing required columns: %s", strings.Join(e.Missing, ", "))
}

// RowError reports a single row that failed field validation. Per the
// all-or-nothing import contract it fails the whole batch.
type RowError struct {
	Row int // 1-based line number, header is row 1
	Err error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Row, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// Export writes the transaction set as a CSV document with the fixed header.
// Dates render as plain calendar dates, amounts as two-decimal strings.
func Export(w io.Writer, txs []core.Transaction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, t := range txs {
		row := []string{
			t.Date.String(),
			t.Description,
			core.FormatCents(t.Amount.Cents),
			t.Category,
			string(t.Type),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// Import parses a CSV document into transactions. The header must contain
// all five required columns (case-sensitive, any order); extra columns are
// ignored. The first invalid row fails the whole import so the caller never
// commits a partial batch.
func Import(r io.Reader) ([]core.Transaction, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) == 0 {
		return nil, &SchemaError{Missing: Columns}
	}

	index, schemaErr := columnIndex(records[0])
	if schemaErr != nil {
		return nil, schemaErr
	}

	txs := make([]core.Transaction, 0, len(records)-1)
	for i, record := range records[1:] {
		rowNum := i + 2
		t, err := parseRow(record, index)
		if err != nil {
			return nil, &RowError{Row: rowNum, Err: err}
		}
		txs = append(txs, t)
	}
	return txs, nil
}

// columnIndex maps each required column name to its position in the header.
func columnIndex(header []string) (map[string]int, error) {
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.TrimSpace(h)] = i
	}
	var missing []string
	for _, col := range Columns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &SchemaError{Missing: missing}
	}
	return index, nil
}

func parseRow(record []string, index map[string]int) (core.Transaction, error) {
	field := func(name string) string {
		i := index[name]
		if i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	date, err := core.ParseDate(field("Date"))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("invalid Date %q: %w", field("Date"), err)
	}

	cents, err := parseAmount(field("Amount"))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("invalid Amount %q: %w", field("Amount"), err)
	}

	typ, err := core.NormalizeType(field("Type"))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("invalid Type %q: %w", field("Type"), err)
	}

	t := core.Transaction{
		Date:        date,
		Description: field("Description"),
		Amount:      core.Money{Cents: cents},
		Category:    field("Category"),
		Type:        typ,
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	return t, nil
}

// parseAmount converts a decimal amount string to positive cents, rounding
// half-up on the third fractional digit.
func parseAmount(s string) (int64, error) {
	if s == "" {
		return 0, core.ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, core.ErrInvalidAmount
	}
	cents := d.Shift(2).Round(0).IntPart()
	if cents <= 0 {
		return 0, core.ErrInvalidAmount
	}
	return cents, nil
}
