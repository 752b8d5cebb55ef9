package http

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"conti/internal/core"
	"conti/internal/csvio"
	applog "conti/internal/log"
	"conti/internal/store"
)

type transactionJSON struct {
	ID          int64  `json:"id"`
	Date        string `json:"date"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
	AmountCents int64  `json:"amount_cents"`
	Category    string `json:"category"`
	Type        string `json:"type"`
	CreatedAt   string `json:"created_at,omitempty"`
}

type createTransactionRequest struct {
	Date        string `json:"date"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
	Category    string `json:"category"`
	Type        string `json:"type"`
}

type categoryTotalJSON struct {
	IncomeCents  int64  `json:"income_cents"`
	ExpenseCents int64  `json:"expense_cents"`
	Income       string `json:"income"`
	Expense      string `json:"expense"`
}

type dayPointJSON struct {
	Date         string `json:"date"`
	IncomeCents  int64  `json:"income_cents"`
	ExpenseCents int64  `json:"expense_cents"`
	NetCents     int64  `json:"net_cents"`
}

type reportJSON struct {
	Start             string                       `json:"start"`
	End               string                       `json:"end"`
	TotalIncomeCents  int64                        `json:"total_income_cents"`
	TotalExpenseCents int64                        `json:"total_expense_cents"`
	TotalIncome       string                       `json:"total_income"`
	TotalExpense      string                       `json:"total_expense"`
	Categories        map[string]categoryTotalJSON `json:"categories"`
	Days              []dayPointJSON               `json:"days"`
	DayLabels         []string                     `json:"day_labels"`
	NetFlowCents      []int64                      `json:"net_flow_cents"`
	Transactions      []transactionJSON            `json:"transactions"`
}

func toTransactionJSON(t core.Transaction) transactionJSON {
	out := transactionJSON{
		ID:          t.ID,
		Date:        t.Date.String(),
		Description: t.Description,
		Amount:      core.FormatCents(t.Amount.Cents),
		AmountCents: t.Amount.Cents,
		Category:    t.Category,
		Type:        string(t.Type),
	}
	if !t.CreatedAt.IsZero() {
		out.CreatedAt = t.CreatedAt.Format(time.RFC3339)
	}
	return out
}

func toReportJSON(rep core.Report) reportJSON {
	out := reportJSON{
		Start:             rep.Start.String(),
		End:               rep.End.String(),
		TotalIncomeCents:  rep.TotalIncome.Cents,
		TotalExpenseCents: rep.TotalExpense.Cents,
		TotalIncome:       core.FormatCents(rep.TotalIncome.Cents),
		TotalExpense:      core.FormatCents(rep.TotalExpense.Cents),
		Categories:        make(map[string]categoryTotalJSON, len(rep.Categories)),
		Days:              make([]dayPointJSON, 0, len(rep.Days)),
		DayLabels:         rep.DayLabels,
		NetFlowCents:      make([]int64, 0, len(rep.NetFlow)),
		Transactions:      make([]transactionJSON, 0, len(rep.Transactions)),
	}
	for name, ct := range rep.Categories {
		out.Categories[name] = categoryTotalJSON{
			IncomeCents:  ct.Income.Cents,
			ExpenseCents: ct.Expense.Cents,
			Income:       core.FormatCents(ct.Income.Cents),
			Expense:      core.FormatCents(ct.Expense.Cents),
		}
	}
	for _, d := range rep.Days {
		out.Days = append(out.Days, dayPointJSON{
			Date:         d.Date.String(),
			IncomeCents:  d.Income.Cents,
			ExpenseCents: d.Expense.Cents,
			NetCents:     d.Net.Cents,
		})
	}
	for _, m := range rep.NetFlow {
		out.NetFlowCents = append(out.NetFlowCents, m.Cents)
	}
	for _, t := range rep.Transactions {
		out.Transactions = append(out.Transactions, toTransactionJSON(t))
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := s.store.All(r.Context())
	if err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "List transactions failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list transactions")
		return
	}

	out := make([]transactionJSON, 0, len(txs))
	for _, t := range txs {
		out = append(out, toTransactionJSON(t))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"transactions": out,
		"count":        len(out),
	})
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	txs, err := s.store.All(r.Context())
	if err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Balance read failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to compute balance")
		return
	}

	balance := core.Balance(txs)
	writeJSON(w, http.StatusOK, map[string]any{
		"balance_cents": balance.Cents,
		"balance":       core.FormatCents(balance.Cents),
	})
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	t, err := transactionFromRequest(req)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	id, err := s.service.Create(r.Context(), t)
	if err != nil {
		if isValidationError(err) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Create transaction failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save transaction")
		return
	}

	s.purgeReportCache()

	t.ID = id
	writeJSON(w, http.StatusCreated, toTransactionJSON(t))
}

func transactionFromRequest(req createTransactionRequest) (core.Transaction, error) {
	date, err := core.ParseDate(strings.TrimSpace(req.Date))
	if err != nil {
		return core.Transaction{}, core.ErrInvalidDate
	}

	cents, err := core.ParseDecimalToCents(strings.TrimSpace(req.Amount))
	if err != nil {
		return core.Transaction{}, core.ErrInvalidAmount
	}

	typ, err := core.NormalizeType(req.Type)
	if err != nil {
		return core.Transaction{}, err
	}

	t := core.Transaction{
		Date:        date,
		Description: strings.TrimSpace(req.Description),
		Amount:      core.Money{Cents: cents},
		Category:    strings.TrimSpace(req.Category),
		Type:        typ,
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	return t, nil
}

func isValidationError(err error) bool {
	return errors.Is(err, core.ErrInvalidDate) ||
		errors.Is(err, core.ErrInvalidAmount) ||
		errors.Is(err, core.ErrInvalidType) ||
		errors.Is(err, core.ErrEmptyDescription) ||
		errors.Is(err, core.ErrEmptyCategory)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id < 1 {
		writeError(w, http.StatusBadRequest, "invalid transaction id")
		return
	}

	if err := s.service.Delete(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "transaction not found")
			return
		}
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Delete transaction failed", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete transaction")
		return
	}

	s.purgeReportCache()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	start, end, err := s.reportRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	key := start.String() + ".." + end.String()
	if rep, found := s.reportCache.Get(key); found {
		writeJSON(w, http.StatusOK, toReportJSON(rep))
		return
	}

	txs, err := s.store.All(r.Context())
	if err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Report read failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to build report")
		return
	}

	rep := core.BuildReport(txs, start, end)
	s.reportCache.Set(key, rep)
	writeJSON(w, http.StatusOK, toReportJSON(rep))
}

// reportRange resolves the requested window. Both bounds are optional and
// inclusive; omitting both yields the default trailing window.
func (s *Server) reportRange(r *http.Request) (core.Date, core.Date, error) {
	start, end := core.DefaultRange(s.now())

	if v := strings.TrimSpace(r.URL.Query().Get("start")); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return core.Date{}, core.Date{}, errors.New("invalid start date, expected YYYY-MM-DD")
		}
		start = d
	}
	if v := strings.TrimSpace(r.URL.Query().Get("end")); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return core.Date{}, core.Date{}, errors.New("invalid end date, expected YYYY-MM-DD")
		}
		end = d
	}
	if end.Before(start) {
		return core.Date{}, core.Date{}, errors.New("start date must not be after end date")
	}
	return start, end, nil
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	txs, err := s.store.All(r.Context())
	if err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Export read failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to export transactions")
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="transactions.csv"`)
	if err := csvio.Export(w, txs); err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Export write failed", "error", err)
	}
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	body, err := importBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	defer body.Close()

	txs, err := csvio.Import(body)
	if err != nil {
		var schemaErr *csvio.SchemaError
		var rowErr *csvio.RowError
		if errors.As(err, &schemaErr) || errors.As(err, &rowErr) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		writeError(w, http.StatusBadRequest, "failed to parse csv")
		return
	}

	ids, err := s.service.Import(r.Context(), txs)
	if err != nil {
		if isValidationError(err) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Import commit failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to import transactions")
		return
	}

	s.purgeReportCache()
	writeJSON(w, http.StatusCreated, map[string]any{
		"imported": len(ids),
		"ids":      ids,
	})
}

// importBody accepts either a multipart upload under the "file" field or a
// raw CSV request body.
func importBody(r *http.Request) (io.ReadCloser, error) {
	ct := r.Header.Get("Content-Type")
	mediaType, _, err := mime.ParseMediaType(ct)
	if err == nil && strings.HasPrefix(mediaType, "multipart/") {
		file, _, err := r.FormFile("file")
		if err != nil {
			return nil, errors.New("missing file upload field 'file'")
		}
		return file, nil
	}
	return r.Body, nil
}
