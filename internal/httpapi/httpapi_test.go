package httpapi

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/jmheath/books/internal/ledger"
	"github.com/jmheath/books/internal/storage/memory"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func seedAccount(store *memory.Store, number int, name string, typ ledger.AccountType) ledger.Account {
	now := time.Now().UTC()
	a := ledger.Account{
		ID:            uuid.New(),
		Number:        number,
		Name:          name,
		Type:          typ,
		NormalBalance: ledger.NormalBalanceFor(typ),
		Currency:      "USD",
		Active:        true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	store.SeedAccount(a)
	return a
}

func setup(t *testing.T) (*memory.Store, http.Handler, ledger.Account, ledger.Account) {
	t.Helper()
	store := memory.New()
	cash := seedAccount(store, 1000, "Checking", ledger.AccountTypeAsset)
	income := seedAccount(store, 4000, "Consulting Revenue", ledger.AccountTypeRevenue)
	h := New(store, testLogger()).Handler()
	return store, h, cash, income
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
		t.Fatalf("decode: %v (%s)", err, rec.Body.String())
	}
}

type errResp struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func TestPostAccount(t *testing.T) {
	_, h, _, _ := setup(t)

	rec := do(t, h, http.MethodPost, "/v1/accounts", map[string]any{
		"number": 5000, "name": "Office Expenses", "type": "expense", "currency": "USD",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var acc accountResponse
	decode(t, rec, &acc)
	if acc.NormalBalance != ledger.SideDebit {
		t.Errorf("normal balance = %s, want debit", acc.NormalBalance)
	}

	// duplicate number conflicts
	rec = do(t, h, http.MethodPost, "/v1/accounts", map[string]any{
		"number": 5000, "name": "Other", "type": "expense",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}
	var er errResp
	decode(t, rec, &er)
	if er.Code != "duplicate_account_number" {
		t.Errorf("code = %q", er.Code)
	}
}

func TestDepositAndBalance(t *testing.T) {
	_, h, cash, income := setup(t)

	rec := do(t, h, http.MethodPost, "/v1/transactions/deposit", map[string]any{
		"bank_account_id":   cash.ID.String(),
		"income_account_id": income.ID.String(),
		"amount":            50000,
		"date":              "2025-03-15T00:00:00Z",
		"description":       "Client payment",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var e entryResponse
	decode(t, rec, &e)
	if e.Status != ledger.EntryStatusPosted || len(e.Lines) != 2 {
		t.Fatalf("unexpected entry: %+v", e)
	}

	rec = do(t, h, http.MethodGet, "/v1/accounts/"+cash.ID.String()+"/balance", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var bal balanceResponse
	decode(t, rec, &bal)
	if bal.Balance != 50000 {
		t.Errorf("balance = %d, want 50000", bal.Balance)
	}
	if bal.Amount != "USD 500.00" {
		t.Errorf("amount = %q, want \"USD 500.00\"", bal.Amount)
	}
}

func TestTransferSameAccountRejected(t *testing.T) {
	_, h, cash, _ := setup(t)

	rec := do(t, h, http.MethodPost, "/v1/transactions/transfer", map[string]any{
		"from_account_id": cash.ID.String(),
		"to_account_id":   cash.ID.String(),
		"amount":          100,
		"date":            "2025-03-15T00:00:00Z",
		"description":     "loop",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestEntryLifecycleOverHTTP(t *testing.T) {
	_, h, cash, income := setup(t)

	// create draft
	rec := do(t, h, http.MethodPost, "/v1/journal-entries", map[string]any{
		"date":        "2025-03-10T00:00:00Z",
		"description": "Invoice",
		"lines": []map[string]any{
			{"account_id": cash.ID.String(), "debit": 2500},
			{"account_id": income.ID.String(), "credit": 2500},
		},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var draft entryResponse
	decode(t, rec, &draft)
	if draft.Status != ledger.EntryStatusDraft {
		t.Fatalf("status = %s, want draft", draft.Status)
	}

	// post it
	rec = do(t, h, http.MethodPost, "/v1/journal-entries/"+draft.ID.String()+"/post", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	// void it
	rec = do(t, h, http.MethodPost, "/v1/journal-entries/"+draft.ID.String()+"/void", map[string]any{"reason": "mistake"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var reversal entryResponse
	decode(t, rec, &reversal)
	if reversal.Source != ledger.SourceVoidReversal {
		t.Errorf("reversal source = %s", reversal.Source)
	}
	if reversal.VoidedEntryID == nil || *reversal.VoidedEntryID != draft.ID {
		t.Errorf("reversal back-ref = %v", reversal.VoidedEntryID)
	}

	// voiding again conflicts
	rec = do(t, h, http.MethodPost, "/v1/journal-entries/"+draft.ID.String()+"/void", nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}

	// original is voided with reason
	rec = do(t, h, http.MethodGet, "/v1/journal-entries/"+draft.ID.String(), nil)
	var got entryResponse
	decode(t, rec, &got)
	if got.Status != ledger.EntryStatusVoided || got.VoidReason != "mistake" {
		t.Errorf("original after void: %+v", got)
	}
}

func TestVoidKeepsReasonFromChunkedBody(t *testing.T) {
	_, h, cash, income := setup(t)

	rec := do(t, h, http.MethodPost, "/v1/journal-entries", map[string]any{
		"date":        "2025-03-10T00:00:00Z",
		"description": "Invoice",
		"status":      "posted",
		"lines": []map[string]any{
			{"account_id": cash.ID.String(), "debit": 2500},
			{"account_id": income.ID.String(), "credit": 2500},
		},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var posted entryResponse
	decode(t, rec, &posted)

	// wrapping the reader hides the length, as a chunked request would
	body := io.NopCloser(bytes.NewReader([]byte(`{"reason":"mistake"}`)))
	req := httptest.NewRequest(http.MethodPost, "/v1/journal-entries/"+posted.ID.String()+"/void", body)
	req.Header.Set("Content-Type", "application/json")
	if req.ContentLength != -1 {
		t.Fatalf("content length = %d, want -1", req.ContentLength)
	}
	rec2 := httptest.NewRecorder()
	h.ServeHTTP(rec2, req)
	if rec2.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec2.Code, rec2.Body.String())
	}

	rec = do(t, h, http.MethodGet, "/v1/journal-entries/"+posted.ID.String(), nil)
	var got entryResponse
	decode(t, rec, &got)
	if got.VoidReason != "mistake" {
		t.Errorf("void reason = %q, want %q", got.VoidReason, "mistake")
	}
}

func TestPostUnbalancedEntryRejected(t *testing.T) {
	_, h, cash, income := setup(t)

	rec := do(t, h, http.MethodPost, "/v1/journal-entries", map[string]any{
		"date":        "2025-03-10T00:00:00Z",
		"description": "Off by one",
		"status":      "posted",
		"lines": []map[string]any{
			{"account_id": cash.ID.String(), "debit": 1500},
			{"account_id": income.ID.String(), "credit": 1400},
		},
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", rec.Code, rec.Body.String())
	}
	var er errResp
	decode(t, rec, &er)
	if er.Code != "unbalanced_entry" {
		t.Errorf("code = %q", er.Code)
	}
}

func TestReportsOverHTTP(t *testing.T) {
	_, h, cash, income := setup(t)

	rec := do(t, h, http.MethodPost, "/v1/transactions/deposit", map[string]any{
		"bank_account_id":   cash.ID.String(),
		"income_account_id": income.ID.String(),
		"amount":            70000,
		"date":              "2025-03-10T00:00:00Z",
		"description":       "Consulting",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("deposit: %d: %s", rec.Code, rec.Body.String())
	}

	from := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC).UnixMilli()
	to := time.Date(2025, time.March, 31, 0, 0, 0, 0, time.UTC).UnixMilli()

	rec = do(t, h, http.MethodGet, "/v1/reports/trial-balance?from="+strconv.FormatInt(from, 10)+"&to="+strconv.FormatInt(to, 10), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("trial balance: %d: %s", rec.Code, rec.Body.String())
	}
	var tb struct {
		TotalDebit  int64 `json:"total_debit"`
		TotalCredit int64 `json:"total_credit"`
	}
	decode(t, rec, &tb)
	if tb.TotalDebit != 70000 || tb.TotalCredit != 70000 {
		t.Errorf("trial balance totals = %d/%d", tb.TotalDebit, tb.TotalCredit)
	}

	rec = do(t, h, http.MethodGet, "/v1/reports/balance-sheet", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("balance sheet: %d: %s", rec.Code, rec.Body.String())
	}
	var bs struct {
		TotalAssets int64 `json:"total_assets"`
		NetIncome   int64 `json:"net_income"`
	}
	decode(t, rec, &bs)
	if bs.TotalAssets != 70000 || bs.NetIncome != 70000 {
		t.Errorf("balance sheet = %+v", bs)
	}

	rec = do(t, h, http.MethodGet, "/v1/reports/profit-loss?from="+strconv.FormatInt(from, 10), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("profit loss: %d: %s", rec.Code, rec.Body.String())
	}

	// bad millis params are rejected
	rec = do(t, h, http.MethodGet, "/v1/reports/trial-balance?from=2025-03-01", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestRecurringRulesOverHTTP(t *testing.T) {
	_, h, cash, income := setup(t)

	rec := do(t, h, http.MethodPost, "/v1/recurring-rules", map[string]any{
		"name":       "Monthly retainer",
		"frequency":  "monthly",
		"start_date": "2025-01-31T00:00:00Z",
		"auto_post":  true,
		"lines": []map[string]any{
			{"account_id": cash.ID.String(), "debit": 100000},
			{"account_id": income.ID.String(), "credit": 100000},
		},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create rule: %d: %s", rec.Code, rec.Body.String())
	}
	var rule ruleResponse
	decode(t, rec, &rule)

	rec = do(t, h, http.MethodPost, "/v1/recurring-rules/"+rule.ID.String()+"/generate", nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("generate: %d: %s", rec.Code, rec.Body.String())
	}
	var e entryResponse
	decode(t, rec, &e)
	if e.Source != ledger.SourceRecurring || e.Status != ledger.EntryStatusPosted {
		t.Errorf("generated entry: %+v", e)
	}

	rec = do(t, h, http.MethodGet, "/v1/recurring-rules/"+rule.ID.String(), nil)
	decode(t, rec, &rule)
	if rule.NextOccurrence.Month() != time.February || rule.NextOccurrence.Day() != 28 {
		t.Errorf("next occurrence = %s, want Feb 28", rule.NextOccurrence.Format("2006-01-02"))
	}

	rec = do(t, h, http.MethodDelete, "/v1/recurring-rules/"+rule.ID.String(), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("cancel: %d: %s", rec.Code, rec.Body.String())
	}
	rec = do(t, h, http.MethodPost, "/v1/recurring-rules/"+rule.ID.String()+"/generate", nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("generate after cancel: %d, want 409", rec.Code)
	}
}

func TestReconciliationOverHTTP(t *testing.T) {
	_, h, cash, income := setup(t)

	rec := do(t, h, http.MethodPost, "/v1/transactions/deposit", map[string]any{
		"bank_account_id":   cash.ID.String(),
		"income_account_id": income.ID.String(),
		"amount":            50000,
		"date":              "2025-03-05T00:00:00Z",
		"description":       "Deposit",
	})
	var e entryResponse
	decode(t, rec, &e)
	var bankLine uuid.UUID
	for _, ln := range e.Lines {
		if ln.AccountID == cash.ID {
			bankLine = ln.ID
		}
	}

	rec = do(t, h, http.MethodPost, "/v1/reconciliations", map[string]any{
		"bank_account_id":   cash.ID.String(),
		"statement_date":    "2025-03-31T00:00:00Z",
		"statement_balance": 50000,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("start: %d: %s", rec.Code, rec.Body.String())
	}
	var rc reconciliationResponse
	decode(t, rec, &rc)

	rec = do(t, h, http.MethodPost, "/v1/reconciliations/"+rc.ID.String()+"/lines/"+bankLine.String(), map[string]any{"reconciled": true})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("set line: %d: %s", rec.Code, rec.Body.String())
	}

	rec = do(t, h, http.MethodPost, "/v1/reconciliations/"+rc.ID.String()+"/complete", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("complete: %d: %s", rec.Code, rec.Body.String())
	}
	decode(t, rec, &rc)
	if rc.Status != ledger.ReconciliationCompleted || rc.ReconciledBalance != 50000 {
		t.Errorf("completed reconciliation: %+v", rc)
	}

	// completed reconciliations reject further line changes
	rec = do(t, h, http.MethodPost, "/v1/reconciliations/"+rc.ID.String()+"/lines/"+bankLine.String(), map[string]any{"reconciled": false})
	if rec.Code != http.StatusConflict {
		t.Fatalf("set line after complete: %d, want 409", rec.Code)
	}
}

func TestBudgetsOverHTTP(t *testing.T) {
	_, h, _, income := setup(t)

	rec := do(t, h, http.MethodPost, "/v1/budgets", map[string]any{
		"account_id":   income.ID.String(),
		"period_type":  "monthly",
		"period_start": "2025-03-01T00:00:00Z",
		"period_end":   "2025-03-31T00:00:00Z",
		"amount":       100000,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create budget: %d: %s", rec.Code, rec.Body.String())
	}
	var b budgetResponse
	decode(t, rec, &b)

	rec = do(t, h, http.MethodGet, "/v1/reports/budget-vs-actual?year=2025&period_type=monthly", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("budget vs actual: %d: %s", rec.Code, rec.Body.String())
	}
	var rows []struct {
		BudgetID    uuid.UUID `json:"budget_id"`
		Budgeted    int64     `json:"budgeted"`
		PercentUsed float64   `json:"percent_used"`
	}
	decode(t, rec, &rows)
	if len(rows) != 1 || rows[0].BudgetID != b.ID || rows[0].Budgeted != 100000 {
		t.Fatalf("rows = %+v", rows)
	}

	rec = do(t, h, http.MethodDelete, "/v1/budgets/"+b.ID.String(), nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete budget: %d: %s", rec.Code, rec.Body.String())
	}
	rec = do(t, h, http.MethodDelete, "/v1/budgets/"+b.ID.String(), nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("second delete: %d, want 404", rec.Code)
	}
}

func TestHealthEndpoints(t *testing.T) {
	_, h, _, _ := setup(t)

	rec := do(t, h, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz: %d", rec.Code)
	}
	rec = do(t, h, http.MethodGet, "/readyz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("readyz: %d", rec.Code)
	}
}
