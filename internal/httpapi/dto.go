package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/govalues/money"

	"github.com/jmheath/books/internal/ledger"
)

// Accounts

type postAccountRequest struct {
	Number        int                `json:"number"`
	Name          string             `json:"name"`
	Type          ledger.AccountType `json:"type"`
	Subtype       string             `json:"subtype,omitempty"`
	ParentID      *uuid.UUID         `json:"parent_id,omitempty"`
	NormalBalance ledger.Side        `json:"normal_balance,omitempty"`
	Currency      string             `json:"currency,omitempty"`
	System        bool               `json:"system,omitempty"`
}

type patchAccountRequest struct {
	Number   *int                `json:"number,omitempty"`
	Name     *string             `json:"name,omitempty"`
	Type     *ledger.AccountType `json:"type,omitempty"`
	Subtype  *string             `json:"subtype,omitempty"`
	ParentID *uuid.UUID          `json:"parent_id,omitempty"`
}

type accountResponse struct {
	ID            uuid.UUID          `json:"id"`
	Number        int                `json:"number"`
	Name          string             `json:"name"`
	Type          ledger.AccountType `json:"type"`
	Subtype       string             `json:"subtype,omitempty"`
	ParentID      *uuid.UUID         `json:"parent_id,omitempty"`
	NormalBalance ledger.Side        `json:"normal_balance"`
	Currency      string             `json:"currency"`
	System        bool               `json:"system"`
	Active        bool               `json:"active"`
}

func toAccountResponse(a ledger.Account) accountResponse {
	return accountResponse{
		ID:            a.ID,
		Number:        a.Number,
		Name:          a.Name,
		Type:          a.Type,
		Subtype:       a.Subtype,
		ParentID:      a.ParentID,
		NormalBalance: a.NormalBalance,
		Currency:      a.Currency,
		System:        a.System,
		Active:        a.Active,
	}
}

type balanceResponse struct {
	AccountID uuid.UUID  `json:"account_id"`
	AsOf      *time.Time `json:"as_of,omitempty"`
	Currency  string     `json:"currency"`
	Balance   int64      `json:"balance"`
	Amount    string     `json:"amount"`
}

// Journal entries

type postEntryLine struct {
	AccountID uuid.UUID `json:"account_id"`
	Debit     int64     `json:"debit,omitempty"`
	Credit    int64     `json:"credit,omitempty"`
	Memo      string    `json:"memo,omitempty"`
}

type postEntryRequest struct {
	Date        time.Time          `json:"date"`
	Description string             `json:"description"`
	Memo        string             `json:"memo,omitempty"`
	Reference   string             `json:"reference,omitempty"`
	Status      ledger.EntryStatus `json:"status,omitempty"`
	CreatedBy   string             `json:"created_by,omitempty"`
	Lines       []postEntryLine    `json:"lines"`
}

type voidEntryRequest struct {
	Reason string `json:"reason,omitempty"`
}

type lineResponse struct {
	ID           uuid.UUID  `json:"id"`
	AccountID    uuid.UUID  `json:"account_id"`
	Debit        int64      `json:"debit"`
	Credit       int64      `json:"credit"`
	Memo         string     `json:"memo,omitempty"`
	Position     int        `json:"position"`
	Reconciled   bool       `json:"reconciled"`
	ReconciledAt *time.Time `json:"reconciled_at,omitempty"`
}

type entryResponse struct {
	ID              uuid.UUID          `json:"id"`
	EntryNumber     int64              `json:"entry_number"`
	Date            time.Time          `json:"date"`
	Description     string             `json:"description"`
	Memo            string             `json:"memo,omitempty"`
	Reference       string             `json:"reference,omitempty"`
	Status          ledger.EntryStatus `json:"status"`
	Source          ledger.EntrySource `json:"source"`
	VoidedEntryID   *uuid.UUID         `json:"voided_entry_id,omitempty"`
	VoidReason      string             `json:"void_reason,omitempty"`
	VoidedAt        *time.Time         `json:"voided_at,omitempty"`
	RecurringRuleID *uuid.UUID         `json:"recurring_rule_id,omitempty"`
	CreatedBy       string             `json:"created_by,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
	Lines           []lineResponse     `json:"lines"`
}

func toEntryResponse(e ledger.JournalEntry) entryResponse {
	lines := make([]lineResponse, 0, len(e.Lines))
	for _, ln := range e.Lines {
		lines = append(lines, lineResponse{
			ID:           ln.ID,
			AccountID:    ln.AccountID,
			Debit:        ln.Debit,
			Credit:       ln.Credit,
			Memo:         ln.Memo,
			Position:     ln.Position,
			Reconciled:   ln.Reconciled,
			ReconciledAt: ln.ReconciledAt,
		})
	}
	return entryResponse{
		ID:              e.ID,
		EntryNumber:     e.EntryNumber,
		Date:            e.Date,
		Description:     e.Description,
		Memo:            e.Memo,
		Reference:       e.Reference,
		Status:          e.Status,
		Source:          e.Source,
		VoidedEntryID:   e.VoidedEntryID,
		VoidReason:      e.VoidReason,
		VoidedAt:        e.VoidedAt,
		RecurringRuleID: e.RecurringRuleID,
		CreatedBy:       e.CreatedBy,
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.UpdatedAt,
		Lines:           lines,
	}
}

// Transaction helpers

type depositRequest struct {
	BankAccountID   uuid.UUID `json:"bank_account_id"`
	IncomeAccountID uuid.UUID `json:"income_account_id"`
	Amount          int64     `json:"amount"`
	Date            time.Time `json:"date"`
	Description     string    `json:"description"`
}

type transferRequest struct {
	FromAccountID uuid.UUID `json:"from_account_id"`
	ToAccountID   uuid.UUID `json:"to_account_id"`
	Amount        int64     `json:"amount"`
	Date          time.Time `json:"date"`
	Description   string    `json:"description"`
}

// Recurring rules

type templateLineRequest struct {
	AccountID uuid.UUID `json:"account_id"`
	Debit     int64     `json:"debit,omitempty"`
	Credit    int64     `json:"credit,omitempty"`
	Memo      string    `json:"memo,omitempty"`
}

type postRuleRequest struct {
	Name        string                `json:"name"`
	Frequency   ledger.Frequency      `json:"frequency"`
	StartDate   time.Time             `json:"start_date"`
	EndDate     *time.Time            `json:"end_date,omitempty"`
	AutoPost    bool                  `json:"auto_post,omitempty"`
	Description string                `json:"description,omitempty"`
	Lines       []templateLineRequest `json:"lines"`
}

type ruleResponse struct {
	ID              uuid.UUID             `json:"id"`
	Name            string                `json:"name"`
	Frequency       ledger.Frequency      `json:"frequency"`
	StartDate       time.Time             `json:"start_date"`
	EndDate         *time.Time            `json:"end_date,omitempty"`
	NextOccurrence  time.Time             `json:"next_occurrence"`
	AutoPost        bool                  `json:"auto_post"`
	Status          ledger.RuleStatus     `json:"status"`
	Description     string                `json:"description,omitempty"`
	Lines           []templateLineRequest `json:"lines"`
	LastGeneratedAt *time.Time            `json:"last_generated_at,omitempty"`
}

func toRuleResponse(r ledger.RecurringRule) ruleResponse {
	lines := make([]templateLineRequest, 0, len(r.Lines))
	for _, ln := range r.Lines {
		lines = append(lines, templateLineRequest{
			AccountID: ln.AccountID,
			Debit:     ln.Debit,
			Credit:    ln.Credit,
			Memo:      ln.Memo,
		})
	}
	return ruleResponse{
		ID:              r.ID,
		Name:            r.Name,
		Frequency:       r.Frequency,
		StartDate:       r.StartDate,
		EndDate:         r.EndDate,
		NextOccurrence:  r.NextOccurrence,
		AutoPost:        r.AutoPost,
		Status:          r.Status,
		Description:     r.Description,
		Lines:           lines,
		LastGeneratedAt: r.LastGeneratedAt,
	}
}

type processResultResponse struct {
	RuleID   uuid.UUID  `json:"rule_id"`
	RuleName string     `json:"rule_name"`
	EntryID  *uuid.UUID `json:"entry_id,omitempty"`
	Error    string     `json:"error,omitempty"`
}

// Budgets

type postBudgetRequest struct {
	AccountID   uuid.UUID         `json:"account_id"`
	PeriodType  ledger.PeriodType `json:"period_type"`
	PeriodStart time.Time         `json:"period_start"`
	PeriodEnd   time.Time         `json:"period_end"`
	Amount      int64             `json:"amount"`
	Notes       string            `json:"notes,omitempty"`
}

type budgetResponse struct {
	ID          uuid.UUID         `json:"id"`
	AccountID   uuid.UUID         `json:"account_id"`
	PeriodType  ledger.PeriodType `json:"period_type"`
	PeriodStart time.Time         `json:"period_start"`
	PeriodEnd   time.Time         `json:"period_end"`
	Amount      int64             `json:"amount"`
	Notes       string            `json:"notes,omitempty"`
}

func toBudgetResponse(b ledger.Budget) budgetResponse {
	return budgetResponse{
		ID:          b.ID,
		AccountID:   b.AccountID,
		PeriodType:  b.PeriodType,
		PeriodStart: b.PeriodStart,
		PeriodEnd:   b.PeriodEnd,
		Amount:      b.Amount,
		Notes:       b.Notes,
	}
}

// Reconciliations

type postReconciliationRequest struct {
	BankAccountID    uuid.UUID `json:"bank_account_id"`
	StatementDate    time.Time `json:"statement_date"`
	StatementBalance int64     `json:"statement_balance"`
}

type setLineRequest struct {
	Reconciled bool `json:"reconciled"`
}

type reconciliationResponse struct {
	ID                uuid.UUID                   `json:"id"`
	BankAccountID     uuid.UUID                   `json:"bank_account_id"`
	StatementDate     time.Time                   `json:"statement_date"`
	StatementBalance  int64                       `json:"statement_balance"`
	ReconciledBalance int64                       `json:"reconciled_balance"`
	Status            ledger.ReconciliationStatus `json:"status"`
	CompletedAt       *time.Time                  `json:"completed_at,omitempty"`
}

func toReconciliationResponse(r ledger.Reconciliation) reconciliationResponse {
	return reconciliationResponse{
		ID:                r.ID,
		BankAccountID:     r.BankAccountID,
		StatementDate:     r.StatementDate,
		StatementBalance:  r.StatementBalance,
		ReconciledBalance: r.ReconciledBalance,
		Status:            r.Status,
		CompletedAt:       r.CompletedAt,
	}
}

// Query helpers

// parseMillisParam reads an optional Unix-millisecond query parameter.
func parseMillisParam(r *http.Request, name string) (*time.Time, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return nil, nil
	}
	ms, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: expected unix milliseconds", name)
	}
	t := time.UnixMilli(ms).UTC()
	return &t, nil
}

// formatMinor renders minor units in the account currency, e.g. 50000 USD ->
// "USD 500.00". Falls back to the raw integer when the currency is unknown.
func formatMinor(currency string, minor int64) string {
	amt, err := money.NewAmountFromMinorUnits(currency, minor)
	if err != nil {
		return strconv.FormatInt(minor, 10)
	}
	return amt.String()
}
