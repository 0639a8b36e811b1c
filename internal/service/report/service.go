// Package report derives trial balance, balance sheet, profit & loss and
// budget-vs-actual views from the journal store and chart of accounts. All
// reports are pure read-side derivations; nothing here is ever persisted.
package report

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/jmheath/books/internal/ledger"
)

// Repo defines the read operations needed by the engine. PostedEntries must
// return only posted entries dated within [from, to] (nil bounds are open),
// excluding void reversals so a void pair contributes nothing to any report.
type Repo interface {
	ListAccounts(ctx context.Context) ([]ledger.Account, error)
	PostedEntries(ctx context.Context, from, to *time.Time) ([]ledger.JournalEntry, error)
	ListBudgets(ctx context.Context) ([]ledger.Budget, error)
}

// TrialBalanceRow is one account's debit/credit totals for the period.
type TrialBalanceRow struct {
	AccountID uuid.UUID          `json:"account_id"`
	Number    int                `json:"account_number"`
	Name      string             `json:"name"`
	Type      ledger.AccountType `json:"type"`
	Debit     int64              `json:"debit"`
	Credit    int64              `json:"credit"`
}

// TrialBalance lists per-account totals whose grand totals must be equal.
type TrialBalance struct {
	From        *time.Time        `json:"from,omitempty"`
	To          *time.Time        `json:"to,omitempty"`
	Rows        []TrialBalanceRow `json:"rows"`
	TotalDebit  int64             `json:"total_debit"`
	TotalCredit int64             `json:"total_credit"`
}

// AccountBalanceRow is one account's signed balance within a report section.
type AccountBalanceRow struct {
	AccountID uuid.UUID `json:"account_id"`
	Number    int       `json:"account_number"`
	Name      string    `json:"name"`
	Balance   int64     `json:"balance"`
}

// BalanceSheet is the point-in-time statement of financial position.
// Assets == Liabilities + Equity + NetIncome when the journal is sound; the
// report never auto-corrects a discrepancy.
type BalanceSheet struct {
	AsOf             *time.Time          `json:"as_of,omitempty"`
	Assets           []AccountBalanceRow `json:"assets"`
	Liabilities      []AccountBalanceRow `json:"liabilities"`
	Equity           []AccountBalanceRow `json:"equity"`
	TotalAssets      int64               `json:"total_assets"`
	TotalLiabilities int64               `json:"total_liabilities"`
	TotalEquity      int64               `json:"total_equity"`
	NetIncome        int64               `json:"net_income"`
}

// ProfitLoss is the income statement for a period.
type ProfitLoss struct {
	From          *time.Time          `json:"from,omitempty"`
	To            *time.Time          `json:"to,omitempty"`
	Revenue       []AccountBalanceRow `json:"revenue"`
	Expenses      []AccountBalanceRow `json:"expenses"`
	TotalRevenue  int64               `json:"total_revenue"`
	TotalExpenses int64               `json:"total_expenses"`
	NetIncome     int64               `json:"net_income"`
}

// BudgetVsActualRow compares one budget row against ledger actuals.
type BudgetVsActualRow struct {
	BudgetID    uuid.UUID         `json:"budget_id"`
	AccountID   uuid.UUID         `json:"account_id"`
	Number      int               `json:"account_number"`
	Name        string            `json:"name"`
	PeriodType  ledger.PeriodType `json:"period_type"`
	PeriodStart time.Time         `json:"period_start"`
	PeriodEnd   time.Time         `json:"period_end"`
	Budgeted    int64             `json:"budgeted"`
	Actual      int64             `json:"actual"`
	Variance    int64             `json:"variance"`
	PercentUsed float64           `json:"percent_used"`
}

// Service exposes the report derivations.
type Service interface {
	TrialBalance(ctx context.Context, from, to *time.Time) (TrialBalance, error)
	BalanceSheet(ctx context.Context, asOf *time.Time) (BalanceSheet, error)
	ProfitLoss(ctx context.Context, from, to *time.Time) (ProfitLoss, error)
	BudgetVsActual(ctx context.Context, year int, periodType ledger.PeriodType) ([]BudgetVsActualRow, error)
}

type service struct {
	repo Repo
}

// New constructs the reporting engine.
func New(repo Repo) Service { return &service{repo: repo} }

type totals struct{ debit, credit int64 }

// accountTotals sums debit/credit per account across posted entries in the
// range.
func (s *service) accountTotals(ctx context.Context, from, to *time.Time) (map[uuid.UUID]totals, error) {
	entries, err := s.repo.PostedEntries(ctx, from, to)
	if err != nil {
		return nil, err
	}
	agg := make(map[uuid.UUID]totals)
	for _, e := range entries {
		for _, ln := range e.Lines {
			t := agg[ln.AccountID]
			t.debit += ln.Debit
			t.credit += ln.Credit
			agg[ln.AccountID] = t
		}
	}
	return agg, nil
}

func (s *service) TrialBalance(ctx context.Context, from, to *time.Time) (TrialBalance, error) {
	agg, err := s.accountTotals(ctx, from, to)
	if err != nil {
		return TrialBalance{}, err
	}
	accounts, err := s.repo.ListAccounts(ctx)
	if err != nil {
		return TrialBalance{}, err
	}
	tb := TrialBalance{From: from, To: to, Rows: []TrialBalanceRow{}}
	for _, a := range sortedByNumber(accounts) {
		t, ok := agg[a.ID]
		if !ok {
			continue
		}
		tb.Rows = append(tb.Rows, TrialBalanceRow{
			AccountID: a.ID,
			Number:    a.Number,
			Name:      a.Name,
			Type:      a.Type,
			Debit:     t.debit,
			Credit:    t.credit,
		})
		tb.TotalDebit += t.debit
		tb.TotalCredit += t.credit
	}
	return tb, nil
}

func (s *service) BalanceSheet(ctx context.Context, asOf *time.Time) (BalanceSheet, error) {
	agg, err := s.accountTotals(ctx, nil, asOf)
	if err != nil {
		return BalanceSheet{}, err
	}
	accounts, err := s.repo.ListAccounts(ctx)
	if err != nil {
		return BalanceSheet{}, err
	}
	bs := BalanceSheet{
		AsOf:        asOf,
		Assets:      []AccountBalanceRow{},
		Liabilities: []AccountBalanceRow{},
		Equity:      []AccountBalanceRow{},
	}
	for _, a := range sortedByNumber(accounts) {
		t, ok := agg[a.ID]
		if !ok {
			continue
		}
		bal := ledger.SignedBalance(a.Type, a.NormalBalance, t.debit, t.credit)
		row := AccountBalanceRow{AccountID: a.ID, Number: a.Number, Name: a.Name, Balance: bal}
		switch a.Type {
		case ledger.AccountTypeAsset:
			bs.Assets = append(bs.Assets, row)
			bs.TotalAssets += bal
		case ledger.AccountTypeLiability:
			bs.Liabilities = append(bs.Liabilities, row)
			bs.TotalLiabilities += bal
		case ledger.AccountTypeEquity:
			bs.Equity = append(bs.Equity, row)
			bs.TotalEquity += bal
		case ledger.AccountTypeRevenue:
			bs.NetIncome += bal
		case ledger.AccountTypeExpense:
			bs.NetIncome -= bal
		}
	}
	return bs, nil
}

func (s *service) ProfitLoss(ctx context.Context, from, to *time.Time) (ProfitLoss, error) {
	agg, err := s.accountTotals(ctx, from, to)
	if err != nil {
		return ProfitLoss{}, err
	}
	accounts, err := s.repo.ListAccounts(ctx)
	if err != nil {
		return ProfitLoss{}, err
	}
	pl := ProfitLoss{From: from, To: to, Revenue: []AccountBalanceRow{}, Expenses: []AccountBalanceRow{}}
	for _, a := range sortedByNumber(accounts) {
		t, ok := agg[a.ID]
		if !ok {
			continue
		}
		bal := ledger.SignedBalance(a.Type, a.NormalBalance, t.debit, t.credit)
		row := AccountBalanceRow{AccountID: a.ID, Number: a.Number, Name: a.Name, Balance: bal}
		switch a.Type {
		case ledger.AccountTypeRevenue:
			pl.Revenue = append(pl.Revenue, row)
			pl.TotalRevenue += bal
		case ledger.AccountTypeExpense:
			pl.Expenses = append(pl.Expenses, row)
			pl.TotalExpenses += bal
		}
	}
	pl.NetIncome = pl.TotalRevenue - pl.TotalExpenses
	return pl, nil
}

func (s *service) BudgetVsActual(ctx context.Context, year int, periodType ledger.PeriodType) ([]BudgetVsActualRow, error) {
	budgets, err := s.repo.ListBudgets(ctx)
	if err != nil {
		return nil, err
	}
	accounts, err := s.repo.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]ledger.Account, len(accounts))
	for _, a := range accounts {
		byID[a.ID] = a
	}
	rows := []BudgetVsActualRow{}
	for _, b := range budgets {
		if b.PeriodType != periodType || b.PeriodStart.Year() != year {
			continue
		}
		acc, ok := byID[b.AccountID]
		if !ok {
			continue
		}
		start, end := b.PeriodStart, b.PeriodEnd
		agg, err := s.accountTotals(ctx, &start, &end)
		if err != nil {
			return nil, err
		}
		t := agg[b.AccountID]
		actual := ledger.SignedBalance(acc.Type, acc.NormalBalance, t.debit, t.credit)
		rows = append(rows, BudgetVsActualRow{
			BudgetID:    b.ID,
			AccountID:   b.AccountID,
			Number:      acc.Number,
			Name:        acc.Name,
			PeriodType:  b.PeriodType,
			PeriodStart: b.PeriodStart,
			PeriodEnd:   b.PeriodEnd,
			Budgeted:    b.Amount,
			Actual:      actual,
			Variance:    b.Amount - actual,
			PercentUsed: percentUsed(actual, b.Amount),
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Number != rows[j].Number {
			return rows[i].Number < rows[j].Number
		}
		return rows[i].PeriodStart.Before(rows[j].PeriodStart)
	})
	return rows, nil
}

// percentUsed reports actual/budgeted as a percentage rounded to two
// decimals. A zero budget yields zero rather than dividing by it.
func percentUsed(actual, budgeted int64) float64 {
	if budgeted == 0 {
		return 0
	}
	return math.Round(float64(actual)/float64(budgeted)*10000) / 100
}

func sortedByNumber(accounts []ledger.Account) []ledger.Account {
	out := make([]ledger.Account, len(accounts))
	copy(out, accounts)
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}
