package report_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/jmheath/books/internal/ledger"
	"github.com/jmheath/books/internal/service/journal"
	"github.com/jmheath/books/internal/service/report"
	"github.com/jmheath/books/internal/storage/memory"
)

type fixture struct {
	store   *memory.Store
	entries journal.Service
	reports report.Service
	cash    ledger.Account
	loan    ledger.Account
	equity  ledger.Account
	revenue ledger.Account
	rent    ledger.Account
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

func day(d int) time.Time {
	return time.Date(2025, time.March, d, 0, 0, 0, 0, time.UTC)
}

// newFixture books a small month of activity:
//
//	owner funds the company with 100000 cash
//	a 40000 loan is drawn
//	70000 of revenue is collected
//	25000 of rent is paid
func newFixture(t *testing.T) fixture {
	t.Helper()
	store := memory.New()
	f := fixture{
		store:   store,
		entries: journal.New(store, store),
		reports: report.New(store),
		cash:    seedAccount(store, 1000, "Checking", ledger.AccountTypeAsset),
		loan:    seedAccount(store, 2000, "Bank Loan", ledger.AccountTypeLiability),
		equity:  seedAccount(store, 3000, "Owner's Equity", ledger.AccountTypeEquity),
		revenue: seedAccount(store, 4000, "Consulting Revenue", ledger.AccountTypeRevenue),
		rent:    seedAccount(store, 5100, "Rent Expense", ledger.AccountTypeExpense),
	}
	ctx := context.Background()
	post := func(d int, desc string, lines []journal.LineInput) {
		t.Helper()
		_, err := f.entries.Create(ctx, journal.EntryInput{
			Date: day(d), Description: desc, Status: ledger.EntryStatusPosted, Lines: lines,
		})
		if err != nil {
			t.Fatalf("%s: %v", desc, err)
		}
	}
	post(1, "owner contribution", []journal.LineInput{
		{AccountID: f.cash.ID, Debit: 100000},
		{AccountID: f.equity.ID, Credit: 100000},
	})
	post(2, "loan drawdown", []journal.LineInput{
		{AccountID: f.cash.ID, Debit: 40000},
		{AccountID: f.loan.ID, Credit: 40000},
	})
	post(10, "consulting invoice paid", []journal.LineInput{
		{AccountID: f.cash.ID, Debit: 70000},
		{AccountID: f.revenue.ID, Credit: 70000},
	})
	post(15, "march rent", []journal.LineInput{
		{AccountID: f.rent.ID, Debit: 25000},
		{AccountID: f.cash.ID, Credit: 25000},
	})
	return f
}

func TestTrialBalanceTotalsMatch(t *testing.T) {
	f := newFixture(t)

	tb, err := f.reports.TrialBalance(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("trial balance: %v", err)
	}
	if tb.TotalDebit != tb.TotalCredit {
		t.Errorf("total debit %d != total credit %d", tb.TotalDebit, tb.TotalCredit)
	}
	if tb.TotalDebit != 235000 {
		t.Errorf("total debit = %d, want 235000", tb.TotalDebit)
	}
	if len(tb.Rows) != 5 {
		t.Fatalf("got %d rows, want 5", len(tb.Rows))
	}
	// rows come back in account-number order
	for i := 1; i < len(tb.Rows); i++ {
		if tb.Rows[i-1].Number > tb.Rows[i].Number {
			t.Errorf("rows not sorted by number: %d before %d", tb.Rows[i-1].Number, tb.Rows[i].Number)
		}
	}
}

func TestTrialBalanceRange(t *testing.T) {
	f := newFixture(t)

	from, to := day(5), day(20)
	tb, err := f.reports.TrialBalance(context.Background(), &from, &to)
	if err != nil {
		t.Fatalf("trial balance: %v", err)
	}
	// only the revenue and rent entries fall in range
	if tb.TotalDebit != 95000 || tb.TotalCredit != 95000 {
		t.Errorf("totals = %d/%d, want 95000/95000", tb.TotalDebit, tb.TotalCredit)
	}
}

func TestBalanceSheetIdentity(t *testing.T) {
	f := newFixture(t)

	bs, err := f.reports.BalanceSheet(context.Background(), nil)
	if err != nil {
		t.Fatalf("balance sheet: %v", err)
	}
	if bs.TotalAssets != 185000 {
		t.Errorf("total assets = %d, want 185000", bs.TotalAssets)
	}
	if bs.TotalLiabilities != 40000 {
		t.Errorf("total liabilities = %d, want 40000", bs.TotalLiabilities)
	}
	if bs.TotalEquity != 100000 {
		t.Errorf("total equity = %d, want 100000", bs.TotalEquity)
	}
	if bs.NetIncome != 45000 {
		t.Errorf("net income = %d, want 45000", bs.NetIncome)
	}
	if bs.TotalAssets != bs.TotalLiabilities+bs.TotalEquity+bs.NetIncome {
		t.Errorf("identity broken: %d != %d + %d + %d", bs.TotalAssets, bs.TotalLiabilities, bs.TotalEquity, bs.NetIncome)
	}
}

func TestProfitLoss(t *testing.T) {
	f := newFixture(t)

	pl, err := f.reports.ProfitLoss(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("profit loss: %v", err)
	}
	if pl.TotalRevenue != 70000 {
		t.Errorf("total revenue = %d, want 70000", pl.TotalRevenue)
	}
	if pl.TotalExpenses != 25000 {
		t.Errorf("total expenses = %d, want 25000", pl.TotalExpenses)
	}
	if pl.NetIncome != 45000 {
		t.Errorf("net income = %d, want 45000", pl.NetIncome)
	}
	if len(pl.Revenue) != 1 || len(pl.Expenses) != 1 {
		t.Errorf("sections = %d revenue / %d expense rows", len(pl.Revenue), len(pl.Expenses))
	}
}

func TestVoidedEntryExcludedFromReports(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	e, err := f.entries.Create(ctx, journal.EntryInput{
		Date: day(18), Description: "booked twice", Status: ledger.EntryStatusPosted,
		Lines: []journal.LineInput{
			{AccountID: f.cash.ID, Debit: 9999},
			{AccountID: f.revenue.ID, Credit: 9999},
		},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := f.entries.Void(ctx, e.ID, "duplicate"); err != nil {
		t.Fatalf("void: %v", err)
	}

	pl, err := f.reports.ProfitLoss(ctx, nil, nil)
	if err != nil {
		t.Fatalf("profit loss: %v", err)
	}
	// the voided entry and its reversal cancel out
	if pl.TotalRevenue != 70000 {
		t.Errorf("total revenue = %d, want 70000", pl.TotalRevenue)
	}
	bs, err := f.reports.BalanceSheet(ctx, nil)
	if err != nil {
		t.Fatalf("balance sheet: %v", err)
	}
	if bs.TotalAssets != bs.TotalLiabilities+bs.TotalEquity+bs.NetIncome {
		t.Errorf("identity broken after void")
	}
}

func TestBudgetVsActual(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	mkBudget := func(account uuid.UUID, amount int64) ledger.Budget {
		b := ledger.Budget{
			ID:          uuid.New(),
			AccountID:   account,
			PeriodType:  ledger.PeriodMonthly,
			PeriodStart: day(1),
			PeriodEnd:   day(31),
			Amount:      amount,
			CreatedAt:   time.Now().UTC(),
		}
		if _, err := f.store.CreateBudget(ctx, b); err != nil {
			t.Fatalf("create budget: %v", err)
		}
		return b
	}
	mkBudget(f.rent.ID, 50000)
	mkBudget(f.revenue.ID, 0)

	rows, err := f.reports.BudgetVsActual(ctx, 2025, ledger.PeriodMonthly)
	if err != nil {
		t.Fatalf("budget vs actual: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	// rows sorted by account number: revenue (4000) before rent (5100)
	rev, rent := rows[0], rows[1]
	if rev.AccountID != f.revenue.ID || rent.AccountID != f.rent.ID {
		t.Fatalf("unexpected row order: %+v", rows)
	}
	if rent.Actual != 25000 || rent.Variance != 25000 {
		t.Errorf("rent actual/variance = %d/%d, want 25000/25000", rent.Actual, rent.Variance)
	}
	if rent.PercentUsed != 50 {
		t.Errorf("rent percent used = %v, want 50", rent.PercentUsed)
	}
	// zero budget never divides
	if rev.PercentUsed != 0 {
		t.Errorf("zero-budget percent used = %v, want 0", rev.PercentUsed)
	}
	if rev.Actual != 70000 {
		t.Errorf("revenue actual = %d, want 70000", rev.Actual)
	}

	// other years and period types filter out
	none, err := f.reports.BudgetVsActual(ctx, 2024, ledger.PeriodMonthly)
	if err != nil {
		t.Fatalf("budget vs actual: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("got %d rows for 2024, want 0", len(none))
	}
}
