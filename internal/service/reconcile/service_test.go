package reconcile_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/jmheath/books/internal/errs"
	"github.com/jmheath/books/internal/ledger"
	"github.com/jmheath/books/internal/service/journal"
	"github.com/jmheath/books/internal/service/reconcile"
	"github.com/jmheath/books/internal/storage/memory"
)

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

func setup(t *testing.T) (*memory.Store, reconcile.Service, journal.Service, ledger.Account, ledger.Account) {
	t.Helper()
	store := memory.New()
	cash := seedAccount(store, 1000, "Checking", ledger.AccountTypeAsset)
	revenue := seedAccount(store, 4000, "Revenue", ledger.AccountTypeRevenue)
	return store, reconcile.New(store, store), journal.New(store, store), cash, revenue
}

func TestStart(t *testing.T) {
	_, svc, _, cash, _ := setup(t)
	ctx := context.Background()

	rec, err := svc.Start(ctx, cash.ID, day(31), 125000)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if rec.Status != ledger.ReconciliationInProgress {
		t.Errorf("status = %s, want in_progress", rec.Status)
	}
	if rec.StatementBalance != 125000 {
		t.Errorf("statement balance = %d", rec.StatementBalance)
	}

	if _, err := svc.Start(ctx, uuid.New(), day(31), 0); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("unknown account err = %v, want ErrNotFound", err)
	}
}

func TestSetLineAndComplete(t *testing.T) {
	_, svc, entries, cash, revenue := setup(t)
	ctx := context.Background()

	e1, err := entries.Deposit(ctx, cash.ID, revenue.ID, 50000, day(5), "deposit one")
	if err != nil {
		t.Fatalf("deposit: %v", err)
	}
	e2, err := entries.Deposit(ctx, cash.ID, revenue.ID, 30000, day(10), "deposit two")
	if err != nil {
		t.Fatalf("deposit: %v", err)
	}
	// dated after the statement, must not count even if marked
	e3, err := entries.Deposit(ctx, cash.ID, revenue.ID, 99999, day(25), "late deposit")
	if err != nil {
		t.Fatalf("deposit: %v", err)
	}

	rec, err := svc.Start(ctx, cash.ID, day(15), 80000)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	bankLine := func(e ledger.JournalEntry) uuid.UUID {
		for _, ln := range e.Lines {
			if ln.AccountID == cash.ID {
				return ln.ID
			}
		}
		t.Fatalf("no bank line in %+v", e)
		return uuid.Nil
	}
	if err := svc.SetLine(ctx, rec.ID, bankLine(e1), true); err != nil {
		t.Fatalf("set line: %v", err)
	}
	if err := svc.SetLine(ctx, rec.ID, bankLine(e2), true); err != nil {
		t.Fatalf("set line: %v", err)
	}
	if err := svc.SetLine(ctx, rec.ID, bankLine(e3), true); err != nil {
		t.Fatalf("set line: %v", err)
	}

	// a line on the wrong account is rejected
	var revLine uuid.UUID
	for _, ln := range e1.Lines {
		if ln.AccountID == revenue.ID {
			revLine = ln.ID
		}
	}
	if err := svc.SetLine(ctx, rec.ID, revLine, true); !errors.Is(err, errs.ErrInvalid) {
		t.Errorf("wrong-account line err = %v, want ErrInvalid", err)
	}
	if err := svc.SetLine(ctx, rec.ID, uuid.New(), true); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("unknown line err = %v, want ErrNotFound", err)
	}

	done, err := svc.Complete(ctx, rec.ID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if done.Status != ledger.ReconciliationCompleted {
		t.Errorf("status = %s, want completed", done.Status)
	}
	// only the two in-range reconciled lines count
	if done.ReconciledBalance != 80000 {
		t.Errorf("reconciled balance = %d, want 80000", done.ReconciledBalance)
	}
	if done.CompletedAt == nil {
		t.Error("completed_at not stamped")
	}

	// completion is one-way
	if _, err := svc.Complete(ctx, rec.ID); !errors.Is(err, errs.ErrCompleted) {
		t.Errorf("second complete err = %v, want ErrCompleted", err)
	}
	if err := svc.SetLine(ctx, rec.ID, bankLine(e1), false); !errors.Is(err, errs.ErrCompleted) {
		t.Errorf("set line after complete err = %v, want ErrCompleted", err)
	}
}

func TestUnmarkLine(t *testing.T) {
	_, svc, entries, cash, revenue := setup(t)
	ctx := context.Background()

	e, err := entries.Deposit(ctx, cash.ID, revenue.ID, 50000, day(5), "deposit")
	if err != nil {
		t.Fatalf("deposit: %v", err)
	}
	rec, err := svc.Start(ctx, cash.ID, day(15), 0)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	var lineID uuid.UUID
	for _, ln := range e.Lines {
		if ln.AccountID == cash.ID {
			lineID = ln.ID
		}
	}
	if err := svc.SetLine(ctx, rec.ID, lineID, true); err != nil {
		t.Fatalf("mark: %v", err)
	}
	if err := svc.SetLine(ctx, rec.ID, lineID, false); err != nil {
		t.Fatalf("unmark: %v", err)
	}
	done, err := svc.Complete(ctx, rec.ID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if done.ReconciledBalance != 0 {
		t.Errorf("reconciled balance = %d, want 0", done.ReconciledBalance)
	}
}
