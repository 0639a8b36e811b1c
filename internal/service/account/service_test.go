package account_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/jmheath/books/internal/errs"
	"github.com/jmheath/books/internal/ledger"
	"github.com/jmheath/books/internal/service/account"
	"github.com/jmheath/books/internal/service/journal"
	"github.com/jmheath/books/internal/storage/memory"
)

func setup() (*memory.Store, account.Service) {
	store := memory.New()
	return store, account.New(store, store)
}

func TestCreateDefaultsNormalBalance(t *testing.T) {
	_, svc := setup()
	ctx := context.Background()

	a, err := svc.Create(ctx, ledger.Account{Number: 2000, Name: "Accounts Payable", Type: ledger.AccountTypeLiability, Currency: "USD"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if a.NormalBalance != ledger.SideCredit {
		t.Errorf("normal balance = %s, want credit", a.NormalBalance)
	}
	if !a.Active {
		t.Error("new account not active")
	}
	if a.ID == uuid.Nil {
		t.Error("id not assigned")
	}
}

func TestCreateValidation(t *testing.T) {
	_, svc := setup()
	ctx := context.Background()

	cases := []struct {
		name string
		in   ledger.Account
		want error
	}{
		{"missing name", ledger.Account{Number: 1000, Type: ledger.AccountTypeAsset}, errs.ErrInvalid},
		{"bad number", ledger.Account{Number: 0, Name: "X", Type: ledger.AccountTypeAsset}, errs.ErrInvalid},
		{"bad type", ledger.Account{Number: 1000, Name: "X", Type: "stock"}, errs.ErrInvalid},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Create(ctx, tc.in); !errors.Is(err, tc.want) {
				t.Errorf("err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestCreateDuplicateNumber(t *testing.T) {
	_, svc := setup()
	ctx := context.Background()

	if _, err := svc.Create(ctx, ledger.Account{Number: 1000, Name: "Checking", Type: ledger.AccountTypeAsset}); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if _, err := svc.Create(ctx, ledger.Account{Number: 1000, Name: "Other", Type: ledger.AccountTypeAsset}); !errors.Is(err, errs.ErrDuplicateNumber) {
		t.Fatalf("err = %v, want ErrDuplicateNumber", err)
	}
}

func TestUpdateSystemAccountProtected(t *testing.T) {
	store, svc := setup()
	ctx := context.Background()

	now := time.Now().UTC()
	sys := ledger.Account{
		ID: uuid.New(), Number: 3000, Name: "Owner's Equity", Type: ledger.AccountTypeEquity,
		NormalBalance: ledger.SideCredit, System: true, Active: true, CreatedAt: now, UpdatedAt: now,
	}
	store.SeedAccount(sys)

	newNumber := 3999
	if _, err := svc.Update(ctx, sys.ID, account.UpdateInput{Number: &newNumber}); !errors.Is(err, errs.ErrSystemAccount) {
		t.Errorf("number change err = %v, want ErrSystemAccount", err)
	}
	newType := ledger.AccountTypeRevenue
	if _, err := svc.Update(ctx, sys.ID, account.UpdateInput{Type: &newType}); !errors.Is(err, errs.ErrSystemAccount) {
		t.Errorf("type change err = %v, want ErrSystemAccount", err)
	}
	// renaming is fine
	newName := "Retained Earnings"
	got, err := svc.Update(ctx, sys.ID, account.UpdateInput{Name: &newName})
	if err != nil {
		t.Fatalf("rename: %v", err)
	}
	if got.Name != newName {
		t.Errorf("name = %q, want %q", got.Name, newName)
	}
}

func TestUpdateDuplicateNumber(t *testing.T) {
	_, svc := setup()
	ctx := context.Background()

	a, err := svc.Create(ctx, ledger.Account{Number: 1000, Name: "Checking", Type: ledger.AccountTypeAsset})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Create(ctx, ledger.Account{Number: 1010, Name: "Savings", Type: ledger.AccountTypeAsset}); err != nil {
		t.Fatalf("create: %v", err)
	}
	taken := 1010
	if _, err := svc.Update(ctx, a.ID, account.UpdateInput{Number: &taken}); !errors.Is(err, errs.ErrDuplicateNumber) {
		t.Fatalf("err = %v, want ErrDuplicateNumber", err)
	}
}

func TestDeactivate(t *testing.T) {
	store, svc := setup()
	ctx := context.Background()

	unused, err := svc.Create(ctx, ledger.Account{Number: 5000, Name: "Office Expenses", Type: ledger.AccountTypeExpense})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.Deactivate(ctx, unused.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	got, err := svc.Get(ctx, unused.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Active {
		t.Error("account still active after deactivate")
	}

	// an account referenced by a posted line cannot be deactivated
	cash, err := svc.Create(ctx, ledger.Account{Number: 1000, Name: "Checking", Type: ledger.AccountTypeAsset})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	revenue, err := svc.Create(ctx, ledger.Account{Number: 4000, Name: "Revenue", Type: ledger.AccountTypeRevenue})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	entries := journal.New(store, store)
	_, err = entries.Create(ctx, journal.EntryInput{
		Date:        time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC),
		Description: "sale",
		Status:      ledger.EntryStatusPosted,
		Lines: []journal.LineInput{
			{AccountID: cash.ID, Debit: 100},
			{AccountID: revenue.ID, Credit: 100},
		},
	})
	if err != nil {
		t.Fatalf("create entry: %v", err)
	}
	if err := svc.Deactivate(ctx, cash.ID); !errors.Is(err, errs.ErrAccountInUse) {
		t.Fatalf("err = %v, want ErrAccountInUse", err)
	}
}

func TestGetUnknown(t *testing.T) {
	_, svc := setup()
	if _, err := svc.Get(context.Background(), uuid.New()); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
