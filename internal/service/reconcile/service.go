// Package reconcile implements the thin bank-reconciliation workflow:
// marking posted lines of a bank account as matched against a statement and
// completing the reconciliation once.
package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jmheath/books/internal/errs"
	"github.com/jmheath/books/internal/ledger"
)

// Repo defines read operations needed by the workflow.
type Repo interface {
	GetAccount(ctx context.Context, accountID uuid.UUID) (ledger.Account, error)
	GetReconciliation(ctx context.Context, recID uuid.UUID) (ledger.Reconciliation, error)
	ListReconciliations(ctx context.Context) ([]ledger.Reconciliation, error)
	PostedEntries(ctx context.Context, from, to *time.Time) ([]ledger.JournalEntry, error)
}

// Writer defines write operations needed by the workflow.
type Writer interface {
	CreateReconciliation(ctx context.Context, r ledger.Reconciliation) (ledger.Reconciliation, error)
	UpdateReconciliation(ctx context.Context, r ledger.Reconciliation) (ledger.Reconciliation, error)
	// SetLineReconciled flips the reconciled flag on a single journal line.
	SetLineReconciled(ctx context.Context, lineID uuid.UUID, reconciled bool, at *time.Time) error
}

// Service exposes the reconciliation workflow.
type Service interface {
	Start(ctx context.Context, bankAccountID uuid.UUID, statementDate time.Time, statementBalance int64) (ledger.Reconciliation, error)
	Get(ctx context.Context, recID uuid.UUID) (ledger.Reconciliation, error)
	List(ctx context.Context) ([]ledger.Reconciliation, error)
	// SetLine marks a posted line of the reconciliation's bank account as
	// reconciled (or clears the flag).
	SetLine(ctx context.Context, recID, lineID uuid.UUID, reconciled bool) error
	// Complete aggregates reconciled lines up to the statement date and
	// closes the reconciliation. One-way.
	Complete(ctx context.Context, recID uuid.UUID) (ledger.Reconciliation, error)
}

type service struct {
	repo   Repo
	writer Writer
	now    func() time.Time
}

// New constructs the reconciliation service.
func New(repo Repo, writer Writer) Service {
	return &service{repo: repo, writer: writer, now: time.Now}
}

func (s *service) Start(ctx context.Context, bankAccountID uuid.UUID, statementDate time.Time, statementBalance int64) (ledger.Reconciliation, error) {
	if bankAccountID == uuid.Nil || statementDate.IsZero() {
		return ledger.Reconciliation{}, errs.ErrInvalid
	}
	if _, err := s.repo.GetAccount(ctx, bankAccountID); err != nil {
		return ledger.Reconciliation{}, err
	}
	r := ledger.Reconciliation{
		ID:               uuid.New(),
		BankAccountID:    bankAccountID,
		StatementDate:    statementDate,
		StatementBalance: statementBalance,
		Status:           ledger.ReconciliationInProgress,
		CreatedAt:        s.now().UTC(),
	}
	return s.writer.CreateReconciliation(ctx, r)
}

func (s *service) Get(ctx context.Context, recID uuid.UUID) (ledger.Reconciliation, error) {
	if recID == uuid.Nil {
		return ledger.Reconciliation{}, errs.ErrInvalid
	}
	return s.repo.GetReconciliation(ctx, recID)
}

func (s *service) List(ctx context.Context) ([]ledger.Reconciliation, error) {
	return s.repo.ListReconciliations(ctx)
}

func (s *service) SetLine(ctx context.Context, recID, lineID uuid.UUID, reconciled bool) error {
	rec, err := s.repo.GetReconciliation(ctx, recID)
	if err != nil {
		return err
	}
	if rec.Status == ledger.ReconciliationCompleted {
		return errs.ErrCompleted
	}
	// The line must belong to a posted entry and touch the bank account.
	entries, err := s.repo.PostedEntries(ctx, nil, nil)
	if err != nil {
		return err
	}
	found := false
	for _, e := range entries {
		for _, ln := range e.Lines {
			if ln.ID == lineID {
				if ln.AccountID != rec.BankAccountID {
					return fmt.Errorf("%w: line does not belong to the bank account", errs.ErrInvalid)
				}
				found = true
			}
		}
	}
	if !found {
		return errs.ErrNotFound
	}
	var at *time.Time
	if reconciled {
		t := s.now().UTC()
		at = &t
	}
	return s.writer.SetLineReconciled(ctx, lineID, reconciled, at)
}

func (s *service) Complete(ctx context.Context, recID uuid.UUID) (ledger.Reconciliation, error) {
	rec, err := s.repo.GetReconciliation(ctx, recID)
	if err != nil {
		return ledger.Reconciliation{}, err
	}
	if rec.Status == ledger.ReconciliationCompleted {
		return ledger.Reconciliation{}, errs.ErrCompleted
	}
	acc, err := s.repo.GetAccount(ctx, rec.BankAccountID)
	if err != nil {
		return ledger.Reconciliation{}, err
	}
	to := rec.StatementDate
	entries, err := s.repo.PostedEntries(ctx, nil, &to)
	if err != nil {
		return ledger.Reconciliation{}, err
	}
	var debit, credit int64
	for _, e := range entries {
		for _, ln := range e.Lines {
			if ln.AccountID != rec.BankAccountID || !ln.Reconciled {
				continue
			}
			debit += ln.Debit
			credit += ln.Credit
		}
	}
	now := s.now().UTC()
	rec.ReconciledBalance = ledger.SignedBalance(acc.Type, acc.NormalBalance, debit, credit)
	rec.Status = ledger.ReconciliationCompleted
	rec.CompletedAt = &now
	return s.writer.UpdateReconciliation(ctx, rec)
}
