// Package balance computes account balances by aggregating posted journal
// lines at read time. There is no cached running balance to invalidate:
// voids and draft edits can never leave a stale figure behind.
package balance

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jmheath/books/internal/errs"
	"github.com/jmheath/books/internal/ledger"
)

// Repo defines the read operations needed by the engine. PostedEntries must
// return only entries with status=posted whose date falls in [from, to]
// (nil bounds are open). Drafts, voided entries, and their void reversals
// never reach the engine, so voids net to zero without special casing here.
type Repo interface {
	AccountsByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]ledger.Account, error)
	PostedEntries(ctx context.Context, from, to *time.Time) ([]ledger.JournalEntry, error)
}

// Service exposes point-in-time balance reads.
type Service interface {
	AccountBalance(ctx context.Context, accountID uuid.UUID, asOf *time.Time) (int64, error)
	AccountBalances(ctx context.Context, accountIDs []uuid.UUID, asOf *time.Time) (map[uuid.UUID]int64, error)
}

type service struct {
	repo Repo
}

// New constructs the balance engine.
func New(repo Repo) Service { return &service{repo: repo} }

func (s *service) AccountBalance(ctx context.Context, accountID uuid.UUID, asOf *time.Time) (int64, error) {
	m, err := s.AccountBalances(ctx, []uuid.UUID{accountID}, asOf)
	if err != nil {
		return 0, err
	}
	return m[accountID], nil
}

func (s *service) AccountBalances(ctx context.Context, accountIDs []uuid.UUID, asOf *time.Time) (map[uuid.UUID]int64, error) {
	if len(accountIDs) == 0 {
		return map[uuid.UUID]int64{}, nil
	}
	accounts, err := s.repo.AccountsByIDs(ctx, accountIDs)
	if err != nil {
		return nil, err
	}
	for _, id := range accountIDs {
		if _, ok := accounts[id]; !ok {
			return nil, errs.ErrNotFound
		}
	}
	entries, err := s.repo.PostedEntries(ctx, nil, asOf)
	if err != nil {
		return nil, err
	}
	type totals struct{ debit, credit int64 }
	agg := make(map[uuid.UUID]*totals, len(accountIDs))
	for _, id := range accountIDs {
		agg[id] = &totals{}
	}
	for _, e := range entries {
		for _, ln := range e.Lines {
			t, ok := agg[ln.AccountID]
			if !ok {
				continue
			}
			t.debit += ln.Debit
			t.credit += ln.Credit
		}
	}
	out := make(map[uuid.UUID]int64, len(accountIDs))
	for id, t := range agg {
		acc := accounts[id]
		out[id] = ledger.SignedBalance(acc.Type, acc.NormalBalance, t.debit, t.credit)
	}
	return out, nil
}
