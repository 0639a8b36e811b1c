// Package memory provides a simple in-memory implementation used for
// development and tests. It keeps code paths easy to follow while allowing a
// real DB to be plugged in behind the same interfaces.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jmheath/books/internal/errs"
	"github.com/jmheath/books/internal/ledger"
	"github.com/jmheath/books/internal/service/journal"
)

// Store is an in-memory implementation of every repository and writer
// interface used by the services. It is guarded by an RWMutex for concurrent
// reads/writes; the entry-number sequence only ever advances under the write
// lock, so numbers are collision-free even with concurrent writers.
type Store struct {
	mu              sync.RWMutex
	accounts        map[uuid.UUID]ledger.Account
	entries         map[uuid.UUID]*ledger.JournalEntry
	rules           map[uuid.UUID]ledger.RecurringRule
	budgets         map[uuid.UUID]ledger.Budget
	reconciliations map[uuid.UUID]ledger.Reconciliation
	entrySeq        int64
}

// New constructs an empty in-memory store.
func New() *Store {
	return &Store{
		accounts:        make(map[uuid.UUID]ledger.Account),
		entries:         make(map[uuid.UUID]*ledger.JournalEntry),
		rules:           make(map[uuid.UUID]ledger.RecurringRule),
		budgets:         make(map[uuid.UUID]ledger.Budget),
		reconciliations: make(map[uuid.UUID]ledger.Reconciliation),
	}
}

// Seed helpers for local dev/tests.
func (s *Store) SeedAccount(a ledger.Account) {
	s.mu.Lock()
	s.accounts[a.ID] = a
	s.mu.Unlock()
}

// Ready reports the store as always available.
func (s *Store) Ready(_ context.Context) error { return nil }

// --- Account reads ---

// GetAccount returns an account by ID.
func (s *Store) GetAccount(_ context.Context, accountID uuid.UUID) (ledger.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[accountID]
	if !ok {
		return ledger.Account{}, errs.ErrNotFound
	}
	return a, nil
}

// AccountsByIDs returns the subset of ids that resolve to accounts.
func (s *Store) AccountsByIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]ledger.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[uuid.UUID]ledger.Account, len(ids))
	for _, id := range ids {
		if a, ok := s.accounts[id]; ok {
			out[id] = a
		}
	}
	return out, nil
}

// ListAccounts returns all accounts ordered by account number.
func (s *Store) ListAccounts(_ context.Context) ([]ledger.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ledger.Account, 0, len(s.accounts))
	for _, a := range s.accounts {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

// AccountNumberExists reports whether any account carries the number.
func (s *Store) AccountNumberExists(_ context.Context, number int) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.accounts {
		if a.Number == number {
			return true, nil
		}
	}
	return false, nil
}

// AccountHasPostedLines reports whether any posted entry line references the
// account.
func (s *Store) AccountHasPostedLines(_ context.Context, accountID uuid.UUID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.entries {
		if e.Status != ledger.EntryStatusPosted && e.Status != ledger.EntryStatusVoided {
			continue
		}
		for _, ln := range e.Lines {
			if ln.AccountID == accountID {
				return true, nil
			}
		}
	}
	return false, nil
}

// --- Account writes ---

// CreateAccount persists a new account.
func (s *Store) CreateAccount(_ context.Context, a ledger.Account) (ledger.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, other := range s.accounts {
		if other.Number == a.Number {
			return ledger.Account{}, errs.ErrDuplicateNumber
		}
	}
	s.accounts[a.ID] = a
	return a, nil
}

// UpdateAccount persists changes to an account.
func (s *Store) UpdateAccount(_ context.Context, a ledger.Account) (ledger.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[a.ID]; !ok {
		return ledger.Account{}, errs.ErrNotFound
	}
	s.accounts[a.ID] = a
	return a, nil
}

// --- Entry reads ---

// GetEntry returns an entry by id with its lines.
func (s *Store) GetEntry(_ context.Context, entryID uuid.UUID) (ledger.JournalEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[entryID]
	if !ok {
		return ledger.JournalEntry{}, errs.ErrNotFound
	}
	return copyEntry(e), nil
}

// ListEntries returns entries matching the filter, ordered by (date, entry
// number).
func (s *Store) ListEntries(_ context.Context, f journal.EntryFilter) ([]ledger.JournalEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ledger.JournalEntry, 0, len(s.entries))
	for _, e := range s.entries {
		if f.Status != nil && e.Status != *f.Status {
			continue
		}
		if f.From != nil && e.Date.Before(*f.From) {
			continue
		}
		if f.To != nil && e.Date.After(*f.To) {
			continue
		}
		out = append(out, copyEntry(e))
	}
	sortEntries(out)
	return out, nil
}

// PostedEntries returns posted entries dated within [from, to]. Void
// reversals are skipped together with their voided originals, so a void pair
// nets to zero in every aggregation built on top of this.
func (s *Store) PostedEntries(_ context.Context, from, to *time.Time) ([]ledger.JournalEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ledger.JournalEntry, 0, len(s.entries))
	for _, e := range s.entries {
		if e.Status != ledger.EntryStatusPosted || e.Source == ledger.SourceVoidReversal {
			continue
		}
		if from != nil && e.Date.Before(*from) {
			continue
		}
		if to != nil && e.Date.After(*to) {
			continue
		}
		out = append(out, copyEntry(e))
	}
	sortEntries(out)
	return out, nil
}

// --- Entry writes ---

// CreateJournalEntry assigns the next entry number and stores the entry with
// its lines.
func (s *Store) CreateJournalEntry(_ context.Context, entry ledger.JournalEntry) (ledger.JournalEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entrySeq++
	entry.EntryNumber = s.entrySeq
	e := copyEntry(&entry)
	s.entries[e.ID] = &e
	return copyEntry(&e), nil
}

// MarkEntryPosted transitions draft -> posted.
func (s *Store) MarkEntryPosted(_ context.Context, entryID uuid.UUID, at time.Time) (ledger.JournalEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[entryID]
	if !ok {
		return ledger.JournalEntry{}, errs.ErrNotFound
	}
	if e.Status != ledger.EntryStatusDraft {
		return ledger.JournalEntry{}, errs.ErrInvalidTransition
	}
	e.Status = ledger.EntryStatusPosted
	e.UpdatedAt = at
	return copyEntry(e), nil
}

// VoidJournalEntry stamps the original voided and stores the posted reversal
// under the same lock, so racing voids cannot both succeed.
func (s *Store) VoidJournalEntry(_ context.Context, entryID uuid.UUID, reason string, at time.Time, reversal ledger.JournalEntry) (ledger.JournalEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[entryID]
	if !ok {
		return ledger.JournalEntry{}, errs.ErrNotFound
	}
	if e.Status != ledger.EntryStatusPosted {
		return ledger.JournalEntry{}, errs.ErrInvalidTransition
	}
	e.Status = ledger.EntryStatusVoided
	e.VoidReason = reason
	voidedAt := at
	e.VoidedAt = &voidedAt
	e.UpdatedAt = at

	s.entrySeq++
	reversal.EntryNumber = s.entrySeq
	r := copyEntry(&reversal)
	s.entries[r.ID] = &r
	return copyEntry(&r), nil
}

// SetLineReconciled flips the reconciled flag on a line.
func (s *Store) SetLineReconciled(_ context.Context, lineID uuid.UUID, reconciled bool, at *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.entries {
		for i := range e.Lines {
			if e.Lines[i].ID == lineID {
				e.Lines[i].Reconciled = reconciled
				e.Lines[i].ReconciledAt = at
				return nil
			}
		}
	}
	return errs.ErrNotFound
}

// --- Recurring rules ---

// GetRule returns a rule by id.
func (s *Store) GetRule(_ context.Context, ruleID uuid.UUID) (ledger.RecurringRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rules[ruleID]
	if !ok {
		return ledger.RecurringRule{}, errs.ErrNotFound
	}
	return r, nil
}

// ListRules returns all rules ordered by name.
func (s *Store) ListRules(_ context.Context) ([]ledger.RecurringRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ledger.RecurringRule, 0, len(s.rules))
	for _, r := range s.rules {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// DueRules returns active rules with NextOccurrence <= now, oldest first.
func (s *Store) DueRules(_ context.Context, now time.Time) ([]ledger.RecurringRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ledger.RecurringRule, 0)
	for _, r := range s.rules {
		if r.Status == ledger.RuleStatusActive && !r.NextOccurrence.After(now) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NextOccurrence.Before(out[j].NextOccurrence) })
	return out, nil
}

// CreateRule persists a new rule.
func (s *Store) CreateRule(_ context.Context, r ledger.RecurringRule) (ledger.RecurringRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules[r.ID] = r
	return r, nil
}

// UpdateRule persists changes to a rule.
func (s *Store) UpdateRule(_ context.Context, r ledger.RecurringRule) (ledger.RecurringRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rules[r.ID]; !ok {
		return ledger.RecurringRule{}, errs.ErrNotFound
	}
	s.rules[r.ID] = r
	return r, nil
}

// --- Budgets ---

// CreateBudget persists a budget row.
func (s *Store) CreateBudget(_ context.Context, b ledger.Budget) (ledger.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.budgets[b.ID] = b
	return b, nil
}

// ListBudgets returns all budget rows ordered by period start.
func (s *Store) ListBudgets(_ context.Context) ([]ledger.Budget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ledger.Budget, 0, len(s.budgets))
	for _, b := range s.budgets {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PeriodStart.Before(out[j].PeriodStart) })
	return out, nil
}

// DeleteBudget removes a budget row.
func (s *Store) DeleteBudget(_ context.Context, budgetID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.budgets[budgetID]; !ok {
		return errs.ErrNotFound
	}
	delete(s.budgets, budgetID)
	return nil
}

// --- Reconciliations ---

// CreateReconciliation persists a reconciliation.
func (s *Store) CreateReconciliation(_ context.Context, r ledger.Reconciliation) (ledger.Reconciliation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reconciliations[r.ID] = r
	return r, nil
}

// UpdateReconciliation persists changes to a reconciliation.
func (s *Store) UpdateReconciliation(_ context.Context, r ledger.Reconciliation) (ledger.Reconciliation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.reconciliations[r.ID]; !ok {
		return ledger.Reconciliation{}, errs.ErrNotFound
	}
	s.reconciliations[r.ID] = r
	return r, nil
}

// GetReconciliation returns a reconciliation by id.
func (s *Store) GetReconciliation(_ context.Context, recID uuid.UUID) (ledger.Reconciliation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reconciliations[recID]
	if !ok {
		return ledger.Reconciliation{}, errs.ErrNotFound
	}
	return r, nil
}

// ListReconciliations returns all reconciliations, newest statement first.
func (s *Store) ListReconciliations(_ context.Context) ([]ledger.Reconciliation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ledger.Reconciliation, 0, len(s.reconciliations))
	for _, r := range s.reconciliations {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StatementDate.After(out[j].StatementDate) })
	return out, nil
}

// copyEntry returns a deep copy so callers never alias stored line slices.
func copyEntry(e *ledger.JournalEntry) ledger.JournalEntry {
	out := *e
	out.Lines = make([]ledger.JournalLine, len(e.Lines))
	copy(out.Lines, e.Lines)
	return out
}

func sortEntries(entries []ledger.JournalEntry) {
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].Date.Equal(entries[j].Date) {
			return entries[i].Date.Before(entries[j].Date)
		}
		return entries[i].EntryNumber < entries[j].EntryNumber
	})
}
