// Package journal implements the journal store rules: balanced entries, the
// draft -> posted -> voided state machine, and reversal-based voiding.
package journal

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/jmheath/books/internal/errs"
	"github.com/jmheath/books/internal/ledger"
)

// EntryFilter narrows entry listings.
type EntryFilter struct {
	Status *ledger.EntryStatus
	From   *time.Time
	To     *time.Time
}

// Repo defines read operations needed by the service.
type Repo interface {
	AccountsByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]ledger.Account, error)
	GetEntry(ctx context.Context, entryID uuid.UUID) (ledger.JournalEntry, error)
	ListEntries(ctx context.Context, f EntryFilter) ([]ledger.JournalEntry, error)
}

// Writer defines write operations needed by the service. Implementations
// assign entry numbers from their own monotonic sequence and persist an
// entry together with its lines atomically.
type Writer interface {
	CreateJournalEntry(ctx context.Context, e ledger.JournalEntry) (ledger.JournalEntry, error)
	// MarkEntryPosted transitions draft -> posted, failing with
	// errs.ErrInvalidTransition when the entry is not draft.
	MarkEntryPosted(ctx context.Context, entryID uuid.UUID, at time.Time) (ledger.JournalEntry, error)
	// VoidJournalEntry stamps the original voided and persists the posted
	// reversal in the same unit of work, failing with
	// errs.ErrInvalidTransition when the entry is not posted.
	VoidJournalEntry(ctx context.Context, entryID uuid.UUID, reason string, at time.Time, reversal ledger.JournalEntry) (ledger.JournalEntry, error)
}

// LineInput is one requested line of a new entry.
type LineInput struct {
	AccountID uuid.UUID
	Debit     int64
	Credit    int64
	Memo      string
}

// EntryInput is a requested journal entry prior to validation.
type EntryInput struct {
	Date        time.Time
	Description string
	Memo        string
	Reference   string
	// Status must be draft or posted; posting directly requires balance.
	Status          ledger.EntryStatus
	Source          ledger.EntrySource
	RecurringRuleID *uuid.UUID
	CreatedBy       string
	Lines           []LineInput
}

// Service exposes validation, creation and lifecycle transitions of journal
// entries, plus the common two-line transaction helpers.
type Service interface {
	Validate(ctx context.Context, in EntryInput) error
	Create(ctx context.Context, in EntryInput) (ledger.JournalEntry, error)
	Get(ctx context.Context, entryID uuid.UUID) (ledger.JournalEntry, error)
	List(ctx context.Context, f EntryFilter) ([]ledger.JournalEntry, error)
	Post(ctx context.Context, entryID uuid.UUID) (ledger.JournalEntry, error)
	// Void returns the generated reversal entry.
	Void(ctx context.Context, entryID uuid.UUID, reason string) (ledger.JournalEntry, error)
	Deposit(ctx context.Context, bankAccountID, incomeAccountID uuid.UUID, amount int64, date time.Time, description string) (ledger.JournalEntry, error)
	Transfer(ctx context.Context, fromAccountID, toAccountID uuid.UUID, amount int64, date time.Time, description string) (ledger.JournalEntry, error)
}

type service struct {
	repo   Repo
	writer Writer
	now    func() time.Time
}

// New constructs the journal service.
func New(repo Repo, writer Writer) Service {
	return &service{repo: repo, writer: writer, now: time.Now}
}

func (s *service) Validate(ctx context.Context, in EntryInput) error {
	if in.Date.IsZero() {
		return fmt.Errorf("%w: date is required", errs.ErrInvalid)
	}
	if in.Description == "" {
		return fmt.Errorf("%w: description is required", errs.ErrInvalid)
	}
	switch in.Status {
	case ledger.EntryStatusDraft, ledger.EntryStatusPosted:
	default:
		return fmt.Errorf("%w: status must be draft or posted", errs.ErrInvalid)
	}
	if len(in.Lines) < 2 {
		return errs.ErrTooFewLines
	}
	ids := make([]uuid.UUID, 0, len(in.Lines))
	for i, ln := range in.Lines {
		if ln.AccountID == uuid.Nil {
			return fmt.Errorf("%w: line[%d]: account_id is required", errs.ErrInvalid, i)
		}
		if ln.Debit < 0 || ln.Credit < 0 {
			return fmt.Errorf("%w: line[%d]: amounts must be >= 0", errs.ErrInvalid, i)
		}
		if (ln.Debit == 0) == (ln.Credit == 0) {
			return fmt.Errorf("%w: line[%d]: exactly one of debit/credit must be nonzero", errs.ErrInvalid, i)
		}
		ids = append(ids, ln.AccountID)
	}
	// Drafts may be unbalanced; balance is enforced when the entry posts.
	if in.Status == ledger.EntryStatusPosted {
		if err := checkBalanced(linesOf(in)); err != nil {
			return err
		}
	}
	accounts, err := s.repo.AccountsByIDs(ctx, ids)
	if err != nil {
		return err
	}
	for i, ln := range in.Lines {
		if _, ok := accounts[ln.AccountID]; !ok {
			return fmt.Errorf("%w: line[%d]: account %s", errs.ErrNotFound, i, ln.AccountID)
		}
	}
	return nil
}

func (s *service) Create(ctx context.Context, in EntryInput) (ledger.JournalEntry, error) {
	if err := s.Validate(ctx, in); err != nil {
		return ledger.JournalEntry{}, err
	}
	now := s.now().UTC()
	source := in.Source
	if source == "" {
		source = ledger.SourceManual
	}
	entryID := uuid.New()
	lines := make([]ledger.JournalLine, 0, len(in.Lines))
	for i, ln := range in.Lines {
		lines = append(lines, ledger.JournalLine{
			ID:        uuid.New(),
			EntryID:   entryID,
			AccountID: ln.AccountID,
			Debit:     ln.Debit,
			Credit:    ln.Credit,
			Memo:      ln.Memo,
			Position:  i,
		})
	}
	e := ledger.JournalEntry{
		ID:              entryID,
		Date:            in.Date,
		Description:     in.Description,
		Memo:            in.Memo,
		Reference:       in.Reference,
		Status:          in.Status,
		Source:          source,
		RecurringRuleID: in.RecurringRuleID,
		CreatedBy:       in.CreatedBy,
		CreatedAt:       now,
		UpdatedAt:       now,
		Lines:           lines,
	}
	return s.writer.CreateJournalEntry(ctx, e)
}

func (s *service) Get(ctx context.Context, entryID uuid.UUID) (ledger.JournalEntry, error) {
	if entryID == uuid.Nil {
		return ledger.JournalEntry{}, errs.ErrInvalid
	}
	return s.repo.GetEntry(ctx, entryID)
}

func (s *service) List(ctx context.Context, f EntryFilter) ([]ledger.JournalEntry, error) {
	return s.repo.ListEntries(ctx, f)
}

// Post promotes a draft entry to posted after re-checking the balance
// invariant. On failure the entry remains draft.
func (s *service) Post(ctx context.Context, entryID uuid.UUID) (ledger.JournalEntry, error) {
	e, err := s.repo.GetEntry(ctx, entryID)
	if err != nil {
		return ledger.JournalEntry{}, err
	}
	if e.Status != ledger.EntryStatusDraft {
		return ledger.JournalEntry{}, errs.ErrInvalidTransition
	}
	if len(e.Lines) < 2 {
		return ledger.JournalEntry{}, errs.ErrTooFewLines
	}
	if err := checkBalanced(e.Lines); err != nil {
		return ledger.JournalEntry{}, err
	}
	return s.writer.MarkEntryPosted(ctx, entryID, s.now().UTC())
}

// Void neutralizes a posted entry without touching its lines: the original is
// stamped voided and a fresh posted reversal entry is written with debit and
// credit swapped per line, preserving positions. The reversal carries the
// original's date so ranged reports net to zero in the same period.
func (s *service) Void(ctx context.Context, entryID uuid.UUID, reason string) (ledger.JournalEntry, error) {
	orig, err := s.repo.GetEntry(ctx, entryID)
	if err != nil {
		return ledger.JournalEntry{}, err
	}
	if orig.Status != ledger.EntryStatusPosted {
		return ledger.JournalEntry{}, errs.ErrInvalidTransition
	}
	now := s.now().UTC()
	revID := uuid.New()
	lines := make([]ledger.JournalLine, 0, len(orig.Lines))
	for _, ln := range orig.Lines {
		lines = append(lines, ledger.JournalLine{
			ID:        uuid.New(),
			EntryID:   revID,
			AccountID: ln.AccountID,
			Debit:     ln.Credit,
			Credit:    ln.Debit,
			Memo:      ln.Memo,
			Position:  ln.Position,
		})
	}
	voided := orig.ID
	reversal := ledger.JournalEntry{
		ID:            revID,
		Date:          orig.Date,
		Description:   "Void of entry #" + strconv.FormatInt(orig.EntryNumber, 10) + ": " + orig.Description,
		Memo:          orig.Memo,
		Reference:     orig.Reference,
		Status:        ledger.EntryStatusPosted,
		Source:        ledger.SourceVoidReversal,
		VoidedEntryID: &voided,
		CreatedBy:     orig.CreatedBy,
		CreatedAt:     now,
		UpdatedAt:     now,
		Lines:         lines,
	}
	return s.writer.VoidJournalEntry(ctx, entryID, reason, now, reversal)
}

// Deposit records money entering a bank account from an income account as an
// immediately posted two-line entry.
func (s *service) Deposit(ctx context.Context, bankAccountID, incomeAccountID uuid.UUID, amount int64, date time.Time, description string) (ledger.JournalEntry, error) {
	if amount <= 0 {
		return ledger.JournalEntry{}, fmt.Errorf("%w: amount must be > 0", errs.ErrInvalid)
	}
	return s.Create(ctx, EntryInput{
		Date:        date,
		Description: description,
		Status:      ledger.EntryStatusPosted,
		Source:      ledger.SourceManual,
		Lines: []LineInput{
			{AccountID: bankAccountID, Debit: amount},
			{AccountID: incomeAccountID, Credit: amount},
		},
	})
}

// Transfer moves money between two accounts as an immediately posted
// two-line entry: debit the destination, credit the source.
func (s *service) Transfer(ctx context.Context, fromAccountID, toAccountID uuid.UUID, amount int64, date time.Time, description string) (ledger.JournalEntry, error) {
	if amount <= 0 {
		return ledger.JournalEntry{}, fmt.Errorf("%w: amount must be > 0", errs.ErrInvalid)
	}
	if fromAccountID == toAccountID {
		return ledger.JournalEntry{}, fmt.Errorf("%w: from and to accounts must differ", errs.ErrInvalid)
	}
	return s.Create(ctx, EntryInput{
		Date:        date,
		Description: description,
		Status:      ledger.EntryStatusPosted,
		Source:      ledger.SourceManual,
		Lines: []LineInput{
			{AccountID: toAccountID, Debit: amount},
			{AccountID: fromAccountID, Credit: amount},
		},
	})
}

// checkBalanced enforces sum(debits) == sum(credits) in exact minor units.
func checkBalanced(lines []ledger.JournalLine) error {
	var debits, credits int64
	for _, ln := range lines {
		debits += ln.Debit
		credits += ln.Credit
	}
	if debits != credits {
		return fmt.Errorf("%w: debits %d != credits %d", errs.ErrUnbalanced, debits, credits)
	}
	return nil
}

func linesOf(in EntryInput) []ledger.JournalLine {
	out := make([]ledger.JournalLine, 0, len(in.Lines))
	for _, ln := range in.Lines {
		out = append(out, ledger.JournalLine{Debit: ln.Debit, Credit: ln.Credit})
	}
	return out
}
