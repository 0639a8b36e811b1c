// Package recurring materializes template journal entries on a schedule and
// advances or cancels the generating rules.
package recurring

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jmheath/books/internal/errs"
	"github.com/jmheath/books/internal/ledger"
	"github.com/jmheath/books/internal/service/journal"
)

// Repo defines read operations needed by the processor.
type Repo interface {
	GetRule(ctx context.Context, ruleID uuid.UUID) (ledger.RecurringRule, error)
	ListRules(ctx context.Context) ([]ledger.RecurringRule, error)
	// DueRules returns active rules with NextOccurrence <= now.
	DueRules(ctx context.Context, now time.Time) ([]ledger.RecurringRule, error)
}

// Writer defines write operations needed by the processor.
type Writer interface {
	CreateRule(ctx context.Context, r ledger.RecurringRule) (ledger.RecurringRule, error)
	UpdateRule(ctx context.Context, r ledger.RecurringRule) (ledger.RecurringRule, error)
}

// RuleInput is a requested recurring rule prior to validation.
type RuleInput struct {
	Name        string
	Frequency   ledger.Frequency
	StartDate   time.Time
	EndDate     *time.Time
	AutoPost    bool
	Description string
	Lines       []ledger.TemplateLine
}

// Result reports the outcome of generating one rule during a batch run.
type Result struct {
	RuleID   uuid.UUID
	RuleName string
	EntryID  *uuid.UUID
	Err      error
}

// Service exposes rule management and entry generation.
type Service interface {
	CreateRule(ctx context.Context, in RuleInput) (ledger.RecurringRule, error)
	Get(ctx context.Context, ruleID uuid.UUID) (ledger.RecurringRule, error)
	List(ctx context.Context) ([]ledger.RecurringRule, error)
	// Generate materializes one entry from the rule and advances its cursor.
	Generate(ctx context.Context, ruleID uuid.UUID) (ledger.JournalEntry, error)
	// ProcessDue generates one entry per due rule, collecting per-rule
	// results without aborting the batch on a single failure.
	ProcessDue(ctx context.Context, now time.Time) ([]Result, error)
	Cancel(ctx context.Context, ruleID uuid.UUID) (ledger.RecurringRule, error)
}

type service struct {
	repo    Repo
	writer  Writer
	entries journal.Service
	now     func() time.Time
}

// New constructs the recurring rule processor.
func New(repo Repo, writer Writer, entries journal.Service) Service {
	return &service{repo: repo, writer: writer, entries: entries, now: time.Now}
}

func (s *service) CreateRule(ctx context.Context, in RuleInput) (ledger.RecurringRule, error) {
	if in.Name == "" {
		return ledger.RecurringRule{}, fmt.Errorf("%w: name is required", errs.ErrInvalid)
	}
	if !ledger.ValidFrequency(in.Frequency) {
		return ledger.RecurringRule{}, fmt.Errorf("%w: invalid frequency", errs.ErrInvalid)
	}
	if in.StartDate.IsZero() {
		return ledger.RecurringRule{}, fmt.Errorf("%w: start_date is required", errs.ErrInvalid)
	}
	if in.EndDate != nil && in.EndDate.Before(in.StartDate) {
		return ledger.RecurringRule{}, fmt.Errorf("%w: end_date precedes start_date", errs.ErrInvalid)
	}
	if len(in.Lines) < 2 {
		return ledger.RecurringRule{}, errs.ErrTooFewLines
	}
	var debits, credits int64
	for i, ln := range in.Lines {
		if ln.AccountID == uuid.Nil {
			return ledger.RecurringRule{}, fmt.Errorf("%w: line[%d]: account_id is required", errs.ErrInvalid, i)
		}
		if ln.Debit < 0 || ln.Credit < 0 {
			return ledger.RecurringRule{}, fmt.Errorf("%w: line[%d]: amounts must be >= 0", errs.ErrInvalid, i)
		}
		if (ln.Debit == 0) == (ln.Credit == 0) {
			return ledger.RecurringRule{}, fmt.Errorf("%w: line[%d]: exactly one of debit/credit must be nonzero", errs.ErrInvalid, i)
		}
		debits += ln.Debit
		credits += ln.Credit
	}
	// Templates must balance up front so generation never produces an entry
	// that cannot post.
	if debits != credits {
		return ledger.RecurringRule{}, errs.ErrUnbalanced
	}
	now := s.now().UTC()
	r := ledger.RecurringRule{
		ID:             uuid.New(),
		Name:           in.Name,
		Frequency:      in.Frequency,
		StartDate:      in.StartDate,
		EndDate:        in.EndDate,
		NextOccurrence: in.StartDate,
		AutoPost:       in.AutoPost,
		Status:         ledger.RuleStatusActive,
		Description:    in.Description,
		Lines:          in.Lines,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	return s.writer.CreateRule(ctx, r)
}

func (s *service) Get(ctx context.Context, ruleID uuid.UUID) (ledger.RecurringRule, error) {
	if ruleID == uuid.Nil {
		return ledger.RecurringRule{}, errs.ErrInvalid
	}
	return s.repo.GetRule(ctx, ruleID)
}

func (s *service) List(ctx context.Context) ([]ledger.RecurringRule, error) {
	return s.repo.ListRules(ctx)
}

func (s *service) Generate(ctx context.Context, ruleID uuid.UUID) (ledger.JournalEntry, error) {
	rule, err := s.repo.GetRule(ctx, ruleID)
	if err != nil {
		return ledger.JournalEntry{}, err
	}
	if rule.Status != ledger.RuleStatusActive {
		return ledger.JournalEntry{}, errs.ErrRuleNotActive
	}
	status := ledger.EntryStatusDraft
	if rule.AutoPost {
		status = ledger.EntryStatusPosted
	}
	desc := rule.Description
	if desc == "" {
		desc = rule.Name
	}
	lines := make([]journal.LineInput, 0, len(rule.Lines))
	for _, ln := range rule.Lines {
		lines = append(lines, journal.LineInput{
			AccountID: ln.AccountID,
			Debit:     ln.Debit,
			Credit:    ln.Credit,
			Memo:      ln.Memo,
		})
	}
	rid := rule.ID
	entry, err := s.entries.Create(ctx, journal.EntryInput{
		Date:            rule.NextOccurrence,
		Description:     desc,
		Status:          status,
		Source:          ledger.SourceRecurring,
		RecurringRuleID: &rid,
		Lines:           lines,
	})
	if err != nil {
		return ledger.JournalEntry{}, err
	}

	now := s.now().UTC()
	rule.NextOccurrence = ledger.Advance(rule.NextOccurrence, rule.Frequency)
	rule.LastGeneratedAt = &now
	rule.UpdatedAt = now
	if rule.EndDate != nil && rule.NextOccurrence.After(*rule.EndDate) {
		rule.Status = ledger.RuleStatusCancelled
	}
	if _, err := s.writer.UpdateRule(ctx, rule); err != nil {
		return ledger.JournalEntry{}, err
	}
	return entry, nil
}

func (s *service) ProcessDue(ctx context.Context, now time.Time) ([]Result, error) {
	due, err := s.repo.DueRules(ctx, now)
	if err != nil {
		return nil, err
	}
	results := make([]Result, 0, len(due))
	for _, rule := range due {
		res := Result{RuleID: rule.ID, RuleName: rule.Name}
		entry, err := s.Generate(ctx, rule.ID)
		if err != nil {
			res.Err = err
		} else {
			id := entry.ID
			res.EntryID = &id
		}
		results = append(results, res)
	}
	return results, nil
}

func (s *service) Cancel(ctx context.Context, ruleID uuid.UUID) (ledger.RecurringRule, error) {
	rule, err := s.repo.GetRule(ctx, ruleID)
	if err != nil {
		return ledger.RecurringRule{}, err
	}
	if rule.Status == ledger.RuleStatusCancelled {
		return rule, nil
	}
	rule.Status = ledger.RuleStatusCancelled
	rule.UpdatedAt = s.now().UTC()
	return s.writer.UpdateRule(ctx, rule)
}
