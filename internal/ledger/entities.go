package ledger

import (
	"time"

	"github.com/google/uuid"
)

// Side represents the accounting position of a journal line.
type Side string

const (
	// SideDebit records a value on the debit side of an account.
	SideDebit Side = "debit"
	// SideCredit records a value on the credit side of an account.
	SideCredit Side = "credit"
)

// AccountType enumerates the broad classification of an account in the ledger.
type AccountType string

const (
	// AccountTypeAsset increases on the debit side and holds owned resources.
	AccountTypeAsset AccountType = "asset"
	// AccountTypeLiability increases on the credit side and tracks obligations.
	AccountTypeLiability AccountType = "liability"
	// AccountTypeEquity captures the owner's residual interest in the entity.
	AccountTypeEquity AccountType = "equity"
	// AccountTypeRevenue represents inflows that increase equity.
	AccountTypeRevenue AccountType = "revenue"
	// AccountTypeExpense represents outflows that decrease equity.
	AccountTypeExpense AccountType = "expense"
)

// ValidAccountType reports whether t is one of the five account types.
func ValidAccountType(t AccountType) bool {
	switch t {
	case AccountTypeAsset, AccountTypeLiability, AccountTypeEquity, AccountTypeRevenue, AccountTypeExpense:
		return true
	}
	return false
}

// EntryStatus tracks the lifecycle of a journal entry.
// Legal transitions: draft -> posted -> voided. Voided is terminal, and the
// lines of a posted or voided entry are never mutated.
type EntryStatus string

const (
	EntryStatusDraft  EntryStatus = "draft"
	EntryStatusPosted EntryStatus = "posted"
	EntryStatusVoided EntryStatus = "voided"
)

// EntrySource tags where a journal entry originated.
type EntrySource string

const (
	SourceManual       EntrySource = "manual"
	SourceRecurring    EntrySource = "recurring"
	SourceVoidReversal EntrySource = "void_reversal"
	SourceCRMSync      EntrySource = "crm_sync"
)

// Account represents one row of the chart of accounts.
type Account struct {
	ID uuid.UUID
	// Number is the unique chart-of-accounts number used for sorting and
	// range classification (e.g. 1000-1099 = cash).
	Number int
	Name   string
	Type   AccountType
	// Subtype is free-form (e.g. "current_asset").
	Subtype string
	// ParentID links to a parent account for hierarchy. Stored only; nothing
	// beyond storage is enforced.
	ParentID *uuid.UUID
	// NormalBalance is the side on which the account naturally increases.
	NormalBalance Side
	Currency      string
	// System marks reserved accounts whose number and type cannot change.
	System bool
	// Active is the soft-delete flag. Accounts referenced by posted lines
	// are never hard-deleted.
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// JournalEntry is a dated transaction container holding >=2 balanced lines.
type JournalEntry struct {
	ID uuid.UUID
	// EntryNumber is assigned from a global monotonic sequence at creation.
	// The sequence is gap-tolerant.
	EntryNumber int64
	// Date is the effective accounting date, distinct from CreatedAt.
	Date        time.Time
	Description string
	Memo        string
	Reference   string
	Status      EntryStatus
	Source      EntrySource
	// VoidedEntryID back-references the entry this one reverses when
	// Source == SourceVoidReversal.
	VoidedEntryID *uuid.UUID
	VoidReason    string
	VoidedAt      *time.Time
	// RecurringRuleID back-references the rule that generated this entry.
	RecurringRuleID *uuid.UUID
	CreatedBy       string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	// Lines are ordered by Position.
	Lines []JournalLine
}

// JournalLine is one account-side effect within an entry. Exactly one of
// Debit/Credit is nonzero; both are stored explicitly rather than as a
// signed amount, matching the bookkeeping convention.
type JournalLine struct {
	ID        uuid.UUID
	EntryID   uuid.UUID
	AccountID uuid.UUID
	// Debit and Credit are integer minor units (cents), >= 0.
	Debit  int64
	Credit int64
	Memo   string
	// Position preserves input order for display.
	Position int
	// Reconciled marks the line as matched during bank reconciliation.
	Reconciled   bool
	ReconciledAt *time.Time
}

// Frequency is the schedule step of a recurring rule.
type Frequency string

const (
	FrequencyDaily     Frequency = "daily"
	FrequencyWeekly    Frequency = "weekly"
	FrequencyBiweekly  Frequency = "biweekly"
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
	FrequencyYearly    Frequency = "yearly"
)

// ValidFrequency reports whether f is a known schedule step.
func ValidFrequency(f Frequency) bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyBiweekly, FrequencyMonthly, FrequencyQuarterly, FrequencyYearly:
		return true
	}
	return false
}

// RuleStatus is the lifecycle state of a recurring rule.
type RuleStatus string

const (
	RuleStatusActive    RuleStatus = "active"
	RuleStatusCancelled RuleStatus = "cancelled"
)

// TemplateLine is one line of a recurring rule's entry template. The JSON
// tags fix the representation stored in the recurring_rules.lines column.
type TemplateLine struct {
	AccountID uuid.UUID `json:"account_id"`
	Debit     int64     `json:"debit"`
	Credit    int64     `json:"credit"`
	Memo      string    `json:"memo,omitempty"`
}

// RecurringRule materializes template journal entries on a schedule.
type RecurringRule struct {
	ID        uuid.UUID
	Name      string
	Frequency Frequency
	StartDate time.Time
	// EndDate is optional; the rule auto-cancels once NextOccurrence
	// advances past it.
	EndDate *time.Time
	// NextOccurrence is the scheduling cursor: the date the next generated
	// entry will carry.
	NextOccurrence time.Time
	// AutoPost controls whether generated entries land posted or draft.
	AutoPost        bool
	Status          RuleStatus
	Description     string
	Lines           []TemplateLine
	LastGeneratedAt *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// PeriodType is the granularity of a budget row.
type PeriodType string

const (
	PeriodMonthly   PeriodType = "monthly"
	PeriodQuarterly PeriodType = "quarterly"
	PeriodYearly    PeriodType = "yearly"
)

// ValidPeriodType reports whether p is a known budget granularity.
func ValidPeriodType(p PeriodType) bool {
	switch p {
	case PeriodMonthly, PeriodQuarterly, PeriodYearly:
		return true
	}
	return false
}

// Budget is a signed target for one account over one period. Actuals are
// always computed from the ledger on demand, never stored.
type Budget struct {
	ID         uuid.UUID
	AccountID  uuid.UUID
	PeriodType PeriodType
	// PeriodStart/PeriodEnd are explicit timestamps, not derived from
	// PeriodType.
	PeriodStart time.Time
	PeriodEnd   time.Time
	Amount      int64
	Notes       string
	CreatedAt   time.Time
}

// ReconciliationStatus is the state of a bank reconciliation.
type ReconciliationStatus string

const (
	ReconciliationInProgress ReconciliationStatus = "in_progress"
	ReconciliationCompleted  ReconciliationStatus = "completed"
)

// Reconciliation matches posted lines of a bank account against an external
// statement balance. Completion is a one-way transition.
type Reconciliation struct {
	ID            uuid.UUID
	BankAccountID uuid.UUID
	StatementDate time.Time
	// StatementBalance is supplied by the caller from the bank statement.
	StatementBalance int64
	// ReconciledBalance is computed from reconciled lines at completion.
	ReconciledBalance int64
	Status            ReconciliationStatus
	CompletedAt       *time.Time
	CreatedAt         time.Time
}
