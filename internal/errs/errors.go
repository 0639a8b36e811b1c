package errs

import "errors"

// Common sentinel errors for cross-layer signaling.
var (
	ErrNotFound = errors.New("not_found")
	ErrInvalid  = errors.New("invalid")
	// ErrDuplicateNumber indicates an account number collision on create.
	ErrDuplicateNumber = errors.New("duplicate_account_number")
	// ErrSystemAccount indicates an attempt to change the number or type of
	// a system-flagged account.
	ErrSystemAccount = errors.New("system_account")
	// ErrAccountInUse blocks deactivation of an account referenced by
	// posted lines.
	ErrAccountInUse = errors.New("account_in_use")
	// ErrInvalidTransition indicates a journal entry state machine
	// violation (e.g. posting a non-draft entry).
	ErrInvalidTransition = errors.New("invalid_transition")
	// ErrUnbalanced indicates sum(debits) != sum(credits) at post time.
	ErrUnbalanced = errors.New("unbalanced_entry")
	// ErrTooFewLines indicates an entry with fewer than two lines.
	ErrTooFewLines = errors.New("insufficient_lines")
	// ErrRuleNotActive indicates a generate request against a cancelled
	// recurring rule.
	ErrRuleNotActive = errors.New("rule_not_active")
	// ErrCompleted indicates a write against a completed reconciliation.
	ErrCompleted = errors.New("reconciliation_completed")
)
