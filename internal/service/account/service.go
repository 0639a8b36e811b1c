// Package account implements the chart-of-accounts rules: globally unique
// account numbers, protected system accounts, and soft-deletes blocked while
// posted lines still reference the account.
package account

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jmheath/books/internal/errs"
	"github.com/jmheath/books/internal/ledger"
)

// Repo defines read operations needed by the service.
type Repo interface {
	GetAccount(ctx context.Context, accountID uuid.UUID) (ledger.Account, error)
	ListAccounts(ctx context.Context) ([]ledger.Account, error)
	// AccountNumberExists reports whether any account carries the number.
	AccountNumberExists(ctx context.Context, number int) (bool, error)
	// AccountHasPostedLines reports whether any posted entry line
	// references the account.
	AccountHasPostedLines(ctx context.Context, accountID uuid.UUID) (bool, error)
}

// Writer defines write operations needed by the service.
type Writer interface {
	CreateAccount(ctx context.Context, a ledger.Account) (ledger.Account, error)
	UpdateAccount(ctx context.Context, a ledger.Account) (ledger.Account, error)
}

// UpdateInput carries the editable fields of an account. Nil means "leave
// unchanged". Number and Type edits are rejected for system accounts.
type UpdateInput struct {
	Number   *int
	Name     *string
	Type     *ledger.AccountType
	Subtype  *string
	ParentID *uuid.UUID
}

// Service exposes the account registry operations.
type Service interface {
	Create(ctx context.Context, a ledger.Account) (ledger.Account, error)
	Get(ctx context.Context, accountID uuid.UUID) (ledger.Account, error)
	List(ctx context.Context) ([]ledger.Account, error)
	Update(ctx context.Context, accountID uuid.UUID, in UpdateInput) (ledger.Account, error)
	Deactivate(ctx context.Context, accountID uuid.UUID) error
}

type service struct {
	repo   Repo
	writer Writer
	now    func() time.Time
}

// New constructs the account service.
func New(repo Repo, writer Writer) Service {
	return &service{repo: repo, writer: writer, now: time.Now}
}

func (s *service) Create(ctx context.Context, a ledger.Account) (ledger.Account, error) {
	if a.Name == "" {
		return ledger.Account{}, fmt.Errorf("%w: name is required", errs.ErrInvalid)
	}
	if a.Number <= 0 {
		return ledger.Account{}, fmt.Errorf("%w: account number must be positive", errs.ErrInvalid)
	}
	if !ledger.ValidAccountType(a.Type) {
		return ledger.Account{}, fmt.Errorf("%w: invalid account type", errs.ErrInvalid)
	}
	if a.NormalBalance == "" {
		a.NormalBalance = ledger.NormalBalanceFor(a.Type)
	}
	if a.NormalBalance != ledger.SideDebit && a.NormalBalance != ledger.SideCredit {
		return ledger.Account{}, fmt.Errorf("%w: invalid normal balance", errs.ErrInvalid)
	}
	exists, err := s.repo.AccountNumberExists(ctx, a.Number)
	if err != nil {
		return ledger.Account{}, err
	}
	if exists {
		return ledger.Account{}, errs.ErrDuplicateNumber
	}
	now := s.now().UTC()
	a.ID = uuid.New()
	a.Active = true
	a.CreatedAt = now
	a.UpdatedAt = now
	return s.writer.CreateAccount(ctx, a)
}

func (s *service) Get(ctx context.Context, accountID uuid.UUID) (ledger.Account, error) {
	if accountID == uuid.Nil {
		return ledger.Account{}, errs.ErrInvalid
	}
	return s.repo.GetAccount(ctx, accountID)
}

func (s *service) List(ctx context.Context) ([]ledger.Account, error) {
	return s.repo.ListAccounts(ctx)
}

func (s *service) Update(ctx context.Context, accountID uuid.UUID, in UpdateInput) (ledger.Account, error) {
	current, err := s.repo.GetAccount(ctx, accountID)
	if err != nil {
		return ledger.Account{}, err
	}
	if current.System && (in.Number != nil && *in.Number != current.Number ||
		in.Type != nil && *in.Type != current.Type) {
		return ledger.Account{}, errs.ErrSystemAccount
	}
	if in.Number != nil && *in.Number != current.Number {
		exists, err := s.repo.AccountNumberExists(ctx, *in.Number)
		if err != nil {
			return ledger.Account{}, err
		}
		if exists {
			return ledger.Account{}, errs.ErrDuplicateNumber
		}
		current.Number = *in.Number
	}
	if in.Type != nil {
		if !ledger.ValidAccountType(*in.Type) {
			return ledger.Account{}, fmt.Errorf("%w: invalid account type", errs.ErrInvalid)
		}
		current.Type = *in.Type
	}
	if in.Name != nil {
		if *in.Name == "" {
			return ledger.Account{}, fmt.Errorf("%w: name is required", errs.ErrInvalid)
		}
		current.Name = *in.Name
	}
	if in.Subtype != nil {
		current.Subtype = *in.Subtype
	}
	if in.ParentID != nil {
		if *in.ParentID == uuid.Nil {
			current.ParentID = nil
		} else {
			pid := *in.ParentID
			current.ParentID = &pid
		}
	}
	current.UpdatedAt = s.now().UTC()
	return s.writer.UpdateAccount(ctx, current)
}

// Deactivate flips Active=false. Accounts referenced by posted lines stay
// active so historical reports keep resolving.
func (s *service) Deactivate(ctx context.Context, accountID uuid.UUID) error {
	acc, err := s.repo.GetAccount(ctx, accountID)
	if err != nil {
		return err
	}
	inUse, err := s.repo.AccountHasPostedLines(ctx, accountID)
	if err != nil {
		return err
	}
	if inUse {
		return errs.ErrAccountInUse
	}
	acc.Active = false
	acc.UpdatedAt = s.now().UTC()
	_, err = s.writer.UpdateAccount(ctx, acc)
	return err
}
