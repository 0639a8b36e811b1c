// Package postgres provides a pgx-backed storage implementation that
// satisfies the repository and writer interfaces used by the services.
//
// It is intentionally small and explicit, mapping between domain entities
// and SQL rows. Entry numbers come from the entry_number_seq database
// sequence, and multi-row writes (entry + lines, void + reversal) run inside
// a single transaction.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jmheath/books/internal/errs"
	"github.com/jmheath/books/internal/ledger"
	"github.com/jmheath/books/internal/service/journal"
)

// Store holds a pgx connection pool and implements the read/write
// interfaces used across the service layer. All methods are safe for
// concurrent use.
type Store struct {
	pool *pgxpool.Pool
}

// Open establishes a pgx pool using the provided connection string.
func Open(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &Store{pool: pool}, nil
}

// Close releases the underlying pool.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Ready pings the pool to verify connectivity.
func (s *Store) Ready(ctx context.Context) error { return s.pool.Ping(ctx) }

const accountCols = `id, number, name, type, subtype, parent_id, normal_balance, currency, system, active, created_at, updated_at`

func scanAccount(row pgx.Row) (ledger.Account, error) {
	var a ledger.Account
	err := row.Scan(&a.ID, &a.Number, &a.Name, &a.Type, &a.Subtype, &a.ParentID,
		&a.NormalBalance, &a.Currency, &a.System, &a.Active, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

// --- Account reads ---

// GetAccount fetches a single account by id.
func (s *Store) GetAccount(ctx context.Context, accountID uuid.UUID) (ledger.Account, error) {
	a, err := scanAccount(s.pool.QueryRow(ctx, `
		select `+accountCols+` from accounts where id = $1
	`, accountID))
	if errors.Is(err, pgx.ErrNoRows) {
		return ledger.Account{}, errs.ErrNotFound
	}
	if err != nil {
		return ledger.Account{}, err
	}
	return a, nil
}

// AccountsByIDs returns accounts filtered by IDs.
func (s *Store) AccountsByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]ledger.Account, error) {
	if len(ids) == 0 {
		return map[uuid.UUID]ledger.Account{}, nil
	}
	rows, err := s.pool.Query(ctx, `
		select `+accountCols+` from accounts where id = any($1)
	`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[uuid.UUID]ledger.Account)
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out[a.ID] = a
	}
	return out, rows.Err()
}

// ListAccounts returns all accounts ordered by account number.
func (s *Store) ListAccounts(ctx context.Context) ([]ledger.Account, error) {
	rows, err := s.pool.Query(ctx, `
		select `+accountCols+` from accounts order by number asc
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]ledger.Account, 0)
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// AccountNumberExists reports whether any account carries the number.
func (s *Store) AccountNumberExists(ctx context.Context, number int) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `
		select exists(select 1 from accounts where number = $1)
	`, number).Scan(&exists)
	return exists, err
}

// AccountHasPostedLines reports whether any line of a posted or voided entry
// references the account.
func (s *Store) AccountHasPostedLines(ctx context.Context, accountID uuid.UUID) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `
		select exists(
			select 1
			from entry_lines l
			join entries e on e.id = l.entry_id
			where l.account_id = $1 and e.status in ('posted', 'voided')
		)
	`, accountID).Scan(&exists)
	return exists, err
}

// --- Account writes ---

// CreateAccount inserts an account row. A unique index on number surfaces
// collisions as errs.ErrDuplicateNumber.
func (s *Store) CreateAccount(ctx context.Context, a ledger.Account) (ledger.Account, error) {
	_, err := s.pool.Exec(ctx, `
		insert into accounts (`+accountCols+`)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	`, a.ID, a.Number, a.Name, a.Type, a.Subtype, a.ParentID,
		a.NormalBalance, a.Currency, a.System, a.Active, a.CreatedAt, a.UpdatedAt)
	if isUniqueViolation(err) {
		return ledger.Account{}, errs.ErrDuplicateNumber
	}
	if err != nil {
		return ledger.Account{}, err
	}
	return a, nil
}

// UpdateAccount updates an account row.
func (s *Store) UpdateAccount(ctx context.Context, a ledger.Account) (ledger.Account, error) {
	ct, err := s.pool.Exec(ctx, `
		update accounts
		set number=$1, name=$2, type=$3, subtype=$4, parent_id=$5, active=$6, updated_at=$7
		where id=$8
	`, a.Number, a.Name, a.Type, a.Subtype, a.ParentID, a.Active, a.UpdatedAt, a.ID)
	if isUniqueViolation(err) {
		return ledger.Account{}, errs.ErrDuplicateNumber
	}
	if err != nil {
		return ledger.Account{}, err
	}
	if ct.RowsAffected() == 0 {
		return ledger.Account{}, errs.ErrNotFound
	}
	return a, nil
}

// --- Entry reads ---

const entryCols = `id, entry_number, date, description, memo, reference, status, source,
	voided_entry_id, void_reason, voided_at, recurring_rule_id, created_by, created_at, updated_at`

func scanEntry(row pgx.Row) (ledger.JournalEntry, error) {
	var e ledger.JournalEntry
	err := row.Scan(&e.ID, &e.EntryNumber, &e.Date, &e.Description, &e.Memo, &e.Reference,
		&e.Status, &e.Source, &e.VoidedEntryID, &e.VoidReason, &e.VoidedAt,
		&e.RecurringRuleID, &e.CreatedBy, &e.CreatedAt, &e.UpdatedAt)
	return e, err
}

// GetEntry returns an entry by id with lines populated.
func (s *Store) GetEntry(ctx context.Context, entryID uuid.UUID) (ledger.JournalEntry, error) {
	e, err := scanEntry(s.pool.QueryRow(ctx, `
		select `+entryCols+` from entries where id = $1
	`, entryID))
	if errors.Is(err, pgx.ErrNoRows) {
		return ledger.JournalEntry{}, errs.ErrNotFound
	}
	if err != nil {
		return ledger.JournalEntry{}, err
	}
	if err := s.loadLines(ctx, []*ledger.JournalEntry{&e}); err != nil {
		return ledger.JournalEntry{}, err
	}
	return e, nil
}

// ListEntries returns entries matching the filter with lines populated,
// ordered by (date, entry number).
func (s *Store) ListEntries(ctx context.Context, f journal.EntryFilter) ([]ledger.JournalEntry, error) {
	q := `select ` + entryCols + ` from entries where 1=1`
	args := make([]any, 0, 3)
	if f.Status != nil {
		args = append(args, *f.Status)
		q += fmt.Sprintf(" and status = $%d", len(args))
	}
	if f.From != nil {
		args = append(args, *f.From)
		q += fmt.Sprintf(" and date >= $%d", len(args))
	}
	if f.To != nil {
		args = append(args, *f.To)
		q += fmt.Sprintf(" and date <= $%d", len(args))
	}
	q += " order by date asc, entry_number asc"
	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	entries := make([]ledger.JournalEntry, 0)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	refs := make([]*ledger.JournalEntry, len(entries))
	for i := range entries {
		refs[i] = &entries[i]
	}
	if err := s.loadLines(ctx, refs); err != nil {
		return nil, err
	}
	return entries, nil
}

// PostedEntries returns posted entries dated within [from, to]. Void
// reversals are skipped together with their voided originals, so a void pair
// nets to zero in every aggregation built on top of this.
func (s *Store) PostedEntries(ctx context.Context, from, to *time.Time) ([]ledger.JournalEntry, error) {
	q := `select ` + entryCols + ` from entries where status = 'posted' and source <> 'void_reversal'`
	args := make([]any, 0, 2)
	if from != nil {
		args = append(args, *from)
		q += fmt.Sprintf(" and date >= $%d", len(args))
	}
	if to != nil {
		args = append(args, *to)
		q += fmt.Sprintf(" and date <= $%d", len(args))
	}
	q += " order by date asc, entry_number asc"
	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	entries := make([]ledger.JournalEntry, 0)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	refs := make([]*ledger.JournalEntry, len(entries))
	for i := range entries {
		refs[i] = &entries[i]
	}
	if err := s.loadLines(ctx, refs); err != nil {
		return nil, err
	}
	return entries, nil
}

// loadLines populates Lines on the given entries, ordered by position.
func (s *Store) loadLines(ctx context.Context, entries []*ledger.JournalEntry) error {
	if len(entries) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, 0, len(entries))
	idx := make(map[uuid.UUID]*ledger.JournalEntry, len(entries))
	for _, e := range entries {
		e.Lines = []ledger.JournalLine{}
		ids = append(ids, e.ID)
		idx[e.ID] = e
	}
	rows, err := s.pool.Query(ctx, `
		select id, entry_id, account_id, debit, credit, memo, position, reconciled, reconciled_at
		from entry_lines
		where entry_id = any($1)
		order by entry_id, position asc
	`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var ln ledger.JournalLine
		if err := rows.Scan(&ln.ID, &ln.EntryID, &ln.AccountID, &ln.Debit, &ln.Credit,
			&ln.Memo, &ln.Position, &ln.Reconciled, &ln.ReconciledAt); err != nil {
			return err
		}
		if e := idx[ln.EntryID]; e != nil {
			e.Lines = append(e.Lines, ln)
		}
	}
	return rows.Err()
}

// --- Entry writes ---

// CreateJournalEntry inserts an entry and its lines in one transaction,
// drawing the entry number from entry_number_seq.
func (s *Store) CreateJournalEntry(ctx context.Context, entry ledger.JournalEntry) (ledger.JournalEntry, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return ledger.JournalEntry{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()
	created, err := insertEntry(ctx, tx, entry)
	if err != nil {
		return ledger.JournalEntry{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return ledger.JournalEntry{}, err
	}
	return created, nil
}

// MarkEntryPosted transitions draft -> posted with a status guard in the
// update itself, so concurrent posts cannot both succeed.
func (s *Store) MarkEntryPosted(ctx context.Context, entryID uuid.UUID, at time.Time) (ledger.JournalEntry, error) {
	ct, err := s.pool.Exec(ctx, `
		update entries set status='posted', updated_at=$1
		where id=$2 and status='draft'
	`, at, entryID)
	if err != nil {
		return ledger.JournalEntry{}, err
	}
	if ct.RowsAffected() == 0 {
		// Distinguish a missing entry from a wrong-status one.
		if _, err := s.GetEntry(ctx, entryID); err != nil {
			return ledger.JournalEntry{}, err
		}
		return ledger.JournalEntry{}, errs.ErrInvalidTransition
	}
	return s.GetEntry(ctx, entryID)
}

// VoidJournalEntry stamps the original voided and inserts the posted
// reversal in the same transaction. The guarded update settles racing voids:
// only one caller sees RowsAffected()==1.
func (s *Store) VoidJournalEntry(ctx context.Context, entryID uuid.UUID, reason string, at time.Time, reversal ledger.JournalEntry) (ledger.JournalEntry, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return ledger.JournalEntry{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()
	ct, err := tx.Exec(ctx, `
		update entries set status='voided', void_reason=$1, voided_at=$2, updated_at=$2
		where id=$3 and status='posted'
	`, reason, at, entryID)
	if err != nil {
		return ledger.JournalEntry{}, err
	}
	if ct.RowsAffected() == 0 {
		if _, err := s.GetEntry(ctx, entryID); err != nil {
			return ledger.JournalEntry{}, err
		}
		return ledger.JournalEntry{}, errs.ErrInvalidTransition
	}
	created, err := insertEntry(ctx, tx, reversal)
	if err != nil {
		return ledger.JournalEntry{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return ledger.JournalEntry{}, err
	}
	return created, nil
}

// SetLineReconciled flips the reconciled flag on a line.
func (s *Store) SetLineReconciled(ctx context.Context, lineID uuid.UUID, reconciled bool, at *time.Time) error {
	ct, err := s.pool.Exec(ctx, `
		update entry_lines set reconciled=$1, reconciled_at=$2 where id=$3
	`, reconciled, at, lineID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// insertEntry writes the entry header and its lines within the transaction,
// assigning the entry number from the database sequence.
func insertEntry(ctx context.Context, tx pgx.Tx, e ledger.JournalEntry) (ledger.JournalEntry, error) {
	if err := tx.QueryRow(ctx, `select nextval('entry_number_seq')`).Scan(&e.EntryNumber); err != nil {
		return ledger.JournalEntry{}, err
	}
	if _, err := tx.Exec(ctx, `
		insert into entries (`+entryCols+`)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
	`, e.ID, e.EntryNumber, e.Date, e.Description, e.Memo, e.Reference, e.Status, e.Source,
		e.VoidedEntryID, e.VoidReason, e.VoidedAt, e.RecurringRuleID, e.CreatedBy, e.CreatedAt, e.UpdatedAt); err != nil {
		return ledger.JournalEntry{}, err
	}
	for _, ln := range e.Lines {
		if _, err := tx.Exec(ctx, `
			insert into entry_lines (id, entry_id, account_id, debit, credit, memo, position, reconciled, reconciled_at)
			values ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		`, ln.ID, e.ID, ln.AccountID, ln.Debit, ln.Credit, ln.Memo, ln.Position, ln.Reconciled, ln.ReconciledAt); err != nil {
			return ledger.JournalEntry{}, fmt.Errorf("insert line: %w", err)
		}
	}
	return e, nil
}

// --- Recurring rules ---

const ruleCols = `id, name, frequency, start_date, end_date, next_occurrence, auto_post,
	status, description, lines, last_generated_at, created_at, updated_at`

func scanRule(row pgx.Row) (ledger.RecurringRule, error) {
	var r ledger.RecurringRule
	var linesJSON []byte
	err := row.Scan(&r.ID, &r.Name, &r.Frequency, &r.StartDate, &r.EndDate, &r.NextOccurrence,
		&r.AutoPost, &r.Status, &r.Description, &linesJSON, &r.LastGeneratedAt, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return r, err
	}
	if len(linesJSON) > 0 {
		if err := json.Unmarshal(linesJSON, &r.Lines); err != nil {
			return r, err
		}
	}
	return r, nil
}

// GetRule returns a rule by id.
func (s *Store) GetRule(ctx context.Context, ruleID uuid.UUID) (ledger.RecurringRule, error) {
	r, err := scanRule(s.pool.QueryRow(ctx, `
		select `+ruleCols+` from recurring_rules where id = $1
	`, ruleID))
	if errors.Is(err, pgx.ErrNoRows) {
		return ledger.RecurringRule{}, errs.ErrNotFound
	}
	return r, err
}

// ListRules returns all rules ordered by name.
func (s *Store) ListRules(ctx context.Context) ([]ledger.RecurringRule, error) {
	return s.queryRules(ctx, `select `+ruleCols+` from recurring_rules order by name asc`)
}

// DueRules returns active rules with next_occurrence <= now.
func (s *Store) DueRules(ctx context.Context, now time.Time) ([]ledger.RecurringRule, error) {
	return s.queryRules(ctx, `
		select `+ruleCols+` from recurring_rules
		where status = 'active' and next_occurrence <= $1
		order by next_occurrence asc
	`, now)
}

func (s *Store) queryRules(ctx context.Context, q string, args ...any) ([]ledger.RecurringRule, error) {
	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]ledger.RecurringRule, 0)
	for rows.Next() {
		r, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// CreateRule inserts a rule with its template lines stored as jsonb.
func (s *Store) CreateRule(ctx context.Context, r ledger.RecurringRule) (ledger.RecurringRule, error) {
	linesJSON, err := json.Marshal(r.Lines)
	if err != nil {
		return ledger.RecurringRule{}, err
	}
	_, err = s.pool.Exec(ctx, `
		insert into recurring_rules (`+ruleCols+`)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
	`, r.ID, r.Name, r.Frequency, r.StartDate, r.EndDate, r.NextOccurrence, r.AutoPost,
		r.Status, r.Description, linesJSON, r.LastGeneratedAt, r.CreatedAt, r.UpdatedAt)
	if err != nil {
		return ledger.RecurringRule{}, err
	}
	return r, nil
}

// UpdateRule updates the mutable scheduling fields of a rule.
func (s *Store) UpdateRule(ctx context.Context, r ledger.RecurringRule) (ledger.RecurringRule, error) {
	ct, err := s.pool.Exec(ctx, `
		update recurring_rules
		set next_occurrence=$1, status=$2, last_generated_at=$3, updated_at=$4
		where id=$5
	`, r.NextOccurrence, r.Status, r.LastGeneratedAt, r.UpdatedAt, r.ID)
	if err != nil {
		return ledger.RecurringRule{}, err
	}
	if ct.RowsAffected() == 0 {
		return ledger.RecurringRule{}, errs.ErrNotFound
	}
	return r, nil
}

// --- Budgets ---

// CreateBudget inserts a budget row.
func (s *Store) CreateBudget(ctx context.Context, b ledger.Budget) (ledger.Budget, error) {
	_, err := s.pool.Exec(ctx, `
		insert into budgets (id, account_id, period_type, period_start, period_end, amount, notes, created_at)
		values ($1,$2,$3,$4,$5,$6,$7,$8)
	`, b.ID, b.AccountID, b.PeriodType, b.PeriodStart, b.PeriodEnd, b.Amount, b.Notes, b.CreatedAt)
	if err != nil {
		return ledger.Budget{}, err
	}
	return b, nil
}

// ListBudgets returns all budget rows ordered by period start.
func (s *Store) ListBudgets(ctx context.Context) ([]ledger.Budget, error) {
	rows, err := s.pool.Query(ctx, `
		select id, account_id, period_type, period_start, period_end, amount, notes, created_at
		from budgets
		order by period_start asc
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]ledger.Budget, 0)
	for rows.Next() {
		var b ledger.Budget
		if err := rows.Scan(&b.ID, &b.AccountID, &b.PeriodType, &b.PeriodStart, &b.PeriodEnd,
			&b.Amount, &b.Notes, &b.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// DeleteBudget removes a budget row.
func (s *Store) DeleteBudget(ctx context.Context, budgetID uuid.UUID) error {
	ct, err := s.pool.Exec(ctx, `delete from budgets where id = $1`, budgetID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// --- Reconciliations ---

const recCols = `id, bank_account_id, statement_date, statement_balance, reconciled_balance, status, completed_at, created_at`

func scanReconciliation(row pgx.Row) (ledger.Reconciliation, error) {
	var r ledger.Reconciliation
	err := row.Scan(&r.ID, &r.BankAccountID, &r.StatementDate, &r.StatementBalance,
		&r.ReconciledBalance, &r.Status, &r.CompletedAt, &r.CreatedAt)
	return r, err
}

// CreateReconciliation inserts a reconciliation row.
func (s *Store) CreateReconciliation(ctx context.Context, r ledger.Reconciliation) (ledger.Reconciliation, error) {
	_, err := s.pool.Exec(ctx, `
		insert into reconciliations (`+recCols+`)
		values ($1,$2,$3,$4,$5,$6,$7,$8)
	`, r.ID, r.BankAccountID, r.StatementDate, r.StatementBalance, r.ReconciledBalance,
		r.Status, r.CompletedAt, r.CreatedAt)
	if err != nil {
		return ledger.Reconciliation{}, err
	}
	return r, nil
}

// UpdateReconciliation updates a reconciliation row.
func (s *Store) UpdateReconciliation(ctx context.Context, r ledger.Reconciliation) (ledger.Reconciliation, error) {
	ct, err := s.pool.Exec(ctx, `
		update reconciliations
		set reconciled_balance=$1, status=$2, completed_at=$3
		where id=$4
	`, r.ReconciledBalance, r.Status, r.CompletedAt, r.ID)
	if err != nil {
		return ledger.Reconciliation{}, err
	}
	if ct.RowsAffected() == 0 {
		return ledger.Reconciliation{}, errs.ErrNotFound
	}
	return r, nil
}

// GetReconciliation returns a reconciliation by id.
func (s *Store) GetReconciliation(ctx context.Context, recID uuid.UUID) (ledger.Reconciliation, error) {
	r, err := scanReconciliation(s.pool.QueryRow(ctx, `
		select `+recCols+` from reconciliations where id = $1
	`, recID))
	if errors.Is(err, pgx.ErrNoRows) {
		return ledger.Reconciliation{}, errs.ErrNotFound
	}
	return r, err
}

// ListReconciliations returns all reconciliations, newest statement first.
func (s *Store) ListReconciliations(ctx context.Context) ([]ledger.Reconciliation, error) {
	rows, err := s.pool.Query(ctx, `
		select `+recCols+` from reconciliations order by statement_date desc
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]ledger.Reconciliation, 0)
	for rows.Next() {
		r, err := scanReconciliation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
