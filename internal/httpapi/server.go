// Package httpapi wires the HTTP surface of the bookkeeping service. It
// keeps handlers thin, delegating business rules to the service layer.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"

	chi "github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/jmheath/books/internal/ledger"
	"github.com/jmheath/books/internal/service/account"
	"github.com/jmheath/books/internal/service/balance"
	"github.com/jmheath/books/internal/service/journal"
	"github.com/jmheath/books/internal/service/reconcile"
	"github.com/jmheath/books/internal/service/recurring"
	"github.com/jmheath/books/internal/service/report"
)

// BudgetStore abstracts budget persistence. Budgets are read-only relative
// to the ledger, so they need no service layer of their own.
type BudgetStore interface {
	CreateBudget(ctx context.Context, b ledger.Budget) (ledger.Budget, error)
	ListBudgets(ctx context.Context) ([]ledger.Budget, error)
	DeleteBudget(ctx context.Context, budgetID uuid.UUID) error
}

// Store is the union of storage interfaces the API needs. Both the memory
// and postgres stores satisfy it.
type Store interface {
	account.Repo
	account.Writer
	journal.Repo
	journal.Writer
	balance.Repo
	report.Repo
	recurring.Repo
	recurring.Writer
	reconcile.Repo
	reconcile.Writer
	BudgetStore
}

// ReadyChecker is optionally implemented by stores to indicate readiness.
type ReadyChecker interface {
	Ready(ctx context.Context) error
}

// Server wires handlers and middleware using chi.
type Server struct {
	accounts  account.Service
	entries   journal.Service
	balances  balance.Service
	recurring recurring.Service
	reports   report.Service
	reconcile reconcile.Service
	budgets   BudgetStore
	store     Store
	log       *slog.Logger
	rt        *chi.Mux
}

// New constructs the HTTP server with routes and middleware. The logger is
// used by request/response logging and panic recovery.
func New(store Store, logger *slog.Logger) *Server {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(requestLogger(logger))
	r.Use(recoverer(logger))
	r.Use(metricsMiddleware)

	entries := journal.New(store, store)
	s := &Server{
		accounts:  account.New(store, store),
		entries:   entries,
		balances:  balance.New(store),
		recurring: recurring.New(store, store, entries),
		reports:   report.New(store),
		reconcile: reconcile.New(store, store),
		budgets:   store,
		store:     store,
		log:       logger,
		rt:        r,
	}
	s.routes()
	return s
}

// Handler exposes the configured http.Handler.
func (s *Server) Handler() http.Handler { return s.rt }

// routes declares the public HTTP API endpoints.
func (s *Server) routes() {
	// Accounts
	s.rt.Post("/v1/accounts", s.postAccount)
	s.rt.Get("/v1/accounts", s.listAccounts)
	s.rt.Get("/v1/accounts/{id}", s.getAccount)
	s.rt.Patch("/v1/accounts/{id}", s.updateAccount)
	s.rt.Delete("/v1/accounts/{id}", s.deactivateAccount)
	s.rt.Get("/v1/accounts/{id}/balance", s.getAccountBalance)
	// Journal entries
	s.rt.Post("/v1/journal-entries", s.postEntry)
	s.rt.Get("/v1/journal-entries", s.listEntries)
	s.rt.Get("/v1/journal-entries/{id}", s.getEntry)
	s.rt.Post("/v1/journal-entries/{id}/post", s.postEntryTransition)
	s.rt.Post("/v1/journal-entries/{id}/void", s.voidEntry)
	// Transaction helpers
	s.rt.Post("/v1/transactions/deposit", s.deposit)
	s.rt.Post("/v1/transactions/transfer", s.transfer)
	// Recurring rules
	s.rt.Post("/v1/recurring-rules", s.postRule)
	s.rt.Get("/v1/recurring-rules", s.listRules)
	s.rt.Get("/v1/recurring-rules/{id}", s.getRule)
	s.rt.Post("/v1/recurring-rules/{id}/generate", s.generateRule)
	s.rt.Post("/v1/recurring-rules/process-due", s.processDueRules)
	s.rt.Delete("/v1/recurring-rules/{id}", s.cancelRule)
	// Budgets
	s.rt.Post("/v1/budgets", s.postBudget)
	s.rt.Get("/v1/budgets", s.listBudgets)
	s.rt.Delete("/v1/budgets/{id}", s.deleteBudget)
	// Reconciliations
	s.rt.Post("/v1/reconciliations", s.postReconciliation)
	s.rt.Get("/v1/reconciliations", s.listReconciliations)
	s.rt.Get("/v1/reconciliations/{id}", s.getReconciliation)
	s.rt.Post("/v1/reconciliations/{id}/lines/{lineID}", s.setReconciliationLine)
	s.rt.Post("/v1/reconciliations/{id}/complete", s.completeReconciliation)
	// Reports
	s.rt.Get("/v1/reports/trial-balance", s.trialBalance)
	s.rt.Get("/v1/reports/balance-sheet", s.balanceSheet)
	s.rt.Get("/v1/reports/profit-loss", s.profitLoss)
	s.rt.Get("/v1/reports/budget-vs-actual", s.budgetVsActual)
	// Health and metrics (unversioned)
	s.rt.Get("/healthz", s.healthz)
	s.rt.Get("/readyz", s.readyz)
	s.rt.Handle("/metrics", metricsHandler())
}
