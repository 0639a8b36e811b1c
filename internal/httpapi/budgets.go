package httpapi

import (
	"net/http"
	"time"

	chi "github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/jmheath/books/internal/ledger"
)

func (s *Server) postBudget(w http.ResponseWriter, r *http.Request) {
	var req postBudgetRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid JSON: "+err.Error())
		return
	}
	if !ledger.ValidPeriodType(req.PeriodType) {
		badRequest(w, "invalid period_type")
		return
	}
	if req.PeriodStart.IsZero() || req.PeriodEnd.IsZero() || req.PeriodEnd.Before(req.PeriodStart) {
		badRequest(w, "period_start/period_end are required and must be ordered")
		return
	}
	// Budgets hang off accounts; reject dangling references up front.
	if _, err := s.accounts.Get(r.Context(), req.AccountID); err != nil {
		writeDomainErr(w, err)
		return
	}
	created, err := s.budgets.CreateBudget(r.Context(), ledger.Budget{
		ID:          uuid.New(),
		AccountID:   req.AccountID,
		PeriodType:  req.PeriodType,
		PeriodStart: req.PeriodStart,
		PeriodEnd:   req.PeriodEnd,
		Amount:      req.Amount,
		Notes:       req.Notes,
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	toJSON(w, http.StatusCreated, toBudgetResponse(created))
}

func (s *Server) listBudgets(w http.ResponseWriter, r *http.Request) {
	budgets, err := s.budgets.ListBudgets(r.Context())
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	out := make([]budgetResponse, 0, len(budgets))
	for _, b := range budgets {
		out = append(out, toBudgetResponse(b))
	}
	toJSON(w, http.StatusOK, out)
}

func (s *Server) deleteBudget(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, "invalid budget id")
		return
	}
	if err := s.budgets.DeleteBudget(r.Context(), id); err != nil {
		writeDomainErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
