package httpapi

import (
	"net/http"
	"strconv"

	"github.com/jmheath/books/internal/ledger"
)

// GET /v1/reports/trial-balance?from=&to= (unix ms)
func (s *Server) trialBalance(w http.ResponseWriter, r *http.Request) {
	from, err := parseMillisParam(r, "from")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	to, err := parseMillisParam(r, "to")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	tb, err := s.reports.TrialBalance(r.Context(), from, to)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	toJSON(w, http.StatusOK, tb)
}

// GET /v1/reports/balance-sheet?as_of= (unix ms)
func (s *Server) balanceSheet(w http.ResponseWriter, r *http.Request) {
	asOf, err := parseMillisParam(r, "as_of")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	bs, err := s.reports.BalanceSheet(r.Context(), asOf)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	toJSON(w, http.StatusOK, bs)
}

// GET /v1/reports/profit-loss?from=&to= (unix ms)
func (s *Server) profitLoss(w http.ResponseWriter, r *http.Request) {
	from, err := parseMillisParam(r, "from")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	to, err := parseMillisParam(r, "to")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	pl, err := s.reports.ProfitLoss(r.Context(), from, to)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	toJSON(w, http.StatusOK, pl)
}

// GET /v1/reports/budget-vs-actual?year=&period_type=
func (s *Server) budgetVsActual(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil || year <= 0 {
		badRequest(w, "year is required")
		return
	}
	pt := ledger.PeriodType(r.URL.Query().Get("period_type"))
	if !ledger.ValidPeriodType(pt) {
		badRequest(w, "invalid period_type")
		return
	}
	rows, err := s.reports.BudgetVsActual(r.Context(), year, pt)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	toJSON(w, http.StatusOK, rows)
}
