package httpapi

import (
	"net/http"
	"time"

	chi "github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/jmheath/books/internal/ledger"
	"github.com/jmheath/books/internal/service/recurring"
)

func (s *Server) postRule(w http.ResponseWriter, r *http.Request) {
	var req postRuleRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid JSON: "+err.Error())
		return
	}
	lines := make([]ledger.TemplateLine, 0, len(req.Lines))
	for _, ln := range req.Lines {
		lines = append(lines, ledger.TemplateLine{
			AccountID: ln.AccountID,
			Debit:     ln.Debit,
			Credit:    ln.Credit,
			Memo:      ln.Memo,
		})
	}
	created, err := s.recurring.CreateRule(r.Context(), recurring.RuleInput{
		Name:        req.Name,
		Frequency:   req.Frequency,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		AutoPost:    req.AutoPost,
		Description: req.Description,
		Lines:       lines,
	})
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	toJSON(w, http.StatusCreated, toRuleResponse(created))
}

func (s *Server) listRules(w http.ResponseWriter, r *http.Request) {
	rules, err := s.recurring.List(r.Context())
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	out := make([]ruleResponse, 0, len(rules))
	for _, rule := range rules {
		out = append(out, toRuleResponse(rule))
	}
	toJSON(w, http.StatusOK, out)
}

func (s *Server) getRule(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, "invalid rule id")
		return
	}
	rule, err := s.recurring.Get(r.Context(), id)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	toJSON(w, http.StatusOK, toRuleResponse(rule))
}

// POST /v1/recurring-rules/{id}/generate
func (s *Server) generateRule(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, "invalid rule id")
		return
	}
	entry, err := s.recurring.Generate(r.Context(), id)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	toJSON(w, http.StatusCreated, toEntryResponse(entry))
}

// POST /v1/recurring-rules/process-due
func (s *Server) processDueRules(w http.ResponseWriter, r *http.Request) {
	results, err := s.recurring.ProcessDue(r.Context(), time.Now().UTC())
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	out := make([]processResultResponse, 0, len(results))
	for _, res := range results {
		pr := processResultResponse{RuleID: res.RuleID, RuleName: res.RuleName, EntryID: res.EntryID}
		if res.Err != nil {
			pr.Error = res.Err.Error()
		}
		out = append(out, pr)
	}
	toJSON(w, http.StatusOK, out)
}

// DELETE /v1/recurring-rules/{id} cancels the rule; generated entries stay.
func (s *Server) cancelRule(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, "invalid rule id")
		return
	}
	rule, err := s.recurring.Cancel(r.Context(), id)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	toJSON(w, http.StatusOK, toRuleResponse(rule))
}
