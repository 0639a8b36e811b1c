package httpapi

import (
	"net/http"

	chi "github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func (s *Server) postReconciliation(w http.ResponseWriter, r *http.Request) {
	var req postReconciliationRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid JSON: "+err.Error())
		return
	}
	created, err := s.reconcile.Start(r.Context(), req.BankAccountID, req.StatementDate, req.StatementBalance)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	toJSON(w, http.StatusCreated, toReconciliationResponse(created))
}

func (s *Server) listReconciliations(w http.ResponseWriter, r *http.Request) {
	recs, err := s.reconcile.List(r.Context())
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	out := make([]reconciliationResponse, 0, len(recs))
	for _, rec := range recs {
		out = append(out, toReconciliationResponse(rec))
	}
	toJSON(w, http.StatusOK, out)
}

func (s *Server) getReconciliation(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, "invalid reconciliation id")
		return
	}
	rec, err := s.reconcile.Get(r.Context(), id)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	toJSON(w, http.StatusOK, toReconciliationResponse(rec))
}

// POST /v1/reconciliations/{id}/lines/{lineID}
func (s *Server) setReconciliationLine(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, "invalid reconciliation id")
		return
	}
	lineID, err := uuid.Parse(chi.URLParam(r, "lineID"))
	if err != nil {
		badRequest(w, "invalid line id")
		return
	}
	var req setLineRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid JSON: "+err.Error())
		return
	}
	if err := s.reconcile.SetLine(r.Context(), id, lineID, req.Reconciled); err != nil {
		writeDomainErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// POST /v1/reconciliations/{id}/complete
func (s *Server) completeReconciliation(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, "invalid reconciliation id")
		return
	}
	rec, err := s.reconcile.Complete(r.Context(), id)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	toJSON(w, http.StatusOK, toReconciliationResponse(rec))
}
