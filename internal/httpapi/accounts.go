package httpapi

import (
	"net/http"

	chi "github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/jmheath/books/internal/ledger"
	"github.com/jmheath/books/internal/service/account"
)

func (s *Server) postAccount(w http.ResponseWriter, r *http.Request) {
	var req postAccountRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid JSON: "+err.Error())
		return
	}
	currency := req.Currency
	if currency == "" {
		currency = "USD"
	}
	created, err := s.accounts.Create(r.Context(), ledger.Account{
		Number:        req.Number,
		Name:          req.Name,
		Type:          req.Type,
		Subtype:       req.Subtype,
		ParentID:      req.ParentID,
		NormalBalance: req.NormalBalance,
		Currency:      currency,
		System:        req.System,
	})
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	toJSON(w, http.StatusCreated, toAccountResponse(created))
}

func (s *Server) listAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.accounts.List(r.Context())
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	out := make([]accountResponse, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, toAccountResponse(a))
	}
	toJSON(w, http.StatusOK, out)
}

func (s *Server) getAccount(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, "invalid account id")
		return
	}
	a, err := s.accounts.Get(r.Context(), id)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	toJSON(w, http.StatusOK, toAccountResponse(a))
}

func (s *Server) updateAccount(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, "invalid account id")
		return
	}
	var req patchAccountRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid JSON: "+err.Error())
		return
	}
	updated, err := s.accounts.Update(r.Context(), id, account.UpdateInput{
		Number:   req.Number,
		Name:     req.Name,
		Type:     req.Type,
		Subtype:  req.Subtype,
		ParentID: req.ParentID,
	})
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	toJSON(w, http.StatusOK, toAccountResponse(updated))
}

func (s *Server) deactivateAccount(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, "invalid account id")
		return
	}
	if err := s.accounts.Deactivate(r.Context(), id); err != nil {
		writeDomainErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GET /v1/accounts/{id}/balance?as_of=<unix ms>
func (s *Server) getAccountBalance(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, "invalid account id")
		return
	}
	asOf, err := parseMillisParam(r, "as_of")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	acc, err := s.accounts.Get(r.Context(), id)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	bal, err := s.balances.AccountBalance(r.Context(), id, asOf)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	toJSON(w, http.StatusOK, balanceResponse{
		AccountID: id,
		AsOf:      asOf,
		Currency:  acc.Currency,
		Balance:   bal,
		Amount:    formatMinor(acc.Currency, bal),
	})
}
