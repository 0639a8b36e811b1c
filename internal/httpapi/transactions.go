package httpapi

import "net/http"

// POST /v1/transactions/deposit
func (s *Server) deposit(w http.ResponseWriter, r *http.Request) {
	var req depositRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid JSON: "+err.Error())
		return
	}
	entry, err := s.entries.Deposit(r.Context(), req.BankAccountID, req.IncomeAccountID,
		req.Amount, req.Date, req.Description)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	toJSON(w, http.StatusCreated, toEntryResponse(entry))
}

// POST /v1/transactions/transfer
func (s *Server) transfer(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid JSON: "+err.Error())
		return
	}
	entry, err := s.entries.Transfer(r.Context(), req.FromAccountID, req.ToAccountID,
		req.Amount, req.Date, req.Description)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	toJSON(w, http.StatusCreated, toEntryResponse(entry))
}
