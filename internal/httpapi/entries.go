package httpapi

import (
	"errors"
	"io"
	"net/http"

	chi "github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/jmheath/books/internal/ledger"
	"github.com/jmheath/books/internal/service/journal"
)

func (s *Server) postEntry(w http.ResponseWriter, r *http.Request) {
	var req postEntryRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid JSON: "+err.Error())
		return
	}
	status := req.Status
	if status == "" {
		status = ledger.EntryStatusDraft
	}
	lines := make([]journal.LineInput, 0, len(req.Lines))
	for _, ln := range req.Lines {
		lines = append(lines, journal.LineInput{
			AccountID: ln.AccountID,
			Debit:     ln.Debit,
			Credit:    ln.Credit,
			Memo:      ln.Memo,
		})
	}
	created, err := s.entries.Create(r.Context(), journal.EntryInput{
		Date:        req.Date,
		Description: req.Description,
		Memo:        req.Memo,
		Reference:   req.Reference,
		Status:      status,
		Source:      ledger.SourceManual,
		CreatedBy:   req.CreatedBy,
		Lines:       lines,
	})
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	toJSON(w, http.StatusCreated, toEntryResponse(created))
}

// GET /v1/journal-entries?status=&from=&to= (from/to in unix ms)
func (s *Server) listEntries(w http.ResponseWriter, r *http.Request) {
	var f journal.EntryFilter
	if v := r.URL.Query().Get("status"); v != "" {
		st := ledger.EntryStatus(v)
		switch st {
		case ledger.EntryStatusDraft, ledger.EntryStatusPosted, ledger.EntryStatusVoided:
			f.Status = &st
		default:
			badRequest(w, "invalid status")
			return
		}
	}
	var err error
	if f.From, err = parseMillisParam(r, "from"); err != nil {
		badRequest(w, err.Error())
		return
	}
	if f.To, err = parseMillisParam(r, "to"); err != nil {
		badRequest(w, err.Error())
		return
	}
	entries, err := s.entries.List(r.Context(), f)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	out := make([]entryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, toEntryResponse(e))
	}
	toJSON(w, http.StatusOK, out)
}

func (s *Server) getEntry(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, "invalid entry id")
		return
	}
	e, err := s.entries.Get(r.Context(), id)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	toJSON(w, http.StatusOK, toEntryResponse(e))
}

// POST /v1/journal-entries/{id}/post
func (s *Server) postEntryTransition(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, "invalid entry id")
		return
	}
	e, err := s.entries.Post(r.Context(), id)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	toJSON(w, http.StatusOK, toEntryResponse(e))
}

// POST /v1/journal-entries/{id}/void
func (s *Server) voidEntry(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, "invalid entry id")
		return
	}
	var req voidEntryRequest
	// An empty body means no reason; chunked requests report ContentLength -1,
	// so decode unconditionally and treat EOF as empty.
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(w, "invalid JSON: "+err.Error())
		return
	}
	reversal, err := s.entries.Void(r.Context(), id, req.Reason)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	toJSON(w, http.StatusCreated, toEntryResponse(reversal))
}
