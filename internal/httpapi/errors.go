package httpapi

import (
	"errors"
	"net/http"

	"github.com/jmheath/books/internal/errs"
)

// errorResponse is the standard error payload for the API.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func badRequest(w http.ResponseWriter, msg string) {
	toJSON(w, http.StatusBadRequest, errorResponse{Error: msg, Code: "validation_error"})
}

// writeDomainErr maps sentinel errors onto HTTP statuses and stable codes.
func writeDomainErr(w http.ResponseWriter, err error) {
	status, code := http.StatusInternalServerError, "internal_error"
	switch {
	case errors.Is(err, errs.ErrNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, errs.ErrInvalid):
		status, code = http.StatusBadRequest, "validation_error"
	case errors.Is(err, errs.ErrDuplicateNumber):
		status, code = http.StatusConflict, "duplicate_account_number"
	case errors.Is(err, errs.ErrSystemAccount):
		status, code = http.StatusConflict, "system_account_protected"
	case errors.Is(err, errs.ErrAccountInUse):
		status, code = http.StatusConflict, "account_in_use"
	case errors.Is(err, errs.ErrInvalidTransition):
		status, code = http.StatusConflict, "invalid_transition"
	case errors.Is(err, errs.ErrRuleNotActive):
		status, code = http.StatusConflict, "rule_not_active"
	case errors.Is(err, errs.ErrCompleted):
		status, code = http.StatusConflict, "reconciliation_completed"
	case errors.Is(err, errs.ErrUnbalanced):
		status, code = http.StatusUnprocessableEntity, "unbalanced_entry"
	case errors.Is(err, errs.ErrTooFewLines):
		status, code = http.StatusUnprocessableEntity, "insufficient_lines"
	}
	toJSON(w, status, errorResponse{Error: err.Error(), Code: code})
}
