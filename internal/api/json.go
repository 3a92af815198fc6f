package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/starford/millwork/internal/apperr"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}

// Error codes returned alongside the message so clients can branch
// without parsing text.
const (
	codeBadRequest     = "bad_request"
	codeUnauthorized   = "unauthorized"
	codeNotFound       = "not_found"
	codeStale          = "stale_checksum"
	codeExists         = "already_exists"
	codeInvalidChild   = "invalid_child"
	codeInvalid        = "invalid_input"
	codePricingMissing = "pricing_unavailable"
	codeInternal       = "internal"
)

type errResponse struct {
	Error string `json:"error" validate:"required"`
	Code  string `json:"code,omitempty"`
}

func errorBody(msg string) errResponse {
	return errResponse{Error: msg, Code: codeBadRequest}
}

// errorStatus maps a domain error to its HTTP status and error code.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, apperr.ErrNotFound), errors.Is(err, apperr.ErrPathNotFound):
		return http.StatusNotFound, codeNotFound
	case errors.Is(err, apperr.ErrConflict):
		return http.StatusConflict, codeStale
	case errors.Is(err, apperr.ErrAlreadyExists):
		return http.StatusConflict, codeExists
	case errors.Is(err, apperr.ErrInvalidChild):
		return http.StatusUnprocessableEntity, codeInvalidChild
	case errors.Is(err, apperr.ErrUnknownPricingTriple):
		return http.StatusUnprocessableEntity, codePricingMissing
	case errors.Is(err, apperr.ErrDuplicateID),
		errors.Is(err, apperr.ErrInvalidInput):
		return http.StatusUnprocessableEntity, codeInvalid
	default:
		return http.StatusInternalServerError, codeInternal
	}
}

// writeError writes the mapped response for err. Unmapped errors are
// logged with op and attrs and hidden behind a generic message.
func writeError(w http.ResponseWriter, op string, err error, attrs ...any) {
	status, code := errorStatus(err)
	msg := err.Error()
	switch code {
	case codeInternal:
		slog.Error(op+" failed", append(attrs, slog.String("error", err.Error()))...)
		msg = "internal error"
	case codeStale:
		msg = "checksum mismatch"
	case codeExists:
		msg = "project already exists"
	}
	writeJSON(w, status, errResponse{Error: msg, Code: code})
}
