package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"stationops/internal/core"
	"stationops/internal/ledger"
	"stationops/internal/services"
)

// errorBody is the JSON shape of every non-2xx response.
type errorBody struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

func respondJSON(w http.ResponseWriter, r *http.Request, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.ErrorContext(r.Context(), "Failed to encode response", "error", err, "path", r.URL.Path)
	}
}

func respondError(w http.ResponseWriter, r *http.Request, status int, reason, message string) {
	respondJSON(w, r, status, errorBody{Error: message, Reason: reason})
}

// respondDomainError maps service and validation errors onto statuses:
// validation failures are 422 with their reason code, missing records
// 404, role refusals 403, illegal workflow moves 409.
func respondDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		respondError(w, r, http.StatusNotFound, "NotFound", "record not found")
	case errors.Is(err, ledger.ErrUnknownKind):
		respondError(w, r, http.StatusUnprocessableEntity, "UnknownKind", err.Error())
	case errors.Is(err, services.ErrForbidden):
		respondError(w, r, http.StatusForbidden, "Forbidden", err.Error())
	case errors.Is(err, core.ErrInvalidTransition):
		respondError(w, r, http.StatusConflict, core.ReasonCode(err), err.Error())
	case core.ReasonCode(err) != "":
		respondError(w, r, http.StatusUnprocessableEntity, core.ReasonCode(err), err.Error())
	default:
		slog.ErrorContext(r.Context(), "Request failed", "error", err, "path", r.URL.Path)
		respondError(w, r, http.StatusInternalServerError, "Internal", "internal error")
	}
}

// decodeJSON parses the request body into dst, rejecting unknown fields.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
