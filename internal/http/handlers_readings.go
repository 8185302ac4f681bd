package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"stationops/internal/core"
	"stationops/internal/ledger"
)

// createReadingRequest mirrors the entry form: numbers arrive as the
// operator typed them and are parsed by the draft validator.
type createReadingRequest struct {
	Date         string `json:"date"`
	PumpID       string `json:"pumpId"`
	OpeningMeter string `json:"openingMeter"`
	ClosingMeter string `json:"closingMeter"`
	UnitPrice    string `json:"unitPrice"`
	OperatorName string `json:"operatorName"`
	Notes        string `json:"notes"`
	Status       string `json:"status"`
}

func (s *Server) handleCreateReading(w http.ResponseWriter, r *http.Request) {
	var req createReadingRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, "BadRequest", "invalid JSON body")
		return
	}

	operator := sanitizeInput(req.OperatorName)
	if operator == "" {
		operator = identityFrom(r.Context()).User
	}

	saved, err := s.records.SubmitReading(r.Context(), core.PumpReadingDraft{
		Date:         core.Date(req.Date),
		PumpID:       sanitizeInput(req.PumpID),
		OpeningMeter: req.OpeningMeter,
		ClosingMeter: req.ClosingMeter,
		UnitPrice:    req.UnitPrice,
		OperatorName: operator,
		Notes:        sanitizeInput(req.Notes),
		Status:       core.Status(req.Status),
	})
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	s.invalidateReports()
	respondJSON(w, r, http.StatusCreated, saved)
}

func (s *Server) handleListReadings(w http.ResponseWriter, r *http.Request) {
	readings, err := s.records.ListReadings(r.Context())
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	if readings == nil {
		readings = []core.PumpReading{}
	}
	respondJSON(w, r, http.StatusOK, readings)
}

func (s *Server) handleGetReading(w http.ResponseWriter, r *http.Request) {
	reading, err := s.records.GetReading(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, reading)
}

func (s *Server) handlePatchReading(w http.ResponseWriter, r *http.Request) {
	var upd ledger.ReadingUpdate
	if err := decodeJSON(r, &upd); err != nil {
		respondError(w, r, http.StatusBadRequest, "BadRequest", "invalid JSON body")
		return
	}
	if upd.OperatorName != nil {
		clean := sanitizeInput(*upd.OperatorName)
		upd.OperatorName = &clean
	}
	if upd.Notes != nil {
		clean := sanitizeInput(*upd.Notes)
		upd.Notes = &clean
	}

	updated, err := s.records.UpdateReading(r.Context(), chi.URLParam(r, "id"), upd)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	s.invalidateReports()
	respondJSON(w, r, http.StatusOK, updated)
}

func (s *Server) handleApproveReading(w http.ResponseWriter, r *http.Request) {
	s.resolveReading(w, r, core.StatusApproved)
}

func (s *Server) handleRejectReading(w http.ResponseWriter, r *http.Request) {
	s.resolveReading(w, r, core.StatusRejected)
}

func (s *Server) resolveReading(w http.ResponseWriter, r *http.Request, to core.Status) {
	id := identityFrom(r.Context())
	if id.User == "" {
		respondError(w, r, http.StatusUnprocessableEntity, "MissingField", "X-Station-User header is required to resolve a reading")
		return
	}

	var (
		updated core.PumpReading
		err     error
	)
	if to == core.StatusApproved {
		updated, err = s.records.ApproveReading(r.Context(), chi.URLParam(r, "id"), id.User, id.Role)
	} else {
		updated, err = s.records.RejectReading(r.Context(), chi.URLParam(r, "id"), id.User, id.Role)
	}
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	s.invalidateReports()
	respondJSON(w, r, http.StatusOK, updated)
}
