package http

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"stationops/internal/core"
)

type createPriceRequest struct {
	Date       string `json:"date"`
	Product    string `json:"product"`
	OldPrice   string `json:"oldPrice"`
	NewPrice   string `json:"newPrice"`
	Reason     string `json:"reason"`
	ApprovedBy string `json:"approvedBy"`
}

func (s *Server) handleCreatePrice(w http.ResponseWriter, r *http.Request) {
	var req createPriceRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, "BadRequest", "invalid JSON body")
		return
	}

	id := identityFrom(r.Context())
	saved, err := s.records.RecordPrice(r.Context(), core.PriceRecordDraft{
		Date:       core.Date(req.Date),
		Product:    sanitizeInput(req.Product),
		OldPrice:   req.OldPrice,
		NewPrice:   req.NewPrice,
		Reason:     sanitizeInput(req.Reason),
		ApprovedBy: sanitizeInput(req.ApprovedBy),
	}, id.User, id.Role)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	s.invalidateReports()
	respondJSON(w, r, http.StatusCreated, priceWithChange{
		PriceRecord: saved,
		Change:      core.DerivePriceChange(saved),
	})
}

// priceWithChange pairs the stored record with its derived delta so
// clients never recompute it.
type priceWithChange struct {
	core.PriceRecord
	Change core.PriceChange `json:"change"`
}

func (s *Server) handleListPrices(w http.ResponseWriter, r *http.Request) {
	prices, err := s.records.ListPrices(r.Context())
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	out := make([]priceWithChange, 0, len(prices))
	for _, p := range prices {
		out = append(out, priceWithChange{PriceRecord: p, Change: core.DerivePriceChange(p)})
	}
	respondJSON(w, r, http.StatusOK, out)
}

type createTankReadingRequest struct {
	Date           string `json:"date"`
	TankID         string `json:"tankId"`
	OpeningReading string `json:"openingReading"`
	ClosingReading string `json:"closingReading"`
	FuelReceived   string `json:"fuelReceived"`
	Source         string `json:"source"`
}

func (s *Server) handleCreateTankReading(w http.ResponseWriter, r *http.Request) {
	var req createTankReadingRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, "BadRequest", "invalid JSON body")
		return
	}

	saved, err := s.records.RecordTankReading(r.Context(), core.TankReadingDraft{
		Date:           core.Date(req.Date),
		TankID:         sanitizeInput(req.TankID),
		OpeningReading: req.OpeningReading,
		ClosingReading: req.ClosingReading,
		FuelReceived:   req.FuelReceived,
		Source:         sanitizeInput(req.Source),
	})
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	s.invalidateReports()
	respondJSON(w, r, http.StatusCreated, saved)
}

func (s *Server) handleListTankReadings(w http.ResponseWriter, r *http.Request) {
	readings, err := s.records.ListTankReadings(r.Context())
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	if readings == nil {
		readings = []core.TankReading{}
	}
	respondJSON(w, r, http.StatusOK, readings)
}

type createExpenseRequest struct {
	Date        string `json:"date"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
	Category    string `json:"category"`
	Note        string `json:"note"`
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req createExpenseRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, "BadRequest", "invalid JSON body")
		return
	}

	id := identityFrom(r.Context())
	saved, err := s.records.RecordExpense(r.Context(), core.ExpenseDraft{
		Date:        core.Date(req.Date),
		Description: sanitizeInput(req.Description),
		Amount:      req.Amount,
		Category:    sanitizeInput(req.Category),
		Note:        sanitizeInput(req.Note),
	}, id.User, id.Role)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	s.invalidateReports()
	respondJSON(w, r, http.StatusCreated, saved)
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	expenses, err := s.records.ListExpenses(r.Context())
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	if expenses == nil {
		expenses = []core.Expense{}
	}
	respondJSON(w, r, http.StatusOK, expenses)
}

func (s *Server) handleTaxonomy(w http.ResponseWriter, r *http.Request) {
	tax, err := s.records.Taxonomy(r.Context())
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, tax)
}

type taxonomyEntryRequest struct {
	Name string `json:"name"`
}

// handleAddTaxonomyEntry registers a new pump, tank, product or expense
// category and returns the updated taxonomy.
func (s *Server) handleAddTaxonomyEntry(w http.ResponseWriter, r *http.Request) {
	var req taxonomyEntryRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, "BadRequest", "invalid JSON body")
		return
	}

	kind := chi.URLParam(r, "kind")
	if err := s.records.AddTaxonomyEntry(r.Context(), kind, sanitizeInput(req.Name)); err != nil {
		respondDomainError(w, r, err)
		return
	}

	tax, err := s.records.Taxonomy(r.Context())
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusCreated, tax)
}

// handleRemoveTaxonomyEntry retires an entry. Records that reference
// the removed name are left as they are.
func (s *Server) handleRemoveTaxonomyEntry(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")
	name := chi.URLParam(r, "name")
	// Entry names carry spaces ("Pump 1"), so the path segment arrives escaped.
	if decoded, err := url.PathUnescape(name); err == nil {
		name = decoded
	}
	if err := s.records.RemoveTaxonomyEntry(r.Context(), kind, name); err != nil {
		respondDomainError(w, r, err)
		return
	}

	tax, err := s.records.Taxonomy(r.Context())
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, tax)
}
