package http

import (
	"fmt"
	"net/http"
	"strings"

	"stationops/internal/core"
	"stationops/internal/storage"
)

// parseFilter reads the shared report window from query parameters:
// from, to (inclusive ISO dates) and an entity filter. Each report
// names its entity param (pump, tank, category); the generic entity
// key works everywhere.
func parseFilter(r *http.Request) (core.Filter, error) {
	q := r.URL.Query()
	entity := strings.TrimSpace(q.Get("entity"))
	for _, key := range []string{"pump", "tank", "category"} {
		if entity != "" {
			break
		}
		entity = strings.TrimSpace(q.Get(key))
	}

	f := core.Filter{
		From:   core.Date(strings.TrimSpace(q.Get("from"))),
		To:     core.Date(strings.TrimSpace(q.Get("to"))),
		Entity: entity,
	}
	if !f.From.IsZero() {
		if err := f.From.Validate(); err != nil {
			return core.Filter{}, fmt.Errorf("%w: from", core.ErrInvalidDate)
		}
	}
	if !f.To.IsZero() {
		if err := f.To.Validate(); err != nil {
			return core.Filter{}, fmt.Errorf("%w: to", core.ErrInvalidDate)
		}
	}
	return f, nil
}

func reportCacheKey(name string, f core.Filter) string {
	return name + "|" + string(f.From) + "|" + string(f.To) + "|" + f.Entity
}

// serveReport answers from the cache when it can, otherwise derives the
// summary and stores it. Commits purge the cache, so a hit is never
// stale by more than the TTL.
func (s *Server) serveReport(w http.ResponseWriter, r *http.Request, name string, derive func(core.Filter) (any, error)) {
	f, err := parseFilter(r)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	key := reportCacheKey(name, f)
	if cached, ok := s.reports.Get(key); ok {
		respondJSON(w, r, http.StatusOK, cached)
		return
	}

	payload, err := derive(f)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	s.reports.Set(key, payload)
	respondJSON(w, r, http.StatusOK, payload)
}

func (s *Server) handleSalesReport(w http.ResponseWriter, r *http.Request) {
	s.serveReport(w, r, "sales", func(f core.Filter) (any, error) {
		readings, err := s.records.ListReadings(r.Context())
		if err != nil {
			return nil, err
		}
		return core.DeriveSales(readings, f), nil
	})
}

func (s *Server) handleTankReport(w http.ResponseWriter, r *http.Request) {
	s.serveReport(w, r, "tanks", func(f core.Filter) (any, error) {
		readings, err := s.records.ListTankReadings(r.Context())
		if err != nil {
			return nil, err
		}
		return core.DeriveTanks(readings, f), nil
	})
}

func (s *Server) handleExpenseReport(w http.ResponseWriter, r *http.Request) {
	s.serveReport(w, r, "expenses", func(f core.Filter) (any, error) {
		expenses, err := s.records.ListExpenses(r.Context())
		if err != nil {
			return nil, err
		}
		return core.DeriveExpenses(expenses, f), nil
	})
}

func (s *Server) handleProfitReport(w http.ResponseWriter, r *http.Request) {
	s.serveReport(w, r, "profit", func(f core.Filter) (any, error) {
		readings, err := s.records.ListReadings(r.Context())
		if err != nil {
			return nil, err
		}
		expenses, err := s.records.ListExpenses(r.Context())
		if err != nil {
			return nil, err
		}
		return core.DeriveProfit(readings, expenses, f), nil
	})
}

// handleDailySummaries serves the worker-maintained rollup. Only the
// SQLite backend carries one.
func (s *Server) handleDailySummaries(w http.ResponseWriter, r *http.Request) {
	if s.summaries == nil {
		respondError(w, r, http.StatusNotFound, "NotFound", "daily summaries are not available on this backend")
		return
	}

	f, err := parseFilter(r)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	summaries, err := s.summaries.ListDailySummaries(r.Context(), f.From, f.To)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	if summaries == nil {
		summaries = []storage.DailySummary{}
	}
	respondJSON(w, r, http.StatusOK, summaries)
}

// dashboardPayload is the landing-page snapshot: today's numbers plus
// the most recent records of each kind.
type dashboardPayload struct {
	Date           core.Date           `json:"date"`
	Sales          core.SalesSummary   `json:"sales"`
	Tanks          core.TankSummary    `json:"tanks"`
	Expenses       core.ExpenseSummary `json:"expenses"`
	Profit         core.ProfitSummary  `json:"profit"`
	RecentReadings []core.PumpReading  `json:"recentReadings"`
	LatestPrices   []core.PriceRecord  `json:"latestPrices"`
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	today := core.Today()
	f := core.Filter{From: today, To: today}

	readings, err := s.records.ListReadings(ctx)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	tanks, err := s.records.ListTankReadings(ctx)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	expenses, err := s.records.ListExpenses(ctx)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	prices, err := s.records.ListPrices(ctx)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	payload := dashboardPayload{
		Date:           today,
		Sales:          core.DeriveSales(readings, f),
		Tanks:          core.DeriveTanks(tanks, f),
		Expenses:       core.DeriveExpenses(expenses, f),
		Profit:         core.DeriveProfit(readings, expenses, f),
		RecentReadings: firstN(readings, 5),
		LatestPrices:   latestPricePerProduct(prices),
	}
	respondJSON(w, r, http.StatusOK, payload)
}

func firstN[T any](in []T, n int) []T {
	if len(in) < n {
		n = len(in)
	}
	out := make([]T, n)
	copy(out, in[:n])
	return out
}

// latestPricePerProduct keeps the first record seen per product; the
// store lists newest-first, so that is the current price.
func latestPricePerProduct(prices []core.PriceRecord) []core.PriceRecord {
	seen := map[string]bool{}
	out := []core.PriceRecord{}
	for _, p := range prices {
		if seen[p.Product] {
			continue
		}
		seen[p.Product] = true
		out = append(out, p)
	}
	return out
}
