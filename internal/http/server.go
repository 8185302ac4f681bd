// Package http is the JSON facade over the record service: entry
// endpoints for the four record types, the approval workflow, and the
// derived report endpoints.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"stationops/internal/cache"
	"stationops/internal/middleware/ratelimit"
	"stationops/internal/middleware/security"
	"stationops/internal/middleware/trace"
	"stationops/internal/services"
	"stationops/internal/storage"
)

// Options configures the server beyond its dependencies.
type Options struct {
	Addr              string
	CORSOrigins       []string
	RateLimitPerMin   int
	ReportCacheTTL    time.Duration
	ReportCacheMaxLen int
}

type Server struct {
	http.Server

	records   *services.RecordService
	summaries *storage.Repository

	limiter  *ratelimit.Limiter
	clientIP *security.ClientIPExtractor
	cacheMgr *cache.Manager
	reports  *cache.LRUCache[any]

	shutdownOnce sync.Once
}

// NewServer wires routes and middleware. summaries may be nil when the
// backend has no rollup table.
func NewServer(opts Options, records *services.RecordService, summaries *storage.Repository) *Server {
	if opts.ReportCacheTTL <= 0 {
		opts.ReportCacheTTL = 5 * time.Minute
	}
	if opts.ReportCacheMaxLen <= 0 {
		opts.ReportCacheMaxLen = 100
	}

	s := &Server{
		records:   records,
		summaries: summaries,
		limiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: opts.RateLimitPerMin,
		}),
		clientIP: security.NewClientIPExtractor(),
		cacheMgr: cache.NewManager(),
		reports:  cache.NewLRUCache[any](opts.ReportCacheMaxLen, opts.ReportCacheTTL),
	}
	s.cacheMgr.Register(s.reports)
	s.cacheMgr.StartCleanup(10 * time.Minute)

	r := chi.NewRouter()

	traceMw := trace.NewMiddleware(s.clientIP.ExtractClientIP)
	headersMw := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	r.Use(traceMw.Middleware)
	r.Use(headersMw.Middleware)

	if len(opts.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   opts.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-Station-Role", "X-Station-User"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	r.Get("/healthz", handleHealth)
	r.Get("/readyz", s.handleReady)

	limit := s.limiter.Middleware(s.clientIP.ExtractClientIP)

	r.Route("/api", func(r chi.Router) {
		r.Use(withIdentity)

		r.Route("/taxonomy", func(r chi.Router) {
			r.Get("/", s.handleTaxonomy)
			r.With(limit).Post("/{kind}", s.handleAddTaxonomyEntry)
			r.With(limit).Delete("/{kind}/{name}", s.handleRemoveTaxonomyEntry)
		})
		r.Get("/dashboard", s.handleDashboard)

		r.Route("/readings", func(r chi.Router) {
			r.Get("/", s.handleListReadings)
			r.With(limit).Post("/", s.handleCreateReading)
			r.Get("/{id}", s.handleGetReading)
			r.With(limit).Patch("/{id}", s.handlePatchReading)
			r.With(limit).Post("/{id}/approve", s.handleApproveReading)
			r.With(limit).Post("/{id}/reject", s.handleRejectReading)
		})

		r.Route("/prices", func(r chi.Router) {
			r.Get("/", s.handleListPrices)
			r.With(limit).Post("/", s.handleCreatePrice)
		})

		r.Route("/tanks", func(r chi.Router) {
			r.Get("/", s.handleListTankReadings)
			r.With(limit).Post("/", s.handleCreateTankReading)
		})

		r.Route("/expenses", func(r chi.Router) {
			r.Get("/", s.handleListExpenses)
			r.With(limit).Post("/", s.handleCreateExpense)
		})

		r.Route("/reports", func(r chi.Router) {
			r.Get("/sales", s.handleSalesReport)
			r.Get("/tanks", s.handleTankReport)
			r.Get("/expenses", s.handleExpenseReport)
			r.Get("/profit", s.handleProfitReport)
			r.Get("/daily", s.handleDailySummaries)
		})
	})

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Shutdown stops the HTTP server and the background cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		s.cacheMgr.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// invalidateReports drops all cached report payloads. Any commit can
// shift any window, so purging beats tracking per-filter keys.
func (s *Server) invalidateReports() {
	s.reports.Purge()
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if _, err := s.records.Taxonomy(r.Context()); err != nil {
		http.Error(w, "store not ready", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
