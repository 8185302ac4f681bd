// Package storage is the SQLite record-store backend. The schema keeps
// the four collections in their own tables plus a daily_summaries rollup
// maintained by the background worker.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"stationops/internal/core"
	"stationops/internal/ledger"

	_ "modernc.org/sqlite"
)

// DailySummary is one row of the per-day rollup.
type DailySummary struct {
	Date         core.Date `json:"date"`
	LitresSold   float64   `json:"litresSold"`
	TotalSales   float64   `json:"totalSales"`
	FuelReceived float64   `json:"fuelReceived"`
	ExpenseTotal float64   `json:"expenseTotal"`
	NetAmount    float64   `json:"netAmount"`
}

// Repository implements ledger.Store on SQLite.
type Repository struct {
	db      *sql.DB
	queries *Queries

	newID func() string
	now   func() time.Time
}

func NewRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{
		db:      db,
		queries: New(db),
		newID:   uuid.NewString,
		now:     time.Now,
	}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// AddReading implements ledger.ReadingStore.
func (r *Repository) AddReading(ctx context.Context, reading core.PumpReading) (core.PumpReading, error) {
	reading.ID = r.newID()
	if reading.Status == core.StatusSubmitted && reading.SubmittedAt == nil {
		t := r.now()
		reading.SubmittedAt = &t
	}
	if err := r.queries.InsertReading(ctx, reading); err != nil {
		return core.PumpReading{}, fmt.Errorf("insert pump reading: %w", err)
	}

	slog.InfoContext(ctx, "Pump reading saved",
		"id", reading.ID,
		"pump", reading.PumpID,
		"date", reading.Date,
		"litres", reading.LitresSold)
	return reading, nil
}

// GetReading implements ledger.ReadingStore.
func (r *Repository) GetReading(ctx context.Context, id string) (core.PumpReading, error) {
	reading, err := r.queries.GetReading(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.PumpReading{}, ledger.ErrNotFound
	}
	if err != nil {
		return core.PumpReading{}, fmt.Errorf("get pump reading: %w", err)
	}
	return reading, nil
}

// UpdateReading implements ledger.ReadingStore.
func (r *Repository) UpdateReading(ctx context.Context, id string, upd ledger.ReadingUpdate) (core.PumpReading, error) {
	reading, err := r.GetReading(ctx, id)
	if err != nil {
		return core.PumpReading{}, err
	}
	if upd.Status != nil {
		reading.Status = *upd.Status
	}
	if upd.ApprovedBy != nil {
		reading.ApprovedBy = *upd.ApprovedBy
	}
	if upd.OperatorName != nil {
		reading.OperatorName = *upd.OperatorName
	}
	if upd.Notes != nil {
		reading.Notes = *upd.Notes
	}
	if err := r.queries.UpdateReading(ctx, reading); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.PumpReading{}, ledger.ErrNotFound
		}
		return core.PumpReading{}, fmt.Errorf("update pump reading: %w", err)
	}
	return reading, nil
}

// ListReadings implements ledger.ReadingStore.
func (r *Repository) ListReadings(ctx context.Context) ([]core.PumpReading, error) {
	readings, err := r.queries.ListReadings(ctx)
	if err != nil {
		return nil, fmt.Errorf("list pump readings: %w", err)
	}
	return readings, nil
}

// AddPrice implements ledger.PriceStore.
func (r *Repository) AddPrice(ctx context.Context, p core.PriceRecord) (core.PriceRecord, error) {
	p.ID = r.newID()
	if err := r.queries.InsertPrice(ctx, p); err != nil {
		return core.PriceRecord{}, fmt.Errorf("insert price record: %w", err)
	}
	slog.InfoContext(ctx, "Price record saved", "id", p.ID, "product", p.Product)
	return p, nil
}

// ListPrices implements ledger.PriceStore.
func (r *Repository) ListPrices(ctx context.Context) ([]core.PriceRecord, error) {
	prices, err := r.queries.ListPrices(ctx)
	if err != nil {
		return nil, fmt.Errorf("list price records: %w", err)
	}
	return prices, nil
}

// AddTankReading implements ledger.TankStore.
func (r *Repository) AddTankReading(ctx context.Context, reading core.TankReading) (core.TankReading, error) {
	reading.ID = r.newID()
	if err := r.queries.InsertTankReading(ctx, reading); err != nil {
		return core.TankReading{}, fmt.Errorf("insert tank reading: %w", err)
	}
	slog.InfoContext(ctx, "Tank reading saved", "id", reading.ID, "tank", reading.TankID)
	return reading, nil
}

// ListTankReadings implements ledger.TankStore.
func (r *Repository) ListTankReadings(ctx context.Context) ([]core.TankReading, error) {
	readings, err := r.queries.ListTankReadings(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tank readings: %w", err)
	}
	return readings, nil
}

// AddExpense implements ledger.ExpenseStore.
func (r *Repository) AddExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	e.ID = r.newID()
	if err := r.queries.InsertExpense(ctx, e); err != nil {
		return core.Expense{}, fmt.Errorf("insert expense: %w", err)
	}
	slog.InfoContext(ctx, "Expense saved", "id", e.ID, "category", e.Category)
	return e, nil
}

// ListExpenses implements ledger.ExpenseStore.
func (r *Repository) ListExpenses(ctx context.Context) ([]core.Expense, error) {
	expenses, err := r.queries.ListExpenses(ctx)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return expenses, nil
}

// Taxonomy implements ledger.TaxonomyReader.
func (r *Repository) Taxonomy(ctx context.Context) (ledger.Taxonomy, error) {
	tax, err := r.queries.GetTaxonomy(ctx)
	if err != nil {
		return ledger.Taxonomy{}, fmt.Errorf("get taxonomy: %w", err)
	}
	return tax, nil
}

// AddTaxonomyEntry implements ledger.TaxonomyWriter.
func (r *Repository) AddTaxonomyEntry(ctx context.Context, kind, name string) error {
	if !ledger.ValidTaxonomyKind(kind) {
		return ledger.ErrUnknownKind
	}
	if err := r.queries.AddTaxonomyEntry(ctx, kind, name); err != nil {
		return fmt.Errorf("add taxonomy entry: %w", err)
	}
	slog.InfoContext(ctx, "Taxonomy entry added", "kind", kind, "name", name)
	return nil
}

// RemoveTaxonomyEntry implements ledger.TaxonomyWriter.
func (r *Repository) RemoveTaxonomyEntry(ctx context.Context, kind, name string) error {
	if !ledger.ValidTaxonomyKind(kind) {
		return ledger.ErrUnknownKind
	}
	if err := r.queries.RemoveTaxonomyEntry(ctx, kind, name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ledger.ErrNotFound
		}
		return fmt.Errorf("remove taxonomy entry: %w", err)
	}
	slog.InfoContext(ctx, "Taxonomy entry removed", "kind", kind, "name", name)
	return nil
}

// RefreshDailySummary recomputes the rollup for one day.
func (r *Repository) RefreshDailySummary(ctx context.Context, date core.Date) error {
	if err := r.queries.RefreshDailySummary(ctx, date); err != nil {
		return fmt.Errorf("refresh daily summary for %s: %w", date, err)
	}
	return nil
}

// RebuildDailySummaries recomputes the rollup for every recorded day.
// Used as a startup sweep so a restarted worker catches up on anything
// it missed while down.
func (r *Repository) RebuildDailySummaries(ctx context.Context) (int, error) {
	dates, err := r.queries.ListRecordedDates(ctx)
	if err != nil {
		return 0, fmt.Errorf("list recorded dates: %w", err)
	}
	for _, d := range dates {
		if err := r.queries.RefreshDailySummary(ctx, d); err != nil {
			return 0, fmt.Errorf("refresh daily summary for %s: %w", d, err)
		}
	}
	return len(dates), nil
}

// ListDailySummaries returns rollup rows in the inclusive date window.
// Empty bounds are open.
func (r *Repository) ListDailySummaries(ctx context.Context, from, to core.Date) ([]DailySummary, error) {
	summaries, err := r.queries.ListDailySummaries(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("list daily summaries: %w", err)
	}
	return summaries, nil
}
