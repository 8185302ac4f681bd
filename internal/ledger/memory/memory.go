// Package memory is the default record-store backend: everything lives in
// process memory for the lifetime of the service, the way the original
// back office kept its books for a session.
package memory

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"stationops/internal/core"
	"stationops/internal/ledger"
)

// Store is a mutex-guarded in-memory record store. Lists are kept
// newest-first, matching the order the tables render in.
type Store struct {
	mu       sync.Mutex
	tax      ledger.Taxonomy
	readings []core.PumpReading
	prices   []core.PriceRecord
	tanks    []core.TankReading
	expenses []core.Expense

	// Injectable so commits are deterministic under test.
	newID func() string
	now   func() time.Time
}

// New creates a store seeded with the given taxonomy. Ids are UUIDs;
// uniqueness within a session is what the contract requires.
func New(tax ledger.Taxonomy) *Store {
	return &Store{
		tax:   normalizeTaxonomy(tax),
		newID: uuid.NewString,
		now:   time.Now,
	}
}

// NewFromFiles seeds the taxonomy from plain-text files under base
// (pumps.txt, tanks.txt, products.txt, categories.txt), falling back to
// the station defaults for any missing file.
func NewFromFiles(base string) *Store {
	tax := ledger.Taxonomy{
		Pumps:      readLines(filepath.Join(base, "pumps.txt")),
		Tanks:      readLines(filepath.Join(base, "tanks.txt")),
		Products:   readLines(filepath.Join(base, "products.txt")),
		Categories: readLines(filepath.Join(base, "categories.txt")),
	}
	if len(tax.Pumps) == 0 {
		tax.Pumps = []string{"Pump 1", "Pump 2", "Pump 3", "Pump 4"}
	}
	if len(tax.Tanks) == 0 {
		tax.Tanks = []string{"Tank A", "Tank B", "Tank C"}
	}
	if len(tax.Products) == 0 {
		tax.Products = []string{"Petrol", "Diesel", "Kerosene"}
	}
	if len(tax.Categories) == 0 {
		tax.Categories = []string{"Operations", "Maintenance", "Utilities", "VIP", "Salaries", "Other"}
	}
	return New(tax)
}

// AddReading implements ledger.ReadingStore.
func (s *Store) AddReading(_ context.Context, r core.PumpReading) (core.PumpReading, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r.ID = s.newID()
	if r.Status == core.StatusSubmitted && r.SubmittedAt == nil {
		t := s.now()
		r.SubmittedAt = &t
	}
	s.readings = append([]core.PumpReading{r}, s.readings...)
	return r, nil
}

// GetReading implements ledger.ReadingStore.
func (s *Store) GetReading(_ context.Context, id string) (core.PumpReading, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.readings {
		if r.ID == id {
			return r, nil
		}
	}
	return core.PumpReading{}, ledger.ErrNotFound
}

// UpdateReading implements ledger.ReadingStore. The patch is applied
// whole or not at all.
func (s *Store) UpdateReading(_ context.Context, id string, upd ledger.ReadingUpdate) (core.PumpReading, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range s.readings {
		if r.ID != id {
			continue
		}
		if upd.Status != nil {
			r.Status = *upd.Status
		}
		if upd.ApprovedBy != nil {
			r.ApprovedBy = *upd.ApprovedBy
		}
		if upd.OperatorName != nil {
			r.OperatorName = *upd.OperatorName
		}
		if upd.Notes != nil {
			r.Notes = *upd.Notes
		}
		s.readings[i] = r
		return r, nil
	}
	return core.PumpReading{}, ledger.ErrNotFound
}

// ListReadings implements ledger.ReadingStore.
func (s *Store) ListReadings(_ context.Context) ([]core.PumpReading, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.PumpReading(nil), s.readings...), nil
}

// AddPrice implements ledger.PriceStore.
func (s *Store) AddPrice(_ context.Context, p core.PriceRecord) (core.PriceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = s.newID()
	s.prices = append([]core.PriceRecord{p}, s.prices...)
	return p, nil
}

// ListPrices implements ledger.PriceStore.
func (s *Store) ListPrices(_ context.Context) ([]core.PriceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.PriceRecord(nil), s.prices...), nil
}

// AddTankReading implements ledger.TankStore.
func (s *Store) AddTankReading(_ context.Context, r core.TankReading) (core.TankReading, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r.ID = s.newID()
	s.tanks = append([]core.TankReading{r}, s.tanks...)
	return r, nil
}

// ListTankReadings implements ledger.TankStore.
func (s *Store) ListTankReadings(_ context.Context) ([]core.TankReading, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.TankReading(nil), s.tanks...), nil
}

// AddExpense implements ledger.ExpenseStore.
func (s *Store) AddExpense(_ context.Context, e core.Expense) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.ID = s.newID()
	s.expenses = append([]core.Expense{e}, s.expenses...)
	return e, nil
}

// ListExpenses implements ledger.ExpenseStore.
func (s *Store) ListExpenses(_ context.Context) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Expense(nil), s.expenses...), nil
}

// Taxonomy implements ledger.TaxonomyReader.
func (s *Store) Taxonomy(_ context.Context) (ledger.Taxonomy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ledger.Taxonomy{
		Pumps:      append([]string(nil), s.tax.Pumps...),
		Tanks:      append([]string(nil), s.tax.Tanks...),
		Products:   append([]string(nil), s.tax.Products...),
		Categories: append([]string(nil), s.tax.Categories...),
	}, nil
}

// AddTaxonomyEntry implements ledger.TaxonomyWriter. A name already in
// the collection is left where it is.
func (s *Store) AddTaxonomyEntry(_ context.Context, kind, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	list, err := s.taxonomyList(kind)
	if err != nil {
		return err
	}
	for _, v := range *list {
		if v == name {
			return nil
		}
	}
	*list = append(*list, name)
	return nil
}

// RemoveTaxonomyEntry implements ledger.TaxonomyWriter.
func (s *Store) RemoveTaxonomyEntry(_ context.Context, kind, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	list, err := s.taxonomyList(kind)
	if err != nil {
		return err
	}
	for i, v := range *list {
		if v == name {
			*list = append((*list)[:i], (*list)[i+1:]...)
			return nil
		}
	}
	return ledger.ErrNotFound
}

func (s *Store) taxonomyList(kind string) (*[]string, error) {
	switch kind {
	case ledger.KindPump:
		return &s.tax.Pumps, nil
	case ledger.KindTank:
		return &s.tax.Tanks, nil
	case ledger.KindProduct:
		return &s.tax.Products, nil
	case ledger.KindCategory:
		return &s.tax.Categories, nil
	default:
		return nil, ledger.ErrUnknownKind
	}
}

func normalizeTaxonomy(tax ledger.Taxonomy) ledger.Taxonomy {
	return ledger.Taxonomy{
		Pumps:      dedupe(tax.Pumps),
		Tanks:      dedupe(tax.Tanks),
		Products:   dedupe(tax.Products),
		Categories: dedupe(tax.Categories),
	}
}

func readLines(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return dedupe(out)
}

func dedupe(in []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	// Input order is the display order; no sorting.
	return out
}
