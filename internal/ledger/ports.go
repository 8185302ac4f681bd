// Package ledger defines the ports of the record store. The four
// collections are append-mostly; only pump readings can be updated after
// commit, and only through a partial-field patch.
package ledger

import (
	"context"
	"errors"

	"stationops/internal/core"
)

// ErrNotFound is returned by updates and lookups on an absent id.
var ErrNotFound = errors.New("record not found")

// ErrUnknownKind is returned by taxonomy mutations on a kind outside
// the four collections.
var ErrUnknownKind = errors.New("unknown taxonomy kind")

// Taxonomy kinds, as stored and as addressed by the API.
const (
	KindPump     = "pump"
	KindTank     = "tank"
	KindProduct  = "product"
	KindCategory = "category"
)

// ValidTaxonomyKind reports whether kind names one of the taxonomy
// collections.
func ValidTaxonomyKind(kind string) bool {
	switch kind {
	case KindPump, KindTank, KindProduct, KindCategory:
		return true
	default:
		return false
	}
}

// ReadingUpdate is a partial-field patch for a pump reading. Nil fields
// are left untouched.
type ReadingUpdate struct {
	Status       *core.Status `json:"status,omitempty"`
	ApprovedBy   *string      `json:"approvedBy,omitempty"`
	OperatorName *string      `json:"operatorName,omitempty"`
	Notes        *string      `json:"notes,omitempty"`
}

// Taxonomy is the station reference data the entry forms select from.
type Taxonomy struct {
	Pumps      []string `json:"pumps"`
	Tanks      []string `json:"tanks"`
	Products   []string `json:"products"`
	Categories []string `json:"categories"`
}

// Ports for record-store backends.
type (
	ReadingStore interface {
		// AddReading assigns an id (and a submission timestamp for
		// readings created as submitted) and stores the record.
		AddReading(ctx context.Context, r core.PumpReading) (core.PumpReading, error)
		GetReading(ctx context.Context, id string) (core.PumpReading, error)
		// UpdateReading applies the patch and returns the updated
		// record, or ErrNotFound.
		UpdateReading(ctx context.Context, id string, upd ReadingUpdate) (core.PumpReading, error)
		// ListReadings returns all readings newest-first.
		ListReadings(ctx context.Context) ([]core.PumpReading, error)
	}

	PriceStore interface {
		AddPrice(ctx context.Context, p core.PriceRecord) (core.PriceRecord, error)
		ListPrices(ctx context.Context) ([]core.PriceRecord, error)
	}

	TankStore interface {
		AddTankReading(ctx context.Context, r core.TankReading) (core.TankReading, error)
		ListTankReadings(ctx context.Context) ([]core.TankReading, error)
	}

	ExpenseStore interface {
		AddExpense(ctx context.Context, e core.Expense) (core.Expense, error)
		ListExpenses(ctx context.Context) ([]core.Expense, error)
	}

	// TaxonomyReader lists the selectable pumps, tanks, products and
	// expense categories.
	TaxonomyReader interface {
		Taxonomy(ctx context.Context) (Taxonomy, error)
	}

	// TaxonomyWriter manages the station's assets. Adding an existing
	// name is a no-op; removing an absent one returns ErrNotFound; a
	// kind outside ValidTaxonomyKind returns ErrUnknownKind.
	TaxonomyWriter interface {
		AddTaxonomyEntry(ctx context.Context, kind, name string) error
		RemoveTaxonomyEntry(ctx context.Context, kind, name string) error
	}

	// Store is the full record store a backend provides.
	Store interface {
		ReadingStore
		PriceStore
		TankStore
		ExpenseStore
		TaxonomyReader
		TaxonomyWriter
	}
)
