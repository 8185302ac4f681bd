package core

import (
	"errors"
	"math"
	"testing"
)

const tol = 1e-9

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) <= tol
}

func TestPumpReadingDraftDerivesSales(t *testing.T) {
	r, err := PumpReadingDraft{
		Date:         "2025-10-20",
		PumpID:       "Pump 1",
		OpeningMeter: "10000",
		ClosingMeter: "10500",
		UnitPrice:    "15.50",
		OperatorName: "John Doe",
		Status:       StatusSubmitted,
	}.Validate()
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if !almostEqual(r.LitresSold, 500) {
		t.Fatalf("litres = %v, want 500", r.LitresSold)
	}
	if !almostEqual(r.TotalSales, 7750) {
		t.Fatalf("total sales = %v, want 7750", r.TotalSales)
	}
}

func TestPumpReadingDraftIgnoresFormTotals(t *testing.T) {
	// The derived fields come from the meters and price alone, not from
	// whatever the form carried.
	r, err := PumpReadingDraft{
		PumpID:       "Pump 2",
		OpeningMeter: "100",
		ClosingMeter: "150,5",
		UnitPrice:    "2",
	}.Validate()
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if !almostEqual(r.LitresSold, 50.5) || !almostEqual(r.TotalSales, 101) {
		t.Fatalf("derived %v litres / %v sales", r.LitresSold, r.TotalSales)
	}
	if r.Status != StatusDraft {
		t.Fatalf("empty status should default to draft, got %s", r.Status)
	}
}

func TestPumpReadingDraftRejections(t *testing.T) {
	good := PumpReadingDraft{
		Date: "2025-10-20", PumpID: "Pump 1",
		OpeningMeter: "100", ClosingMeter: "200", UnitPrice: "10",
	}
	cases := []struct {
		name   string
		mutate func(*PumpReadingDraft)
		want   error
	}{
		{"no pump", func(d *PumpReadingDraft) { d.PumpID = " " }, ErrMissingField},
		{"opening not a number", func(d *PumpReadingDraft) { d.OpeningMeter = "abc" }, ErrInvalidNumber},
		{"closing blank", func(d *PumpReadingDraft) { d.ClosingMeter = "" }, ErrInvalidNumber},
		{"closing below opening", func(d *PumpReadingDraft) { d.ClosingMeter = "50" }, ErrOrderingViolation},
		{"zero price", func(d *PumpReadingDraft) { d.UnitPrice = "0" }, ErrInvalidNumber},
		{"negative price", func(d *PumpReadingDraft) { d.UnitPrice = "-3" }, ErrInvalidNumber},
		{"bad date", func(d *PumpReadingDraft) { d.Date = "10/20/2025" }, ErrInvalidDate},
		{"created approved", func(d *PumpReadingDraft) { d.Status = StatusApproved }, ErrInvalidTransition},
	}
	for _, tc := range cases {
		d := good
		tc.mutate(&d)
		if _, err := d.Validate(); !errors.Is(err, tc.want) {
			t.Fatalf("%s: got %v, want %v", tc.name, err, tc.want)
		}
	}
}

func TestPriceRecordDraft(t *testing.T) {
	p, err := PriceRecordDraft{
		Date: "2025-10-15", Product: "Petrol",
		OldPrice: "15.00", NewPrice: "15.50",
		Reason: "Market price increase",
	}.Validate()
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if !almostEqual(p.OldPrice, 15) || !almostEqual(p.NewPrice, 15.5) {
		t.Fatalf("parsed prices %v -> %v", p.OldPrice, p.NewPrice)
	}

	cases := []struct {
		name  string
		draft PriceRecordDraft
		want  error
	}{
		{"no product", PriceRecordDraft{OldPrice: "1", NewPrice: "2", Reason: "x"}, ErrMissingField},
		{"blank old price", PriceRecordDraft{Product: "Diesel", NewPrice: "2", Reason: "x"}, ErrMissingField},
		{"blank new price", PriceRecordDraft{Product: "Diesel", OldPrice: "1", Reason: "x"}, ErrMissingField},
		{"zero old price", PriceRecordDraft{Product: "Diesel", OldPrice: "0", NewPrice: "2", Reason: "x"}, ErrInvalidNumber},
		{"negative new price", PriceRecordDraft{Product: "Diesel", OldPrice: "1", NewPrice: "-2", Reason: "x"}, ErrInvalidNumber},
		{"no reason", PriceRecordDraft{Product: "Diesel", OldPrice: "1", NewPrice: "2"}, ErrMissingField},
	}
	for _, tc := range cases {
		if _, err := tc.draft.Validate(); !errors.Is(err, tc.want) {
			t.Fatalf("%s: got %v, want %v", tc.name, err, tc.want)
		}
	}
}

func TestTankReadingDraftBalance(t *testing.T) {
	// Positive closing reading wins.
	r, err := TankReadingDraft{
		Date: "2025-10-19", TankID: "Tank A",
		OpeningReading: "3000", ClosingReading: "5000", FuelReceived: "2000",
	}.Validate()
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if !almostEqual(r.Balance, 5000) {
		t.Fatalf("balance = %v, want 5000", r.Balance)
	}

	// Zero closing falls back to opening + received.
	r, err = TankReadingDraft{
		TankID:         "Tank B",
		OpeningReading: "3000", ClosingReading: "0", FuelReceived: "2000",
	}.Validate()
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if !almostEqual(r.Balance, 5000) {
		t.Fatalf("fallback balance = %v, want 5000", r.Balance)
	}

	// Blank fuel received counts as zero.
	r, err = TankReadingDraft{
		TankID:         "Tank C",
		OpeningReading: "1200", ClosingReading: "0",
	}.Validate()
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if !almostEqual(r.Balance, 1200) {
		t.Fatalf("balance = %v, want 1200", r.Balance)
	}
}

func TestTankReadingDraftRejections(t *testing.T) {
	cases := []struct {
		name  string
		draft TankReadingDraft
		want  error
	}{
		{"no tank", TankReadingDraft{OpeningReading: "1", ClosingReading: "2"}, ErrMissingField},
		{"opening not a number", TankReadingDraft{TankID: "Tank A", OpeningReading: "x", ClosingReading: "2"}, ErrInvalidNumber},
		{"negative opening", TankReadingDraft{TankID: "Tank A", OpeningReading: "-1", ClosingReading: "2"}, ErrNegativeValue},
		{"negative closing", TankReadingDraft{TankID: "Tank A", OpeningReading: "1", ClosingReading: "-2"}, ErrNegativeValue},
		{"negative received", TankReadingDraft{TankID: "Tank A", OpeningReading: "1", ClosingReading: "2", FuelReceived: "-5"}, ErrNegativeValue},
	}
	for _, tc := range cases {
		if _, err := tc.draft.Validate(); !errors.Is(err, tc.want) {
			t.Fatalf("%s: got %v, want %v", tc.name, err, tc.want)
		}
	}
}

func TestExpenseDraft(t *testing.T) {
	e, err := ExpenseDraft{
		Date: "2025-10-20", Description: "Generator fuel",
		Amount: "250", Category: "Operations",
	}.Validate()
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if !almostEqual(e.Amount, 250) {
		t.Fatalf("amount = %v, want 250", e.Amount)
	}

	cases := []struct {
		name  string
		draft ExpenseDraft
		want  error
	}{
		{"no description", ExpenseDraft{Amount: "5", Category: "Other"}, ErrMissingField},
		{"negative amount", ExpenseDraft{Description: "x", Amount: "-5", Category: "Other"}, ErrInvalidNumber},
		{"zero amount", ExpenseDraft{Description: "x", Amount: "0", Category: "Other"}, ErrInvalidNumber},
		{"amount not a number", ExpenseDraft{Description: "x", Amount: "five", Category: "Other"}, ErrInvalidNumber},
		{"no category", ExpenseDraft{Description: "x", Amount: "5"}, ErrMissingField},
	}
	for _, tc := range cases {
		if _, err := tc.draft.Validate(); !errors.Is(err, tc.want) {
			t.Fatalf("%s: got %v, want %v", tc.name, err, tc.want)
		}
	}
}

func TestReasonCode(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{ErrMissingField, "MissingField"},
		{ErrInvalidNumber, "InvalidNumber"},
		{ErrOrderingViolation, "OrderingViolation"},
		{ErrNegativeValue, "NegativeValue"},
		{errors.New("something else"), ""},
	}
	for i, tc := range cases {
		if got := ReasonCode(tc.err); got != tc.want {
			t.Fatalf("case %d: got %q, want %q", i, got, tc.want)
		}
	}
}
