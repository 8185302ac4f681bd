package core

import (
	"reflect"
	"testing"
)

func sampleReadings() []PumpReading {
	return []PumpReading{
		{Date: "2025-10-20", PumpID: "Pump 1", LitresSold: 500, TotalSales: 7750, UnitPrice: 15.5},
		{Date: "2025-10-19", PumpID: "Pump 2", LitresSold: 350, TotalSales: 5425, UnitPrice: 15.5},
		{Date: "2025-10-18", PumpID: "Pump 1", LitresSold: 100, TotalSales: 1550, UnitPrice: 15.5},
	}
}

func TestDeriveSalesTotals(t *testing.T) {
	s := DeriveSales(sampleReadings(), Filter{})
	if !almostEqual(s.Litres, 950) || !almostEqual(s.Sales, 14725) {
		t.Fatalf("totals %v litres / %v sales", s.Litres, s.Sales)
	}
	if !almostEqual(s.AveragePrice, 15.5) {
		t.Fatalf("average price = %v, want 15.5", s.AveragePrice)
	}
	if s.ReadingCount != 3 {
		t.Fatalf("reading count = %d, want 3", s.ReadingCount)
	}
	if len(s.PerPump) != 2 {
		t.Fatalf("expected 2 pump groups, got %d", len(s.PerPump))
	}
	// Groups keep first-seen order.
	if s.PerPump[0].PumpID != "Pump 1" || s.PerPump[0].Count != 2 {
		t.Fatalf("unexpected first group %+v", s.PerPump[0])
	}
	if !almostEqual(s.PerPump[0].Litres, 600) || !almostEqual(s.PerPump[0].AveragePrice, 15.5) {
		t.Fatalf("pump 1 group %+v", s.PerPump[0])
	}
}

func TestDeriveSalesDateWindow(t *testing.T) {
	s := DeriveSales(sampleReadings(), Filter{From: "2025-10-19", To: "2025-10-20"})
	if s.ReadingCount != 2 {
		t.Fatalf("window should keep 2 readings, got %d", s.ReadingCount)
	}
	// Bounds are inclusive.
	s = DeriveSales(sampleReadings(), Filter{From: "2025-10-20", To: "2025-10-20"})
	if s.ReadingCount != 1 || !almostEqual(s.Litres, 500) {
		t.Fatalf("inclusive bound summary %+v", s)
	}
}

func TestDeriveSalesEntityFilter(t *testing.T) {
	s := DeriveSales(sampleReadings(), Filter{Entity: "Pump 2"})
	if s.ReadingCount != 1 || !almostEqual(s.Sales, 5425) {
		t.Fatalf("pump filter summary %+v", s)
	}
}

func TestDeriveSalesEmptyInput(t *testing.T) {
	s := DeriveSales(nil, Filter{From: "2025-01-01"})
	if s.Litres != 0 || s.Sales != 0 || s.AveragePrice != 0 || len(s.PerPump) != 0 {
		t.Fatalf("empty input should derive a zeroed summary, got %+v", s)
	}
}

func TestDeriveSalesIsPure(t *testing.T) {
	in := sampleReadings()
	f := Filter{From: "2025-10-18", Entity: "Pump 1"}
	a := DeriveSales(in, f)
	b := DeriveSales(in, f)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("identical inputs derived different summaries:\n%+v\n%+v", a, b)
	}
}

func TestDeriveTanksLastBalanceWins(t *testing.T) {
	// Newest-first, the way the record store lists them.
	readings := []TankReading{
		{Date: "2025-10-20", TankID: "Tank A", FuelReceived: 0, Balance: 4500},
		{Date: "2025-10-19", TankID: "Tank A", FuelReceived: 2000, Balance: 5000},
		{Date: "2025-10-19", TankID: "Tank B", FuelReceived: 1000, Balance: 8000},
	}
	s := DeriveTanks(readings, Filter{})
	if !almostEqual(s.FuelReceived, 3000) || s.ReadingCount != 3 {
		t.Fatalf("totals %+v", s)
	}
	if len(s.PerTank) != 2 {
		t.Fatalf("expected 2 tank groups, got %d", len(s.PerTank))
	}
	// The latest-dated reading's balance is current, regardless of list position.
	if !almostEqual(s.PerTank[0].Balance, 4500) {
		t.Fatalf("tank A balance = %v, want 4500", s.PerTank[0].Balance)
	}
	if !almostEqual(s.PerTank[0].Received, 2000) || s.PerTank[0].Count != 2 {
		t.Fatalf("tank A group %+v", s.PerTank[0])
	}
}

func TestDeriveTanksDateTieIsOrderDependent(t *testing.T) {
	// Two same-tank readings on the same date: the one processed later
	// wins. The ambiguity is preserved on purpose.
	readings := []TankReading{
		{Date: "2025-10-20", TankID: "Tank A", Balance: 100},
		{Date: "2025-10-20", TankID: "Tank A", Balance: 200},
	}
	s := DeriveTanks(readings, Filter{})
	if !almostEqual(s.PerTank[0].Balance, 200) {
		t.Fatalf("tie should keep the later-processed balance, got %v", s.PerTank[0].Balance)
	}
}

func TestDeriveExpenses(t *testing.T) {
	expenses := []Expense{
		{Date: "2025-10-20", Category: "Operations", Amount: 250},
		{Date: "2025-10-19", Category: "Maintenance", Amount: 500},
		{Date: "2025-10-18", Category: "Operations", Amount: 250},
	}
	s := DeriveExpenses(expenses, Filter{})
	if !almostEqual(s.Total, 1000) || s.Count != 3 {
		t.Fatalf("totals %+v", s)
	}

	var groupSum, pctSum float64
	for _, g := range s.ByCategory {
		groupSum += g.Amount
		pctSum += g.Percent
	}
	if !almostEqual(groupSum, s.Total) {
		t.Fatalf("group totals %v != total %v", groupSum, s.Total)
	}
	if !almostEqual(pctSum, 100) {
		t.Fatalf("percentages sum to %v, want 100", pctSum)
	}
	if !almostEqual(s.ByCategory[0].Percent, 50) {
		t.Fatalf("operations share = %v, want 50", s.ByCategory[0].Percent)
	}
}

func TestDeriveExpensesEmptyWindow(t *testing.T) {
	expenses := []Expense{{Date: "2025-10-20", Category: "Operations", Amount: 250}}
	s := DeriveExpenses(expenses, Filter{From: "2026-01-01"})
	if s.Total != 0 || s.Count != 0 || len(s.ByCategory) != 0 {
		t.Fatalf("empty window should zero the summary, got %+v", s)
	}
}

func TestDeriveExpensesCategoryFilter(t *testing.T) {
	expenses := []Expense{
		{Date: "2025-10-20", Category: "Operations", Amount: 250},
		{Date: "2025-10-19", Category: "Salaries", Amount: 4000},
	}
	s := DeriveExpenses(expenses, Filter{Entity: "Salaries"})
	if s.Count != 1 || !almostEqual(s.Total, 4000) {
		t.Fatalf("category filter summary %+v", s)
	}
	if !almostEqual(s.ByCategory[0].Percent, 100) {
		t.Fatalf("single group should be 100%%, got %v", s.ByCategory[0].Percent)
	}
}

func TestDerivePriceChange(t *testing.T) {
	c := DerivePriceChange(PriceRecord{OldPrice: 15.00, NewPrice: 15.50})
	if !almostEqual(c.Change, 0.5) {
		t.Fatalf("change = %v, want 0.5", c.Change)
	}
	if c.Percent < 3.3 || c.Percent > 3.34 {
		t.Fatalf("percent = %v, want about 3.33", c.Percent)
	}
	if c.Direction != "increase" {
		t.Fatalf("direction = %q, want increase", c.Direction)
	}

	c = DerivePriceChange(PriceRecord{OldPrice: 15.50, NewPrice: 15.00})
	if c.Direction != "decrease" || !almostEqual(c.Change, -0.5) {
		t.Fatalf("decrease case %+v", c)
	}
	if c.Percent <= 0 {
		t.Fatalf("percent must use the absolute change, got %v", c.Percent)
	}

	// Zero change reports as decrease, by explicit tie-break.
	c = DerivePriceChange(PriceRecord{OldPrice: 10, NewPrice: 10})
	if c.Direction != "decrease" || c.Change != 0 || c.Percent != 0 {
		t.Fatalf("zero change case %+v", c)
	}
}

func TestDeriveProfit(t *testing.T) {
	readings := sampleReadings()
	expenses := []Expense{
		{Date: "2025-10-20", Category: "Operations", Amount: 725},
	}
	p := DeriveProfit(readings, expenses, Filter{})
	if !almostEqual(p.TotalSales, 14725) || !almostEqual(p.TotalExpenses, 725) {
		t.Fatalf("profit inputs %+v", p)
	}
	if !almostEqual(p.NetProfit, 14000) {
		t.Fatalf("net profit = %v, want 14000", p.NetProfit)
	}
	wantMargin := 14000.0 / 14725.0 * 100
	if !almostEqual(p.Margin, wantMargin) {
		t.Fatalf("margin = %v, want %v", p.Margin, wantMargin)
	}
}

func TestDeriveProfitNoSales(t *testing.T) {
	p := DeriveProfit(nil, []Expense{{Date: "2025-10-20", Category: "Other", Amount: 50}}, Filter{})
	if p.Margin != 0 {
		t.Fatalf("margin with no sales must be 0, got %v", p.Margin)
	}
	if !almostEqual(p.NetProfit, -50) {
		t.Fatalf("net profit = %v, want -50", p.NetProfit)
	}
}

func TestDeriveProfitPumpFilterIgnoresExpenses(t *testing.T) {
	readings := sampleReadings()
	expenses := []Expense{{Date: "2025-10-20", Category: "Operations", Amount: 100}}
	p := DeriveProfit(readings, expenses, Filter{Entity: "Pump 2"})
	if !almostEqual(p.TotalSales, 5425) {
		t.Fatalf("pump-filtered sales = %v, want 5425", p.TotalSales)
	}
	// The entity bound applies to readings only.
	if !almostEqual(p.TotalExpenses, 100) {
		t.Fatalf("expenses = %v, want 100", p.TotalExpenses)
	}
}
