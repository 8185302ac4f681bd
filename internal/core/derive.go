package core

// Derivation is a pure function of (records, filter) -> summary. It holds
// no state and is safe to recompute on every request; empty input yields a
// zeroed summary, never an error.

// Filter is an optional date window plus an optional entity bound. Both
// date bounds are inclusive; an empty bound is open. Entity matches a
// pump id, tank id, product, or expense category depending on the
// collection it is applied to.
type Filter struct {
	From   Date
	To     Date
	Entity string
}

// matchesDate reports whether d falls inside the window.
func (f Filter) matchesDate(d Date) bool {
	if !f.From.IsZero() && d < f.From {
		return false
	}
	if !f.To.IsZero() && d > f.To {
		return false
	}
	return true
}

// matchesEntity reports whether id passes the entity bound.
func (f Filter) matchesEntity(id string) bool {
	return f.Entity == "" || f.Entity == id
}

// DateOnly strips the entity bound, for summaries that share a window but
// group over a different axis.
func (f Filter) DateOnly() Filter {
	return Filter{From: f.From, To: f.To}
}

// PumpTotals is the per-pump slice of a sales summary.
type PumpTotals struct {
	PumpID       string  `json:"pumpId"`
	Litres       float64 `json:"litres"`
	Sales        float64 `json:"sales"`
	Count        int     `json:"count"`
	AveragePrice float64 `json:"averagePrice"`
}

// SalesSummary aggregates pump readings under a filter.
type SalesSummary struct {
	Litres       float64      `json:"litres"`
	Sales        float64      `json:"sales"`
	AveragePrice float64      `json:"averagePrice"`
	ReadingCount int          `json:"readingCount"`
	PerPump      []PumpTotals `json:"perPump"`
}

// DeriveSales sums litres and sales over the filtered readings and breaks
// them down per pump. Average price is total sales over total litres,
// defined as zero when no litres were sold. Groups keep first-seen order.
func DeriveSales(readings []PumpReading, f Filter) SalesSummary {
	var s SalesSummary
	index := map[string]int{}
	for _, r := range readings {
		if !f.matchesDate(r.Date) || !f.matchesEntity(r.PumpID) {
			continue
		}
		s.Litres += r.LitresSold
		s.Sales += r.TotalSales
		s.ReadingCount++

		i, ok := index[r.PumpID]
		if !ok {
			i = len(s.PerPump)
			index[r.PumpID] = i
			s.PerPump = append(s.PerPump, PumpTotals{PumpID: r.PumpID})
		}
		s.PerPump[i].Litres += r.LitresSold
		s.PerPump[i].Sales += r.TotalSales
		s.PerPump[i].Count++
	}
	if s.Litres > 0 {
		s.AveragePrice = s.Sales / s.Litres
	}
	for i := range s.PerPump {
		if s.PerPump[i].Litres > 0 {
			s.PerPump[i].AveragePrice = s.PerPump[i].Sales / s.PerPump[i].Litres
		}
	}
	return s
}

// TankTotals is the per-tank slice of a tank summary. Balance is the
// balance of the latest-dated reading seen for the tank.
type TankTotals struct {
	TankID   string  `json:"tankId"`
	Received float64 `json:"received"`
	Balance  float64 `json:"balance"`
	Count    int     `json:"count"`
	lastDate Date
}

// TankSummary aggregates tank readings under a filter.
type TankSummary struct {
	FuelReceived float64      `json:"fuelReceived"`
	ReadingCount int          `json:"readingCount"`
	PerTank      []TankTotals `json:"perTank"`
}

// DeriveTanks sums received fuel over the filtered readings and tracks the
// current balance per tank. "Current" is the balance of the latest-dated
// reading; when two readings for the same tank share a date the one
// processed later wins, so the result is order-dependent for ties. Callers
// supply the list in their own order (typically newest-first) and that
// order is preserved deliberately rather than resolved here.
func DeriveTanks(readings []TankReading, f Filter) TankSummary {
	var s TankSummary
	index := map[string]int{}
	for _, r := range readings {
		if !f.matchesDate(r.Date) || !f.matchesEntity(r.TankID) {
			continue
		}
		s.FuelReceived += r.FuelReceived
		s.ReadingCount++

		i, ok := index[r.TankID]
		if !ok {
			i = len(s.PerTank)
			index[r.TankID] = i
			s.PerTank = append(s.PerTank, TankTotals{TankID: r.TankID, Balance: r.Balance, lastDate: r.Date})
		}
		s.PerTank[i].Received += r.FuelReceived
		s.PerTank[i].Count++
		if r.Date >= s.PerTank[i].lastDate {
			s.PerTank[i].Balance = r.Balance
			s.PerTank[i].lastDate = r.Date
		}
	}
	return s
}

// CategoryTotals is the per-category slice of an expense summary.
type CategoryTotals struct {
	Category string  `json:"category"`
	Amount   float64 `json:"amount"`
	Count    int     `json:"count"`
	Percent  float64 `json:"percent"`
}

// ExpenseSummary aggregates expenses under a filter.
type ExpenseSummary struct {
	Total      float64          `json:"total"`
	Count      int              `json:"count"`
	ByCategory []CategoryTotals `json:"byCategory"`
}

// DeriveExpenses sums amounts over the filtered expenses and breaks them
// down per category with a share of the total. Percentages are zero when
// the total is zero.
func DeriveExpenses(expenses []Expense, f Filter) ExpenseSummary {
	var s ExpenseSummary
	index := map[string]int{}
	for _, e := range expenses {
		if !f.matchesDate(e.Date) || !f.matchesEntity(e.Category) {
			continue
		}
		s.Total += e.Amount
		s.Count++

		i, ok := index[e.Category]
		if !ok {
			i = len(s.ByCategory)
			index[e.Category] = i
			s.ByCategory = append(s.ByCategory, CategoryTotals{Category: e.Category})
		}
		s.ByCategory[i].Amount += e.Amount
		s.ByCategory[i].Count++
	}
	if s.Total > 0 {
		for i := range s.ByCategory {
			s.ByCategory[i].Percent = s.ByCategory[i].Amount / s.Total * 100
		}
	}
	return s
}

// PriceChange is the derived delta of a single price record.
type PriceChange struct {
	Change    float64 `json:"change"`
	Percent   float64 `json:"percent"`
	Direction string  `json:"direction"`
}

// DerivePriceChange computes the delta of a price record. Percent is the
// absolute change relative to the old price. A zero change counts as a
// decrease.
func DerivePriceChange(p PriceRecord) PriceChange {
	change := p.NewPrice - p.OldPrice
	c := PriceChange{Change: change, Direction: "decrease"}
	if change > 0 {
		c.Direction = "increase"
	}
	if p.OldPrice != 0 {
		abs := change
		if abs < 0 {
			abs = -abs
		}
		c.Percent = abs / p.OldPrice * 100
	}
	return c
}

// ProfitSummary combines sales and expenses into a profitability view.
type ProfitSummary struct {
	TotalSales    float64 `json:"totalSales"`
	TotalExpenses float64 `json:"totalExpenses"`
	NetProfit     float64 `json:"netProfit"`
	Margin        float64 `json:"margin"`
}

// DeriveProfit computes net profit and margin over a window. The entity
// bound applies to readings only (a pump filter); expenses are filtered by
// date alone. Margin is zero when there are no sales.
func DeriveProfit(readings []PumpReading, expenses []Expense, f Filter) ProfitSummary {
	sales := DeriveSales(readings, f)
	spent := DeriveExpenses(expenses, f.DateOnly())

	p := ProfitSummary{
		TotalSales:    sales.Sales,
		TotalExpenses: spent.Total,
		NetProfit:     sales.Sales - spent.Total,
	}
	if p.TotalSales > 0 {
		p.Margin = p.NetProfit / p.TotalSales * 100
	}
	return p
}
