package storage

import (
	"context"
	"database/sql"

	"stationops/internal/core"
	"stationops/internal/ledger"
)

// Queries holds the raw SQL against the station schema. Row mapping
// lives here; policy (id assignment, error mapping) lives in Repository.
type Queries struct {
	db *sql.DB
}

func New(db *sql.DB) *Queries {
	return &Queries{db: db}
}

const readingColumns = `id, date, pump_id, opening_meter, closing_meter, litres_sold,
	unit_price, total_sales, operator_name, notes, status, submitted_at, approved_by`

func scanReading(row interface{ Scan(...any) error }) (core.PumpReading, error) {
	var r core.PumpReading
	var date, status string
	var submittedAt sql.NullTime
	err := row.Scan(&r.ID, &date, &r.PumpID, &r.OpeningMeter, &r.ClosingMeter,
		&r.LitresSold, &r.UnitPrice, &r.TotalSales, &r.OperatorName, &r.Notes,
		&status, &submittedAt, &r.ApprovedBy)
	if err != nil {
		return core.PumpReading{}, err
	}
	r.Date = core.Date(date)
	r.Status = core.Status(status)
	if submittedAt.Valid {
		t := submittedAt.Time
		r.SubmittedAt = &t
	}
	return r, nil
}

func (q *Queries) InsertReading(ctx context.Context, r core.PumpReading) error {
	var submittedAt sql.NullTime
	if r.SubmittedAt != nil {
		submittedAt = sql.NullTime{Time: *r.SubmittedAt, Valid: true}
	}
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO pump_readings (`+readingColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, string(r.Date), r.PumpID, r.OpeningMeter, r.ClosingMeter,
		r.LitresSold, r.UnitPrice, r.TotalSales, r.OperatorName, r.Notes,
		string(r.Status), submittedAt, r.ApprovedBy)
	return err
}

func (q *Queries) GetReading(ctx context.Context, id string) (core.PumpReading, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT `+readingColumns+` FROM pump_readings WHERE id = ?`, id)
	return scanReading(row)
}

func (q *Queries) UpdateReading(ctx context.Context, r core.PumpReading) error {
	res, err := q.db.ExecContext(ctx, `
		UPDATE pump_readings
		SET status = ?, approved_by = ?, operator_name = ?, notes = ?
		WHERE id = ?`,
		string(r.Status), r.ApprovedBy, r.OperatorName, r.Notes, r.ID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (q *Queries) ListReadings(ctx context.Context) ([]core.PumpReading, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+readingColumns+` FROM pump_readings ORDER BY rowid DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.PumpReading
	for rows.Next() {
		r, err := scanReading(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (q *Queries) InsertPrice(ctx context.Context, p core.PriceRecord) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO price_records (id, date, product, old_price, new_price, reason, approved_by)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, string(p.Date), p.Product, p.OldPrice, p.NewPrice, p.Reason, p.ApprovedBy)
	return err
}

func (q *Queries) ListPrices(ctx context.Context) ([]core.PriceRecord, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, date, product, old_price, new_price, reason, approved_by
		FROM price_records ORDER BY rowid DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.PriceRecord
	for rows.Next() {
		var p core.PriceRecord
		var date string
		if err := rows.Scan(&p.ID, &date, &p.Product, &p.OldPrice, &p.NewPrice, &p.Reason, &p.ApprovedBy); err != nil {
			return nil, err
		}
		p.Date = core.Date(date)
		out = append(out, p)
	}
	return out, rows.Err()
}

func (q *Queries) InsertTankReading(ctx context.Context, r core.TankReading) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO tank_readings (id, date, tank_id, opening_reading, closing_reading, fuel_received, balance, source)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, string(r.Date), r.TankID, r.OpeningReading, r.ClosingReading, r.FuelReceived, r.Balance, r.Source)
	return err
}

func (q *Queries) ListTankReadings(ctx context.Context) ([]core.TankReading, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, date, tank_id, opening_reading, closing_reading, fuel_received, balance, source
		FROM tank_readings ORDER BY rowid DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.TankReading
	for rows.Next() {
		var r core.TankReading
		var date string
		if err := rows.Scan(&r.ID, &date, &r.TankID, &r.OpeningReading, &r.ClosingReading, &r.FuelReceived, &r.Balance, &r.Source); err != nil {
			return nil, err
		}
		r.Date = core.Date(date)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (q *Queries) InsertExpense(ctx context.Context, e core.Expense) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO expenses (id, date, description, amount, category, approved_by, note)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, string(e.Date), e.Description, e.Amount, e.Category, e.ApprovedBy, e.Note)
	return err
}

func (q *Queries) ListExpenses(ctx context.Context) ([]core.Expense, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, date, description, amount, category, approved_by, note
		FROM expenses ORDER BY rowid DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.Expense
	for rows.Next() {
		var e core.Expense
		var date string
		if err := rows.Scan(&e.ID, &date, &e.Description, &e.Amount, &e.Category, &e.ApprovedBy, &e.Note); err != nil {
			return nil, err
		}
		e.Date = core.Date(date)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (q *Queries) GetTaxonomy(ctx context.Context) (ledger.Taxonomy, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT kind, name FROM taxonomy ORDER BY kind, position`)
	if err != nil {
		return ledger.Taxonomy{}, err
	}
	defer rows.Close()

	var tax ledger.Taxonomy
	for rows.Next() {
		var kind, name string
		if err := rows.Scan(&kind, &name); err != nil {
			return ledger.Taxonomy{}, err
		}
		switch kind {
		case "pump":
			tax.Pumps = append(tax.Pumps, name)
		case "tank":
			tax.Tanks = append(tax.Tanks, name)
		case "product":
			tax.Products = append(tax.Products, name)
		case "category":
			tax.Categories = append(tax.Categories, name)
		}
	}
	return tax, rows.Err()
}

// AddTaxonomyEntry appends a name to a taxonomy kind, after any current
// entries. An existing (kind, name) pair is left untouched.
func (q *Queries) AddTaxonomyEntry(ctx context.Context, kind, name string) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO taxonomy (kind, name, position)
		SELECT ?, ?, COALESCE(MAX(position), 0) + 1 FROM taxonomy WHERE kind = ?
		ON CONFLICT (kind, name) DO NOTHING`,
		kind, name, kind)
	return err
}

// RemoveTaxonomyEntry deletes a (kind, name) pair, reporting
// sql.ErrNoRows when it was not there.
func (q *Queries) RemoveTaxonomyEntry(ctx context.Context, kind, name string) error {
	res, err := q.db.ExecContext(ctx, `
		DELETE FROM taxonomy WHERE kind = ? AND name = ?`, kind, name)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// RefreshDailySummary recomputes the rollup row for one date from the
// base tables. Missing dates get a zeroed row so dashboards can rely on
// the summary being present once a commit for that day happened.
func (q *Queries) RefreshDailySummary(ctx context.Context, date core.Date) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO daily_summaries (date, litres_sold, total_sales, fuel_received, expense_total, net_amount, updated_at)
		SELECT ?,
			COALESCE((SELECT SUM(litres_sold) FROM pump_readings WHERE date = ?), 0),
			COALESCE((SELECT SUM(total_sales) FROM pump_readings WHERE date = ?), 0),
			COALESCE((SELECT SUM(fuel_received) FROM tank_readings WHERE date = ?), 0),
			COALESCE((SELECT SUM(amount) FROM expenses WHERE date = ?), 0),
			COALESCE((SELECT SUM(total_sales) FROM pump_readings WHERE date = ?), 0)
				- COALESCE((SELECT SUM(amount) FROM expenses WHERE date = ?), 0),
			CURRENT_TIMESTAMP
		ON CONFLICT(date) DO UPDATE SET
			litres_sold = excluded.litres_sold,
			total_sales = excluded.total_sales,
			fuel_received = excluded.fuel_received,
			expense_total = excluded.expense_total,
			net_amount = excluded.net_amount,
			updated_at = excluded.updated_at`,
		string(date), string(date), string(date), string(date), string(date), string(date), string(date))
	return err
}

// ListRecordedDates returns every distinct date that has at least one
// committed record, across all four collections.
func (q *Queries) ListRecordedDates(ctx context.Context) ([]core.Date, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT date FROM pump_readings
		UNION SELECT date FROM tank_readings
		UNION SELECT date FROM expenses
		ORDER BY date`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.Date
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		out = append(out, core.Date(d))
	}
	return out, rows.Err()
}

func (q *Queries) ListDailySummaries(ctx context.Context, from, to core.Date) ([]DailySummary, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT date, litres_sold, total_sales, fuel_received, expense_total, net_amount
		FROM daily_summaries
		WHERE (? = '' OR date >= ?) AND (? = '' OR date <= ?)
		ORDER BY date`,
		string(from), string(from), string(to), string(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DailySummary
	for rows.Next() {
		var s DailySummary
		var date string
		if err := rows.Scan(&date, &s.LitresSold, &s.TotalSales, &s.FuelReceived, &s.ExpenseTotal, &s.NetAmount); err != nil {
			return nil, err
		}
		s.Date = core.Date(date)
		out = append(out, s)
	}
	return out, rows.Err()
}
