package storage

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"fleetops/internal/core"
)

// ListReports returns the full report collection, newest insert last, with
// expenses attached in insertion order.
func (r *SQLiteRepository) ListReports(ctx context.Context) ([]core.DailyReport, error) {
	const op = "list reports"
	rows, err := r.db.QueryContext(ctx, `
		SELECT r.id, r.report_date, r.status,
		       v.id, v.plate_number, v.category,
		       r.ticket_revenue_cents, r.baggage_revenue_cents, r.cargo_revenue_cents
		FROM daily_reports r
		JOIN vehicles v ON v.id = r.vehicle_id
		ORDER BY r.created_at, r.id`)
	if err != nil {
		return nil, wrap(op, err)
	}
	defer rows.Close()

	var reports []core.DailyReport
	index := make(map[string]int)
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, wrap(op, err)
		}
		index[rep.ID] = len(reports)
		reports = append(reports, rep)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap(op, err)
	}

	if err := r.attachExpenses(ctx, reports, index); err != nil {
		return nil, wrap(op, err)
	}
	return reports, nil
}

func (r *SQLiteRepository) attachExpenses(ctx context.Context, reports []core.DailyReport, index map[string]int) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, report_id, category, description, amount_cents, receipt_url
		FROM daily_expenses ORDER BY rowid`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var e core.DailyExpense
		if err := rows.Scan(&e.ID, &e.ReportID, &e.Category, &e.Description, &e.Amount.Cents, &e.ReceiptURL); err != nil {
			return err
		}
		if i, ok := index[e.ReportID]; ok {
			reports[i].Expenses = append(reports[i].Expenses, e)
		}
	}
	return rows.Err()
}

// GetReport returns one report with its expenses.
func (r *SQLiteRepository) GetReport(ctx context.Context, id string) (core.DailyReport, error) {
	const op = "get report"
	row := r.db.QueryRowContext(ctx, `
		SELECT r.id, r.report_date, r.status,
		       v.id, v.plate_number, v.category,
		       r.ticket_revenue_cents, r.baggage_revenue_cents, r.cargo_revenue_cents
		FROM daily_reports r
		JOIN vehicles v ON v.id = r.vehicle_id
		WHERE r.id = ?`, id)
	rep, err := scanReport(row)
	if err != nil {
		return core.DailyReport{}, wrap(op, err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, report_id, category, description, amount_cents, receipt_url
		FROM daily_expenses WHERE report_id = ? ORDER BY rowid`, id)
	if err != nil {
		return core.DailyReport{}, wrap(op, err)
	}
	defer rows.Close()
	for rows.Next() {
		var e core.DailyExpense
		if err := rows.Scan(&e.ID, &e.ReportID, &e.Category, &e.Description, &e.Amount.Cents, &e.ReceiptURL); err != nil {
			return core.DailyReport{}, wrap(op, err)
		}
		rep.Expenses = append(rep.Expenses, e)
	}
	if err := rows.Err(); err != nil {
		return core.DailyReport{}, wrap(op, err)
	}
	return rep, nil
}

// CreateReport inserts a new report and returns it with its assigned ID.
func (r *SQLiteRepository) CreateReport(ctx context.Context, rep core.DailyReport) (core.DailyReport, error) {
	rep.ID = newID()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO daily_reports
			(id, report_date, status, vehicle_id, ticket_revenue_cents, baggage_revenue_cents, cargo_revenue_cents)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rep.ID, rep.ReportDate.Key(), string(rep.Status), rep.Vehicle.ID,
		rep.TicketRevenue.Cents, rep.BaggageRevenue.Cents, rep.CargoRevenue.Cents)
	if err != nil {
		return core.DailyReport{}, wrap("create report", err)
	}
	slog.InfoContext(ctx, "Report created", "id", rep.ID, "date", rep.ReportDate.Key(), "vehicle", rep.Vehicle.ID)
	return rep, nil
}

// UpdateReport replaces the revenue fields, status and date. Expenses are
// managed through their own operations. An edit also clears the sync flag so
// the ledger worker picks the change up again.
func (r *SQLiteRepository) UpdateReport(ctx context.Context, rep core.DailyReport) error {
	const op = "update report"
	res, err := r.db.ExecContext(ctx, `
		UPDATE daily_reports
		SET report_date = ?, status = ?, ticket_revenue_cents = ?,
		    baggage_revenue_cents = ?, cargo_revenue_cents = ?,
		    synced_at = NULL, sync_error = 0
		WHERE id = ?`,
		rep.ReportDate.Key(), string(rep.Status),
		rep.TicketRevenue.Cents, rep.BaggageRevenue.Cents, rep.CargoRevenue.Cents, rep.ID)
	if err != nil {
		return wrap(op, err)
	}
	return requireRow(op, res)
}

// DeleteReport removes a report and its expenses, children first. It fails
// with ErrReportLinked (kind conflict) while any deposit link references the
// report, with zero side effects.
func (r *SQLiteRepository) DeleteReport(ctx context.Context, id string) error {
	const op = "delete report"
	var links int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM deposit_reports WHERE report_id = ?`, id).Scan(&links)
	if err != nil {
		return wrap(op, err)
	}
	if links > 0 {
		return &Error{Op: op, Kind: KindConflict, Err: ErrReportLinked}
	}

	return r.inTx(ctx, op, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM daily_expenses WHERE report_id = ?`, id); err != nil {
			return wrap(op, err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM daily_reports WHERE id = ?`, id)
		if err != nil {
			return wrap(op, err)
		}
		return requireRow(op, res)
	})
}

// LinkedReports returns the report->deposit link set for classification.
func (r *SQLiteRepository) LinkedReports(ctx context.Context) (core.LinkSet, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT report_id, deposit_id FROM deposit_reports`)
	if err != nil {
		return nil, wrap("list report links", err)
	}
	defer rows.Close()

	links := make(core.LinkSet)
	for rows.Next() {
		var reportID, depositID string
		if err := rows.Scan(&reportID, &depositID); err != nil {
			return nil, wrap("list report links", err)
		}
		links[reportID] = depositID
	}
	return links, wrap("list report links", rows.Err())
}

// CreateExpense attaches a new expense line to a report.
func (r *SQLiteRepository) CreateExpense(ctx context.Context, e core.DailyExpense) (core.DailyExpense, error) {
	e.ID = newID()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO daily_expenses (id, report_id, category, description, amount_cents, receipt_url)
		VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.ReportID, e.Category, e.Description, e.Amount.Cents, e.ReceiptURL)
	if err != nil {
		return core.DailyExpense{}, wrap("create expense", err)
	}
	return e, nil
}

func (r *SQLiteRepository) UpdateExpense(ctx context.Context, e core.DailyExpense) error {
	const op = "update expense"
	res, err := r.db.ExecContext(ctx, `
		UPDATE daily_expenses SET category = ?, description = ?, amount_cents = ?, receipt_url = ?
		WHERE id = ? AND report_id = ?`,
		e.Category, e.Description, e.Amount.Cents, e.ReceiptURL, e.ID, e.ReportID)
	if err != nil {
		return wrap(op, err)
	}
	return requireRow(op, res)
}

func (r *SQLiteRepository) DeleteExpense(ctx context.Context, reportID, expenseID string) error {
	const op = "delete expense"
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM daily_expenses WHERE id = ? AND report_id = ?`, expenseID, reportID)
	if err != nil {
		return wrap(op, err)
	}
	return requireRow(op, res)
}

// SearchCategories returns distinct expense categories matching the query,
// across daily, rental and company expenses.
func (r *SQLiteRepository) SearchCategories(ctx context.Context, query string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT category FROM (
			SELECT category FROM daily_expenses
			UNION SELECT category FROM rental_expenses
			UNION SELECT category FROM company_expenses
		) WHERE category LIKE ? ORDER BY category LIMIT 20`,
		"%"+query+"%")
	if err != nil {
		return nil, wrap("search categories", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, wrap("search categories", err)
		}
		out = append(out, c)
	}
	return out, wrap("search categories", rows.Err())
}

// PendingRecord identifies a row awaiting ledger sync.
type PendingRecord struct {
	Entity string
	ID     string
}

// PendingSync lists reports and deposits not yet mirrored to the ledger.
func (r *SQLiteRepository) PendingSync(ctx context.Context, limit int) ([]PendingRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT entity, id FROM (
			SELECT 'report' AS entity, id, created_at FROM daily_reports WHERE synced_at IS NULL AND sync_error = 0
			UNION ALL
			SELECT 'deposit' AS entity, id, created_at FROM bank_deposits WHERE synced_at IS NULL AND sync_error = 0
		) ORDER BY created_at LIMIT ?`, limit)
	if err != nil {
		return nil, wrap("list pending sync", err)
	}
	defer rows.Close()

	var out []PendingRecord
	for rows.Next() {
		var p PendingRecord
		if err := rows.Scan(&p.Entity, &p.ID); err != nil {
			return nil, wrap("list pending sync", err)
		}
		out = append(out, p)
	}
	return out, wrap("list pending sync", rows.Err())
}

// MarkSynced stamps a record as mirrored to the ledger.
func (r *SQLiteRepository) MarkSynced(ctx context.Context, entity, id string) error {
	table, err := syncTable(entity)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		`UPDATE `+table+` SET synced_at = ?, sync_error = 0 WHERE id = ?`,
		time.Now().UTC().Format(time.RFC3339), id)
	return wrap("mark synced", err)
}

// MarkSyncError flags a record so the periodic scan stops retrying it.
func (r *SQLiteRepository) MarkSyncError(ctx context.Context, entity, id string) error {
	table, err := syncTable(entity)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `UPDATE `+table+` SET sync_error = 1 WHERE id = ?`, id)
	return wrap("mark sync error", err)
}

func syncTable(entity string) (string, error) {
	switch entity {
	case "report":
		return "daily_reports", nil
	case "deposit":
		return "bank_deposits", nil
	}
	return "", &Error{Op: "sync table", Kind: KindUnknown, Err: errUnknownEntity(entity)}
}

type errUnknownEntity string

func (e errUnknownEntity) Error() string { return "unknown sync entity: " + string(e) }

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReport(row rowScanner) (core.DailyReport, error) {
	var rep core.DailyReport
	var date, status string
	if err := row.Scan(&rep.ID, &date, &status,
		&rep.Vehicle.ID, &rep.Vehicle.PlateNumber, &rep.Vehicle.Category,
		&rep.TicketRevenue.Cents, &rep.BaggageRevenue.Cents, &rep.CargoRevenue.Cents); err != nil {
		return core.DailyReport{}, err
	}
	d, err := core.ParseDate(date)
	if err != nil {
		return core.DailyReport{}, err
	}
	rep.ReportDate = d
	rep.Status = core.ReportStatus(status)
	return rep, nil
}

func requireRow(op string, res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return wrap(op, err)
	}
	if n == 0 {
		return &Error{Op: op, Kind: KindNotFound, Err: sql.ErrNoRows}
	}
	return nil
}
