package storage

import (
	"context"
	"database/sql"
	"log/slog"

	"fleetops/internal/core"
)

// ListDeposits returns all deposits with their linked report IDs and slips.
func (r *SQLiteRepository) ListDeposits(ctx context.Context) ([]core.BankDeposit, error) {
	const op = "list deposits"
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, bank_name, deposit_date, amount_cents
		FROM bank_deposits ORDER BY created_at, id`)
	if err != nil {
		return nil, wrap(op, err)
	}
	defer rows.Close()

	var deposits []core.BankDeposit
	index := make(map[string]int)
	for rows.Next() {
		var d core.BankDeposit
		var date string
		if err := rows.Scan(&d.ID, &d.BankName, &date, &d.Amount.Cents); err != nil {
			return nil, wrap(op, err)
		}
		if d.DepositDate, err = core.ParseDate(date); err != nil {
			return nil, wrap(op, err)
		}
		index[d.ID] = len(deposits)
		deposits = append(deposits, d)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap(op, err)
	}

	links, err := r.db.QueryContext(ctx, `SELECT deposit_id, report_id FROM deposit_reports ORDER BY rowid`)
	if err != nil {
		return nil, wrap(op, err)
	}
	defer links.Close()
	for links.Next() {
		var depositID, reportID string
		if err := links.Scan(&depositID, &reportID); err != nil {
			return nil, wrap(op, err)
		}
		if i, ok := index[depositID]; ok {
			deposits[i].ReportIDs = append(deposits[i].ReportIDs, reportID)
		}
	}
	if err := links.Err(); err != nil {
		return nil, wrap(op, err)
	}

	slips, err := r.db.QueryContext(ctx, `SELECT id, deposit_id, url, filename, size_bytes FROM deposit_slips ORDER BY rowid`)
	if err != nil {
		return nil, wrap(op, err)
	}
	defer slips.Close()
	for slips.Next() {
		var depositID string
		var s core.Slip
		if err := slips.Scan(&s.ID, &depositID, &s.URL, &s.Filename, &s.Size); err != nil {
			return nil, wrap(op, err)
		}
		if i, ok := index[depositID]; ok {
			deposits[i].Slips = append(deposits[i].Slips, s)
		}
	}
	return deposits, wrap(op, slips.Err())
}

// GetDeposit returns one deposit with links and slips.
func (r *SQLiteRepository) GetDeposit(ctx context.Context, id string) (core.BankDeposit, error) {
	const op = "get deposit"
	var d core.BankDeposit
	var date string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, bank_name, deposit_date, amount_cents FROM bank_deposits WHERE id = ?`, id).
		Scan(&d.ID, &d.BankName, &date, &d.Amount.Cents)
	if err != nil {
		return core.BankDeposit{}, wrap(op, err)
	}
	if d.DepositDate, err = core.ParseDate(date); err != nil {
		return core.BankDeposit{}, wrap(op, err)
	}

	rows, err := r.db.QueryContext(ctx, `SELECT report_id FROM deposit_reports WHERE deposit_id = ? ORDER BY rowid`, id)
	if err != nil {
		return core.BankDeposit{}, wrap(op, err)
	}
	defer rows.Close()
	for rows.Next() {
		var rid string
		if err := rows.Scan(&rid); err != nil {
			return core.BankDeposit{}, wrap(op, err)
		}
		d.ReportIDs = append(d.ReportIDs, rid)
	}
	if err := rows.Err(); err != nil {
		return core.BankDeposit{}, wrap(op, err)
	}

	slips, err := r.db.QueryContext(ctx, `SELECT id, url, filename, size_bytes FROM deposit_slips WHERE deposit_id = ? ORDER BY rowid`, id)
	if err != nil {
		return core.BankDeposit{}, wrap(op, err)
	}
	defer slips.Close()
	for slips.Next() {
		var s core.Slip
		if err := slips.Scan(&s.ID, &s.URL, &s.Filename, &s.Size); err != nil {
			return core.BankDeposit{}, wrap(op, err)
		}
		d.Slips = append(d.Slips, s)
	}
	return d, wrap(op, slips.Err())
}

// CreateDeposit inserts the deposit row and its link rows together. Slips
// are attached afterwards, one row per successful upload, so a partial slip
// set never blocks the deposit itself.
func (r *SQLiteRepository) CreateDeposit(ctx context.Context, d core.BankDeposit) (core.BankDeposit, error) {
	const op = "create deposit"
	d.ID = newID()
	err := r.inTx(ctx, op, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO bank_deposits (id, bank_name, deposit_date, amount_cents)
			VALUES (?, ?, ?, ?)`,
			d.ID, d.BankName, d.DepositDate.Key(), d.Amount.Cents)
		if err != nil {
			return wrap(op, err)
		}
		for _, rid := range d.ReportIDs {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO deposit_reports (deposit_id, report_id) VALUES (?, ?)`, d.ID, rid); err != nil {
				return wrap(op, err)
			}
		}
		return nil
	})
	if err != nil {
		return core.BankDeposit{}, err
	}
	slog.InfoContext(ctx, "Deposit created", "id", d.ID, "bank", d.BankName,
		"amount", d.Amount, "reports", len(d.ReportIDs))
	return d, nil
}

// UpdateDeposit replaces the deposit's core fields. Linked reports are
// replaced separately via ReplaceDepositReports.
func (r *SQLiteRepository) UpdateDeposit(ctx context.Context, d core.BankDeposit) error {
	const op = "update deposit"
	res, err := r.db.ExecContext(ctx, `
		UPDATE bank_deposits
		SET bank_name = ?, deposit_date = ?, amount_cents = ?, synced_at = NULL, sync_error = 0
		WHERE id = ?`,
		d.BankName, d.DepositDate.Key(), d.Amount.Cents, d.ID)
	if err != nil {
		return wrap(op, err)
	}
	return requireRow(op, res)
}

// ReplaceDepositReports swaps the deposit's entire link set: delete all
// existing links, then insert the new ones. The contract is two-phase
// replace-wholesale; implementations are not required to make the pair
// atomic (this one happens to run both phases in one transaction).
func (r *SQLiteRepository) ReplaceDepositReports(ctx context.Context, depositID string, reportIDs []string) error {
	const op = "replace deposit reports"
	return r.inTx(ctx, op, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM deposit_reports WHERE deposit_id = ?`, depositID); err != nil {
			return wrap(op, err)
		}
		for _, rid := range reportIDs {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO deposit_reports (deposit_id, report_id) VALUES (?, ?)`, depositID, rid); err != nil {
				return wrap(op, err)
			}
		}
		return nil
	})
}

// AddSlip records one uploaded slip's metadata.
func (r *SQLiteRepository) AddSlip(ctx context.Context, depositID string, s core.Slip) (core.Slip, error) {
	s.ID = newID()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO deposit_slips (id, deposit_id, url, filename, size_bytes)
		VALUES (?, ?, ?, ?, ?)`,
		s.ID, depositID, s.URL, s.Filename, s.Size)
	if err != nil {
		return core.Slip{}, wrap("add slip", err)
	}
	return s, nil
}

// DeleteDeposit removes the deposit with its links and slip rows, returning
// the slip URLs so the caller can clean up blob storage best-effort.
func (r *SQLiteRepository) DeleteDeposit(ctx context.Context, id string) ([]string, error) {
	const op = "delete deposit"
	d, err := r.GetDeposit(ctx, id)
	if err != nil {
		return nil, err
	}
	urls := make([]string, 0, len(d.Slips))
	for _, s := range d.Slips {
		urls = append(urls, s.URL)
	}

	err = r.inTx(ctx, op, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM deposit_slips WHERE deposit_id = ?`, id); err != nil {
			return wrap(op, err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM deposit_reports WHERE deposit_id = ?`, id); err != nil {
			return wrap(op, err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM bank_deposits WHERE id = ?`, id)
		if err != nil {
			return wrap(op, err)
		}
		return requireRow(op, res)
	})
	if err != nil {
		return nil, err
	}
	return urls, nil
}
