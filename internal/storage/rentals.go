package storage

import (
	"context"
	"database/sql"

	"fleetops/internal/core"
)

// ListRentals returns all rentals with vehicles, expenses and payments.
func (r *SQLiteRepository) ListRentals(ctx context.Context) ([]core.VehicleRental, error) {
	const op = "list rentals"
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, renter_name, start_date, end_date, rental_amount_cents
		FROM vehicle_rentals ORDER BY created_at, id`)
	if err != nil {
		return nil, wrap(op, err)
	}
	defer rows.Close()

	var rentals []core.VehicleRental
	index := make(map[string]int)
	for rows.Next() {
		v, err := scanRental(rows)
		if err != nil {
			return nil, wrap(op, err)
		}
		index[v.ID] = len(rentals)
		rentals = append(rentals, v)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap(op, err)
	}

	if err := r.attachRentalChildren(ctx, rentals, index); err != nil {
		return nil, wrap(op, err)
	}
	return rentals, nil
}

// GetRental returns one rental with its children.
func (r *SQLiteRepository) GetRental(ctx context.Context, id string) (core.VehicleRental, error) {
	const op = "get rental"
	row := r.db.QueryRowContext(ctx, `
		SELECT id, renter_name, start_date, end_date, rental_amount_cents
		FROM vehicle_rentals WHERE id = ?`, id)
	v, err := scanRental(row)
	if err != nil {
		return core.VehicleRental{}, wrap(op, err)
	}
	rentals := []core.VehicleRental{v}
	if err := r.attachRentalChildren(ctx, rentals, map[string]int{v.ID: 0}); err != nil {
		return core.VehicleRental{}, wrap(op, err)
	}
	return rentals[0], nil
}

func (r *SQLiteRepository) attachRentalChildren(ctx context.Context, rentals []core.VehicleRental, index map[string]int) error {
	vehicles, err := r.db.QueryContext(ctx, `SELECT rental_id, vehicle_id FROM rental_vehicles ORDER BY rowid`)
	if err != nil {
		return err
	}
	defer vehicles.Close()
	for vehicles.Next() {
		var rentalID, vehicleID string
		if err := vehicles.Scan(&rentalID, &vehicleID); err != nil {
			return err
		}
		if i, ok := index[rentalID]; ok {
			rentals[i].VehicleIDs = append(rentals[i].VehicleIDs, vehicleID)
		}
	}
	if err := vehicles.Err(); err != nil {
		return err
	}

	expenses, err := r.db.QueryContext(ctx,
		`SELECT id, rental_id, category, description, amount_cents FROM rental_expenses ORDER BY rowid`)
	if err != nil {
		return err
	}
	defer expenses.Close()
	for expenses.Next() {
		var e core.RentalExpense
		if err := expenses.Scan(&e.ID, &e.RentalID, &e.Category, &e.Description, &e.Amount.Cents); err != nil {
			return err
		}
		if i, ok := index[e.RentalID]; ok {
			rentals[i].Expenses = append(rentals[i].Expenses, e)
		}
	}
	if err := expenses.Err(); err != nil {
		return err
	}

	payments, err := r.db.QueryContext(ctx,
		`SELECT id, rental_id, paid_on, amount_cents, receipt_url FROM rental_payments ORDER BY rowid`)
	if err != nil {
		return err
	}
	defer payments.Close()
	for payments.Next() {
		var p core.RentalPayment
		var paidOn string
		if err := payments.Scan(&p.ID, &p.RentalID, &paidOn, &p.Amount.Cents, &p.ReceiptURL); err != nil {
			return err
		}
		if p.PaidOn, err = core.ParseDate(paidOn); err != nil {
			return err
		}
		if i, ok := index[p.RentalID]; ok {
			rentals[i].Payments = append(rentals[i].Payments, p)
		}
	}
	return payments.Err()
}

// CreateRental inserts a rental and its vehicle links.
func (r *SQLiteRepository) CreateRental(ctx context.Context, v core.VehicleRental) (core.VehicleRental, error) {
	const op = "create rental"
	v.ID = newID()
	var endDate any
	if !v.EndDate.IsZero() {
		endDate = v.EndDate.Key()
	}
	err := r.inTx(ctx, op, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO vehicle_rentals (id, renter_name, start_date, end_date, rental_amount_cents)
			VALUES (?, ?, ?, ?, ?)`,
			v.ID, v.RenterName, v.StartDate.Key(), endDate, v.RentalAmount.Cents)
		if err != nil {
			return wrap(op, err)
		}
		for _, vid := range v.VehicleIDs {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO rental_vehicles (rental_id, vehicle_id) VALUES (?, ?)`, v.ID, vid); err != nil {
				return wrap(op, err)
			}
		}
		return nil
	})
	if err != nil {
		return core.VehicleRental{}, err
	}
	return v, nil
}

// UpdateRental replaces the rental's own fields and its vehicle set.
func (r *SQLiteRepository) UpdateRental(ctx context.Context, v core.VehicleRental) error {
	const op = "update rental"
	var endDate any
	if !v.EndDate.IsZero() {
		endDate = v.EndDate.Key()
	}
	return r.inTx(ctx, op, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE vehicle_rentals SET renter_name = ?, start_date = ?, end_date = ?, rental_amount_cents = ?
			WHERE id = ?`,
			v.RenterName, v.StartDate.Key(), endDate, v.RentalAmount.Cents, v.ID)
		if err != nil {
			return wrap(op, err)
		}
		if err := requireRow(op, res); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM rental_vehicles WHERE rental_id = ?`, v.ID); err != nil {
			return wrap(op, err)
		}
		for _, vid := range v.VehicleIDs {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO rental_vehicles (rental_id, vehicle_id) VALUES (?, ?)`, v.ID, vid); err != nil {
				return wrap(op, err)
			}
		}
		return nil
	})
}

// DeleteRental removes a rental and all of its children, children first.
func (r *SQLiteRepository) DeleteRental(ctx context.Context, id string) error {
	const op = "delete rental"
	return r.inTx(ctx, op, func(tx *sql.Tx) error {
		for _, q := range []string{
			`DELETE FROM rental_payments WHERE rental_id = ?`,
			`DELETE FROM rental_expenses WHERE rental_id = ?`,
			`DELETE FROM rental_vehicles WHERE rental_id = ?`,
		} {
			if _, err := tx.ExecContext(ctx, q, id); err != nil {
				return wrap(op, err)
			}
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM vehicle_rentals WHERE id = ?`, id)
		if err != nil {
			return wrap(op, err)
		}
		return requireRow(op, res)
	})
}

func (r *SQLiteRepository) CreateRentalExpense(ctx context.Context, e core.RentalExpense) (core.RentalExpense, error) {
	e.ID = newID()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO rental_expenses (id, rental_id, category, description, amount_cents)
		VALUES (?, ?, ?, ?, ?)`,
		e.ID, e.RentalID, e.Category, e.Description, e.Amount.Cents)
	if err != nil {
		return core.RentalExpense{}, wrap("create rental expense", err)
	}
	return e, nil
}

func (r *SQLiteRepository) DeleteRentalExpense(ctx context.Context, rentalID, expenseID string) error {
	const op = "delete rental expense"
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM rental_expenses WHERE id = ? AND rental_id = ?`, expenseID, rentalID)
	if err != nil {
		return wrap(op, err)
	}
	return requireRow(op, res)
}

func (r *SQLiteRepository) CreateRentalPayment(ctx context.Context, p core.RentalPayment) (core.RentalPayment, error) {
	p.ID = newID()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO rental_payments (id, rental_id, paid_on, amount_cents, receipt_url)
		VALUES (?, ?, ?, ?, ?)`,
		p.ID, p.RentalID, p.PaidOn.Key(), p.Amount.Cents, p.ReceiptURL)
	if err != nil {
		return core.RentalPayment{}, wrap("create rental payment", err)
	}
	return p, nil
}

func (r *SQLiteRepository) DeleteRentalPayment(ctx context.Context, rentalID, paymentID string) error {
	const op = "delete rental payment"
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM rental_payments WHERE id = ? AND rental_id = ?`, paymentID, rentalID)
	if err != nil {
		return wrap(op, err)
	}
	return requireRow(op, res)
}

func scanRental(row rowScanner) (core.VehicleRental, error) {
	var v core.VehicleRental
	var start string
	var end sql.NullString
	if err := row.Scan(&v.ID, &v.RenterName, &start, &end, &v.RentalAmount.Cents); err != nil {
		return core.VehicleRental{}, err
	}
	d, err := core.ParseDate(start)
	if err != nil {
		return core.VehicleRental{}, err
	}
	v.StartDate = d
	if end.Valid && end.String != "" {
		if v.EndDate, err = core.ParseDate(end.String); err != nil {
			return core.VehicleRental{}, err
		}
	}
	return v, nil
}
