package storage

import (
	"context"
	"database/sql"

	"fleetops/internal/core"
)

// Vehicles, company expenses, maintenance and inventory are plain CRUD
// entities with no cross-entity reconciliation.

func (r *SQLiteRepository) ListVehicles(ctx context.Context) ([]core.Vehicle, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, plate_number, category FROM vehicles ORDER BY plate_number`)
	if err != nil {
		return nil, wrap("list vehicles", err)
	}
	defer rows.Close()

	var out []core.Vehicle
	for rows.Next() {
		var v core.Vehicle
		if err := rows.Scan(&v.ID, &v.PlateNumber, &v.Category); err != nil {
			return nil, wrap("list vehicles", err)
		}
		out = append(out, v)
	}
	return out, wrap("list vehicles", rows.Err())
}

func (r *SQLiteRepository) CreateVehicle(ctx context.Context, v core.Vehicle) (core.Vehicle, error) {
	v.ID = newID()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO vehicles (id, plate_number, category) VALUES (?, ?, ?)`,
		v.ID, v.PlateNumber, v.Category)
	if err != nil {
		return core.Vehicle{}, wrap("create vehicle", err)
	}
	return v, nil
}

func (r *SQLiteRepository) ListCompanyExpenses(ctx context.Context) ([]core.CompanyExpense, error) {
	const op = "list company expenses"
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, expense_date, category, description, amount_cents, receipt_url
		FROM company_expenses ORDER BY expense_date DESC, rowid`)
	if err != nil {
		return nil, wrap(op, err)
	}
	defer rows.Close()

	var out []core.CompanyExpense
	for rows.Next() {
		var c core.CompanyExpense
		var date string
		if err := rows.Scan(&c.ID, &date, &c.Category, &c.Description, &c.Amount.Cents, &c.ReceiptURL); err != nil {
			return nil, wrap(op, err)
		}
		if c.Date, err = core.ParseDate(date); err != nil {
			return nil, wrap(op, err)
		}
		out = append(out, c)
	}
	return out, wrap(op, rows.Err())
}

func (r *SQLiteRepository) CreateCompanyExpense(ctx context.Context, c core.CompanyExpense) (core.CompanyExpense, error) {
	c.ID = newID()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO company_expenses (id, expense_date, category, description, amount_cents, receipt_url)
		VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, c.Date.Key(), c.Category, c.Description, c.Amount.Cents, c.ReceiptURL)
	if err != nil {
		return core.CompanyExpense{}, wrap("create company expense", err)
	}
	return c, nil
}

func (r *SQLiteRepository) UpdateCompanyExpense(ctx context.Context, c core.CompanyExpense) error {
	const op = "update company expense"
	res, err := r.db.ExecContext(ctx, `
		UPDATE company_expenses SET expense_date = ?, category = ?, description = ?, amount_cents = ?, receipt_url = ?
		WHERE id = ?`,
		c.Date.Key(), c.Category, c.Description, c.Amount.Cents, c.ReceiptURL, c.ID)
	if err != nil {
		return wrap(op, err)
	}
	return requireRow(op, res)
}

func (r *SQLiteRepository) DeleteCompanyExpense(ctx context.Context, id string) error {
	const op = "delete company expense"
	res, err := r.db.ExecContext(ctx, `DELETE FROM company_expenses WHERE id = ?`, id)
	if err != nil {
		return wrap(op, err)
	}
	return requireRow(op, res)
}

func (r *SQLiteRepository) ListMaintenance(ctx context.Context) ([]core.MaintenanceRecord, error) {
	const op = "list maintenance"
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, vehicle_id, service_type, description, service_date, next_service_date, cost_cents, receipt_url
		FROM maintenance_records ORDER BY service_date DESC, rowid`)
	if err != nil {
		return nil, wrap(op, err)
	}
	defer rows.Close()

	var out []core.MaintenanceRecord
	for rows.Next() {
		var m core.MaintenanceRecord
		var serviceDate string
		var nextDate sql.NullString
		if err := rows.Scan(&m.ID, &m.VehicleID, &m.ServiceType, &m.Description,
			&serviceDate, &nextDate, &m.Cost.Cents, &m.ReceiptURL); err != nil {
			return nil, wrap(op, err)
		}
		if m.ServiceDate, err = core.ParseDate(serviceDate); err != nil {
			return nil, wrap(op, err)
		}
		if nextDate.Valid && nextDate.String != "" {
			if m.NextServiceDate, err = core.ParseDate(nextDate.String); err != nil {
				return nil, wrap(op, err)
			}
		}
		out = append(out, m)
	}
	return out, wrap(op, rows.Err())
}

func (r *SQLiteRepository) CreateMaintenance(ctx context.Context, m core.MaintenanceRecord) (core.MaintenanceRecord, error) {
	m.ID = newID()
	var next any
	if !m.NextServiceDate.IsZero() {
		next = m.NextServiceDate.Key()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO maintenance_records (id, vehicle_id, service_type, description, service_date, next_service_date, cost_cents, receipt_url)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.VehicleID, m.ServiceType, m.Description, m.ServiceDate.Key(), next, m.Cost.Cents, m.ReceiptURL)
	if err != nil {
		return core.MaintenanceRecord{}, wrap("create maintenance", err)
	}
	return m, nil
}

func (r *SQLiteRepository) UpdateMaintenance(ctx context.Context, m core.MaintenanceRecord) error {
	const op = "update maintenance"
	var next any
	if !m.NextServiceDate.IsZero() {
		next = m.NextServiceDate.Key()
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE maintenance_records
		SET vehicle_id = ?, service_type = ?, description = ?, service_date = ?, next_service_date = ?, cost_cents = ?, receipt_url = ?
		WHERE id = ?`,
		m.VehicleID, m.ServiceType, m.Description, m.ServiceDate.Key(), next, m.Cost.Cents, m.ReceiptURL, m.ID)
	if err != nil {
		return wrap(op, err)
	}
	return requireRow(op, res)
}

func (r *SQLiteRepository) DeleteMaintenance(ctx context.Context, id string) error {
	const op = "delete maintenance"
	res, err := r.db.ExecContext(ctx, `DELETE FROM maintenance_records WHERE id = ?`, id)
	if err != nil {
		return wrap(op, err)
	}
	return requireRow(op, res)
}

func (r *SQLiteRepository) ListInventory(ctx context.Context) ([]core.InventoryItem, error) {
	const op = "list inventory"
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, category, quantity, unit_cost_cents, receipt_url
		FROM inventory_items ORDER BY name`)
	if err != nil {
		return nil, wrap(op, err)
	}
	defer rows.Close()

	var out []core.InventoryItem
	for rows.Next() {
		var i core.InventoryItem
		if err := rows.Scan(&i.ID, &i.Name, &i.Category, &i.Quantity, &i.UnitCost.Cents, &i.ReceiptURL); err != nil {
			return nil, wrap(op, err)
		}
		out = append(out, i)
	}
	return out, wrap(op, rows.Err())
}

func (r *SQLiteRepository) CreateInventoryItem(ctx context.Context, i core.InventoryItem) (core.InventoryItem, error) {
	i.ID = newID()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO inventory_items (id, name, category, quantity, unit_cost_cents, receipt_url)
		VALUES (?, ?, ?, ?, ?, ?)`,
		i.ID, i.Name, i.Category, i.Quantity, i.UnitCost.Cents, i.ReceiptURL)
	if err != nil {
		return core.InventoryItem{}, wrap("create inventory item", err)
	}
	return i, nil
}

func (r *SQLiteRepository) UpdateInventoryItem(ctx context.Context, i core.InventoryItem) error {
	const op = "update inventory item"
	res, err := r.db.ExecContext(ctx, `
		UPDATE inventory_items SET name = ?, category = ?, quantity = ?, unit_cost_cents = ?, receipt_url = ?
		WHERE id = ?`,
		i.Name, i.Category, i.Quantity, i.UnitCost.Cents, i.ReceiptURL, i.ID)
	if err != nil {
		return wrap(op, err)
	}
	return requireRow(op, res)
}

func (r *SQLiteRepository) DeleteInventoryItem(ctx context.Context, id string) error {
	const op = "delete inventory item"
	res, err := r.db.ExecContext(ctx, `DELETE FROM inventory_items WHERE id = ?`, id)
	if err != nil {
		return wrap(op, err)
	}
	return requireRow(op, res)
}
