package http

import (
	"fleetops/internal/core"
)

// View structs shape JSON responses. Monetary values are decimal strings
// ("1234.50"); cents never leave the server raw.

type vehicleView struct {
	ID          string `json:"id"`
	PlateNumber string `json:"plate_number"`
	Category    string `json:"category"`
}

type expenseView struct {
	ID          string `json:"id"`
	Category    string `json:"category"`
	Description string `json:"description,omitempty"`
	Amount      string `json:"amount"`
	ReceiptURL  string `json:"receipt_url,omitempty"`
}

type reportView struct {
	ID             string        `json:"id"`
	ReportDate     string        `json:"report_date"`
	Status         string        `json:"status"`
	Vehicle        vehicleView   `json:"vehicle"`
	TicketRevenue  string        `json:"ticket_revenue"`
	BaggageRevenue string        `json:"baggage_revenue"`
	CargoRevenue   string        `json:"cargo_revenue"`
	TotalRevenue   string        `json:"total_revenue"`
	TotalExpenses  string        `json:"total_expenses"`
	NetBalance     string        `json:"net_balance"`
	Class          string        `json:"class,omitempty"`
	Expenses       []expenseView `json:"expenses"`
}

type reportGroupView struct {
	Date     string       `json:"date"`
	Count    int          `json:"count"`
	Revenue  string       `json:"revenue"`
	Expenses string       `json:"expenses"`
	Net      string       `json:"net"`
	Reports  []reportView `json:"reports"`
}

type slipView struct {
	ID       string `json:"id"`
	URL      string `json:"url"`
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
}

type depositView struct {
	ID          string     `json:"id"`
	BankName    string     `json:"bank_name"`
	DepositDate string     `json:"deposit_date"`
	Amount      string     `json:"amount"`
	ReportIDs   []string   `json:"report_ids"`
	Slips       []slipView `json:"slips"`
}

type depositGroupView struct {
	Date     string        `json:"date"`
	Count    int           `json:"count"`
	Amount   string        `json:"amount"`
	Banks    []string      `json:"banks"`
	Deposits []depositView `json:"deposits"`
}

type rentalView struct {
	ID           string              `json:"id"`
	RenterName   string              `json:"renter_name"`
	StartDate    string              `json:"start_date"`
	EndDate      string              `json:"end_date,omitempty"`
	RentalAmount string              `json:"rental_amount"`
	VehicleIDs   []string            `json:"vehicle_ids"`
	Expenses     []expenseView       `json:"expenses"`
	Payments     []rentalPaymentView `json:"payments"`
	NetProfit    string              `json:"net_profit"`
	TotalPaid    string              `json:"total_paid"`
	Outstanding  string              `json:"outstanding"`
}

type rentalPaymentView struct {
	ID         string `json:"id"`
	PaidOn     string `json:"paid_on"`
	Amount     string `json:"amount"`
	ReceiptURL string `json:"receipt_url,omitempty"`
}

type companyExpenseView struct {
	ID          string `json:"id"`
	Date        string `json:"date"`
	Category    string `json:"category"`
	Description string `json:"description,omitempty"`
	Amount      string `json:"amount"`
	ReceiptURL  string `json:"receipt_url,omitempty"`
}

type maintenanceView struct {
	ID              string `json:"id"`
	VehicleID       string `json:"vehicle_id"`
	ServiceType     string `json:"service_type"`
	Description     string `json:"description,omitempty"`
	ServiceDate     string `json:"service_date"`
	NextServiceDate string `json:"next_service_date,omitempty"`
	Cost            string `json:"cost"`
	ReceiptURL      string `json:"receipt_url,omitempty"`
}

type inventoryView struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Category   string `json:"category"`
	Quantity   int64  `json:"quantity"`
	UnitCost   string `json:"unit_cost"`
	TotalValue string `json:"total_value"`
	ReceiptURL string `json:"receipt_url,omitempty"`
}

func toVehicleView(v core.Vehicle) vehicleView {
	return vehicleView{ID: v.ID, PlateNumber: v.PlateNumber, Category: v.Category}
}

func toReportView(r core.DailyReport, links core.LinkSet, excl core.Exclusions) reportView {
	v := reportView{
		ID:             r.ID,
		ReportDate:     r.ReportDate.Key(),
		Status:         string(r.Status),
		Vehicle:        toVehicleView(r.Vehicle),
		TicketRevenue:  core.FormatCents(r.TicketRevenue.Cents),
		BaggageRevenue: core.FormatCents(r.BaggageRevenue.Cents),
		CargoRevenue:   core.FormatCents(r.CargoRevenue.Cents),
		TotalRevenue:   core.FormatCents(r.TotalRevenue().Cents),
		TotalExpenses:  core.FormatCents(r.TotalExpenses(excl).Cents),
		NetBalance:     core.FormatCents(r.NetBalance(excl).Cents),
		Expenses:       make([]expenseView, 0, len(r.Expenses)),
	}
	if links != nil {
		v.Class = string(core.Classify(r, links, excl))
	}
	for _, e := range r.Expenses {
		v.Expenses = append(v.Expenses, expenseView{
			ID:          e.ID,
			Category:    e.Category,
			Description: e.Description,
			Amount:      core.FormatCents(e.Amount.Cents),
			ReceiptURL:  e.ReceiptURL,
		})
	}
	return v
}

func toReportGroupViews(groups []core.ReportGroup, links core.LinkSet, excl core.Exclusions) []reportGroupView {
	out := make([]reportGroupView, 0, len(groups))
	for _, g := range groups {
		gv := reportGroupView{
			Date:     g.Date.Key(),
			Count:    g.Count,
			Revenue:  core.FormatCents(g.Revenue.Cents),
			Expenses: core.FormatCents(g.Expenses.Cents),
			Net:      core.FormatCents(g.Net.Cents),
			Reports:  make([]reportView, 0, len(g.Reports)),
		}
		for _, r := range g.Reports {
			gv.Reports = append(gv.Reports, toReportView(r, links, excl))
		}
		out = append(out, gv)
	}
	return out
}

func toDepositView(d core.BankDeposit) depositView {
	v := depositView{
		ID:          d.ID,
		BankName:    d.BankName,
		DepositDate: d.DepositDate.Key(),
		Amount:      core.FormatCents(d.Amount.Cents),
		ReportIDs:   d.ReportIDs,
		Slips:       make([]slipView, 0, len(d.Slips)),
	}
	if v.ReportIDs == nil {
		v.ReportIDs = []string{}
	}
	for _, s := range d.Slips {
		v.Slips = append(v.Slips, slipView{ID: s.ID, URL: s.URL, Filename: s.Filename, Size: s.Size})
	}
	return v
}

func toDepositGroupViews(groups []core.DepositGroup) []depositGroupView {
	out := make([]depositGroupView, 0, len(groups))
	for _, g := range groups {
		gv := depositGroupView{
			Date:     g.Date.Key(),
			Count:    g.Count,
			Amount:   core.FormatCents(g.Amount.Cents),
			Banks:    g.Banks,
			Deposits: make([]depositView, 0, len(g.Deposits)),
		}
		for _, d := range g.Deposits {
			gv.Deposits = append(gv.Deposits, toDepositView(d))
		}
		out = append(out, gv)
	}
	return out
}

func toRentalView(v core.VehicleRental, excl core.Exclusions) rentalView {
	rv := rentalView{
		ID:           v.ID,
		RenterName:   v.RenterName,
		StartDate:    v.StartDate.Key(),
		RentalAmount: core.FormatCents(v.RentalAmount.Cents),
		VehicleIDs:   v.VehicleIDs,
		Expenses:     make([]expenseView, 0, len(v.Expenses)),
		Payments:     make([]rentalPaymentView, 0, len(v.Payments)),
		NetProfit:    core.FormatCents(v.NetProfit(excl).Cents),
		TotalPaid:    core.FormatCents(v.TotalPaid().Cents),
		Outstanding:  core.FormatCents(v.Outstanding().Cents),
	}
	if rv.VehicleIDs == nil {
		rv.VehicleIDs = []string{}
	}
	if !v.EndDate.IsZero() {
		rv.EndDate = v.EndDate.Key()
	}
	for _, e := range v.Expenses {
		rv.Expenses = append(rv.Expenses, expenseView{
			ID:          e.ID,
			Category:    e.Category,
			Description: e.Description,
			Amount:      core.FormatCents(e.Amount.Cents),
		})
	}
	for _, p := range v.Payments {
		rv.Payments = append(rv.Payments, rentalPaymentView{
			ID:         p.ID,
			PaidOn:     p.PaidOn.Key(),
			Amount:     core.FormatCents(p.Amount.Cents),
			ReceiptURL: p.ReceiptURL,
		})
	}
	return rv
}

func toCompanyExpenseView(c core.CompanyExpense) companyExpenseView {
	return companyExpenseView{
		ID:          c.ID,
		Date:        c.Date.Key(),
		Category:    c.Category,
		Description: c.Description,
		Amount:      core.FormatCents(c.Amount.Cents),
		ReceiptURL:  c.ReceiptURL,
	}
}

func toMaintenanceView(m core.MaintenanceRecord) maintenanceView {
	v := maintenanceView{
		ID:          m.ID,
		VehicleID:   m.VehicleID,
		ServiceType: m.ServiceType,
		Description: m.Description,
		ServiceDate: m.ServiceDate.Key(),
		Cost:        core.FormatCents(m.Cost.Cents),
		ReceiptURL:  m.ReceiptURL,
	}
	if !m.NextServiceDate.IsZero() {
		v.NextServiceDate = m.NextServiceDate.Key()
	}
	return v
}

func toInventoryView(i core.InventoryItem) inventoryView {
	return inventoryView{
		ID:         i.ID,
		Name:       i.Name,
		Category:   i.Category,
		Quantity:   i.Quantity,
		UnitCost:   core.FormatCents(i.UnitCost.Cents),
		TotalValue: core.FormatCents(i.Quantity * i.UnitCost.Cents),
		ReceiptURL: i.ReceiptURL,
	}
}
