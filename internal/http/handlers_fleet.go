package http

import (
	"net/http"
	"strings"

	"fleetops/internal/core"
)

func (s *Server) handleListVehicles(w http.ResponseWriter, r *http.Request) {
	vehicles, err := s.store.ListVehicles(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	views := make([]vehicleView, 0, len(vehicles))
	for _, v := range vehicles {
		views = append(views, toVehicleView(v))
	}
	respondJSON(w, http.StatusOK, map[string]any{"vehicles": views})
}

func (s *Server) handleCreateVehicle(w http.ResponseWriter, r *http.Request) {
	var in struct {
		PlateNumber string `json:"plate_number"`
		Category    string `json:"category"`
	}
	if err := decodeJSON(r, &in); err != nil {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	if strings.TrimSpace(in.PlateNumber) == "" {
		respondError(w, r, core.ErrEmptyVehicle)
		return
	}

	created, err := s.store.CreateVehicle(r.Context(), core.Vehicle{
		PlateNumber: sanitizeInput(in.PlateNumber),
		Category:    sanitizeInput(in.Category),
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toVehicleView(created))
}

type rentalInput struct {
	RenterName   string   `json:"renter_name"`
	StartDate    string   `json:"start_date"`
	EndDate      string   `json:"end_date"`
	RentalAmount string   `json:"rental_amount"`
	VehicleIDs   []string `json:"vehicle_ids"`
}

func parseRental(in rentalInput) (core.VehicleRental, error) {
	start, err := core.ParseDate(in.StartDate)
	if err != nil {
		return core.VehicleRental{}, err
	}
	var end core.Date
	if strings.TrimSpace(in.EndDate) != "" {
		if end, err = core.ParseDate(in.EndDate); err != nil {
			return core.VehicleRental{}, err
		}
	}
	cents, err := parseAmount(in.RentalAmount)
	if err != nil {
		return core.VehicleRental{}, err
	}
	return core.VehicleRental{
		RenterName:   sanitizeInput(in.RenterName),
		StartDate:    start,
		EndDate:      end,
		RentalAmount: core.Money{Cents: cents},
		VehicleIDs:   in.VehicleIDs,
	}, nil
}

func (s *Server) handleListRentals(w http.ResponseWriter, r *http.Request) {
	excl := parseExclusions(r)
	rentals, err := s.store.ListRentals(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}

	groups := core.GroupRentalsByDate(rentals, excl)
	type groupView struct {
		Date     string       `json:"date"`
		Count    int          `json:"count"`
		Amount   string       `json:"amount"`
		Expenses string       `json:"expenses"`
		Net      string       `json:"net"`
		Rentals  []rentalView `json:"rentals"`
	}
	out := make([]groupView, 0, len(groups))
	for _, g := range groups {
		gv := groupView{
			Date:     g.Date.Key(),
			Count:    g.Count,
			Amount:   core.FormatCents(g.Amount.Cents),
			Expenses: core.FormatCents(g.Expenses.Cents),
			Net:      core.FormatCents(g.Net.Cents),
			Rentals:  make([]rentalView, 0, len(g.Rentals)),
		}
		for _, v := range g.Rentals {
			gv.Rentals = append(gv.Rentals, toRentalView(v, excl))
		}
		out = append(out, gv)
	}
	respondJSON(w, http.StatusOK, map[string]any{"groups": out})
}

func (s *Server) handleGetRental(w http.ResponseWriter, r *http.Request) {
	v, err := s.store.GetRental(r.Context(), r.PathValue("id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toRentalView(v, parseExclusions(r)))
}

func (s *Server) handleCreateRental(w http.ResponseWriter, r *http.Request) {
	var in rentalInput
	if err := decodeJSON(r, &in); err != nil {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	rental, err := parseRental(in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := rental.Validate(); err != nil {
		respondError(w, r, err)
		return
	}

	created, err := s.store.CreateRental(r.Context(), rental)
	if err != nil {
		respondError(w, r, err)
		return
	}
	s.dashCache.Purge()
	respondJSON(w, http.StatusCreated, toRentalView(created, nil))
}

func (s *Server) handleUpdateRental(w http.ResponseWriter, r *http.Request) {
	var in rentalInput
	if err := decodeJSON(r, &in); err != nil {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	rental, err := parseRental(in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	rental.ID = r.PathValue("id")
	if err := rental.Validate(); err != nil {
		respondError(w, r, err)
		return
	}

	if err := s.store.UpdateRental(r.Context(), rental); err != nil {
		respondError(w, r, err)
		return
	}
	s.dashCache.Purge()
	respondJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleDeleteRental(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteRental(r.Context(), r.PathValue("id")); err != nil {
		respondError(w, r, err)
		return
	}
	s.dashCache.Purge()
	respondJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleAddRentalExpense(w http.ResponseWriter, r *http.Request) {
	var in expenseInput
	if err := decodeJSON(r, &in); err != nil {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	cents, err := core.ParseDecimalToCents(in.Amount)
	if err != nil {
		respondError(w, r, err)
		return
	}
	category := core.NormalizeCategory(sanitizeInput(in.Category))
	if category == "" {
		respondError(w, r, core.ErrEmptyCategory)
		return
	}

	created, err := s.store.CreateRentalExpense(r.Context(), core.RentalExpense{
		RentalID:    r.PathValue("id"),
		Category:    category,
		Description: sanitizeInput(in.Description),
		Amount:      core.Money{Cents: cents},
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	s.dashCache.Purge()
	respondJSON(w, http.StatusCreated, expenseView{
		ID:          created.ID,
		Category:    created.Category,
		Description: created.Description,
		Amount:      core.FormatCents(created.Amount.Cents),
	})
}

func (s *Server) handleDeleteRentalExpense(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteRentalExpense(r.Context(), r.PathValue("id"), r.PathValue("expenseID")); err != nil {
		respondError(w, r, err)
		return
	}
	s.dashCache.Purge()
	respondJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleAddRentalPayment(w http.ResponseWriter, r *http.Request) {
	var in struct {
		PaidOn     string `json:"paid_on"`
		Amount     string `json:"amount"`
		ReceiptURL string `json:"receipt_url"`
	}
	if err := decodeJSON(r, &in); err != nil {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	paidOn, err := core.ParseDate(in.PaidOn)
	if err != nil {
		respondError(w, r, err)
		return
	}
	cents, err := core.ParseDecimalToCents(in.Amount)
	if err != nil {
		respondError(w, r, err)
		return
	}

	created, err := s.store.CreateRentalPayment(r.Context(), core.RentalPayment{
		RentalID:   r.PathValue("id"),
		PaidOn:     paidOn,
		Amount:     core.Money{Cents: cents},
		ReceiptURL: in.ReceiptURL,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	s.dashCache.Purge()
	respondJSON(w, http.StatusCreated, rentalPaymentView{
		ID:         created.ID,
		PaidOn:     created.PaidOn.Key(),
		Amount:     core.FormatCents(created.Amount.Cents),
		ReceiptURL: created.ReceiptURL,
	})
}

func (s *Server) handleDeleteRentalPayment(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteRentalPayment(r.Context(), r.PathValue("id"), r.PathValue("paymentID")); err != nil {
		respondError(w, r, err)
		return
	}
	s.dashCache.Purge()
	respondJSON(w, http.StatusNoContent, nil)
}

type companyExpenseInput struct {
	Date        string `json:"date"`
	Category    string `json:"category"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
	ReceiptURL  string `json:"receipt_url"`
}

func parseCompanyExpense(in companyExpenseInput) (core.CompanyExpense, error) {
	date, err := core.ParseDate(in.Date)
	if err != nil {
		return core.CompanyExpense{}, err
	}
	cents, err := core.ParseDecimalToCents(in.Amount)
	if err != nil {
		return core.CompanyExpense{}, err
	}
	c := core.CompanyExpense{
		Date:        date,
		Category:    core.NormalizeCategory(sanitizeInput(in.Category)),
		Description: sanitizeInput(in.Description),
		Amount:      core.Money{Cents: cents},
		ReceiptURL:  in.ReceiptURL,
	}
	return c, c.Validate()
}

func (s *Server) handleListCompanyExpenses(w http.ResponseWriter, r *http.Request) {
	expenses, err := s.store.ListCompanyExpenses(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	views := make([]companyExpenseView, 0, len(expenses))
	for _, c := range expenses {
		views = append(views, toCompanyExpenseView(c))
	}
	respondJSON(w, http.StatusOK, map[string]any{"expenses": views})
}

func (s *Server) handleCreateCompanyExpense(w http.ResponseWriter, r *http.Request) {
	var in companyExpenseInput
	if err := decodeJSON(r, &in); err != nil {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	c, err := parseCompanyExpense(in)
	if err != nil {
		respondError(w, r, err)
		return
	}

	created, err := s.store.CreateCompanyExpense(r.Context(), c)
	if err != nil {
		respondError(w, r, err)
		return
	}
	s.dashCache.Purge()
	respondJSON(w, http.StatusCreated, toCompanyExpenseView(created))
}

func (s *Server) handleUpdateCompanyExpense(w http.ResponseWriter, r *http.Request) {
	var in companyExpenseInput
	if err := decodeJSON(r, &in); err != nil {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	c, err := parseCompanyExpense(in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	c.ID = r.PathValue("id")

	if err := s.store.UpdateCompanyExpense(r.Context(), c); err != nil {
		respondError(w, r, err)
		return
	}
	s.dashCache.Purge()
	respondJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleDeleteCompanyExpense(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteCompanyExpense(r.Context(), r.PathValue("id")); err != nil {
		respondError(w, r, err)
		return
	}
	s.dashCache.Purge()
	respondJSON(w, http.StatusNoContent, nil)
}

type maintenanceInput struct {
	VehicleID       string `json:"vehicle_id"`
	ServiceType     string `json:"service_type"`
	Description     string `json:"description"`
	ServiceDate     string `json:"service_date"`
	NextServiceDate string `json:"next_service_date"`
	Cost            string `json:"cost"`
	ReceiptURL      string `json:"receipt_url"`
}

func parseMaintenance(in maintenanceInput) (core.MaintenanceRecord, error) {
	serviceDate, err := core.ParseDate(in.ServiceDate)
	if err != nil {
		return core.MaintenanceRecord{}, err
	}
	var next core.Date
	if strings.TrimSpace(in.NextServiceDate) != "" {
		if next, err = core.ParseDate(in.NextServiceDate); err != nil {
			return core.MaintenanceRecord{}, err
		}
	}
	cents, err := parseAmount(in.Cost)
	if err != nil {
		return core.MaintenanceRecord{}, err
	}
	m := core.MaintenanceRecord{
		VehicleID:       in.VehicleID,
		ServiceType:     sanitizeInput(in.ServiceType),
		Description:     sanitizeInput(in.Description),
		ServiceDate:     serviceDate,
		NextServiceDate: next,
		Cost:            core.Money{Cents: cents},
		ReceiptURL:      in.ReceiptURL,
	}
	return m, m.Validate()
}

func (s *Server) handleListMaintenance(w http.ResponseWriter, r *http.Request) {
	records, err := s.store.ListMaintenance(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	views := make([]maintenanceView, 0, len(records))
	for _, m := range records {
		views = append(views, toMaintenanceView(m))
	}
	respondJSON(w, http.StatusOK, map[string]any{"records": views})
}

func (s *Server) handleCreateMaintenance(w http.ResponseWriter, r *http.Request) {
	var in maintenanceInput
	if err := decodeJSON(r, &in); err != nil {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	m, err := parseMaintenance(in)
	if err != nil {
		respondError(w, r, err)
		return
	}

	created, err := s.store.CreateMaintenance(r.Context(), m)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toMaintenanceView(created))
}

func (s *Server) handleUpdateMaintenance(w http.ResponseWriter, r *http.Request) {
	var in maintenanceInput
	if err := decodeJSON(r, &in); err != nil {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	m, err := parseMaintenance(in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	m.ID = r.PathValue("id")

	if err := s.store.UpdateMaintenance(r.Context(), m); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleDeleteMaintenance(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteMaintenance(r.Context(), r.PathValue("id")); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

type inventoryInput struct {
	Name       string `json:"name"`
	Category   string `json:"category"`
	Quantity   int64  `json:"quantity"`
	UnitCost   string `json:"unit_cost"`
	ReceiptURL string `json:"receipt_url"`
}

func parseInventory(in inventoryInput) (core.InventoryItem, error) {
	cents, err := parseAmount(in.UnitCost)
	if err != nil {
		return core.InventoryItem{}, err
	}
	i := core.InventoryItem{
		Name:       sanitizeInput(in.Name),
		Category:   sanitizeInput(in.Category),
		Quantity:   in.Quantity,
		UnitCost:   core.Money{Cents: cents},
		ReceiptURL: in.ReceiptURL,
	}
	return i, i.Validate()
}

func (s *Server) handleListInventory(w http.ResponseWriter, r *http.Request) {
	items, err := s.store.ListInventory(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	views := make([]inventoryView, 0, len(items))
	for _, i := range items {
		views = append(views, toInventoryView(i))
	}
	respondJSON(w, http.StatusOK, map[string]any{"items": views})
}

func (s *Server) handleCreateInventory(w http.ResponseWriter, r *http.Request) {
	var in inventoryInput
	if err := decodeJSON(r, &in); err != nil {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	item, err := parseInventory(in)
	if err != nil {
		respondError(w, r, err)
		return
	}

	created, err := s.store.CreateInventoryItem(r.Context(), item)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toInventoryView(created))
}

func (s *Server) handleUpdateInventory(w http.ResponseWriter, r *http.Request) {
	var in inventoryInput
	if err := decodeJSON(r, &in); err != nil {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	item, err := parseInventory(in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	item.ID = r.PathValue("id")

	if err := s.store.UpdateInventoryItem(r.Context(), item); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleDeleteInventory(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteInventoryItem(r.Context(), r.PathValue("id")); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}
