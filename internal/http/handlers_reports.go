package http

import (
	"net/http"

	"fleetops/internal/core"
)

type reportInput struct {
	ReportDate     string `json:"report_date"`
	Status         string `json:"status"`
	VehicleID      string `json:"vehicle_id"`
	TicketRevenue  string `json:"ticket_revenue"`
	BaggageRevenue string `json:"baggage_revenue"`
	CargoRevenue   string `json:"cargo_revenue"`
}

func (s *Server) parseReport(in reportInput) (core.DailyReport, error) {
	date, err := core.ParseDate(in.ReportDate)
	if err != nil {
		return core.DailyReport{}, err
	}
	ticket, err := parseAmount(in.TicketRevenue)
	if err != nil {
		return core.DailyReport{}, err
	}
	baggage, err := parseAmount(in.BaggageRevenue)
	if err != nil {
		return core.DailyReport{}, err
	}
	cargo, err := parseAmount(in.CargoRevenue)
	if err != nil {
		return core.DailyReport{}, err
	}
	return core.DailyReport{
		ReportDate:     date,
		Status:         core.ReportStatus(in.Status),
		Vehicle:        core.Vehicle{ID: in.VehicleID},
		TicketRevenue:  core.Money{Cents: ticket},
		BaggageRevenue: core.Money{Cents: baggage},
		CargoRevenue:   core.Money{Cents: cargo},
	}, nil
}

// handleListReports returns reports grouped by date, newest date first, with
// each report classified against the current deposit links.
func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	excl := parseExclusions(r)
	reports, err := s.reports.ListReports(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	links, err := s.store.LinkedReports(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}

	groups := core.GroupReportsByDate(reports, excl)
	respondJSON(w, http.StatusOK, map[string]any{
		"groups": toReportGroupViews(groups, links, excl),
	})
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	excl := parseExclusions(r)
	rep, err := s.reports.GetReport(r.Context(), r.PathValue("id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	links, err := s.store.LinkedReports(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toReportView(rep, links, excl))
}

func (s *Server) handleCreateReport(w http.ResponseWriter, r *http.Request) {
	var in reportInput
	if err := decodeJSON(r, &in); err != nil {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	rep, err := s.parseReport(in)
	if err != nil {
		respondError(w, r, err)
		return
	}

	created, err := s.reports.CreateReport(r.Context(), rep)
	if err != nil {
		respondError(w, r, err)
		return
	}
	s.dashCache.Purge()
	respondJSON(w, http.StatusCreated, toReportView(created, nil, nil))
}

func (s *Server) handleUpdateReport(w http.ResponseWriter, r *http.Request) {
	var in reportInput
	if err := decodeJSON(r, &in); err != nil {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	rep, err := s.parseReport(in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	rep.ID = r.PathValue("id")

	if err := s.reports.UpdateReport(r.Context(), rep); err != nil {
		respondError(w, r, err)
		return
	}
	s.dashCache.Purge()

	updated, err := s.reports.GetReport(r.Context(), rep.ID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toReportView(updated, nil, nil))
}

func (s *Server) handleDeleteReport(w http.ResponseWriter, r *http.Request) {
	if err := s.reports.DeleteReport(r.Context(), r.PathValue("id")); err != nil {
		respondError(w, r, err)
		return
	}
	s.dashCache.Purge()
	respondJSON(w, http.StatusNoContent, nil)
}

type expenseInput struct {
	Category    string `json:"category"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
	ReceiptURL  string `json:"receipt_url"`
}

func (s *Server) handleAddExpense(w http.ResponseWriter, r *http.Request) {
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

	created, err := s.reports.AddExpense(r.Context(), core.DailyExpense{
		ReportID:    r.PathValue("id"),
		Category:    sanitizeInput(in.Category),
		Description: sanitizeInput(in.Description),
		Amount:      core.Money{Cents: cents},
		ReceiptURL:  in.ReceiptURL,
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
		ReceiptURL:  created.ReceiptURL,
	})
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
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

	err = s.reports.UpdateExpense(r.Context(), core.DailyExpense{
		ID:          r.PathValue("expenseID"),
		ReportID:    r.PathValue("id"),
		Category:    sanitizeInput(in.Category),
		Description: sanitizeInput(in.Description),
		Amount:      core.Money{Cents: cents},
		ReceiptURL:  in.ReceiptURL,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	s.dashCache.Purge()
	respondJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	if err := s.reports.DeleteExpense(r.Context(), r.PathValue("id"), r.PathValue("expenseID")); err != nil {
		respondError(w, r, err)
		return
	}
	s.dashCache.Purge()
	respondJSON(w, http.StatusNoContent, nil)
}

// handleSearchCategories suggests expense categories. Failures are already
// swallowed in the service; this endpoint always answers 200.
func (s *Server) handleSearchCategories(w http.ResponseWriter, r *http.Request) {
	categories := s.reports.SearchCategories(r.Context(), r.URL.Query().Get("q"))
	if categories == nil {
		categories = []string{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"categories": categories})
}

// handleExportReports streams the report CSV, honoring the exclusion set.
func (s *Server) handleExportReports(w http.ResponseWriter, r *http.Request) {
	excl := parseExclusions(r)
	reports, err := s.reports.ListReports(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondCSV(w, "daily-reports.csv", core.ReportsCSV(reports, excl))
}
