package http

import (
	"net/http"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"fleetops/internal/core"
)

// dashboardView is the joint summary across all record types for one
// exclusion set.
type dashboardView struct {
	TotalRevenue    string             `json:"total_revenue"`
	TotalExpenses   string             `json:"total_expenses"`
	NetBalance      string             `json:"net_balance"`
	Depositable     string             `json:"depositable"`
	DepositedTotal  string             `json:"deposited_total"`
	CompanyExpenses string             `json:"company_expenses"`
	RentalNet       string             `json:"rental_net"`
	ReportCounts    map[string]int     `json:"report_counts"`
	ReportGroups    []reportGroupView  `json:"report_groups"`
	DepositGroups   []depositGroupView `json:"deposit_groups"`
}

// handleDashboard fetches reports, deposits, rentals and company expenses in
// parallel and aggregates them. Results are cached per exclusion set; any
// write purges the cache.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	excl := parseExclusions(r)
	key := dashboardKey(excl)
	if view, ok := s.dashCache.Get(key); ok {
		respondJSON(w, http.StatusOK, view)
		return
	}

	var (
		reports  []core.DailyReport
		deposits []core.BankDeposit
		rentals  []core.VehicleRental
		company  []core.CompanyExpense
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() (err error) {
		reports, err = s.reports.ListReports(ctx)
		return err
	})
	g.Go(func() (err error) {
		deposits, err = s.deposits.ListDeposits(ctx)
		return err
	})
	g.Go(func() (err error) {
		rentals, err = s.store.ListRentals(ctx)
		return err
	})
	g.Go(func() (err error) {
		company, err = s.store.ListCompanyExpenses(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		respondError(w, r, err)
		return
	}

	view := buildDashboard(reports, deposits, rentals, company, excl)
	s.dashCache.Set(key, view)
	respondJSON(w, http.StatusOK, view)
}

func buildDashboard(reports []core.DailyReport, deposits []core.BankDeposit, rentals []core.VehicleRental, company []core.CompanyExpense, excl core.Exclusions) dashboardView {
	links := core.NewLinkSet(deposits)

	var revenue, expenses, depositable, deposited, companyTotal, rentalNet int64
	counts := map[string]int{
		string(core.ClassDepositable):      0,
		string(core.ClassAlreadyDeposited): 0,
		string(core.ClassLoss):             0,
	}
	for _, rep := range reports {
		revenue += rep.TotalRevenue().Cents
		expenses += rep.TotalExpenses(excl).Cents
		class := core.Classify(rep, links, excl)
		counts[string(class)]++
		if class == core.ClassDepositable {
			depositable += rep.NetBalance(excl).Cents
		}
	}
	for _, d := range deposits {
		deposited += d.Amount.Cents
	}
	for _, c := range company {
		companyTotal += c.Amount.Cents
	}
	for _, v := range rentals {
		rentalNet += v.NetProfit(excl).Cents
	}

	return dashboardView{
		TotalRevenue:    core.FormatCents(revenue),
		TotalExpenses:   core.FormatCents(expenses),
		NetBalance:      core.FormatCents(core.SumNetBalances(reports, excl).Cents),
		Depositable:     core.FormatCents(depositable),
		DepositedTotal:  core.FormatCents(deposited),
		CompanyExpenses: core.FormatCents(companyTotal),
		RentalNet:       core.FormatCents(rentalNet),
		ReportCounts:    counts,
		ReportGroups:    toReportGroupViews(core.GroupReportsByDate(reports, excl), links, excl),
		DepositGroups:   toDepositGroupViews(core.GroupDepositsByDate(deposits)),
	}
}

func dashboardKey(excl core.Exclusions) string {
	if len(excl) == 0 {
		return "dashboard"
	}
	names := make([]string, 0, len(excl))
	for name := range excl {
		names = append(names, name)
	}
	sort.Strings(names)
	return "dashboard|" + strings.Join(names, ",")
}
