package core

import "sort"

type (
	// ReportGroup aggregates one calendar date's reports. Reports keep the
	// insertion order of the source collection.
	ReportGroup struct {
		Date     Date
		Count    int
		Revenue  Money
		Expenses Money
		Net      Money
		Reports  []DailyReport
	}

	// DepositGroup aggregates one calendar date's deposits, with the sorted
	// distinct bank names seen in the group.
	DepositGroup struct {
		Date     Date
		Count    int
		Amount   Money
		Banks    []string
		Deposits []BankDeposit
	}

	// RentalGroup aggregates rentals by start date.
	RentalGroup struct {
		Date     Date
		Count    int
		Amount   Money
		Expenses Money
		Net      Money
		Rentals  []VehicleRental
	}
)

// GroupReportsByDate groups reports by calendar date, most recent first.
// Grouping is a pure function of the input collection and the exclusion set:
// the same records in any input order produce the same groups and sums.
func GroupReportsByDate(reports []DailyReport, excl Exclusions) []ReportGroup {
	byKey := make(map[string]*ReportGroup)
	for _, r := range reports {
		day := DateOf(r.ReportDate.Time)
		g, ok := byKey[day.Key()]
		if !ok {
			g = &ReportGroup{Date: day}
			byKey[day.Key()] = g
		}
		g.Count++
		g.Revenue = g.Revenue.Add(r.TotalRevenue())
		g.Expenses = g.Expenses.Add(r.TotalExpenses(excl))
		// Net is the sum of per-report balances, not Revenue-Expenses
		// recomputed at group level.
		g.Net = g.Net.Add(r.NetBalance(excl))
		g.Reports = append(g.Reports, r)
	}
	return sortedGroups(byKey)
}

// GroupDepositsByDate groups deposits by deposit date, most recent first.
func GroupDepositsByDate(deposits []BankDeposit) []DepositGroup {
	byKey := make(map[string]*DepositGroup)
	for _, d := range deposits {
		day := DateOf(d.DepositDate.Time)
		g, ok := byKey[day.Key()]
		if !ok {
			g = &DepositGroup{Date: day}
			byKey[day.Key()] = g
		}
		g.Count++
		g.Amount = g.Amount.Add(d.Amount)
		g.Deposits = append(g.Deposits, d)
	}
	groups := make([]DepositGroup, 0, len(byKey))
	for _, g := range byKey {
		g.Banks = distinctSorted(g.Deposits)
		groups = append(groups, *g)
	}
	sort.Slice(groups, func(i, j int) bool {
		return groups[i].Date.After(groups[j].Date.Time)
	})
	return groups
}

// GroupRentalsByDate groups rentals by start date, most recent first.
func GroupRentalsByDate(rentals []VehicleRental, excl Exclusions) []RentalGroup {
	byKey := make(map[string]*RentalGroup)
	for _, v := range rentals {
		day := DateOf(v.StartDate.Time)
		g, ok := byKey[day.Key()]
		if !ok {
			g = &RentalGroup{Date: day}
			byKey[day.Key()] = g
		}
		g.Count++
		g.Amount = g.Amount.Add(v.RentalAmount)
		g.Expenses = g.Expenses.Add(v.TotalExpenses(excl))
		g.Net = g.Net.Add(v.NetProfit(excl))
		g.Rentals = append(g.Rentals, v)
	}
	groups := make([]RentalGroup, 0, len(byKey))
	for _, g := range byKey {
		groups = append(groups, *g)
	}
	sort.Slice(groups, func(i, j int) bool {
		return groups[i].Date.After(groups[j].Date.Time)
	})
	return groups
}

func sortedGroups(byKey map[string]*ReportGroup) []ReportGroup {
	groups := make([]ReportGroup, 0, len(byKey))
	for _, g := range byKey {
		groups = append(groups, *g)
	}
	sort.Slice(groups, func(i, j int) bool {
		return groups[i].Date.After(groups[j].Date.Time)
	})
	return groups
}

func distinctSorted(deposits []BankDeposit) []string {
	seen := make(map[string]struct{})
	var banks []string
	for _, d := range deposits {
		if _, ok := seen[d.BankName]; ok {
			continue
		}
		seen[d.BankName] = struct{}{}
		banks = append(banks, d.BankName)
	}
	sort.Strings(banks)
	return banks
}
