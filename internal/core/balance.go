package core

// Exclusions is a caller-supplied set of expense categories omitted from
// expense subtraction when computing a net balance. It is always passed
// explicitly; there is no ambient filter state shared between views.
// Matching is exact and case-sensitive against the stored category.
type Exclusions map[string]struct{}

// NewExclusions builds an exclusion set from category names.
func NewExclusions(names ...string) Exclusions {
	if len(names) == 0 {
		return nil
	}
	e := make(Exclusions, len(names))
	for _, n := range names {
		e[n] = struct{}{}
	}
	return e
}

// Has is nil-safe: a nil set excludes nothing.
func (e Exclusions) Has(category string) bool {
	if e == nil {
		return false
	}
	_, ok := e[category]
	return ok
}

// TotalRevenue sums the three revenue fields. Missing fields are zero-valued
// by construction.
func (r DailyReport) TotalRevenue() Money {
	return Money{Cents: r.TicketRevenue.Cents + r.BaggageRevenue.Cents + r.CargoRevenue.Cents}
}

// TotalExpenses sums expense amounts, skipping excluded categories.
func (r DailyReport) TotalExpenses(excl Exclusions) Money {
	var sum int64
	for _, e := range r.Expenses {
		if excl.Has(e.Category) {
			continue
		}
		sum += e.Amount.Cents
	}
	return Money{Cents: sum}
}

// NetBalance is total revenue minus (filtered) total expenses. The result is
// signed; a negative balance represents a loss.
func (r DailyReport) NetBalance(excl Exclusions) Money {
	return r.TotalRevenue().Sub(r.TotalExpenses(excl))
}

// SumNetBalances totals per-report net balances. Aggregates are always the
// sum of per-entity balances, never recomputed from group-level revenue and
// expense totals, so exclusion semantics hold per entity.
func SumNetBalances(reports []DailyReport, excl Exclusions) Money {
	var sum int64
	for _, r := range reports {
		sum += r.NetBalance(excl).Cents
	}
	return Money{Cents: sum}
}

// TotalExpenses sums rental expense amounts, skipping excluded categories.
func (v VehicleRental) TotalExpenses(excl Exclusions) Money {
	var sum int64
	for _, e := range v.Expenses {
		if excl.Has(e.Category) {
			continue
		}
		sum += e.Amount.Cents
	}
	return Money{Cents: sum}
}

// NetProfit is the rental amount minus (filtered) expenses.
func (v VehicleRental) NetProfit(excl Exclusions) Money {
	return v.RentalAmount.Sub(v.TotalExpenses(excl))
}

// TotalPaid sums recorded payment receipts.
func (v VehicleRental) TotalPaid() Money {
	var sum int64
	for _, p := range v.Payments {
		sum += p.Amount.Cents
	}
	return Money{Cents: sum}
}

// Outstanding is the rental amount not yet covered by payments.
func (v VehicleRental) Outstanding() Money {
	return v.RentalAmount.Sub(v.TotalPaid())
}
