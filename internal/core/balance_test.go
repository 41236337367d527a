package core

import "testing"

func report(id string, date Date, cents ...int64) DailyReport {
	r := DailyReport{
		ID:         id,
		ReportDate: date,
		Status:     StatusOperational,
		Vehicle:    Vehicle{ID: "v1", PlateNumber: "RAD 123 A"},
	}
	if len(cents) > 0 {
		r.TicketRevenue = Money{Cents: cents[0]}
	}
	if len(cents) > 1 {
		r.BaggageRevenue = Money{Cents: cents[1]}
	}
	if len(cents) > 2 {
		r.CargoRevenue = Money{Cents: cents[2]}
	}
	return r
}

func TestNetBalanceScenario(t *testing.T) {
	// ticket=100,000, baggage=20,000, cargo=0, one Fuel expense of 40,000
	r := report("r1", NewDate(2025, 3, 10), 100_000_00, 20_000_00, 0)
	r.Expenses = []DailyExpense{
		{ID: "e1", ReportID: "r1", Category: CategoryFuel, Amount: Money{Cents: 40_000_00}},
	}

	if got := r.TotalRevenue().Cents; got != 120_000_00 {
		t.Fatalf("total revenue = %d, want 12000000", got)
	}
	if got := r.NetBalance(nil).Cents; got != 80_000_00 {
		t.Fatalf("net balance = %d, want 8000000", got)
	}
	if got := r.NetBalance(NewExclusions(CategoryFuel)).Cents; got != 120_000_00 {
		t.Fatalf("net balance excluding Fuel = %d, want 12000000", got)
	}
}

func TestNetBalanceSign(t *testing.T) {
	cases := []struct {
		name     string
		revenue  int64
		expense  int64
		want     int64
	}{
		{"profit", 500_00, 200_00, 300_00},
		{"break even", 500_00, 500_00, 0},
		{"loss", 200_00, 500_00, -300_00},
		{"no expenses", 200_00, 0, 200_00},
		{"zero report", 0, 0, 0},
	}
	for _, tc := range cases {
		r := report("r", NewDate(2025, 1, 1), tc.revenue)
		if tc.expense > 0 {
			r.Expenses = []DailyExpense{{Category: "Parking", Amount: Money{Cents: tc.expense}}}
		}
		if got := r.NetBalance(nil).Cents; got != tc.want {
			t.Fatalf("%s: net = %d, want %d", tc.name, got, tc.want)
		}
	}
}

func TestExclusionMonotonicity(t *testing.T) {
	r := report("r", NewDate(2025, 1, 1), 1000_00)
	r.Expenses = []DailyExpense{
		{Category: CategoryFuel, Amount: Money{Cents: 300_00}},
		{Category: CategorySubsidy, Amount: Money{Cents: 200_00}},
		{Category: "Parking", Amount: Money{Cents: 100_00}},
	}

	base := r.NetBalance(nil).Cents
	sets := []Exclusions{
		NewExclusions(CategoryFuel),
		NewExclusions(CategorySubsidy),
		NewExclusions(CategoryFuel, CategorySubsidy),
		NewExclusions(CategoryFuel, CategorySubsidy, "Parking"),
		NewExclusions("Nonexistent"),
	}
	for i, excl := range sets {
		if got := r.NetBalance(excl).Cents; got < base {
			t.Fatalf("set %d: excluding categories decreased balance: %d < %d", i, got, base)
		}
	}
	// Excluding everything leaves pure revenue.
	all := NewExclusions(CategoryFuel, CategorySubsidy, "Parking")
	if got := r.NetBalance(all).Cents; got != 1000_00 {
		t.Fatalf("all excluded: net = %d, want 100000", got)
	}
}

func TestExclusionMatchIsCaseSensitive(t *testing.T) {
	r := report("r", NewDate(2025, 1, 1), 1000_00)
	r.Expenses = []DailyExpense{{Category: CategoryFuel, Amount: Money{Cents: 300_00}}}

	// "fuel" as typed does not match the stored "Fuel".
	if got := r.NetBalance(NewExclusions("fuel")).Cents; got != 700_00 {
		t.Fatalf("lowercase exclusion matched: net = %d, want 70000", got)
	}
}

func TestSumNetBalances(t *testing.T) {
	a := report("a", NewDate(2025, 1, 1), 500_00)
	a.Expenses = []DailyExpense{{Category: CategoryFuel, Amount: Money{Cents: 100_00}}}
	b := report("b", NewDate(2025, 1, 1), 300_00)
	b.Expenses = []DailyExpense{{Category: "Parking", Amount: Money{Cents: 50_00}}}

	excl := NewExclusions(CategoryFuel)
	want := a.NetBalance(excl).Cents + b.NetBalance(excl).Cents
	if got := SumNetBalances([]DailyReport{a, b}, excl).Cents; got != want {
		t.Fatalf("sum = %d, want %d", got, want)
	}
}

func TestRentalNetProfit(t *testing.T) {
	v := VehicleRental{
		ID:           "rent1",
		RenterName:   "Acme",
		StartDate:    NewDate(2025, 2, 1),
		RentalAmount: Money{Cents: 900_00},
		Expenses: []RentalExpense{
			{Category: CategoryFuel, Amount: Money{Cents: 200_00}},
			{Category: "Driver", Amount: Money{Cents: 100_00}},
		},
		Payments: []RentalPayment{
			{Amount: Money{Cents: 400_00}},
			{Amount: Money{Cents: 300_00}},
		},
	}
	if got := v.NetProfit(nil).Cents; got != 600_00 {
		t.Fatalf("net profit = %d, want 60000", got)
	}
	if got := v.NetProfit(NewExclusions(CategoryFuel)).Cents; got != 800_00 {
		t.Fatalf("net profit excluding Fuel = %d, want 80000", got)
	}
	if got := v.Outstanding().Cents; got != 200_00 {
		t.Fatalf("outstanding = %d, want 20000", got)
	}
}
