package core

import (
	"math/rand"
	"testing"
	"time"
)

func TestGroupReportsByDate(t *testing.T) {
	r1 := report("r1", NewDate(2025, 3, 10), 500_00)
	r1.Expenses = []DailyExpense{{Category: CategoryFuel, Amount: Money{Cents: 100_00}}}
	r2 := report("r2", NewDate(2025, 3, 10), 300_00)
	r3 := report("r3", NewDate(2025, 3, 12), 200_00)

	groups := GroupReportsByDate([]DailyReport{r1, r2, r3}, nil)
	if len(groups) != 2 {
		t.Fatalf("got %d groups, want 2", len(groups))
	}
	// Most recent first.
	if groups[0].Date.Key() != "2025-03-12" || groups[1].Date.Key() != "2025-03-10" {
		t.Fatalf("group order: %s, %s", groups[0].Date.Key(), groups[1].Date.Key())
	}

	g := groups[1]
	if g.Count != 2 {
		t.Fatalf("count = %d, want 2", g.Count)
	}
	if g.Revenue.Cents != 800_00 || g.Expenses.Cents != 100_00 || g.Net.Cents != 700_00 {
		t.Fatalf("sums = %d/%d/%d", g.Revenue.Cents, g.Expenses.Cents, g.Net.Cents)
	}
	// Insertion order within the group.
	if g.Reports[0].ID != "r1" || g.Reports[1].ID != "r2" {
		t.Fatalf("in-group order: %v", ids(g.Reports))
	}
}

func TestGroupNetEqualsSumOfReportBalances(t *testing.T) {
	r1 := report("r1", NewDate(2025, 3, 10), 500_00)
	r1.Expenses = []DailyExpense{{Category: CategoryFuel, Amount: Money{Cents: 200_00}}}
	r2 := report("r2", NewDate(2025, 3, 10), 300_00)
	r2.Expenses = []DailyExpense{{Category: "Parking", Amount: Money{Cents: 50_00}}}

	excl := NewExclusions(CategoryFuel)
	groups := GroupReportsByDate([]DailyReport{r1, r2}, excl)
	if len(groups) != 1 {
		t.Fatalf("got %d groups, want 1", len(groups))
	}
	want := r1.NetBalance(excl).Cents + r2.NetBalance(excl).Cents
	if groups[0].Net.Cents != want {
		t.Fatalf("group net = %d, want sum of per-report balances %d", groups[0].Net.Cents, want)
	}
}

func TestGroupTruncatesTimeOfDay(t *testing.T) {
	morning := report("m", Date{Time: time.Date(2025, 3, 10, 6, 30, 0, 0, time.UTC)}, 100_00)
	evening := report("e", Date{Time: time.Date(2025, 3, 10, 22, 15, 0, 0, time.UTC)}, 200_00)

	groups := GroupReportsByDate([]DailyReport{morning, evening}, nil)
	if len(groups) != 1 {
		t.Fatalf("got %d groups, want 1 (time of day must be ignored)", len(groups))
	}
}

func TestGroupingIsOrderIndependent(t *testing.T) {
	var reports []DailyReport
	for i := 0; i < 20; i++ {
		r := report("r", NewDate(2025, 3, 1+i%5), int64(100+i)*100)
		r.ID = r.ID + string(rune('a'+i))
		r.Expenses = []DailyExpense{{Category: CategoryFuel, Amount: Money{Cents: int64(i) * 100}}}
		reports = append(reports, r)
	}

	base := GroupReportsByDate(reports, NewExclusions(CategoryFuel))

	rng := rand.New(rand.NewSource(42))
	for trial := 0; trial < 5; trial++ {
		shuffled := make([]DailyReport, len(reports))
		copy(shuffled, reports)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

		got := GroupReportsByDate(shuffled, NewExclusions(CategoryFuel))
		if len(got) != len(base) {
			t.Fatalf("trial %d: %d groups, want %d", trial, len(got), len(base))
		}
		for i := range base {
			if got[i].Date.Key() != base[i].Date.Key() {
				t.Fatalf("trial %d: group %d date %s, want %s", trial, i, got[i].Date.Key(), base[i].Date.Key())
			}
			if got[i].Count != base[i].Count || got[i].Net.Cents != base[i].Net.Cents ||
				got[i].Revenue.Cents != base[i].Revenue.Cents || got[i].Expenses.Cents != base[i].Expenses.Cents {
				t.Fatalf("trial %d: group %s sums differ after shuffle", trial, got[i].Date.Key())
			}
		}
	}
}

func TestGroupDepositsByDate(t *testing.T) {
	deposits := []BankDeposit{
		{ID: "d1", BankName: "Equity", DepositDate: NewDate(2025, 4, 2), Amount: Money{Cents: 500_00}, ReportIDs: []string{"a"}},
		{ID: "d2", BankName: "BK", DepositDate: NewDate(2025, 4, 2), Amount: Money{Cents: 300_00}, ReportIDs: []string{"b"}},
		{ID: "d3", BankName: "BK", DepositDate: NewDate(2025, 4, 1), Amount: Money{Cents: 100_00}, ReportIDs: []string{"c"}},
	}

	groups := GroupDepositsByDate(deposits)
	if len(groups) != 2 {
		t.Fatalf("got %d groups, want 2", len(groups))
	}
	g := groups[0]
	if g.Date.Key() != "2025-04-02" || g.Count != 2 || g.Amount.Cents != 800_00 {
		t.Fatalf("top group = %s count=%d amount=%d", g.Date.Key(), g.Count, g.Amount.Cents)
	}
	// Distinct banks, sorted.
	if len(g.Banks) != 2 || g.Banks[0] != "BK" || g.Banks[1] != "Equity" {
		t.Fatalf("banks = %v", g.Banks)
	}
}

func TestGroupRentalsByDate(t *testing.T) {
	rentals := []VehicleRental{
		{ID: "v1", RenterName: "A", StartDate: NewDate(2025, 5, 1), RentalAmount: Money{Cents: 400_00},
			Expenses: []RentalExpense{{Category: "Driver", Amount: Money{Cents: 100_00}}}},
		{ID: "v2", RenterName: "B", StartDate: NewDate(2025, 5, 1), RentalAmount: Money{Cents: 600_00}},
	}
	groups := GroupRentalsByDate(rentals, nil)
	if len(groups) != 1 {
		t.Fatalf("got %d groups, want 1", len(groups))
	}
	if groups[0].Amount.Cents != 1000_00 || groups[0].Net.Cents != 900_00 {
		t.Fatalf("amount=%d net=%d", groups[0].Amount.Cents, groups[0].Net.Cents)
	}
}
