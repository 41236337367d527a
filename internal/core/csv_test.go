package core

import (
	"encoding/csv"
	"strings"
	"testing"
)

func TestExpensesCSVRoundTrip(t *testing.T) {
	expenses := []DailyExpense{
		{ReportID: "r1", Category: CategoryFuel, Description: `He said, "hi"`, Amount: Money{Cents: 40_000_00}},
		{ReportID: "r2", Category: "Parking", Description: "line1\nline2\ttab", Amount: Money{Cents: 500_00}},
	}

	out := ExpensesCSV(expenses)

	// Embedded quotes are doubled in the raw output.
	if !strings.Contains(out, `"He said, ""hi"""`) {
		t.Fatalf("quote escaping missing in:\n%s", out)
	}

	rows, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	if err != nil {
		t.Fatalf("re-parse failed: %v", err)
	}
	// header + 2 records + totals
	if len(rows) != 4 {
		t.Fatalf("got %d rows, want 4", len(rows))
	}
	if rows[1][2] != `He said, "hi"` {
		t.Fatalf("description did not round-trip: %q", rows[1][2])
	}
	// Newlines/tabs collapsed to spaces before writing.
	if rows[2][2] != "line1 line2 tab" {
		t.Fatalf("control chars not collapsed: %q", rows[2][2])
	}
	// Trailing totals row.
	last := rows[len(rows)-1]
	if last[0] != "TOTAL" || last[3] != "40500.00" {
		t.Fatalf("totals row = %v", last)
	}
}

func TestReportsCSVTotals(t *testing.T) {
	r1 := report("r1", NewDate(2025, 3, 10), 100_000_00, 20_000_00, 0)
	r1.Expenses = []DailyExpense{{Category: CategoryFuel, Amount: Money{Cents: 40_000_00}}}
	r2 := report("r2", NewDate(2025, 3, 11), 50_000_00)

	out := ReportsCSV([]DailyReport{r1, r2}, nil)
	rows, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	if err != nil {
		t.Fatalf("re-parse failed: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("got %d rows, want 4", len(rows))
	}
	last := rows[3]
	if last[0] != "TOTAL" {
		t.Fatalf("missing totals row: %v", last)
	}
	if last[6] != "170000.00" || last[7] != "40000.00" || last[8] != "130000.00" {
		t.Fatalf("totals = %v", last[6:])
	}
	// Row order matches input order.
	if rows[1][0] != "2025-03-10" || rows[2][0] != "2025-03-11" {
		t.Fatalf("row order: %s, %s", rows[1][0], rows[2][0])
	}
}

func TestReportsCSVHonorsExclusions(t *testing.T) {
	r := report("r1", NewDate(2025, 3, 10), 100_00)
	r.Expenses = []DailyExpense{{Category: CategoryFuel, Amount: Money{Cents: 40_00}}}

	out := ReportsCSV([]DailyReport{r}, NewExclusions(CategoryFuel))
	rows, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	if err != nil {
		t.Fatalf("re-parse failed: %v", err)
	}
	if rows[1][7] != "0.00" || rows[1][8] != "100.00" {
		t.Fatalf("excluded expenses leaked into row: %v", rows[1])
	}
}

func TestDepositsCSV(t *testing.T) {
	deposits := []BankDeposit{
		{ID: "d1", BankName: "BK", DepositDate: NewDate(2025, 4, 1), Amount: Money{Cents: 800_00},
			ReportIDs: []string{"a", "b"}, Slips: []Slip{{Filename: "slip1.pdf"}}},
	}
	out := DepositsCSV(deposits)
	rows, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	if err != nil {
		t.Fatalf("re-parse failed: %v", err)
	}
	if rows[1][1] != "BK" || rows[1][2] != "800.00" || rows[1][3] != "a b" {
		t.Fatalf("deposit row = %v", rows[1])
	}
	if rows[2][0] != "TOTAL" || rows[2][2] != "800.00" {
		t.Fatalf("totals row = %v", rows[2])
	}
}
