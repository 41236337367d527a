package core

import "testing"

func TestClassify(t *testing.T) {
	profit := report("p", NewDate(2025, 1, 1), 500_00)
	loss := report("l", NewDate(2025, 1, 1), 100_00)
	loss.Expenses = []DailyExpense{{Category: "Repair", Amount: Money{Cents: 300_00}}}

	links := LinkSet{"p": "dep1", "l": "dep1"}

	cases := []struct {
		name  string
		r     DailyReport
		links LinkSet
		want  ReportClass
	}{
		{"positive unlinked", profit, nil, ClassDepositable},
		{"positive linked", profit, links, ClassAlreadyDeposited},
		{"loss unlinked", loss, nil, ClassLoss},
		{"loss linked stays loss", loss, links, ClassLoss},
	}
	for _, tc := range cases {
		if got := Classify(tc.r, tc.links, nil); got != tc.want {
			t.Fatalf("%s: got %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestClassifyExclusionCanFlipLoss(t *testing.T) {
	r := report("r", NewDate(2025, 1, 1), 100_00)
	r.Expenses = []DailyExpense{{Category: CategoryFuel, Amount: Money{Cents: 300_00}}}

	if got := Classify(r, nil, nil); got != ClassLoss {
		t.Fatalf("unfiltered: got %q, want loss", got)
	}
	if got := Classify(r, nil, NewExclusions(CategoryFuel)); got != ClassDepositable {
		t.Fatalf("fuel excluded: got %q, want depositable", got)
	}
}

func TestNoDoubleDeposit(t *testing.T) {
	a := report("a", NewDate(2025, 1, 1), 500_00)
	b := report("b", NewDate(2025, 1, 2), 300_00)
	reports := []DailyReport{a, b}

	// Report a is already linked to deposit A.
	links := NewLinkSet([]BankDeposit{
		{ID: "depA", BankName: "BK", DepositDate: NewDate(2025, 1, 3), ReportIDs: []string{"a"}},
	})

	// Creating deposit B: a must not be offered.
	got := SelectableForNew(reports, links, nil, "BK", nil)
	if len(got) != 1 || got[0].ID != "b" {
		t.Fatalf("new deposit selection = %v, want only b", ids(got))
	}

	// Editing deposit A: a must be offered again, b stays available.
	got = SelectableForEdit(reports, links, nil, "BK", nil, "depA")
	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "b" {
		t.Fatalf("edit selection = %v, want [a b]", ids(got))
	}

	// Editing a different deposit must not steal a from deposit A.
	got = SelectableForEdit(reports, links, nil, "BK", nil, "depB")
	if len(got) != 1 || got[0].ID != "b" {
		t.Fatalf("other-deposit edit selection = %v, want only b", ids(got))
	}
}

func TestSelectableExcludesLosses(t *testing.T) {
	loss := report("l", NewDate(2025, 1, 1), 100_00)
	loss.Expenses = []DailyExpense{{Category: "Repair", Amount: Money{Cents: 200_00}}}

	if got := SelectableForNew([]DailyReport{loss}, nil, nil, "BK", nil); len(got) != 0 {
		t.Fatalf("loss offered for deposit: %v", ids(got))
	}
	// A loss stays ineligible even when editing the deposit it is (somehow)
	// linked to.
	links := LinkSet{"l": "depA"}
	if got := SelectableForEdit([]DailyReport{loss}, links, nil, "BK", nil, "depA"); len(got) != 0 {
		t.Fatalf("linked loss offered on edit: %v", ids(got))
	}
}

func TestPlateRestriction(t *testing.T) {
	restricted := report("x", NewDate(2025, 1, 1), 500_00)
	restricted.Vehicle.PlateNumber = "RAD 900 Z"
	free := report("y", NewDate(2025, 1, 1), 500_00)
	free.Vehicle.PlateNumber = "RAD 100 A"
	reports := []DailyReport{restricted, free}

	compat := PlateRestriction("Equity", []string{"RAD 900 Z"})

	got := SelectableForNew(reports, nil, nil, "Equity", compat)
	if len(got) != 1 || got[0].ID != "y" {
		t.Fatalf("restricted bank selection = %v, want only y", ids(got))
	}
	// Any other bank accepts both.
	got = SelectableForNew(reports, nil, nil, "BK", compat)
	if len(got) != 2 {
		t.Fatalf("unrestricted bank selection = %v, want both", ids(got))
	}
}

func ids(reports []DailyReport) []string {
	out := make([]string, len(reports))
	for i, r := range reports {
		out[i] = r.ID
	}
	return out
}
