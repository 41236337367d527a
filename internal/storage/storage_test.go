package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"fleetops/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "fleetops.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func seedReport(t *testing.T, repo *SQLiteRepository, cents int64) core.DailyReport {
	t.Helper()
	ctx := context.Background()
	v, err := repo.CreateVehicle(ctx, core.Vehicle{PlateNumber: "RAD " + newID()[:6], Category: "bus"})
	if err != nil {
		t.Fatalf("create vehicle: %v", err)
	}
	rep, err := repo.CreateReport(ctx, core.DailyReport{
		ReportDate:    core.NewDate(2025, 3, 10),
		Status:        core.StatusOperational,
		Vehicle:       v,
		TicketRevenue: core.Money{Cents: cents},
	})
	if err != nil {
		t.Fatalf("create report: %v", err)
	}
	return rep
}

func TestReportRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	rep := seedReport(t, repo, 100_000_00)
	if _, err := repo.CreateExpense(ctx, core.DailyExpense{
		ReportID: rep.ID, Category: core.CategoryFuel, Amount: core.Money{Cents: 40_000_00},
	}); err != nil {
		t.Fatalf("create expense: %v", err)
	}

	got, err := repo.GetReport(ctx, rep.ID)
	if err != nil {
		t.Fatalf("get report: %v", err)
	}
	if got.ReportDate.Key() != "2025-03-10" || got.TicketRevenue.Cents != 100_000_00 {
		t.Fatalf("report = %+v", got)
	}
	if len(got.Expenses) != 1 || got.Expenses[0].Category != core.CategoryFuel {
		t.Fatalf("expenses = %+v", got.Expenses)
	}
	if got.NetBalance(nil).Cents != 60_000_00 {
		t.Fatalf("net = %d", got.NetBalance(nil).Cents)
	}

	all, err := repo.ListReports(ctx)
	if err != nil {
		t.Fatalf("list reports: %v", err)
	}
	if len(all) != 1 || len(all[0].Expenses) != 1 {
		t.Fatalf("list = %+v", all)
	}
}

func TestDeleteReportCascadesExpenses(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	rep := seedReport(t, repo, 500_00)
	for i := 0; i < 3; i++ {
		if _, err := repo.CreateExpense(ctx, core.DailyExpense{
			ReportID: rep.ID, Category: "Parking", Amount: core.Money{Cents: 10_00},
		}); err != nil {
			t.Fatalf("create expense: %v", err)
		}
	}

	if err := repo.DeleteReport(ctx, rep.ID); err != nil {
		t.Fatalf("delete report: %v", err)
	}

	var count int
	if err := repo.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM daily_expenses WHERE report_id = ?`, rep.ID).Scan(&count); err != nil {
		t.Fatalf("count expenses: %v", err)
	}
	if count != 0 {
		t.Fatalf("%d orphan expenses left behind", count)
	}
}

func TestDeleteLinkedReportRejected(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	rep := seedReport(t, repo, 500_00)
	if _, err := repo.CreateExpense(ctx, core.DailyExpense{
		ReportID: rep.ID, Category: "Parking", Amount: core.Money{Cents: 10_00},
	}); err != nil {
		t.Fatalf("create expense: %v", err)
	}
	if _, err := repo.CreateDeposit(ctx, core.BankDeposit{
		BankName: "BK", DepositDate: core.NewDate(2025, 3, 11),
		Amount: core.Money{Cents: 490_00}, ReportIDs: []string{rep.ID},
	}); err != nil {
		t.Fatalf("create deposit: %v", err)
	}

	err := repo.DeleteReport(ctx, rep.ID)
	if !errors.Is(err, ErrReportLinked) {
		t.Fatalf("want ErrReportLinked, got %v", err)
	}
	if Kind(err) != KindConflict {
		t.Fatalf("kind = %v, want conflict", Kind(err))
	}

	// Zero side effects: report and expense still present.
	got, err := repo.GetReport(ctx, rep.ID)
	if err != nil || len(got.Expenses) != 1 {
		t.Fatalf("report mutated by failed delete: %+v err=%v", got, err)
	}
}

func TestReportLinksAtMostOneDeposit(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	rep := seedReport(t, repo, 500_00)
	if _, err := repo.CreateDeposit(ctx, core.BankDeposit{
		BankName: "BK", DepositDate: core.NewDate(2025, 3, 11),
		Amount: core.Money{Cents: 500_00}, ReportIDs: []string{rep.ID},
	}); err != nil {
		t.Fatalf("create deposit A: %v", err)
	}

	_, err := repo.CreateDeposit(ctx, core.BankDeposit{
		BankName: "Equity", DepositDate: core.NewDate(2025, 3, 12),
		Amount: core.Money{Cents: 500_00}, ReportIDs: []string{rep.ID},
	})
	if err == nil {
		t.Fatalf("second link accepted")
	}
	if Kind(err) != KindConflict {
		t.Fatalf("kind = %v, want conflict", Kind(err))
	}
	// The failed create must not leave a half-written deposit behind.
	deposits, err := repo.ListDeposits(ctx)
	if err != nil {
		t.Fatalf("list deposits: %v", err)
	}
	if len(deposits) != 1 {
		t.Fatalf("%d deposits after failed create, want 1", len(deposits))
	}
}

func TestReplaceDepositReports(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	a := seedReport(t, repo, 500_00)
	b := seedReport(t, repo, 300_00)
	dep, err := repo.CreateDeposit(ctx, core.BankDeposit{
		BankName: "BK", DepositDate: core.NewDate(2025, 3, 11),
		Amount: core.Money{Cents: 800_00}, ReportIDs: []string{a.ID, b.ID},
	})
	if err != nil {
		t.Fatalf("create deposit: %v", err)
	}

	if err := repo.ReplaceDepositReports(ctx, dep.ID, []string{a.ID}); err != nil {
		t.Fatalf("replace links: %v", err)
	}

	got, err := repo.GetDeposit(ctx, dep.ID)
	if err != nil {
		t.Fatalf("get deposit: %v", err)
	}
	if len(got.ReportIDs) != 1 || got.ReportIDs[0] != a.ID {
		t.Fatalf("links = %v", got.ReportIDs)
	}
	// b is free again.
	links, err := repo.LinkedReports(ctx)
	if err != nil {
		t.Fatalf("linked reports: %v", err)
	}
	if _, linked := links[b.ID]; linked {
		t.Fatalf("report b still linked after replace")
	}
}

func TestDeleteDepositReturnsSlipURLs(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	rep := seedReport(t, repo, 500_00)
	dep, err := repo.CreateDeposit(ctx, core.BankDeposit{
		BankName: "BK", DepositDate: core.NewDate(2025, 3, 11),
		Amount: core.Money{Cents: 500_00}, ReportIDs: []string{rep.ID},
	})
	if err != nil {
		t.Fatalf("create deposit: %v", err)
	}
	if _, err := repo.AddSlip(ctx, dep.ID, core.Slip{
		URL: "https://files.example/slip1.pdf", Filename: "slip1.pdf", Size: 1024,
	}); err != nil {
		t.Fatalf("add slip: %v", err)
	}

	urls, err := repo.DeleteDeposit(ctx, dep.ID)
	if err != nil {
		t.Fatalf("delete deposit: %v", err)
	}
	if len(urls) != 1 || urls[0] != "https://files.example/slip1.pdf" {
		t.Fatalf("urls = %v", urls)
	}
	// Report is unlinked and deletable again.
	if err := repo.DeleteReport(ctx, rep.ID); err != nil {
		t.Fatalf("delete unlinked report: %v", err)
	}
}

func TestUpdateMissingReportIsNotFound(t *testing.T) {
	repo := newTestRepo(t)
	err := repo.UpdateReport(context.Background(), core.DailyReport{
		ID: "nope", ReportDate: core.NewDate(2025, 1, 1), Status: core.StatusOperational,
	})
	if Kind(err) != KindNotFound {
		t.Fatalf("kind = %v, want not_found", Kind(err))
	}
}

func TestSearchCategories(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	rep := seedReport(t, repo, 500_00)
	for _, cat := range []string{core.CategoryFuel, "Parking", "Park fees"} {
		if _, err := repo.CreateExpense(ctx, core.DailyExpense{
			ReportID: rep.ID, Category: cat, Amount: core.Money{Cents: 10_00},
		}); err != nil {
			t.Fatalf("create expense: %v", err)
		}
	}

	got, err := repo.SearchCategories(ctx, "Park")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 2 || got[0] != "Park fees" || got[1] != "Parking" {
		t.Fatalf("categories = %v", got)
	}
}

func TestPendingSyncLifecycle(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	rep := seedReport(t, repo, 500_00)
	pending, err := repo.PendingSync(ctx, 10)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 1 || pending[0].Entity != "report" || pending[0].ID != rep.ID {
		t.Fatalf("pending = %+v", pending)
	}

	if err := repo.MarkSynced(ctx, "report", rep.ID); err != nil {
		t.Fatalf("mark synced: %v", err)
	}
	pending, err = repo.PendingSync(ctx, 10)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("still pending after sync: %+v", pending)
	}

	// Editing clears the flag again.
	rep.TicketRevenue = core.Money{Cents: 600_00}
	if err := repo.UpdateReport(ctx, rep); err != nil {
		t.Fatalf("update: %v", err)
	}
	pending, err = repo.PendingSync(ctx, 10)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("edit did not re-queue sync: %+v", pending)
	}
}
