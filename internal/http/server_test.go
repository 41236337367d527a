package http

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"fleetops/internal/core"
	"fleetops/internal/services"
	"fleetops/internal/storage"
)

type fakeBlob struct {
	mu      sync.Mutex
	deleted []string
}

func (f *fakeBlob) Upload(_ context.Context, key, _ string, _ []byte) (string, error) {
	return "https://files.test/" + key, nil
}

func (f *fakeBlob) Delete(_ context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, url)
	return nil
}

type fakePublisher struct{}

func (fakePublisher) PublishLedgerSync(context.Context, string, string) error { return nil }

type fixture struct {
	server *Server
	repo   *storage.SQLiteRepository
	ts     *httptest.Server
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "fleetops.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	reports := services.NewReportService(repo, fakePublisher{})
	deposits := services.NewDepositService(repo, &fakeBlob{}, fakePublisher{}, nil)
	srv := NewServer(":0", reports, deposits, repo)
	ts := httptest.NewServer(srv.Server.Handler)
	t.Cleanup(func() {
		ts.Close()
		srv.Shutdown(context.Background())
		repo.Close()
	})
	return &fixture{server: srv, repo: repo, ts: ts}
}

func (f *fixture) doJSON(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, f.ts.URL+path, &buf)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func (f *fixture) createVehicle(t *testing.T, plate string) vehicleView {
	t.Helper()
	resp := f.doJSON(t, http.MethodPost, "/api/vehicles", map[string]string{
		"plate_number": plate, "category": "bus",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create vehicle: status %d", resp.StatusCode)
	}
	return decodeBody[vehicleView](t, resp)
}

func (f *fixture) createReport(t *testing.T, vehicleID, date, ticket string) reportView {
	t.Helper()
	resp := f.doJSON(t, http.MethodPost, "/api/reports", reportInput{
		ReportDate:    date,
		Status:        "operational",
		VehicleID:     vehicleID,
		TicketRevenue: ticket,
	})
	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("create report: status %d body %s", resp.StatusCode, body)
	}
	return decodeBody[reportView](t, resp)
}

func (f *fixture) addExpense(t *testing.T, reportID, category, amount string) {
	t.Helper()
	resp := f.doJSON(t, http.MethodPost, "/api/reports/"+reportID+"/expenses", expenseInput{
		Category: category, Amount: amount,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("add expense: status %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func (f *fixture) createDeposit(t *testing.T, bank string, reportIDs []string) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("bank_name", bank); err != nil {
		t.Fatalf("write field: %v", err)
	}
	for _, id := range reportIDs {
		if err := mw.WriteField("report_ids", id); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	fw, err := mw.CreateFormFile("slips", "slip.pdf")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write([]byte("%PDF-1.4 slip")); err != nil {
		t.Fatalf("write file: %v", err)
	}
	mw.Close()

	req, err := http.NewRequest(http.MethodPost, f.ts.URL+"/api/deposits", &buf)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("post deposit: %v", err)
	}
	return resp
}

func TestReportLifecycle(t *testing.T) {
	f := newFixture(t)
	v := f.createVehicle(t, "RAD 300 A")

	rep := f.createReport(t, v.ID, "2025-07-01", "120000.00")
	f.addExpense(t, rep.ID, "fuel", "40000.00")

	resp := f.doJSON(t, http.MethodGet, "/api/reports/"+rep.ID, nil)
	got := decodeBody[reportView](t, resp)
	if got.NetBalance != "80000.00" {
		t.Fatalf("net = %s", got.NetBalance)
	}
	if got.Expenses[0].Category != core.CategoryFuel {
		t.Fatalf("category = %s", got.Expenses[0].Category)
	}
	if got.Class != string(core.ClassDepositable) {
		t.Fatalf("class = %s", got.Class)
	}

	// Excluding Fuel restores full revenue.
	resp = f.doJSON(t, http.MethodGet, "/api/reports/"+rep.ID+"?exclude=Fuel", nil)
	got = decodeBody[reportView](t, resp)
	if got.NetBalance != "120000.00" {
		t.Fatalf("excluded net = %s", got.NetBalance)
	}
}

func TestListReportsGrouped(t *testing.T) {
	f := newFixture(t)
	v := f.createVehicle(t, "RAD 301 B")
	f.createReport(t, v.ID, "2025-07-01", "1000.00")
	f.createReport(t, v.ID, "2025-07-03", "2000.00")
	f.createReport(t, v.ID, "2025-07-01", "500.00")

	resp := f.doJSON(t, http.MethodGet, "/api/reports", nil)
	body := decodeBody[struct {
		Groups []reportGroupView `json:"groups"`
	}](t, resp)
	if len(body.Groups) != 2 {
		t.Fatalf("groups = %d", len(body.Groups))
	}
	if body.Groups[0].Date != "2025-07-03" || body.Groups[1].Date != "2025-07-01" {
		t.Fatalf("order: %s, %s", body.Groups[0].Date, body.Groups[1].Date)
	}
	if body.Groups[1].Count != 2 || body.Groups[1].Net != "1500.00" {
		t.Fatalf("group = %+v", body.Groups[1])
	}
}

func TestDeleteLinkedReportConflicts(t *testing.T) {
	f := newFixture(t)
	v := f.createVehicle(t, "RAD 302 C")
	rep := f.createReport(t, v.ID, "2025-07-02", "1000.00")

	resp := f.createDeposit(t, "BK", []string{rep.ID})
	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("create deposit: %d %s", resp.StatusCode, body)
	}
	resp.Body.Close()

	del := f.doJSON(t, http.MethodDelete, "/api/reports/"+rep.ID, nil)
	defer del.Body.Close()
	if del.StatusCode != http.StatusConflict {
		t.Fatalf("delete status = %d", del.StatusCode)
	}
}

func TestDepositDerivedFields(t *testing.T) {
	f := newFixture(t)
	v := f.createVehicle(t, "RAD 303 D")
	a := f.createReport(t, v.ID, "2025-07-05", "50000.00")
	b := f.createReport(t, v.ID, "2025-07-08", "30000.00")

	resp := f.createDeposit(t, "BK", []string{a.ID, b.ID})
	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("status %d body %s", resp.StatusCode, body)
	}
	body := decodeBody[struct {
		Deposit     depositView `json:"deposit"`
		FailedSlips []string    `json:"failed_slips"`
	}](t, resp)
	if body.Deposit.Amount != "80000.00" {
		t.Fatalf("amount = %s", body.Deposit.Amount)
	}
	if body.Deposit.DepositDate != "2025-07-08" {
		t.Fatalf("date = %s", body.Deposit.DepositDate)
	}
	if len(body.FailedSlips) != 0 {
		t.Fatalf("failed slips = %v", body.FailedSlips)
	}
}

func TestAvailableReportsEndpoint(t *testing.T) {
	f := newFixture(t)
	v := f.createVehicle(t, "RAD 304 E")
	a := f.createReport(t, v.ID, "2025-07-05", "1000.00")
	b := f.createReport(t, v.ID, "2025-07-06", "2000.00")

	resp := f.createDeposit(t, "BK", []string{a.ID})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create deposit: %d", resp.StatusCode)
	}
	resp.Body.Close()

	avail := f.doJSON(t, http.MethodGet, "/api/deposits/available-reports?bank=BK", nil)
	body := decodeBody[struct {
		Reports []reportView `json:"reports"`
	}](t, avail)
	if len(body.Reports) != 1 || body.Reports[0].ID != b.ID {
		t.Fatalf("available = %+v", body.Reports)
	}
}

func TestCategorySearchAlwaysOK(t *testing.T) {
	f := newFixture(t)
	resp := f.doJSON(t, http.MethodGet, "/api/categories?q=Fu", nil)
	body := decodeBody[struct {
		Categories []string `json:"categories"`
	}](t, resp)
	if body.Categories == nil {
		t.Fatal("categories must be an empty list, not null")
	}
}

func TestReportCSVExport(t *testing.T) {
	f := newFixture(t)
	v := f.createVehicle(t, "RAD 305 F")
	rep := f.createReport(t, v.ID, "2025-07-09", "1000.00")
	f.addExpense(t, rep.ID, `He said, "hi"`, "100.00")

	resp, err := http.Get(f.ts.URL + "/api/reports/export")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Fatalf("content type = %s", ct)
	}

	rows, err := csv.NewReader(resp.Body).ReadAll()
	if err != nil {
		t.Fatalf("parse exported csv: %v", err)
	}
	// Header, one report row, totals row.
	if len(rows) != 3 {
		t.Fatalf("rows = %d", len(rows))
	}
	if rows[2][0] != "TOTAL" {
		t.Fatalf("last row = %v", rows[2])
	}
}

func TestDashboardSummary(t *testing.T) {
	f := newFixture(t)
	v := f.createVehicle(t, "RAD 306 G")
	rep := f.createReport(t, v.ID, "2025-07-10", "120000.00")
	f.addExpense(t, rep.ID, "Fuel", "40000.00")

	resp := f.doJSON(t, http.MethodGet, "/api/dashboard", nil)
	view := decodeBody[dashboardView](t, resp)
	if view.NetBalance != "80000.00" {
		t.Fatalf("net = %s", view.NetBalance)
	}
	if view.ReportCounts[string(core.ClassDepositable)] != 1 {
		t.Fatalf("counts = %v", view.ReportCounts)
	}

	// A write purges the cache so the next read reflects it.
	f.addExpense(t, rep.ID, "Parking", "5000.00")
	resp = f.doJSON(t, http.MethodGet, "/api/dashboard", nil)
	view = decodeBody[dashboardView](t, resp)
	if view.NetBalance != "75000.00" {
		t.Fatalf("net after write = %s", view.NetBalance)
	}
}

func TestValidationErrorsAreUnprocessable(t *testing.T) {
	f := newFixture(t)
	v := f.createVehicle(t, "RAD 307 H")

	resp := f.doJSON(t, http.MethodPost, "/api/reports", reportInput{
		ReportDate: "2025-07-11", Status: "weird", VehicleID: v.ID,
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestNotFoundMapsTo404(t *testing.T) {
	f := newFixture(t)
	resp := f.doJSON(t, http.MethodGet, "/api/reports/nope", nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestErrorStatusMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{storage.ErrReportLinked, http.StatusConflict},
		{services.ErrReportNotEligible, http.StatusUnprocessableEntity},
		{core.ErrNoSlipsAttached, http.StatusUnprocessableEntity},
		{fmt.Errorf("wrapped: %w", core.ErrAttachmentTooLarge), http.StatusUnprocessableEntity},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got, _ := errorStatus(tc.err); got != tc.want {
			t.Errorf("errorStatus(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}
