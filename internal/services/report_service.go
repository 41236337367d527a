package services

import (
	"context"
	"fmt"
	"log/slog"

	"fleetops/internal/core"
	"fleetops/internal/storage"
)

// ReportService orchestrates daily report operations across SQLite and the
// ledger sync queue.
type ReportService struct {
	storage   *storage.SQLiteRepository
	publisher LedgerPublisher
}

func NewReportService(storage *storage.SQLiteRepository, publisher LedgerPublisher) *ReportService {
	return &ReportService{
		storage:   storage,
		publisher: publisher,
	}
}

// CreateReport saves the report locally and queues a ledger sync. A publish
// failure is logged but never fails the request; the periodic worker scan
// picks the report up later.
func (s *ReportService) CreateReport(ctx context.Context, rep core.DailyReport) (core.DailyReport, error) {
	if err := rep.Validate(); err != nil {
		return core.DailyReport{}, err
	}

	created, err := s.storage.CreateReport(ctx, rep)
	if err != nil {
		return core.DailyReport{}, fmt.Errorf("save report: %w", err)
	}

	s.publishSync(ctx, "report", created.ID)
	return created, nil
}

func (s *ReportService) UpdateReport(ctx context.Context, rep core.DailyReport) error {
	if err := rep.Validate(); err != nil {
		return err
	}
	if err := s.storage.UpdateReport(ctx, rep); err != nil {
		return fmt.Errorf("update report: %w", err)
	}
	s.publishSync(ctx, "report", rep.ID)
	return nil
}

// DeleteReport removes a report and its expenses. The storage layer rejects
// the delete with no side effects when the report is linked to a deposit.
func (s *ReportService) DeleteReport(ctx context.Context, id string) error {
	return s.storage.DeleteReport(ctx, id)
}

func (s *ReportService) GetReport(ctx context.Context, id string) (core.DailyReport, error) {
	return s.storage.GetReport(ctx, id)
}

func (s *ReportService) ListReports(ctx context.Context) ([]core.DailyReport, error) {
	return s.storage.ListReports(ctx)
}

// AddExpense normalizes the category, validates and stores one expense line,
// then re-queues the parent report for ledger sync.
func (s *ReportService) AddExpense(ctx context.Context, e core.DailyExpense) (core.DailyExpense, error) {
	e.Category = core.NormalizeCategory(e.Category)
	if err := e.Validate(); err != nil {
		return core.DailyExpense{}, err
	}

	created, err := s.storage.CreateExpense(ctx, e)
	if err != nil {
		return core.DailyExpense{}, fmt.Errorf("save expense: %w", err)
	}

	s.publishSync(ctx, "report", e.ReportID)
	return created, nil
}

func (s *ReportService) UpdateExpense(ctx context.Context, e core.DailyExpense) error {
	e.Category = core.NormalizeCategory(e.Category)
	if err := e.Validate(); err != nil {
		return err
	}
	if err := s.storage.UpdateExpense(ctx, e); err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	s.publishSync(ctx, "report", e.ReportID)
	return nil
}

func (s *ReportService) DeleteExpense(ctx context.Context, reportID, expenseID string) error {
	if err := s.storage.DeleteExpense(ctx, reportID, expenseID); err != nil {
		return err
	}
	s.publishSync(ctx, "report", reportID)
	return nil
}

// SearchCategories suggests previously used expense categories. Lookup
// failures degrade to an empty suggestion list; typing a category by hand
// must keep working when the database cannot answer.
func (s *ReportService) SearchCategories(ctx context.Context, query string) []string {
	categories, err := s.storage.SearchCategories(ctx, query)
	if err != nil {
		slog.ErrorContext(ctx, "Category search failed", "query", query, "error", err)
		return nil
	}
	return categories
}

func (s *ReportService) publishSync(ctx context.Context, entity, id string) {
	if s.publisher == nil {
		slog.WarnContext(ctx, "Ledger publisher not available, skipping sync message",
			"entity", entity, "id", id)
		return
	}
	if err := s.publisher.PublishLedgerSync(ctx, entity, id); err != nil {
		slog.ErrorContext(ctx, "Failed to publish ledger sync message",
			"entity", entity, "id", id, "error", err)
	}
}
