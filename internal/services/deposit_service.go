package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"fleetops/internal/core"
	"fleetops/internal/storage"
)

// ErrReportNotEligible rejects a deposit that names a report with a
// non-positive balance, a link to another deposit, or a bank-incompatible
// vehicle.
var ErrReportNotEligible = errors.New("report not eligible for this deposit")

const uploadConcurrency = 4

// SlipUpload is one file received from the client, already read into memory.
// Attachments are capped at 5 MB so buffering is fine.
type SlipUpload struct {
	Filename string
	Data     []byte
}

// DepositInput carries the caller-editable fields of a deposit. Amount and
// date are always derived from the selected reports, never taken from the
// client.
type DepositInput struct {
	BankName  string
	ReportIDs []string
}

// DepositResult reports the stored deposit plus any slips whose upload
// failed. Failed uploads do not fail the operation; the client is told so it
// can retry the files.
type DepositResult struct {
	Deposit     core.BankDeposit
	FailedSlips []string
}

// DepositService implements the deposit workflow: eligibility checks,
// derived amount and date, slip uploads and ledger sync.
type DepositService struct {
	storage   *storage.SQLiteRepository
	blobs     BlobStore
	publisher LedgerPublisher
	compat    core.BankCompatibility
}

func NewDepositService(storage *storage.SQLiteRepository, blobs BlobStore, publisher LedgerPublisher, compat core.BankCompatibility) *DepositService {
	if compat == nil {
		compat = core.AllowAllBanks
	}
	return &DepositService{
		storage:   storage,
		blobs:     blobs,
		publisher: publisher,
		compat:    compat,
	}
}

// CreateDeposit validates the selection, derives amount and date, stores the
// deposit and uploads its slips. At least one valid slip is required up
// front, but individual upload failures after that point are non-fatal.
func (s *DepositService) CreateDeposit(ctx context.Context, in DepositInput, slips []SlipUpload, excl core.Exclusions) (DepositResult, error) {
	in.BankName = strings.TrimSpace(in.BankName)
	if in.BankName == "" {
		return DepositResult{}, core.ErrEmptyBankName
	}
	if len(in.ReportIDs) == 0 {
		return DepositResult{}, core.ErrNoReportsLinked
	}
	if len(slips) == 0 {
		return DepositResult{}, core.ErrNoSlipsAttached
	}
	for _, slip := range slips {
		if err := core.ValidateAttachment(slip.Filename, int64(len(slip.Data))); err != nil {
			return DepositResult{}, fmt.Errorf("slip %s: %w", slip.Filename, err)
		}
	}

	reports, err := s.eligibleReports(ctx, in, excl, "")
	if err != nil {
		return DepositResult{}, err
	}

	deposit := core.BankDeposit{
		BankName:    in.BankName,
		DepositDate: latestReportDate(reports),
		Amount:      core.SumNetBalances(reports, excl),
		ReportIDs:   in.ReportIDs,
	}
	created, err := s.storage.CreateDeposit(ctx, deposit)
	if err != nil {
		return DepositResult{}, fmt.Errorf("create deposit: %w", err)
	}

	failed := s.uploadSlips(ctx, &created, slips)
	s.publishSync(ctx, created.ID)
	return DepositResult{Deposit: created, FailedSlips: failed}, nil
}

// UpdateDeposit re-runs eligibility against the new selection (reports linked
// to this deposit stay eligible), recomputes amount and date, and replaces
// the link set wholesale. Additional slips are optional.
func (s *DepositService) UpdateDeposit(ctx context.Context, depositID string, in DepositInput, newSlips []SlipUpload, excl core.Exclusions) (DepositResult, error) {
	existing, err := s.storage.GetDeposit(ctx, depositID)
	if err != nil {
		return DepositResult{}, err
	}

	in.BankName = strings.TrimSpace(in.BankName)
	if in.BankName == "" {
		return DepositResult{}, core.ErrEmptyBankName
	}
	if len(in.ReportIDs) == 0 {
		return DepositResult{}, core.ErrNoReportsLinked
	}
	for _, slip := range newSlips {
		if err := core.ValidateAttachment(slip.Filename, int64(len(slip.Data))); err != nil {
			return DepositResult{}, fmt.Errorf("slip %s: %w", slip.Filename, err)
		}
	}

	reports, err := s.eligibleReports(ctx, in, excl, depositID)
	if err != nil {
		return DepositResult{}, err
	}

	existing.BankName = in.BankName
	existing.DepositDate = latestReportDate(reports)
	existing.Amount = core.SumNetBalances(reports, excl)
	existing.ReportIDs = in.ReportIDs

	if err := s.storage.UpdateDeposit(ctx, existing); err != nil {
		return DepositResult{}, fmt.Errorf("update deposit: %w", err)
	}
	if err := s.storage.ReplaceDepositReports(ctx, depositID, in.ReportIDs); err != nil {
		return DepositResult{}, fmt.Errorf("replace deposit reports: %w", err)
	}

	failed := s.uploadSlips(ctx, &existing, newSlips)
	s.publishSync(ctx, depositID)
	return DepositResult{Deposit: existing, FailedSlips: failed}, nil
}

// DeleteDeposit removes the deposit and unlinks its reports, then cleans up
// slip files best-effort. A blob that cannot be deleted is logged and left
// behind; the database delete already succeeded.
func (s *DepositService) DeleteDeposit(ctx context.Context, id string) error {
	urls, err := s.storage.DeleteDeposit(ctx, id)
	if err != nil {
		return err
	}
	for _, u := range urls {
		if s.blobs == nil {
			break
		}
		if err := s.blobs.Delete(ctx, u); err != nil {
			slog.ErrorContext(ctx, "Failed to delete slip file", "url", u, "error", err)
		}
	}
	return nil
}

func (s *DepositService) GetDeposit(ctx context.Context, id string) (core.BankDeposit, error) {
	return s.storage.GetDeposit(ctx, id)
}

func (s *DepositService) ListDeposits(ctx context.Context) ([]core.BankDeposit, error) {
	return s.storage.ListDeposits(ctx)
}

// AvailableReports lists the reports selectable for a deposit to bank. With a
// depositID it answers for an edit, so that deposit's own reports stay in the
// list.
func (s *DepositService) AvailableReports(ctx context.Context, bank, depositID string, excl core.Exclusions) ([]core.DailyReport, error) {
	reports, err := s.storage.ListReports(ctx)
	if err != nil {
		return nil, fmt.Errorf("available reports: %w", err)
	}
	links, err := s.storage.LinkedReports(ctx)
	if err != nil {
		return nil, fmt.Errorf("available reports: %w", err)
	}
	if depositID == "" {
		return core.SelectableForNew(reports, links, excl, bank, s.compat), nil
	}
	return core.SelectableForEdit(reports, links, excl, bank, s.compat, depositID), nil
}

// eligibleReports loads the selected reports and verifies each one may join
// the deposit. ownDeposit is empty for a new deposit.
func (s *DepositService) eligibleReports(ctx context.Context, in DepositInput, excl core.Exclusions, ownDeposit string) ([]core.DailyReport, error) {
	links, err := s.storage.LinkedReports(ctx)
	if err != nil {
		return nil, fmt.Errorf("load report links: %w", err)
	}

	reports := make([]core.DailyReport, 0, len(in.ReportIDs))
	for _, id := range in.ReportIDs {
		rep, err := s.storage.GetReport(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("load report %s: %w", id, err)
		}
		if rep.NetBalance(excl).Cents <= 0 {
			return nil, fmt.Errorf("report %s has no positive balance: %w", id, ErrReportNotEligible)
		}
		if owner, linked := links[id]; linked && owner != ownDeposit {
			return nil, fmt.Errorf("report %s already deposited: %w", id, ErrReportNotEligible)
		}
		if !s.compat(in.BankName, rep) {
			return nil, fmt.Errorf("vehicle %s not accepted by %s: %w", rep.Vehicle.PlateNumber, in.BankName, ErrReportNotEligible)
		}
		reports = append(reports, rep)
	}
	return reports, nil
}

// uploadSlips pushes slips to blob storage concurrently and records metadata
// for each success. Failures are collected, logged and returned; they never
// abort the deposit.
func (s *DepositService) uploadSlips(ctx context.Context, deposit *core.BankDeposit, slips []SlipUpload) []string {
	if len(slips) == 0 {
		return nil
	}
	if s.blobs == nil {
		slog.WarnContext(ctx, "Blob store not available, skipping slip uploads",
			"deposit_id", deposit.ID, "slips", len(slips))
		names := make([]string, len(slips))
		for i, slip := range slips {
			names[i] = slip.Filename
		}
		return names
	}

	var (
		mu     sync.Mutex
		failed []string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uploadConcurrency)
	for _, slip := range slips {
		g.Go(func() error {
			key := uuid.NewString() + strings.ToLower(filepath.Ext(slip.Filename))
			url, err := s.blobs.Upload(gctx, key, core.AttachmentContentType(slip.Filename), slip.Data)
			if err == nil {
				var stored core.Slip
				stored, err = s.storage.AddSlip(gctx, deposit.ID, core.Slip{
					URL:      url,
					Filename: slip.Filename,
					Size:     int64(len(slip.Data)),
				})
				if err == nil {
					mu.Lock()
					deposit.Slips = append(deposit.Slips, stored)
					mu.Unlock()
					return nil
				}
			}
			slog.ErrorContext(gctx, "Slip upload failed",
				"deposit_id", deposit.ID, "filename", slip.Filename, "error", err)
			mu.Lock()
			failed = append(failed, slip.Filename)
			mu.Unlock()
			return nil
		})
	}
	g.Wait()
	return failed
}

func (s *DepositService) publishSync(ctx context.Context, id string) {
	if s.publisher == nil {
		slog.WarnContext(ctx, "Ledger publisher not available, skipping sync message",
			"entity", "deposit", "id", id)
		return
	}
	if err := s.publisher.PublishLedgerSync(ctx, "deposit", id); err != nil {
		slog.ErrorContext(ctx, "Failed to publish ledger sync message",
			"entity", "deposit", "id", id, "error", err)
	}
}

func latestReportDate(reports []core.DailyReport) core.Date {
	var latest core.Date
	for _, r := range reports {
		if latest.IsZero() || r.ReportDate.After(latest.Time) {
			latest = r.ReportDate
		}
	}
	return latest
}
