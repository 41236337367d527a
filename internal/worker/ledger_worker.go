// Package worker pushes finalized reports and deposits from SQLite to the
// accounting ledger spreadsheet.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"fleetops/internal/amqp"
	"fleetops/internal/sheets"
	"fleetops/internal/storage"
)

// LedgerWorker consumes sync messages and periodically sweeps for records
// the queue missed.
type LedgerWorker struct {
	storage   *storage.SQLiteRepository
	ledger    sheets.LedgerAppender
	batchSize int
}

func NewLedgerWorker(storage *storage.SQLiteRepository, ledger sheets.LedgerAppender, batchSize int) *LedgerWorker {
	if batchSize <= 0 {
		batchSize = 50
	}
	return &LedgerWorker{
		storage:   storage,
		ledger:    ledger,
		batchSize: batchSize,
	}
}

// HandleSyncMessage processes one queued entity. The current row is always
// re-read from the database, so a stale message cannot push old data.
func (w *LedgerWorker) HandleSyncMessage(ctx context.Context, msg *amqp.LedgerSyncMessage) error {
	slog.InfoContext(ctx, "Processing ledger sync message",
		"entity", msg.Entity, "id", msg.ID)
	return w.syncRecord(ctx, storage.PendingRecord{Entity: msg.Entity, ID: msg.ID})
}

// ProcessPending sweeps unsynced records. This is the backup path for lost
// or never-published messages.
func (w *LedgerWorker) ProcessPending(ctx context.Context) error {
	pending, err := w.storage.PendingSync(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get pending records: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending ledger records", "count", len(pending))
	for _, rec := range pending {
		if err := w.syncRecord(ctx, rec); err != nil {
			slog.ErrorContext(ctx, "Failed to sync record",
				"entity", rec.Entity, "id", rec.ID, "error", err)
		}
	}
	return nil
}

// StartupSyncCheck drains a larger pending batch once at worker start, to
// recover from downtime.
func (w *LedgerWorker) StartupSyncCheck(ctx context.Context) error {
	pending, err := w.storage.PendingSync(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("get pending records for startup check: %w", err)
	}
	if len(pending) == 0 {
		slog.InfoContext(ctx, "No pending ledger records on startup")
		return nil
	}

	slog.InfoContext(ctx, "Found pending ledger records on startup", "count", len(pending))
	synced, failed := 0, 0
	for _, rec := range pending {
		if err := w.syncRecord(ctx, rec); err != nil {
			slog.ErrorContext(ctx, "Failed to sync record during startup",
				"entity", rec.Entity, "id", rec.ID, "error", err)
			failed++
			continue
		}
		synced++
	}

	slog.InfoContext(ctx, "Startup sync completed",
		"total", len(pending), "synced", synced, "errors", failed)
	return nil
}

// RunPeriodicSweep blocks, sweeping pending records every interval until the
// context is cancelled.
func (w *LedgerWorker) RunPeriodicSweep(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.ProcessPending(ctx); err != nil {
				slog.ErrorContext(ctx, "Periodic sweep failed", "error", err)
			}
		}
	}
}

func (w *LedgerWorker) syncRecord(ctx context.Context, rec storage.PendingRecord) error {
	var (
		ref string
		err error
	)
	switch rec.Entity {
	case "report":
		r, getErr := w.storage.GetReport(ctx, rec.ID)
		if getErr != nil {
			return w.failSync(ctx, rec, fmt.Errorf("get report: %w", getErr))
		}
		ref, err = w.ledger.AppendReport(ctx, r)
	case "deposit":
		d, getErr := w.storage.GetDeposit(ctx, rec.ID)
		if getErr != nil {
			return w.failSync(ctx, rec, fmt.Errorf("get deposit: %w", getErr))
		}
		ref, err = w.ledger.AppendDeposit(ctx, d)
	default:
		return fmt.Errorf("unknown entity %q", rec.Entity)
	}
	if err != nil {
		return w.failSync(ctx, rec, fmt.Errorf("append to ledger: %w", err))
	}

	if err := w.storage.MarkSynced(ctx, rec.Entity, rec.ID); err != nil {
		// The append worked; losing the flag only means a duplicate row later.
		slog.ErrorContext(ctx, "Failed to mark record as synced",
			"entity", rec.Entity, "id", rec.ID, "error", err)
	}

	slog.InfoContext(ctx, "Synced record to ledger",
		"entity", rec.Entity, "id", rec.ID, "row", ref)
	return nil
}

func (w *LedgerWorker) failSync(ctx context.Context, rec storage.PendingRecord, err error) error {
	if markErr := w.storage.MarkSyncError(ctx, rec.Entity, rec.ID); markErr != nil {
		slog.ErrorContext(ctx, "Failed to mark sync error",
			"entity", rec.Entity, "id", rec.ID, "error", markErr)
	}
	return err
}
