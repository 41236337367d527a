package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"fleetops/internal/amqp"
	"fleetops/internal/config"
	"fleetops/internal/log"
	"fleetops/internal/sheets"
	gsheet "fleetops/internal/sheets/google"
	mem "fleetops/internal/sheets/memory"
	"fleetops/internal/storage"
	"fleetops/internal/worker"
)

func main() {
	_ = godotenv.Load()

	logger := log.Setup(log.FromEnv("fleetops-worker"))
	logger.Info("Starting fleetops-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	// Without a spreadsheet the worker still drains the queue, appending to
	// an in-memory ledger. Useful for local runs against a real broker.
	var ledger sheets.LedgerAppender
	if cfg.GoogleSpreadsheetID != "" {
		client, err := gsheet.NewClient(context.Background(), gsheet.Config{
			SpreadsheetID:      cfg.GoogleSpreadsheetID,
			ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
			ServiceAccountFile: cfg.GoogleServiceAccountFile,
			ReportsSheet:       cfg.GoogleReportsSheet,
			DepositsSheet:      cfg.GoogleDepositsSheet,
		})
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		ledger = client
		logger.Info("Google Sheets ledger initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		ledger = mem.New()
		logger.Warn("No GOOGLE_SPREADSHEET_ID, using in-memory ledger")
	}

	ledgerWorker := worker.NewLedgerWorker(repo, ledger, cfg.SyncBatchSize)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Records written while the worker was down.
	if err := ledgerWorker.StartupSyncCheck(ctx); err != nil {
		logger.Error("Startup sync check failed", "error", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()

		g.Go(func() error {
			return amqpClient.ConsumeLedgerSync(gctx, func(msg *amqp.LedgerSyncMessage) error {
				return ledgerWorker.HandleSyncMessage(gctx, msg)
			})
		})
		logger.Info("Consuming ledger sync messages", "queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP not configured, relying on periodic sweep only")
	}

	g.Go(func() error {
		return ledgerWorker.RunPeriodicSweep(gctx, cfg.SyncInterval)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}
