package sheets

import (
	"context"

	"fleetops/internal/core"
)

// LedgerAppender is the outbound port for the accounting ledger. The sync
// worker pushes finalized reports and deposits through it.
type LedgerAppender interface {
	AppendReport(ctx context.Context, r core.DailyReport) (rowRef string, err error)
	AppendDeposit(ctx context.Context, d core.BankDeposit) (rowRef string, err error)
}
