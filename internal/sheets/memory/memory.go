// Package memory is an in-process LedgerAppender for tests and local runs
// without Google credentials.
package memory

import (
	"context"
	"fmt"
	"sync"

	"fleetops/internal/core"
	ports "fleetops/internal/sheets"
)

type Ledger struct {
	mu       sync.Mutex
	reports  []core.DailyReport
	deposits []core.BankDeposit
}

var _ ports.LedgerAppender = (*Ledger)(nil)

func New() *Ledger {
	return &Ledger{}
}

func (l *Ledger) AppendReport(_ context.Context, r core.DailyReport) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.reports = append(l.reports, r)
	return fmt.Sprintf("mem:reports:%d", len(l.reports)), nil
}

func (l *Ledger) AppendDeposit(_ context.Context, d core.BankDeposit) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.deposits = append(l.deposits, d)
	return fmt.Sprintf("mem:deposits:%d", len(l.deposits)), nil
}

// Reports returns a copy of everything appended so far.
func (l *Ledger) Reports() []core.DailyReport {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]core.DailyReport(nil), l.reports...)
}

func (l *Ledger) Deposits() []core.BankDeposit {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]core.BankDeposit(nil), l.deposits...)
}
