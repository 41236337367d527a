// Package google appends ledger rows to a Google Sheets spreadsheet using
// service account credentials.
package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"fleetops/internal/core"
	ports "fleetops/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Config addresses one spreadsheet and the credentials to reach it. Exactly
// one of ServiceAccountJSON or ServiceAccountFile must be set.
type Config struct {
	SpreadsheetID      string
	ServiceAccountJSON string
	ServiceAccountFile string
	ReportsSheet       string
	DepositsSheet      string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	reportsSheet  string
	depositsSheet string
}

var _ ports.LedgerAppender = (*Client)(nil)

func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet ID")
	}

	credentialsJSON, err := loadCredentials(cfg)
	if err != nil {
		return nil, err
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	reportsSheet := cfg.ReportsSheet
	if reportsSheet == "" {
		reportsSheet = "Daily Reports"
	}
	depositsSheet := cfg.DepositsSheet
	if depositsSheet == "" {
		depositsSheet = "Bank Deposits"
	}

	return &Client{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		reportsSheet:  reportsSheet,
		depositsSheet: depositsSheet,
	}, nil
}

func loadCredentials(cfg Config) ([]byte, error) {
	switch {
	case strings.TrimSpace(cfg.ServiceAccountJSON) != "":
		return []byte(cfg.ServiceAccountJSON), nil
	case strings.TrimSpace(cfg.ServiceAccountFile) != "":
		data, err := os.ReadFile(cfg.ServiceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return data, nil
	default:
		return nil, errors.New("missing service account credentials")
	}
}

// AppendReport appends one ledger row for a daily report. Expense totals use
// the full expense set; category exclusions are a presentation concern and do
// not apply to the ledger.
func (c *Client) AppendReport(ctx context.Context, r core.DailyReport) (string, error) {
	row := []any{
		r.ReportDate.Key(),
		r.Vehicle.PlateNumber,
		string(r.Status),
		centsToDecimal(r.TicketRevenue.Cents),
		centsToDecimal(r.BaggageRevenue.Cents),
		centsToDecimal(r.CargoRevenue.Cents),
		centsToDecimal(r.TotalExpenses(nil).Cents),
		centsToDecimal(r.NetBalance(nil).Cents),
	}
	return c.appendRow(ctx, c.reportsSheet, row)
}

// AppendDeposit appends one ledger row for a bank deposit.
func (c *Client) AppendDeposit(ctx context.Context, d core.BankDeposit) (string, error) {
	row := []any{
		d.DepositDate.Key(),
		d.BankName,
		centsToDecimal(d.Amount.Cents),
		len(d.ReportIDs),
		len(d.Slips),
	}
	return c.appendRow(ctx, c.depositsSheet, row)
}

func (c *Client) appendRow(ctx context.Context, sheetName string, row []any) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	rng := fmt.Sprintf("%s!A:A", sheetName)
	vr := &gsheet.ValueRange{Values: [][]any{row}}
	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append to sheet %s: %w", sheetName, err)
	}
	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		return resp.Updates.UpdatedRange, nil
	}
	return sheetName, nil
}

func centsToDecimal(cents int64) float64 {
	return float64(cents) / 100.0
}
