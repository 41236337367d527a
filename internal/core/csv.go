package core

import "strings"

// CSV export rules: every field is quoted, embedded quotes are doubled,
// newlines and tabs are collapsed to single spaces, and a trailing totals
// row closes the file. The output re-parses with any standard CSV reader.

// ReportsCSV serializes reports in input order, one row per report, followed
// by a totals row. Expense totals honor the exclusion set.
func ReportsCSV(reports []DailyReport, excl Exclusions) string {
	var b strings.Builder
	writeRow(&b, []string{
		"Date", "Plate", "Status", "Ticket Revenue", "Baggage Revenue",
		"Cargo Revenue", "Total Revenue", "Total Expenses", "Net Balance",
	})

	var revenue, expenses, net int64
	for _, r := range reports {
		rev := r.TotalRevenue()
		exp := r.TotalExpenses(excl)
		bal := r.NetBalance(excl)
		revenue += rev.Cents
		expenses += exp.Cents
		net += bal.Cents
		writeRow(&b, []string{
			r.ReportDate.Key(),
			r.Vehicle.PlateNumber,
			string(r.Status),
			FormatCents(r.TicketRevenue.Cents),
			FormatCents(r.BaggageRevenue.Cents),
			FormatCents(r.CargoRevenue.Cents),
			FormatCents(rev.Cents),
			FormatCents(exp.Cents),
			FormatCents(bal.Cents),
		})
	}
	writeRow(&b, []string{
		"TOTAL", "", "", "", "", "",
		FormatCents(revenue), FormatCents(expenses), FormatCents(net),
	})
	return b.String()
}

// DepositsCSV serializes deposits in input order plus a totals row.
func DepositsCSV(deposits []BankDeposit) string {
	var b strings.Builder
	writeRow(&b, []string{"Date", "Bank", "Amount", "Linked Reports", "Slips"})

	var total int64
	for _, d := range deposits {
		total += d.Amount.Cents
		writeRow(&b, []string{
			d.DepositDate.Key(),
			d.BankName,
			FormatCents(d.Amount.Cents),
			strings.Join(d.ReportIDs, " "),
			slipNames(d.Slips),
		})
	}
	writeRow(&b, []string{"TOTAL", "", FormatCents(total), "", ""})
	return b.String()
}

// ExpensesCSV serializes expense line items in input order plus a totals row.
func ExpensesCSV(expenses []DailyExpense) string {
	var b strings.Builder
	writeRow(&b, []string{"Report", "Category", "Description", "Amount"})

	var total int64
	for _, e := range expenses {
		total += e.Amount.Cents
		writeRow(&b, []string{e.ReportID, e.Category, e.Description, FormatCents(e.Amount.Cents)})
	}
	writeRow(&b, []string{"TOTAL", "", "", FormatCents(total)})
	return b.String()
}

func writeRow(b *strings.Builder, fields []string) {
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(csvField(f))
	}
	b.WriteString("\r\n")
}

func csvField(s string) string {
	s = strings.Map(func(r rune) rune {
		switch r {
		case '\n', '\r', '\t':
			return ' '
		}
		return r
	}, s)
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func slipNames(slips []Slip) string {
	names := make([]string, len(slips))
	for i, s := range slips {
		names[i] = s.Filename
	}
	return strings.Join(names, " ")
}
