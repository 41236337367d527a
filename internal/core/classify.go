package core

const (
	// ClassDepositable: positive net balance and not linked to any deposit.
	ClassDepositable ReportClass = "depositable"
	// ClassAlreadyDeposited: linked to a deposit.
	ClassAlreadyDeposited ReportClass = "already_deposited"
	// ClassLoss: net balance <= 0. Losses are never depositable even when
	// unlinked, and stay losses regardless of link state.
	ClassLoss ReportClass = "loss"
)

type ReportClass string

// LinkSet maps report ID -> deposit ID for every deposit_reports row. A
// report appears at most once; that is the core invariant the classifier
// and the selection helpers preserve.
type LinkSet map[string]string

// NewLinkSet builds a LinkSet from deposits' linked report IDs.
func NewLinkSet(deposits []BankDeposit) LinkSet {
	ls := make(LinkSet)
	for _, d := range deposits {
		for _, rid := range d.ReportIDs {
			ls[rid] = d.ID
		}
	}
	return ls
}

// Classify assigns exactly one class to a report. Loss wins over link state:
// a non-positive balance is reported as loss even if a link exists (linked
// losses cannot arise through the deposit workflow, which only accepts
// positive reports).
func Classify(r DailyReport, links LinkSet, excl Exclusions) ReportClass {
	if r.NetBalance(excl).Cents <= 0 {
		return ClassLoss
	}
	if _, linked := links[r.ID]; linked {
		return ClassAlreadyDeposited
	}
	return ClassDepositable
}

// BankCompatibility reports whether a report's vehicle may be deposited to
// the named bank. The rule is a business exception owned by the caller, not
// by the classifier; inject AllowAllBanks when no restriction applies.
type BankCompatibility func(bank string, r DailyReport) bool

// AllowAllBanks imposes no restriction.
func AllowAllBanks(string, DailyReport) bool { return true }

// PlateRestriction excludes a named set of vehicle plates from one bank.
// Other banks are unaffected.
func PlateRestriction(restrictedBank string, plates []string) BankCompatibility {
	set := make(map[string]struct{}, len(plates))
	for _, p := range plates {
		set[p] = struct{}{}
	}
	return func(bank string, r DailyReport) bool {
		if bank != restrictedBank {
			return true
		}
		_, restricted := set[r.Vehicle.PlateNumber]
		return !restricted
	}
}

// SelectableForNew returns the reports eligible for inclusion in a new
// deposit to the given bank: positive net balance, not linked anywhere, and
// bank-compatible. Input order is preserved.
func SelectableForNew(reports []DailyReport, links LinkSet, excl Exclusions, bank string, compat BankCompatibility) []DailyReport {
	return selectable(reports, links, excl, bank, compat, "")
}

// SelectableForEdit returns the reports eligible while editing an existing
// deposit: unlinked reports plus those linked to this deposit itself.
// Reports linked to a different deposit are never offered, so an edit cannot
// steal them.
func SelectableForEdit(reports []DailyReport, links LinkSet, excl Exclusions, bank string, compat BankCompatibility, depositID string) []DailyReport {
	return selectable(reports, links, excl, bank, compat, depositID)
}

func selectable(reports []DailyReport, links LinkSet, excl Exclusions, bank string, compat BankCompatibility, ownDeposit string) []DailyReport {
	if compat == nil {
		compat = AllowAllBanks
	}
	var out []DailyReport
	for _, r := range reports {
		if r.NetBalance(excl).Cents <= 0 {
			continue
		}
		if owner, linked := links[r.ID]; linked && owner != ownDeposit {
			continue
		}
		if !compat(bank, r) {
			continue
		}
		out = append(out, r)
	}
	return out
}
