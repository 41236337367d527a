package core

import (
	"errors"
	"strings"
	"time"
)

const (
	StatusOperational    ReportStatus = "operational"
	StatusNonOperational ReportStatus = "non_operational"
)

// Reserved expense categories. Free-text categories pass through as typed;
// only these two names are case-normalized on entry.
const (
	CategoryFuel    = "Fuel"
	CategorySubsidy = "Subsidy"
)

type (
	ReportStatus string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Vehicle is a read-only join carried on reports for display and
	// bank-compatibility checks.
	Vehicle struct {
		ID          string
		PlateNumber string
		Category    string
	}

	// DailyReport is one vehicle's operational record for one date.
	DailyReport struct {
		ID             string
		ReportDate     Date
		Status         ReportStatus
		Vehicle        Vehicle
		TicketRevenue  Money
		BaggageRevenue Money
		CargoRevenue   Money
		Expenses       []DailyExpense
	}

	// DailyExpense is one cost line item attached to exactly one report.
	DailyExpense struct {
		ID          string
		ReportID    string
		Category    string
		Description string
		Amount      Money
		ReceiptURL  string
	}

	// Slip is a scanned document attached to a deposit.
	Slip struct {
		ID       string
		URL      string
		Filename string
		Size     int64
	}

	// BankDeposit records that the net balances of one or more reports were
	// physically deposited. Amount is fixed at create/edit time and is never
	// recomputed when linked reports are later edited.
	BankDeposit struct {
		ID          string
		BankName    string
		DepositDate Date
		Amount      Money
		ReportIDs   []string
		Slips       []Slip
	}

	// VehicleRental tracks a short-term lease: one rental, many vehicles,
	// many expenses, many payment receipts.
	VehicleRental struct {
		ID           string
		RenterName   string
		StartDate    Date
		EndDate      Date
		RentalAmount Money
		VehicleIDs   []string
		Expenses     []RentalExpense
		Payments     []RentalPayment
	}

	RentalExpense struct {
		ID          string
		RentalID    string
		Category    string
		Description string
		Amount      Money
	}

	RentalPayment struct {
		ID         string
		RentalID   string
		PaidOn     Date
		Amount     Money
		ReceiptURL string
	}

	CompanyExpense struct {
		ID          string
		Date        Date
		Category    string
		Description string
		Amount      Money
		ReceiptURL  string
	}

	MaintenanceRecord struct {
		ID              string
		VehicleID       string
		ServiceType     string
		Description     string
		ServiceDate     Date
		NextServiceDate Date
		Cost            Money
		ReceiptURL      string
	}

	InventoryItem struct {
		ID         string
		Name       string
		Category   string
		Quantity   int64
		UnitCost   Money
		ReceiptURL string
	}
)

var (
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrNegativeAmount   = errors.New("amount cannot be negative")
	ErrInvalidStatus    = errors.New("invalid report status")
	ErrEmptyVehicle     = errors.New("empty vehicle reference")
	ErrEmptyCategory    = errors.New("empty expense category")
	ErrEmptyBankName    = errors.New("empty bank name")
	ErrEmptyRenter      = errors.New("empty renter name")
	ErrEmptyName        = errors.New("empty name")
	ErrNoReportsLinked  = errors.New("no reports selected for deposit")
	ErrNoSlipsAttached  = errors.New("no deposit slips attached")
)

// NewDate builds a day-precision UTC date.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates a timestamp to its calendar date, ignoring the time
// portion. Grouping and equality always work on this truncated form.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses the wire format YYYY-MM-DD.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t.UTC()}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// Key returns the canonical YYYY-MM-DD form used for grouping and JSON.
func (d Date) Key() string {
	return d.Format("2006-01-02")
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Key() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (s ReportStatus) Validate() error {
	switch s {
	case StatusOperational, StatusNonOperational:
		return nil
	}
	return ErrInvalidStatus
}

// NormalizeCategory trims the category and canonicalizes the two reserved
// names regardless of input casing. Anything else passes through as typed.
func NormalizeCategory(s string) string {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "fuel":
		return CategoryFuel
	case "subsidy":
		return CategorySubsidy
	}
	return s
}

func (m Money) Validate() error {
	if m.Cents < 0 {
		return ErrNegativeAmount
	}
	return nil
}

func (m Money) Add(o Money) Money { return Money{Cents: m.Cents + o.Cents} }
func (m Money) Sub(o Money) Money { return Money{Cents: m.Cents - o.Cents} }

func (r DailyReport) Validate() error {
	if err := r.ReportDate.Validate(); err != nil {
		return err
	}
	if err := r.Status.Validate(); err != nil {
		return err
	}
	if r.Vehicle.ID == "" {
		return ErrEmptyVehicle
	}
	for _, m := range []Money{r.TicketRevenue, r.BaggageRevenue, r.CargoRevenue} {
		if err := m.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (e DailyExpense) Validate() error {
	if strings.TrimSpace(e.Category) == "" {
		return ErrEmptyCategory
	}
	if e.Amount.Cents < 0 {
		return ErrNegativeAmount
	}
	if len(e.Description) > 500 {
		return errors.New("description too long (max 500 characters)")
	}
	return nil
}

func (d BankDeposit) Validate() error {
	if strings.TrimSpace(d.BankName) == "" {
		return ErrEmptyBankName
	}
	if err := d.DepositDate.Validate(); err != nil {
		return err
	}
	if len(d.ReportIDs) == 0 {
		return ErrNoReportsLinked
	}
	return nil
}

func (v VehicleRental) Validate() error {
	if strings.TrimSpace(v.RenterName) == "" {
		return ErrEmptyRenter
	}
	if err := v.StartDate.Validate(); err != nil {
		return err
	}
	if !v.EndDate.IsZero() && v.EndDate.Before(v.StartDate.Time) {
		return errors.New("end date before start date")
	}
	if v.RentalAmount.Cents < 0 {
		return ErrNegativeAmount
	}
	return nil
}

func (c CompanyExpense) Validate() error {
	if err := c.Date.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(c.Category) == "" {
		return ErrEmptyCategory
	}
	if c.Amount.Cents < 0 {
		return ErrNegativeAmount
	}
	return nil
}

func (m MaintenanceRecord) Validate() error {
	if strings.TrimSpace(m.VehicleID) == "" {
		return ErrEmptyVehicle
	}
	if err := m.ServiceDate.Validate(); err != nil {
		return err
	}
	if m.Cost.Cents < 0 {
		return ErrNegativeAmount
	}
	return nil
}

func (i InventoryItem) Validate() error {
	if strings.TrimSpace(i.Name) == "" {
		return ErrEmptyName
	}
	if i.Quantity < 0 {
		return errors.New("quantity cannot be negative")
	}
	if i.UnitCost.Cents < 0 {
		return ErrNegativeAmount
	}
	return nil
}
