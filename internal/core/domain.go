package core

import (
	"errors"
	"strings"
	"time"
)

const (
	RecurrenceMonthly     Recurrence = "monthly"
	RecurrenceInstallment Recurrence = "installment"
	RecurrenceSingle      Recurrence = "single"
)

const (
	PaymentCash PaymentKind = "cash"
	PaymentCard PaymentKind = "card"
)

type (
	Recurrence  string
	PaymentKind string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64 `json:"cents"`
	}

	// PaymentMethod is a tagged variant: cash-class (cash/PIX) or a
	// specific card. CardID is set only when Kind is PaymentCard.
	PaymentMethod struct {
		Kind   PaymentKind `json:"kind"`
		CardID string      `json:"cardId,omitempty"`
	}

	// MasterPlan is a durable template for a recurring or installment
	// fixed expense, independent of any single month.
	MasterPlan struct {
		ID                string        `json:"id"`
		Description       string        `json:"description"`
		Category          string        `json:"category"`
		Payment           PaymentMethod `json:"payment"`
		Value             Money         `json:"value"`
		Recurrence        Recurrence    `json:"recurrence"`
		TotalInstallments int           `json:"totalInstallments"`
		PaidInstallments  int           `json:"paidInstallments"`
		StartMonth        MonthKey      `json:"startMonth"`
		DueDay            int           `json:"dueDay"`
	}

	// CardSpec is one card purchase amortized over N monthly installments.
	CardSpec struct {
		ID                string   `json:"id"`
		CardID            string   `json:"cardId"`
		Description       string   `json:"description"`
		TotalValue        Money    `json:"totalValue"`
		TotalInstallments int      `json:"totalInstallments"`
		StartMonth        MonthKey `json:"startMonth"`
		DueDay            int      `json:"dueDay"`
	}

	// FixedExpenseInstance is one month's materialization of a master
	// plan, or a manually entered single fixed expense (MasterID empty).
	FixedExpenseInstance struct {
		ID                string        `json:"id"`
		MasterID          string        `json:"masterId,omitempty"`
		Description       string        `json:"description"`
		Category          string        `json:"category"`
		Payment           PaymentMethod `json:"payment"`
		Value             Money         `json:"value"`
		InstallmentIndex  int           `json:"installmentIndex,omitempty"`
		TotalInstallments int           `json:"totalInstallments,omitempty"`
		IsProjected       bool          `json:"isProjected"`
		IsPaid            bool          `json:"isPaid"`
	}

	// Entry is one income record (a work shift or a sale).
	Entry struct {
		ID         string  `json:"id"`
		Date       Date    `json:"date"`
		Platform   string  `json:"platform"`
		Gross      Money   `json:"gross"`
		DistanceKm float64 `json:"distanceKm"`
		Hours      float64 `json:"hours"`
		FuelCost   Money   `json:"fuelCost"`
		OtherCost  Money   `json:"otherCost"`
	}

	VariableExpense struct {
		ID          string        `json:"id"`
		Date        Date          `json:"date"`
		Category    string        `json:"category"`
		Description string        `json:"description"`
		Payment     PaymentMethod `json:"payment"`
		Value       Money         `json:"value"`
	}

	// CardState is the per-card, per-month statement state. MonthlyCharge
	// is derived by the summary calculation, never set by the user.
	CardState struct {
		OpeningBalance Money `json:"openingBalance"`
		MonthlyCharge  Money `json:"monthlyCharge"`
	}

	// MonthMeta is the independently persisted carryover sub-object.
	MonthMeta struct {
		OpeningCash    Money `json:"openingCash"`
		OpeningCashSet bool  `json:"openingCashSet"`
		ClosingCash    Money `json:"closingCash"`
	}

	// MonthlyLedger is the per-month aggregate root. Its five logical
	// sub-objects (entries, variable expenses, fixed expenses, cards,
	// meta) are persisted independently.
	MonthlyLedger struct {
		MonthKey         MonthKey               `json:"monthKey"`
		Entries          []Entry                `json:"entries"`
		VariableExpenses []VariableExpense      `json:"variableExpenses"`
		FixedExpenses    []FixedExpenseInstance `json:"fixedExpenses"`
		Cards            map[string]CardState   `json:"cards"`
		OpeningCash      Money                  `json:"openingCash"`
		OpeningCashSet   bool                   `json:"openingCashSet"`
		ClosingCash      Money                  `json:"closingCash"`
	}
)

var (
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrEmptyDescription    = errors.New("empty description")
	ErrEmptyCategory       = errors.New("empty category")
	ErrEmptyPlatform       = errors.New("empty platform")
	ErrEmptyCardID         = errors.New("card payment without card id")
	ErrInvalidRecurrence   = errors.New("invalid recurrence")
	ErrInvalidInstallments = errors.New("installment plan needs at least 2 installments")
	ErrInstallmentIndex    = errors.New("installment index out of range")
	ErrInvalidDueDay       = errors.New("invalid due day")
)

// Cash is the cash/PIX payment class.
func Cash() PaymentMethod {
	return PaymentMethod{Kind: PaymentCash}
}

// Card tags a payment with the card it accrues to.
func Card(cardID string) PaymentMethod {
	return PaymentMethod{Kind: PaymentCard, CardID: cardID}
}

func (p PaymentMethod) IsCard() bool {
	return p.Kind == PaymentCard
}

func (p PaymentMethod) Validate() error {
	switch p.Kind {
	case PaymentCash:
		return nil
	case PaymentCard:
		if strings.TrimSpace(p.CardID) == "" {
			return ErrEmptyCardID
		}
		return nil
	default:
		return errors.New("unknown payment kind: " + string(p.Kind))
	}
}

// NewDate creates a Date from year, month, day at midnight UTC.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	return nil
}

// MonthKey returns the key of the month the date falls in.
func (d Date) MonthKey() MonthKey {
	return MonthKeyOf(d.Time)
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// IsZero reports whether the amount is exactly zero cents.
func (m Money) IsZero() bool {
	return m.Cents == 0
}

func (m Money) Add(other Money) Money {
	return Money{Cents: m.Cents + other.Cents}
}

func (m Money) Sub(other Money) Money {
	return Money{Cents: m.Cents - other.Cents}
}

func validateDescription(s string) error {
	if len(strings.TrimSpace(s)) == 0 {
		return ErrEmptyDescription
	}
	if len(s) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	return nil
}

func validateDueDay(day int) error {
	if day < 1 || day > 31 {
		return ErrInvalidDueDay
	}
	return nil
}

func (p MasterPlan) Validate() error {
	if err := validateDescription(p.Description); err != nil {
		return err
	}
	if strings.TrimSpace(p.Category) == "" {
		return ErrEmptyCategory
	}
	if err := p.Payment.Validate(); err != nil {
		return err
	}
	if err := p.Value.Validate(); err != nil {
		return err
	}
	if err := p.StartMonth.Validate(); err != nil {
		return err
	}
	if err := validateDueDay(p.DueDay); err != nil {
		return err
	}
	switch p.Recurrence {
	case RecurrenceMonthly:
		return nil
	case RecurrenceInstallment:
		if p.TotalInstallments < 2 {
			return ErrInvalidInstallments
		}
		if p.PaidInstallments < 0 || p.PaidInstallments > p.TotalInstallments {
			return ErrInstallmentIndex
		}
		return nil
	case RecurrenceSingle:
		// Single expenses live only as instances, never as plans.
		return ErrInvalidRecurrence
	default:
		return ErrInvalidRecurrence
	}
}

// Exhausted reports whether every installment of the plan has been paid.
// Exhausted plans generate no further instances.
func (p MasterPlan) Exhausted() bool {
	return p.Recurrence == RecurrenceInstallment && p.PaidInstallments >= p.TotalInstallments
}

// AdvancePaid raises PaidInstallments to idx, clamped to the plan's
// total. It never regresses and reports whether the counter moved.
func (p *MasterPlan) AdvancePaid(idx int) bool {
	if p.Recurrence != RecurrenceInstallment {
		return false
	}
	if idx > p.TotalInstallments {
		idx = p.TotalInstallments
	}
	if idx <= p.PaidInstallments {
		return false
	}
	p.PaidInstallments = idx
	return true
}

func (c CardSpec) Validate() error {
	if strings.TrimSpace(c.CardID) == "" {
		return ErrEmptyCardID
	}
	if err := validateDescription(c.Description); err != nil {
		return err
	}
	if err := c.TotalValue.Validate(); err != nil {
		return err
	}
	if c.TotalInstallments < 1 {
		return ErrInvalidInstallments
	}
	if err := c.StartMonth.Validate(); err != nil {
		return err
	}
	return validateDueDay(c.DueDay)
}

// MonthlyCharge is the amortized per-month amount of the purchase.
func (c CardSpec) MonthlyCharge() Money {
	if c.TotalInstallments < 1 {
		return Money{}
	}
	return Money{Cents: c.TotalValue.Cents / int64(c.TotalInstallments)}
}

// ActiveIn reports whether the spec projects a charge in the given month.
func (c CardSpec) ActiveIn(month MonthKey) bool {
	idx := MonthsBetween(c.StartMonth, month) + 1
	return idx >= 1 && idx <= c.TotalInstallments
}

func (f FixedExpenseInstance) Validate() error {
	if err := validateDescription(f.Description); err != nil {
		return err
	}
	if strings.TrimSpace(f.Category) == "" {
		return ErrEmptyCategory
	}
	if err := f.Payment.Validate(); err != nil {
		return err
	}
	if err := f.Value.Validate(); err != nil {
		return err
	}
	if f.InstallmentIndex != 0 || f.TotalInstallments != 0 {
		if f.InstallmentIndex < 1 || f.InstallmentIndex > f.TotalInstallments {
			return ErrInstallmentIndex
		}
	}
	return nil
}

func (e Entry) Validate() error {
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(e.Platform) == "" {
		return ErrEmptyPlatform
	}
	if err := e.Gross.Validate(); err != nil {
		return err
	}
	if e.DistanceKm < 0 || e.Hours < 0 {
		return errors.New("negative distance or hours")
	}
	if e.FuelCost.Cents < 0 || e.OtherCost.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (v VariableExpense) Validate() error {
	if err := v.Date.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(v.Category) == "" {
		return ErrEmptyCategory
	}
	if err := validateDescription(v.Description); err != nil {
		return err
	}
	if err := v.Payment.Validate(); err != nil {
		return err
	}
	return v.Value.Validate()
}

// NewMonthlyLedger returns the empty-default ledger for a month that has
// no persisted data yet.
func NewMonthlyLedger(key MonthKey) *MonthlyLedger {
	return &MonthlyLedger{
		MonthKey: key,
		Cards:    make(map[string]CardState),
	}
}

// Meta extracts the independently persisted carryover sub-object.
func (l *MonthlyLedger) Meta() MonthMeta {
	return MonthMeta{
		OpeningCash:    l.OpeningCash,
		OpeningCashSet: l.OpeningCashSet,
		ClosingCash:    l.ClosingCash,
	}
}

// FindFixedExpense returns a pointer into FixedExpenses, or nil.
func (l *MonthlyLedger) FindFixedExpense(id string) *FixedExpenseInstance {
	for i := range l.FixedExpenses {
		if l.FixedExpenses[i].ID == id {
			return &l.FixedExpenses[i]
		}
	}
	return nil
}
