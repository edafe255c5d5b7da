package academic

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrFutureInvoice reports an invoice dated after the reference day.
	ErrFutureInvoice = errors.New("academic: invoice dated in the future")
	// ErrNegativeAmount reports an invoice with a negative amount.
	ErrNegativeAmount = errors.New("academic: invoice amount is negative")
)

// FeeSchedule holds a hostel's fees per payment period length.
type FeeSchedule struct {
	SixMonth    decimal.Decimal `json:"fee_6_month"`
	TwelveMonth decimal.Decimal `json:"fee_12_month"`
}

// ForMonths returns the fee covering the given period length. Anything other
// than twelve months bills at the six-month rate.
func (f FeeSchedule) ForMonths(months int) decimal.Decimal {
	if months == 12 {
		return f.TwelveMonth
	}
	return f.SixMonth
}

// Minimum returns the cheapest period fee, used for students with no
// payment history yet.
func (f FeeSchedule) Minimum() decimal.Decimal {
	if f.SixMonth.LessThanOrEqual(f.TwelveMonth) {
		return f.SixMonth
	}
	return f.TwelveMonth
}

// InvoiceRecord is the slice of an invoice the due calculator needs.
type InvoiceRecord struct {
	Date         time.Time
	Amount       decimal.Decimal
	PeriodMonths int
}

// Payment describes the invoice that currently covers a student.
type Payment struct {
	Date   time.Time       `json:"date"`
	Amount decimal.Decimal `json:"amount"`
}

// DueState is derived fresh from invoice history on every read and never
// persisted. DaysOverdue and DaysUntilDue are two views of the same
// subtraction; callers must not conflate them.
type DueState struct {
	NextDueDate  time.Time       `json:"next_due_date"`
	DaysOverdue  int             `json:"days_overdue"`
	DaysUntilDue int             `json:"days_until_due"`
	DueAmount    decimal.Decimal `json:"due_amount"`
	HasDues      bool            `json:"has_dues"`
	LastPayment  *Payment        `json:"last_payment,omitempty"`
}

// ComputeDueState derives a student's due state from admission date and
// invoice history. graceDays shifts the first due date for students with no
// payments yet. Pure: identical inputs always yield identical output.
func ComputeDueState(admission time.Time, invoices []InvoiceRecord, fees FeeSchedule, graceDays int, today time.Time) (DueState, error) {
	for _, inv := range invoices {
		if dateOf(inv.Date).After(dateOf(today)) {
			return DueState{}, ErrFutureInvoice
		}
		if inv.Amount.IsNegative() {
			return DueState{}, ErrNegativeAmount
		}
	}

	var state DueState
	if len(invoices) == 0 {
		state.NextDueDate = dateOf(admission).AddDate(0, 0, graceDays)
		state.DueAmount = fees.Minimum()
	} else {
		last := invoices[0]
		for _, inv := range invoices[1:] {
			if inv.Date.After(last.Date) {
				last = inv
			}
		}
		state.LastPayment = &Payment{Date: dateOf(last.Date), Amount: last.Amount}
		state.NextDueDate = dateOf(last.Date).AddDate(0, last.PeriodMonths, 0)
		state.DueAmount = fees.ForMonths(last.PeriodMonths)
	}

	diff := daysBetween(state.NextDueDate, dateOf(today))
	state.DaysOverdue = diff
	state.DaysUntilDue = -diff
	state.HasDues = diff > 0 && state.DueAmount.IsPositive()

	return state, nil
}

// dateOf truncates to a UTC calendar date so day arithmetic ignores
// time-of-day and zone offsets.
func dateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}
