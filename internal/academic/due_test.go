package academic

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testFees = FeeSchedule{
	SixMonth:    decimal.NewFromInt(30000),
	TwelveMonth: decimal.NewFromInt(55000),
}

func TestComputeDueStateNoInvoices(t *testing.T) {
	admission := date(2023, time.July, 1)
	today := date(2023, time.August, 15)

	state, err := ComputeDueState(admission, nil, testFees, 0, today)
	require.NoError(t, err)

	assert.Equal(t, admission, state.NextDueDate)
	assert.True(t, state.DueAmount.Equal(decimal.NewFromInt(30000)))
	assert.Equal(t, 45, state.DaysOverdue)
	assert.Equal(t, -45, state.DaysUntilDue)
	assert.True(t, state.HasDues)
	assert.Nil(t, state.LastPayment)
}

func TestComputeDueStateNoInvoicesWithGrace(t *testing.T) {
	admission := date(2023, time.July, 1)
	today := date(2023, time.July, 5)

	state, err := ComputeDueState(admission, nil, testFees, 15, today)
	require.NoError(t, err)

	assert.Equal(t, date(2023, time.July, 16), state.NextDueDate)
	assert.Equal(t, -11, state.DaysOverdue)
	assert.Equal(t, 11, state.DaysUntilDue)
	assert.False(t, state.HasDues)
}

func TestComputeDueStateOverdueScenario(t *testing.T) {
	invoices := []InvoiceRecord{
		{Date: date(2023, time.January, 10), Amount: decimal.NewFromInt(30000), PeriodMonths: 6},
	}
	today := date(2023, time.August, 1)

	state, err := ComputeDueState(date(2022, time.June, 1), invoices, testFees, 0, today)
	require.NoError(t, err)

	assert.Equal(t, date(2023, time.July, 10), state.NextDueDate)
	assert.Equal(t, 22, state.DaysOverdue)
	assert.True(t, state.HasDues)
	assert.Equal(t, SeverityMedium, SeverityFor(state.DaysOverdue))
	require.NotNil(t, state.LastPayment)
	assert.Equal(t, date(2023, time.January, 10), state.LastPayment.Date)
}

func TestComputeDueStatePicksLatestInvoice(t *testing.T) {
	invoices := []InvoiceRecord{
		{Date: date(2022, time.June, 1), Amount: decimal.NewFromInt(30000), PeriodMonths: 6},
		{Date: date(2023, time.June, 5), Amount: decimal.NewFromInt(55000), PeriodMonths: 12},
		{Date: date(2022, time.December, 3), Amount: decimal.NewFromInt(30000), PeriodMonths: 6},
	}
	today := date(2023, time.September, 1)

	state, err := ComputeDueState(date(2022, time.June, 1), invoices, testFees, 0, today)
	require.NoError(t, err)

	assert.Equal(t, date(2024, time.June, 5), state.NextDueDate)
	assert.False(t, state.HasDues)
	assert.True(t, state.DaysOverdue <= 0)
	assert.True(t, state.DueAmount.Equal(decimal.NewFromInt(55000)))
	assert.True(t, state.LastPayment.Amount.Equal(decimal.NewFromInt(55000)))
}

func TestComputeDueStateCurrentStudentIsNotOverdue(t *testing.T) {
	invoices := []InvoiceRecord{
		{Date: date(2023, time.June, 1), Amount: decimal.NewFromInt(30000), PeriodMonths: 6},
	}
	today := date(2023, time.August, 1)

	state, err := ComputeDueState(date(2023, time.June, 1), invoices, testFees, 0, today)
	require.NoError(t, err)

	assert.False(t, state.HasDues)
	assert.True(t, state.DaysOverdue <= 0)
	assert.Equal(t, -state.DaysOverdue, state.DaysUntilDue)
	// upcoming amount is still exposed for display
	assert.True(t, state.DueAmount.Equal(decimal.NewFromInt(30000)))
}

func TestComputeDueStateZeroFeeHostelNeverFlagsDues(t *testing.T) {
	freeFees := FeeSchedule{SixMonth: decimal.Zero, TwelveMonth: decimal.Zero}
	today := date(2023, time.August, 1)

	state, err := ComputeDueState(date(2023, time.January, 1), nil, freeFees, 0, today)
	require.NoError(t, err)

	assert.True(t, state.DaysOverdue > 0)
	assert.True(t, state.DueAmount.IsZero())
	assert.False(t, state.HasDues)

	invoices := []InvoiceRecord{
		{Date: date(2023, time.January, 10), Amount: decimal.Zero, PeriodMonths: 6},
	}
	state, err = ComputeDueState(date(2023, time.January, 1), invoices, freeFees, 0, today)
	require.NoError(t, err)
	assert.False(t, state.HasDues)
}

func TestComputeDueStateRejectsFutureInvoice(t *testing.T) {
	invoices := []InvoiceRecord{
		{Date: date(2023, time.September, 1), Amount: decimal.NewFromInt(30000), PeriodMonths: 6},
	}

	_, err := ComputeDueState(date(2023, time.June, 1), invoices, testFees, 0, date(2023, time.August, 1))
	assert.ErrorIs(t, err, ErrFutureInvoice)
}

func TestComputeDueStateRejectsNegativeAmount(t *testing.T) {
	invoices := []InvoiceRecord{
		{Date: date(2023, time.June, 1), Amount: decimal.NewFromInt(-5), PeriodMonths: 6},
	}

	_, err := ComputeDueState(date(2023, time.June, 1), invoices, testFees, 0, date(2023, time.August, 1))
	assert.ErrorIs(t, err, ErrNegativeAmount)
}

func TestComputeDueStateIsPure(t *testing.T) {
	invoices := []InvoiceRecord{
		{Date: date(2023, time.January, 10), Amount: decimal.NewFromInt(30000), PeriodMonths: 6},
	}
	today := date(2023, time.August, 1)

	first, err := ComputeDueState(date(2022, time.June, 1), invoices, testFees, 0, today)
	require.NoError(t, err)
	second, err := ComputeDueState(date(2022, time.June, 1), invoices, testFees, 0, today)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestComputeDueStateIgnoresTimeOfDay(t *testing.T) {
	invoices := []InvoiceRecord{
		{Date: time.Date(2023, time.January, 10, 23, 30, 0, 0, time.UTC), Amount: decimal.NewFromInt(30000), PeriodMonths: 6},
	}
	today := time.Date(2023, time.August, 1, 1, 0, 0, 0, time.UTC)

	state, err := ComputeDueState(date(2022, time.June, 1), invoices, testFees, 0, today)
	require.NoError(t, err)
	assert.Equal(t, 22, state.DaysOverdue)
}

func TestSeverityBands(t *testing.T) {
	cases := []struct {
		days int
		want Severity
	}{
		{-10, SeverityLow},
		{0, SeverityLow},
		{15, SeverityLow},
		{16, SeverityMedium},
		{22, SeverityMedium},
		{30, SeverityMedium},
		{31, SeverityHigh},
		{120, SeverityHigh},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, SeverityFor(tc.days), "days=%d", tc.days)
	}
}
