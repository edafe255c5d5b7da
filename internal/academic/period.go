// Package academic implements the billing calendar shared by every hostel:
// mapping calendar dates onto academic-year halves, encoding those halves as
// compact period codes, and deriving due schedules from invoice history.
package academic

import (
	"errors"
	"fmt"
	"time"
)

// The academic year runs June through May. First half is June-November,
// second half is December-May and spans the calendar year boundary.
const (
	HalfFirst  = 1
	HalfSecond = 2

	yearStartMonth = time.June
)

// ErrInvalidPeriodCode reports a malformed billing period code.
var ErrInvalidPeriodCode = errors.New("academic: invalid billing period code")

// Period identifies one half of an academic year.
type Period struct {
	YearStart int `json:"year_start"`
	YearEnd   int `json:"year_end"`
	Half      int `json:"half"`
}

// PeriodOf maps a calendar date onto its academic period. It is total over
// valid dates: December 31 and January 1 of the same academic year share the
// same YearStart.
func PeriodOf(t time.Time) Period {
	year := t.Year()
	month := t.Month()

	start := year
	if month < yearStartMonth {
		start = year - 1
	}

	half := HalfFirst
	if month >= time.December || month < yearStartMonth {
		half = HalfSecond
	}

	return Period{YearStart: start, YearEnd: start + 1, Half: half}
}

// Code renders the compact five-digit billing code, e.g. 2023/half 1 -> "23241".
func (p Period) Code() string {
	return fmt.Sprintf("%02d%02d%d", p.YearStart%100, p.YearEnd%100, p.Half)
}

// ParseCode decodes a five-digit billing code back into a Period. Codes are
// interpreted in the 2000s, matching how they are written at invoice creation.
func ParseCode(code string) (Period, error) {
	if len(code) != 5 {
		return Period{}, fmt.Errorf("%w: %q must be 5 characters", ErrInvalidPeriodCode, code)
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return Period{}, fmt.Errorf("%w: %q contains non-digit characters", ErrInvalidPeriodCode, code)
		}
	}

	yearStart := 2000 + int(code[0]-'0')*10 + int(code[1]-'0')
	yearEnd := 2000 + int(code[2]-'0')*10 + int(code[3]-'0')
	half := int(code[4] - '0')

	if yearEnd != yearStart+1 {
		return Period{}, fmt.Errorf("%w: %q year range is not consecutive", ErrInvalidPeriodCode, code)
	}
	if half != HalfFirst && half != HalfSecond {
		return Period{}, fmt.Errorf("%w: %q half digit must be 1 or 2", ErrInvalidPeriodCode, code)
	}

	return Period{YearStart: yearStart, YearEnd: yearEnd, Half: half}, nil
}

// Label renders the human-readable form used across dashboards and reports.
func (p Period) Label() string {
	if p.Half == HalfSecond {
		return fmt.Sprintf("%d-%d Second Half (Dec-May)", p.YearStart, p.YearEnd)
	}
	return fmt.Sprintf("%d-%d First Half (Jun-Nov)", p.YearStart, p.YearEnd)
}
