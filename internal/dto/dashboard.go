package dto

import (
	"github.com/shopspring/decimal"

	"github.com/noah-isme/hostel-adp-api/internal/academic"
)

// PortfolioDashboardResponse captures the master-admin dashboard payload:
// one aggregated row per hostel plus the synthetic "Overall" row first.
type PortfolioDashboardResponse struct {
	AsOf    string                   `json:"asOf"`
	Periods PeriodContext            `json:"periods"`
	Rows    []academic.HostelSummary `json:"rows"`
}

// HostelDashboardResponse captures the reception dashboard for one hostel.
type HostelDashboardResponse struct {
	HostelID string                 `json:"hostelId"`
	AsOf     string                 `json:"asOf"`
	Periods  PeriodContext          `json:"periods"`
	Summary  academic.HostelSummary `json:"summary"`
	Students []StudentDueRow        `json:"students"`
}

// PeriodContext names the billing period containing the reference date.
type PeriodContext struct {
	Code  string `json:"code"`
	Label string `json:"label"`
}

// StudentDueRow pairs a student with their derived due state for list views.
type StudentDueRow struct {
	StudentID    string            `json:"studentId"`
	FullName     string            `json:"fullName"`
	RoomNumber   string            `json:"roomNumber,omitempty"`
	NextDueDate  string            `json:"nextDueDate"`
	DaysOverdue  int               `json:"daysOverdue"`
	DaysUntilDue int               `json:"daysUntilDue"`
	DueAmount    decimal.Decimal   `json:"dueAmount"`
	HasDues      bool              `json:"hasDues"`
	Severity     academic.Severity `json:"severity"`
	LastPayment  *academic.Payment `json:"lastPayment,omitempty"`
}
