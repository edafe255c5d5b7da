package service

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/hostel-adp-api/internal/academic"
	"github.com/noah-isme/hostel-adp-api/internal/dto"
	"github.com/noah-isme/hostel-adp-api/internal/models"
	appErrors "github.com/noah-isme/hostel-adp-api/pkg/errors"
)

type dueHostelRepository interface {
	List(ctx context.Context, filter models.HostelFilter) ([]models.Hostel, error)
	FindByID(ctx context.Context, id string) (*models.Hostel, error)
}

type dueStudentRepository interface {
	ListActiveByHostel(ctx context.Context, hostelID string) ([]models.Student, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type dueInvoiceRepository interface {
	ListByStudent(ctx context.Context, studentID string) ([]models.Invoice, error)
	ListByHostel(ctx context.Context, hostelID string) ([]models.Invoice, error)
}

// HostelDueReport bundles one hostel's roster with its aggregate row.
type HostelDueReport struct {
	Hostel  models.Hostel
	Summary academic.HostelSummary
	Rows    []dto.StudentDueRow
}

// DueService derives due states from invoice history. Nothing here is
// persisted; every call recomputes from the current records.
type DueService struct {
	hostels   dueHostelRepository
	students  dueStudentRepository
	invoices  dueInvoiceRepository
	graceDays int
	logger    *zap.Logger
}

// NewDueService constructs the due service. graceDays shifts the first due
// date for students without payment history.
func NewDueService(hostels dueHostelRepository, students dueStudentRepository, invoices dueInvoiceRepository, graceDays int, logger *zap.Logger) *DueService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DueService{hostels: hostels, students: students, invoices: invoices, graceDays: graceDays, logger: logger}
}

// StudentDue computes one student's due state as of the given day.
func (s *DueService) StudentDue(ctx context.Context, studentID string, asOf time.Time) (*dto.StudentDueRow, error) {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	hostel, err := s.hostels.FindByID(ctx, student.HostelID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load hostel")
	}
	invoices, err := s.invoices.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load invoices")
	}

	state, err := academic.ComputeDueState(student.AdmissionDate, invoiceRecords(invoices), hostel.Fees(), s.graceDays, asOf)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute due state")
	}
	row := dueRow(*student, state)
	return &row, nil
}

// HostelRoster computes due states for every active student of one hostel.
func (s *DueService) HostelRoster(ctx context.Context, hostelID string, asOf time.Time) (*HostelDueReport, error) {
	hostel, err := s.hostels.FindByID(ctx, hostelID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "hostel not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load hostel")
	}

	roster, rows, err := s.rosterFor(ctx, *hostel, asOf)
	if err != nil {
		return nil, err
	}

	summaries := academic.Summarize([]academic.HostelRoster{roster})
	return &HostelDueReport{Hostel: *hostel, Summary: summaries[1], Rows: rows}, nil
}

// PortfolioRosters computes due states across all active hostels. Hostels are
// processed concurrently; output order follows the hostel listing.
func (s *DueService) PortfolioRosters(ctx context.Context, asOf time.Time) ([]academic.HostelRoster, error) {
	active := true
	hostels, err := s.hostels.List(ctx, models.HostelFilter{Active: &active})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list hostels")
	}

	rosters := make([]academic.HostelRoster, len(hostels))
	errs := make([]error, len(hostels))
	var wg sync.WaitGroup
	for i, hostel := range hostels {
		wg.Add(1)
		go func(i int, hostel models.Hostel) {
			defer wg.Done()
			roster, _, err := s.rosterFor(ctx, hostel, asOf)
			if err != nil {
				errs[i] = err
				return
			}
			rosters[i] = roster
		}(i, hostel)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return rosters, nil
}

// Defaulters returns students of one hostel whose dues are overdue.
func (s *DueService) Defaulters(ctx context.Context, hostelID string, asOf time.Time) (*HostelDueReport, error) {
	report, err := s.HostelRoster(ctx, hostelID, asOf)
	if err != nil {
		return nil, err
	}
	overdue := make([]dto.StudentDueRow, 0, len(report.Rows))
	for _, row := range report.Rows {
		if row.HasDues {
			overdue = append(overdue, row)
		}
	}
	report.Rows = overdue
	return report, nil
}

func (s *DueService) rosterFor(ctx context.Context, hostel models.Hostel, asOf time.Time) (academic.HostelRoster, []dto.StudentDueRow, error) {
	students, err := s.students.ListActiveByHostel(ctx, hostel.ID)
	if err != nil {
		return academic.HostelRoster{}, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	invoices, err := s.invoices.ListByHostel(ctx, hostel.ID)
	if err != nil {
		return academic.HostelRoster{}, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load invoices")
	}

	byStudent := make(map[string][]academic.InvoiceRecord, len(students))
	for _, inv := range invoices {
		byStudent[inv.StudentID] = append(byStudent[inv.StudentID], academic.InvoiceRecord{
			Date:         inv.InvoiceDate,
			Amount:       inv.Amount,
			PeriodMonths: inv.PaymentPeriod,
		})
	}

	fees := hostel.Fees()
	states := make([]academic.DueState, 0, len(students))
	rows := make([]dto.StudentDueRow, 0, len(students))
	for _, student := range students {
		state, err := academic.ComputeDueState(student.AdmissionDate, byStudent[student.ID], fees, s.graceDays, asOf)
		if err != nil {
			return academic.HostelRoster{}, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute due state")
		}
		states = append(states, state)
		rows = append(rows, dueRow(student, state))
	}

	return academic.HostelRoster{HostelID: hostel.ID, HostelName: hostel.Name, DueStates: states}, rows, nil
}

func invoiceRecords(invoices []models.Invoice) []academic.InvoiceRecord {
	records := make([]academic.InvoiceRecord, 0, len(invoices))
	for _, inv := range invoices {
		records = append(records, academic.InvoiceRecord{
			Date:         inv.InvoiceDate,
			Amount:       inv.Amount,
			PeriodMonths: inv.PaymentPeriod,
		})
	}
	return records
}

func dueRow(student models.Student, state academic.DueState) dto.StudentDueRow {
	return dto.StudentDueRow{
		StudentID:    student.ID,
		FullName:     student.FullName,
		RoomNumber:   student.RoomNumber,
		NextDueDate:  state.NextDueDate.Format("2006-01-02"),
		DaysOverdue:  state.DaysOverdue,
		DaysUntilDue: state.DaysUntilDue,
		DueAmount:    state.DueAmount,
		HasDues:      state.HasDues,
		Severity:     academic.SeverityFor(state.DaysOverdue),
		LastPayment:  state.LastPayment,
	}
}
