package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/hostel-adp-api/internal/academic"
	"github.com/noah-isme/hostel-adp-api/internal/models"
)

type mockDueHostels struct {
	hostels []models.Hostel
}

func (m *mockDueHostels) List(ctx context.Context, filter models.HostelFilter) ([]models.Hostel, error) {
	return m.hostels, nil
}

func (m *mockDueHostels) FindByID(ctx context.Context, id string) (*models.Hostel, error) {
	for _, h := range m.hostels {
		if h.ID == id {
			return &h, nil
		}
	}
	return nil, sql.ErrNoRows
}

type mockDueInvoices struct {
	invoices []models.Invoice
}

func (m *mockDueInvoices) ListByStudent(ctx context.Context, studentID string) ([]models.Invoice, error) {
	var out []models.Invoice
	for _, inv := range m.invoices {
		if inv.StudentID == studentID {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (m *mockDueInvoices) ListByHostel(ctx context.Context, hostelID string) ([]models.Invoice, error) {
	var out []models.Invoice
	for _, inv := range m.invoices {
		if inv.HostelID == hostelID {
			out = append(out, inv)
		}
	}
	return out, nil
}

func dueServiceFixture() (*DueService, *mockStudentRepo) {
	hostels := &mockDueHostels{hostels: []models.Hostel{
		{ID: "h1", Name: "North Wing", Active: true, Fee6Month: decimal.NewFromInt(30000), Fee12Month: decimal.NewFromInt(55000)},
		{ID: "h2", Name: "South Wing", Active: true, Fee6Month: decimal.NewFromInt(28000), Fee12Month: decimal.NewFromInt(52000)},
	}}
	students := &mockStudentRepo{students: map[string]models.Student{
		"s1": {ID: "s1", HostelID: "h1", FullName: "Paid Up", Status: models.StudentStatusActive, AdmissionDate: time.Date(2023, time.June, 1, 0, 0, 0, 0, time.UTC)},
		"s2": {ID: "s2", HostelID: "h1", FullName: "Overdue", Status: models.StudentStatusActive, AdmissionDate: time.Date(2023, time.June, 1, 0, 0, 0, 0, time.UTC)},
		"s3": {ID: "s3", HostelID: "h2", FullName: "Fresh", Status: models.StudentStatusActive, AdmissionDate: time.Date(2023, time.July, 1, 0, 0, 0, 0, time.UTC)},
	}}
	invoices := &mockDueInvoices{invoices: []models.Invoice{
		{ID: "i1", StudentID: "s1", HostelID: "h1", InvoiceDate: time.Date(2023, time.June, 1, 0, 0, 0, 0, time.UTC), Amount: decimal.NewFromInt(30000), PaymentPeriod: 6},
		{ID: "i2", StudentID: "s2", HostelID: "h1", InvoiceDate: time.Date(2023, time.January, 10, 0, 0, 0, 0, time.UTC), Amount: decimal.NewFromInt(30000), PaymentPeriod: 6},
	}}
	return NewDueService(hostels, students, invoices, 0, zap.NewNop()), students
}

func TestDueServiceStudentDueOverdue(t *testing.T) {
	svc, _ := dueServiceFixture()
	asOf := time.Date(2023, time.August, 1, 0, 0, 0, 0, time.UTC)

	// Invoice on Jan 10 covering 6 months falls due Jul 10; 22 days later.
	row, err := svc.StudentDue(context.Background(), "s2", asOf)
	require.NoError(t, err)
	assert.Equal(t, "2023-07-10", row.NextDueDate)
	assert.Equal(t, 22, row.DaysOverdue)
	assert.True(t, row.HasDues)
	assert.Equal(t, academic.SeverityMedium, row.Severity)
}

func TestDueServiceStudentDueNoHistory(t *testing.T) {
	svc, _ := dueServiceFixture()
	asOf := time.Date(2023, time.August, 15, 0, 0, 0, 0, time.UTC)

	row, err := svc.StudentDue(context.Background(), "s3", asOf)
	require.NoError(t, err)
	assert.Equal(t, "2023-07-01", row.NextDueDate)
	assert.Equal(t, 45, row.DaysOverdue)
	assert.True(t, row.DueAmount.Equal(decimal.NewFromInt(28000)))
	assert.Equal(t, academic.SeverityHigh, row.Severity)
}

func TestDueServiceStudentDueNotFound(t *testing.T) {
	svc, _ := dueServiceFixture()
	_, err := svc.StudentDue(context.Background(), "missing", time.Now())
	require.Error(t, err)
}

func TestDueServiceHostelRoster(t *testing.T) {
	svc, _ := dueServiceFixture()
	asOf := time.Date(2023, time.August, 1, 0, 0, 0, 0, time.UTC)

	report, err := svc.HostelRoster(context.Background(), "h1", asOf)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Summary.TotalStudents)
	assert.Equal(t, 1, report.Summary.StudentsWithDues)
	assert.Equal(t, 50, report.Summary.PctWithDues)
	assert.Len(t, report.Rows, 2)
}

func TestDueServiceDefaultersFiltersSettled(t *testing.T) {
	svc, _ := dueServiceFixture()
	asOf := time.Date(2023, time.August, 1, 0, 0, 0, 0, time.UTC)

	report, err := svc.Defaulters(context.Background(), "h1", asOf)
	require.NoError(t, err)
	require.Len(t, report.Rows, 1)
	assert.Equal(t, "Overdue", report.Rows[0].FullName)
}

func TestDueServicePortfolioRosters(t *testing.T) {
	svc, _ := dueServiceFixture()
	asOf := time.Date(2023, time.August, 1, 0, 0, 0, 0, time.UTC)

	rosters, err := svc.PortfolioRosters(context.Background(), asOf)
	require.NoError(t, err)
	require.Len(t, rosters, 2)
	assert.Equal(t, "North Wing", rosters[0].HostelName)
	assert.Equal(t, "South Wing", rosters[1].HostelName)

	summaries := academic.Summarize(rosters)
	require.Len(t, summaries, 3)
	assert.Equal(t, academic.OverallLabel, summaries[0].HostelName)
	assert.Equal(t, 3, summaries[0].TotalStudents)
	assert.Equal(t, 2, summaries[0].StudentsWithDues)
}

func TestDueServiceLeftStudentsExcluded(t *testing.T) {
	svc, students := dueServiceFixture()
	left := time.Date(2023, time.July, 1, 0, 0, 0, 0, time.UTC)
	s := students.students["s2"]
	s.Status = models.StudentStatusLeft
	s.LeftDate = &left
	students.students["s2"] = s

	report, err := svc.HostelRoster(context.Background(), "h1", time.Date(2023, time.August, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 1, report.Summary.TotalStudents)
	assert.Equal(t, 0, report.Summary.StudentsWithDues)
}
