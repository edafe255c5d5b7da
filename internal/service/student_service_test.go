package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/hostel-adp-api/internal/models"
)

type mockStudentRepo struct {
	students   map[string]models.Student
	left       []string
	lastFilter models.StudentFilter
	listTotal  int
	err        error
}

func (m *mockStudentRepo) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	m.lastFilter = filter
	if m.err != nil {
		return nil, 0, m.err
	}
	students := make([]models.Student, 0, len(m.students))
	for _, s := range m.students {
		students = append(students, s)
	}
	return students, m.listTotal, nil
}

func (m *mockStudentRepo) ListActiveByHostel(ctx context.Context, hostelID string) ([]models.Student, error) {
	students := make([]models.Student, 0, len(m.students))
	for _, s := range m.students {
		if s.HostelID == hostelID && s.Status == models.StudentStatusActive {
			students = append(students, s)
		}
	}
	return students, nil
}

func (m *mockStudentRepo) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if s, ok := m.students[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockStudentRepo) Create(ctx context.Context, student *models.Student) error {
	if m.students == nil {
		m.students = make(map[string]models.Student)
	}
	if student.ID == "" {
		student.ID = "generated"
	}
	m.students[student.ID] = *student
	return nil
}

func (m *mockStudentRepo) Update(ctx context.Context, student *models.Student) error {
	if m.students == nil {
		m.students = make(map[string]models.Student)
	}
	m.students[student.ID] = *student
	return nil
}

func (m *mockStudentRepo) MarkLeft(ctx context.Context, id string, leftDate time.Time) error {
	m.left = append(m.left, id)
	if s, ok := m.students[id]; ok {
		s.Status = models.StudentStatusLeft
		s.LeftDate = &leftDate
		m.students[id] = s
	}
	return nil
}

type mockHostelFinder struct {
	hostels map[string]models.Hostel
}

func (m *mockHostelFinder) FindByID(ctx context.Context, id string) (*models.Hostel, error) {
	if h, ok := m.hostels[id]; ok {
		return &h, nil
	}
	return nil, sql.ErrNoRows
}

type mockAuditor struct {
	logs []models.AuditLog
}

func (m *mockAuditor) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.logs = append(m.logs, *log)
	return nil
}

func activeHostels() *mockHostelFinder {
	return &mockHostelFinder{hostels: map[string]models.Hostel{
		"h1": {ID: "h1", Name: "North Wing", Active: true, Fee6Month: decimal.NewFromInt(30000), Fee12Month: decimal.NewFromInt(55000)},
	}}
}

func TestStudentServiceCreate(t *testing.T) {
	repo := &mockStudentRepo{}
	svc := NewStudentService(repo, activeHostels(), nil, validator.New(), zap.NewNop())

	student, err := svc.Create(context.Background(), CreateStudentRequest{
		HostelID:      "h1",
		FullName:      "John Doe",
		RoomNumber:    "A-12",
		AdmissionDate: time.Date(2023, time.July, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, student.ID)
	assert.Equal(t, models.StudentStatusActive, student.Status)
	assert.Equal(t, "2023-2024", student.AcademicYear)
}

func TestStudentServiceCreateDerivesAcademicYearAcrossNewYear(t *testing.T) {
	repo := &mockStudentRepo{}
	svc := NewStudentService(repo, activeHostels(), nil, validator.New(), zap.NewNop())

	// January admission belongs to the academic year that started the June before.
	student, err := svc.Create(context.Background(), CreateStudentRequest{
		HostelID:      "h1",
		FullName:      "Jane Doe",
		AdmissionDate: time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, "2023-2024", student.AcademicYear)
}

func TestStudentServiceCreateUnknownHostel(t *testing.T) {
	repo := &mockStudentRepo{}
	svc := NewStudentService(repo, &mockHostelFinder{}, nil, validator.New(), zap.NewNop())

	_, err := svc.Create(context.Background(), CreateStudentRequest{
		HostelID:      "missing",
		FullName:      "John Doe",
		AdmissionDate: time.Now(),
	})
	require.Error(t, err)
}

func TestStudentServiceCreateInactiveHostel(t *testing.T) {
	hostels := &mockHostelFinder{hostels: map[string]models.Hostel{"h1": {ID: "h1", Active: false}}}
	svc := NewStudentService(&mockStudentRepo{}, hostels, nil, validator.New(), zap.NewNop())

	_, err := svc.Create(context.Background(), CreateStudentRequest{
		HostelID:      "h1",
		FullName:      "John Doe",
		AdmissionDate: time.Now(),
	})
	require.Error(t, err)
}

func TestStudentServiceMarkLeft(t *testing.T) {
	admission := time.Date(2023, time.June, 1, 0, 0, 0, 0, time.UTC)
	repo := &mockStudentRepo{students: map[string]models.Student{
		"id1": {ID: "id1", HostelID: "h1", FullName: "Old", Status: models.StudentStatusActive, AdmissionDate: admission},
	}}
	audit := &mockAuditor{}
	svc := NewStudentService(repo, activeHostels(), audit, validator.New(), zap.NewNop())

	err := svc.MarkLeft(context.Background(), "id1", MarkLeftRequest{LeftDate: admission.AddDate(0, 6, 0)}, "admin-1")
	require.NoError(t, err)
	assert.Contains(t, repo.left, "id1")
	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionStudentLeft, audit.logs[0].Action)
}

func TestStudentServiceMarkLeftTwice(t *testing.T) {
	repo := &mockStudentRepo{students: map[string]models.Student{
		"id1": {ID: "id1", Status: models.StudentStatusLeft, AdmissionDate: time.Now().AddDate(-1, 0, 0)},
	}}
	svc := NewStudentService(repo, activeHostels(), nil, validator.New(), zap.NewNop())

	err := svc.MarkLeft(context.Background(), "id1", MarkLeftRequest{LeftDate: time.Now()}, "admin-1")
	require.Error(t, err)
}

func TestStudentServiceMarkLeftBeforeAdmission(t *testing.T) {
	admission := time.Date(2023, time.June, 1, 0, 0, 0, 0, time.UTC)
	repo := &mockStudentRepo{students: map[string]models.Student{
		"id1": {ID: "id1", Status: models.StudentStatusActive, AdmissionDate: admission},
	}}
	svc := NewStudentService(repo, activeHostels(), nil, validator.New(), zap.NewNop())

	err := svc.MarkLeft(context.Background(), "id1", MarkLeftRequest{LeftDate: admission.AddDate(0, 0, -1)}, "admin-1")
	require.Error(t, err)
}
