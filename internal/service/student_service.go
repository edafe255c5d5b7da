package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/hostel-adp-api/internal/academic"
	"github.com/noah-isme/hostel-adp-api/internal/models"
	appErrors "github.com/noah-isme/hostel-adp-api/pkg/errors"
)

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
	ListActiveByHostel(ctx context.Context, hostelID string) ([]models.Student, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	MarkLeft(ctx context.Context, id string, leftDate time.Time) error
}

type studentHostelRepository interface {
	FindByID(ctx context.Context, id string) (*models.Hostel, error)
}

type studentAuditor interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// CreateStudentRequest holds payload for registering a student.
type CreateStudentRequest struct {
	HostelID      string    `json:"hostel_id" validate:"required"`
	FullName      string    `json:"full_name" validate:"required"`
	Phone         string    `json:"phone"`
	GuardianName  string    `json:"guardian_name"`
	GuardianPhone string    `json:"guardian_phone"`
	RoomNumber    string    `json:"room_number"`
	AdmissionDate time.Time `json:"admission_date" validate:"required"`
}

// UpdateStudentRequest holds payload for updating a student.
type UpdateStudentRequest struct {
	FullName      string    `json:"full_name" validate:"required"`
	Phone         string    `json:"phone"`
	GuardianName  string    `json:"guardian_name"`
	GuardianPhone string    `json:"guardian_phone"`
	RoomNumber    string    `json:"room_number"`
	AdmissionDate time.Time `json:"admission_date" validate:"required"`
}

// MarkLeftRequest records a student's departure.
type MarkLeftRequest struct {
	LeftDate time.Time `json:"left_date" validate:"required"`
}

// StudentService handles student use-cases.
type StudentService struct {
	repo      studentRepository
	hostels   studentHostelRepository
	audit     studentAuditor
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs the student service.
func NewStudentService(repo studentRepository, hostels studentHostelRepository, audit studentAuditor, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, hostels: hostels, audit: audit, validator: validate, logger: logger}
}

// List returns students and pagination metadata.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, *models.Pagination, error) {
	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return students, pagination, nil
}

// Get returns a single student.
func (s *StudentService) Get(ctx context.Context, id string) (*models.Student, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

// Create registers a new student. The academic year is derived from the
// admission date, not entered by hand.
func (s *StudentService) Create(ctx context.Context, req CreateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	hostel, err := s.hostels.FindByID(ctx, req.HostelID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "hostel not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load hostel")
	}
	if !hostel.Active {
		return nil, appErrors.Clone(appErrors.ErrConflict, "hostel is inactive")
	}

	period := academic.PeriodOf(req.AdmissionDate)
	student := &models.Student{
		HostelID:      req.HostelID,
		FullName:      req.FullName,
		Phone:         req.Phone,
		GuardianName:  req.GuardianName,
		GuardianPhone: req.GuardianPhone,
		RoomNumber:    req.RoomNumber,
		AdmissionDate: req.AdmissionDate,
		AcademicYear:  fmt.Sprintf("%d-%d", period.YearStart, period.YearEnd),
		Status:        models.StudentStatusActive,
	}
	if err := s.repo.Create(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}
	return student, nil
}

// Update modifies an existing student record.
func (s *StudentService) Update(ctx context.Context, id string, req UpdateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	period := academic.PeriodOf(req.AdmissionDate)
	student.FullName = req.FullName
	student.Phone = req.Phone
	student.GuardianName = req.GuardianName
	student.GuardianPhone = req.GuardianPhone
	student.RoomNumber = req.RoomNumber
	student.AdmissionDate = req.AdmissionDate
	student.AcademicYear = fmt.Sprintf("%d-%d", period.YearStart, period.YearEnd)
	if err := s.repo.Update(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}
	return student, nil
}

// MarkLeft records that a student moved out. Left students keep their invoice
// history but drop out of due computations and dashboards.
func (s *StudentService) MarkLeft(ctx context.Context, id string, req MarkLeftRequest, actorID string) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if student.Status == models.StudentStatusLeft {
		return appErrors.Clone(appErrors.ErrConflict, "student already marked as left")
	}
	if req.LeftDate.Before(student.AdmissionDate) {
		return appErrors.Clone(appErrors.ErrValidation, "left date precedes admission date")
	}
	if err := s.repo.MarkLeft(ctx, id, req.LeftDate); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark student left")
	}
	if s.audit != nil {
		if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
			UserID:     &actorID,
			Action:     models.AuditActionStudentLeft,
			Resource:   "students",
			ResourceID: &id,
			NewValues:  []byte(fmt.Sprintf(`{"left_date":%q}`, req.LeftDate.Format("2006-01-02"))),
		}); err != nil {
			s.logger.Warn("failed to record student left audit log", zap.Error(err))
		}
	}
	return nil
}
