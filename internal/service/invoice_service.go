package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/noah-isme/hostel-adp-api/internal/academic"
	"github.com/noah-isme/hostel-adp-api/internal/models"
	appErrors "github.com/noah-isme/hostel-adp-api/pkg/errors"
)

type invoiceRepository interface {
	List(ctx context.Context, filter models.InvoiceFilter) ([]models.Invoice, int, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.Invoice, error)
	FindByID(ctx context.Context, id string) (*models.Invoice, error)
	Create(ctx context.Context, invoice *models.Invoice) error
	Update(ctx context.Context, invoice *models.Invoice) error
	Delete(ctx context.Context, id string) error
}

type invoiceStudentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type invoiceAuditor interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// CreateInvoiceRequest holds payload for recording a payment.
type CreateInvoiceRequest struct {
	StudentID      string          `json:"student_id" validate:"required"`
	InvoiceDate    time.Time       `json:"invoice_date" validate:"required"`
	Amount         decimal.Decimal `json:"amount" validate:"required"`
	PaymentPeriod  int             `json:"payment_period" validate:"required,oneof=6 12"`
	PaymentMethod  string          `json:"payment_method" validate:"required,oneof=cheque online"`
	PaymentDetails string          `json:"payment_details"`
	Notes          string          `json:"notes"`
}

// UpdateInvoiceRequest holds payload for correcting a payment record.
type UpdateInvoiceRequest struct {
	InvoiceDate    time.Time       `json:"invoice_date" validate:"required"`
	Amount         decimal.Decimal `json:"amount" validate:"required"`
	PaymentPeriod  int             `json:"payment_period" validate:"required,oneof=6 12"`
	PaymentMethod  string          `json:"payment_method" validate:"required,oneof=cheque online"`
	PaymentDetails string          `json:"payment_details"`
	Notes          string          `json:"notes"`
}

// InvoiceService handles payment recording use-cases.
type InvoiceService struct {
	repo      invoiceRepository
	students  invoiceStudentRepository
	audit     invoiceAuditor
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewInvoiceService constructs the invoice service.
func NewInvoiceService(repo invoiceRepository, students invoiceStudentRepository, audit invoiceAuditor, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *InvoiceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InvoiceService{repo: repo, students: students, audit: audit, cache: cache, validator: validate, logger: logger}
}

// List returns invoices and pagination metadata.
func (s *InvoiceService) List(ctx context.Context, filter models.InvoiceFilter) ([]models.Invoice, *models.Pagination, error) {
	invoices, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list invoices")
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
	return invoices, pagination, nil
}

// Get returns a single invoice.
func (s *InvoiceService) Get(ctx context.Context, id string) (*models.Invoice, error) {
	invoice, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "invoice not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load invoice")
	}
	return invoice, nil
}

// Create records a payment. The billing period code is stamped from the
// invoice date so every invoice lands in exactly one academic half.
func (s *InvoiceService) Create(ctx context.Context, req CreateInvoiceRequest, actorID string) (*models.Invoice, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid invoice payload")
	}
	if !req.Amount.IsPositive() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "amount must be positive")
	}
	if req.InvoiceDate.After(time.Now().UTC()) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invoice date must not be in the future")
	}

	student, err := s.students.FindByID(ctx, req.StudentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if student.Status != models.StudentStatusActive {
		return nil, appErrors.Clone(appErrors.ErrConflict, "student has left the hostel")
	}
	if req.InvoiceDate.Before(student.AdmissionDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invoice date precedes admission date")
	}

	invoice := &models.Invoice{
		StudentID:      student.ID,
		HostelID:       student.HostelID,
		InvoiceDate:    req.InvoiceDate,
		Amount:         req.Amount,
		PaymentPeriod:  req.PaymentPeriod,
		PaymentMethod:  models.PaymentMethod(req.PaymentMethod),
		PaymentDetails: req.PaymentDetails,
		AcademicStats:  academic.PeriodOf(req.InvoiceDate).Code(),
		Notes:          req.Notes,
	}
	if err := s.repo.Create(ctx, invoice); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create invoice")
	}

	s.recordAudit(ctx, actorID, models.AuditActionInvoiceCreate, invoice.ID)
	s.invalidateDashboards(ctx)
	return invoice, nil
}

// Update corrects an existing payment record and restamps its period code.
func (s *InvoiceService) Update(ctx context.Context, id string, req UpdateInvoiceRequest, actorID string) (*models.Invoice, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid invoice payload")
	}
	if !req.Amount.IsPositive() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "amount must be positive")
	}
	if req.InvoiceDate.After(time.Now().UTC()) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invoice date must not be in the future")
	}

	invoice, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "invoice not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load invoice")
	}

	invoice.InvoiceDate = req.InvoiceDate
	invoice.Amount = req.Amount
	invoice.PaymentPeriod = req.PaymentPeriod
	invoice.PaymentMethod = models.PaymentMethod(req.PaymentMethod)
	invoice.PaymentDetails = req.PaymentDetails
	invoice.AcademicStats = academic.PeriodOf(req.InvoiceDate).Code()
	invoice.Notes = req.Notes
	if err := s.repo.Update(ctx, invoice); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update invoice")
	}

	s.recordAudit(ctx, actorID, models.AuditActionInvoiceUpdate, invoice.ID)
	s.invalidateDashboards(ctx)
	return invoice, nil
}

// Delete removes a payment record.
func (s *InvoiceService) Delete(ctx context.Context, id string, actorID string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "invoice not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load invoice")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete invoice")
	}
	s.recordAudit(ctx, actorID, models.AuditActionInvoiceDelete, id)
	s.invalidateDashboards(ctx)
	return nil
}

func (s *InvoiceService) recordAudit(ctx context.Context, actorID, action, invoiceID string) {
	if s.audit == nil {
		return
	}
	if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &actorID,
		Action:     action,
		Resource:   "invoices",
		ResourceID: &invoiceID,
	}); err != nil {
		s.logger.Warn("failed to record invoice audit log", zap.Error(err))
	}
}

func (s *InvoiceService) invalidateDashboards(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, "dashboard:*"); err != nil {
		s.logger.Warn("failed to invalidate dashboard cache", zap.Error(err))
	}
}
