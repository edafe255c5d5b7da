package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/noah-isme/hostel-adp-api/internal/models"
	appErrors "github.com/noah-isme/hostel-adp-api/pkg/errors"
)

type hostelRepository interface {
	List(ctx context.Context, filter models.HostelFilter) ([]models.Hostel, error)
	FindByID(ctx context.Context, id string) (*models.Hostel, error)
	Create(ctx context.Context, hostel *models.Hostel) error
	Update(ctx context.Context, hostel *models.Hostel) error
	Deactivate(ctx context.Context, id string) error
}

// CreateHostelRequest holds payload for registering a hostel.
type CreateHostelRequest struct {
	Name       string          `json:"name" validate:"required"`
	Type       string          `json:"type" validate:"required,oneof=boys girls"`
	Address    string          `json:"address"`
	Fee6Month  decimal.Decimal `json:"fee_6_month" validate:"required"`
	Fee12Month decimal.Decimal `json:"fee_12_month" validate:"required"`
}

// UpdateHostelRequest holds payload for updating a hostel.
type UpdateHostelRequest struct {
	Name       string          `json:"name" validate:"required"`
	Type       string          `json:"type" validate:"required,oneof=boys girls"`
	Address    string          `json:"address"`
	Fee6Month  decimal.Decimal `json:"fee_6_month" validate:"required"`
	Fee12Month decimal.Decimal `json:"fee_12_month" validate:"required"`
	Active     bool            `json:"active"`
}

// HostelService handles hostel use-cases.
type HostelService struct {
	repo      hostelRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewHostelService constructs the hostel service.
func NewHostelService(repo hostelRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *HostelService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HostelService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// List returns hostels matching the filter.
func (s *HostelService) List(ctx context.Context, filter models.HostelFilter) ([]models.Hostel, error) {
	hostels, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list hostels")
	}
	return hostels, nil
}

// Get returns a single hostel.
func (s *HostelService) Get(ctx context.Context, id string) (*models.Hostel, error) {
	hostel, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "hostel not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load hostel")
	}
	return hostel, nil
}

// Create registers a new hostel with its fee schedule.
func (s *HostelService) Create(ctx context.Context, req CreateHostelRequest) (*models.Hostel, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid hostel payload")
	}
	if req.Fee6Month.IsNegative() || req.Fee12Month.IsNegative() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "fees must not be negative")
	}
	hostel := &models.Hostel{
		Name:       req.Name,
		Type:       models.HostelType(req.Type),
		Address:    req.Address,
		Fee6Month:  req.Fee6Month,
		Fee12Month: req.Fee12Month,
		Active:     true,
	}
	if err := s.repo.Create(ctx, hostel); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create hostel")
	}
	s.invalidateDashboards(ctx)
	return hostel, nil
}

// Update modifies an existing hostel. Fee changes take effect for future due
// computations immediately.
func (s *HostelService) Update(ctx context.Context, id string, req UpdateHostelRequest) (*models.Hostel, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid hostel payload")
	}
	if req.Fee6Month.IsNegative() || req.Fee12Month.IsNegative() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "fees must not be negative")
	}
	hostel, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "hostel not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load hostel")
	}
	hostel.Name = req.Name
	hostel.Type = models.HostelType(req.Type)
	hostel.Address = req.Address
	hostel.Fee6Month = req.Fee6Month
	hostel.Fee12Month = req.Fee12Month
	hostel.Active = req.Active
	if err := s.repo.Update(ctx, hostel); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update hostel")
	}
	s.invalidateDashboards(ctx)
	return hostel, nil
}

// Deactivate marks a hostel inactive. Its students and invoices remain.
func (s *HostelService) Deactivate(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "hostel not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load hostel")
	}
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate hostel")
	}
	s.invalidateDashboards(ctx)
	return nil
}

func (s *HostelService) invalidateDashboards(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, "dashboard:*"); err != nil {
		s.logger.Warn("failed to invalidate dashboard cache", zap.Error(err))
	}
}
