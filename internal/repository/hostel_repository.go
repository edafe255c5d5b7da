package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/hostel-adp-api/internal/models"
)

// HostelRepository manages persistence for hostel records.
type HostelRepository struct {
	db *sqlx.DB
}

// NewHostelRepository constructs a HostelRepository.
func NewHostelRepository(db *sqlx.DB) *HostelRepository {
	return &HostelRepository{db: db}
}

const hostelColumns = "id, name, type, address, fee_6_month, fee_12_month, active, created_at, updated_at"

// List returns hostels matching the provided filters, ordered by name.
func (r *HostelRepository) List(ctx context.Context, filter models.HostelFilter) ([]models.Hostel, error) {
	base := "FROM hostels"
	conditions := []string{"1=1"}
	var args []interface{}

	if filter.Type != nil {
		conditions = append(conditions, fmt.Sprintf("type = $%d", len(args)+1))
		args = append(args, *filter.Type)
	}
	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(name) LIKE $%d", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	query := fmt.Sprintf("SELECT %s %s WHERE %s ORDER BY name ASC", hostelColumns, base, strings.Join(conditions, " AND "))

	var hostels []models.Hostel
	if err := r.db.SelectContext(ctx, &hostels, query, args...); err != nil {
		return nil, fmt.Errorf("list hostels: %w", err)
	}
	return hostels, nil
}

// FindByID fetches a hostel by ID.
func (r *HostelRepository) FindByID(ctx context.Context, id string) (*models.Hostel, error) {
	query := fmt.Sprintf("SELECT %s FROM hostels WHERE id = $1", hostelColumns)
	var hostel models.Hostel
	if err := r.db.GetContext(ctx, &hostel, query, id); err != nil {
		return nil, err
	}
	return &hostel, nil
}

// Create inserts a new hostel record.
func (r *HostelRepository) Create(ctx context.Context, hostel *models.Hostel) error {
	if hostel.ID == "" {
		hostel.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if hostel.CreatedAt.IsZero() {
		hostel.CreatedAt = now
	}
	hostel.UpdatedAt = now
	const query = `INSERT INTO hostels (id, name, type, address, fee_6_month, fee_12_month, active, created_at, updated_at)
VALUES (:id, :name, :type, :address, :fee_6_month, :fee_12_month, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, hostel); err != nil {
		return fmt.Errorf("create hostel: %w", err)
	}
	return nil
}

// Update modifies an existing hostel.
func (r *HostelRepository) Update(ctx context.Context, hostel *models.Hostel) error {
	hostel.UpdatedAt = time.Now().UTC()
	const query = `UPDATE hostels SET name = :name, type = :type, address = :address, fee_6_month = :fee_6_month, fee_12_month = :fee_12_month, active = :active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, hostel); err != nil {
		return fmt.Errorf("update hostel: %w", err)
	}
	return nil
}

// Deactivate marks a hostel as inactive.
func (r *HostelRepository) Deactivate(ctx context.Context, id string) error {
	const query = `UPDATE hostels SET active = false, updated_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("deactivate hostel: %w", err)
	}
	return nil
}
