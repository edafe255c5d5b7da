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

// StudentRepository manages persistence for student records.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

const studentColumns = "s.id, s.hostel_id, s.full_name, s.phone, s.guardian_name, s.guardian_phone, s.room_number, s.admission_date, s.academic_year, s.status, s.left_date, s.created_at, s.updated_at"

// List returns students matching the provided filters.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	base := "FROM students s"
	conditions := []string{"1=1"}
	var args []interface{}

	if filter.HostelID != "" {
		conditions = append(conditions, fmt.Sprintf("s.hostel_id = $%d", len(args)+1))
		args = append(args, filter.HostelID)
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("s.status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(s.full_name) LIKE $%d OR LOWER(s.room_number) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	sortBy := filter.SortBy
	allowedSorts := map[string]string{
		"full_name":      "s.full_name",
		"room_number":    "s.room_number",
		"admission_date": "s.admission_date",
		"created_at":     "s.created_at",
	}
	if sortBy == "" {
		sortBy = "created_at"
	}
	column, ok := allowedSorts[sortBy]
	if !ok {
		column = "s.created_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", studentColumns, base, column, order, size, offset)

	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}

// ListActiveByHostel returns all active students of a hostel without pagination.
func (r *StudentRepository) ListActiveByHostel(ctx context.Context, hostelID string) ([]models.Student, error) {
	query := fmt.Sprintf("SELECT %s FROM students s WHERE s.hostel_id = $1 AND s.status = $2 ORDER BY s.full_name ASC", studentColumns)
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, hostelID, models.StudentStatusActive); err != nil {
		return nil, fmt.Errorf("list active students: %w", err)
	}
	return students, nil
}

// FindByID fetches a student by ID.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	query := fmt.Sprintf("SELECT %s FROM students s WHERE s.id = $1", studentColumns)
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// Create inserts a new student record.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if student.CreatedAt.IsZero() {
		student.CreatedAt = now
	}
	student.UpdatedAt = now
	const query = `INSERT INTO students (id, hostel_id, full_name, phone, guardian_name, guardian_phone, room_number, admission_date, academic_year, status, left_date, created_at, updated_at)
        VALUES (:id, :hostel_id, :full_name, :phone, :guardian_name, :guardian_phone, :room_number, :admission_date, :academic_year, :status, :left_date, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// Update modifies an existing student.
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) error {
	student.UpdatedAt = time.Now().UTC()
	const query = `UPDATE students SET full_name = :full_name, phone = :phone, guardian_name = :guardian_name, guardian_phone = :guardian_phone, room_number = :room_number, admission_date = :admission_date, academic_year = :academic_year, status = :status, left_date = :left_date, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	return nil
}

// MarkLeft records that a student has left the hostel.
func (r *StudentRepository) MarkLeft(ctx context.Context, id string, leftDate time.Time) error {
	const query = `UPDATE students SET status = $2, left_date = $3, updated_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, models.StudentStatusLeft, leftDate, time.Now().UTC()); err != nil {
		return fmt.Errorf("mark student left: %w", err)
	}
	return nil
}
