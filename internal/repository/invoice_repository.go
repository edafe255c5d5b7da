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

// InvoiceRepository manages persistence for invoice records.
type InvoiceRepository struct {
	db *sqlx.DB
}

// NewInvoiceRepository constructs an InvoiceRepository.
func NewInvoiceRepository(db *sqlx.DB) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

const invoiceColumns = "i.id, i.student_id, i.hostel_id, i.invoice_date, i.amount, i.payment_period, i.payment_method, i.payment_details, i.academic_stats, i.notes, i.created_at, i.updated_at"

// List returns invoices matching the provided filters, newest first.
func (r *InvoiceRepository) List(ctx context.Context, filter models.InvoiceFilter) ([]models.Invoice, int, error) {
	base := "FROM invoices i"
	conditions := []string{"1=1"}
	var args []interface{}

	if filter.HostelID != "" {
		conditions = append(conditions, fmt.Sprintf("i.hostel_id = $%d", len(args)+1))
		args = append(args, filter.HostelID)
	}
	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("i.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.AcademicStats != "" {
		conditions = append(conditions, fmt.Sprintf("i.academic_stats = $%d", len(args)+1))
		args = append(args, filter.AcademicStats)
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY i.invoice_date DESC, i.created_at DESC LIMIT %d OFFSET %d", invoiceColumns, base, size, offset)

	var invoices []models.Invoice
	if err := r.db.SelectContext(ctx, &invoices, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list invoices: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count invoices: %w", err)
	}
	return invoices, total, nil
}

// ListByStudent returns every invoice of a student ordered by invoice date.
func (r *InvoiceRepository) ListByStudent(ctx context.Context, studentID string) ([]models.Invoice, error) {
	query := fmt.Sprintf("SELECT %s FROM invoices i WHERE i.student_id = $1 ORDER BY i.invoice_date ASC", invoiceColumns)
	var invoices []models.Invoice
	if err := r.db.SelectContext(ctx, &invoices, query, studentID); err != nil {
		return nil, fmt.Errorf("list student invoices: %w", err)
	}
	return invoices, nil
}

// ListByHostel returns every invoice of a hostel ordered by invoice date.
func (r *InvoiceRepository) ListByHostel(ctx context.Context, hostelID string) ([]models.Invoice, error) {
	query := fmt.Sprintf("SELECT %s FROM invoices i WHERE i.hostel_id = $1 ORDER BY i.invoice_date ASC", invoiceColumns)
	var invoices []models.Invoice
	if err := r.db.SelectContext(ctx, &invoices, query, hostelID); err != nil {
		return nil, fmt.Errorf("list hostel invoices: %w", err)
	}
	return invoices, nil
}

// ListAllByPeriod returns invoices stamped with a billing period code,
// optionally narrowed to one hostel. Used by report generation, so it is
// deliberately unpaginated.
func (r *InvoiceRepository) ListAllByPeriod(ctx context.Context, hostelID, periodCode string) ([]models.Invoice, error) {
	conditions := []string{"i.academic_stats = $1"}
	args := []interface{}{periodCode}
	if hostelID != "" {
		conditions = append(conditions, "i.hostel_id = $2")
		args = append(args, hostelID)
	}
	query := fmt.Sprintf("SELECT %s FROM invoices i WHERE %s ORDER BY i.invoice_date ASC", invoiceColumns, strings.Join(conditions, " AND "))
	var invoices []models.Invoice
	if err := r.db.SelectContext(ctx, &invoices, query, args...); err != nil {
		return nil, fmt.Errorf("list period invoices: %w", err)
	}
	return invoices, nil
}

// FindByID fetches an invoice by ID.
func (r *InvoiceRepository) FindByID(ctx context.Context, id string) (*models.Invoice, error) {
	query := fmt.Sprintf("SELECT %s FROM invoices i WHERE i.id = $1", invoiceColumns)
	var invoice models.Invoice
	if err := r.db.GetContext(ctx, &invoice, query, id); err != nil {
		return nil, err
	}
	return &invoice, nil
}

// Create inserts a new invoice record.
func (r *InvoiceRepository) Create(ctx context.Context, invoice *models.Invoice) error {
	if invoice.ID == "" {
		invoice.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if invoice.CreatedAt.IsZero() {
		invoice.CreatedAt = now
	}
	invoice.UpdatedAt = now
	const query = `INSERT INTO invoices (id, student_id, hostel_id, invoice_date, amount, payment_period, payment_method, payment_details, academic_stats, notes, created_at, updated_at)
        VALUES (:id, :student_id, :hostel_id, :invoice_date, :amount, :payment_period, :payment_method, :payment_details, :academic_stats, :notes, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, invoice); err != nil {
		return fmt.Errorf("create invoice: %w", err)
	}
	return nil
}

// Update modifies an existing invoice.
func (r *InvoiceRepository) Update(ctx context.Context, invoice *models.Invoice) error {
	invoice.UpdatedAt = time.Now().UTC()
	const query = `UPDATE invoices SET invoice_date = :invoice_date, amount = :amount, payment_period = :payment_period, payment_method = :payment_method, payment_details = :payment_details, academic_stats = :academic_stats, notes = :notes, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, invoice); err != nil {
		return fmt.Errorf("update invoice: %w", err)
	}
	return nil
}

// Delete removes an invoice record.
func (r *InvoiceRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM invoices WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete invoice: %w", err)
	}
	return nil
}
