package service

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/hostel-adp-api/internal/academic"
	"github.com/noah-isme/hostel-adp-api/internal/models"
	"github.com/noah-isme/hostel-adp-api/pkg/export"
	"github.com/noah-isme/hostel-adp-api/pkg/storage"
)

type exportDuesProvider interface {
	Defaulters(ctx context.Context, hostelID string, asOf time.Time) (*HostelDueReport, error)
	PortfolioRosters(ctx context.Context, asOf time.Time) ([]academic.HostelRoster, error)
}

type exportInvoiceRepository interface {
	ListAllByPeriod(ctx context.Context, hostelID, periodCode string) ([]models.Invoice, error)
}

type exportHostelRepository interface {
	List(ctx context.Context, filter models.HostelFilter) ([]models.Hostel, error)
	FindByID(ctx context.Context, id string) (*models.Hostel, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       models.ReportFormat
	ExpiresAt    time.Time
}

// ExportService builds report datasets and persists rendered files.
type ExportService struct {
	dues     exportDuesProvider
	invoices exportInvoiceRepository
	hostels  exportHostelRepository
	storage  fileStorage
	csv      csvRenderer
	pdf      pdfRenderer
	signer   *storage.SignedURLSigner
	logger   *zap.Logger
	cfg      ExportConfig
}

// NewExportService constructs an ExportService.
func NewExportService(dues exportDuesProvider, invoices exportInvoiceRepository, hostels exportHostelRepository, store fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		dues:     dues,
		invoices: invoices,
		hostels:  hostels,
		storage:  store,
		csv:      csv,
		pdf:      pdf,
		signer:   signer,
		logger:   logger,
		cfg:      cfg,
	}
}

// Generate builds the dataset for a job definition and stores the rendered
// export.
func (s *ExportService) Generate(ctx context.Context, job *models.ReportJob) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}
	dataset, title, err := s.buildDataset(ctx, job)
	if err != nil {
		return nil, err
	}

	var payload []byte
	switch job.Params.Format {
	case models.ReportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case models.ReportFormatPDF:
		payload, err = s.pdf.Render(dataset, title)
	default:
		err = fmt.Errorf("unsupported format %s", job.Params.Format)
	}
	if err != nil {
		return nil, err
	}

	filename := s.buildFilename(job)
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return nil, err
	}
	signedURL := strings.TrimRight(s.cfg.APIPrefix, "/")
	if signedURL == "" {
		signedURL = "/api/v1"
	}
	signedURL = fmt.Sprintf("%s/export/%s", signedURL, token)

	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          signedURL,
		Format:       job.Params.Format,
		ExpiresAt:    expiresAt,
	}, nil
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Delete removes a stored export file.
func (s *ExportService) Delete(relPath string) error {
	return s.storage.Delete(relPath)
}

// Cleanup removes files older than ttl (defaults to configured ResultTTL when ttl <= 0).
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

func (s *ExportService) buildFilename(job *models.ReportJob) string {
	timestamp := time.Now().UTC().Format("20060102_150405")
	scope := sanitizeFilename(deref(job.Params.HostelID))
	name := fmt.Sprintf("%s_%s_%s.%s", strings.ToLower(string(job.Type)), scope, timestamp, job.Params.Format)
	return name
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "all"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}

func (s *ExportService) buildDataset(ctx context.Context, job *models.ReportJob) (export.Dataset, string, error) {
	switch job.Type {
	case models.ReportTypeDefaulters:
		return s.buildDefaultersDataset(ctx, job.Params)
	case models.ReportTypeCollection:
		return s.buildCollectionDataset(ctx, job.Params)
	case models.ReportTypePortfolio:
		return s.buildPortfolioDataset(ctx)
	default:
		return export.Dataset{}, "", fmt.Errorf("unsupported report type %s", job.Type)
	}
}

var defaulterHeaders = []string{"Hostel", "Student", "Room", "Next Due Date", "Days Overdue", "Due Amount", "Severity"}

func (s *ExportService) buildDefaultersDataset(ctx context.Context, params models.ReportJobParams) (export.Dataset, string, error) {
	asOf := time.Now().UTC()

	var hostels []models.Hostel
	if hostelID := deref(params.HostelID); hostelID != "" {
		hostel, err := s.hostels.FindByID(ctx, hostelID)
		if err != nil {
			return export.Dataset{}, "", err
		}
		hostels = []models.Hostel{*hostel}
	} else {
		active := true
		all, err := s.hostels.List(ctx, models.HostelFilter{Active: &active})
		if err != nil {
			return export.Dataset{}, "", err
		}
		hostels = all
	}

	dataRows := make([]map[string]string, 0)
	for _, hostel := range hostels {
		report, err := s.dues.Defaulters(ctx, hostel.ID, asOf)
		if err != nil {
			return export.Dataset{}, "", err
		}
		for _, row := range report.Rows {
			dataRows = append(dataRows, map[string]string{
				"Hostel":        hostel.Name,
				"Student":       row.FullName,
				"Room":          row.RoomNumber,
				"Next Due Date": row.NextDueDate,
				"Days Overdue":  fmt.Sprintf("%d", row.DaysOverdue),
				"Due Amount":    row.DueAmount.StringFixed(2),
				"Severity":      string(row.Severity),
			})
		}
	}

	dataset := export.Dataset{Headers: defaulterHeaders, Rows: dataRows}
	title := fmt.Sprintf("Defaulters Report %s", asOf.Format("2006-01-02"))
	return dataset, title, nil
}

func (s *ExportService) buildCollectionDataset(ctx context.Context, params models.ReportJobParams) (export.Dataset, string, error) {
	periodCode := deref(params.PeriodCode)
	if periodCode == "" {
		periodCode = academic.PeriodOf(time.Now().UTC()).Code()
	}
	period, err := academic.ParseCode(periodCode)
	if err != nil {
		return export.Dataset{}, "", err
	}

	invoices, err := s.invoices.ListAllByPeriod(ctx, deref(params.HostelID), periodCode)
	if err != nil {
		return export.Dataset{}, "", err
	}

	hostelNames := map[string]string{}
	dataRows := make([]map[string]string, 0, len(invoices))
	for _, inv := range invoices {
		name, ok := hostelNames[inv.HostelID]
		if !ok {
			hostel, err := s.hostels.FindByID(ctx, inv.HostelID)
			if err != nil {
				return export.Dataset{}, "", err
			}
			name = hostel.Name
			hostelNames[inv.HostelID] = name
		}
		dataRows = append(dataRows, map[string]string{
			"Hostel":          name,
			"Student ID":      inv.StudentID,
			"Invoice Date":    inv.InvoiceDate.Format("2006-01-02"),
			"Amount":          inv.Amount.StringFixed(2),
			"Period (months)": fmt.Sprintf("%d", inv.PaymentPeriod),
			"Method":          string(inv.PaymentMethod),
			"Billing Code":    inv.AcademicStats,
		})
	}

	dataset := export.Dataset{
		Headers: []string{"Hostel", "Student ID", "Invoice Date", "Amount", "Period (months)", "Method", "Billing Code"},
		Rows:    dataRows,
	}
	title := fmt.Sprintf("Collection Report %s", period.Label())
	return dataset, title, nil
}

func (s *ExportService) buildPortfolioDataset(ctx context.Context) (export.Dataset, string, error) {
	asOf := time.Now().UTC()
	rosters, err := s.dues.PortfolioRosters(ctx, asOf)
	if err != nil {
		return export.Dataset{}, "", err
	}
	summaries := academic.Summarize(rosters)

	dataRows := make([]map[string]string, 0, len(summaries))
	for _, row := range summaries {
		dataRows = append(dataRows, map[string]string{
			"Hostel":             row.HostelName,
			"Total Students":     fmt.Sprintf("%d", row.TotalStudents),
			"Students With Dues": fmt.Sprintf("%d", row.StudentsWithDues),
			"Total Due Amount":   row.TotalDueAmount.StringFixed(2),
			"Pct With Dues":      fmt.Sprintf("%d%%", row.PctWithDues),
		})
	}

	dataset := export.Dataset{
		Headers: []string{"Hostel", "Total Students", "Students With Dues", "Total Due Amount", "Pct With Dues"},
		Rows:    dataRows,
	}
	title := fmt.Sprintf("Portfolio Report %s", asOf.Format("2006-01-02"))
	return dataset, title, nil
}

func deref(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}
