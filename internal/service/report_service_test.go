package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/hostel-adp-api/internal/dto"
	"github.com/noah-isme/hostel-adp-api/internal/models"
	"github.com/noah-isme/hostel-adp-api/internal/repository"
	"github.com/noah-isme/hostel-adp-api/pkg/jobs"
)

type fakeReportStore struct {
	jobs    map[string]*models.ReportJob
	nextID  int
	updates []repository.UpdateReportJobParams
}

func newFakeReportStore() *fakeReportStore {
	return &fakeReportStore{jobs: make(map[string]*models.ReportJob)}
}

func (f *fakeReportStore) Create(ctx context.Context, job *models.ReportJob) error {
	f.nextID++
	if job.ID == "" {
		job.ID = fmt.Sprintf("job-%d", f.nextID)
	}
	job.CreatedAt = time.Now().UTC()
	f.jobs[job.ID] = job
	return nil
}

func (f *fakeReportStore) GetByID(ctx context.Context, id string) (*models.ReportJob, error) {
	job, ok := f.jobs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return job, nil
}

func (f *fakeReportStore) Update(ctx context.Context, id string, params repository.UpdateReportJobParams) error {
	job, ok := f.jobs[id]
	if !ok {
		return sql.ErrNoRows
	}
	f.updates = append(f.updates, params)
	if params.Status != nil {
		job.Status = *params.Status
	}
	if params.Progress != nil {
		job.Progress = *params.Progress
	}
	if params.ResultURL != nil {
		job.ResultURL = params.ResultURL
	}
	if params.ErrorMessage != nil {
		job.ErrorMessage = params.ErrorMessage
	}
	if params.FinishedAt != nil {
		job.FinishedAt = params.FinishedAt
	}
	return nil
}

func (f *fakeReportStore) ListQueued(ctx context.Context, limit int) ([]models.ReportJob, error) {
	var queued []models.ReportJob
	for _, job := range f.jobs {
		if job.Status == models.ReportStatusQueued {
			queued = append(queued, *job)
		}
	}
	return queued, nil
}

func (f *fakeReportStore) ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ReportJob, error) {
	return nil, nil
}

type fakeQueue struct {
	enqueued []jobs.Job
	err      error
}

func (f *fakeQueue) Enqueue(job jobs.Job) error {
	if f.err != nil {
		return f.err
	}
	f.enqueued = append(f.enqueued, job)
	return nil
}

type fakeExportGenerator struct {
	result *ExportResult
	err    error
	calls  int
}

func (f *fakeExportGenerator) Generate(ctx context.Context, job *models.ReportJob) (*ExportResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func strPtr(s string) *string { return &s }

func TestReportServiceCreateJob(t *testing.T) {
	store := newFakeReportStore()
	queue := &fakeQueue{}
	svc := NewReportService(store, queue, nil, zap.NewNop(), ReportServiceConfig{})

	resp, err := svc.CreateJob(context.Background(), dto.ReportRequest{
		Type:     models.ReportTypeDefaulters,
		HostelID: strPtr("h1"),
		Format:   models.ReportFormatCSV,
	}, "u1", models.RoleMasterAdmin, nil)
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusQueued, resp.Status)
	assert.Equal(t, 0, resp.Progress)
	require.Len(t, queue.enqueued, 1)
	assert.Equal(t, resp.ID, queue.enqueued[0].ID)
	assert.Equal(t, string(models.ReportTypeDefaulters), queue.enqueued[0].Type)
}

func TestReportServiceCreateJobEnqueueFailureMarksFailed(t *testing.T) {
	store := newFakeReportStore()
	queue := &fakeQueue{err: errors.New("queue full")}
	svc := NewReportService(store, queue, nil, zap.NewNop(), ReportServiceConfig{})

	_, err := svc.CreateJob(context.Background(), dto.ReportRequest{
		Type:   models.ReportTypePortfolio,
		Format: models.ReportFormatPDF,
	}, "u1", models.RoleMasterAdmin, nil)
	require.Error(t, err)

	require.Len(t, store.jobs, 1)
	for _, job := range store.jobs {
		assert.Equal(t, models.ReportStatusFailed, job.Status)
		require.NotNil(t, job.ErrorMessage)
	}
}

func TestReportServiceCreateJobInvalidPeriodCode(t *testing.T) {
	svc := NewReportService(newFakeReportStore(), &fakeQueue{}, nil, zap.NewNop(), ReportServiceConfig{})

	_, err := svc.CreateJob(context.Background(), dto.ReportRequest{
		Type:       models.ReportTypeCollection,
		PeriodCode: strPtr("2023X"),
		Format:     models.ReportFormatCSV,
	}, "u1", models.RoleMasterAdmin, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "billing period")
}

func TestReportServiceCreateJobInvalidType(t *testing.T) {
	svc := NewReportService(newFakeReportStore(), &fakeQueue{}, nil, zap.NewNop(), ReportServiceConfig{})

	_, err := svc.CreateJob(context.Background(), dto.ReportRequest{
		Type:   models.ReportType("ledger"),
		Format: models.ReportFormatCSV,
	}, "u1", models.RoleMasterAdmin, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "report type")
}

func TestReportServiceReceptionScoping(t *testing.T) {
	svc := NewReportService(newFakeReportStore(), &fakeQueue{}, nil, zap.NewNop(), ReportServiceConfig{})
	hostel := "h1"

	// portfolio reports are master-admin only
	_, err := svc.CreateJob(context.Background(), dto.ReportRequest{
		Type:   models.ReportTypePortfolio,
		Format: models.ReportFormatCSV,
	}, "u1", models.RoleReceptionAdmin, &hostel)
	require.Error(t, err)

	// another hostel's report is forbidden
	_, err = svc.CreateJob(context.Background(), dto.ReportRequest{
		Type:     models.ReportTypeDefaulters,
		HostelID: strPtr("h2"),
		Format:   models.ReportFormatCSV,
	}, "u1", models.RoleReceptionAdmin, &hostel)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "limited to your hostel")

	// their own hostel works
	resp, err := svc.CreateJob(context.Background(), dto.ReportRequest{
		Type:     models.ReportTypeDefaulters,
		HostelID: strPtr("h1"),
		Format:   models.ReportFormatCSV,
	}, "u1", models.RoleReceptionAdmin, &hostel)
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusQueued, resp.Status)
}

func TestReportServiceGetStatusOwnership(t *testing.T) {
	store := newFakeReportStore()
	url := "/api/v1/reports/export/tok123"
	store.jobs["job-1"] = &models.ReportJob{
		ID:        "job-1",
		Type:      models.ReportTypeDefaulters,
		Status:    models.ReportStatusFinished,
		Progress:  100,
		ResultURL: &url,
		CreatedBy: "u1",
	}
	svc := NewReportService(store, &fakeQueue{}, nil, zap.NewNop(), ReportServiceConfig{})

	resp, err := svc.GetStatus(context.Background(), "job-1", "u1", models.RoleReceptionAdmin)
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusFinished, resp.Status)
	require.NotNil(t, resp.ResultURL)
	assert.Equal(t, url, *resp.ResultURL)

	// a different reception admin cannot see the job
	_, err = svc.GetStatus(context.Background(), "job-1", "u2", models.RoleReceptionAdmin)
	require.Error(t, err)

	// master admin can
	_, err = svc.GetStatus(context.Background(), "job-1", "u2", models.RoleMasterAdmin)
	require.NoError(t, err)
}

func TestReportServiceRecoverPendingJobs(t *testing.T) {
	store := newFakeReportStore()
	store.jobs["job-1"] = &models.ReportJob{ID: "job-1", Type: models.ReportTypeCollection, Status: models.ReportStatusQueued}
	store.jobs["job-2"] = &models.ReportJob{ID: "job-2", Type: models.ReportTypeDefaulters, Status: models.ReportStatusFinished}
	queue := &fakeQueue{}
	svc := NewReportService(store, queue, nil, zap.NewNop(), ReportServiceConfig{})

	svc.RecoverPendingJobs(context.Background())
	require.Len(t, queue.enqueued, 1)
	assert.Equal(t, "job-1", queue.enqueued[0].ID)
}

func TestReportWorkerHandleSuccess(t *testing.T) {
	store := newFakeReportStore()
	store.jobs["job-1"] = &models.ReportJob{
		ID:     "job-1",
		Type:   models.ReportTypeDefaulters,
		Status: models.ReportStatusQueued,
		Params: models.ReportJobParams{Format: models.ReportFormatCSV},
	}
	exporter := &fakeExportGenerator{result: &ExportResult{URL: "/api/v1/reports/export/tok", Format: models.ReportFormatCSV}}
	worker := NewReportWorker(store, exporter, 3, zap.NewNop())

	err := worker.Handle(context.Background(), jobs.Job{ID: "job-1", Attempt: 1})
	require.NoError(t, err)

	job := store.jobs["job-1"]
	assert.Equal(t, models.ReportStatusFinished, job.Status)
	assert.Equal(t, 100, job.Progress)
	require.NotNil(t, job.ResultURL)
	assert.Equal(t, "/api/v1/reports/export/tok", *job.ResultURL)
	require.NotNil(t, job.FinishedAt)
}

func TestReportWorkerHandleRetriesThenFails(t *testing.T) {
	store := newFakeReportStore()
	store.jobs["job-1"] = &models.ReportJob{
		ID:     "job-1",
		Type:   models.ReportTypeDefaulters,
		Status: models.ReportStatusQueued,
	}
	exporter := &fakeExportGenerator{err: errors.New("render failed")}
	worker := NewReportWorker(store, exporter, 2, zap.NewNop())

	// first attempt re-queues
	err := worker.Handle(context.Background(), jobs.Job{ID: "job-1", Attempt: 1})
	require.Error(t, err)
	assert.Equal(t, models.ReportStatusQueued, store.jobs["job-1"].Status)

	// final attempt marks the job failed for good
	err = worker.Handle(context.Background(), jobs.Job{ID: "job-1", Attempt: 2})
	require.Error(t, err)
	job := store.jobs["job-1"]
	assert.Equal(t, models.ReportStatusFailed, job.Status)
	assert.Equal(t, 100, job.Progress)
	require.NotNil(t, job.ErrorMessage)
	assert.Equal(t, "render failed", *job.ErrorMessage)
	require.NotNil(t, job.FinishedAt)
}
