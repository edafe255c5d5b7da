package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/hostel-adp-api/internal/dto"
	"github.com/noah-isme/hostel-adp-api/internal/middleware"
	"github.com/noah-isme/hostel-adp-api/internal/models"
	"github.com/noah-isme/hostel-adp-api/internal/service"
	appErrors "github.com/noah-isme/hostel-adp-api/pkg/errors"
)

type fakeReportSrv struct {
	jobResp     *dto.ReportJobResponse
	jobErr      error
	statusResp  *dto.ReportStatusResponse
	statusErr   error
	download    *service.ReportDownload
	downloadErr error
	lastReq     dto.ReportRequest
	lastRole    models.UserRole
	lastHostel  *string
}

func (f *fakeReportSrv) CreateJob(_ context.Context, req dto.ReportRequest, actorID string, role models.UserRole, actorHostelID *string) (*dto.ReportJobResponse, error) {
	f.lastReq = req
	f.lastRole = role
	f.lastHostel = actorHostelID
	return f.jobResp, f.jobErr
}

func (f *fakeReportSrv) GetStatus(context.Context, string, string, models.UserRole) (*dto.ReportStatusResponse, error) {
	return f.statusResp, f.statusErr
}

func (f *fakeReportSrv) ResolveDownload(context.Context, string) (*service.ReportDownload, error) {
	return f.download, f.downloadErr
}

func TestReportHandlerCreate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeReportSrv{jobResp: &dto.ReportJobResponse{ID: "job-1", Status: models.ReportStatusQueued}}
	handler := NewReportHandler(srv)

	hostel := "h1"
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	body := `{"type":"defaulters","hostelId":"h1","format":"csv"}`
	c.Request = httptest.NewRequest(http.MethodPost, "/reports", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "u1", Role: models.RoleReceptionAdmin, HostelID: &hostel})

	handler.Create(c)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, models.ReportTypeDefaulters, srv.lastReq.Type)
	assert.Equal(t, models.RoleReceptionAdmin, srv.lastRole)
	if assert.NotNil(t, srv.lastHostel) {
		assert.Equal(t, "h1", *srv.lastHostel)
	}
}

func TestReportHandlerCreateUnauthenticated(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewReportHandler(&fakeReportSrv{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/reports", strings.NewReader(`{}`))

	handler.Create(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestReportHandlerStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	url := "/api/v1/reports/export/tok"
	srv := &fakeReportSrv{statusResp: &dto.ReportStatusResponse{
		ID:        "job-1",
		Status:    models.ReportStatusFinished,
		Progress:  100,
		ResultURL: &url,
	}}
	handler := NewReportHandler(srv)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/reports/job-1", nil)
	c.Params = gin.Params{{Key: "id", Value: "job-1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "u1", Role: models.RoleMasterAdmin})

	handler.Status(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "FINISHED")
}

func TestReportHandlerDownloadRejected(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeReportSrv{downloadErr: appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")}
	handler := NewReportHandler(srv)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/reports/export/bad-token", nil)
	c.Params = gin.Params{{Key: "token", Value: "bad-token"}}

	handler.Download(c)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}
