package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/hostel-adp-api/internal/academic"
	"github.com/noah-isme/hostel-adp-api/internal/dto"
)

type fakeDashboardSrv struct {
	portfolioResp *dto.PortfolioDashboardResponse
	portfolioErr  error
	portfolioHit  bool
	hostelResp    *dto.HostelDashboardResponse
	hostelErr     error
	hostelHit     bool
	lastHostelID  string
}

func (f *fakeDashboardSrv) Portfolio(context.Context) (*dto.PortfolioDashboardResponse, bool, error) {
	return f.portfolioResp, f.portfolioHit, f.portfolioErr
}

func (f *fakeDashboardSrv) Hostel(_ context.Context, hostelID string) (*dto.HostelDashboardResponse, bool, error) {
	f.lastHostelID = hostelID
	return f.hostelResp, f.hostelHit, f.hostelErr
}

type responseEnvelope struct {
	Data map[string]interface{} `json:"data"`
	Meta map[string]interface{} `json:"meta"`
}

func TestDashboardHandlerPortfolio(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewDashboardHandler(&fakeDashboardSrv{
		portfolioResp: &dto.PortfolioDashboardResponse{
			AsOf:    "2023-08-01",
			Periods: dto.PeriodContext{Code: "23241"},
			Rows:    []academic.HostelSummary{{HostelName: academic.OverallLabel}},
		},
		portfolioHit: true,
	})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/dashboard/portfolio", nil)

	handler.Portfolio(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var envelope responseEnvelope
	_ = json.Unmarshal(rec.Body.Bytes(), &envelope)
	assert.Equal(t, true, envelope.Meta["cache_hit"])
	assert.Equal(t, "2023-08-01", envelope.Data["asOf"])
}

func TestDashboardHandlerHostel(t *testing.T) {
	gin.SetMode(gin.TestMode)
	service := &fakeDashboardSrv{
		hostelResp: &dto.HostelDashboardResponse{HostelID: "h1", AsOf: "2023-08-01"},
	}
	handler := NewDashboardHandler(service)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/dashboard/hostels/h1", nil)
	c.Params = gin.Params{{Key: "id", Value: "h1"}}

	handler.Hostel(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "h1", service.lastHostelID)
	var envelope responseEnvelope
	_ = json.Unmarshal(rec.Body.Bytes(), &envelope)
	assert.Equal(t, false, envelope.Meta["cache_hit"])
	assert.Equal(t, "h1", envelope.Data["hostelId"])
}
