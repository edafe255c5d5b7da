package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/hostel-adp-api/internal/dto"
	"github.com/noah-isme/hostel-adp-api/internal/middleware"
	"github.com/noah-isme/hostel-adp-api/pkg/response"
)

type dashboardService interface {
	Portfolio(ctx context.Context) (*dto.PortfolioDashboardResponse, bool, error)
	Hostel(ctx context.Context, hostelID string) (*dto.HostelDashboardResponse, bool, error)
}

// DashboardHandler serves the cached dashboard views.
type DashboardHandler struct {
	dashboards dashboardService
}

// NewDashboardHandler constructs DashboardHandler.
func NewDashboardHandler(dashboards dashboardService) *DashboardHandler {
	return &DashboardHandler{dashboards: dashboards}
}

// Portfolio godoc
// @Summary Portfolio dashboard across all hostels
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dashboard/portfolio [get]
func (h *DashboardHandler) Portfolio(c *gin.Context) {
	result, cacheHit, err := h.dashboards.Portfolio(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, result, nil, middleware.ExtractMeta(c))
}

// Hostel godoc
// @Summary Per-hostel dashboard
// @Tags Dashboard
// @Produce json
// @Param id path string true "Hostel ID"
// @Success 200 {object} response.Envelope
// @Router /dashboard/hostels/{id} [get]
func (h *DashboardHandler) Hostel(c *gin.Context) {
	result, cacheHit, err := h.dashboards.Hostel(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, result, nil, middleware.ExtractMeta(c))
}
