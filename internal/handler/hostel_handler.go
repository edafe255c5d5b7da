package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/hostel-adp-api/internal/models"
	"github.com/noah-isme/hostel-adp-api/internal/service"
	appErrors "github.com/noah-isme/hostel-adp-api/pkg/errors"
	"github.com/noah-isme/hostel-adp-api/pkg/response"
)

// HostelHandler exposes hostel administration endpoints.
type HostelHandler struct {
	hostels *service.HostelService
}

// NewHostelHandler constructs HostelHandler.
func NewHostelHandler(hostels *service.HostelService) *HostelHandler {
	return &HostelHandler{hostels: hostels}
}

// List godoc
// @Summary List hostels
// @Tags Hostels
// @Produce json
// @Param type query string false "Filter by type (boys|girls)"
// @Param active query bool false "Filter by active state"
// @Param search query string false "Search by name"
// @Success 200 {object} response.Envelope
// @Router /hostels [get]
func (h *HostelHandler) List(c *gin.Context) {
	var filter models.HostelFilter
	filter.Search = strings.TrimSpace(c.Query("search"))
	if hostelType := c.Query("type"); hostelType != "" {
		typed := models.HostelType(hostelType)
		filter.Type = &typed
	}
	if active := c.Query("active"); active != "" {
		if active == "true" {
			v := true
			filter.Active = &v
		} else if active == "false" {
			v := false
			filter.Active = &v
		}
	}

	hostels, err := h.hostels.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, hostels, nil)
}

// Get godoc
// @Summary Get hostel detail
// @Tags Hostels
// @Produce json
// @Param id path string true "Hostel ID"
// @Success 200 {object} response.Envelope
// @Router /hostels/{id} [get]
func (h *HostelHandler) Get(c *gin.Context) {
	hostel, err := h.hostels.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, hostel, nil)
}

// Create godoc
// @Summary Register hostel
// @Tags Hostels
// @Accept json
// @Produce json
// @Param payload body service.CreateHostelRequest true "Hostel payload"
// @Success 201 {object} response.Envelope
// @Router /hostels [post]
func (h *HostelHandler) Create(c *gin.Context) {
	var req service.CreateHostelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	hostel, err := h.hostels.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, hostel)
}

// Update godoc
// @Summary Update hostel
// @Tags Hostels
// @Accept json
// @Produce json
// @Param id path string true "Hostel ID"
// @Param payload body service.UpdateHostelRequest true "Hostel payload"
// @Success 200 {object} response.Envelope
// @Router /hostels/{id} [put]
func (h *HostelHandler) Update(c *gin.Context) {
	var req service.UpdateHostelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	hostel, err := h.hostels.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, hostel, nil)
}

// Deactivate godoc
// @Summary Deactivate hostel
// @Tags Hostels
// @Produce json
// @Param id path string true "Hostel ID"
// @Success 204 {object} response.Envelope
// @Router /hostels/{id} [delete]
func (h *HostelHandler) Deactivate(c *gin.Context) {
	if err := h.hostels.Deactivate(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
