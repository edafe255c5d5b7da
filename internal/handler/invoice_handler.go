package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/hostel-adp-api/internal/models"
	"github.com/noah-isme/hostel-adp-api/internal/service"
	appErrors "github.com/noah-isme/hostel-adp-api/pkg/errors"
	"github.com/noah-isme/hostel-adp-api/pkg/response"
)

// InvoiceHandler exposes payment recording endpoints.
type InvoiceHandler struct {
	invoices *service.InvoiceService
	students *service.StudentService
}

// NewInvoiceHandler constructs InvoiceHandler.
func NewInvoiceHandler(invoices *service.InvoiceService, students *service.StudentService) *InvoiceHandler {
	return &InvoiceHandler{invoices: invoices, students: students}
}

// List godoc
// @Summary List invoices
// @Tags Invoices
// @Produce json
// @Param hostelId query string false "Filter by hostel"
// @Param studentId query string false "Filter by student"
// @Param periodCode query string false "Filter by billing period code"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /invoices [get]
func (h *InvoiceHandler) List(c *gin.Context) {
	var filter models.InvoiceFilter
	filter.HostelID = c.Query("hostelId")
	filter.StudentID = c.Query("studentId")
	filter.AcademicStats = c.Query("periodCode")
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	if scope := hostelScopeOf(claimsFromContext(c)); scope != "" {
		filter.HostelID = scope
	}

	invoices, pagination, err := h.invoices.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, invoices, pagination)
}

// Get godoc
// @Summary Get invoice detail
// @Tags Invoices
// @Produce json
// @Param id path string true "Invoice ID"
// @Success 200 {object} response.Envelope
// @Router /invoices/{id} [get]
func (h *InvoiceHandler) Get(c *gin.Context) {
	invoice, err := h.invoices.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if scope := hostelScopeOf(claimsFromContext(c)); scope != "" && invoice.HostelID != scope {
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "invoice outside your hostel"))
		return
	}
	response.JSON(c, http.StatusOK, invoice, nil)
}

// Create godoc
// @Summary Record payment
// @Tags Invoices
// @Accept json
// @Produce json
// @Param payload body service.CreateInvoiceRequest true "Invoice payload"
// @Success 201 {object} response.Envelope
// @Router /invoices [post]
func (h *InvoiceHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if scope := hostelScopeOf(claims); scope != "" {
		student, err := h.students.Get(c.Request.Context(), req.StudentID)
		if err != nil {
			response.Error(c, err)
			return
		}
		if student.HostelID != scope {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "student outside your hostel"))
			return
		}
	}
	invoice, err := h.invoices.Create(c.Request.Context(), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, invoice)
}

// Update godoc
// @Summary Correct payment record
// @Tags Invoices
// @Accept json
// @Produce json
// @Param id path string true "Invoice ID"
// @Param payload body service.UpdateInvoiceRequest true "Invoice payload"
// @Success 200 {object} response.Envelope
// @Router /invoices/{id} [put]
func (h *InvoiceHandler) Update(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.UpdateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.checkScope(c, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	invoice, err := h.invoices.Update(c.Request.Context(), c.Param("id"), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, invoice, nil)
}

// Delete godoc
// @Summary Delete payment record
// @Tags Invoices
// @Produce json
// @Param id path string true "Invoice ID"
// @Success 204 {object} response.Envelope
// @Router /invoices/{id} [delete]
func (h *InvoiceHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.checkScope(c, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	if err := h.invoices.Delete(c.Request.Context(), c.Param("id"), claims.UserID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

func (h *InvoiceHandler) checkScope(c *gin.Context, invoiceID string) error {
	scope := hostelScopeOf(claimsFromContext(c))
	if scope == "" {
		return nil
	}
	invoice, err := h.invoices.Get(c.Request.Context(), invoiceID)
	if err != nil {
		return err
	}
	if invoice.HostelID != scope {
		return appErrors.Clone(appErrors.ErrForbidden, "invoice outside your hostel")
	}
	return nil
}
