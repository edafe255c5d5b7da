package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/hostel-adp-api/internal/models"
	"github.com/noah-isme/hostel-adp-api/internal/service"
	appErrors "github.com/noah-isme/hostel-adp-api/pkg/errors"
	"github.com/noah-isme/hostel-adp-api/pkg/response"
)

// StudentHandler exposes student endpoints. Reception admins are pinned to
// their own hostel on every operation.
type StudentHandler struct {
	students *service.StudentService
}

// NewStudentHandler constructs StudentHandler.
func NewStudentHandler(students *service.StudentService) *StudentHandler {
	return &StudentHandler{students: students}
}

// List godoc
// @Summary List students
// @Tags Students
// @Produce json
// @Param search query string false "Search by name or room"
// @Param hostelId query string false "Filter by hostel"
// @Param status query string false "Filter by status (active|left)"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Param sort query string false "Sort column"
// @Param order query string false "Sort order (asc|desc)"
// @Success 200 {object} response.Envelope
// @Router /students [get]
func (h *StudentHandler) List(c *gin.Context) {
	var filter models.StudentFilter
	filter.Search = strings.TrimSpace(c.Query("search"))
	filter.HostelID = c.Query("hostelId")
	if status := c.Query("status"); status != "" {
		typed := models.StudentStatus(status)
		filter.Status = &typed
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	if scope := hostelScopeOf(claimsFromContext(c)); scope != "" {
		filter.HostelID = scope
	}

	students, pagination, err := h.students.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, pagination)
}

// Get godoc
// @Summary Get student detail
// @Tags Students
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id} [get]
func (h *StudentHandler) Get(c *gin.Context) {
	student, err := h.students.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if scope := hostelScopeOf(claimsFromContext(c)); scope != "" && student.HostelID != scope {
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "student outside your hostel"))
		return
	}
	response.JSON(c, http.StatusOK, student, nil)
}

// Create godoc
// @Summary Register student
// @Tags Students
// @Accept json
// @Produce json
// @Param payload body service.CreateStudentRequest true "Student payload"
// @Success 201 {object} response.Envelope
// @Router /students [post]
func (h *StudentHandler) Create(c *gin.Context) {
	var req service.CreateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if scope := hostelScopeOf(claimsFromContext(c)); scope != "" && req.HostelID != scope {
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "students can only be added to your hostel"))
		return
	}
	student, err := h.students.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, student)
}

// Update godoc
// @Summary Update student
// @Tags Students
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param payload body service.UpdateStudentRequest true "Student payload"
// @Success 200 {object} response.Envelope
// @Router /students/{id} [put]
func (h *StudentHandler) Update(c *gin.Context) {
	var req service.UpdateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.checkScope(c, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	student, err := h.students.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, nil)
}

// MarkLeft godoc
// @Summary Mark student as left
// @Tags Students
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param payload body service.MarkLeftRequest true "Departure payload"
// @Success 204 {object} response.Envelope
// @Router /students/{id}/leave [post]
func (h *StudentHandler) MarkLeft(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.MarkLeftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.checkScope(c, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	if err := h.students.MarkLeft(c.Request.Context(), c.Param("id"), req, claims.UserID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

func (h *StudentHandler) checkScope(c *gin.Context, studentID string) error {
	scope := hostelScopeOf(claimsFromContext(c))
	if scope == "" {
		return nil
	}
	student, err := h.students.Get(c.Request.Context(), studentID)
	if err != nil {
		return err
	}
	if student.HostelID != scope {
		return appErrors.Clone(appErrors.ErrForbidden, "student outside your hostel")
	}
	return nil
}
