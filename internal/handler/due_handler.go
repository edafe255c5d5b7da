package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/hostel-adp-api/internal/service"
	appErrors "github.com/noah-isme/hostel-adp-api/pkg/errors"
	"github.com/noah-isme/hostel-adp-api/pkg/response"
)

// DueHandler exposes derived due-state endpoints.
type DueHandler struct {
	dues     *service.DueService
	students *service.StudentService
}

// NewDueHandler constructs DueHandler.
func NewDueHandler(dues *service.DueService, students *service.StudentService) *DueHandler {
	return &DueHandler{dues: dues, students: students}
}

// StudentDue godoc
// @Summary Get a student's current due state
// @Tags Dues
// @Produce json
// @Param id path string true "Student ID"
// @Param date query string false "As-of date (YYYY-MM-DD, defaults to today)"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/due [get]
func (h *DueHandler) StudentDue(c *gin.Context) {
	asOf, err := asOfDate(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	if scope := hostelScopeOf(claimsFromContext(c)); scope != "" {
		student, err := h.students.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			response.Error(c, err)
			return
		}
		if student.HostelID != scope {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "student outside your hostel"))
			return
		}
	}

	row, err := h.dues.StudentDue(c.Request.Context(), c.Param("id"), asOf)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, row, nil)
}

// Defaulters godoc
// @Summary List a hostel's students with overdue payments
// @Tags Dues
// @Produce json
// @Param id path string true "Hostel ID"
// @Param date query string false "As-of date (YYYY-MM-DD, defaults to today)"
// @Success 200 {object} response.Envelope
// @Router /hostels/{id}/defaulters [get]
func (h *DueHandler) Defaulters(c *gin.Context) {
	asOf, err := asOfDate(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	report, err := h.dues.Defaulters(c.Request.Context(), c.Param("id"), asOf)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"summary": report.Summary, "students": report.Rows}, nil)
}

func asOfDate(c *gin.Context) (time.Time, error) {
	raw := c.Query("date")
	if raw == "" {
		return time.Now().UTC(), nil
	}
	asOf, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD")
	}
	return asOf, nil
}
