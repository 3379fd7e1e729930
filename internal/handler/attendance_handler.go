package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/taller-adm-api/internal/middleware"
	"github.com/noah-isme/taller-adm-api/internal/service"
	appErrors "github.com/noah-isme/taller-adm-api/pkg/errors"
	"github.com/noah-isme/taller-adm-api/pkg/response"
)

const dateLayout = "2006-01-02"

// AttendanceHandler exposes attendance sheet endpoints.
type AttendanceHandler struct {
	service *service.AttendanceService
}

// NewAttendanceHandler constructs AttendanceHandler.
func NewAttendanceHandler(svc *service.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{service: svc}
}

// Record godoc
// @Summary Record a session attendance sheet
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body service.RecordAttendanceRequest true "Attendance sheet"
// @Success 201 {object} response.Envelope
// @Router /attendance [post]
func (h *AttendanceHandler) Record(c *gin.Context) {
	var req service.RecordAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	records, err := h.service.Record(c.Request.Context(), middleware.Actor(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, records)
}

// Sheet godoc
// @Summary Attendance sheet for a workshop session
// @Tags Attendance
// @Produce json
// @Param id path string true "Workshop ID"
// @Param date query string true "Session date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /workshops/{id}/attendance [get]
func (h *AttendanceHandler) Sheet(c *gin.Context) {
	date, err := time.Parse(dateLayout, c.Query("date"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid date"))
		return
	}
	records, err := h.service.Sheet(c.Request.Context(), c.Param("id"), date)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil)
}

// ForStudent godoc
// @Summary Attendance history for a student
// @Tags Attendance
// @Produce json
// @Param id path string true "Student ID"
// @Param from query string true "Range start (YYYY-MM-DD)"
// @Param to query string true "Range end (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/attendance [get]
func (h *AttendanceHandler) ForStudent(c *gin.Context) {
	from, err := time.Parse(dateLayout, c.Query("from"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid from date"))
		return
	}
	to, err := time.Parse(dateLayout, c.Query("to"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid to date"))
		return
	}
	records, err := h.service.ForStudent(c.Request.Context(), c.Param("id"), from, to)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil)
}
