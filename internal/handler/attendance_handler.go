package handler

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-attendance-api/internal/models"
	"github.com/noah-isme/sma-attendance-api/internal/service"
	appErrors "github.com/noah-isme/sma-attendance-api/pkg/errors"
	"github.com/noah-isme/sma-attendance-api/pkg/response"
)

type attendanceService interface {
	RecordStaffAttendance(ctx context.Context, accountID string, action models.AttendanceAction) (*models.StaffAttendanceRecord, error)
	RecordStudentAttendance(ctx context.Context, entries []models.StudentAttendanceEntry, teacherID string) (*models.StudentRollResult, error)
	ListStaffAttendance(ctx context.Context, actor *models.JWTClaims, filter models.StaffAttendanceFilter) ([]models.StaffAttendanceRecord, error)
	ListStudentAttendance(ctx context.Context, actor *models.JWTClaims, grade, section string, date *time.Time) ([]models.StudentRollRow, error)
	SetStaffStatus(ctx context.Context, actor *models.JWTClaims, accountID string, req service.SetStaffStatusRequest) (*models.StaffAttendanceRecord, error)
}

type rollPolicy interface {
	StudentRoll(actor *models.JWTClaims) error
}

type checkRequest struct {
	Action models.AttendanceAction `json:"action"`
}

type studentRollRequest struct {
	Entries []models.StudentAttendanceEntry `json:"attendance" binding:"required,min=1,dive"`
}

// AttendanceHandler serves staff and student attendance endpoints.
type AttendanceHandler struct {
	service attendanceService
	policy  rollPolicy
}

// NewAttendanceHandler constructs an AttendanceHandler.
func NewAttendanceHandler(svc attendanceService, policy rollPolicy) *AttendanceHandler {
	return &AttendanceHandler{service: svc, policy: policy}
}

// ListStaff godoc
// @Summary List staff attendance
// @Description Teachers only see their own records
// @Tags Attendance
// @Produce json
// @Security BearerAuth
// @Param date query string false "Day (YYYY-MM-DD)"
// @Param from query string false "Range start (YYYY-MM-DD)"
// @Param to query string false "Range end (YYYY-MM-DD)"
// @Param grade query string false "Teacher grade"
// @Success 200 {object} response.Envelope
// @Router /attendance/employees [get]
func (h *AttendanceHandler) ListStaff(c *gin.Context) {
	filter, err := staffFilterFromQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	records, err := h.service.ListStaffAttendance(c.Request.Context(), claimsFromContext(c), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, records, map[string]interface{}{"total": len(records)})
}

// Check godoc
// @Summary Check in or out
// @Description Applies checkin, checkout or auto for the calling account
// @Tags Attendance
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body checkRequest false "Action, defaults to auto"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /attendance/check [post]
func (h *AttendanceHandler) Check(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req checkRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, appErrors.Validation(err, "invalid attendance payload"))
		return
	}
	if req.Action == "" {
		req.Action = models.ActionAuto
	}

	record, err := h.service.RecordStaffAttendance(c.Request.Context(), claims.UserID, req.Action)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, record)
}

// SetStatus godoc
// @Summary Set a staff day status
// @Tags Attendance
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Account ID"
// @Param payload body service.SetStaffStatusRequest true "Status payload"
// @Success 200 {object} response.Envelope
// @Router /attendance/employees/{id}/status [put]
func (h *AttendanceHandler) SetStatus(c *gin.Context) {
	id, err := pathID(c, "id", "teacher not found")
	if err != nil {
		response.Error(c, err)
		return
	}

	var req service.SetStaffStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Validation(err, "invalid status payload"))
		return
	}

	record, err := h.service.SetStaffStatus(c.Request.Context(), claimsFromContext(c), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, record)
}

// RecordStudents godoc
// @Summary Submit today's student roll
// @Description Entries outside the teacher's grade are skipped; count reports stored entries
// @Tags Attendance
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body studentRollRequest true "Roll"
// @Success 200 {object} response.Envelope
// @Router /attendance/students [post]
func (h *AttendanceHandler) RecordStudents(c *gin.Context) {
	claims := claimsFromContext(c)
	if err := h.policy.StudentRoll(claims); err != nil {
		response.Error(c, err)
		return
	}

	var req studentRollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Validation(err, "invalid attendance payload"))
		return
	}

	result, err := h.service.RecordStudentAttendance(c.Request.Context(), req.Entries, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}

// ListStudents godoc
// @Summary Student roll for a day
// @Tags Attendance
// @Produce json
// @Security BearerAuth
// @Param grade query string true "Grade"
// @Param section query string true "Section"
// @Param date query string false "Day (YYYY-MM-DD), defaults to today"
// @Success 200 {object} response.Envelope
// @Router /attendance/students [get]
func (h *AttendanceHandler) ListStudents(c *gin.Context) {
	date, err := optionalDate(c, "date")
	if err != nil {
		response.Error(c, err)
		return
	}

	rows, err := h.service.ListStudentAttendance(c.Request.Context(), claimsFromContext(c), c.Query("grade"), c.Query("section"), date)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, rows, map[string]interface{}{"total": len(rows)})
}
