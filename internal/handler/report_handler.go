package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-attendance-api/internal/models"
	"github.com/noah-isme/sma-attendance-api/internal/service"
	"github.com/noah-isme/sma-attendance-api/pkg/response"
)

type reportService interface {
	StaffStats(ctx context.Context, actor *models.JWTClaims, filter models.StaffAttendanceFilter) (*models.StaffAttendanceStats, error)
	StudentStats(ctx context.Context, actor *models.JWTClaims, grade, section string, date *time.Time) (*models.StudentAttendanceStats, error)
	ExportStaffAttendance(ctx context.Context, actor *models.JWTClaims, filter models.StaffAttendanceFilter, format string) (*service.ExportFile, error)
}

// ReportHandler serves attendance statistics and exports.
type ReportHandler struct {
	service reportService
}

// NewReportHandler constructs a ReportHandler.
func NewReportHandler(svc reportService) *ReportHandler {
	return &ReportHandler{service: svc}
}

// StaffStats godoc
// @Summary Staff attendance counts by status
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Param date query string false "Day (YYYY-MM-DD)"
// @Param from query string false "Range start"
// @Param to query string false "Range end"
// @Success 200 {object} response.Envelope
// @Router /attendance/employees/stats [get]
func (h *ReportHandler) StaffStats(c *gin.Context) {
	filter, err := staffFilterFromQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	stats, err := h.service.StaffStats(c.Request.Context(), claimsFromContext(c), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, stats)
}

// StudentStats godoc
// @Summary Student roll summary
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Param grade query string true "Grade"
// @Param section query string true "Section"
// @Param date query string false "Day (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /attendance/students/stats [get]
func (h *ReportHandler) StudentStats(c *gin.Context) {
	date, err := optionalDate(c, "date")
	if err != nil {
		response.Error(c, err)
		return
	}

	stats, err := h.service.StudentStats(c.Request.Context(), claimsFromContext(c), c.Query("grade"), c.Query("section"), date)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, stats)
}

// Export godoc
// @Summary Export staff attendance
// @Tags Reports
// @Produce text/csv
// @Produce application/pdf
// @Security BearerAuth
// @Param format query string false "csv or pdf"
// @Success 200 {file} binary
// @Router /attendance/employees/export [get]
func (h *ReportHandler) Export(c *gin.Context) {
	filter, err := staffFilterFromQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	file, err := h.service.ExportStaffAttendance(c.Request.Context(), claimsFromContext(c), filter, c.DefaultQuery("format", "csv"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.File(c, file.Filename, file.ContentType, file.Body)
}
