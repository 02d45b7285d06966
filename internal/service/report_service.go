package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-attendance-api/internal/models"
	appErrors "github.com/noah-isme/sma-attendance-api/pkg/errors"
	"github.com/noah-isme/sma-attendance-api/pkg/export"
)

type staffStatsRepository interface {
	CountByStatus(ctx context.Context, filter models.StaffAttendanceFilter) (map[models.StaffStatus]int, error)
	List(ctx context.Context, filter models.StaffAttendanceFilter) ([]models.StaffAttendanceRecord, error)
}

type rollReader interface {
	ListRoll(ctx context.Context, filter models.RosterFilter, date time.Time) ([]models.StudentRollRow, error)
}

type reportExporter interface {
	ContentType() string
	Extension() string
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportFile is a rendered report ready for download.
type ExportFile struct {
	Filename    string
	ContentType string
	Body        []byte
}

// ReportService aggregates attendance for dashboards and exports.
type ReportService struct {
	staff     staffStatsRepository
	rolls     rollReader
	policy    *AccessPolicy
	exporters map[string]reportExporter
	location  *time.Location
	logger    *zap.Logger
	now       func() time.Time
}

// NewReportService constructs a ReportService.
func NewReportService(staff staffStatsRepository, rolls rollReader, policy *AccessPolicy, location *time.Location, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if location == nil {
		location = time.Local
	}
	return &ReportService{
		staff:  staff,
		rolls:  rolls,
		policy: policy,
		exporters: map[string]reportExporter{
			"csv": export.NewCSVExporter(),
			"pdf": export.NewPDFExporter(),
		},
		location: location,
		logger:   logger,
		now:      time.Now,
	}
}

// StaffStats counts teacher attendance by status within actor's scope.
func (s *ReportService) StaffStats(ctx context.Context, actor *models.JWTClaims, filter models.StaffAttendanceFilter) (*models.StaffAttendanceStats, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	filter = s.policy.AttendanceScope(actor, filter)
	counts, err := s.staff.CountByStatus(ctx, filter)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to compute attendance stats")
	}

	stats := &models.StaffAttendanceStats{
		Present: counts[models.StaffStatusPresent],
		Absent:  counts[models.StaffStatusAbsent],
		Late:    counts[models.StaffStatusLate],
		Early:   counts[models.StaffStatusEarly],
		Leave:   counts[models.StaffStatusLeave],
	}
	stats.Total = stats.Present + stats.Absent + stats.Late + stats.Early + stats.Leave
	if stats.Total > 0 {
		stats.PresentRate = float64(stats.Present+stats.Late+stats.Early) / float64(stats.Total)
	}
	return stats, nil
}

// StudentStats summarises a roster's attendance for one day.
func (s *ReportService) StudentStats(ctx context.Context, actor *models.JWTClaims, grade, section string, date *time.Time) (*models.StudentAttendanceStats, error) {
	if grade == "" || section == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "grade and section are required")
	}
	day := schoolDate(s.now(), s.location)
	if date != nil {
		day = *date
	}
	stats := &models.StudentAttendanceStats{Date: day.Format("2006-01-02")}

	allowed, err := s.policy.RosterRead(ctx, actor, grade)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return stats, nil
	}

	rows, err := s.rolls.ListRoll(ctx, models.RosterFilter{Grade: grade, Section: section}, day)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to compute student stats")
	}
	for _, row := range rows {
		stats.Total++
		switch {
		case row.Present == nil:
			stats.Unmarked++
		case *row.Present:
			stats.Present++
		default:
			stats.Absent++
		}
	}
	if stats.Total > 0 {
		stats.PresentRate = float64(stats.Present) / float64(stats.Total)
	}
	return stats, nil
}

// ExportStaffAttendance renders staff attendance as CSV or PDF.
func (s *ReportService) ExportStaffAttendance(ctx context.Context, actor *models.JWTClaims, filter models.StaffAttendanceFilter, format string) (*ExportFile, error) {
	if err := s.policy.Admin(actor); err != nil {
		return nil, err
	}
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = "csv"
	}
	exporter, ok := s.exporters[format]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}

	if filter.Limit <= 0 {
		filter.Limit = 500
	}
	records, err := s.staff.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load attendance")
	}

	dataset := export.Dataset{
		Headers: []string{"Date", "Name", "Grade", "Check In", "Check Out", "Status", "Remarks"},
		Rows:    make([]map[string]string, 0, len(records)),
	}
	for _, record := range records {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Date":      record.Date.Format("2006-01-02"),
			"Name":      record.Name,
			"Grade":     deref(record.TeacherGrade),
			"Check In":  deref(record.CheckIn),
			"Check Out": deref(record.CheckOut),
			"Status":    string(record.Status),
			"Remarks":   record.Remarks,
		})
	}

	generated := s.now().In(s.location)
	body, err := exporter.Render(dataset, "Staff Attendance Report")
	if err != nil {
		return nil, appErrors.Internal(err, "failed to render report")
	}

	s.logger.Info("staff attendance exported", zap.String("format", format), zap.Int("rows", len(records)))
	return &ExportFile{
		Filename:    fmt.Sprintf("staff-attendance-%s.%s", generated.Format("20060102-1504"), exporter.Extension()),
		ContentType: exporter.ContentType(),
		Body:        body,
	}, nil
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
