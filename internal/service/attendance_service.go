package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-attendance-api/internal/models"
	"github.com/noah-isme/sma-attendance-api/internal/repository"
	appErrors "github.com/noah-isme/sma-attendance-api/pkg/errors"
)

const (
	systemRemarks  = "Recorded via system"
	absenceRemarks = "No check-in recorded"
)

type staffAttendanceRepository interface {
	Begin(ctx context.Context) (repository.StaffDayTx, error)
	FindRecord(ctx context.Context, accountID string, date time.Time) (*models.StaffAttendanceRecord, error)
	List(ctx context.Context, filter models.StaffAttendanceFilter) ([]models.StaffAttendanceRecord, error)
	UpsertStatus(ctx context.Context, record *models.StaffAttendance) error
	MarkAbsent(ctx context.Context, date time.Time, remarks string) (int, error)
}

type studentAttendanceRepository interface {
	Upsert(ctx context.Context, record *models.StudentAttendance) (*models.StudentAttendance, error)
	ListRoll(ctx context.Context, filter models.RosterFilter, date time.Time) ([]models.StudentRollRow, error)
}

type studentLookup interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type attendanceMetrics interface {
	RecordTransition(action models.AttendanceAction, status models.StaffStatus)
	RecordStudentRoll(recorded, skipped int)
}

// AttendanceConfig configures the attendance engine.
type AttendanceConfig struct {
	Location       *time.Location
	LateThreshold  string
	EarlyThreshold string
}

// SetStaffStatusRequest is the admin payload for a manual status.
type SetStaffStatusRequest struct {
	Date    string             `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Status  models.StaffStatus `json:"status" validate:"required,oneof=Present Absent Late Early Leave"`
	Remarks string             `json:"remarks" validate:"max=255"`
}

// AttendanceService records staff check-ins and student rolls.
type AttendanceService struct {
	staff     staffAttendanceRepository
	students  studentLookup
	rolls     studentAttendanceRepository
	accounts  accountLookup
	policy    *AccessPolicy
	rules     AttendanceRules
	location  *time.Location
	validator *validator.Validate
	metrics   attendanceMetrics
	logger    *zap.Logger
	now       func() time.Time
}

// NewAttendanceService constructs an AttendanceService.
func NewAttendanceService(
	staff staffAttendanceRepository,
	students studentLookup,
	rolls studentAttendanceRepository,
	accounts accountLookup,
	policy *AccessPolicy,
	cfg AttendanceConfig,
	validate *validator.Validate,
	metrics attendanceMetrics,
	logger *zap.Logger,
) *AttendanceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	return &AttendanceService{
		staff:     staff,
		students:  students,
		rolls:     rolls,
		accounts:  accounts,
		policy:    policy,
		rules:     NewAttendanceRules(cfg.LateThreshold, cfg.EarlyThreshold),
		location:  loc,
		validator: validate,
		metrics:   metrics,
		logger:    logger,
		now:       time.Now,
	}
}

// Today returns the current school-local date.
func (s *AttendanceService) Today() time.Time {
	return schoolDate(s.now(), s.location)
}

// RecordStaffAttendance applies a check-in/check-out transition for the
// current day and returns the resulting record.
func (s *AttendanceService) RecordStaffAttendance(ctx context.Context, accountID string, action models.AttendanceAction) (*models.StaffAttendanceRecord, error) {
	transition, err := s.ApplyStaffTransition(ctx, accountID, action)
	if err != nil {
		return nil, err
	}
	return transition.Record, nil
}

// ApplyStaffTransition resolves action against today's row for an active
// teacher and reports whether the row changed.
func (s *AttendanceService) ApplyStaffTransition(ctx context.Context, accountID string, action models.AttendanceAction) (*models.StaffTransition, error) {
	if !action.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "action must be one of checkin, checkout, auto")
	}
	if err := s.requireActiveTeacher(ctx, accountID); err != nil {
		return nil, err
	}

	now := s.now().In(s.location)
	today := schoolDate(now, s.location)
	clock := clockString(now)

	tx, err := s.staff.Begin(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to start attendance transaction")
	}
	defer func() {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.Warn("attendance rollback failed", zap.Error(rbErr))
		}
	}()

	existing, err := tx.FindForUpdate(ctx, accountID, today)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load attendance")
	}

	resolved := action
	dayClosed := false
	if action == models.ActionAuto {
		resolved = models.ActionCheckIn
		if existing.HasCheckIn() {
			resolved = models.ActionCheckOut
			dayClosed = existing.HasCheckOut()
		}
	}

	var status models.StaffStatus
	changed := false
	switch {
	case dayClosed:
		// an auto scan after check-out leaves the day as it is
	case resolved == models.ActionCheckIn:
		switch {
		case existing == nil:
			status = s.rules.ClassifyStaffStatus(&clock, nil)
			inserted, err := tx.Insert(ctx, &models.StaffAttendance{
				AccountID:  accountID,
				Date:       today,
				CheckIn:    &clock,
				Status:     status,
				Remarks:    systemRemarks,
				RecordedBy: &accountID,
			})
			if err != nil {
				return nil, appErrors.Internal(err, "failed to record check-in")
			}
			changed = inserted
		case !existing.HasCheckIn():
			status = s.rules.ClassifyStaffStatus(&clock, existing.CheckOut)
			if err := tx.SetCheckIn(ctx, existing.ID, clock, status, systemRemarks); err != nil {
				return nil, appErrors.Internal(err, "failed to record check-in")
			}
			changed = true
		}
	case resolved == models.ActionCheckOut:
		if !existing.HasCheckIn() {
			return nil, appErrors.ErrNoCheckIn
		}
		status = s.rules.ClassifyStaffStatus(existing.CheckIn, &clock)
		if err := tx.SetCheckOut(ctx, existing.ID, clock, status); err != nil {
			return nil, appErrors.Internal(err, "failed to record check-out")
		}
		changed = true
	}

	if err := tx.Commit(); err != nil {
		return nil, appErrors.Internal(err, "failed to save attendance")
	}

	if changed {
		s.logger.Info("staff attendance recorded",
			zap.String("account_id", accountID),
			zap.String("action", string(resolved)),
			zap.String("status", string(status)),
			zap.String("time", clock),
		)
		if s.metrics != nil {
			s.metrics.RecordTransition(resolved, status)
		}
	}

	record, err := s.currentRecord(ctx, accountID, today)
	if err != nil {
		return nil, err
	}
	return &models.StaffTransition{Action: resolved, Changed: changed, Record: record}, nil
}

func (s *AttendanceService) requireActiveTeacher(ctx context.Context, accountID string) error {
	account, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "account not found")
		}
		return appErrors.Internal(err, "failed to load account")
	}
	if !account.Active {
		return appErrors.ErrInactiveAccount
	}
	if account.Role != models.RoleTeacher {
		return appErrors.Clone(appErrors.ErrForbidden, "only teachers record staff attendance")
	}
	return nil
}

// CurrentStaffRecord returns today's record for accountID, or nil.
func (s *AttendanceService) CurrentStaffRecord(ctx context.Context, accountID string) (*models.StaffAttendanceRecord, error) {
	return s.currentRecord(ctx, accountID, s.Today())
}

func (s *AttendanceService) currentRecord(ctx context.Context, accountID string, day time.Time) (*models.StaffAttendanceRecord, error) {
	record, err := s.staff.FindRecord(ctx, accountID, day)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, appErrors.Internal(err, "failed to load attendance")
	}
	return record, nil
}

// RecordStudentAttendance stores today's roll submitted by a teacher. Entries
// for unknown students or students outside the teacher's grade are skipped,
// as are entries that fail to persist.
func (s *AttendanceService) RecordStudentAttendance(ctx context.Context, entries []models.StudentAttendanceEntry, teacherID string) (*models.StudentRollResult, error) {
	today := s.Today()
	result := &models.StudentRollResult{Date: today.Format("2006-01-02"), Submitted: len(entries)}

	teacher, err := s.accounts.FindByID(ctx, teacherID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			result.Skipped = len(entries)
			return result, nil
		}
		return nil, appErrors.Internal(err, "failed to load teacher")
	}
	grade := teacher.GradeValue()

	for _, entry := range entries {
		if entry.StudentID == "" || entry.Present == nil {
			result.Skipped++
			continue
		}
		student, err := s.students.FindByID(ctx, entry.StudentID)
		if err != nil {
			if !errors.Is(err, sql.ErrNoRows) {
				s.logger.Warn("student lookup failed", zap.String("student_id", entry.StudentID), zap.Error(err))
			}
			result.Skipped++
			continue
		}
		if grade == "" || !sameGrade(student.Grade, grade) {
			result.Skipped++
			continue
		}
		if _, err := s.rolls.Upsert(ctx, &models.StudentAttendance{
			StudentID:  student.ID,
			Date:       today,
			Present:    *entry.Present,
			RecordedBy: &teacherID,
		}); err != nil {
			s.logger.Warn("student attendance upsert failed", zap.String("student_id", student.ID), zap.Error(err))
			result.Skipped++
			continue
		}
		result.Recorded++
	}

	s.logger.Info("student roll recorded",
		zap.String("teacher_id", teacherID),
		zap.Int("submitted", result.Submitted),
		zap.Int("recorded", result.Recorded),
		zap.Int("skipped", result.Skipped),
	)
	if s.metrics != nil {
		s.metrics.RecordStudentRoll(result.Recorded, result.Skipped)
	}
	return result, nil
}

// ListStaffAttendance returns teacher attendance visible to actor.
func (s *AttendanceService) ListStaffAttendance(ctx context.Context, actor *models.JWTClaims, filter models.StaffAttendanceFilter) ([]models.StaffAttendanceRecord, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	filter = s.policy.AttendanceScope(actor, filter)
	records, err := s.staff.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list attendance")
	}
	return records, nil
}

// ListStudentAttendance returns the roster of grade/section with the
// attendance taken on date. Teachers outside the grade get an empty list.
func (s *AttendanceService) ListStudentAttendance(ctx context.Context, actor *models.JWTClaims, grade, section string, date *time.Time) ([]models.StudentRollRow, error) {
	if grade == "" || section == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "grade and section are required")
	}
	allowed, err := s.policy.RosterRead(ctx, actor, grade)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return []models.StudentRollRow{}, nil
	}
	day := s.Today()
	if date != nil {
		day = *date
	}
	rows, err := s.rolls.ListRoll(ctx, models.RosterFilter{Grade: grade, Section: section}, day)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list student attendance")
	}
	return rows, nil
}

// SetStaffStatus lets an administrator assign a day status such as Leave.
func (s *AttendanceService) SetStaffStatus(ctx context.Context, actor *models.JWTClaims, accountID string, req SetStaffStatusRequest) (*models.StaffAttendanceRecord, error) {
	if err := s.policy.Admin(actor); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid status payload")
	}

	account, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Internal(err, "failed to load account")
	}
	if account.Role != models.RoleTeacher {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
	}

	day := s.Today()
	if req.Date != "" {
		parsed, err := time.ParseInLocation("2006-01-02", req.Date, s.location)
		if err != nil {
			return nil, appErrors.Validation(err, "invalid date")
		}
		day = parsed
	}

	recorder := actor.UserID
	if err := s.staff.UpsertStatus(ctx, &models.StaffAttendance{
		AccountID:  accountID,
		Date:       day,
		Status:     req.Status,
		Remarks:    req.Remarks,
		RecordedBy: &recorder,
	}); err != nil {
		return nil, appErrors.Internal(err, "failed to set attendance status")
	}

	s.logger.Info("staff status set",
		zap.String("account_id", accountID),
		zap.String("status", string(req.Status)),
		zap.String("by", recorder),
	)
	return s.currentRecord(ctx, accountID, day)
}

// CloseDay marks every active teacher without a record on day as Absent.
// Rows already present, including Leave, are left alone.
func (s *AttendanceService) CloseDay(ctx context.Context, day time.Time) (int, error) {
	marked, err := s.staff.MarkAbsent(ctx, day, absenceRemarks)
	if err != nil {
		return 0, appErrors.Internal(err, "failed to close attendance day")
	}
	s.logger.Info("attendance day closed", zap.String("date", day.Format("2006-01-02")), zap.Int("marked_absent", marked))
	return marked, nil
}
