package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-attendance-api/internal/models"
	appErrors "github.com/noah-isme/sma-attendance-api/pkg/errors"
)

type attendanceFixture struct {
	svc      *AttendanceService
	staff    *fakeStaffStore
	students *fakeStudentRepo
	rolls    *fakeRollRepo
	accounts *fakeAccountRepo
	metrics  *fakeMetrics
}

func newAttendanceFixture(t *testing.T, clock string) *attendanceFixture {
	t.Helper()
	accounts := newFakeAccountRepo(
		&models.Account{ID: "t-1", Role: models.RoleTeacher, Name: "Ani", Grade: strPtr("10"), Active: true},
		&models.Account{ID: "admin-1", Role: models.RoleAdmin, Name: "Admin", Active: true},
	)
	staff := newFakeStaffStore()
	staff.names["t-1"] = "Ani"
	students := &fakeStudentRepo{students: map[string]*models.Student{
		"s-1": {ID: "s-1", Grade: "10", Section: "A"},
		"s-2": {ID: "s-2", Grade: "10", Section: "A"},
		"s-3": {ID: "s-3", Grade: "11", Section: "A"},
	}}
	rolls := &fakeRollRepo{failFor: map[string]error{}}
	metrics := &fakeMetrics{}

	svc := NewAttendanceService(staff, students, rolls, accounts, NewAccessPolicy(accounts), AttendanceConfig{
		Location:       time.UTC,
		LateThreshold:  "09:05",
		EarlyThreshold: "16:55",
	}, nil, metrics, zap.NewNop())
	setClock(t, svc, clock)

	return &attendanceFixture{svc: svc, staff: staff, students: students, rolls: rolls, accounts: accounts, metrics: metrics}
}

func setClock(t *testing.T, svc *AttendanceService, clock string) {
	t.Helper()
	ts, err := time.Parse("2006-01-02 15:04", "2024-03-04 "+clock)
	require.NoError(t, err)
	svc.now = func() time.Time { return ts }
}

func TestRecordStaffAttendanceCheckIn(t *testing.T) {
	f := newAttendanceFixture(t, "08:30")

	record, err := f.svc.RecordStaffAttendance(context.Background(), "t-1", models.ActionCheckIn)
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, "08:30", *record.CheckIn)
	assert.Equal(t, models.StaffStatusPresent, record.Status)
	assert.Equal(t, "Recorded via system", record.Remarks)
	assert.Equal(t, "Ani", record.Name)
	assert.Equal(t, 1, f.staff.commits)
	assert.Equal(t, []models.StaffStatus{models.StaffStatusPresent}, f.metrics.transitions)
}

func TestRecordStaffAttendanceLateCheckIn(t *testing.T) {
	f := newAttendanceFixture(t, "09:20")

	record, err := f.svc.RecordStaffAttendance(context.Background(), "t-1", models.ActionAuto)
	require.NoError(t, err)
	assert.Equal(t, models.StaffStatusLate, record.Status)
}

func TestRecordStaffAttendanceRepeatedCheckInIsNoop(t *testing.T) {
	f := newAttendanceFixture(t, "08:00")
	_, err := f.svc.RecordStaffAttendance(context.Background(), "t-1", models.ActionCheckIn)
	require.NoError(t, err)

	setClock(t, f.svc, "10:00")
	record, err := f.svc.RecordStaffAttendance(context.Background(), "t-1", models.ActionCheckIn)
	require.NoError(t, err)
	assert.Equal(t, "08:00", *record.CheckIn)
	assert.Equal(t, models.StaffStatusPresent, record.Status)
	assert.Len(t, f.metrics.transitions, 1)
}

func TestRecordStaffAttendanceAutoChecksOutEarly(t *testing.T) {
	f := newAttendanceFixture(t, "08:00")
	_, err := f.svc.RecordStaffAttendance(context.Background(), "t-1", models.ActionAuto)
	require.NoError(t, err)

	setClock(t, f.svc, "15:30")
	record, err := f.svc.RecordStaffAttendance(context.Background(), "t-1", models.ActionAuto)
	require.NoError(t, err)
	require.True(t, record.HasCheckOut())
	assert.Equal(t, "15:30", *record.CheckOut)
	assert.Equal(t, models.StaffStatusEarly, record.Status)
}

func TestRecordStaffAttendanceLateStaysLateOnCheckout(t *testing.T) {
	f := newAttendanceFixture(t, "09:30")
	_, err := f.svc.RecordStaffAttendance(context.Background(), "t-1", models.ActionCheckIn)
	require.NoError(t, err)

	setClock(t, f.svc, "14:00")
	record, err := f.svc.RecordStaffAttendance(context.Background(), "t-1", models.ActionCheckOut)
	require.NoError(t, err)
	assert.Equal(t, models.StaffStatusLate, record.Status)
}

func TestRecordStaffAttendanceCheckoutWithoutCheckIn(t *testing.T) {
	f := newAttendanceFixture(t, "17:00")

	record, err := f.svc.RecordStaffAttendance(context.Background(), "t-1", models.ActionCheckOut)
	assert.Nil(t, record)
	assert.ErrorIs(t, err, appErrors.ErrNoCheckIn)
	assert.Equal(t, 0, f.staff.commits)
	assert.Equal(t, 1, f.staff.rollbacks)
	assert.Empty(t, f.staff.rows)
}

func TestRecordStaffAttendanceAutoAfterCheckoutIsNoop(t *testing.T) {
	f := newAttendanceFixture(t, "08:00")
	_, err := f.svc.RecordStaffAttendance(context.Background(), "t-1", models.ActionAuto)
	require.NoError(t, err)
	setClock(t, f.svc, "17:00")
	_, err = f.svc.RecordStaffAttendance(context.Background(), "t-1", models.ActionAuto)
	require.NoError(t, err)

	setClock(t, f.svc, "17:30")
	record, err := f.svc.RecordStaffAttendance(context.Background(), "t-1", models.ActionAuto)
	require.NoError(t, err)
	assert.Equal(t, "17:00", *record.CheckOut)
	assert.Equal(t, models.StaffStatusPresent, record.Status)
	assert.Len(t, f.metrics.transitions, 2)
}

func TestRecordStaffAttendanceLostInsertRace(t *testing.T) {
	f := newAttendanceFixture(t, "08:10")
	f.staff.raceOnInsert = true

	record, err := f.svc.RecordStaffAttendance(context.Background(), "t-1", models.ActionCheckIn)
	require.NoError(t, err)
	assert.Equal(t, "raced", record.ID)
	assert.Equal(t, "07:00", *record.CheckIn)
	assert.Empty(t, f.metrics.transitions)
}

func TestRecordStaffAttendanceRollsBackOnFailure(t *testing.T) {
	f := newAttendanceFixture(t, "08:00")
	_, err := f.svc.RecordStaffAttendance(context.Background(), "t-1", models.ActionCheckIn)
	require.NoError(t, err)

	f.staff.failSet = errors.New("db down")
	setClock(t, f.svc, "17:00")
	_, err = f.svc.RecordStaffAttendance(context.Background(), "t-1", models.ActionCheckOut)
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrInternal)
	assert.Equal(t, 1, f.staff.rollbacks)
}

func TestRecordStaffAttendanceInvalidAction(t *testing.T) {
	f := newAttendanceFixture(t, "08:00")
	_, err := f.svc.RecordStaffAttendance(context.Background(), "t-1", models.AttendanceAction("teleport"))
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestRecordStudentAttendancePartialSuccess(t *testing.T) {
	f := newAttendanceFixture(t, "08:00")
	f.rolls.failFor["s-2"] = errors.New("constraint")

	result, err := f.svc.RecordStudentAttendance(context.Background(), []models.StudentAttendanceEntry{
		{StudentID: "s-1", Present: boolPtr(true)},
		{StudentID: "s-2", Present: boolPtr(false)},
		{StudentID: "s-3", Present: boolPtr(true)},
		{StudentID: "missing", Present: boolPtr(true)},
	}, "t-1")
	require.NoError(t, err)
	assert.Equal(t, 4, result.Submitted)
	assert.Equal(t, 1, result.Recorded)
	assert.Equal(t, 3, result.Skipped)
	assert.Equal(t, "2024-03-04", result.Date)
	require.Len(t, f.rolls.upserts, 1)
	assert.Equal(t, "s-1", f.rolls.upserts[0].StudentID)
	assert.Equal(t, "t-1", *f.rolls.upserts[0].RecordedBy)
	assert.Equal(t, 1, f.metrics.recorded)
}

func TestRecordStudentAttendanceUnknownTeacher(t *testing.T) {
	f := newAttendanceFixture(t, "08:00")

	result, err := f.svc.RecordStudentAttendance(context.Background(), []models.StudentAttendanceEntry{
		{StudentID: "s-1", Present: boolPtr(true)},
	}, "ghost")
	require.NoError(t, err)
	assert.Equal(t, 0, result.Recorded)
	assert.Empty(t, f.rolls.upserts)
}

func TestListStaffAttendancePinsTeacher(t *testing.T) {
	f := newAttendanceFixture(t, "08:00")

	_, err := f.svc.ListStaffAttendance(context.Background(), teacherClaims("t-1"), models.StaffAttendanceFilter{AccountID: "t-2", Grade: "11"})
	require.NoError(t, err)
	assert.Equal(t, "t-1", f.staff.listFilter.AccountID)
	assert.Empty(t, f.staff.listFilter.Grade)

	_, err = f.svc.ListStaffAttendance(context.Background(), adminClaims("admin-1"), models.StaffAttendanceFilter{Grade: "11"})
	require.NoError(t, err)
	assert.Equal(t, "11", f.staff.listFilter.Grade)
	assert.Empty(t, f.staff.listFilter.AccountID)
}

func TestListStudentAttendanceOtherGradeEmpty(t *testing.T) {
	f := newAttendanceFixture(t, "08:00")
	f.rolls.rows = []models.StudentRollRow{{ID: "s-3"}}

	rows, err := f.svc.ListStudentAttendance(context.Background(), teacherClaims("t-1"), "11", "A", nil)
	require.NoError(t, err)
	assert.Empty(t, rows)

	rows, err = f.svc.ListStudentAttendance(context.Background(), adminClaims("admin-1"), "11", "A", nil)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestSetStaffStatus(t *testing.T) {
	f := newAttendanceFixture(t, "08:00")

	record, err := f.svc.SetStaffStatus(context.Background(), adminClaims("admin-1"), "t-1", SetStaffStatusRequest{Status: models.StaffStatusLeave, Remarks: "sick"})
	require.NoError(t, err)
	assert.Equal(t, models.StaffStatusLeave, record.Status)
	assert.Equal(t, "admin-1", *f.staff.upserted.RecordedBy)

	_, err = f.svc.SetStaffStatus(context.Background(), teacherClaims("t-1"), "t-1", SetStaffStatusRequest{Status: models.StaffStatusLeave})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	_, err = f.svc.SetStaffStatus(context.Background(), adminClaims("admin-1"), "admin-1", SetStaffStatusRequest{Status: models.StaffStatusLeave})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	_, err = f.svc.SetStaffStatus(context.Background(), adminClaims("admin-1"), "t-1", SetStaffStatusRequest{Status: "Holiday"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestCloseDayMarksOnlyUnrecordedTeachers(t *testing.T) {
	f := newAttendanceFixture(t, "08:00")
	f.staff.active = []string{"t-1", "t-2"}

	_, err := f.svc.RecordStaffAttendance(context.Background(), "t-1", models.ActionCheckIn)
	require.NoError(t, err)

	marked, err := f.svc.CloseDay(context.Background(), f.svc.Today())
	require.NoError(t, err)
	assert.Equal(t, 1, marked)

	absent := f.staff.rows[staffKey("t-2", f.svc.Today())]
	require.NotNil(t, absent)
	assert.Equal(t, models.StaffStatusAbsent, absent.Status)
	assert.Equal(t, models.StaffStatusPresent, f.staff.rows[staffKey("t-1", f.svc.Today())].Status)

	marked, err = f.svc.CloseDay(context.Background(), f.svc.Today())
	require.NoError(t, err)
	assert.Zero(t, marked)
}

func TestRecordStaffAttendanceRejectsInactiveAccount(t *testing.T) {
	f := newAttendanceFixture(t, "08:00")
	f.accounts.accounts["t-1"].Active = false

	record, err := f.svc.RecordStaffAttendance(context.Background(), "t-1", models.ActionCheckIn)
	assert.Nil(t, record)
	assert.ErrorIs(t, err, appErrors.ErrInactiveAccount)
	assert.Empty(t, f.staff.rows)
	assert.Empty(t, f.metrics.transitions)
}

func TestRecordStaffAttendanceRejectsNonTeachers(t *testing.T) {
	f := newAttendanceFixture(t, "08:00")

	_, err := f.svc.RecordStaffAttendance(context.Background(), "admin-1", models.ActionCheckIn)
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	_, err = f.svc.RecordStaffAttendance(context.Background(), "ghost", models.ActionCheckIn)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
	assert.Empty(t, f.staff.rows)
}

func TestApplyStaffTransitionReportsResolvedAction(t *testing.T) {
	f := newAttendanceFixture(t, "08:00")

	transition, err := f.svc.ApplyStaffTransition(context.Background(), "t-1", models.ActionAuto)
	require.NoError(t, err)
	assert.Equal(t, models.ActionCheckIn, transition.Action)
	assert.True(t, transition.Changed)

	setClock(t, f.svc, "09:00")
	transition, err = f.svc.ApplyStaffTransition(context.Background(), "t-1", models.ActionCheckIn)
	require.NoError(t, err)
	assert.Equal(t, models.ActionCheckIn, transition.Action)
	assert.False(t, transition.Changed)
	assert.Equal(t, "08:00", *transition.Record.CheckIn)
}

func TestRecordStudentAttendanceResubmissionKeepsLatest(t *testing.T) {
	f := newAttendanceFixture(t, "08:00")

	result, err := f.svc.RecordStudentAttendance(context.Background(), []models.StudentAttendanceEntry{
		{StudentID: "s-1", Present: boolPtr(true)},
	}, "t-1")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Recorded)

	setClock(t, f.svc, "10:00")
	result, err = f.svc.RecordStudentAttendance(context.Background(), []models.StudentAttendanceEntry{
		{StudentID: "s-1", Present: boolPtr(false)},
	}, "t-1")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Recorded)

	require.Len(t, f.rolls.stored, 1)
	row := f.rolls.stored[rollKey("s-1", f.svc.Today())]
	require.NotNil(t, row)
	assert.False(t, row.Present)
}
