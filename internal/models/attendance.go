package models

import "time"

// StaffStatus is the classification label of a staff attendance day.
type StaffStatus string

const (
	StaffStatusPresent StaffStatus = "Present"
	StaffStatusAbsent  StaffStatus = "Absent"
	StaffStatusLate    StaffStatus = "Late"
	StaffStatusEarly   StaffStatus = "Early"
	StaffStatusLeave   StaffStatus = "Leave"
)

// Valid returns true when the status is a supported value.
func (s StaffStatus) Valid() bool {
	switch s {
	case StaffStatusPresent, StaffStatusAbsent, StaffStatusLate, StaffStatusEarly, StaffStatusLeave:
		return true
	default:
		return false
	}
}

// AttendanceAction selects the transition applied by a staff scan.
type AttendanceAction string

const (
	ActionCheckIn  AttendanceAction = "checkin"
	ActionCheckOut AttendanceAction = "checkout"
	ActionAuto     AttendanceAction = "auto"
)

// Valid returns true for the supported actions.
func (a AttendanceAction) Valid() bool {
	return a == ActionCheckIn || a == ActionCheckOut || a == ActionAuto
}

// StaffAttendance is one row of staff_attendance. CheckIn and CheckOut hold
// wall-clock times formatted as HH:MM.
type StaffAttendance struct {
	ID         string      `db:"id" json:"id"`
	AccountID  string      `db:"account_id" json:"account_id"`
	Date       time.Time   `db:"date" json:"date"`
	CheckIn    *string     `db:"check_in" json:"check_in"`
	CheckOut   *string     `db:"check_out" json:"check_out"`
	Status     StaffStatus `db:"status" json:"status"`
	Remarks    string      `db:"remarks" json:"remarks,omitempty"`
	RecordedBy *string     `db:"recorded_by" json:"recorded_by,omitempty"`
	RecordedAt time.Time   `db:"recorded_at" json:"recorded_at"`
}

// HasCheckIn reports whether a check-in time is set.
func (s *StaffAttendance) HasCheckIn() bool {
	return s != nil && s.CheckIn != nil && *s.CheckIn != ""
}

// HasCheckOut reports whether a check-out time is set.
func (s *StaffAttendance) HasCheckOut() bool {
	return s != nil && s.CheckOut != nil && *s.CheckOut != ""
}

// StaffAttendanceRecord joins the attendance row with account metadata.
type StaffAttendanceRecord struct {
	StaffAttendance
	Name         string  `db:"name" json:"name"`
	TeacherGrade *string `db:"teacher_grade" json:"teacher_grade,omitempty"`
}

// StaffTransition is the result of applying an action to a staff day. Action
// is the resolved transition, never auto.
type StaffTransition struct {
	Action  AttendanceAction
	Changed bool
	Record  *StaffAttendanceRecord
}

// StaffAttendanceFilter scopes staff attendance listings.
type StaffAttendanceFilter struct {
	AccountID string
	Date      *time.Time
	DateFrom  *time.Time
	DateTo    *time.Time
	Grade     string
	Limit     int
}

// StaffAttendanceStats counts staff attendance rows by status.
type StaffAttendanceStats struct {
	Present     int     `json:"Present"`
	Absent      int     `json:"Absent"`
	Late        int     `json:"Late"`
	Early       int     `json:"Early"`
	Leave       int     `json:"Leave"`
	Total       int     `json:"total"`
	PresentRate float64 `json:"present_rate"`
}

// StudentAttendance is one row of student_attendance.
type StudentAttendance struct {
	ID         string    `db:"id" json:"id"`
	StudentID  string    `db:"student_id" json:"student_id"`
	Date       time.Time `db:"date" json:"date"`
	Present    bool      `db:"present" json:"present"`
	RecordedBy *string   `db:"recorded_by" json:"recorded_by,omitempty"`
	RecordedAt time.Time `db:"recorded_at" json:"recorded_at"`
}

// StudentAttendanceEntry is one line of a teacher-submitted roll.
type StudentAttendanceEntry struct {
	StudentID string `json:"student_id" validate:"required"`
	Present   *bool  `json:"present" validate:"required"`
}

// StudentRollResult reports a roll submission. Recorded is the success count;
// entries outside the teacher's grade or failing to persist are Skipped.
type StudentRollResult struct {
	Date      string `json:"date"`
	Submitted int    `json:"submitted"`
	Recorded  int    `json:"count"`
	Skipped   int    `json:"skipped"`
}

// StudentRollRow is a roster line joined with the day's attendance, if taken.
type StudentRollRow struct {
	ID         string     `db:"id" json:"id"`
	StudentID  string     `db:"student_id" json:"student_id"`
	Name       string     `db:"name" json:"name"`
	Grade      string     `db:"grade" json:"grade"`
	Section    string     `db:"section" json:"section"`
	Present    *bool      `db:"present" json:"present"`
	RecordedAt *time.Time `db:"recorded_at" json:"recorded_at,omitempty"`
}

// StudentAttendanceStats summarises a roster for one day.
type StudentAttendanceStats struct {
	Date        string  `json:"date"`
	Total       int     `json:"total"`
	Present     int     `json:"present"`
	Absent      int     `json:"absent"`
	Unmarked    int     `json:"unmarked"`
	PresentRate float64 `json:"present_rate"`
}
