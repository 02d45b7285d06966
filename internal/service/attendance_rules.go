package service

import (
	"strings"
	"time"

	"github.com/noah-isme/sma-attendance-api/internal/models"
)

var clockLayouts = []string{"15:04", "15:04:05"}

// AttendanceRules classifies staff days against the school thresholds.
type AttendanceRules struct {
	late  time.Duration
	early time.Duration
}

// NewAttendanceRules parses HH:MM thresholds. Unparseable values fall back to
// 09:05 and 16:55.
func NewAttendanceRules(lateThreshold, earlyThreshold string) AttendanceRules {
	late, ok := parseClock(lateThreshold)
	if !ok {
		late = 9*time.Hour + 5*time.Minute
	}
	early, ok := parseClock(earlyThreshold)
	if !ok {
		early = 16*time.Hour + 55*time.Minute
	}
	return AttendanceRules{late: late, early: early}
}

// ClassifyStaffStatus derives the day status from check-in and check-out
// times. A missing or malformed check-in yields Absent; a malformed
// check-out is ignored.
func (r AttendanceRules) ClassifyStaffStatus(checkIn, checkOut *string) models.StaffStatus {
	if checkIn == nil {
		return models.StaffStatusAbsent
	}
	in, ok := parseClock(*checkIn)
	if !ok {
		return models.StaffStatusAbsent
	}

	status := models.StaffStatusPresent
	if in > r.late {
		status = models.StaffStatusLate
	}

	if checkOut != nil && status == models.StaffStatusPresent {
		if out, ok := parseClock(*checkOut); ok && out < r.early {
			status = models.StaffStatusEarly
		}
	}
	return status
}

// parseClock converts "HH:MM" or "HH:MM:SS" into an offset from midnight.
func parseClock(raw string) (time.Duration, bool) {
	raw = strings.TrimSpace(raw)
	for _, layout := range clockLayouts {
		t, err := time.Parse(layout, raw)
		if err == nil {
			return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute + time.Duration(t.Second())*time.Second, true
		}
	}
	return 0, false
}

func clockString(t time.Time) string {
	return t.Format("15:04")
}

// schoolDate truncates t to midnight in loc, keeping loc.
func schoolDate(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}
