package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/sma-attendance-api/internal/models"
)

func TestClassifyStaffStatus(t *testing.T) {
	rules := NewAttendanceRules("09:05", "16:55")

	cases := []struct {
		name     string
		checkIn  *string
		checkOut *string
		want     models.StaffStatus
	}{
		{"on time", strPtr("08:30"), nil, models.StaffStatusPresent},
		{"at threshold", strPtr("09:05"), nil, models.StaffStatusPresent},
		{"late", strPtr("09:06"), nil, models.StaffStatusLate},
		{"late with seconds", strPtr("09:05:01"), nil, models.StaffStatusLate},
		{"left early", strPtr("08:00"), strPtr("16:54"), models.StaffStatusEarly},
		{"left on time", strPtr("08:00"), strPtr("16:55"), models.StaffStatusPresent},
		{"late stays late on early checkout", strPtr("09:30"), strPtr("15:00"), models.StaffStatusLate},
		{"missing check-in", nil, strPtr("17:00"), models.StaffStatusAbsent},
		{"malformed check-in", strPtr("nine"), nil, models.StaffStatusAbsent},
		{"malformed check-out ignored", strPtr("08:00"), strPtr("??"), models.StaffStatusPresent},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, rules.ClassifyStaffStatus(tc.checkIn, tc.checkOut))
		})
	}
}

func TestAttendanceRulesFallbackThresholds(t *testing.T) {
	rules := NewAttendanceRules("bogus", "")
	assert.Equal(t, models.StaffStatusLate, rules.ClassifyStaffStatus(strPtr("09:10"), nil))
	assert.Equal(t, models.StaffStatusEarly, rules.ClassifyStaffStatus(strPtr("08:00"), strPtr("16:00")))
}

func TestAttendanceRulesCustomThresholds(t *testing.T) {
	rules := NewAttendanceRules("07:30", "15:00")
	assert.Equal(t, models.StaffStatusLate, rules.ClassifyStaffStatus(strPtr("07:31"), nil))
	assert.Equal(t, models.StaffStatusPresent, rules.ClassifyStaffStatus(strPtr("07:00"), strPtr("15:30")))
}
