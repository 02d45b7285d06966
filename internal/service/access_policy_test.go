package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-attendance-api/internal/models"
	appErrors "github.com/noah-isme/sma-attendance-api/pkg/errors"
)

func newPolicyFixture() *AccessPolicy {
	return NewAccessPolicy(newFakeAccountRepo(
		&models.Account{ID: "t-1", Role: models.RoleTeacher, Grade: strPtr("10")},
		&models.Account{ID: "t-2", Role: models.RoleTeacher},
		&models.Account{ID: "admin-1", Role: models.RoleAdmin},
	))
}

func TestAccessPolicyRosterRead(t *testing.T) {
	policy := newPolicyFixture()
	ctx := context.Background()

	ok, err := policy.RosterRead(ctx, adminClaims("admin-1"), "12")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = policy.RosterRead(ctx, teacherClaims("t-1"), "10")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = policy.RosterRead(ctx, teacherClaims("t-1"), "11")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = policy.RosterRead(ctx, teacherClaims("t-2"), "10")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = policy.RosterRead(ctx, nil, "10")
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

func TestAccessPolicyRosterWrite(t *testing.T) {
	policy := newPolicyFixture()
	ctx := context.Background()

	assert.NoError(t, policy.RosterWrite(ctx, adminClaims("admin-1"), "12"))
	assert.NoError(t, policy.RosterWrite(ctx, teacherClaims("t-1"), "10"))

	err := policy.RosterWrite(ctx, teacherClaims("t-1"), "11")
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
	assert.Equal(t, "you can only add students to your assigned grade", appErrors.FromError(err).Message)
}

func TestAccessPolicyAttendanceScope(t *testing.T) {
	policy := newPolicyFixture()
	filter := models.StaffAttendanceFilter{AccountID: "t-9", Grade: "12"}

	scoped := policy.AttendanceScope(teacherClaims("t-1"), filter)
	assert.Equal(t, "t-1", scoped.AccountID)
	assert.Empty(t, scoped.Grade)

	assert.Equal(t, filter, policy.AttendanceScope(adminClaims("admin-1"), filter))
}

func TestAccessPolicyIssueQR(t *testing.T) {
	policy := newPolicyFixture()

	assert.NoError(t, policy.IssueQR(adminClaims("admin-1"), "t-1"))
	assert.NoError(t, policy.IssueQR(teacherClaims("t-1"), "t-1"))
	assert.ErrorIs(t, policy.IssueQR(teacherClaims("t-1"), "t-2"), appErrors.ErrForbidden)
}

func TestAccessPolicyStudentRoll(t *testing.T) {
	policy := newPolicyFixture()

	assert.NoError(t, policy.StudentRoll(teacherClaims("t-1")))
	assert.ErrorIs(t, policy.StudentRoll(adminClaims("admin-1")), appErrors.ErrForbidden)
}
