package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/noah-isme/sma-attendance-api/internal/models"
	appErrors "github.com/noah-isme/sma-attendance-api/pkg/errors"
)

type accountLookup interface {
	FindByID(ctx context.Context, id string) (*models.Account, error)
}

// AccessPolicy centralises the role and grade rules applied to every request.
type AccessPolicy struct {
	accounts accountLookup
}

// NewAccessPolicy constructs an AccessPolicy.
func NewAccessPolicy(accounts accountLookup) *AccessPolicy {
	return &AccessPolicy{accounts: accounts}
}

// RosterRead reports whether actor may read the roster of grade. Teachers
// only see their assigned grade; a mismatch is not an error.
func (p *AccessPolicy) RosterRead(ctx context.Context, actor *models.JWTClaims, grade string) (bool, error) {
	if err := requireActor(actor); err != nil {
		return false, err
	}
	switch actor.Role {
	case models.RoleAdmin:
		return true, nil
	case models.RoleTeacher:
		assigned, err := p.teacherGrade(ctx, actor.UserID)
		if err != nil {
			return false, err
		}
		return assigned != "" && sameGrade(assigned, grade), nil
	default:
		return false, nil
	}
}

// RosterWrite checks that actor may add students to grade.
func (p *AccessPolicy) RosterWrite(ctx context.Context, actor *models.JWTClaims, grade string) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	switch actor.Role {
	case models.RoleAdmin:
		return nil
	case models.RoleTeacher:
		assigned, err := p.teacherGrade(ctx, actor.UserID)
		if err != nil {
			return err
		}
		if assigned == "" || !sameGrade(assigned, grade) {
			return appErrors.Clone(appErrors.ErrForbidden, "you can only add students to your assigned grade")
		}
		return nil
	default:
		return appErrors.ErrForbidden
	}
}

// AttendanceScope pins teachers to their own records. Admin filters pass through.
func (p *AccessPolicy) AttendanceScope(actor *models.JWTClaims, filter models.StaffAttendanceFilter) models.StaffAttendanceFilter {
	if actor != nil && actor.Role == models.RoleTeacher {
		filter.AccountID = actor.UserID
		filter.Grade = ""
	}
	return filter
}

// IssueQR allows teachers to obtain only their own code.
func (p *AccessPolicy) IssueQR(actor *models.JWTClaims, targetID string) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	switch actor.Role {
	case models.RoleAdmin:
		return nil
	case models.RoleTeacher:
		if actor.UserID != targetID {
			return appErrors.Clone(appErrors.ErrForbidden, "teachers can only generate their own QR code")
		}
		return nil
	default:
		return appErrors.ErrForbidden
	}
}

// StudentRoll restricts student attendance submission to teachers.
func (p *AccessPolicy) StudentRoll(actor *models.JWTClaims) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	if actor.Role != models.RoleTeacher {
		return appErrors.Clone(appErrors.ErrForbidden, "only teachers can record student attendance")
	}
	return nil
}

// Admin requires the administrator role.
func (p *AccessPolicy) Admin(actor *models.JWTClaims) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	if actor.Role != models.RoleAdmin {
		return appErrors.ErrForbidden
	}
	return nil
}

func (p *AccessPolicy) teacherGrade(ctx context.Context, accountID string) (string, error) {
	account, err := p.accounts.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", appErrors.Internal(err, "failed to load account")
	}
	return account.GradeValue(), nil
}

func requireActor(actor *models.JWTClaims) error {
	if actor == nil || actor.UserID == "" {
		return appErrors.ErrUnauthorized
	}
	return nil
}

func sameGrade(a, b string) bool {
	return strings.TrimSpace(a) == strings.TrimSpace(b)
}
