package models

import "time"

// Role represents the roles an account or token may carry.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleTeacher Role = "teacher"
	// RoleQRScan tags tokens embedded in attendance QR codes. No account holds it.
	RoleQRScan Role = "qr_scan"
)

// Valid reports whether r is a role an account can hold.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleTeacher
}

// Account represents a staff member stored in the accounts table.
type Account struct {
	ID                     string     `db:"id" json:"id"`
	UserID                 string     `db:"user_id" json:"user_id"`
	PasswordHash           string     `db:"password_hash" json:"-"`
	Role                   Role       `db:"role" json:"role"`
	Name                   string     `db:"name" json:"name"`
	Grade                  *string    `db:"grade" json:"grade,omitempty"`
	Email                  string     `db:"email" json:"email"`
	Phone                  string     `db:"phone" json:"phone"`
	Address                string     `db:"address" json:"address,omitempty"`
	Active                 bool       `db:"active" json:"active"`
	PasswordChangeRequired bool       `db:"password_change_required" json:"password_change_required"`
	CreatedAt              time.Time  `db:"created_at" json:"created_at"`
	ActivatedAt            *time.Time `db:"activated_at" json:"activated_at,omitempty"`
	UpdatedAt              time.Time  `db:"updated_at" json:"updated_at"`
}

// GradeValue returns the assigned grade or an empty string.
func (a *Account) GradeValue() string {
	if a == nil || a.Grade == nil {
		return ""
	}
	return *a.Grade
}

// AccountFilter captures filtering criteria for listing accounts.
type AccountFilter struct {
	Role            *Role
	IncludeInactive bool
}
