package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// LoginRequest holds credentials for authenticating an account.
type LoginRequest struct {
	UserID   string `json:"user_id" validate:"required"`
	Password string `json:"password" validate:"required"`
	Role     Role   `json:"role" validate:"required,oneof=admin teacher"`
}

// LoginResponse returns the issued session token and account info.
type LoginResponse struct {
	Token                  string      `json:"token"`
	ExpiresIn              int64       `json:"expires_in"`
	IssuedAt               time.Time   `json:"issued_at"`
	PasswordChangeRequired bool        `json:"password_change_required"`
	User                   AccountInfo `json:"user"`
}

// ChangePasswordRequest payload for updating password.
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8,nefield=OldPassword"`
}

// AccountInfo describes the authenticated account in responses.
type AccountInfo struct {
	ID     string  `json:"id"`
	UserID string  `json:"user_id"`
	Name   string  `json:"name"`
	Role   Role    `json:"role"`
	Grade  *string `json:"grade,omitempty"`
}

// JWTClaims represents the payload of session and QR tokens.
type JWTClaims struct {
	UserID         string `json:"user_id"`
	Role           Role   `json:"role"`
	Name           string `json:"name,omitempty"`
	PasswordChange bool   `json:"pwd_change,omitempty"`
	jwt.RegisteredClaims
}

// QRCode is an issued attendance QR code.
type QRCode struct {
	AccountID string    `json:"account_id"`
	Payload   string    `json:"-"`
	Image     string    `json:"qr_code"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ScanResult reports the outcome of a QR scan. Changed is false when the scan
// left the day untouched, e.g. a repeat after check-out.
type ScanResult struct {
	Action     AttendanceAction       `json:"action,omitempty"`
	Changed    bool                   `json:"changed"`
	Debounced  bool                   `json:"debounced"`
	Attendance *StaffAttendanceRecord `json:"attendance"`
}
