package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-attendance-api/internal/models"
	appErrors "github.com/noah-isme/sma-attendance-api/pkg/errors"
)

func newTestTokenService() *TokenService {
	return NewTokenService(TokenConfig{Secret: "secret", Issuer: "test", SessionTTL: 8 * time.Hour, QRTTL: time.Hour})
}

func TestTokenServiceSessionRoundTrip(t *testing.T) {
	svc := newTestTokenService()
	account := &models.Account{ID: "acc-1", Role: models.RoleTeacher, Name: "Ani", PasswordChangeRequired: true}

	token, expiresAt, err := svc.IssueSession(account)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(8*time.Hour), expiresAt, time.Minute)

	claims, err := svc.VerifySession(token)
	require.NoError(t, err)
	assert.Equal(t, "acc-1", claims.UserID)
	assert.Equal(t, models.RoleTeacher, claims.Role)
	assert.Equal(t, "Ani", claims.Name)
	assert.True(t, claims.PasswordChange)
}

func TestTokenServiceRejectsQRTokenAsSession(t *testing.T) {
	svc := newTestTokenService()
	token, _, err := svc.IssueQR("acc-1")
	require.NoError(t, err)

	_, err = svc.VerifySession(token)
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

func TestTokenServiceVerifyQR(t *testing.T) {
	svc := newTestTokenService()
	token, _, err := svc.IssueQR("acc-1")
	require.NoError(t, err)

	claims, err := svc.VerifyQR(token, "acc-1")
	require.NoError(t, err)
	assert.Equal(t, models.RoleQRScan, claims.Role)

	_, err = svc.VerifyQR(token, "acc-2")
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

func TestTokenServiceRejectsSessionTokenAsQR(t *testing.T) {
	svc := newTestTokenService()
	token, _, err := svc.IssueSession(&models.Account{ID: "acc-1", Role: models.RoleTeacher})
	require.NoError(t, err)

	_, err = svc.VerifyQR(token, "acc-1")
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

func TestTokenServiceExpired(t *testing.T) {
	svc := newTestTokenService()
	svc.now = func() time.Time { return time.Now().Add(-9 * time.Hour) }
	token, _, err := svc.IssueSession(&models.Account{ID: "acc-1", Role: models.RoleAdmin})
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.VerifySession(token)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, "invalid or expired token", appErr.Message)
}

func TestTokenServiceBadSignatureAndAlgorithm(t *testing.T) {
	svc := newTestTokenService()
	other := NewTokenService(TokenConfig{Secret: "other", Issuer: "test"})
	token, _, err := other.IssueSession(&models.Account{ID: "acc-1", Role: models.RoleAdmin})
	require.NoError(t, err)
	_, err = svc.VerifySession(token)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, &models.JWTClaims{UserID: "acc-1", Role: models.RoleAdmin})
	raw, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = svc.VerifySession(raw)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)

	_, err = svc.VerifySession("not-a-token")
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

func TestQRPayload(t *testing.T) {
	payload := BuildQRPayload("acc-1", "a.b.c")
	assert.Equal(t, "ATTENDANCE:acc-1:a.b.c", payload)

	id, token, err := ParseQRPayload(payload)
	require.NoError(t, err)
	assert.Equal(t, "acc-1", id)
	assert.Equal(t, "a.b.c", token)

	for _, bad := range []string{"", "ATTENDANCE:acc-1", "OTHER:acc-1:tok", "ATTENDANCE::tok"} {
		_, _, err := ParseQRPayload(bad)
		assert.ErrorIs(t, err, appErrors.ErrValidation, bad)
	}
}
