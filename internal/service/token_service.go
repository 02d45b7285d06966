package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/noah-isme/sma-attendance-api/internal/models"
	appErrors "github.com/noah-isme/sma-attendance-api/pkg/errors"
)

const qrPayloadPrefix = "ATTENDANCE"

// TokenConfig defines signing parameters for session and QR tokens.
type TokenConfig struct {
	Secret     string
	Issuer     string
	SessionTTL time.Duration
	QRTTL      time.Duration
}

// TokenService signs and verifies HS256 tokens.
type TokenService struct {
	config TokenConfig
	now    func() time.Time
}

// NewTokenService constructs a TokenService.
func NewTokenService(config TokenConfig) *TokenService {
	if config.SessionTTL <= 0 {
		config.SessionTTL = 8 * time.Hour
	}
	if config.QRTTL <= 0 {
		config.QRTTL = 8 * time.Hour
	}
	return &TokenService{config: config, now: time.Now}
}

// SessionTTL returns the configured session lifetime.
func (s *TokenService) SessionTTL() time.Duration {
	return s.config.SessionTTL
}

// IssueSession signs a session token for account.
func (s *TokenService) IssueSession(account *models.Account) (string, time.Time, error) {
	if account == nil {
		return "", time.Time{}, errors.New("account is required")
	}
	return s.sign(models.JWTClaims{
		UserID:         account.ID,
		Role:           account.Role,
		Name:           account.Name,
		PasswordChange: account.PasswordChangeRequired,
	}, account.ID, s.config.SessionTTL)
}

// IssueQR signs a scan-only token bound to accountID.
func (s *TokenService) IssueQR(accountID string) (string, time.Time, error) {
	if accountID == "" {
		return "", time.Time{}, errors.New("account id is required")
	}
	return s.sign(models.JWTClaims{UserID: accountID, Role: models.RoleQRScan}, accountID, s.config.QRTTL)
}

// VerifySession validates a session token. QR tokens are rejected.
func (s *TokenService) VerifySession(tokenString string) (*models.JWTClaims, error) {
	claims, err := s.parse(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Role == models.RoleQRScan || !claims.Role.Valid() || claims.UserID == "" {
		return nil, invalidToken(nil)
	}
	return claims, nil
}

// VerifyQR validates a QR token and checks it was issued for accountID.
func (s *TokenService) VerifyQR(tokenString, accountID string) (*models.JWTClaims, error) {
	claims, err := s.parse(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Role != models.RoleQRScan || claims.Subject != accountID || claims.UserID != accountID {
		return nil, invalidToken(nil)
	}
	return claims, nil
}

// BuildQRPayload renders the string encoded into attendance QR codes.
func BuildQRPayload(accountID, token string) string {
	return fmt.Sprintf("%s:%s:%s", qrPayloadPrefix, accountID, token)
}

// ParseQRPayload splits a scanned payload into account id and token.
func ParseQRPayload(payload string) (string, string, error) {
	parts := strings.SplitN(strings.TrimSpace(payload), ":", 3)
	if len(parts) != 3 || parts[0] != qrPayloadPrefix || parts[1] == "" || parts[2] == "" {
		return "", "", appErrors.Clone(appErrors.ErrValidation, "invalid QR code format")
	}
	return parts[1], parts[2], nil
}

func (s *TokenService) sign(claims models.JWTClaims, subject string, ttl time.Duration) (string, time.Time, error) {
	issuedAt := s.now().UTC()
	expiresAt := issuedAt.Add(ttl)
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Issuer:    s.config.Issuer,
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		IssuedAt:  jwt.NewNumericDate(issuedAt),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &claims)
	signed, err := token.SignedString([]byte(s.config.Secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

func (s *TokenService) parse(tokenString string) (*models.JWTClaims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	}
	if s.config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.config.Issuer))
	}
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.config.Secret), nil
	}, opts...)
	if err != nil {
		return nil, invalidToken(err)
	}
	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid {
		return nil, invalidToken(nil)
	}
	return claims, nil
}

func invalidToken(err error) *appErrors.Error {
	return appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid or expired token")
}
