package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/sma-attendance-api/internal/models"
	appErrors "github.com/noah-isme/sma-attendance-api/pkg/errors"
)

type authAccountRepository interface {
	FindByUserIDAndRole(ctx context.Context, userID string, role models.Role) (*models.Account, error)
	FindByID(ctx context.Context, id string) (*models.Account, error)
	UpdatePassword(ctx context.Context, id, passwordHash string, ts time.Time) error
}

type sessionIssuer interface {
	IssueSession(account *models.Account) (string, time.Time, error)
	SessionTTL() time.Duration
}

// AuthService authenticates staff accounts.
type AuthService struct {
	repo      authAccountRepository
	tokens    sessionIssuer
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(repo authAccountRepository, tokens sessionIssuer, validate *validator.Validate, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AuthService{repo: repo, tokens: tokens, validator: validate, logger: logger}
}

// Authenticate checks credentials for an account of the given role. The
// inactive check runs before the password comparison.
func (s *AuthService) Authenticate(ctx context.Context, userID, password string, role models.Role) (*models.Account, error) {
	account, err := s.repo.FindByUserIDAndRole(ctx, userID, role)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrAccountNotFound
		}
		return nil, appErrors.Internal(err, "failed to fetch account")
	}

	if !account.Active {
		return nil, appErrors.ErrInactiveAccount
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return nil, appErrors.ErrInvalidCredentials
	}

	return account, nil
}

// Login authenticates and issues a session token.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid login payload")
	}

	account, err := s.Authenticate(ctx, req.UserID, req.Password, req.Role)
	if err != nil {
		s.logger.Info("login rejected", zap.String("user_id", req.UserID), zap.String("role", string(req.Role)), zap.Error(err))
		return nil, err
	}

	token, _, err := s.tokens.IssueSession(account)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to create session token")
	}

	s.logger.Info("login succeeded", zap.String("account_id", account.ID), zap.String("role", string(account.Role)))

	return &models.LoginResponse{
		Token:                  token,
		ExpiresIn:              int64(s.tokens.SessionTTL().Seconds()),
		IssuedAt:               time.Now().UTC(),
		PasswordChangeRequired: account.PasswordChangeRequired,
		User:                   accountInfo(account),
	}, nil
}

// ChangePassword replaces the password of accountID and clears any forced
// rotation flag. A fresh session token is returned.
func (s *AuthService) ChangePassword(ctx context.Context, accountID string, req models.ChangePasswordRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid change password payload")
	}

	account, err := s.repo.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "account not found")
		}
		return nil, appErrors.Internal(err, "failed to load account")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(req.OldPassword)); err != nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "old password does not match")
	}

	newHash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to hash password")
	}

	if err := s.repo.UpdatePassword(ctx, accountID, string(newHash), time.Now().UTC()); err != nil {
		return nil, appErrors.Internal(err, "failed to update password")
	}
	account.PasswordHash = string(newHash)
	account.PasswordChangeRequired = false

	token, _, err := s.tokens.IssueSession(account)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to create session token")
	}

	s.logger.Info("password changed", zap.String("account_id", accountID))

	return &models.LoginResponse{
		Token:     token,
		ExpiresIn: int64(s.tokens.SessionTTL().Seconds()),
		IssuedAt:  time.Now().UTC(),
		User:      accountInfo(account),
	}, nil
}

// Me returns the account behind a session.
func (s *AuthService) Me(ctx context.Context, accountID string) (*models.AccountInfo, error) {
	account, err := s.repo.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "account not found")
		}
		return nil, appErrors.Internal(err, "failed to load account")
	}
	info := accountInfo(account)
	return &info, nil
}

func accountInfo(account *models.Account) models.AccountInfo {
	return models.AccountInfo{
		ID:     account.ID,
		UserID: account.UserID,
		Name:   account.Name,
		Role:   account.Role,
		Grade:  account.Grade,
	}
}
