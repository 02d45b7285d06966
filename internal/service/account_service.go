package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/sma-attendance-api/internal/models"
	"github.com/noah-isme/sma-attendance-api/internal/repository"
	appErrors "github.com/noah-isme/sma-attendance-api/pkg/errors"
)

type accountRepository interface {
	FindByID(ctx context.Context, id string) (*models.Account, error)
	ExistsByUserID(ctx context.Context, userID string) (bool, error)
	CountByRole(ctx context.Context, role models.Role) (int, error)
	List(ctx context.Context, filter models.AccountFilter) ([]models.Account, error)
	Create(ctx context.Context, account *models.Account) error
	ActivateTeacher(ctx context.Context, id string, ts time.Time) (bool, error)
	DeactivateTeacher(ctx context.Context, id string, ts time.Time) (bool, error)
}

// CreateEmployeeRequest is the admin payload for registering a teacher.
type CreateEmployeeRequest struct {
	UserID   string `json:"user_id" validate:"required,max=64"`
	Password string `json:"password" validate:"required,min=6"`
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"required"`
	Address  string `json:"address"`
	Grade    string `json:"grade" validate:"required"`
}

// BootstrapAdmin describes the first administrator account.
type BootstrapAdmin struct {
	Enabled  bool
	UserID   string
	Password string
	Name     string
	Email    string
}

// AccountService manages staff accounts.
type AccountService struct {
	repo      accountRepository
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewAccountService constructs an AccountService.
func NewAccountService(repo accountRepository, validate *validator.Validate, logger *zap.Logger) *AccountService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AccountService{repo: repo, validator: validate, logger: logger, now: time.Now}
}

// AddEmployee registers a teacher. New accounts stay inactive until an
// administrator activates them.
func (s *AccountService) AddEmployee(ctx context.Context, req CreateEmployeeRequest) (*models.Account, error) {
	req.UserID = strings.TrimSpace(req.UserID)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid employee payload")
	}

	exists, err := s.repo.ExistsByUserID(ctx, req.UserID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to check user id")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "user id already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to hash password")
	}

	grade := strings.TrimSpace(req.Grade)
	account := &models.Account{
		UserID:       req.UserID,
		PasswordHash: string(hash),
		Role:         models.RoleTeacher,
		Name:         req.Name,
		Grade:        &grade,
		Email:        req.Email,
		Phone:        req.Phone,
		Address:      req.Address,
		Active:       false,
	}
	if err := s.repo.Create(ctx, account); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "user id already exists")
		}
		return nil, appErrors.Internal(err, "failed to create employee")
	}

	s.logger.Info("employee registered", zap.String("account_id", account.ID), zap.String("user_id", account.UserID))
	return account, nil
}

// ActivateEmployee enables a teacher account.
func (s *AccountService) ActivateEmployee(ctx context.Context, id string) error {
	ok, err := s.repo.ActivateTeacher(ctx, id, s.now().UTC())
	if err != nil {
		return appErrors.Internal(err, "failed to activate employee")
	}
	if !ok {
		return appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
	}
	s.logger.Info("employee activated", zap.String("account_id", id))
	return nil
}

// DeactivateEmployee soft-deletes a teacher account.
func (s *AccountService) DeactivateEmployee(ctx context.Context, id string) error {
	ok, err := s.repo.DeactivateTeacher(ctx, id, s.now().UTC())
	if err != nil {
		return appErrors.Internal(err, "failed to deactivate employee")
	}
	if !ok {
		return appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
	}
	s.logger.Info("employee deactivated", zap.String("account_id", id))
	return nil
}

// ListEmployees returns teacher accounts ordered by name.
func (s *AccountService) ListEmployees(ctx context.Context, includeInactive bool) ([]models.Account, error) {
	role := models.RoleTeacher
	accounts, err := s.repo.List(ctx, models.AccountFilter{Role: &role, IncludeInactive: includeInactive})
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list employees")
	}
	return accounts, nil
}

// GetAccount loads an account by id.
func (s *AccountService) GetAccount(ctx context.Context, id string) (*models.Account, error) {
	account, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "account not found")
		}
		return nil, appErrors.Internal(err, "failed to load account")
	}
	return account, nil
}

// EnsureBootstrapAdmin creates the first administrator when none exists. The
// account must rotate its password on first login.
func (s *AccountService) EnsureBootstrapAdmin(ctx context.Context, cfg BootstrapAdmin) (bool, error) {
	if !cfg.Enabled {
		return false, nil
	}
	total, err := s.repo.CountByRole(ctx, models.RoleAdmin)
	if err != nil {
		return false, err
	}
	if total > 0 {
		return false, nil
	}
	if cfg.UserID == "" || cfg.Password == "" {
		return false, errors.New("bootstrap admin credentials are not configured")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.Password), bcrypt.DefaultCost)
	if err != nil {
		return false, err
	}
	now := s.now().UTC()
	account := &models.Account{
		UserID:                 cfg.UserID,
		PasswordHash:           string(hash),
		Role:                   models.RoleAdmin,
		Name:                   cfg.Name,
		Email:                  cfg.Email,
		Active:                 true,
		PasswordChangeRequired: true,
		ActivatedAt:            &now,
	}
	if err := s.repo.Create(ctx, account); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return false, nil
		}
		return false, err
	}

	s.logger.Warn("bootstrap administrator created, password change required on first login", zap.String("user_id", cfg.UserID))
	return true, nil
}
