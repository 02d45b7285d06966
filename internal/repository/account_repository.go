package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-attendance-api/internal/models"
)

const accountColumns = `id, user_id, password_hash, role, name, grade, email, phone, address, active, password_change_required, created_at, activated_at, updated_at`

// AccountRepository provides database access for staff accounts.
type AccountRepository struct {
	db *sqlx.DB
}

// NewAccountRepository creates a new instance of AccountRepository.
func NewAccountRepository(db *sqlx.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// FindByUserIDAndRole returns an account by external id and role.
func (r *AccountRepository) FindByUserIDAndRole(ctx context.Context, userID string, role models.Role) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE user_id = $1 AND role = $2 LIMIT 1`
	var account models.Account
	if err := r.db.GetContext(ctx, &account, query, userID, role); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find account by user id: %w", err)
	}
	return &account, nil
}

// FindByID returns an account by internal identifier.
func (r *AccountRepository) FindByID(ctx context.Context, id string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1 LIMIT 1`
	var account models.Account
	if err := r.db.GetContext(ctx, &account, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find account by id: %w", err)
	}
	return &account, nil
}

// ExistsByUserID reports whether the external id is taken.
func (r *AccountRepository) ExistsByUserID(ctx context.Context, userID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM accounts WHERE user_id = $1)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, userID); err != nil {
		return false, fmt.Errorf("check account user id: %w", err)
	}
	return exists, nil
}

// CountByRole returns the number of accounts holding role.
func (r *AccountRepository) CountByRole(ctx context.Context, role models.Role) (int, error) {
	const query = `SELECT COUNT(*) FROM accounts WHERE role = $1`
	var total int
	if err := r.db.GetContext(ctx, &total, query, role); err != nil {
		return 0, fmt.Errorf("count accounts: %w", err)
	}
	return total, nil
}

// List returns accounts ordered by name.
func (r *AccountRepository) List(ctx context.Context, filter models.AccountFilter) ([]models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE 1=1`
	var args []interface{}
	if filter.Role != nil {
		args = append(args, *filter.Role)
		query += fmt.Sprintf(" AND role = $%d", len(args))
	}
	if !filter.IncludeInactive {
		query += " AND active = TRUE"
	}
	query += " ORDER BY name"

	accounts := []models.Account{}
	if err := r.db.SelectContext(ctx, &accounts, query, args...); err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return accounts, nil
}

// Create inserts a new account. A taken user_id yields ErrDuplicate.
func (r *AccountRepository) Create(ctx context.Context, account *models.Account) error {
	if account.ID == "" {
		account.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if account.CreatedAt.IsZero() {
		account.CreatedAt = now
	}
	account.UpdatedAt = now

	const query = `INSERT INTO accounts (id, user_id, password_hash, role, name, grade, email, phone, address, active, password_change_required, created_at, activated_at, updated_at)
VALUES (:id, :user_id, :password_hash, :role, :name, :grade, :email, :phone, :address, :active, :password_change_required, :created_at, :activated_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, account); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create account: %w", ErrDuplicate)
		}
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

// ActivateTeacher marks a teacher account active. It reports false when no
// teacher row matched.
func (r *AccountRepository) ActivateTeacher(ctx context.Context, id string, ts time.Time) (bool, error) {
	const query = `UPDATE accounts SET active = TRUE, activated_at = $2, updated_at = $2 WHERE id = $1 AND role = 'teacher'`
	return r.execAffecting(ctx, "activate teacher", query, id, ts)
}

// DeactivateTeacher performs the soft delete of a teacher account.
func (r *AccountRepository) DeactivateTeacher(ctx context.Context, id string, ts time.Time) (bool, error) {
	const query = `UPDATE accounts SET active = FALSE, updated_at = $2 WHERE id = $1 AND role = 'teacher'`
	return r.execAffecting(ctx, "deactivate teacher", query, id, ts)
}

// UpdatePassword stores a new hash and clears the forced-rotation flag.
func (r *AccountRepository) UpdatePassword(ctx context.Context, id, passwordHash string, ts time.Time) error {
	const query = `UPDATE accounts SET password_hash = $2, password_change_required = FALSE, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, passwordHash, ts); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

func (r *AccountRepository) execAffecting(ctx context.Context, op, query string, args ...interface{}) (bool, error) {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s rows: %w", op, err)
	}
	return affected > 0, nil
}
