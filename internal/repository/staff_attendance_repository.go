package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-attendance-api/internal/models"
)

const staffAttendanceColumns = `sa.id, sa.account_id, sa.date, to_char(sa.check_in, 'HH24:MI') AS check_in, to_char(sa.check_out, 'HH24:MI') AS check_out, sa.status, sa.remarks, sa.recorded_by, sa.recorded_at`

// StaffDayTx is a transaction scoped to one staff member's attendance day.
type StaffDayTx interface {
	FindForUpdate(ctx context.Context, accountID string, date time.Time) (*models.StaffAttendance, error)
	Insert(ctx context.Context, record *models.StaffAttendance) (bool, error)
	SetCheckIn(ctx context.Context, id, checkIn string, status models.StaffStatus, remarks string) error
	SetCheckOut(ctx context.Context, id, checkOut string, status models.StaffStatus) error
	Commit() error
	Rollback() error
}

// StaffAttendanceRepository handles persistence for staff attendance.
type StaffAttendanceRepository struct {
	db *sqlx.DB
}

// NewStaffAttendanceRepository constructs the repository.
func NewStaffAttendanceRepository(db *sqlx.DB) *StaffAttendanceRepository {
	return &StaffAttendanceRepository{db: db}
}

// Begin opens a transaction for a check-in/check-out transition.
func (r *StaffAttendanceRepository) Begin(ctx context.Context) (StaffDayTx, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin staff attendance: %w", err)
	}
	return &staffDayTx{tx: tx}, nil
}

// FindRecord returns the day's record joined with the account name.
func (r *StaffAttendanceRepository) FindRecord(ctx context.Context, accountID string, date time.Time) (*models.StaffAttendanceRecord, error) {
	query := `SELECT ` + staffAttendanceColumns + `, a.name, a.grade AS teacher_grade
FROM staff_attendance sa
JOIN accounts a ON a.id = sa.account_id
WHERE sa.account_id = $1 AND sa.date = $2`
	var record models.StaffAttendanceRecord
	if err := r.db.GetContext(ctx, &record, query, accountID, dateKey(date)); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find staff attendance record: %w", err)
	}
	return &record, nil
}

// List returns teacher attendance rows matching filter, newest first.
func (r *StaffAttendanceRepository) List(ctx context.Context, filter models.StaffAttendanceFilter) ([]models.StaffAttendanceRecord, error) {
	where, args := staffFilterClause(filter)
	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	query := fmt.Sprintf(`SELECT %s, a.name, a.grade AS teacher_grade
FROM staff_attendance sa
JOIN accounts a ON a.id = sa.account_id
WHERE %s
ORDER BY sa.date DESC, sa.check_in DESC NULLS LAST
LIMIT %d`, staffAttendanceColumns, where, limit)

	records := []models.StaffAttendanceRecord{}
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, fmt.Errorf("list staff attendance: %w", err)
	}
	return records, nil
}

// CountByStatus aggregates teacher attendance rows by status.
func (r *StaffAttendanceRepository) CountByStatus(ctx context.Context, filter models.StaffAttendanceFilter) (map[models.StaffStatus]int, error) {
	where, args := staffFilterClause(filter)
	query := fmt.Sprintf(`SELECT sa.status, COUNT(*) AS cnt
FROM staff_attendance sa
JOIN accounts a ON a.id = sa.account_id
WHERE %s
GROUP BY sa.status`, where)
	rows := []struct {
		Status string `db:"status"`
		Count  int    `db:"cnt"`
	}{}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("count staff attendance: %w", err)
	}
	counts := make(map[models.StaffStatus]int, len(rows))
	for _, row := range rows {
		counts[models.StaffStatus(row.Status)] += row.Count
	}
	return counts, nil
}

// UpsertStatus writes a manually assigned status for a day, keeping any
// check-in/check-out already captured.
func (r *StaffAttendanceRepository) UpsertStatus(ctx context.Context, record *models.StaffAttendance) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.RecordedAt.IsZero() {
		record.RecordedAt = time.Now().UTC()
	}
	const query = `INSERT INTO staff_attendance (id, account_id, date, status, remarks, recorded_by, recorded_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (account_id, date)
DO UPDATE SET status = EXCLUDED.status, remarks = EXCLUDED.remarks, recorded_by = EXCLUDED.recorded_by, recorded_at = EXCLUDED.recorded_at`
	if _, err := r.db.ExecContext(ctx, query, record.ID, record.AccountID, dateKey(record.Date), record.Status, record.Remarks, record.RecordedBy, record.RecordedAt); err != nil {
		return fmt.Errorf("upsert staff status: %w", err)
	}
	return nil
}

// MarkAbsent inserts an Absent row for every active teacher with nothing
// recorded on date and returns how many rows were written.
func (r *StaffAttendanceRepository) MarkAbsent(ctx context.Context, date time.Time, remarks string) (int, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin absence sweep: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	day := dateKey(date)
	var ids []string
	const pending = `SELECT a.id FROM accounts a
WHERE a.role = 'teacher' AND a.active
AND NOT EXISTS (SELECT 1 FROM staff_attendance sa WHERE sa.account_id = a.id AND sa.date = $1)
ORDER BY a.id`
	if err := tx.SelectContext(ctx, &ids, pending, day); err != nil {
		return 0, fmt.Errorf("list unrecorded teachers: %w", err)
	}

	const insert = `INSERT INTO staff_attendance (id, account_id, date, status, remarks, recorded_at)
VALUES ($1, $2, $3, 'Absent', $4, $5)
ON CONFLICT (account_id, date) DO NOTHING`
	now := time.Now().UTC()
	marked := 0
	for _, id := range ids {
		res, err := tx.ExecContext(ctx, insert, uuid.NewString(), id, day, remarks, now)
		if err != nil {
			return 0, fmt.Errorf("mark absent %s: %w", id, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			marked += int(n)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit absence sweep: %w", err)
	}
	return marked, nil
}

func staffFilterClause(filter models.StaffAttendanceFilter) (string, []interface{}) {
	where := []string{"a.role = 'teacher'"}
	args := []interface{}{}
	if filter.AccountID != "" {
		args = append(args, filter.AccountID)
		where = append(where, fmt.Sprintf("sa.account_id = $%d", len(args)))
	}
	if filter.Date != nil {
		args = append(args, dateKey(*filter.Date))
		where = append(where, fmt.Sprintf("sa.date = $%d", len(args)))
	}
	if filter.DateFrom != nil {
		args = append(args, dateKey(*filter.DateFrom))
		where = append(where, fmt.Sprintf("sa.date >= $%d", len(args)))
	}
	if filter.DateTo != nil {
		args = append(args, dateKey(*filter.DateTo))
		where = append(where, fmt.Sprintf("sa.date <= $%d", len(args)))
	}
	if filter.Grade != "" && !strings.EqualFold(filter.Grade, "all") {
		args = append(args, filter.Grade)
		where = append(where, fmt.Sprintf("a.grade = $%d", len(args)))
	}
	return strings.Join(where, " AND "), args
}

type staffDayTx struct {
	tx *sqlx.Tx
}

// FindForUpdate locks and returns the day's row, or nil when none exists.
func (t *staffDayTx) FindForUpdate(ctx context.Context, accountID string, date time.Time) (*models.StaffAttendance, error) {
	query := `SELECT ` + staffAttendanceColumns + ` FROM staff_attendance sa WHERE sa.account_id = $1 AND sa.date = $2 FOR UPDATE`
	var record models.StaffAttendance
	if err := t.tx.GetContext(ctx, &record, query, accountID, dateKey(date)); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("lock staff attendance: %w", err)
	}
	return &record, nil
}

// Insert creates the day's row. It reports false when a concurrent insert
// already created it.
func (t *staffDayTx) Insert(ctx context.Context, record *models.StaffAttendance) (bool, error) {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.RecordedAt.IsZero() {
		record.RecordedAt = time.Now().UTC()
	}
	const query = `INSERT INTO staff_attendance (id, account_id, date, check_in, check_out, status, remarks, recorded_by, recorded_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (account_id, date) DO NOTHING`
	res, err := t.tx.ExecContext(ctx, query, record.ID, record.AccountID, dateKey(record.Date), record.CheckIn, record.CheckOut, record.Status, record.Remarks, record.RecordedBy, record.RecordedAt)
	if err != nil {
		return false, fmt.Errorf("insert staff attendance: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert staff attendance rows: %w", err)
	}
	return affected > 0, nil
}

func (t *staffDayTx) SetCheckIn(ctx context.Context, id, checkIn string, status models.StaffStatus, remarks string) error {
	const query = `UPDATE staff_attendance SET check_in = $2, status = $3, remarks = $4 WHERE id = $1`
	if _, err := t.tx.ExecContext(ctx, query, id, checkIn, status, remarks); err != nil {
		return fmt.Errorf("set check-in: %w", err)
	}
	return nil
}

func (t *staffDayTx) SetCheckOut(ctx context.Context, id, checkOut string, status models.StaffStatus) error {
	const query = `UPDATE staff_attendance SET check_out = $2, status = $3 WHERE id = $1`
	if _, err := t.tx.ExecContext(ctx, query, id, checkOut, status); err != nil {
		return fmt.Errorf("set check-out: %w", err)
	}
	return nil
}

func (t *staffDayTx) Commit() error {
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("commit staff attendance: %w", err)
	}
	return nil
}

// Rollback is safe to call after Commit.
func (t *staffDayTx) Rollback() error {
	if err := t.tx.Rollback(); err != nil && err != sql.ErrTxDone {
		return fmt.Errorf("rollback staff attendance: %w", err)
	}
	return nil
}
