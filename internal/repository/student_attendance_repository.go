package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-attendance-api/internal/models"
)

// StudentAttendanceRepository persists teacher-entered student rolls.
type StudentAttendanceRepository struct {
	db *sqlx.DB
}

// NewStudentAttendanceRepository constructs the repository.
func NewStudentAttendanceRepository(db *sqlx.DB) *StudentAttendanceRepository {
	return &StudentAttendanceRepository{db: db}
}

// Upsert inserts the day's row for a student or overwrites its present flag.
func (r *StudentAttendanceRepository) Upsert(ctx context.Context, record *models.StudentAttendance) (*models.StudentAttendance, error) {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	record.RecordedAt = time.Now().UTC()
	const query = `INSERT INTO student_attendance (id, student_id, date, present, recorded_by, recorded_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (student_id, date)
DO UPDATE SET present = EXCLUDED.present, recorded_by = EXCLUDED.recorded_by, recorded_at = EXCLUDED.recorded_at
RETURNING id, student_id, date, present, recorded_by, recorded_at`
	var stored models.StudentAttendance
	if err := r.db.GetContext(ctx, &stored, query, record.ID, record.StudentID, dateKey(record.Date), record.Present, record.RecordedBy, record.RecordedAt); err != nil {
		return nil, fmt.Errorf("upsert student attendance: %w", err)
	}
	return &stored, nil
}

// ListRoll returns the active roster of a grade/section joined with the
// attendance taken on date. Present is nil for students not yet marked.
func (r *StudentAttendanceRepository) ListRoll(ctx context.Context, filter models.RosterFilter, date time.Time) ([]models.StudentRollRow, error) {
	const query = `SELECT s.id, s.student_id, s.name, s.grade, s.section, sa.present, sa.recorded_at
FROM students s
LEFT JOIN student_attendance sa ON sa.student_id = s.id AND sa.date = $3
WHERE s.active = TRUE AND s.grade = $1 AND s.section = $2
ORDER BY s.name`
	rows := []models.StudentRollRow{}
	if err := r.db.SelectContext(ctx, &rows, query, filter.Grade, filter.Section, dateKey(date)); err != nil {
		return nil, fmt.Errorf("list student roll: %w", err)
	}
	return rows, nil
}
