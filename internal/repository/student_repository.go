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

const studentColumns = `id, student_id, name, grade, section, parent_name, parent_contact, active, created_by, created_at`

// StudentRepository manages persistence for students.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// ListByGradeSection returns active students of one grade and section ordered by name.
func (r *StudentRepository) ListByGradeSection(ctx context.Context, filter models.RosterFilter) ([]models.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students WHERE active = TRUE AND grade = $1 AND section = $2 ORDER BY name`
	students := []models.Student{}
	if err := r.db.SelectContext(ctx, &students, query, filter.Grade, filter.Section); err != nil {
		return nil, fmt.Errorf("list students by grade section: %w", err)
	}
	return students, nil
}

// FindByID returns a student by internal identifier.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students WHERE id = $1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find student: %w", err)
	}
	return &student, nil
}

// ExistsByStudentID checks if the external student id is taken.
func (r *StudentRepository) ExistsByStudentID(ctx context.Context, studentID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM students WHERE student_id = $1)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, studentID); err != nil {
		return false, fmt.Errorf("check student id: %w", err)
	}
	return exists, nil
}

// Create inserts a student. A taken student_id yields ErrDuplicate.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	if student.CreatedAt.IsZero() {
		student.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO students (id, student_id, name, grade, section, parent_name, parent_contact, active, created_by, created_at)
VALUES (:id, :student_id, :name, :grade, :section, :parent_name, :parent_contact, :active, :created_by, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create student: %w", ErrDuplicate)
		}
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}
