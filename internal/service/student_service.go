package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-attendance-api/internal/models"
	"github.com/noah-isme/sma-attendance-api/internal/repository"
	appErrors "github.com/noah-isme/sma-attendance-api/pkg/errors"
)

type studentRepository interface {
	ListByGradeSection(ctx context.Context, filter models.RosterFilter) ([]models.Student, error)
	ExistsByStudentID(ctx context.Context, studentID string) (bool, error)
	Create(ctx context.Context, student *models.Student) error
}

// CreateStudentRequest is the payload for adding a student to a roster.
type CreateStudentRequest struct {
	StudentID     string `json:"student_id" validate:"required,max=64"`
	Name          string `json:"name" validate:"required"`
	Grade         string `json:"grade" validate:"required"`
	Section       string `json:"section" validate:"required"`
	ParentName    string `json:"parent_name"`
	ParentContact string `json:"parent_contact" validate:"required"`
}

// StudentService manages grade/section rosters.
type StudentService struct {
	repo      studentRepository
	policy    *AccessPolicy
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs a StudentService.
func NewStudentService(repo studentRepository, policy *AccessPolicy, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &StudentService{repo: repo, policy: policy, validator: validate, logger: logger}
}

// GetStudentsByGradeSection lists active students. Teachers asking for
// another grade get an empty list.
func (s *StudentService) GetStudentsByGradeSection(ctx context.Context, actor *models.JWTClaims, grade, section string) ([]models.Student, error) {
	grade = strings.TrimSpace(grade)
	section = strings.TrimSpace(section)
	if grade == "" || section == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "grade and section are required")
	}
	allowed, err := s.policy.RosterRead(ctx, actor, grade)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return []models.Student{}, nil
	}
	students, err := s.repo.ListByGradeSection(ctx, models.RosterFilter{Grade: grade, Section: section})
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list students")
	}
	return students, nil
}

// AddStudent creates a student on a roster the actor may write to.
func (s *StudentService) AddStudent(ctx context.Context, actor *models.JWTClaims, req CreateStudentRequest) (*models.Student, error) {
	req.StudentID = strings.TrimSpace(req.StudentID)
	req.Grade = strings.TrimSpace(req.Grade)
	req.Section = strings.TrimSpace(req.Section)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid student payload")
	}
	if err := s.policy.RosterWrite(ctx, actor, req.Grade); err != nil {
		return nil, err
	}

	exists, err := s.repo.ExistsByStudentID(ctx, req.StudentID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to check student id")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "student id already exists")
	}

	createdBy := actor.UserID
	student := &models.Student{
		StudentID:     req.StudentID,
		Name:          req.Name,
		Grade:         req.Grade,
		Section:       req.Section,
		ParentName:    req.ParentName,
		ParentContact: req.ParentContact,
		Active:        true,
		CreatedBy:     &createdBy,
	}
	if err := s.repo.Create(ctx, student); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "student id already exists")
		}
		return nil, appErrors.Internal(err, "failed to create student")
	}

	s.logger.Info("student added", zap.String("student_id", student.StudentID), zap.String("grade", student.Grade), zap.String("by", createdBy))
	return student, nil
}
