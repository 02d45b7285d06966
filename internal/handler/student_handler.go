package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-attendance-api/internal/models"
	"github.com/noah-isme/sma-attendance-api/internal/service"
	appErrors "github.com/noah-isme/sma-attendance-api/pkg/errors"
	"github.com/noah-isme/sma-attendance-api/pkg/response"
)

type studentService interface {
	GetStudentsByGradeSection(ctx context.Context, actor *models.JWTClaims, grade, section string) ([]models.Student, error)
	AddStudent(ctx context.Context, actor *models.JWTClaims, req service.CreateStudentRequest) (*models.Student, error)
}

// StudentHandler serves roster endpoints.
type StudentHandler struct {
	service studentService
}

// NewStudentHandler constructs a StudentHandler.
func NewStudentHandler(svc studentService) *StudentHandler {
	return &StudentHandler{service: svc}
}

// List godoc
// @Summary List students of a grade and section
// @Tags Students
// @Produce json
// @Security BearerAuth
// @Param grade query string true "Grade"
// @Param section query string true "Section"
// @Success 200 {object} response.Envelope
// @Router /students [get]
func (h *StudentHandler) List(c *gin.Context) {
	students, err := h.service.GetStudentsByGradeSection(c.Request.Context(), claimsFromContext(c), c.Query("grade"), c.Query("section"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, students, map[string]interface{}{"total": len(students)})
}

// Create godoc
// @Summary Add student
// @Tags Students
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.CreateStudentRequest true "Student payload"
// @Success 201 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /students [post]
func (h *StudentHandler) Create(c *gin.Context) {
	var req service.CreateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Validation(err, "invalid student payload"))
		return
	}

	student, err := h.service.AddStudent(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, student)
}
