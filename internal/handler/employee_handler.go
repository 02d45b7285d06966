package handler

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-attendance-api/internal/models"
	"github.com/noah-isme/sma-attendance-api/internal/service"
	appErrors "github.com/noah-isme/sma-attendance-api/pkg/errors"
	"github.com/noah-isme/sma-attendance-api/pkg/response"
)

type employeeService interface {
	AddEmployee(ctx context.Context, req service.CreateEmployeeRequest) (*models.Account, error)
	ActivateEmployee(ctx context.Context, id string) error
	DeactivateEmployee(ctx context.Context, id string) error
	ListEmployees(ctx context.Context, includeInactive bool) ([]models.Account, error)
}

// EmployeeHandler exposes teacher account administration.
type EmployeeHandler struct {
	service employeeService
}

// NewEmployeeHandler constructs an EmployeeHandler.
func NewEmployeeHandler(svc employeeService) *EmployeeHandler {
	return &EmployeeHandler{service: svc}
}

// List godoc
// @Summary List teachers
// @Tags Employees
// @Produce json
// @Security BearerAuth
// @Param include_inactive query bool false "Include inactive accounts"
// @Success 200 {object} response.Envelope
// @Router /employees [get]
func (h *EmployeeHandler) List(c *gin.Context) {
	includeInactive := true
	if raw := c.Query("include_inactive"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			response.Error(c, appErrors.Validation(err, "include_inactive must be a boolean"))
			return
		}
		includeInactive = parsed
	}

	accounts, err := h.service.ListEmployees(c.Request.Context(), includeInactive)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, accounts, map[string]interface{}{"total": len(accounts)})
}

// Create godoc
// @Summary Register teacher
// @Description Creates an inactive teacher account
// @Tags Employees
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.CreateEmployeeRequest true "Employee payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /employees [post]
func (h *EmployeeHandler) Create(c *gin.Context) {
	var req service.CreateEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Validation(err, "invalid employee payload"))
		return
	}

	account, err := h.service.AddEmployee(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, account)
}

// Activate godoc
// @Summary Activate teacher
// @Tags Employees
// @Produce json
// @Security BearerAuth
// @Param id path string true "Account ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /employees/{id}/activate [post]
func (h *EmployeeHandler) Activate(c *gin.Context) {
	id, err := pathID(c, "id", "teacher not found")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.service.ActivateEmployee(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"id": id, "active": true})
}

// Deactivate godoc
// @Summary Deactivate teacher
// @Tags Employees
// @Produce json
// @Security BearerAuth
// @Param id path string true "Account ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /employees/{id} [delete]
func (h *EmployeeHandler) Deactivate(c *gin.Context) {
	id, err := pathID(c, "id", "teacher not found")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.service.DeactivateEmployee(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"id": id, "active": false})
}
