package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-attendance-api/internal/middleware"
	"github.com/noah-isme/sma-attendance-api/internal/models"
)

// Handlers groups every HTTP handler mounted under the API prefix.
type Handlers struct {
	Auth       *AuthHandler
	Employees  *EmployeeHandler
	Students   *StudentHandler
	Attendance *AttendanceHandler
	Reports    *ReportHandler
	QR         *QRHandler
}

// RegisterRoutes mounts the API on router under prefix.
func RegisterRoutes(router gin.IRouter, prefix string, h Handlers, verifier middleware.SessionVerifier) {
	api := router.Group(prefix)

	api.POST("/auth/login", h.Auth.Login)
	api.POST("/attendance/scan", h.QR.Scan)

	changePasswordPath := prefix + "/auth/change-password"
	secured := api.Group("", middleware.JWT(verifier), middleware.RequirePasswordRotated(changePasswordPath))
	adminOnly := middleware.RequireRoles(models.RoleAdmin)

	secured.POST("/auth/change-password", h.Auth.ChangePassword)
	secured.GET("/auth/me", h.Auth.Me)

	employees := secured.Group("/employees", adminOnly)
	employees.GET("", h.Employees.List)
	employees.POST("", h.Employees.Create)
	employees.POST("/:id/activate", h.Employees.Activate)
	employees.DELETE("/:id", h.Employees.Deactivate)

	secured.GET("/students", h.Students.List)
	secured.POST("/students", h.Students.Create)

	attendance := secured.Group("/attendance")
	attendance.GET("/employees", h.Attendance.ListStaff)
	attendance.GET("/employees/stats", h.Reports.StaffStats)
	attendance.GET("/employees/export", adminOnly, h.Reports.Export)
	attendance.PUT("/employees/:id/status", adminOnly, h.Attendance.SetStatus)
	attendance.POST("/check", h.Attendance.Check)
	attendance.POST("/students", middleware.RequireRoles(models.RoleTeacher), h.Attendance.RecordStudents)
	attendance.GET("/students", h.Attendance.ListStudents)
	attendance.GET("/students/stats", h.Reports.StudentStats)

	secured.GET("/qr/generate/:id", middleware.RBAC(string(models.RoleAdmin), middleware.SelfParam), h.QR.Generate)
}
