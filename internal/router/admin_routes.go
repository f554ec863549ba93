package router

// This file registers administrator routes for managing identities.  The
// routes defined here allow admins to provision and maintain student,
// employee and administrator accounts, and to flip the employee
// verification flag.  They are separate from the generic routes to keep
// concerns isolated.

import (
	"github.com/labstack/echo/v4"

	"github.com/einsicht/review-scheduler/internal/handler"
	"github.com/einsicht/review-scheduler/internal/middleware"
)

// RegisterAdmin registers routes that allow administrators to manage
// identities.  All routes are mounted under /v1/admin and require a JWT
// token as well as the ADMIN role.
func RegisterAdmin(e *echo.Echo, h *handler.AdminHandler, jwtSecret string) {
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(middleware.RoleAdmin),
	)

	// ---- Students ----
	g.GET("/students", h.ListStudents)
	g.POST("/students", h.CreateStudent)
	g.GET("/students/:id", h.GetStudent)
	g.PUT("/students/:id", h.UpdateStudent)
	g.DELETE("/students/:id", h.DeleteStudent)

	// ---- Employees ----
	g.GET("/employees", h.ListEmployees)
	g.POST("/employees", h.CreateEmployee)
	g.GET("/employees/:id", h.GetEmployee)
	g.PUT("/employees/:id", h.UpdateEmployee)
	g.POST("/employees/:id/verify", h.VerifyEmployee)
	g.DELETE("/employees/:id", h.DeleteEmployee)

	// ---- Administrators ----
	g.GET("/administrators", h.ListAdmins)
	g.POST("/administrators", h.CreateAdmin)
	g.DELETE("/administrators/:id", h.DeleteAdmin)
}
