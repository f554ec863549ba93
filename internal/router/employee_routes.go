package router // router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/einsicht/review-scheduler/internal/handler"    // employee handlers
	"github.com/einsicht/review-scheduler/internal/middleware" // JWT + role middlewares
)

// RegisterEmployee registers EMPLOYEE-scoped endpoints under /v1.
// All routes require a valid JWT and the EMPLOYEE or ADMIN role; the
// handler additionally enforces the verified flag and review ownership.
func RegisterEmployee(e *echo.Echo, h *handler.EmployeeHandler, jwtSecret string) {
	// Attach middlewares at group construction time for clarity.
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(middleware.RoleEmployee, middleware.RoleAdmin),
	)

	// ---- Reviews ----
	g.POST("/reviews", h.CreateReview)
	// NOTE: Listing all reviews is handled by the public browse API.  The
	// employee-scoped list shows only the caller's own reviews.
	g.GET("/reviews/mine", h.ListMyReviews)
	g.PUT("/reviews/:id", h.UpdateReview)
	g.PATCH("/reviews/:id", h.UpdateReview)
	g.DELETE("/reviews/:id", h.DeleteReview)
	g.GET("/reviews/:id/students", h.StudentsForReview)

	// ---- Timeslots ----
	g.POST("/reviews/:id/timeslots", h.CreateTimeslot)
	g.POST("/reviews/:id/timeslots/generate", h.GenerateTimeslots)
	g.PUT("/reviews/:id/timeslots/:slot_id", h.UpdateTimeslot)
	g.PATCH("/reviews/:id/timeslots/:slot_id", h.UpdateTimeslot)
	g.DELETE("/reviews/:id/timeslots/:slot_id", h.DeleteTimeslot)
	g.GET("/reviews/:id/timeslots/:slot_id/students", h.StudentsForTimeslot)
}
