package router

import (
	"github.com/labstack/echo/v4"

	"github.com/einsicht/review-scheduler/internal/handler"
	"github.com/einsicht/review-scheduler/internal/middleware"
)

// RegisterStudent registers student-scoped endpoints under /v1.  All
// routes require a valid JWT and the STUDENT role.  Students can take a
// seat in a timeslot, give it up, move to another slot of the same
// review, and list their own enrollments.
func RegisterStudent(e *echo.Echo, h *handler.StudentHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(middleware.RoleStudent),
	)
	// Note: browsing reviews and timeslots is registered on the public
	// router so guests can see availability.  Student-specific endpoints
	// begin here.
	g.POST("/timeslots/:id/signup", h.SignUp)
	g.POST("/timeslots/:id/signout", h.SignOut)
	g.POST("/timeslots/:id/transfer", h.Transfer)

	g.GET("/me/reviews", h.MyReviews)
	g.GET("/me/timeslots", h.MyTimeslots)
}
