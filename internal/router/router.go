package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/einsicht/review-scheduler/internal/handler"    // import the handlers that implement business logic
	"github.com/einsicht/review-scheduler/internal/middleware" // import middleware for JWT authentication and role enforcement
)

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	// Load balancers and monitoring systems probe this endpoint to verify
	// that the service is up and running.
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all authentication‑related routes and applies the
// necessary middleware.  Unauthenticated operations live under /v1/auth,
// while protected endpoints live under /v1.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	// Rotates the refresh token.
	g.POST("/refresh", a.Refresh)
	// Issues a new access token without rotating the refresh token.
	g.POST("/refresh-access", a.RefreshAccess)
	// Logout with a refresh_token in the body does not require a JWT.
	g.POST("/logout", a.Logout)

	// Protected endpoints; any of the three roles may call them.
	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.Use(middleware.RequireRole(middleware.RoleStudent, middleware.RoleEmployee, middleware.RoleAdmin))
	auth.GET("/me", a.Me)
	// Logout with only a Bearer token revokes every session of the subject.
	auth.POST("/logout", a.Logout)
}

// RegisterPublic registers unauthenticated browse endpoints on the provided
// Echo instance.  The PublicHandler exposes sanitized review and timeslot
// data for guests.  These routes carry no JWT or role middleware; the
// caller may wrap them with the response cache.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, mw ...echo.MiddlewareFunc) {
	// List all reviews.
	e.GET("/v1/reviews", p.GetPublicReviews, mw...)
	// Keyword search across review names and descriptions.
	e.GET("/v1/reviews/search", p.SearchReviews, mw...)
	// Review details by id.
	e.GET("/v1/reviews/:id", p.GetPublicReview, mw...)
	// Timeslots of a review with remaining capacity.
	e.GET("/v1/reviews/:id/timeslots", p.GetPublicTimeslots, mw...)
	// The employee organizing a review.
	e.GET("/v1/reviews/:id/employee", p.GetReviewEmployee, mw...)
}
