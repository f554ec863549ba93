package middleware // middleware provides shared request processing for handlers

import (
	"net/http" // http package defines standard HTTP status codes

	"github.com/labstack/echo/v4" // echo provides middleware chaining and context
)

// Role values carried in the JWT "role" claim.  Every authenticated
// subject has exactly one of these.
const (
	RoleStudent  = "STUDENT"
	RoleEmployee = "EMPLOYEE"
	RoleAdmin    = "ADMIN"
)

// RequireRole returns a middleware function that enforces that the
// authenticated subject has one of the specified roles.  The roles
// accepted should correspond to the values stored in the JWT's "role"
// claim.  If the subject's role is not in the allowed set, the request
// is aborted with a 403 Forbidden response.  It assumes a previous
// middleware has extracted the role into the context under the key
// "role".
func RequireRole(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			v := c.Get("role")
			role, ok := v.(string)
			if !ok || !allowed[role] {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
			}
			return next(c)
		}
	}
}
