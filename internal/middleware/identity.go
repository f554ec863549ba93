package middleware

// identity.go defines helper functions shared across middleware files.
// subjectKey builds the identity component of cache and rate-limit keys
// from the claims JWTAuth stored in the Echo context.  Unauthenticated
// requests share the "guest" identity.

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// subjectKey returns "<role>:<id>" for authenticated requests and
// "guest" otherwise.
func subjectKey(c echo.Context) string {
	id := SubjectID(c)
	if id == 0 {
		return "guest"
	}
	role := Role(c)
	if role == "" {
		return "guest"
	}
	return role + ":" + strconv.FormatUint(id, 10)
}
