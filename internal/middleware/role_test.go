package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func callWithRole(t *testing.T, role interface{}, allowed ...string) int {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if role != nil {
		c.Set("role", role)
	}

	h := RequireRole(allowed...)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, h(c))
	return rec.Code
}

func TestRequireRole(t *testing.T) {
	t.Run("allowed role passes", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, callWithRole(t, RoleStudent, RoleStudent))
	})

	t.Run("any of several roles passes", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, callWithRole(t, RoleAdmin, RoleEmployee, RoleAdmin))
	})

	t.Run("wrong role is forbidden", func(t *testing.T) {
		assert.Equal(t, http.StatusForbidden, callWithRole(t, RoleStudent, RoleEmployee, RoleAdmin))
	})

	t.Run("missing role is forbidden", func(t *testing.T) {
		assert.Equal(t, http.StatusForbidden, callWithRole(t, nil, RoleStudent))
	})

	t.Run("non string role is forbidden", func(t *testing.T) {
		assert.Equal(t, http.StatusForbidden, callWithRole(t, 7, RoleStudent))
	})
}
