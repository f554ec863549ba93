package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/einsicht/review-scheduler/internal/utils"
)

const testSecret = "unit-test-secret"

// invoke runs the JWTAuth middleware around a probe handler and
// returns the recorder plus whatever identity the handler observed.
func invoke(t *testing.T, authHeader string) (*httptest.ResponseRecorder, uint64, string) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var gotID uint64
	var gotRole string
	h := JWTAuth(testSecret)(func(c echo.Context) error {
		gotID = SubjectID(c)
		gotRole = Role(c)
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, h(c))
	return rec, gotID, gotRole
}

func TestJWTAuth(t *testing.T) {
	t.Run("valid token sets identity", func(t *testing.T) {
		tok, err := utils.NewAccessToken(testSecret, 42, RoleStudent, 15)
		require.NoError(t, err)

		rec, id, role := invoke(t, "Bearer "+tok.Token)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, uint64(42), id)
		assert.Equal(t, RoleStudent, role)
	})

	t.Run("missing header", func(t *testing.T) {
		rec, _, _ := invoke(t, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("not a bearer header", func(t *testing.T) {
		rec, _, _ := invoke(t, "Basic dXNlcjpwYXNz")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		rec, _, _ := invoke(t, "Bearer not.a.jwt")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("wrong secret", func(t *testing.T) {
		tok, err := utils.NewAccessToken("other-secret", 42, RoleStudent, 15)
		require.NoError(t, err)

		rec, _, _ := invoke(t, "Bearer "+tok.Token)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("expired token", func(t *testing.T) {
		claims := jwt.MapClaims{
			"sub":  "42",
			"role": RoleStudent,
			"exp":  time.Now().Add(-time.Minute).Unix(),
			"iat":  time.Now().Add(-time.Hour).Unix(),
		}
		signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		require.NoError(t, err)

		rec, _, _ := invoke(t, "Bearer "+signed)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("non numeric subject", func(t *testing.T) {
		claims := jwt.MapClaims{
			"sub":  "not-a-number",
			"role": RoleStudent,
			"exp":  time.Now().Add(time.Hour).Unix(),
		}
		signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		require.NoError(t, err)

		rec, _, _ := invoke(t, "Bearer "+signed)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestSubjectIDUnauthenticated(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	assert.Equal(t, uint64(0), SubjectID(c))
	assert.Equal(t, "", Role(c))
}
