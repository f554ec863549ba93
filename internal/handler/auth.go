package handler

import (
	"context"      // provides context with cancellation for DB calls
	"database/sql" // SQL database interactions
	"net/http"     // HTTP status codes and primitives
	"strings"      // string manipulation utilities
	"time"         // timeouts for DB calls

	"github.com/labstack/echo/v4" // Echo framework for HTTP routing

	"github.com/einsicht/review-scheduler/internal/config"     // app configuration
	"github.com/einsicht/review-scheduler/internal/middleware" // role constants and claim helpers
	"github.com/einsicht/review-scheduler/internal/model"
	"github.com/einsicht/review-scheduler/internal/repository" // DB repositories
	"github.com/einsicht/review-scheduler/internal/utils"      // helper functions (hashing, token issuing)
)

// AuthHandler bundles dependencies for auth endpoints.  Identity is
// established through an upstream identity provider; clients exchange
// their provider subject (google_id) for a token pair.  Verifying the
// provider's assertion happens at the gateway, not here.
type AuthHandler struct {
	Cfg       config.Config
	Students  *repository.StudentRepo
	Employees *repository.EmployeeRepo
	Admins    *repository.AdminRepo
	Tokens    *repository.TokenRepo
}

func NewAuthHandler(cfg config.Config, s *repository.StudentRepo, e *repository.EmployeeRepo, a *repository.AdminRepo, t *repository.TokenRepo) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Students: s, Employees: e, Admins: a, Tokens: t}
}

// ----- DTOs -----

type registerReq struct {
	GoogleID            string `json:"google_id"`
	Role                string `json:"role"` // STUDENT | EMPLOYEE
	FirstName           string `json:"first_name"`
	LastName            string `json:"last_name"`
	MatriculationNumber uint32 `json:"matriculation_number"` // students only
}
type loginReq struct {
	GoogleID string `json:"google_id"`
}
type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}
type subjectPart struct {
	ID        uint64 `json:"id"`
	Role      string `json:"role"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}
type authResp struct {
	Subject subjectPart `json:"subject"`
	Access  tokenPart   `json:"access"`
	Refresh tokenPart   `json:"refresh"`
}

// issuePair creates an access/refresh pair and persists the refresh hash.
func (h *AuthHandler) issuePair(ctx context.Context, subjectID uint64, role string) (utils.AccessToken, utils.RefreshToken, error) {
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, subjectID, role, h.Cfg.AccessTTLMin)
	if err != nil {
		return utils.AccessToken{}, utils.RefreshToken{}, err
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return utils.AccessToken{}, utils.RefreshToken{}, err
	}
	if err := h.Tokens.StoreRefresh(ctx, subjectID, role, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return utils.AccessToken{}, utils.RefreshToken{}, err
	}
	return access, refresh, nil
}

// Register: create a student or employee account and return tokens
// immediately.  Administrators are provisioned by other administrators,
// never self-registered.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.GoogleID = strings.TrimSpace(req.GoogleID)
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	if req.GoogleID == "" || req.FirstName == "" || req.LastName == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "google_id/first_name/last_name required"})
	}
	role := strings.ToUpper(strings.TrimSpace(req.Role))
	if role != middleware.RoleStudent && role != middleware.RoleEmployee {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "role must be STUDENT or EMPLOYEE"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	var id uint64
	var err error
	switch role {
	case middleware.RoleStudent:
		if req.MatriculationNumber == 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "matriculation_number required"})
		}
		id, err = h.Students.Create(ctx, &model.Student{
			GoogleID:            req.GoogleID,
			FirstName:           req.FirstName,
			LastName:            req.LastName,
			MatriculationNumber: req.MatriculationNumber,
		})
		if err == repository.ErrStudentExists {
			return c.JSON(http.StatusConflict, echo.Map{"error": "student already exists"})
		}
	case middleware.RoleEmployee:
		id, err = h.Employees.Create(ctx, &model.Employee{
			GoogleID:  req.GoogleID,
			FirstName: req.FirstName,
			LastName:  req.LastName,
		})
		if err == repository.ErrEmployeeExists {
			return c.JSON(http.StatusConflict, echo.Map{"error": "employee already exists"})
		}
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create account failed"})
	}

	access, refresh, err := h.issuePair(ctx, id, role)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue tokens failed"})
	}

	return c.JSON(http.StatusCreated, authResp{
		Subject: subjectPart{ID: id, Role: role, FirstName: req.FirstName, LastName: req.LastName},
		Access:  tokenPart{Token: access.Token, Expires: access.Exp},
		Refresh: tokenPart{Token: refresh.Raw, Expires: refresh.Exp}, // raw back to client
	})
}

// lookupByGoogleID resolves a google_id against the three identity
// tables.  Administrators win over employees, employees over students,
// so a subject present in multiple tables gets its most privileged role.
func (h *AuthHandler) lookupByGoogleID(ctx context.Context, googleID string) (subjectPart, error) {
	if a, err := h.Admins.GetByGoogleID(ctx, googleID); err == nil {
		return subjectPart{ID: a.ID, Role: middleware.RoleAdmin, FirstName: a.FirstName, LastName: a.LastName}, nil
	} else if err != sql.ErrNoRows {
		return subjectPart{}, err
	}
	if e, err := h.Employees.GetByGoogleID(ctx, googleID); err == nil {
		return subjectPart{ID: e.ID, Role: middleware.RoleEmployee, FirstName: e.FirstName, LastName: e.LastName}, nil
	} else if err != sql.ErrNoRows {
		return subjectPart{}, err
	}
	s, err := h.Students.GetByGoogleID(ctx, googleID)
	if err != nil {
		return subjectPart{}, err
	}
	return subjectPart{ID: s.ID, Role: middleware.RoleStudent, FirstName: s.FirstName, LastName: s.LastName}, nil
}

// Login: exchange a google_id for a fresh token pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.GoogleID = strings.TrimSpace(req.GoogleID)
	if req.GoogleID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "google_id required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	sub, err := h.lookupByGoogleID(ctx, req.GoogleID)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unknown account"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	access, refresh, err := h.issuePair(ctx, sub.ID, sub.Role)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue tokens failed"})
	}

	return c.JSON(http.StatusOK, authResp{
		Subject: sub,
		Access:  tokenPart{Token: access.Token, Expires: access.Exp},
		Refresh: tokenPart{Token: refresh.Raw, Expires: refresh.Exp},
	})
}

// Refresh: validate by hash, revoke old, issue new pair (rotation).
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
	}
	hash := utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	subjectID, role, err := h.Tokens.ValidateRefresh(ctx, hash)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
	}
	_ = h.Tokens.RevokeByHash(ctx, hash)

	sub, err := h.loadSubject(ctx, subjectID, role)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
	}

	access, refresh, err := h.issuePair(ctx, subjectID, role)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue tokens failed"})
	}

	return c.JSON(http.StatusOK, authResp{
		Subject: sub,
		Access:  tokenPart{Token: access.Token, Expires: access.Exp},
		Refresh: tokenPart{Token: refresh.Raw, Expires: refresh.Exp},
	})
}

// RefreshAccess: validate a refresh token and return a new access token
// WITHOUT rotating the refresh token.
func (h *AuthHandler) RefreshAccess(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
	}
	hash := utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	subjectID, role, err := h.Tokens.ValidateRefresh(ctx, hash)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
	}
	if _, err := h.loadSubject(ctx, subjectID, role); err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
	}
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, subjectID, role, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"access": tokenPart{Token: access.Token, Expires: access.Exp},
	})
}

// loadSubject fetches the identity row behind a (subjectID, role) pair.
func (h *AuthHandler) loadSubject(ctx context.Context, subjectID uint64, role string) (subjectPart, error) {
	switch role {
	case middleware.RoleAdmin:
		a, err := h.Admins.GetByID(ctx, subjectID)
		if err != nil {
			return subjectPart{}, err
		}
		return subjectPart{ID: a.ID, Role: role, FirstName: a.FirstName, LastName: a.LastName}, nil
	case middleware.RoleEmployee:
		e, err := h.Employees.GetByID(ctx, subjectID)
		if err != nil {
			return subjectPart{}, err
		}
		return subjectPart{ID: e.ID, Role: role, FirstName: e.FirstName, LastName: e.LastName}, nil
	default:
		s, err := h.Students.GetByID(ctx, subjectID)
		if err != nil {
			return subjectPart{}, err
		}
		return subjectPart{ID: s.ID, Role: middleware.RoleStudent, FirstName: s.FirstName, LastName: s.LastName}, nil
	}
}

// Logout supports two modes: with a refresh_token in the body that single
// session is revoked; with only a Bearer access token every session of
// the subject is revoked.  Mounted behind JWTAuth, so claims are already
// in the context for the revoke-all path.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshReq
	_ = c.Bind(&req)
	refreshToken := strings.TrimSpace(req.RefreshToken)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if refreshToken != "" {
		hash := utils.HashRefreshRaw(refreshToken)
		if _, _, err := h.Tokens.ValidateRefresh(ctx, hash); err != nil {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
		}
		if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
		}
		return c.NoContent(http.StatusNoContent)
	}

	subjectID := middleware.SubjectID(c)
	role := middleware.Role(c)
	if subjectID == 0 || role == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "provide Authorization header or refresh_token"})
	}
	if err := h.Tokens.RevokeAllForSubject(ctx, subjectID, role); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// Me: return the authenticated subject's profile.
func (h *AuthHandler) Me(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	subjectID := middleware.SubjectID(c)
	role := middleware.Role(c)

	switch role {
	case middleware.RoleStudent:
		s, err := h.Students.GetByID(ctx, subjectID)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load profile failed"})
		}
		return c.JSON(http.StatusOK, echo.Map{"role": role, "student": s})
	case middleware.RoleEmployee:
		e, err := h.Employees.GetByID(ctx, subjectID)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load profile failed"})
		}
		return c.JSON(http.StatusOK, echo.Map{"role": role, "employee": e})
	case middleware.RoleAdmin:
		a, err := h.Admins.GetByID(ctx, subjectID)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load profile failed"})
		}
		return c.JSON(http.StatusOK, echo.Map{"role": role, "administrator": a})
	}
	return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unknown role"})
}
