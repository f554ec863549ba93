package handler

import (
	"database/sql" // sentinel errors from identity repositories
	"net/http"     // HTTP status codes
	"strconv"      // parsing path parameters
	"strings"      // trimming body fields

	"github.com/labstack/echo/v4"

	"github.com/einsicht/review-scheduler/internal/allocation"
	"github.com/einsicht/review-scheduler/internal/middleware"
	"github.com/einsicht/review-scheduler/internal/model"
	"github.com/einsicht/review-scheduler/internal/repository"
)

// AdminHandler bundles the identity repositories for administrator CRUD.
// Deleting a student goes through the allocation engine first so the
// seats they held are released before the rows cascade away.
type AdminHandler struct {
	Students  *repository.StudentRepo
	Employees *repository.EmployeeRepo
	Admins    *repository.AdminRepo
	Engine    *allocation.Engine
}

// NewAdminHandler constructs an AdminHandler and panics on nil deps.
func NewAdminHandler(students *repository.StudentRepo, employees *repository.EmployeeRepo, admins *repository.AdminRepo, engine *allocation.Engine) *AdminHandler {
	if students == nil || employees == nil || admins == nil || engine == nil {
		panic("nil dependency passed to NewAdminHandler")
	}
	return &AdminHandler{Students: students, Employees: employees, Admins: admins, Engine: engine}
}

type identityBody struct {
	GoogleID            string `json:"google_id"`
	FirstName           string `json:"first_name"`
	LastName            string `json:"last_name"`
	MatriculationNumber uint32 `json:"matriculation_number"` // students only
}

func (b *identityBody) trim() string {
	b.GoogleID = strings.TrimSpace(b.GoogleID)
	b.FirstName = strings.TrimSpace(b.FirstName)
	b.LastName = strings.TrimSpace(b.LastName)
	if b.GoogleID == "" || b.FirstName == "" || b.LastName == "" {
		return "google_id/first_name/last_name required"
	}
	return ""
}

func pathID(c echo.Context) (uint64, error) {
	return strconv.ParseUint(c.Param("id"), 10, 64)
}

// ----- students -----

// ListStudents handles GET /v1/admin/students.
func (h *AdminHandler) ListStudents(c echo.Context) error {
	students, err := h.Students.ListAll(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": students})
}

// CreateStudent handles POST /v1/admin/students.
func (h *AdminHandler) CreateStudent(c echo.Context) error {
	var body identityBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if msg := body.trim(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	if body.MatriculationNumber == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "matriculation_number required"})
	}
	id, err := h.Students.Create(c.Request().Context(), &model.Student{
		GoogleID:            body.GoogleID,
		FirstName:           body.FirstName,
		LastName:            body.LastName,
		MatriculationNumber: body.MatriculationNumber,
	})
	if err != nil {
		if err == repository.ErrStudentExists {
			return c.JSON(http.StatusConflict, echo.Map{"error": "student already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create failed"})
	}
	s, err := h.Students.GetByID(c.Request().Context(), id)
	if err != nil {
		return c.JSON(http.StatusCreated, echo.Map{"id": id})
	}
	return c.JSON(http.StatusCreated, s)
}

// GetStudent handles GET /v1/admin/students/:id.
func (h *AdminHandler) GetStudent(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	s, err := h.Students.GetByID(c.Request().Context(), id)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "student not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, s)
}

// UpdateStudent handles PUT /v1/admin/students/:id.
func (h *AdminHandler) UpdateStudent(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var body identityBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if msg := body.trim(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	if body.MatriculationNumber == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "matriculation_number required"})
	}
	s, err := h.Students.UpdateByID(c.Request().Context(), id, &model.Student{
		GoogleID:            body.GoogleID,
		FirstName:           body.FirstName,
		LastName:            body.LastName,
		MatriculationNumber: body.MatriculationNumber,
	})
	if err != nil {
		switch err {
		case repository.ErrStudentExists:
			return c.JSON(http.StatusConflict, echo.Map{"error": "student already exists"})
		case sql.ErrNoRows:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "student not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, s)
}

// DeleteStudent handles DELETE /v1/admin/students/:id.  Held seats are
// released through the engine before the row is removed so occupancy
// counters stay consistent with the cascading enrollment deletes.
func (h *AdminHandler) DeleteStudent(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx := c.Request().Context()
	held, err := h.Students.TimeslotsHeldByStudent(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	for _, slotID := range held {
		if err := h.Engine.SignOut(ctx, id, slotID); err != nil && err != allocation.ErrNotEnrolled {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to release seats"})
		}
	}
	if err := h.Students.DeleteByID(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "student not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// ----- employees -----

// ListEmployees handles GET /v1/admin/employees.
func (h *AdminHandler) ListEmployees(c echo.Context) error {
	employees, err := h.Employees.ListAll(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": employees})
}

// CreateEmployee handles POST /v1/admin/employees.
func (h *AdminHandler) CreateEmployee(c echo.Context) error {
	var body identityBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if msg := body.trim(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	id, err := h.Employees.Create(c.Request().Context(), &model.Employee{
		GoogleID:  body.GoogleID,
		FirstName: body.FirstName,
		LastName:  body.LastName,
	})
	if err != nil {
		if err == repository.ErrEmployeeExists {
			return c.JSON(http.StatusConflict, echo.Map{"error": "employee already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create failed"})
	}
	e, err := h.Employees.GetByID(c.Request().Context(), id)
	if err != nil {
		return c.JSON(http.StatusCreated, echo.Map{"id": id})
	}
	return c.JSON(http.StatusCreated, e)
}

// GetEmployee handles GET /v1/admin/employees/:id.
func (h *AdminHandler) GetEmployee(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	e, err := h.Employees.GetByID(c.Request().Context(), id)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "employee not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, e)
}

// UpdateEmployee handles PUT /v1/admin/employees/:id.
func (h *AdminHandler) UpdateEmployee(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var body identityBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if msg := body.trim(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	e, err := h.Employees.UpdateByID(c.Request().Context(), id, &model.Employee{
		GoogleID:  body.GoogleID,
		FirstName: body.FirstName,
		LastName:  body.LastName,
	})
	if err != nil {
		switch err {
		case repository.ErrEmployeeExists:
			return c.JSON(http.StatusConflict, echo.Map{"error": "employee already exists"})
		case sql.ErrNoRows:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "employee not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, e)
}

// VerifyEmployee handles POST /v1/admin/employees/:id/verify.  The body
// may carry {"verified": false} to revoke; the default is to verify.
func (h *AdminHandler) VerifyEmployee(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	body := struct {
		Verified *bool `json:"verified"`
	}{}
	_ = c.Bind(&body)
	verified := true
	if body.Verified != nil {
		verified = *body.Verified
	}
	if err := h.Employees.SetVerified(c.Request().Context(), id, verified); err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "employee not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	e, err := h.Employees.GetByID(c.Request().Context(), id)
	if err != nil {
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSON(http.StatusOK, e)
}

// DeleteEmployee handles DELETE /v1/admin/employees/:id.
func (h *AdminHandler) DeleteEmployee(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.Employees.DeleteByID(c.Request().Context(), id); err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "employee not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// ----- administrators -----

// ListAdmins handles GET /v1/admin/administrators.
func (h *AdminHandler) ListAdmins(c echo.Context) error {
	admins, err := h.Admins.ListAll(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": admins})
}

// CreateAdmin handles POST /v1/admin/administrators.
func (h *AdminHandler) CreateAdmin(c echo.Context) error {
	var body identityBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if msg := body.trim(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	id, err := h.Admins.Create(c.Request().Context(), &model.Administrator{
		GoogleID:  body.GoogleID,
		FirstName: body.FirstName,
		LastName:  body.LastName,
	})
	if err != nil {
		if err == repository.ErrAdminExists {
			return c.JSON(http.StatusConflict, echo.Map{"error": "administrator already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create failed"})
	}
	a, err := h.Admins.GetByID(c.Request().Context(), id)
	if err != nil {
		return c.JSON(http.StatusCreated, echo.Map{"id": id})
	}
	return c.JSON(http.StatusCreated, a)
}

// DeleteAdmin handles DELETE /v1/admin/administrators/:id.  An admin
// cannot delete their own account, so there is always at least one left.
func (h *AdminHandler) DeleteAdmin(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if id == middleware.SubjectID(c) {
		return c.JSON(http.StatusConflict, echo.Map{"error": "cannot delete own account"})
	}
	if err := h.Admins.DeleteByID(c.Request().Context(), id); err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "administrator not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
