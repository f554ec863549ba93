package handler // handler defines http handlers

import (
	"database/sql" // sql sentinel errors during lookups
	"net/http"     // http defines status codes
	"strconv"      // strconv converts path params to integers
	"strings"      // strings helps with trimming whitespace
	"time"         // time is used for parsing and formatting timestamps

	"github.com/labstack/echo/v4" // echo provides the web context and JSON helpers

	"github.com/einsicht/review-scheduler/internal/allocation"
	"github.com/einsicht/review-scheduler/internal/middleware"
	"github.com/einsicht/review-scheduler/internal/model"
	"github.com/einsicht/review-scheduler/internal/repository"
)

// EmployeeHandler bundles repositories for employees to manage their
// reviews and timeslots.
type EmployeeHandler struct {
	Reviews   *repository.ReviewRepo
	Timeslots *repository.TimeslotRepo
	Employees *repository.EmployeeRepo
}

// NewEmployeeHandler constructs a new EmployeeHandler and panics if any
// dependency is nil.
func NewEmployeeHandler(reviews *repository.ReviewRepo, timeslots *repository.TimeslotRepo, employees *repository.EmployeeRepo) *EmployeeHandler {
	if reviews == nil || timeslots == nil || employees == nil {
		panic("nil repository passed to NewEmployeeHandler")
	}
	return &EmployeeHandler{Reviews: reviews, Timeslots: timeslots, Employees: employees}
}

// requireVerified loads the calling employee and checks the verified
// flag.  Admins skip the check.  Returns the subject id, or writes the
// error response and returns 0.
func (h *EmployeeHandler) requireVerified(c echo.Context) (uint64, error) {
	id := middleware.SubjectID(c)
	if id == 0 {
		return 0, c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	if middleware.Role(c) == middleware.RoleAdmin {
		return id, nil
	}
	e, err := h.Employees.GetByID(c.Request().Context(), id)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
		}
		return 0, c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load employee"})
	}
	if !e.Verified {
		return 0, c.JSON(http.StatusForbidden, echo.Map{"error": "employee not verified"})
	}
	return id, nil
}

type reviewBody struct {
	Name        string `json:"name"`
	Location    string `json:"location"`
	StartTime   string `json:"start_time"` // RFC3339
	SlotLength  uint32 `json:"slot_length"`
	SlotCount   uint32 `json:"slot_count"`
	Description string `json:"description"`
}

func (b *reviewBody) validate() (time.Time, string) {
	b.Name = strings.TrimSpace(b.Name)
	b.Location = strings.TrimSpace(b.Location)
	if b.Name == "" {
		return time.Time{}, "name is required"
	}
	if b.Location == "" {
		return time.Time{}, "location is required"
	}
	if b.SlotLength == 0 || b.SlotCount == 0 {
		return time.Time{}, "slot_length and slot_count must be positive"
	}
	start, err := time.Parse(time.RFC3339, strings.TrimSpace(b.StartTime))
	if err != nil {
		return time.Time{}, "invalid start_time format"
	}
	return start.UTC(), ""
}

// CreateReview handles POST /v1/reviews.
func (h *EmployeeHandler) CreateReview(c echo.Context) error {
	employeeID, err := h.requireVerified(c)
	if employeeID == 0 {
		return err
	}
	var body reviewBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	start, msg := body.validate()
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	rv, err := h.Reviews.Create(c.Request().Context(), &model.Review{
		Name:        body.Name,
		Location:    body.Location,
		StartTime:   start,
		SlotLength:  body.SlotLength,
		SlotCount:   body.SlotCount,
		CreatorID:   employeeID,
		Description: body.Description,
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create review"})
	}
	return c.JSON(http.StatusCreated, rv)
}

// ListMyReviews handles GET /v1/reviews/mine and returns the reviews
// created by the calling employee.
func (h *EmployeeHandler) ListMyReviews(c echo.Context) error {
	employeeID, err := h.requireVerified(c)
	if employeeID == 0 {
		return err
	}
	reviews, err := h.Reviews.ListByCreator(c.Request().Context(), employeeID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load reviews"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": reviews})
}

// UpdateReview handles PUT /v1/reviews/:id.  Only the creator may update.
func (h *EmployeeHandler) UpdateReview(c echo.Context) error {
	employeeID, err := h.requireVerified(c)
	if employeeID == 0 {
		return err
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var body reviewBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	start, msg := body.validate()
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	rv, err := h.Reviews.UpdateByID(c.Request().Context(), id, employeeID, &model.Review{
		Name:        body.Name,
		Location:    body.Location,
		StartTime:   start,
		SlotLength:  body.SlotLength,
		SlotCount:   body.SlotCount,
		Description: body.Description,
	})
	if err != nil {
		switch err {
		case repository.ErrReviewNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "review not found"})
		case repository.ErrForbidden:
			return c.JSON(http.StatusForbidden, echo.Map{"error": "not the creator of this review"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, rv)
}

// DeleteReview handles DELETE /v1/reviews/:id.  Timeslots and
// enrollments cascade away with the review.
func (h *EmployeeHandler) DeleteReview(c echo.Context) error {
	employeeID, err := h.requireVerified(c)
	if employeeID == 0 {
		return err
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.Reviews.DeleteByID(c.Request().Context(), id, employeeID); err != nil {
		switch err {
		case repository.ErrReviewNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "review not found"})
		case repository.ErrForbidden:
			return c.JSON(http.StatusForbidden, echo.Map{"error": "not the creator of this review"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// StudentsForReview handles GET /v1/reviews/:id/students and lists every
// student enrolled anywhere in the review.
func (h *EmployeeHandler) StudentsForReview(c echo.Context) error {
	employeeID, err := h.requireVerified(c)
	if employeeID == 0 {
		return err
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if _, err := h.Reviews.GetByID(c.Request().Context(), id); err != nil {
		if err == repository.ErrReviewNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "review not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load review"})
	}
	students, err := h.Reviews.StudentsForReview(c.Request().Context(), id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load students"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": students})
}

// ----- timeslots -----

type timeslotBody struct {
	StartTime    string `json:"start_time"` // RFC3339
	Duration     uint32 `json:"duration"`
	MaxOccupancy uint32 `json:"max_occupancy"`
}

func (b *timeslotBody) validate() (time.Time, string) {
	if b.Duration == 0 {
		return time.Time{}, "duration must be positive"
	}
	if b.MaxOccupancy == 0 {
		return time.Time{}, "max_occupancy must be positive"
	}
	start, err := time.Parse(time.RFC3339, strings.TrimSpace(b.StartTime))
	if err != nil {
		return time.Time{}, "invalid start_time format"
	}
	return start.UTC(), ""
}

// ownsReview verifies the calling employee created the review.
func (h *EmployeeHandler) ownsReview(c echo.Context, reviewID, employeeID uint64) error {
	rv, err := h.Reviews.GetByID(c.Request().Context(), reviewID)
	if err != nil {
		if err == repository.ErrReviewNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "review not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load review"})
	}
	if rv.CreatorID != employeeID && middleware.Role(c) != middleware.RoleAdmin {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not the creator of this review"})
	}
	return nil
}

// CreateTimeslot handles POST /v1/reviews/:id/timeslots.
func (h *EmployeeHandler) CreateTimeslot(c echo.Context) error {
	employeeID, err := h.requireVerified(c)
	if employeeID == 0 {
		return err
	}
	reviewID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.ownsReview(c, reviewID, employeeID); err != nil {
		return err
	}
	var body timeslotBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	start, msg := body.validate()
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	ts, err := h.Timeslots.CreateForReview(c.Request().Context(), reviewID, &model.Timeslot{
		StartTime:    start,
		Duration:     body.Duration,
		MaxOccupancy: body.MaxOccupancy,
	})
	if err != nil {
		if err == repository.ErrReviewNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "review not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create timeslot"})
	}
	return c.JSON(http.StatusCreated, ts)
}

// GenerateTimeslots handles POST /v1/reviews/:id/timeslots/generate and
// bulk-creates the review's slot grid: slot_count consecutive slots of
// slot_length minutes starting at the review's start_time.
func (h *EmployeeHandler) GenerateTimeslots(c echo.Context) error {
	employeeID, err := h.requireVerified(c)
	if employeeID == 0 {
		return err
	}
	reviewID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	rv, err := h.Reviews.GetByID(c.Request().Context(), reviewID)
	if err != nil {
		if err == repository.ErrReviewNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "review not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load review"})
	}
	if rv.CreatorID != employeeID && middleware.Role(c) != middleware.RoleAdmin {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not the creator of this review"})
	}
	var body struct {
		MaxOccupancy uint32 `json:"max_occupancy"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.MaxOccupancy == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "max_occupancy must be positive"})
	}
	existing, err := h.Timeslots.ListForReview(c.Request().Context(), reviewID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load timeslots"})
	}
	if len(existing) > 0 {
		return c.JSON(http.StatusConflict, echo.Map{"error": "review already has timeslots"})
	}
	slots := make([]model.Timeslot, 0, rv.SlotCount)
	for i := uint32(0); i < rv.SlotCount; i++ {
		slots = append(slots, model.Timeslot{
			StartTime:    rv.StartTime.Add(time.Duration(i) * time.Duration(rv.SlotLength) * time.Minute),
			Duration:     rv.SlotLength,
			MaxOccupancy: body.MaxOccupancy,
		})
	}
	if err := h.Timeslots.CreateBulk(c.Request().Context(), reviewID, slots); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create timeslots"})
	}
	created, err := h.Timeslots.ListForReview(c.Request().Context(), reviewID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load timeslots"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"items": created})
}

// UpdateTimeslot handles PUT /v1/reviews/:id/timeslots/:slot_id.
// Shrinking max_occupancy below the current occupancy is rejected.
func (h *EmployeeHandler) UpdateTimeslot(c echo.Context) error {
	employeeID, err := h.requireVerified(c)
	if employeeID == 0 {
		return err
	}
	reviewID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	slotID, err := strconv.ParseUint(c.Param("slot_id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid slot_id"})
	}
	if err := h.ownsReview(c, reviewID, employeeID); err != nil {
		return err
	}
	var body timeslotBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	start, msg := body.validate()
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	ts, err := h.Timeslots.UpdateForReview(c.Request().Context(), reviewID, slotID, &model.Timeslot{
		StartTime:    start,
		Duration:     body.Duration,
		MaxOccupancy: body.MaxOccupancy,
	})
	if err != nil {
		switch err {
		case allocation.ErrTimeslotNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "timeslot not found"})
		case repository.ErrConflict:
			return c.JSON(http.StatusConflict, echo.Map{"error": "max_occupancy below current occupancy"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, ts)
}

// DeleteTimeslot handles DELETE /v1/reviews/:id/timeslots/:slot_id.
func (h *EmployeeHandler) DeleteTimeslot(c echo.Context) error {
	employeeID, err := h.requireVerified(c)
	if employeeID == 0 {
		return err
	}
	reviewID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	slotID, err := strconv.ParseUint(c.Param("slot_id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid slot_id"})
	}
	if err := h.ownsReview(c, reviewID, employeeID); err != nil {
		return err
	}
	if err := h.Timeslots.DeleteForReview(c.Request().Context(), reviewID, slotID); err != nil {
		if err == allocation.ErrTimeslotNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "timeslot not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// StudentsForTimeslot handles GET /v1/reviews/:id/timeslots/:slot_id/students.
func (h *EmployeeHandler) StudentsForTimeslot(c echo.Context) error {
	employeeID, err := h.requireVerified(c)
	if employeeID == 0 {
		return err
	}
	reviewID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	slotID, err := strconv.ParseUint(c.Param("slot_id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid slot_id"})
	}
	if err := h.ownsReview(c, reviewID, employeeID); err != nil {
		return err
	}
	if _, err := h.Timeslots.GetForReview(c.Request().Context(), reviewID, slotID); err != nil {
		if err == allocation.ErrTimeslotNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "timeslot not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load timeslot"})
	}
	students, err := h.Timeslots.StudentsForTimeslot(c.Request().Context(), slotID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load students"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": students})
}
