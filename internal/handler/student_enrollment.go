package handler

import (
	"context"  // background context for fire-and-forget publishing
	"net/http" // HTTP status codes
	"strconv"  // parsing path parameters
	"time"     // working with timestamps

	"github.com/google/uuid"      // event ids for broker messages
	"github.com/labstack/echo/v4" // Echo web framework
	"go.uber.org/zap"

	"github.com/einsicht/review-scheduler/internal/allocation"
	"github.com/einsicht/review-scheduler/internal/middleware"
	"github.com/einsicht/review-scheduler/internal/queue"
	"github.com/einsicht/review-scheduler/internal/repository"
	queue_publisher "github.com/einsicht/review-scheduler/internal/service"
)

// StudentHandler groups the allocation engine and repositories needed
// for students to manage their seat in a review.  All methods assume
// JWT authentication and role validation has already been performed by
// middleware.  Capacity accounting is delegated entirely to the engine;
// handlers only translate its errors into HTTP responses.
type StudentHandler struct {
	Engine    *allocation.Engine
	Reviews   *repository.ReviewRepo
	Timeslots *repository.TimeslotRepo
	Students  *repository.StudentRepo
	Log       *zap.Logger
}

// NewStudentHandler constructs a StudentHandler.  The engine and
// repositories must be non-nil; the logger may be nil.
func NewStudentHandler(engine *allocation.Engine, reviews *repository.ReviewRepo, timeslots *repository.TimeslotRepo, students *repository.StudentRepo, log *zap.Logger) *StudentHandler {
	if engine == nil || reviews == nil || timeslots == nil || students == nil {
		panic("nil dependency passed to NewStudentHandler")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &StudentHandler{Engine: engine, Reviews: reviews, Timeslots: timeslots, Students: students, Log: log}
}

// allocationStatus maps engine errors onto HTTP responses.
func allocationStatus(err error) (int, string) {
	switch err {
	case allocation.ErrTimeslotNotFound:
		return http.StatusNotFound, "timeslot not found"
	case allocation.ErrStudentNotFound:
		return http.StatusNotFound, "student not found"
	case allocation.ErrTimeslotFull:
		return http.StatusConflict, "timeslot is full"
	case allocation.ErrAlreadyEnrolled:
		return http.StatusConflict, "already enrolled in this review"
	case allocation.ErrNotEnrolled:
		return http.StatusConflict, "not enrolled in this timeslot"
	}
	return http.StatusInternalServerError, "allocation failed"
}

// SignUp handles POST /v1/timeslots/:id/signup.  On success an
// enrollment.confirmed event is published; publish failures are logged
// and never affect the response.
func (h *StudentHandler) SignUp(c echo.Context) error {
	studentID := middleware.SubjectID(c)
	if studentID == 0 {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	timeslotID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || timeslotID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid timeslot id"})
	}

	if err := h.Engine.SignUp(c.Request().Context(), studentID, timeslotID); err != nil {
		code, msg := allocationStatus(err)
		return c.JSON(code, echo.Map{"error": msg})
	}

	go h.publishConfirmed(studentID, timeslotID)

	ts, err := h.Timeslots.GetByID(c.Request().Context(), timeslotID)
	if err != nil {
		return c.JSON(http.StatusCreated, echo.Map{"timeslot_id": timeslotID})
	}
	return c.JSON(http.StatusCreated, ts)
}

// SignOut handles POST /v1/timeslots/:id/signout.
func (h *StudentHandler) SignOut(c echo.Context) error {
	studentID := middleware.SubjectID(c)
	if studentID == 0 {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	timeslotID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || timeslotID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid timeslot id"})
	}
	if err := h.Engine.SignOut(c.Request().Context(), studentID, timeslotID); err != nil {
		code, msg := allocationStatus(err)
		return c.JSON(code, echo.Map{"error": msg})
	}
	return c.NoContent(http.StatusNoContent)
}

// Transfer handles POST /v1/timeslots/:id/transfer.  The path id is the
// currently held slot; the body names the destination.  The seat in the
// old slot is only given up once the new one is secured.
func (h *StudentHandler) Transfer(c echo.Context) error {
	studentID := middleware.SubjectID(c)
	if studentID == 0 {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	oldID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || oldID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid timeslot id"})
	}
	var body struct {
		NewTimeslotID uint64 `json:"new_timeslot_id"`
	}
	if err := c.Bind(&body); err != nil || body.NewTimeslotID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "new_timeslot_id is required"})
	}

	if err := h.Engine.Transfer(c.Request().Context(), studentID, oldID, body.NewTimeslotID); err != nil {
		code, msg := allocationStatus(err)
		return c.JSON(code, echo.Map{"error": msg})
	}

	go h.publishConfirmed(studentID, body.NewTimeslotID)

	ts, err := h.Timeslots.GetByID(c.Request().Context(), body.NewTimeslotID)
	if err != nil {
		return c.JSON(http.StatusOK, echo.Map{"timeslot_id": body.NewTimeslotID})
	}
	return c.JSON(http.StatusOK, ts)
}

// MyReviews handles GET /v1/me/reviews and lists reviews where the
// student holds a seat.
func (h *StudentHandler) MyReviews(c echo.Context) error {
	studentID := middleware.SubjectID(c)
	if studentID == 0 {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	reviews, err := h.Students.ReviewsForStudent(c.Request().Context(), studentID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load reviews"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": reviews})
}

// MyTimeslots handles GET /v1/me/timeslots and lists the student's
// currently held slots.
func (h *StudentHandler) MyTimeslots(c echo.Context) error {
	studentID := middleware.SubjectID(c)
	if studentID == 0 {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	slots, err := h.Timeslots.ListForStudent(c.Request().Context(), studentID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load timeslots"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": slots})
}

// publishConfirmed assembles and publishes an enrollment.confirmed
// event.  Runs outside the request path; uses its own timeout.
func (h *StudentHandler) publishConfirmed(studentID, timeslotID uint64) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	ts, err := h.Timeslots.GetByID(ctx, timeslotID)
	if err != nil {
		h.Log.Warn("publish enrollment.confirmed: load timeslot failed",
			zap.Uint64("timeslot_id", timeslotID), zap.Error(err))
		return
	}
	rv, err := h.Reviews.GetByID(ctx, ts.ReviewID)
	if err != nil {
		h.Log.Warn("publish enrollment.confirmed: load review failed",
			zap.Uint64("review_id", ts.ReviewID), zap.Error(err))
		return
	}

	ev := queue.EnrollmentConfirmedEvent{
		EventID:      uuid.NewString(),
		StudentID:    studentID,
		TimeslotID:   timeslotID,
		ReviewID:     rv.ID,
		ReviewName:   rv.Name,
		Location:     rv.Location,
		SlotStartsAt: ts.StartTime.UTC().Format(time.RFC3339),
		Occupancy:    ts.CurrentOccupancy,
		MaxOccupancy: ts.MaxOccupancy,
		ConfirmedAt:  time.Now().UTC().Format(time.RFC3339),
	}
	if err := queue_publisher.PublishEnrollmentConfirmed(ctx, ev); err != nil {
		h.Log.Warn("publish enrollment.confirmed failed",
			zap.String("event_id", ev.EventID), zap.Error(err))
	}
}
