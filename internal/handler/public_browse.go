// Package handler exposes HTTP handlers for both authenticated and public endpoints.
// This file defines handlers for the public browsing API. These routes allow
// unauthenticated users to browse reviews and their timeslots without
// requiring authentication. Sensitive fields (creator IDs, timestamps)
// are filtered from responses.

package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/einsicht/review-scheduler/internal/model"
	"github.com/einsicht/review-scheduler/internal/repository"
)

// PublicHandler aggregates repositories needed for unauthenticated browsing.
// It produces sanitized responses suitable for public consumption.
type PublicHandler struct {
	ReviewRepo   *repository.ReviewRepo   // provides access to review data
	TimeslotRepo *repository.TimeslotRepo // provides access to timeslot data
}

// PublicReview represents a review exposed via the public API.  It
// contains only safe fields.
type PublicReview struct {
	ID          uint64    `json:"id"`
	Name        string    `json:"name"`
	Location    string    `json:"location"`
	StartTime   time.Time `json:"start_time"`
	Description string    `json:"description"`
}

// PublicTimeslot represents a timeslot in public responses.  Seats left
// is derived so clients never see raw occupancy bookkeeping.
type PublicTimeslot struct {
	ID           uint64    `json:"id"`
	StartTime    time.Time `json:"start_time"`
	Duration     uint32    `json:"duration"`
	MaxOccupancy uint32    `json:"max_occupancy"`
	SeatsLeft    uint32    `json:"seats_left"`
}

// PublicEmployee is the contact card shown for a review's organizer.
// The google_id and verification flag stay internal.
type PublicEmployee struct {
	ID        uint64 `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

func publicEmployee(e model.Employee) PublicEmployee {
	return PublicEmployee{ID: e.ID, FirstName: e.FirstName, LastName: e.LastName}
}

func publicReview(rv model.Review) PublicReview {
	return PublicReview{
		ID:          rv.ID,
		Name:        rv.Name,
		Location:    rv.Location,
		StartTime:   rv.StartTime,
		Description: rv.Description,
	}
}

func publicTimeslot(ts model.Timeslot) PublicTimeslot {
	left := uint32(0)
	if ts.MaxOccupancy > ts.CurrentOccupancy {
		left = ts.MaxOccupancy - ts.CurrentOccupancy
	}
	return PublicTimeslot{
		ID:           ts.ID,
		StartTime:    ts.StartTime,
		Duration:     ts.Duration,
		MaxOccupancy: ts.MaxOccupancy,
		SeatsLeft:    left,
	}
}

// GetPublicReviews returns all reviews.  Response JSON contains an
// "items" array of PublicReview.
func (h *PublicHandler) GetPublicReviews(c echo.Context) error {
	reviews, err := h.ReviewRepo.ListAll(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]PublicReview, 0, len(reviews))
	for _, rv := range reviews {
		out = append(out, publicReview(rv))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// SearchReviews handles GET /v1/reviews/search?q=...  The query is split
// on whitespace and a review matches when any keyword appears in its
// name, location or description.  Each review appears at most once
// regardless of how many keywords hit it.
func (h *PublicHandler) SearchReviews(c echo.Context) error {
	q := strings.TrimSpace(c.QueryParam("q"))
	keywords := strings.Fields(q)
	reviews, err := h.ReviewRepo.SearchByKeywords(c.Request().Context(), keywords)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]PublicReview, 0, len(reviews))
	for _, rv := range reviews {
		out = append(out, publicReview(rv))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// GetPublicReview returns a single review by id.
func (h *PublicHandler) GetPublicReview(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	rv, err := h.ReviewRepo.GetByID(c.Request().Context(), id)
	if err != nil {
		if err == repository.ErrReviewNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "review not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, publicReview(*rv))
}

// GetReviewEmployee returns the employee who organizes the review.
func (h *PublicHandler) GetReviewEmployee(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	e, err := h.ReviewRepo.EmployeeForReview(c.Request().Context(), id)
	if err != nil {
		if err == repository.ErrReviewNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "review not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, publicEmployee(e))
}

// GetPublicTimeslots lists a review's timeslots with remaining capacity.
func (h *PublicHandler) GetPublicTimeslots(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if _, err := h.ReviewRepo.GetByID(c.Request().Context(), id); err != nil {
		if err == repository.ErrReviewNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "review not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	slots, err := h.TimeslotRepo.ListForReview(c.Request().Context(), id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]PublicTimeslot, 0, len(slots))
	for _, ts := range slots {
		out = append(out, publicTimeslot(ts))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}
