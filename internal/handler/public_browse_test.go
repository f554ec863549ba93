package handler

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/einsicht/review-scheduler/internal/model"
)

func TestPublicEmployeeHidesInternals(t *testing.T) {
	e := model.Employee{
		ID:        7,
		GoogleID:  "google-sub-123",
		FirstName: "Ada",
		LastName:  "Lovelace",
		Verified:  true,
	}
	body, err := json.Marshal(publicEmployee(e))
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, float64(7), out["id"])
	assert.Equal(t, "Ada", out["first_name"])
	assert.Equal(t, "Lovelace", out["last_name"])
	assert.NotContains(t, out, "google_id")
	assert.NotContains(t, out, "verified")
}

func TestPublicReviewHidesCreator(t *testing.T) {
	rv := model.Review{
		ID:        3,
		Name:      "Algorithms midterm review",
		Location:  "Room 12",
		StartTime: time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC),
		CreatorID: 7,
	}
	body, err := json.Marshal(publicReview(rv))
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, "Algorithms midterm review", out["name"])
	assert.NotContains(t, out, "creator_id")
}

func TestPublicTimeslotSeatsLeft(t *testing.T) {
	t.Run("derived from occupancy", func(t *testing.T) {
		ts := model.Timeslot{ID: 1, MaxOccupancy: 5, CurrentOccupancy: 2}
		assert.Equal(t, uint32(3), publicTimeslot(ts).SeatsLeft)
	})

	t.Run("never underflows", func(t *testing.T) {
		// Occupancy above max cannot be produced by the engine, but a
		// manual database edit must not wrap the public counter.
		ts := model.Timeslot{ID: 1, MaxOccupancy: 2, CurrentOccupancy: 3}
		assert.Equal(t, uint32(0), publicTimeslot(ts).SeatsLeft)
	})
}
