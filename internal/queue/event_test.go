package queue

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Consumers outside this repo key off the wire field names, so the
// payload shape is pinned here.
func TestEnrollmentConfirmedEventWireFormat(t *testing.T) {
	ev := EnrollmentConfirmedEvent{
		EventID:      "7c9e6679-7425-40de-944b-e07fc1f90ae7",
		StudentID:    100,
		TimeslotID:   1,
		ReviewID:     10,
		ReviewName:   "Algorithms midterm review",
		Location:     "Room 12",
		SlotStartsAt: "2026-09-01T09:00:00Z",
		Occupancy:    2,
		MaxOccupancy: 5,
		ConfirmedAt:  "2026-08-30T12:00:00Z",
	}
	body, err := json.Marshal(ev)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(body, &out))
	for _, key := range []string{
		"event_id", "student_id", "timeslot_id", "review_id", "review_name",
		"location", "slot_starts_at", "occupancy", "max_occupancy", "confirmed_at",
	} {
		assert.Contains(t, out, key)
	}
	assert.Equal(t, float64(2), out["occupancy"])
	assert.Equal(t, float64(5), out["max_occupancy"])
}
