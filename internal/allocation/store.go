package allocation

import (
	"context"

	"github.com/einsicht/review-scheduler/internal/model"
)

// Store is the persistence capability the engine needs.  The SQL
// implementation lives in the repository package; tests use an
// in-memory one.
//
// Reserve and Release are the single mutation points for occupancy
// counters and must be atomic with respect to the capacity check:
// Reserve increments only while current < max and returns
// ErrTimeslotFull otherwise, Release decrements only while current > 0
// and is a no-op at zero.  Both must be safe to call concurrently.
type Store interface {
	// Timeslot loads a timeslot by id.  Returns ErrTimeslotNotFound
	// when no such slot exists.
	Timeslot(ctx context.Context, id uint64) (*model.Timeslot, error)

	// StudentExists reports whether a student row with the given id
	// exists.
	StudentExists(ctx context.Context, id uint64) (bool, error)

	// HasEnrollmentInReview reports whether the student holds a seat
	// in any timeslot belonging to the given review.
	HasEnrollmentInReview(ctx context.Context, studentID, reviewID uint64) (bool, error)

	// IsEnrolled reports whether the exact (student, timeslot) pair
	// exists.
	IsEnrolled(ctx context.Context, studentID, timeslotID uint64) (bool, error)

	// AddEnrollment inserts the (student, timeslot) pair.
	AddEnrollment(ctx context.Context, studentID, timeslotID uint64) error

	// RemoveEnrollment deletes the (student, timeslot) pair.
	RemoveEnrollment(ctx context.Context, studentID, timeslotID uint64) error

	// Reserve atomically increments the slot's occupancy while it is
	// below max.  Returns ErrTimeslotFull when the slot is at
	// capacity and ErrTimeslotNotFound when it does not exist.
	Reserve(ctx context.Context, timeslotID uint64) error

	// Release atomically decrements the slot's occupancy while it is
	// above zero.  Releasing an empty slot is a no-op, not an error.
	Release(ctx context.Context, timeslotID uint64) error
}
