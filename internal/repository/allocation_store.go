package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/einsicht/review-scheduler/internal/allocation"
	"github.com/einsicht/review-scheduler/internal/model"
)

// AllocationStore is the MySQL implementation of allocation.Store.
// Reserve and Release are single conditional UPDATE statements, so the
// capacity check and the counter change happen in one atomic step at
// the storage engine regardless of how many server processes run.
type AllocationStore struct {
	db *sql.DB
}

// NewAllocationStore returns an AllocationStore bound to the given
// database.
func NewAllocationStore(db *sql.DB) *AllocationStore { return &AllocationStore{db: db} }

var _ allocation.Store = (*AllocationStore)(nil)

// Timeslot loads one slot; allocation.ErrTimeslotNotFound when absent.
func (s *AllocationStore) Timeslot(ctx context.Context, id uint64) (*model.Timeslot, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+timeslotCols+` FROM timeslots WHERE id = ?`, id)
	ts, err := scanTimeslot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, allocation.ErrTimeslotNotFound
	}
	return ts, err
}

// StudentExists reports whether the student row exists.
func (s *AllocationStore) StudentExists(ctx context.Context, id uint64) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM students WHERE id = ?)`, id).Scan(&exists)
	return exists, err
}

// HasEnrollmentInReview reports whether the student holds a seat in
// any timeslot of the review.
func (s *AllocationStore) HasEnrollmentInReview(ctx context.Context, studentID, reviewID uint64) (bool, error) {
	const q = `SELECT EXISTS(
	             SELECT 1 FROM enrollments e
	             JOIN timeslots t ON t.id = e.timeslot_id
	             WHERE e.student_id = ? AND t.review_id = ?)`
	var exists bool
	err := s.db.QueryRowContext(ctx, q, studentID, reviewID).Scan(&exists)
	return exists, err
}

// IsEnrolled reports whether the exact (student, timeslot) pair exists.
func (s *AllocationStore) IsEnrolled(ctx context.Context, studentID, timeslotID uint64) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM enrollments WHERE student_id = ? AND timeslot_id = ?)`,
		studentID, timeslotID).Scan(&exists)
	return exists, err
}

// AddEnrollment inserts the pair.  A duplicate-key error surfaces as
// ErrConflict; the engine checks first, so hitting this means a racing
// writer outside the engine.
func (s *AllocationStore) AddEnrollment(ctx context.Context, studentID, timeslotID uint64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO enrollments (student_id, timeslot_id) VALUES (?, ?)`, studentID, timeslotID)
	if err != nil && isDuplicateKey(err) {
		return ErrConflict
	}
	return err
}

// RemoveEnrollment deletes the pair.  Removing an absent pair is not
// an error here; the engine reports ErrNotEnrolled from its own check.
func (s *AllocationStore) RemoveEnrollment(ctx context.Context, studentID, timeslotID uint64) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM enrollments WHERE student_id = ? AND timeslot_id = ?`, studentID, timeslotID)
	return err
}

// Reserve takes one seat: increment while below max, in one statement.
// Zero affected rows means either the slot is full or it does not
// exist; one extra read tells the two apart.
func (s *AllocationStore) Reserve(ctx context.Context, timeslotID uint64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE timeslots SET current_occupancy = current_occupancy + 1
		 WHERE id = ? AND current_occupancy < max_occupancy`, timeslotID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}
	var exists bool
	if err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM timeslots WHERE id = ?)`, timeslotID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return allocation.ErrTimeslotNotFound
	}
	return allocation.ErrTimeslotFull
}

// Release gives one seat back: decrement while above zero.  An
// already-empty slot stays at zero.
func (s *AllocationStore) Release(ctx context.Context, timeslotID uint64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE timeslots SET current_occupancy = current_occupancy - 1
		 WHERE id = ? AND current_occupancy > 0`, timeslotID)
	return err
}
