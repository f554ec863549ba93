package allocation

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Engine enforces the one-seat-per-review and capacity invariants on
// top of a Store.  Mutating entry points serialize on two striped lock
// tables: per-slot locks guard occupancy, and per-student locks guard
// the one-seat-per-review check, which would otherwise be a
// check-then-act race when the same student hits two different slots
// of one review concurrently.  Student locks are always taken before
// slot locks.  Read paths elsewhere in the system deliberately bypass
// these locks and tolerate momentarily stale occupancy counts.
type Engine struct {
	store    Store
	slots    stripedLocks
	students stripedLocks
	log      *zap.Logger
}

// NewEngine returns an Engine bound to the given store.  A nil logger
// is replaced with a no-op one so call sites in tests stay short.
func NewEngine(store Store, log *zap.Logger) *Engine {
	if store == nil {
		panic("nil store passed to NewEngine")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{store: store, log: log}
}

// SignUp gives the student a seat in the timeslot.  It fails with
// ErrTimeslotNotFound or ErrStudentNotFound when a reference is
// dangling, ErrAlreadyEnrolled when the student already holds a seat
// in any slot of the same review (including this one), and
// ErrTimeslotFull when the slot is at capacity.
func (e *Engine) SignUp(ctx context.Context, studentID, timeslotID uint64) error {
	unlockStudent := e.students.lock(studentID)
	defer unlockStudent()
	unlock := e.slots.lock(timeslotID)
	defer unlock()

	ts, err := e.store.Timeslot(ctx, timeslotID)
	if err != nil {
		return err
	}
	ok, err := e.store.StudentExists(ctx, studentID)
	if err != nil {
		return fmt.Errorf("check student: %w", err)
	}
	if !ok {
		return ErrStudentNotFound
	}
	enrolled, err := e.store.HasEnrollmentInReview(ctx, studentID, ts.ReviewID)
	if err != nil {
		return fmt.Errorf("check enrollment: %w", err)
	}
	if enrolled {
		return ErrAlreadyEnrolled
	}

	// Take the seat before inserting the enrollment row; Reserve is
	// the atomic capacity check.
	if err := e.store.Reserve(ctx, timeslotID); err != nil {
		return err
	}
	if err := e.store.AddEnrollment(ctx, studentID, timeslotID); err != nil {
		// Give the seat back so a failed insert cannot leak capacity.
		if relErr := e.store.Release(ctx, timeslotID); relErr != nil {
			e.log.Error("compensating release failed",
				zap.Uint64("timeslot_id", timeslotID),
				zap.Error(relErr))
		}
		return fmt.Errorf("add enrollment: %w", err)
	}

	e.log.Info("student signed up",
		zap.Uint64("student_id", studentID),
		zap.Uint64("timeslot_id", timeslotID),
		zap.Uint64("review_id", ts.ReviewID))
	return nil
}

// SignOut removes the student's seat in the timeslot.  It fails with
// ErrNotEnrolled when no such enrollment exists.  A successful
// SignOut after a successful SignUp restores the slot to its exact
// prior occupancy.
func (e *Engine) SignOut(ctx context.Context, studentID, timeslotID uint64) error {
	unlock := e.slots.lock(timeslotID)
	defer unlock()

	return e.signOutLocked(ctx, studentID, timeslotID)
}

// signOutLocked is SignOut without lock acquisition, shared with
// Transfer which already holds both slot locks.
func (e *Engine) signOutLocked(ctx context.Context, studentID, timeslotID uint64) error {
	enrolled, err := e.store.IsEnrolled(ctx, studentID, timeslotID)
	if err != nil {
		return fmt.Errorf("check enrollment: %w", err)
	}
	if !enrolled {
		return ErrNotEnrolled
	}
	if err := e.store.RemoveEnrollment(ctx, studentID, timeslotID); err != nil {
		return fmt.Errorf("remove enrollment: %w", err)
	}
	if err := e.store.Release(ctx, timeslotID); err != nil {
		return fmt.Errorf("release seat: %w", err)
	}

	e.log.Info("student signed out",
		zap.Uint64("student_id", studentID),
		zap.Uint64("timeslot_id", timeslotID))
	return nil
}

// Transfer moves the student's seat from one timeslot to another as a
// single logical operation.  The destination's capacity is validated
// before the source seat is touched, so a full destination leaves the
// original enrollment completely intact.  When a storage fault occurs
// mid-move the engine compensates to restore the source seat.
func (e *Engine) Transfer(ctx context.Context, studentID, oldTimeslotID, newTimeslotID uint64) error {
	if oldTimeslotID == newTimeslotID {
		return ErrAlreadyEnrolled
	}
	unlockStudent := e.students.lock(studentID)
	defer unlockStudent()
	unlock := e.slots.lockPair(oldTimeslotID, newTimeslotID)
	defer unlock()

	oldTs, err := e.store.Timeslot(ctx, oldTimeslotID)
	if err != nil {
		return err
	}
	newTs, err := e.store.Timeslot(ctx, newTimeslotID)
	if err != nil {
		return err
	}
	enrolled, err := e.store.IsEnrolled(ctx, studentID, oldTimeslotID)
	if err != nil {
		return fmt.Errorf("check enrollment: %w", err)
	}
	if !enrolled {
		return ErrNotEnrolled
	}
	// Moving across reviews must not give the student a second seat
	// in the destination review.  Within one review the seat being
	// vacated is the student's only one, so no check is needed.
	if newTs.ReviewID != oldTs.ReviewID {
		held, err := e.store.HasEnrollmentInReview(ctx, studentID, newTs.ReviewID)
		if err != nil {
			return fmt.Errorf("check enrollment: %w", err)
		}
		if held {
			return ErrAlreadyEnrolled
		}
	}

	// Claim the destination seat first.  If the new slot is full the
	// old enrollment has not been touched.
	if err := e.store.Reserve(ctx, newTimeslotID); err != nil {
		return err
	}
	if err := e.store.RemoveEnrollment(ctx, studentID, oldTimeslotID); err != nil {
		e.compensate(ctx, "release new seat", func() error {
			return e.store.Release(ctx, newTimeslotID)
		})
		return fmt.Errorf("remove old enrollment: %w", err)
	}
	if err := e.store.AddEnrollment(ctx, studentID, newTimeslotID); err != nil {
		e.compensate(ctx, "restore old enrollment", func() error {
			return e.store.AddEnrollment(ctx, studentID, oldTimeslotID)
		})
		e.compensate(ctx, "release new seat", func() error {
			return e.store.Release(ctx, newTimeslotID)
		})
		return fmt.Errorf("add new enrollment: %w", err)
	}
	if err := e.store.Release(ctx, oldTimeslotID); err != nil {
		// The move itself is complete at this point; unwinding it would
		// throw away a seat the student validly holds.  Report success
		// and leave the inflated old counter for an operator to repair.
		e.log.Error("transfer complete but old seat not released",
			zap.Uint64("student_id", studentID),
			zap.Uint64("old_timeslot_id", oldTimeslotID),
			zap.Error(err))
	}

	e.log.Info("student transferred",
		zap.Uint64("student_id", studentID),
		zap.Uint64("old_timeslot_id", oldTimeslotID),
		zap.Uint64("new_timeslot_id", newTimeslotID))
	return nil
}

// compensate runs a rollback step and logs when even the rollback
// fails; at that point only the log line can tell an operator what to
// repair.
func (e *Engine) compensate(ctx context.Context, step string, fn func() error) {
	if err := fn(); err != nil {
		e.log.Error("transfer compensation failed",
			zap.String("step", step),
			zap.Error(err))
	}
}
