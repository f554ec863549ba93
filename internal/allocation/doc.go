// Package allocation implements the seat-allocation engine for review
// timeslots.  It is the only component allowed to create or destroy
// enrollments and it enforces the two invariants of the system: a
// timeslot never exceeds its maximum occupancy, and a student holds at
// most one seat across all timeslots of a review.
//
// The engine is written against the Store capability interface so the
// persistence layer can be swapped (MySQL in production, an in-memory
// store in tests).  Mutations are serialized through two striped lock
// tables: one keyed by timeslot id guarding occupancy, one keyed by
// student id guarding the one-seat-per-review check.  Occupancy changes
// themselves are single conditional updates, so a crashed or cancelled
// caller can never leave a slot above capacity.
package allocation
