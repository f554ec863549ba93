// Sentinel errors returned by the engine and by Store implementations.
// Handlers translate these into HTTP responses: the not-found values
// map to 404, the rejection values to 409.  Anything else coming out
// of the engine is a storage fault and maps to 500.
package allocation

import "errors"

// ErrTimeslotNotFound is returned when the referenced timeslot does
// not exist.
var ErrTimeslotNotFound = errors.New("timeslot not found")

// ErrStudentNotFound is returned when the referenced student does not
// exist.
var ErrStudentNotFound = errors.New("student not found")

// ErrTimeslotFull is returned when a sign-up or transfer targets a
// timeslot whose occupancy is already at its maximum.  Retrying the
// same slot will not succeed; callers should offer a different one.
var ErrTimeslotFull = errors.New("timeslot full")

// ErrAlreadyEnrolled is returned when the student already holds a seat
// in some timeslot of the target review.  A duplicate sign-up for the
// exact same pair reports the same error rather than creating a
// second row.
var ErrAlreadyEnrolled = errors.New("already enrolled in this review")

// ErrNotEnrolled is returned by sign-out and transfer when the student
// has no enrollment in the source timeslot.
var ErrNotEnrolled = errors.New("not enrolled in this timeslot")
