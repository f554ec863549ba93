package model

import "time"

// Enrollment associates one student with one timeslot.  The pair is
// unique at the storage level; the stronger rule that a student holds
// at most one seat per review is enforced by the allocation engine.
//
// Fields:
//  StudentID  – student holding the seat.
//  TimeslotID – timeslot the seat belongs to.
//  CreatedAt  – when the student signed up.
type Enrollment struct {
	StudentID  uint64    // enrollments.student_id
	TimeslotID uint64    // enrollments.timeslot_id
	CreatedAt  time.Time // enrollments.created_at
}
