package model

import "time"

// Timeslot is a fixed-duration, fixed-capacity time bucket within a
// review.  CurrentOccupancy is a cached count of enrollments and is
// only ever mutated through the allocation engine, which guarantees
// 0 <= CurrentOccupancy <= MaxOccupancy at all times.
//
// Fields:
//  ID               – primary key identifier.
//  StartTime        – when this slot begins.
//  Duration         – slot length in minutes.
//  MaxOccupancy     – maximum number of students admitted.
//  CurrentOccupancy – number of students currently signed up.
//  ReviewID         – owning review; deleting the review cascades here.
//  CreatedAt        – creation timestamp.
//  UpdatedAt        – last update timestamp.
type Timeslot struct {
	ID               uint64    // timeslots.id
	StartTime        time.Time // timeslots.start_time
	Duration         uint32    // timeslots.duration (minutes)
	MaxOccupancy     uint32    // timeslots.max_occupancy
	CurrentOccupancy uint32    // timeslots.current_occupancy
	ReviewID         uint64    // timeslots.review_id
	CreatedAt        time.Time // timeslots.created_at
	UpdatedAt        time.Time // timeslots.updated_at
}
