package model

import "time"

// Review represents an exam-review session created by an employee.
// A review is subdivided into fixed-length timeslots that students
// can sign up for.  This struct corresponds to a row in the
// `reviews` table.
//
// Fields:
//  ID          – primary key identifier.
//  Name        – display name of the review (e.g. course + exam).
//  Location    – room or building where the review takes place.
//  StartTime   – when the first timeslot begins.
//  SlotLength  – length of one timeslot in minutes.
//  SlotCount   – number of timeslots the review is divided into.
//  CreatorID   – employee who created the review.
//  Description – free-text description shown to students.
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last update timestamp.
type Review struct {
	ID          uint64    // reviews.id
	Name        string    // reviews.name
	Location    string    // reviews.location
	StartTime   time.Time // reviews.start_time
	SlotLength  uint32    // reviews.slot_length (minutes)
	SlotCount   uint32    // reviews.slot_count
	CreatorID   uint64    // reviews.creator_id
	Description string    // reviews.description
	CreatedAt   time.Time // reviews.created_at
	UpdatedAt   time.Time // reviews.updated_at
}
