// Package queue defines message payloads exchanged over the message broker.
package queue

// EnrollmentConfirmedEvent is published when a student secures a seat in a
// timeslot.  It carries enough information for downstream consumers to log,
// notify, or trigger analytics without querying the primary database.
// EventID is a fresh UUID per message so consumers can dedupe redeliveries.
type EnrollmentConfirmedEvent struct {
	EventID      string `json:"event_id"`
	StudentID    uint64 `json:"student_id"`
	TimeslotID   uint64 `json:"timeslot_id"`
	ReviewID     uint64 `json:"review_id"`
	ReviewName   string `json:"review_name"`
	Location     string `json:"location"`
	SlotStartsAt string `json:"slot_starts_at"`
	Occupancy    uint32 `json:"occupancy"`
	MaxOccupancy uint32 `json:"max_occupancy"`
	ConfirmedAt  string `json:"confirmed_at"`
}
