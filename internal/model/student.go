package model

// Student is a university student who signs up for review timeslots.
// The matriculation number is unique across all students.
//
// Fields:
//  ID                  – primary key identifier.
//  GoogleID            – external auth identifier from the sign-in provider.
//  FirstName           – given name.
//  LastName            – family name.
//  MatriculationNumber – unique university registration number.
type Student struct {
	ID                  uint64 // students.id
	GoogleID            string // students.google_id
	FirstName           string // students.first_name
	LastName            string // students.last_name
	MatriculationNumber uint32 // students.matriculation_number
}
