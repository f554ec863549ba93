package model

// Administrator manages identity records and verifies employees.
//
// Fields:
//  ID        – primary key identifier.
//  GoogleID  – external auth identifier from the sign-in provider.
//  FirstName – given name.
//  LastName  – family name.
type Administrator struct {
	ID        uint64 // administrators.id
	GoogleID  string // administrators.google_id
	FirstName string // administrators.first_name
	LastName  string // administrators.last_name
}
