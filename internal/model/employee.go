package model

// Employee is a university staff member who can create reviews once
// an administrator has verified the account.  Identities carry only
// an external auth identifier; no credentials are stored locally.
//
// Fields:
//  ID        – primary key identifier.
//  GoogleID  – external auth identifier from the sign-in provider.
//  FirstName – given name.
//  LastName  – family name.
//  Verified  – whether review-creation rights have been granted.
type Employee struct {
	ID        uint64 // employees.id
	GoogleID  string // employees.google_id
	FirstName string // employees.first_name
	LastName  string // employees.last_name
	Verified  bool   // employees.verified
}
