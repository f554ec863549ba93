package model

import "time"

// RefreshToken models an entry in the `refresh_tokens` table.  Each
// token belongs to one identity (student, employee or administrator,
// distinguished by Role) and contains metadata for expiry and
// revocation.  The plain token is not stored; only its SHA-256 hash.
//
// Fields:
//  ID        – primary key identifier.
//  SubjectID – identity the token belongs to.
//  Role      – STUDENT, EMPLOYEE or ADMIN; selects the identity table.
//  TokenHash – SHA-256 hex digest of the token value.
//  ExpiresAt – expiration timestamp of the token.
//  RevokedAt – when the token was revoked (nil if still active).
//  CreatedAt – timestamp of creation.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	SubjectID uint64     // refresh_tokens.subject_id
	Role      string     // refresh_tokens.role
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}
