package domain

import "time"

// Role is the access level of a user account.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

type User struct {
	ID           string
	Username     string // unique, trimmed
	Email        string // unique, trimmed, lowercased
	PasswordHash string // argon2id encoded, never plaintext
	Role         Role

	// Password reset fields. Always set or cleared together.
	ResetTokenHash    *string    // fingerprint of the opaque reset token
	ResetTokenExpires *time.Time

	// MFA fields. MFASecret is non-nil iff MFA is (or was) enabled.
	MFAEnabled bool
	MFASecret  *string // base32 TOTP secret

	CreatedAt time.Time
	UpdatedAt time.Time
}

// BackupCode is a single-use MFA fallback credential. Used flips
// false -> true exactly once and never back.
type BackupCode struct {
	Code string // 8 uppercase hex characters
	Used bool
}
