package model

import "time"

// Session and export-token lifetimes. The session window is fixed at login;
// the export token is re-derived through a fresh OTP cycle once expired.
const (
	SessionLifetime            = 20 * time.Minute
	SchoolAdminSessionLifetime = 24 * time.Hour
	ExportTokenLifetime        = 30 * time.Minute
)

// Expired is the single expiry rule shared by sessions and export tokens:
// a credential issued at issuedAt is expired once more than lifetime has
// elapsed. Callers evaluate it lazily at point of use.
func Expired(issuedAt time.Time, lifetime time.Duration, now time.Time) bool {
	return now.Sub(issuedAt) > lifetime
}
