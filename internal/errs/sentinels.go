// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across client/service layers.
var (
	// ErrNoSession indicates no persisted session exists (or it was malformed and purged).
	ErrNoSession = errors.New("no session")

	// ErrSessionExpired indicates the session passed its absolute expiry.
	ErrSessionExpired = errors.New("session expired")

	// ErrUnauthorized indicates the API rejected the bearer credential.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrTimeout indicates an outbound call exceeded its timeout budget,
	// as opposed to being rejected by the server.
	ErrTimeout = errors.New("request timed out")

	// ErrValidation indicates client-side input validation failed; no network call was made.
	ErrValidation = errors.New("validation failed")

	// ErrConfiguration indicates a role with no wired export path.
	ErrConfiguration = errors.New("configuration error")

	// ErrApprovalRequired indicates the actor must file an export request instead of exporting.
	ErrApprovalRequired = errors.New("export requires approval")

	// ErrOTPRequired indicates no valid export token is cached; the actor
	// must complete OTP verification before the export can proceed.
	ErrOTPRequired = errors.New("otp verification required")

	// ErrBusy indicates an OTP send or verify is already in flight.
	ErrBusy = errors.New("operation already in progress")

	// ErrNotApproved indicates a download was attempted on a request that is not approved.
	ErrNotApproved = errors.New("request not approved")

	// ErrCooldown indicates an OTP resend was attempted before the cooldown elapsed.
	ErrCooldown = errors.New("resend cooldown active")
)
