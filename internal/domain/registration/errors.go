package domain

import "errors"

// Credential failures. Never retried automatically.
var (
	ErrUnauthenticated   = errors.New("missing or malformed credential")
	ErrInvalidCredential = errors.New("credential signature or expiry is invalid")
)

// Authorization and business-rule rejections, surfaced verbatim to the caller.
var (
	ErrForbidden            = errors.New("requester lacks permission for this operation")
	ErrAlreadyRegistered    = errors.New("subject already holds a confirmed registration for this event")
	ErrCapacityExceeded     = errors.New("event is fully booked")
	ErrRegistrationNotFound = errors.New("registration not found")
)

// Capacity oracle failures. ErrOracleUnavailable is transient and safe for
// the client to retry since no ledger mutation occurred.
var (
	ErrEventNotFound     = errors.New("event does not exist")
	ErrOracleUnavailable = errors.New("event catalog is unavailable")
	ErrIdempotencyMisuse = errors.New("idempotency key already used with different request data")
)
