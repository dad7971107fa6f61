package auth

import "errors"

var (
	ErrMissingFields    = errors.New("all fields are required")
	ErrFieldTooLong     = errors.New("field exceeds maximum length")
	ErrPasswordMismatch = errors.New("passwords do not match")

	// ErrInvalidCredentials is returned for an unknown username and for
	// a wrong password alike, so callers can't enumerate usernames.
	ErrInvalidCredentials = errors.New("invalid username and/or password")
)
