package authplane

import "errors"

var (
	// ErrUnauthorized is the single outcome for every token validation or
	// refresh failure at the engine boundary. The underlying kind is
	// logged, never returned.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrSessionNotFound is returned when a logout targets a session that
	// does not exist or has expired.
	ErrSessionNotFound = errors.New("session not found")
)
