package compactpg

import "errors"

// Common errors
var (
	// ErrInvalidConfig is returned when the client configuration is invalid
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrStoreRequired is returned when no store is configured
	ErrStoreRequired = errors.New("store is required")

	// ErrSessionNotFound is returned when a session does not exist
	ErrSessionNotFound = errors.New("session not found")
)
