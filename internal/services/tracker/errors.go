package tracker

import "errors"

// Define errors
var (
	// ErrSessionNotFound is returned when a member has no recorded sessions
	ErrSessionNotFound = errors.New("session not found")
)
