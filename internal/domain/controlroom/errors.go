package controlroom

import "errors"

// Control room domain errors
var (
	ErrSessionNotFound     = errors.New("control room session not found")
	ErrSessionLimitReached = errors.New("too many open control room sessions")
	ErrSnapshotUnavailable = errors.New("marker snapshot is unavailable")
	ErrCompanyIDRequired   = errors.New("company ID is required")
)
