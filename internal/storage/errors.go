package storage

import "errors"

var (
	// ErrSourceUnavailable is returned when a roster backend cannot be reached.
	ErrSourceUnavailable = errors.New("roster source unavailable")

	// ErrRosterNotFound is returned when a backend holds no roster.
	ErrRosterNotFound = errors.New("roster not found")
)
