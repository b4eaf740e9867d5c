package storage

import "errors"

// Errors shared by all trial, trace and aggregate stores.
var (
	// ErrNotFound is returned when a trial, trace or aggregate does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey is returned when a trial_id or run_id is written twice.
	// Simulation output is append-only.
	ErrDuplicateKey = errors.New("duplicate key: append-only store does not allow updates")

	// ErrInvalidInput is returned for nil records or empty identifiers.
	ErrInvalidInput = errors.New("invalid input")
)
