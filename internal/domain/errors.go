package domain

import "errors"

// Sentinel errors shared across repositories and services.
var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrNoCandidate is returned by the matching engine when the eligible
	// candidate set is empty. It is a normal outcome, not a failure.
	ErrNoCandidate = errors.New("no eligible candidate")

	// ErrInvalidInput is returned for requests that fail domain validation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrForbidden is returned when the caller is not allowed to act on a record.
	ErrForbidden = errors.New("forbidden")
)
