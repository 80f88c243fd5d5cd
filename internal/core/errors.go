package core

import "errors"

var (
	// ErrNotFound is returned when an order, invoice or account id is unknown.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyLinked is returned when either side of a link already has a counterpart.
	ErrAlreadyLinked = errors.New("already linked")
	// ErrNotLinked is returned when unlinking an order that has no invoice.
	ErrNotLinked = errors.New("not linked")
	// ErrInvalidInput marks a record or argument that failed validation.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidTransition is returned for a disallowed order or invoice state change.
	ErrInvalidTransition = errors.New("invalid transition")
)
