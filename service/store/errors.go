package store

import "errors"

var (
	// ErrNotFound is returned when no context exists for the workflow id.
	ErrNotFound = errors.New("store: workflow not found")

	// ErrInvalidID indicates an empty workflow id.
	ErrInvalidID = errors.New("store: invalid workflow id")
)
