package approval

import "errors"

var (
	// ErrAlreadyPending is returned when a checkpoint of a workflow already
	// has an unresolved request.
	ErrAlreadyPending = errors.New("approval: request already pending")

	// ErrTimeoutRequired is returned when a request carries no positive timeout.
	ErrTimeoutRequired = errors.New("approval: timeout required")

	// ErrTimedOut marks a checkpoint that received no response in time.
	ErrTimedOut = errors.New("approval: timed out")

	// ErrInvalidCheckpoint is returned for checkpoints other than plan and final.
	ErrInvalidCheckpoint = errors.New("approval: invalid checkpoint")
)
