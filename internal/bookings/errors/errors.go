package errors

import "errors"

var (
	ErrNotFound  = errors.New("booking not found")
	ErrInvalidID = errors.New("invalid booking ID format")
	// ErrLockContention means another admission holds the slot lock.
	ErrLockContention = errors.New("slot lock is held by another admission")
	// ErrStatusUnchanged means the booking already carried the requested
	// status, so the conditional transition matched nothing.
	ErrStatusUnchanged = errors.New("booking already in requested status")
)
