package errors

import "errors"

var (
	ErrNotFound = errors.New("slot not found")

	ErrInvalidID = errors.New("invalid slot ID format")

	// ErrNoCapacity means the conditional increment found no free capacity.
	ErrNoCapacity = errors.New("slot has no free capacity")

	// ErrCountFloor means a decrement would take the booked count below zero.
	ErrCountFloor = errors.New("slot booked count already at zero")
)
